package repository

import (
	"context"

	"shopping/internal/domain/model"
)

type ReviewRepository interface {
	// 同じ (product, user) が既にあれば ErrDuplicate
	Create(ctx context.Context, r model.Review) (model.Review, error)
	FindByID(ctx context.Context, id int64) (model.Review, error)
	ExistsByProductAndUser(ctx context.Context, productID int64, userID int64) (bool, error)
	ListByProductID(ctx context.Context, productID int64, page int, limit int) ([]model.Review, int64, error)
	Update(ctx context.Context, r model.Review) error
	Delete(ctx context.Context, id int64) error

	// 平均評価と件数（0件なら 0, 0）
	RatingStats(ctx context.Context, productID int64) (float64, int64, error)
}
