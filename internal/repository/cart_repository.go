package repository

import (
	"context"

	"shopping/internal/domain/model"
)

type CartRepository interface {
	GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error)
	FindByUserID(ctx context.Context, userID int64) (model.Cart, error)
	// 明細だけ全削除（カート自体は残す）
	Clear(ctx context.Context, cartID int64) error
}
