package repository

import (
	"context"
	"errors"

	"shopping/internal/domain/model"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

// 一意制約違反（カテゴリ名、レビュー重複など）
var ErrDuplicate = errors.New("duplicate")

// 一覧検索
type ProductListQuery struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Sort       string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)

	// 注文確定用。行ロックを取り、id 昇順で返す（見つからないIDは含まれない）
	FindByIDsForUpdate(ctx context.Context, ids []int64) ([]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error

	// レビュー集計の反映
	UpdateRating(ctx context.Context, productID int64, rating float64, reviewCount int64) error
	Count(ctx context.Context) (int64, error)
}
