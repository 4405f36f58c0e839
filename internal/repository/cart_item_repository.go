package repository

import (
	"context"

	"shopping/internal/domain/model"
)

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	FindByCartAndProduct(ctx context.Context, cartID int64, productID int64) (model.CartItem, error)
	// 同一商品はプラス
	AddQuantity(ctx context.Context, cartID int64, productID int64, addQty int64) error
	// 数量を置き換え。明細が無ければ ErrNotFound
	SetQuantity(ctx context.Context, cartID int64, productID int64, qty int64) error
	// 無くてもエラーにしない
	DeleteByCartAndProduct(ctx context.Context, cartID int64, productID int64) error
	// 商品削除時に全カートから外す
	DeleteByProductID(ctx context.Context, productID int64) error
}
