package usecase

import (
	"context"
	"errors"
	"net/http"

	"shopping/internal/domain/model"
	repo "shopping/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecase は /cart の業務ロジックです。
// 価格はカートに保存せず、表示のたびに現在の実効価格で計算します。
type CartUsecase struct {
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
	tx           repo.TransactionManager
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	tx repo.TransactionManager,
) *CartUsecase {
	return &CartUsecase{
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
		tx:           tx,
	}
}

type CartItemResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Stock     int64           `json:"stock"`
}

type CartResponse struct {
	ID        int64              `json:"id"`
	Items     []CartItemResponse `json:"items"`
	Total     decimal.Decimal    `json:"total"`
	ItemCount int64              `json:"item_count"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

// カート取得（無ければ作って空を返す）
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.cartRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildCartResponse(ctx, cart.ID)
}

// カートに追加（同一商品は数量加算）。既存数量＋追加数量が在庫を超えたらエラー
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	cart, err := u.cartRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// 商品行をロックしてから既存数量を読む（同時追加で在庫を超えない）
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		locked, err := r.Products().FindByIDsForUpdate(ctx, []int64{in.ProductID})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		p := locked[0]

		var existingQty int64
		existing, err := r.CartItems().FindByCartAndProduct(ctx, cart.ID, in.ProductID)
		switch {
		case err == nil:
			existingQty = existing.Quantity
		case errors.Is(err, repo.ErrNotFound):
		default:
			return err
		}

		if existingQty+in.Quantity > p.Stock {
			return insufficientStock(p.Name)
		}
		return r.CartItems().AddQuantity(ctx, cart.ID, in.ProductID, in.Quantity)
	})
	if err != nil {
		return CartResponse{}, toHTTPError(err)
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// 数量の置き換え（productId 指定）
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID int64, productID int64, in UpdateCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	p, err := u.findProduct(ctx, productID)
	if err != nil {
		return CartResponse{}, err
	}
	if in.Quantity > p.Stock {
		return CartResponse{}, insufficientStock(p.Name)
	}

	cart, err := u.cartRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.cartItemRepo.SetQuantity(ctx, cart.ID, productID, in.Quantity); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "cart item not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// 明細削除（無くてもエラーにしない）
func (u *CartUsecase) RemoveCartItem(ctx context.Context, userID int64, productID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	cart, err := u.cartRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := u.cartItemRepo.DeleteByCartAndProduct(ctx, cart.ID, productID); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, cart.ID)
}

func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.cartRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := u.cartRepo.Clear(ctx, cart.ID); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return CartResponse{ID: cart.ID, Items: []CartItemResponse{}, Total: decimal.Zero}, nil
}

func (u *CartUsecase) findProduct(ctx context.Context, productID int64) (model.Product, error) {
	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

// cartIDの明細をまとめてCartResponseを作る。
func (u *CartUsecase) buildCartResponse(ctx context.Context, cartID int64) (CartResponse, error) {
	items, err := u.cartItemRepo.ListByCartID(ctx, cartID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	resp := CartResponse{ID: cartID, Items: make([]CartItemResponse, 0, len(items)), Total: decimal.Zero}

	for _, it := range items {
		p, err := u.productRepo.FindByID(ctx, it.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		price := p.EffectivePrice()
		subtotal := price.Mul(decimal.NewFromInt(it.Quantity))
		resp.Items = append(resp.Items, CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      p.Name,
			ImageURL:  p.ImageURL,
			Price:     price,
			Quantity:  it.Quantity,
			Subtotal:  subtotal,
			Stock:     p.Stock,
		})
		resp.Total = resp.Total.Add(subtotal)
		resp.ItemCount += it.Quantity
	}

	return resp, nil
}
