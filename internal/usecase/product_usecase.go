package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shopping/internal/domain/model"
	repo "shopping/internal/repository"

	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	productRepo  repo.ProductRepository
	categoryRepo repo.CategoryRepository
	tx           repo.TransactionManager
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	categoryRepo repo.CategoryRepository,
	tx repo.TransactionManager,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		tx:           tx,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Sort       string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if err := validatePaging(in.Page, in.Limit); err != nil {
		return ProductListOutput{}, err
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be >= 0")
	}
	if in.MaxPrice != nil && in.MaxPrice.IsNegative() {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc", "rating", "name":
	default:
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	items, total, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Page:       in.Page,
		Limit:      in.Limit,
		Q:          strings.TrimSpace(in.Q),
		CategoryID: in.CategoryID,
		MinPrice:   in.MinPrice,
		MaxPrice:   in.MaxPrice,
		Sort:       in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

type ProductInput struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	Stock         int64
	CategoryID    int64
	ImageURL      string
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if !in.Price.IsPositive() {
		return NewHTTPError(http.StatusBadRequest, "price must be > 0")
	}
	if in.DiscountPrice != nil {
		if in.DiscountPrice.IsNegative() {
			return NewHTTPError(http.StatusBadRequest, "discount_price must be >= 0")
		}
		if in.DiscountPrice.GreaterThan(in.Price) {
			return NewHTTPError(http.StatusBadRequest, "discount_price must be <= price")
		}
	}
	if in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	if in.CategoryID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid category_id")
	}
	return nil
}

func (in ProductInput) apply(p *model.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.DiscountPrice = decimal.NullDecimal{}
	if in.DiscountPrice != nil {
		p.DiscountPrice = decimal.NewNullDecimal(*in.DiscountPrice)
	}
	p.CategoryID = in.CategoryID
	p.ImageURL = strings.TrimSpace(in.ImageURL)
}

func (u *ProductUsecase) ensureCategory(ctx context.Context, categoryID int64) error {
	_, err := u.categoryRepo.FindByID(ctx, categoryID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "category not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in ProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := in.validate(); err != nil {
		return model.Product{}, err
	}
	if err := u.ensureCategory(ctx, in.CategoryID); err != nil {
		return model.Product{}, err
	}

	var p model.Product
	in.apply(&p)
	p.Stock = in.Stock

	created, err := u.productRepo.Create(ctx, p)
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

// 在庫が変わる場合は調整履歴も残す
func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in ProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := in.validate(); err != nil {
		return model.Product{}, err
	}
	if err := u.ensureCategory(ctx, in.CategoryID); err != nil {
		return model.Product{}, err
	}

	var out model.Product

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		locked, err := r.Products().FindByIDsForUpdate(ctx, []int64{productID})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		p := locked[0]

		in.apply(&p)
		if err := r.Products().Update(ctx, p); err != nil {
			return err
		}

		if in.Stock != p.Stock {
			if err := setStock(ctx, r, adminUserID, p, in.Stock, "product update"); err != nil {
				return err
			}
			p.Stock = in.Stock
		}
		out = p
		return nil
	})
	if err != nil {
		return model.Product{}, toHTTPError(err)
	}
	return out, nil
}

// 論理削除して、全カートから外す
func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		if err != nil {
			return err
		}

		if err := r.Products().SoftDelete(ctx, productID); err != nil {
			return err
		}
		if err := r.CartItems().DeleteByProductID(ctx, productID); err != nil {
			return err
		}

		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionDeleteProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   fmt.Sprintf(`{"name":%q,"stock":%d}`, p.Name, p.Stock),
			AfterJSON:    `{"deleted":true}`,
			CreatedAt:    time.Now(),
		})
	})
	return toHTTPError(err)
}

// 在庫を「現在値」に更新し、調整履歴と監査ログを残す
func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, adminUserID int64, productID int64, newStock int64, reason string) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if newStock < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "reason required")
	}

	var out model.Product

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 注文確定と同じ順序でロックを取る
		locked, err := r.Products().FindByIDsForUpdate(ctx, []int64{productID})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		p := locked[0]

		if err := setStock(ctx, r, adminUserID, p, newStock, reason); err != nil {
			return err
		}
		p.Stock = newStock
		out = p
		return nil
	})
	if err != nil {
		return model.Product{}, toHTTPError(err)
	}
	return out, nil
}

func setStock(ctx context.Context, r repo.TxRepos, adminUserID int64, p model.Product, newStock int64, reason string) error {
	if err := r.Inventory().SetStock(ctx, p.ID, newStock); err != nil {
		return err
	}

	//履歴を作成（差分）
	if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
		ProductID:   p.ID,
		AdminUserID: adminUserID,
		StockBefore: p.Stock,
		StockAfter:  newStock,
		Delta:       newStock - p.Stock,
		Reason:      reason,
	}); err != nil {
		return err
	}

	//監査ログ（在庫更新）
	return r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionUpdateStock,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   p.ID,
		BeforeJSON:   fmt.Sprintf(`{"stock":%d}`, p.Stock),
		AfterJSON:    fmt.Sprintf(`{"stock":%d}`, newStock),
		CreatedAt:    time.Now(),
	})
}
