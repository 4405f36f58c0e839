package handler

import (
	"net/http"

	"shopping/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// price は数値でも文字列でも受ける
type ProductRequest struct {
	Name          string           `json:"name" validate:"required,max=255"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	Stock         int64            `json:"stock" validate:"gte=0"`
	CategoryID    int64            `json:"category_id" validate:"gt=0"`
	ImageURL      string           `json:"image_url" validate:"max=500"`
}

func (r ProductRequest) toInput() usecase.ProductInput {
	return usecase.ProductInput{
		Name:          r.Name,
		Description:   r.Description,
		Price:         r.Price,
		DiscountPrice: r.DiscountPrice,
		Stock:         r.Stock,
		CategoryID:    r.CategoryID,
		ImageURL:      r.ImageURL,
	}
}

// InventoryUpdateRequest は在庫更新の入力です。
type InventoryUpdateRequest struct {
	Stock  int64  `json:"stock" validate:"gte=0"`
	Reason string `json:"reason" validate:"required,max=255"`
}

// /admin/products と /admin/inventory をまとめる
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

// adminを登録
func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, mw Guards) {
	admin := e.Group("/admin", mw.Admin...)

	admin.POST("/products", h.createProduct)
	admin.PUT("/products/:id", h.updateProduct)
	admin.DELETE("/products/:id", h.deleteProduct)
	admin.PUT("/inventory/:product_id", h.updateInventory)
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req ProductRequest
	if ok, err := bindBody(c, &req); !ok {
		return err
	}

	p, err := h.uc.AdminCreateProduct(c.Request().Context(), adminID, req.toInput())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req ProductRequest
	if ok, err := bindBody(c, &req); !ok {
		return err
	}

	p, err := h.uc.AdminUpdateProduct(c.Request().Context(), adminID, id, req.toInput())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	if err := h.uc.AdminDeleteProduct(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "product deleted"})
}

func (h *AdminProductHandler) updateInventory(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := paramID(c, "product_id")
	if !ok {
		return invalidID(c)
	}

	var req InventoryUpdateRequest
	if ok, err := bindBody(c, &req); !ok {
		return err
	}

	p, err := h.uc.AdminUpdateInventory(c.Request().Context(), adminID, id, req.Stock, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
