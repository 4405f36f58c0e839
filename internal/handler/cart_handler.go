package handler

import (
	"net/http"

	"shopping/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	ProductID int64 `json:"product_id" validate:"gt=0"`
	Quantity  int64 `json:"quantity" validate:"gt=0"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity" validate:"gt=0"`
}

// /cart, /cart/items/{productId} を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo, mw Guards) {
	g := e.Group("/cart", mw.Auth...)

	g.GET("", h.getCart)
	g.DELETE("", h.clear)
	g.POST("/items", h.addToCart)
	g.PUT("/items/:productId", h.updateItem)
	g.DELETE("/items/:productId", h.deleteItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.GetCart(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req AddCartRequest
	if ok, err := bindBody(c, &req); !ok {
		return err
	}

	out, err := h.uc.AddToCart(c.Request().Context(), userID, usecase.AddCartInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) updateItem(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	productID, ok := paramID(c, "productId")
	if !ok {
		return invalidID(c)
	}

	var req UpdateCartItemRequest
	if ok, err := bindBody(c, &req); !ok {
		return err
	}

	out, err := h.uc.UpdateCartItem(c.Request().Context(), userID, productID, usecase.UpdateCartItemInput{
		Quantity: req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	productID, ok := paramID(c, "productId")
	if !ok {
		return invalidID(c)
	}

	out, err := h.uc.RemoveCartItem(c.Request().Context(), userID, productID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) clear(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.ClearCart(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
