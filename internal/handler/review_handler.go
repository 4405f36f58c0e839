package handler

import (
	"net/http"

	"shopping/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ReviewHandler struct {
	uc *usecase.ReviewUsecase
}

func NewReviewHandler(uc *usecase.ReviewUsecase) *ReviewHandler {
	return &ReviewHandler{uc: uc}
}

type ReviewCreateRequest struct {
	ProductID int64  `json:"product_id" validate:"gt=0"`
	Rating    int    `json:"rating" validate:"min=1,max=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

type ReviewUpdateRequest struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

func (h *ReviewHandler) RegisterRoutes(e *echo.Echo, mw Guards) {
	e.GET("/products/:id/reviews", h.listByProduct)

	g := e.Group("/reviews", mw.Auth...)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *ReviewHandler) listByProduct(c echo.Context) error {
	productID, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	page, limit, err := pagingQuery(c, 20)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ListByProduct(c.Request().Context(), productID, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReviewHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req ReviewCreateRequest
	if ok, err := bindBody(c, &req); !ok {
		return err
	}

	out, err := h.uc.Create(c.Request().Context(), userID, usecase.CreateReviewInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *ReviewHandler) update(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req ReviewUpdateRequest
	if ok, err := bindBody(c, &req); !ok {
		return err
	}

	out, err := h.uc.Update(c.Request().Context(), userID, id, usecase.UpdateReviewInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReviewHandler) delete(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	if err := h.uc.Delete(c.Request().Context(), userID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "review deleted"})
}
