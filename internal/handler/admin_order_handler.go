package handler

import (
	"net/http"
	"strings"

	"shopping/internal/repository"
	"shopping/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

// /orders/all と /orders/:id/status は ADMIN のみ
func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, mw Guards) {
	e.GET("/orders/all", h.list, mw.Admin...)
	e.PUT("/orders/:id/status", h.updateStatus, mw.Admin...)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page, limit, err := pagingQuery(c, 50)
	if err != nil {
		return writeError(c, err)
	}

	userID, err := optionalID(c, "user_id")
	if err != nil {
		return writeError(c, err)
	}

	from, err := usecase.ParseDateTimeRFC3339(c.QueryParam("from"))
	if err != nil {
		return writeError(c, err)
	}
	to, err := usecase.ParseDateTimeRFC3339(c.QueryParam("to"))
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.List(c.Request().Context(), repository.AdminOrderListFilter{
		Page:   page,
		Limit:  limit,
		Status: strings.ToUpper(c.QueryParam("status")),
		UserID: userID,
		From:   from,
		To:     to,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	orderID, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	// ?status= を優先。無ければ body
	status := c.QueryParam("status")
	if status == "" && c.Request().ContentLength != 0 {
		var req OrderStatusUpdateRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
		}
		status = req.Status
	}

	// ★操作した管理者IDを取得（監査ログ用）
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.UpdateStatus(
		c.Request().Context(),
		adminID,
		orderID,
		usecase.AdminUpdateOrderStatusInput{Status: strings.ToUpper(status)},
	)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
