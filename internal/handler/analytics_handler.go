package handler

import (
	"net/http"

	"shopping/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AnalyticsHandler struct {
	uc *usecase.AnalyticsUsecase
}

func NewAnalyticsHandler(uc *usecase.AnalyticsUsecase) *AnalyticsHandler {
	return &AnalyticsHandler{uc: uc}
}

func (h *AnalyticsHandler) RegisterRoutes(e *echo.Echo, mw Guards) {
	e.GET("/admin/analytics", h.get, mw.Admin...)
}

func (h *AnalyticsHandler) get(c echo.Context) error {
	out, err := h.uc.Get(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
