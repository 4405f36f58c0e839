package handler

import (
	"net/http"
	"strconv"

	"shopping/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuditLogHandler struct {
	uc *usecase.AuditLogUsecase
}

func NewAuditLogHandler(uc *usecase.AuditLogUsecase) *AuditLogHandler {
	return &AuditLogHandler{uc: uc}
}

func (h *AuditLogHandler) RegisterRoutes(e *echo.Echo, mw Guards) {
	e.GET("/admin/audit-logs", h.list, mw.Admin...)
}

func (h *AuditLogHandler) list(c echo.Context) error {
	page, limit, err := pagingQuery(c, 50)
	if err != nil {
		return writeError(c, err)
	}

	in := usecase.AuditLogListInput{
		Page:         page,
		Limit:        limit,
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
		From:         c.QueryParam("from"),
		To:           c.QueryParam("to"),
	}
	if in.ActorUserID, err = optionalID(c, "actor_user_id"); err != nil {
		return writeError(c, err)
	}
	if in.ResourceID, err = optionalID(c, "resource_id"); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.List(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func optionalID(c echo.Context, name string) (*int64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}
