package handler

import (
	"net/http"
	"strconv"

	"shopping/internal/logger"
	"shopping/internal/middleware"
	"shopping/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse は { message: string } の形
type SuccessResponse struct {
	Message string `json:"message"`
}

// ルート登録時に渡すミドルウェア
type Guards struct {
	// JWT + token_version
	Auth []echo.MiddlewareFunc
	// Auth + ADMIN
	Admin []echo.MiddlewareFunc
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		if he.Status >= http.StatusInternalServerError {
			logger.FromContext(c.Request().Context()).Error("request failed", zap.String("message", he.Message))
		}
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	logger.FromContext(c.Request().Context()).Error("unhandled error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

// bind + validate。失敗時は 400 を書いて false
func bindBody(c echo.Context, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	return true, nil
}

func paramID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// page（default 1）, limit（default def）
func pagingQuery(c echo.Context, def int) (int, int, error) {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid page")
		}
		page = p
	}

	limit := def
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = l
	}
	return page, limit, nil
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
}

func invalidID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
}
