package handler

import (
	"errors"
	"net/http"

	"shopping/internal/logger"
	"shopping/internal/repository"
	auth "shopping/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AdminUserHandler struct {
	logoutAllUC *auth.LogoutAllUsecase
}

func NewAdminUserHandler(logoutAllUC *auth.LogoutAllUsecase) *AdminUserHandler {
	return &AdminUserHandler{logoutAllUC: logoutAllUC}
}

func (h *AdminUserHandler) RegisterRoutes(e *echo.Echo, mw Guards) {
	// ★ /admin 配下は全部「JWT必須 + token_version一致 + ADMIN限定」
	admin := e.Group("/admin", mw.Admin...)

	admin.POST("/users/:id/force-logout", h.ForceLogout)
}

func (h *AdminUserHandler) ForceLogout(c echo.Context) error {
	userID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
	}

	err := h.logoutAllUC.Execute(c.Request().Context(), userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
	}
	if err != nil {
		logger.FromContext(c.Request().Context()).Error("force logout failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "user logged out"})
}
