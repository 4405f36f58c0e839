package server

import (
	"shopping/internal/handler"
	"shopping/internal/middleware"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	AdminUser    *handler.AdminUserHandler
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	Category     *handler.CategoryHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	AdminOrder   *handler.AdminOrderHandler
	Review       *handler.ReviewHandler
	Analytics    *handler.AnalyticsHandler
	AuditLog     *handler.AuditLogHandler
}

// 認証: JWT → token_version。管理者はさらに ADMIN
func guards(opts Options) handler.Guards {
	auth := []echo.MiddlewareFunc{
		middleware.AuthJWT(opts.Tokens),
		middleware.TokenVersionGuard(opts.Users),
	}
	admin := append(append([]echo.MiddlewareFunc{}, auth...), middleware.AdminRoleGuard())
	return handler.Guards{Auth: auth, Admin: admin}
}

func RegisterRoutes(e *echo.Echo, h Handlers, mw handler.Guards) {
	h.Health.RegisterRoutes(e)
	h.Auth.RegisterRoutes(e, mw)
	h.AdminUser.RegisterRoutes(e, mw)
	h.Product.RegisterRoutes(e)
	h.AdminProduct.RegisterRoutes(e, mw)
	h.Category.RegisterRoutes(e, mw)
	h.Cart.RegisterRoutes(e, mw)
	h.AdminOrder.RegisterRoutes(e, mw)
	h.Order.RegisterRoutes(e, mw)
	h.Review.RegisterRoutes(e, mw)
	h.Analytics.RegisterRoutes(e, mw)
	h.AuditLog.RegisterRoutes(e, mw)
}
