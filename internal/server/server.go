package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"shopping/internal/infra/ratelimit"
	"shopping/internal/middleware"
	"shopping/internal/repository"
	"shopping/internal/validator"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Options struct {
	Logger  *zap.Logger
	Limiter ratelimit.Store
	Tokens  middleware.TokenParser
	Users   repository.UserRepository
}

// New は共通ミドルウェアとルートを載せた echo を返す
func New(opts Options, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()

	e.Use(middleware.RequestLogger(opts.Logger))
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.RateLimit(opts.Limiter, skipHealth))

	RegisterRoutes(e, h, guards(opts))
	return e
}

// /healthz はレート制限しない
func skipHealth(c echo.Context) bool {
	return c.Request().URL.Path == "/healthz"
}

// Start は ctx が終わるまで待ち、shutdownTimeout 以内に止める
func Start(ctx context.Context, e *echo.Echo, addr string, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}
