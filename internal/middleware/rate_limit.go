package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"net/http"
	"strconv"

	"shopping/internal/infra/ratelimit"
	"shopping/internal/logger"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// クライアントの識別は IP + User-Agent のハッシュ
func ClientKey(c echo.Context) string {
	sum := sha256.Sum256([]byte(c.Request().UserAgent()))
	return c.RealIP() + ":" + hex.EncodeToString(sum[:8])
}

// バケットが空なら 429。ストア障害時は通す
func RateLimit(store ratelimit.Store, skipper echomw.Skipper) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = echomw.DefaultSkipper
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}

			ctx := c.Request().Context()
			res, err := store.Take(ctx, ClientKey(c))
			if err != nil {
				logger.FromContext(ctx).Warn("rate limit store unavailable", zap.Error(err))
				return next(c)
			}

			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if !res.Allowed {
				secs := int(math.Ceil(res.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, errorJSON("too many requests"))
			}
			return next(c)
		}
	}
}
