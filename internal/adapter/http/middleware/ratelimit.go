package middleware

import (
	"net/http"

	"github.com/Sarrabentardeit/Auditalex/internal/infrastructure/ratelimit"
	"github.com/Sarrabentardeit/Auditalex/pkg"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errTooManyRequests = pkg.NewDomainErrorSimple("TOO_MANY_REQUESTS", "Too many requests, try again later", http.StatusTooManyRequests)

// RateLimit rejects requests once the client IP exhausts its budget. Limiter
// failures let the request through.
func RateLimit(l ratelimit.Limiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(errTooManyRequests.HTTPStatus, errTooManyRequests.ToHTTPError())
			return
		}
		c.Next()
	}
}
