package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vectcut/credits/internal/ownercontext"
	"go.uber.org/zap"
)

const ownerHeader = "X-Owner-ID"

// RequestLogger emits one structured log line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// OwnerMiddleware resolves the calling owner from the X-Owner-ID header
// and stores it on the request context. Requests without a valid owner
// are rejected before reaching any handler.
func OwnerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(ownerHeader)
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ownerID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ownerID <= 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := ownercontext.WithOwnerID(c.Request.Context(), ownerID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func ownerIDFrom(c *gin.Context) (string, bool) {
	ownerID, ok := ownercontext.OwnerIDFromContext(c.Request.Context())
	if !ok || ownerID <= 0 {
		return "", false
	}
	return ownerID.String(), true
}
