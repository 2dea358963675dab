package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soulhub/soulhub-backend/internal/logger"
)

type RequestLogMiddleware struct {
	log *logger.Logger
}

func NewRequestLogMiddleware(log *logger.Logger) *RequestLogMiddleware {
	middlewareLogger := log.With("middleware", "RequestLogMiddleware")
	return &RequestLogMiddleware{log: middlewareLogger}
}

func (rl *RequestLogMiddleware) LogRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		rl.log.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
