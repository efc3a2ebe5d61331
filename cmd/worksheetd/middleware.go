package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"homework-hero/internal/observability"
)

const requestIDHeader = "X-Request-ID"

// requestIDMiddleware attaches a request ID to the request context and
// echoes it back to the client. Incoming IDs are honored so callers can
// correlate across services.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx := observability.ContextWithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// loggingMiddleware logs one line per request.
func loggingMiddleware(logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithRequestID(c.Request.Context()).Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
