package utils

import (
	"time"

	"Go_FileStore/internal/logging"

	"github.com/gin-gonic/gin"
)

// RequestLogger writes one debug line per request.
func RequestLogger() gin.HandlerFunc {
	log := logging.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		log.Debug("request",
			"method", c.Request.Method,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"ip", c.ClientIP(),
			"path", path,
		)
	}
}
