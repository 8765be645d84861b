package server

import (
	"net/http"
	"time"

	"market-terminal/src/logger"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------

// corsMiddleware allows any origin. The Origin is echoed rather than "*" so
// credentialed requests from the UI are accepted.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		if origin := c.Request.Header.Get("Origin"); origin != "" {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		} else {
			h.Set("Access-Control-Allow-Origin", "*")
		}
		h.Set("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == http.MethodOptions {
			methods := c.Request.Header.Get("Access-Control-Request-Method")
			if methods == "" {
				methods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
			}
			h.Set("Access-Control-Allow-Methods", methods)

			if headers := c.Request.Header.Get("Access-Control-Request-Headers"); headers != "" {
				h.Set("Access-Control-Allow-Headers", headers)
			} else {
				h.Set("Access-Control-Allow-Headers", "*")
			}
			h.Set("Access-Control-Max-Age", "600")

			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// -----------------------------------------------------------------------------

func accessLog(log *logger.Logger) gin.HandlerFunc {
	zl := log.Zerolog()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := zl.Debug()
		if status >= http.StatusInternalServerError {
			event = zl.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
