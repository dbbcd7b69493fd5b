package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/healing-guide-backend/internal/platform/apierr"
	"github.com/yungbote/healing-guide-backend/internal/platform/ctxutil"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
)

// Probe and scrape traffic is logged at debug only.
var quietRoutes = map[string]bool{
	"/healthcheck": true,
	"/metrics":     true,
}

// RequestLogger writes one line per request after the handler chain. Level follows
// the status class; errors recorded by response.Fail contribute their code.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", c.Writer.Size(),
			"client_ip", c.ClientIP(),
		}
		if tr, ok := ctxutil.TraceFrom(c.Request.Context()); ok {
			fields = append(fields, tr.Fields()...)
		}
		if last := c.Errors.Last(); last != nil {
			fields = append(fields, "error_code", apierr.CodeOf(last.Err), "error", last.Err.Error())
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		case quietRoutes[route]:
			log.Debug("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
