package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/lsmpricer/contextx"
)

// Logger 生产级访问日志中间件，超过 slowThreshold 的请求以 Warn 级别记录。
func Logger(logger *slog.Logger, slowThreshold time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		cost := time.Since(start)
		ctx := c.Request.Context()
		ip := contextx.GetIP(ctx)
		if ip == "" {
			ip = c.ClientIP()
		}
		attrs := []any{
			"request_id", contextx.GetRequestID(ctx),
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"ip", ip,
			"cost", cost,
			"user_agent", c.Request.UserAgent(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		if slowThreshold > 0 && cost > slowThreshold {
			logger.WarnContext(ctx, "HTTP Slow Request", attrs...)
			return
		}
		logger.InfoContext(ctx, "HTTP Request", attrs...)
	}
}
