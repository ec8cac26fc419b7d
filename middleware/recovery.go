package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/lsmpricer/contextx"
	"github.com/wyfcoding/lsmpricer/response"
)

// Recovery 捕获处理器 panic，记录请求 ID、路由与堆栈后返回 500.
// 响应已经开始写出时只中断链路.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			ctx := c.Request.Context()
			logger.ErrorContext(ctx, "handler panicked",
				"request_id", contextx.GetRequestID(ctx),
				"panic", rec,
				"method", c.Request.Method,
				"route", c.FullPath(),
				"stack", string(debug.Stack()),
			)
			if !c.Writer.Written() {
				response.ErrorWithStatus(c, http.StatusInternalServerError, "internal error", "handler panicked")
			}
			c.Abort()
		}()
		c.Next()
	}
}
