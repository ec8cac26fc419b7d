package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/lsmpricer/response"
)

// HTTPErrorHandler 返回一个 Gin 中间件，处理器通过 c.Error 标注的错误在此统一输出。
func HTTPErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		response.Error(c, c.Errors.Last().Err)
	}
}
