// Package response 提供了统一的 HTTP 响应封装，支持业务错误码映射。
package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/lsmpricer/tracing"
	"github.com/wyfcoding/lsmpricer/xerrors"
)

// StatusClientClosedRequest 客户端主动断开 (nginx 约定)。
const StatusClientClosedRequest = 499

// HTTPStatusProvider 定义了能够提供 HTTP 状态码的错误接口。
type HTTPStatusProvider interface {
	HTTPStatus() int // 返回对应的 HTTP 标准状态码
}

// Success 发送一个标准的成功响应。
// 默认：HTTP 200，业务码 0，消息 "success"。
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"msg":  "success",
		"data": data,
	})
}

// Error 发送智能错误响应。
// 优先识别 xerrors 业务错误并使用其业务码，其次识别上下文取消与超时，兜底返回 500。
func Error(c *gin.Context, err error) {
	if err == nil {
		Success(c, nil)
		return
	}

	statusCode := http.StatusInternalServerError
	code := statusCode
	msg := err.Error()
	detail := ""

	if e, ok := xerrors.FromError(err); ok {
		statusCode = e.HTTPStatus()
		code = e.Code
		msg = e.Message
		detail = e.Detail
		if e.Cause != nil {
			detail += " (" + e.Cause.Error() + ")"
		}
	} else if p, ok := err.(HTTPStatusProvider); ok {
		statusCode = p.HTTPStatus()
		code = statusCode
	} else if errors.Is(err, context.DeadlineExceeded) {
		statusCode, code = http.StatusGatewayTimeout, http.StatusGatewayTimeout
	} else if errors.Is(err, context.Canceled) {
		statusCode, code = StatusClientClosedRequest, StatusClientClosedRequest
	}

	body := gin.H{
		"code":   code,
		"msg":    msg,
		"detail": detail,
	}
	if traceID := tracing.GetTraceID(c.Request.Context()); traceID != "" {
		body["trace_id"] = traceID
	}
	c.JSON(statusCode, body)
}

// ErrorWithStatus 发送一个带有指定 HTTP 状态码、消息和详情的错误响应。
func ErrorWithStatus(c *gin.Context, status int, msg string, detail string) {
	c.JSON(status, gin.H{
		"code":   status,
		"msg":    msg,
		"detail": detail,
	})
}
