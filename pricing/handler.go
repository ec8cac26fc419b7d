package pricing

import (
	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/lsmpricer/response"
	"github.com/wyfcoding/lsmpricer/xerrors"
)

// Handler 定价服务的 HTTP 处理器，错误通过 c.Error 交给 HTTPErrorHandler 统一输出。
type Handler struct {
	svc *Service
}

// NewHandler 创建 HTTP 处理器实例
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 将处理器方法绑定到路由
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/v1/options")
	{
		api.POST("/american", h.PriceAmerican)
		api.POST("/batch", h.PriceBatch)
	}
}

// PriceAmerican 对单个美式期权定价
func (h *Handler) PriceAmerican(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(xerrors.ErrInvalidInput.DeriveWithCause(err, "malformed request body"))
		return
	}

	resp, err := h.svc.Price(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, resp)
}

// PriceBatch 批量定价，单项失败不影响整体的 200 响应
func (h *Handler) PriceBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(xerrors.ErrInvalidInput.DeriveWithCause(err, "malformed request body"))
		return
	}

	resp, err := h.svc.PriceBatch(c.Request.Context(), req.Requests)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, resp)
}
