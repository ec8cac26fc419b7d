package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/lsmpricer/algorithm/finance"
	"github.com/wyfcoding/lsmpricer/algorithm/sim"
)

// Request 美式期权定价请求，未填写的模拟参数使用服务配置的默认值。
type Request struct {
	Type        string  `json:"type"                  validate:"required"`
	Spot        float64 `json:"spot"                  validate:"gt=0"`
	Strike      float64 `json:"strike"                validate:"gt=0"`
	Maturity    float64 `json:"maturity"              validate:"gt=0"` // 年
	Rate        float64 `json:"rate"`
	Dividend    float64 `json:"dividend"`
	Volatility  float64 `json:"volatility"            validate:"gte=0"`
	Steps       int     `json:"steps,omitempty"       validate:"gte=0"`
	Paths       int     `json:"paths,omitempty"       validate:"gte=0"`
	Degree      *int    `json:"degree,omitempty"      validate:"omitempty,gte=0,lte=8"`
	Seed        *uint64 `json:"seed,omitempty"`
	Solver      string  `json:"solver,omitempty"      validate:"omitempty,oneof=qr cholesky normal"`
	Diagnostics bool    `json:"diagnostics,omitempty"` // 返回逐步回归与行权统计
	NoEarly     bool    `json:"no_early,omitempty"`    // 关闭提前行权，按欧式定价
}

// Response 定价结果，金额字段按配置精度四舍五入。
type Response struct {
	Type                 string               `json:"type"`
	Price                decimal.Decimal      `json:"price"`
	StdErr               decimal.Decimal      `json:"std_err"`
	European             decimal.Decimal      `json:"european"`
	EuropeanStdErr       decimal.Decimal      `json:"european_std_err"`
	BlackScholes         decimal.Decimal      `json:"black_scholes"`
	EarlyExercisePremium decimal.Decimal      `json:"early_exercise_premium"`
	Exercised            int                  `json:"exercised"`
	Fallbacks            int                  `json:"fallbacks"`
	Steps                int                  `json:"steps"`
	Paths                int                  `json:"paths"`
	Degree               int                  `json:"degree"`
	Solver               string               `json:"solver"`
	Seed                 uint64               `json:"seed"`
	Terminal             sim.Statistics       `json:"terminal"`
	StepReports          []finance.StepReport `json:"step_reports,omitempty"`
	Cached               bool                 `json:"cached"`
}

// BatchItem 批量定价中单个请求的结果，Result 与 Error 二选一。
type BatchItem struct {
	Index  int        `json:"index"`
	Result *Response  `json:"result,omitempty"`
	Error  *ItemError `json:"error,omitempty"`
}

// ItemError 单项错误。
type ItemError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// BatchResponse 批量定价结果，Items 与请求顺序一致。
type BatchResponse struct {
	ID        string      `json:"id"`
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// BatchRequest 批量定价 HTTP 请求体。
type BatchRequest struct {
	Requests []Request `json:"requests"`
}
