package app

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/lsmpricer/config"
	"github.com/wyfcoding/lsmpricer/health"
	"github.com/wyfcoding/lsmpricer/metrics"
	"github.com/wyfcoding/lsmpricer/middleware"
	"github.com/wyfcoding/lsmpricer/pricing"
	"github.com/wyfcoding/lsmpricer/server"
)

const (
	defaultMetricsPath = "/metrics"
	healthPath         = "/health"
)

// RouterDeps 路由依赖，Metrics 为 nil 时不采集 HTTP 指标。
type RouterDeps struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Health  *health.Registry
	Service *pricing.Service
	Extra   []gin.HandlerFunc // 最外层中间件，例如链路追踪
}

// NewRouter 按固定顺序组装中间件与路由。
// HTTPErrorHandler 位于最内层，处理器通过 c.Error 报告的错误都在此输出。
func NewRouter(cfg *config.Config, deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mws := append([]gin.HandlerFunc(nil), deps.Extra...)
	mws = append(mws,
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.Logger(logger, cfg.Log.SlowThreshold),
	)
	if deps.Metrics != nil {
		mws = append(mws, middleware.HTTPMetricsMiddlewareWithOptions(deps.Metrics, middleware.MetricsOptions{
			SlowThreshold: cfg.Log.SlowThreshold,
			SkipPaths:     []string{healthPath, metricsPath(cfg)},
		}))
	}
	if cfg.RateLimit.Enabled {
		mws = append(mws, middleware.NewLocalRateLimitMiddleware(cfg.RateLimit.Rate, cfg.RateLimit.Burst))
	}
	mws = append(mws,
		middleware.MaxBodyBytes(cfg.Server.HTTP.MaxBodyBytes),
		middleware.TimeoutMiddleware(cfg.Pricing.Timeout),
		middleware.HTTPErrorHandler(),
	)

	engine := server.NewDefaultGinEngine(cfg.Server.Environment == "prod", mws...)

	if deps.Health != nil {
		engine.GET(healthPath, deps.Health.Handler())
	}
	if deps.Metrics != nil && cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		engine.GET(metricsPath(cfg), gin.WrapH(deps.Metrics.Handler()))
	}
	if deps.Service != nil {
		pricing.NewHandler(deps.Service).RegisterRoutes(engine)
	}

	return engine
}

func metricsPath(cfg *config.Config) string {
	if cfg.Metrics.Path == "" {
		return defaultMetricsPath
	}
	return cfg.Metrics.Path
}
