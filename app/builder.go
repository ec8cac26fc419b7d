package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/lsmpricer/cache"
	"github.com/wyfcoding/lsmpricer/config"
	"github.com/wyfcoding/lsmpricer/health"
	"github.com/wyfcoding/lsmpricer/idgen"
	"github.com/wyfcoding/lsmpricer/logging"
	"github.com/wyfcoding/lsmpricer/metrics"
	"github.com/wyfcoding/lsmpricer/middleware"
	"github.com/wyfcoding/lsmpricer/pricing"
	"github.com/wyfcoding/lsmpricer/server"
	"github.com/wyfcoding/lsmpricer/tracing"
)

// Builder 由已加载的配置装配完整的定价服务。
type Builder struct {
	cfg           *config.Config
	ginMiddleware []gin.HandlerFunc
	appOpts       []Option
}

// NewBuilder 创建一个新的应用构建器.
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg}
}

// WithGinMiddleware 添加最外层的 Gin 中间件.
func (b *Builder) WithGinMiddleware(mw ...gin.HandlerFunc) *Builder {
	b.ginMiddleware = append(b.ginMiddleware, mw...)
	return b
}

// Build 构建并组装完整的 App 实例：日志、ID 生成器、链路追踪、指标、缓存、定价服务、健康检查与 HTTP 服务器.
func (b *Builder) Build(ctx context.Context) (*App, error) {
	cfg := b.cfg
	name := cfg.Server.Name

	logger := b.initLogger()

	if err := idgen.Init(cfg.IDGen); err != nil {
		return nil, fmt.Errorf("init id generator: %w", err)
	}

	if err := b.initTracing(ctx, logger); err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = b.initMetrics()
	}

	registry := health.NewRegistry(name, cfg.Version, 0)

	svcOpts := []pricing.Option{pricing.WithMetrics(m), pricing.WithLogger(logger)}
	if cfg.Cache.Enabled {
		c, err := cache.NewBigCache(ctx, cfg.Cache.TTL, cfg.Cache.MaxSizeMB)
		if err != nil {
			return nil, err
		}
		b.appOpts = append(b.appOpts, WithHook(Hook{
			Name:   "bigcache",
			OnStop: func(context.Context) error { return c.Close() },
		}))
		registry.Register("cache", health.CacheChecker(c))
		svcOpts = append(svcOpts, pricing.WithCache(c, cfg.Cache.TTL))
	}
	svc := pricing.NewService(cfg.Pricing, svcOpts...)

	config.RegisterReloadHook(func(next *config.Config) {
		logger.Info("configuration reloaded, log level applied; restart to apply other changes", "level", next.Log.Level)
	})

	engine := NewRouter(cfg, RouterDeps{
		Logger:  logger,
		Metrics: m,
		Health:  registry,
		Service: svc,
		Extra:   b.ginMiddleware,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Addr, cfg.Server.HTTP.Port)
	srv := server.NewGinServer(engine, addr, logger, server.Options{
		ReadTimeout:    cfg.Server.HTTP.ReadTimeout,
		WriteTimeout:   cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:    cfg.Server.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.Server.HTTP.MaxHeaderBytes,
	})

	opts := append([]Option{WithVersion(cfg.Version), WithServer(srv)}, b.appOpts...)
	return New(name, logger, opts...), nil
}

func (b *Builder) initLogger() *slog.Logger {
	return logging.InitLogger(b.cfg.Log.Logging(b.cfg.Server.Name, "app")).Logger
}

func (b *Builder) initTracing(ctx context.Context, logger *slog.Logger) error {
	if !b.cfg.Tracing.Enabled {
		return nil
	}

	tcfg := b.cfg.Tracing
	if tcfg.ServiceName == "" {
		tcfg.ServiceName = b.cfg.Server.Name
	}
	shutdown, err := tracing.InitTracer(ctx, tcfg)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}

	b.appOpts = append(b.appOpts, WithHook(Hook{
		Name: "tracer",
		OnStop: func(ctx context.Context) error {
			if err := shutdown(ctx); err != nil {
				logger.Error("failed to shutdown tracer", "error", err)
				return err
			}
			return nil
		},
	}))

	b.ginMiddleware = append([]gin.HandlerFunc{middleware.Tracing(tcfg.ServiceName, []string{healthPath, metricsPath(b.cfg)})}, b.ginMiddleware...)
	return nil
}

func (b *Builder) initMetrics() *metrics.Metrics {
	m := metrics.NewMetrics(b.cfg.Server.Name)
	m.RegisterBuildInfo(b.cfg.Server.Name, b.cfg.Version)

	if addr := b.cfg.Metrics.Addr; addr != "" {
		b.appOpts = append(b.appOpts, WithCleanup(m.ExposeHTTP(addr)))
	}
	return m
}
