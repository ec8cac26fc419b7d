// Package app 负责定价服务的装配与生命周期：启动组件与服务器，监听信号并按相反顺序优雅关闭。
package app

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/wyfcoding/lsmpricer/server"
)

const defaultShutdownTimeout = 10 * time.Second

// App 是应用程序的核心容器，负责管理应用程序的生命周期。
type App struct {
	name      string
	logger    *slog.Logger
	opts      options
	lifecycle *Lifecycle
	ctx       context.Context
	cancel    context.CancelFunc
}

// New 创建一个新的应用程序实例。
func New(name string, logger *slog.Logger, opts ...Option) *App {
	o := options{shutdownTimeout: defaultShutdownTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = slog.Default()
	}

	lc := NewLifecycle(logger)
	for _, hook := range o.hooks {
		lc.Append(hook)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		name:      name,
		logger:    logger,
		opts:      o,
		lifecycle: lc,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Shutdown 触发优雅关闭，Run 随后返回。
func (a *App) Shutdown() {
	a.cancel()
}

// Run 启动所有组件与服务器并阻塞，直到收到 SIGINT/SIGTERM、调用 Shutdown 或某个服务器出错。
// 返回第一个服务器错误或组件停止错误。
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(a.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("application starting", "name", a.name, "version", a.opts.version, "pid", os.Getpid())

	if err := a.lifecycle.Start(ctx); err != nil {
		a.runCleanups()
		return err
	}

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		serveErr error
	)
	for _, srv := range a.opts.servers {
		wg.Add(1)
		go func(s server.Server) {
			defer wg.Done()
			if err := s.Start(ctx); err != nil {
				a.logger.Error("server exited with error", "error", err)
				errOnce.Do(func() { serveErr = err })
				a.cancel()
			}
		}(srv)
	}

	<-ctx.Done()
	a.logger.Info("shutting down application", "name", a.name)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.opts.shutdownTimeout)
	defer cancel()

	var stopErr error
	for _, srv := range a.opts.servers {
		if err := srv.Stop(shutdownCtx); err != nil {
			a.logger.Error("server failed to stop", "error", err)
			stopErr = errors.Join(stopErr, err)
		}
	}
	wg.Wait()

	if err := a.lifecycle.Stop(shutdownCtx); err != nil {
		stopErr = errors.Join(stopErr, err)
	}
	a.runCleanups()

	if serveErr != nil {
		return serveErr
	}
	if stopErr != nil {
		return stopErr
	}

	a.logger.Info("application shut down gracefully")
	return nil
}

func (a *App) runCleanups() {
	for i := len(a.opts.cleanups) - 1; i >= 0; i-- {
		a.opts.cleanups[i]()
	}
}
