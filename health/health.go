// Package health 提供依赖健康检查的注册与 HTTP 探针。
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/lsmpricer/cache"
)

// Checker 定义健康检查函数原型。
type Checker func(ctx context.Context) error

// 探针状态。
const (
	StatusUp   = "UP"
	StatusDown = "DOWN"
)

const defaultCheckTimeout = 2 * time.Second

// Report 健康检查结果。
type Report struct {
	Status     string            `json:"status"`
	Service    string            `json:"service"`
	Version    string            `json:"version,omitempty"`
	Timestamp  int64             `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
}

// Registry 按名称管理检查项，可并发使用。
type Registry struct {
	mu       sync.RWMutex
	service  string
	version  string
	timeout  time.Duration
	checkers map[string]Checker
}

// NewRegistry 创建检查项注册表，timeout <= 0 时使用 2 秒。
func NewRegistry(service, version string, timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	return &Registry{
		service:  service,
		version:  version,
		timeout:  timeout,
		checkers: make(map[string]Checker),
	}
}

// Register 注册或替换检查项。
func (r *Registry) Register(name string, checker Checker) {
	if checker == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = checker
}

// Check 依次执行所有检查项，任一失败则整体为 DOWN。
func (r *Registry) Check(ctx context.Context) Report {
	r.mu.RLock()
	names := make([]string, 0, len(r.checkers))
	for name := range r.checkers {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)

	report := Report{
		Status:    StatusUp,
		Service:   r.service,
		Version:   r.version,
		Timestamp: time.Now().Unix(),
	}
	if len(names) > 0 {
		report.Components = make(map[string]string, len(names))
	}

	for _, name := range names {
		r.mu.RLock()
		checker := r.checkers[name]
		r.mu.RUnlock()

		cctx, cancel := context.WithTimeout(ctx, r.timeout)
		err := checker(cctx)
		cancel()

		if err != nil {
			report.Status = StatusDown
			report.Components[name] = StatusDown + ": " + err.Error()
			continue
		}
		report.Components[name] = StatusUp
	}

	return report
}

// Handler 返回 gin 探针处理器，DOWN 时响应 503。
func (r *Registry) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		report := r.Check(c.Request.Context())
		status := http.StatusOK
		if report.Status != StatusUp {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, report)
	}
}

// CacheChecker 对缓存做一次写读往返。
func CacheChecker(c cache.Cache) Checker {
	return func(ctx context.Context) error {
		if c == nil {
			return errors.New("cache is nil")
		}
		const key = "health:probe"
		now := time.Now().UnixNano()
		if err := c.Set(ctx, key, now, time.Minute); err != nil {
			return err
		}
		var got int64
		if err := c.Get(ctx, key, &got); err != nil {
			return err
		}
		if got != now {
			return fmt.Errorf("cache probe mismatch: wrote %d, read %d", now, got)
		}
		return nil
	}
}
