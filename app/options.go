package app

import (
	"time"

	"github.com/wyfcoding/lsmpricer/server"
)

// Option 是一个函数类型，用于配置应用程序选项。
type Option func(*options)

type options struct {
	version         string
	servers         []server.Server // 由 App 启动与关闭的服务器
	hooks           []Hook          // 在服务器之前启动、之后停止的组件
	cleanups        []func()        // 最后执行的清理函数
	shutdownTimeout time.Duration
}

// WithVersion 设置版本号，仅用于启动日志。
func WithVersion(version string) Option {
	return func(o *options) {
		o.version = version
	}
}

// WithServer 向应用程序添加一个或多个服务器。
func WithServer(servers ...server.Server) Option {
	return func(o *options) {
		o.servers = append(o.servers, servers...)
	}
}

// WithHook 注册生命周期钩子，停止顺序与注册顺序相反。
func WithHook(hooks ...Hook) Option {
	return func(o *options) {
		o.hooks = append(o.hooks, hooks...)
	}
}

// WithCleanup 添加关闭时执行的清理函数。
func WithCleanup(cleanup func()) Option {
	return func(o *options) {
		o.cleanups = append(o.cleanups, cleanup)
	}
}

// WithShutdownTimeout 设置优雅关闭的总超时，默认 10 秒。
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}
