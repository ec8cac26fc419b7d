// Package cache 提供了缓存抽象及基于 BigCache 的本地实现。
package cache

import (
	"context"
	"time"
)

// Cache 定义缓存接口，值以 JSON 形式存储。
type Cache interface {
	Get(ctx context.Context, key string, value any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}
