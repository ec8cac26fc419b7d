// Package limiter 提供基于令牌桶的本地限流器。
package limiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate" // 导入基于令牌桶算法的限流库。
)

// Limiter 接口定义了限流器的通用行为。
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error) // 检查是否允许请求通过。
}

// LocalLimiter 是一个全局共享的令牌桶限流器，忽略 key。
type LocalLimiter struct {
	limiter *rate.Limiter
}

// NewLocalLimiter 创建并返回一个新的 LocalLimiter 实例。
// r: 每秒生成的令牌数；b: 令牌桶容量，即允许的瞬时突发请求数。
func NewLocalLimiter(r rate.Limit, b int) *LocalLimiter {
	return &LocalLimiter{limiter: rate.NewLimiter(r, b)}
}

// Allow 检查一个请求是否被允许通过。
func (l *LocalLimiter) Allow(_ context.Context, _ string) (bool, error) {
	return l.limiter.Allow(), nil
}

// KeyedLimiter 为每个 key（通常是客户端 IP）维护独立的令牌桶，空闲超过 idle 的桶会被回收。
type KeyedLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	r       rate.Limit
	b       int
	idle    time.Duration
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedLimiter 创建按 key 隔离的限流器。
func NewKeyedLimiter(r rate.Limit, b int, idle time.Duration) *KeyedLimiter {
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &KeyedLimiter{
		buckets: make(map[string]*bucket),
		r:       r,
		b:       b,
		idle:    idle,
		now:     time.Now,
	}
}

// Allow 检查 key 对应的令牌桶。
func (l *KeyedLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	bk, ok := l.buckets[key]
	if !ok {
		l.evict(now)
		bk = &bucket{limiter: rate.NewLimiter(l.r, l.b)}
		l.buckets[key] = bk
	}
	bk.lastSeen = now

	return bk.limiter.AllowN(now, 1), nil
}

// Len 返回当前持有的令牌桶数量。
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *KeyedLimiter) evict(now time.Time) {
	for k, bk := range l.buckets {
		if now.Sub(bk.lastSeen) > l.idle {
			delete(l.buckets, k)
		}
	}
}
