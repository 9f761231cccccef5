package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"natours/errs"
	"natours/metrics"

	"github.com/gin-gonic/gin"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateLimitMessage = "Too many requests from this IP, please try again in an hour!"

// Limiter decides whether a client identified by key may do one more request
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type windowCounter struct {
	mu       sync.Mutex
	start    int64
	count    int
	lastSeen atomic.Int64
}

// MemoryLimiter counts requests per client in fixed windows, like
// RedisLimiter but local to the process.
type MemoryLimiter struct {
	clients cmap.ConcurrentMap[string, *windowCounter]
	max     int
	window  time.Duration
	now     func() time.Time
}

// NewMemoryLimiter allows max requests per window
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		clients: cmap.New[*windowCounter](),
		max:     max,
		window:  window,
		now:     time.Now,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	entry := m.clients.Upsert(key, nil, func(exist bool, current, _ *windowCounter) *windowCounter {
		if exist {
			return current
		}
		return &windowCounter{}
	})
	now := m.now()
	entry.lastSeen.Store(now.UnixNano())
	windowStart := now.Truncate(m.window).UnixNano()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.start != windowStart {
		entry.start = windowStart
		entry.count = 0
	}
	entry.count++
	return entry.count <= m.max, nil
}

// Prune forgets clients not seen for longer than idle
func (m *MemoryLimiter) Prune(idle time.Duration) int {
	cutoff := m.now().Add(-idle).UnixNano()
	removed := 0
	for item := range m.clients.IterBuffered() {
		if item.Val.lastSeen.Load() >= cutoff {
			continue
		}
		if m.clients.RemoveCb(item.Key, func(_ string, v *windowCounter, exists bool) bool {
			return exists && v.lastSeen.Load() < cutoff
		}) {
			removed++
		}
	}
	return removed
}

// RedisLimiter counts requests per client in fixed windows shared by every
// server instance.
type RedisLimiter struct {
	client *redis.Client
	max    int64
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, max: int64(max), window: window}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	windowStart := time.Now().Truncate(r.window).Unix()
	redisKey := "natours:ratelimit:" + key + ":" + strconv.FormatInt(windowStart, 10)
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, r.window)
		return nil
	})
	if err != nil {
		return false, err
	}
	return incr.Val() <= r.max, nil
}

// RateLimit rejects clients over their limit. Limiter failures let the
// request through.
func RateLimit(limiter Limiter, max int) gin.HandlerFunc {
	limit := strconv.Itoa(max)
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			zap.L().Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		c.Header("RateLimit-Limit", limit)
		if !allowed {
			metrics.RateLimited.Inc()
			_ = c.Error(errs.New(rateLimitMessage, http.StatusTooManyRequests))
			c.Abort()
			return
		}
		c.Next()
	}
}
