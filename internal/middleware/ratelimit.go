package middleware

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter decides whether a client identified by key may make another request.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter is a per-process token bucket per client.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
	stop     chan struct{}
	once     sync.Once
}

// NewMemoryLimiter allows perMinute requests per client, refilled evenly.
// A non-positive perMinute disables limiting.
func NewMemoryLimiter(perMinute int) *MemoryLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}

	ml := &MemoryLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    perMinute,
		idle:     3 * time.Minute,
		stop:     make(chan struct{}),
	}

	// Cleanup goroutine
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ml.cleanup()
			case <-ml.stop:
				return
			}
		}
	}()

	return ml
}

func (ml *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	v, exists := ml.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(ml.limit, ml.burst)}
		ml.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow(), nil
}

func (ml *MemoryLimiter) cleanup() {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	for key, v := range ml.visitors {
		if time.Since(v.lastSeen) > ml.idle {
			delete(ml.visitors, key)
		}
	}
}

func (ml *MemoryLimiter) Close() {
	ml.once.Do(func() { close(ml.stop) })
}

// RedisLimiter counts requests in fixed one-minute windows shared by every
// instance pointed at the same Redis.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	prefix string
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, perMinute int) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  perMinute,
		prefix: "ratelimit:chat",
		now:    time.Now,
	}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	window := rl.now().Unix() / 60
	redisKey := fmt.Sprintf("%s:%s:%d", rl.prefix, key, window)

	var incr *redis.IntCmd
	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, 2*time.Minute)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}

	return incr.Val() <= int64(rl.limit), nil
}

type RateLimiter struct {
	limiter Limiter
}

func NewRateLimiter(limiter Limiter) *RateLimiter {
	return &RateLimiter{limiter: limiter}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, err := rl.limiter.Allow(r.Context(), clientKey(r))
		if err != nil {
			// counter store errors fail open
			log.Printf("rate limiter error request_id=%s: %v", GetRequestID(r.Context()), err)
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientKey is the peer host of r.RemoteAddr. RemoteAddr only reflects
// X-Forwarded-For when the router runs chi's RealIP ahead of this middleware.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
