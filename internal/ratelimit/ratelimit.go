// Package ratelimit is a fixed-window request limiter for the REST
// surface, backed by redis so multiple dev instances share counters.
// When redis is unavailable it degrades to a pass-through.
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Limiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	log    *zap.Logger
}

func New(rdb *redis.Client, limit int, window time.Duration, log *zap.Logger) *Limiter {
	return &Limiter{rdb: rdb, limit: limit, window: window, log: log}
}

func (l *Limiter) Middleware(next http.Handler) http.Handler {
	if l == nil || l.rdb == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		key := "rl:" + ip + ":" + r.URL.Path

		ctx := r.Context()
		count, err := l.rdb.Incr(ctx, key).Result()
		if err != nil {
			// Redis down: let the request through rather than fail closed.
			l.log.Warn("ratelimit: redis error", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			l.rdb.Expire(ctx, key, l.window)
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		remaining := int64(l.limit) - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(l.limit) {
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window/time.Second)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
