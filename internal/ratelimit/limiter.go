// Package ratelimit throttles login attempts with a fixed-window counter in
// Redis.
package ratelimit

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var windowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// Decision is the outcome of one attempt.
type Decision struct {
	Allowed    bool
	Count      int
	Limit      int
	RetryAfter time.Duration
}

// LoginLimiter counts attempts per client and email. A nil client disables
// it; Redis errors let the attempt through.
type LoginLimiter struct {
	client  *redis.Client
	limit   int
	window  time.Duration
	prefix  string
	timeout time.Duration
	log     *zap.Logger
}

func NewLoginLimiter(client *redis.Client, limit int, window time.Duration, log *zap.Logger) *LoginLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &LoginLimiter{
		client:  client,
		limit:   limit,
		window:  window,
		prefix:  "login:",
		timeout: 2 * time.Second,
		log:     log,
	}
}

// Enabled reports whether attempts are counted at all.
func (l *LoginLimiter) Enabled() bool {
	return l != nil && l.client != nil
}

func (l *LoginLimiter) Allow(ctx context.Context, clientIP, email string) Decision {
	if !l.Enabled() {
		return Decision{Allowed: true}
	}
	open := Decision{Allowed: true, Limit: l.limit}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	key := l.prefix + clientIP + ":" + strings.ToLower(strings.TrimSpace(email))
	res, err := windowScript.Run(ctx, l.client, []string{key}, l.window.Milliseconds()).Result()
	if err != nil {
		l.log.Warn("login limiter unavailable, allowing attempt", zap.Error(err))
		return open
	}
	vals, ok := res.([]any)
	if !ok || len(vals) < 2 {
		l.log.Warn("login limiter returned unexpected reply", zap.Any("reply", res))
		return open
	}
	count, _ := vals[0].(int64)
	ttl, _ := vals[1].(int64)
	if ttl < 0 {
		ttl = l.window.Milliseconds()
	}

	d := Decision{Allowed: int(count) <= l.limit, Count: int(count), Limit: l.limit}
	if !d.Allowed {
		d.RetryAfter = time.Duration(ttl) * time.Millisecond
	}
	return d
}
