package rate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	identityScope = "gsl"
	ipScope       = "gsli"
)

// bumpLua increments KEYS[1] and arms the window TTL (ARGV[1], ms) when the
// key was just created. Each call touches one key, so it is safe on Redis
// Cluster.
var bumpLua = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// Config tunes the login budget.
type Config struct {
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
}

// Limiter keeps fixed-window failed-login counters in Redis, one per
// identity and optionally one per client IP. Identities are hashed before
// they become part of a key.
type Limiter struct {
	rdb    redis.UniversalClient
	budget int64
	window time.Duration
	perIP  bool
}

// New returns a Limiter over rdb.
func New(rdb redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		rdb:    rdb,
		budget: int64(cfg.MaxLoginAttempts),
		window: cfg.LoginCooldownDuration,
		perIP:  cfg.EnableIPThrottle,
	}
}

// CheckLogin reports ErrRateLimited when either counter for the pair has
// reached the budget.
func (l *Limiter) CheckLogin(ctx context.Context, identity, ip string) error {
	for _, key := range l.keys(identity, ip) {
		n, err := l.rdb.Get(ctx, key).Int64()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return unavailable(err)
		}
		if n >= l.budget {
			return ErrRateLimited
		}
	}
	return nil
}

// IncrementLogin counts one failed attempt against the pair and returns the
// identity's attempt count in the current window. It returns ErrRateLimited,
// together with the count, when the attempt pushed a counter past the budget.
func (l *Limiter) IncrementLogin(ctx context.Context, identity, ip string) (int, error) {
	var attempts, top int64
	for i, key := range l.keys(identity, ip) {
		n, err := bumpLua.Run(ctx, l.rdb, []string{key}, l.window.Milliseconds()).Int64()
		if err != nil {
			return int(attempts), unavailable(err)
		}
		if i == 0 {
			attempts = n
		}
		top = max(top, n)
	}
	if top > l.budget {
		return int(attempts), ErrRateLimited
	}
	return int(attempts), nil
}

// ResetLogin drops the counters for the pair after a successful login. Keys
// are deleted one at a time so they may live in different cluster slots.
func (l *Limiter) ResetLogin(ctx context.Context, identity, ip string) error {
	for _, key := range l.keys(identity, ip) {
		if err := l.rdb.Del(ctx, key).Err(); err != nil {
			return unavailable(err)
		}
	}
	return nil
}

// RetryAfter returns how long until the identity counter's window closes,
// or zero when no window is open.
func (l *Limiter) RetryAfter(ctx context.Context, identity string) (time.Duration, error) {
	ttl, err := l.rdb.PTTL(ctx, identityKey(identity)).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

func (l *Limiter) keys(identity, ip string) []string {
	keys := []string{identityKey(identity)}
	if l.perIP && ip != "" {
		keys = append(keys, ipKey(ip))
	}
	return keys
}

func identityKey(identity string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(identity)))
	return identityScope + ":" + hex.EncodeToString(sum[:16])
}

func ipKey(ip string) string {
	return ipScope + ":" + ip
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
}
