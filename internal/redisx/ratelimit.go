package redisx

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lua script: atomic INCR + set PEXPIRE jika baru
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// Limiter is a fixed-window counter per key.
type Limiter struct {
	RDB    redis.Cmdable
	Max    int
	Window time.Duration
}

// Allow counts one hit on key. reset is the time left in the current window.
func (l *Limiter) Allow(ctx context.Context, key string) (allowed bool, remaining int, reset time.Duration, err error) {
	v, err := incrExpireScript.Run(ctx, l.RDB, []string{key}, l.Window.Milliseconds()).Result()
	if err != nil {
		return false, 0, 0, err
	}
	count := toInt(v)
	reset, _ = l.RDB.PTTL(ctx, key).Result()
	if reset < 0 {
		reset = 0
	}
	remaining = l.Max - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= l.Max, remaining, reset, nil
}

func toInt(v interface{}) int {
	switch x := v.(type) {
	case int64:
		return int(x)
	case int:
		return x
	case string:
		i, _ := strconv.Atoi(x)
		return i
	}
	return 0
}
