package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore records live session ids so a logged-out token stops working early.
type SessionStore struct {
	RDB redis.Cmdable
}

func (s *SessionStore) Save(ctx context.Context, sid, userID string, ttl time.Duration) error {
	return s.RDB.Set(ctx, fmt.Sprintf(KeySession, sid), userID, ttl).Err()
}

func (s *SessionStore) Exists(ctx context.Context, sid string) (bool, error) {
	return Exists(ctx, s.RDB, fmt.Sprintf(KeySession, sid))
}

func (s *SessionStore) Delete(ctx context.Context, sid string) error {
	return s.RDB.Del(ctx, fmt.Sprintf(KeySession, sid)).Err()
}
