package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-clothing-rental/internal/redisx"
)

// RedisSink keeps the feed as a capped list, newest first.
type RedisSink struct {
	RDB      redis.Cmdable
	Service  string // namespace dedup key
	FeedSize int
}

func (r *RedisSink) dedupKey(eventID string) string {
	return fmt.Sprintf(redisx.KeyDedup, r.Service, eventID)
}

func (r *RedisSink) Seen(ctx context.Context, eventID string) (bool, error) {
	return redisx.Exists(ctx, r.RDB, r.dedupKey(eventID))
}

func (r *RedisSink) MarkSeen(ctx context.Context, eventID string) error {
	return r.RDB.Set(ctx, r.dedupKey(eventID), "1", redisx.TTLDedup).Err()
}

func (r *RedisSink) Record(ctx context.Context, userID string, e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	size := r.FeedSize
	if size <= 0 {
		size = 50
	}
	key := fmt.Sprintf(redisx.KeyActivity, userID)
	pipe := r.RDB.TxPipeline()
	pipe.LPush(ctx, key, b)
	pipe.LTrim(ctx, key, 0, int64(size-1))
	pipe.Expire(ctx, key, redisx.TTLActivity)
	if e.ProductID != "" {
		pipe.HIncrBy(ctx, fmt.Sprintf(redisx.KeyProductStats, e.ProductID), e.Kind, 1)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Feed reads the most recent entries for userID, newest first.
func (r *RedisSink) Feed(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = r.FeedSize
	}
	if limit <= 0 {
		limit = 50
	}
	raw, err := r.RDB.LRange(ctx, fmt.Sprintf(redisx.KeyActivity, userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(raw))
	for _, s := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// ProductStats returns how often productID was rented and returned. Missing counters are zero.
func (r *RedisSink) ProductStats(ctx context.Context, productID string) (Stats, error) {
	raw, err := r.RDB.HGetAll(ctx, fmt.Sprintf(redisx.KeyProductStats, productID)).Result()
	if err != nil {
		return Stats{}, err
	}
	var st Stats
	st.Rented, _ = strconv.ParseInt(raw[KindRented], 10, 64)
	st.Returned, _ = strconv.ParseInt(raw[KindReturned], 10, 64)
	return st, nil
}
