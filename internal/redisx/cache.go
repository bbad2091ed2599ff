package redisx

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-clothing-rental/internal/store"
)

// Lua script: SET hanya jika generasi belum berubah sejak dibaca
var setIfGenScript = redis.NewScript(`
local current = redis.call("GET", KEYS[2]) or "0"
if current ~= ARGV[1] then
  return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// ProductCache implements catalog.Cache on plain JSON strings plus a generation
// counter per product.
type ProductCache struct {
	RDB redis.Cmdable
	TTL time.Duration
}

func (c *ProductCache) ttl() time.Duration {
	if c.TTL <= 0 {
		return 5 * time.Minute
	}
	return c.TTL
}

func (c *ProductCache) GetProduct(ctx context.Context, id store.ProductID) (store.Product, int64, bool, error) {
	vals, err := c.RDB.MGet(ctx, fmt.Sprintf(KeyProduct, id), fmt.Sprintf(KeyProductGen, id)).Result()
	if err != nil {
		return store.Product{}, 0, false, err
	}
	var gen int64
	if s, ok := vals[1].(string); ok {
		gen, _ = strconv.ParseInt(s, 10, 64)
	}
	raw, ok := vals[0].(string)
	if !ok {
		return store.Product{}, gen, false, nil
	}
	var p store.Product
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return store.Product{}, gen, false, err
	}
	return p, gen, true, nil
}

// SetProduct is a no-op when the product was invalidated after gen was read.
func (c *ProductCache) SetProduct(ctx context.Context, p store.Product, gen int64) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	keys := []string{fmt.Sprintf(KeyProduct, p.ID), fmt.Sprintf(KeyProductGen, p.ID)}
	return setIfGenScript.Run(ctx, c.RDB, keys, strconv.FormatInt(gen, 10), b, c.ttl().Milliseconds()).Err()
}

func (c *ProductCache) InvalidateProduct(ctx context.Context, id store.ProductID) error {
	genKey := fmt.Sprintf(KeyProductGen, id)
	pipe := c.RDB.TxPipeline()
	pipe.Incr(ctx, genKey)
	pipe.Expire(ctx, genKey, TTLProductGen)
	pipe.Del(ctx, fmt.Sprintf(KeyProduct, id))
	_, err := pipe.Exec(ctx)
	return err
}
