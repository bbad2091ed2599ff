package redisx

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-clothing-rental/internal/store"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestProductCache(t *testing.T) {
	_, rdb := newRedis(t)
	ctx := context.Background()
	c := &ProductCache{RDB: rdb, TTL: time.Minute}
	p := store.Product{ID: store.NewProductID(), Name: "Denim Jacket", Price: 30, Stock: 4, Sizes: []string{"M", "L"}}

	_, gen, ok, err := c.GetProduct(ctx, p.ID)
	if ok || err != nil || gen != 0 {
		t.Fatalf("expected miss at gen 0, got ok=%v gen=%d err=%v", ok, gen, err)
	}
	if err := c.SetProduct(ctx, p, gen); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, _, ok, err := c.GetProduct(ctx, p.ID)
	if err != nil || !ok || got.Name != p.Name || got.Stock != 4 || len(got.Sizes) != 2 {
		t.Fatalf("unexpected %+v ok=%v err=%v", got, ok, err)
	}
	if err := c.InvalidateProduct(ctx, p.ID); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, gen, ok, _ := c.GetProduct(ctx, p.ID); ok || gen != 1 {
		t.Fatalf("expected miss at gen 1 after invalidate, got ok=%v gen=%d", ok, gen)
	}
}

func TestProductCacheDropsWriteAfterInvalidate(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	c := &ProductCache{RDB: rdb, TTL: time.Minute}
	p := store.Product{ID: store.NewProductID(), Name: "Denim Jacket", Price: 30, Stock: 4}

	_, gen, _, _ := c.GetProduct(ctx, p.ID)
	if err := c.InvalidateProduct(ctx, p.ID); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if err := c.SetProduct(ctx, p, gen); err != nil {
		t.Fatalf("set: %v", err)
	}
	if mr.Exists(fmt.Sprintf(KeyProduct, p.ID)) {
		t.Fatalf("stale product cached after invalidate")
	}

	_, gen, _, _ = c.GetProduct(ctx, p.ID)
	if err := c.SetProduct(ctx, p, gen); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists(fmt.Sprintf(KeyProduct, p.ID)) {
		t.Fatalf("product with current generation not cached")
	}
	if ttl := mr.TTL(fmt.Sprintf(KeyProduct, p.ID)); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}
}

func TestSessionStore(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	s := &SessionStore{RDB: rdb}

	if err := s.Save(ctx, "sid-1", "user-1", time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ok, err := s.Exists(ctx, "sid-1"); !ok || err != nil {
		t.Fatalf("expected session, ok=%v err=%v", ok, err)
	}
	if err := s.Delete(ctx, "sid-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := s.Exists(ctx, "sid-1"); ok {
		t.Fatalf("session survived delete")
	}

	_ = s.Save(ctx, "sid-2", "user-1", time.Minute)
	mr.FastForward(2 * time.Minute)
	if ok, _ := s.Exists(ctx, "sid-2"); ok {
		t.Fatalf("session survived its ttl")
	}
}

func TestLimiter(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	l := &Limiter{RDB: rdb, Max: 2, Window: time.Minute}

	for i := 0; i < 2; i++ {
		ok, _, _, err := l.Allow(ctx, "rl:/login:ip:1.2.3.4")
		if err != nil || !ok {
			t.Fatalf("hit %d should pass, ok=%v err=%v", i, ok, err)
		}
	}
	ok, remaining, reset, err := l.Allow(ctx, "rl:/login:ip:1.2.3.4")
	if err != nil || ok || remaining != 0 {
		t.Fatalf("third hit should be limited, ok=%v remaining=%d err=%v", ok, remaining, err)
	}
	if reset <= 0 || reset > time.Minute {
		t.Fatalf("unexpected reset %v", reset)
	}

	if ok, _, _, _ := l.Allow(ctx, "rl:/login:ip:5.6.7.8"); !ok {
		t.Fatalf("other ip must have its own window")
	}

	mr.FastForward(time.Minute + time.Second)
	if ok, _, _, _ := l.Allow(ctx, "rl:/login:ip:1.2.3.4"); !ok {
		t.Fatalf("window should have reset")
	}
}
