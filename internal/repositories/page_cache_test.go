package repositories

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis implements the string commands the page cache issues. Any other
// command panics on the nil embedded interface.
type fakeRedis struct {
	redis.Cmdable
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	n, _ := strconv.ParseInt(f.data[key], 10, 64)
	n++
	f.data[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

type cachedPage struct {
	Titles []string `json:"titles"`
}

func TestPageKey(t *testing.T) {
	if got := pageKey("nano-feed:trending", 3, 2, 10); got != "nano-feed:trending:3:2:10" {
		t.Errorf("pageKey = %q", got)
	}
}

func TestRedisPageCacheGenerations(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	cache := NewRedisPageCache(rdb, "feed:trending", time.Minute)

	gen, err := cache.Generation(ctx)
	if err != nil || gen != 0 {
		t.Fatalf("Generation() on empty store = (%d, %v), want (0, nil)", gen, err)
	}

	var dest cachedPage
	if hit, err := cache.Get(ctx, gen, 1, 10, &dest); err != nil || hit {
		t.Fatalf("Get on empty store = (%v, %v)", hit, err)
	}

	if err := cache.Set(ctx, gen, 1, 10, cachedPage{Titles: []string{"a", "b"}}); err != nil {
		t.Fatal(err)
	}
	if _, ok := rdb.data["feed:trending:0:1:10"]; !ok {
		t.Fatalf("keys = %v, want feed:trending:0:1:10", rdb.data)
	}
	if ttl := rdb.ttls["feed:trending:0:1:10"]; ttl != time.Minute {
		t.Errorf("ttl = %v, want 1m", ttl)
	}
	if hit, err := cache.Get(ctx, gen, 1, 10, &dest); err != nil || !hit || len(dest.Titles) != 2 {
		t.Fatalf("Get = (%v, %v, %+v)", hit, err, dest)
	}

	if err := cache.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	if rdb.data["feed:trending:generation"] != "1" {
		t.Fatalf("generation counter = %q, want 1", rdb.data["feed:trending:generation"])
	}
	next, err := cache.Generation(ctx)
	if err != nil || next != 1 {
		t.Fatalf("Generation() after Invalidate = (%d, %v), want (1, nil)", next, err)
	}
	if hit, _ := cache.Get(ctx, next, 1, 10, &cachedPage{}); hit {
		t.Error("page from the previous generation served after Invalidate")
	}

	// A writer that read generation 0 before the bump stays on generation 0.
	if err := cache.Set(ctx, gen, 2, 10, cachedPage{}); err != nil {
		t.Fatal(err)
	}
	if hit, _ := cache.Get(ctx, next, 2, 10, &cachedPage{}); hit {
		t.Error("stale write visible under the new generation")
	}
}

func TestRedisPageCacheErrors(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	rdb.err = errors.New("connection refused")
	cache := NewRedisPageCache(rdb, "p", time.Minute)

	if _, err := cache.Generation(ctx); err == nil {
		t.Error("Generation() swallowed a connection error")
	}
	if _, err := cache.Get(ctx, 0, 1, 10, &cachedPage{}); err == nil {
		t.Error("Get swallowed a connection error")
	}

	rdb.err = nil
	rdb.data[pageKey("p", 0, 1, 10)] = "{not json"
	if _, err := cache.Get(ctx, 0, 1, 10, &cachedPage{}); err == nil {
		t.Error("Get decoded a corrupt page")
	}
}
