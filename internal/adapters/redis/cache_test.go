package redisad_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	redisad "healthdir/internal/adapters/redis"
)

type entry struct {
	Name string `json:"name"`
}

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetGetDel(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	var got entry
	ok, err := c.Get(ctx, "public:treatments", &got)
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, "public:treatments", entry{Name: "Knee Replacement"}, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL("public:treatments"); ttl <= 0 {
		t.Fatalf("expected ttl, got %v", ttl)
	}

	ok, err = c.Get(ctx, "public:treatments", &got)
	if err != nil || !ok || got.Name != "Knee Replacement" {
		t.Fatalf("unexpected hit: ok=%v err=%v got=%+v", ok, err, got)
	}

	if err := c.Del(ctx, "public:treatments"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if mr.Exists("public:treatments") {
		t.Fatal("key still present after Del")
	}
}

func TestCache_DelPrefix(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	for i := 0; i < 450; i++ {
		key := "public:doctor:" + string(rune('a'+i%26)) + string(rune('a'+i/26))
		if err := mr.Set(key, "{}"); err != nil {
			t.Fatal(err)
		}
	}
	_ = mr.Set("session:keep", "1")

	if err := c.DelPrefix(ctx, "public:"); err != nil {
		t.Fatalf("DelPrefix: %v", err)
	}
	if keys := mr.Keys(); len(keys) != 1 || keys[0] != "session:keep" {
		t.Fatalf("unexpected keys left: %v", keys)
	}
}

func TestCache_IncrReadsBackAsNumber(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := c.Incr(ctx, "cachegen:public")
		if err != nil {
			t.Fatalf("Incr: %v", err)
		}
		if n != want {
			t.Fatalf("Incr = %d, want %d", n, want)
		}
	}

	var gen int64
	ok, err := c.Get(ctx, "cachegen:public", &gen)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if gen != 3 {
		t.Fatalf("gen = %d, want 3", gen)
	}
}
