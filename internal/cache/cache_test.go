package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
)

func TestMemory_ExpiresAfterTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewMemory(clock)
	ctx := context.Background()

	if err := c.Set(ctx, "bootstrap", []byte(`{"events":[]}`), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	val, ok, err := c.Get(ctx, "bootstrap")
	if err != nil || !ok || string(val) != `{"events":[]}` {
		t.Fatalf("Get() = %q, %v, %v", val, ok, err)
	}

	clock.Advance(59 * time.Minute)
	if _, ok, _ := c.Get(ctx, "bootstrap"); !ok {
		t.Error("entry expired early")
	}

	clock.Advance(time.Minute)
	if _, ok, _ := c.Get(ctx, "bootstrap"); ok {
		t.Error("entry should have expired")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want expired entry evicted", c.Len())
	}
}

func TestMemory_ZeroTTLNotStored(t *testing.T) {
	c := NewMemory(nil)
	ctx := context.Background()

	c.Set(ctx, "live", []byte("x"), 0)
	if _, ok, _ := c.Get(ctx, "live"); ok {
		t.Error("zero TTL value should not be cached")
	}
}

func TestRedis_GetSet(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	c, err := NewRedis(ctx, mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("NewRedis() error = %v", err)
	}
	defer c.Close()

	if _, ok, err := c.Get(ctx, "missing"); ok || err != nil {
		t.Errorf("Get(missing) = %v, %v", ok, err)
	}

	if err := c.Set(ctx, "history:1", []byte(`{"current":[]}`), 5*time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	val, ok, err := c.Get(ctx, "history:1")
	if err != nil || !ok || string(val) != `{"current":[]}` {
		t.Fatalf("Get() = %q, %v, %v", val, ok, err)
	}
	if ttl := mr.TTL(keyPrefix + "history:1"); ttl != 5*time.Minute {
		t.Errorf("TTL = %v, want 5m", ttl)
	}

	mr.FastForward(5 * time.Minute)
	if _, ok, _ := c.Get(ctx, "history:1"); ok {
		t.Error("entry should have expired")
	}
}

func TestNewRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewRedis(ctx, addr, "", 0); err == nil {
		t.Error("expected connection error")
	}
}
