package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	type payload struct {
		Name  string
		Value float64
	}

	in := payload{Name: "high", Value: 87.5}
	if err := mc.Set(ctx, "k1", in, time.Minute); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	var out payload
	if err := mc.Get(ctx, "k1", &out); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if out != in {
		t.Fatalf("Get() = %+v, want %+v", out, in)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	var out string
	err := mc.Get(context.Background(), "missing", &out)
	if !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", "v", time.Nanosecond); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	var out string
	if err := mc.Get(ctx, "k", &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheEviction(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	_ = mc.Set(ctx, "a", 1, time.Minute)
	time.Sleep(time.Millisecond)
	_ = mc.Set(ctx, "b", 2, time.Minute)
	time.Sleep(time.Millisecond)
	_ = mc.Set(ctx, "c", 3, time.Minute)

	ok, err := mc.Exists(ctx, "a")
	if err != nil {
		t.Fatalf("Exists() error: %v", err)
	}
	if ok {
		t.Fatalf("oldest key survived eviction")
	}
}

func TestGetOrFill(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	calls := 0
	fill := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		got, err := GetOrFill(ctx, mc, "answer", time.Minute, fill)
		if err != nil {
			t.Fatalf("GetOrFill() error: %v", err)
		}
		if got != 42 {
			t.Fatalf("GetOrFill() = %d, want 42", got)
		}
	}
	if calls != 1 {
		t.Fatalf("fill called %d times, want 1", calls)
	}
}

func TestGetOrFillNilCache(t *testing.T) {
	got, err := GetOrFill(context.Background(), nil, "k", time.Minute, func(context.Context) (string, error) {
		return "fresh", nil
	})
	if err != nil {
		t.Fatalf("GetOrFill() error: %v", err)
	}
	if got != "fresh" {
		t.Fatalf("GetOrFill() = %q, want fresh", got)
	}
}
