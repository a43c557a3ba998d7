package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type entry struct {
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	var got entry
	if err := c.Get(ctx, "p:1", &got); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	if err := c.Set(ctx, "p:1", entry{Name: "filter", Stock: 3}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Get(ctx, "p:1", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "filter" || got.Stock != 3 {
		t.Errorf("unexpected value %+v", got)
	}
	_ = c.Delete(ctx, "p:1")
	if err := c.Get(ctx, "p:1", &got); !errors.Is(err, ErrMiss) {
		t.Errorf("expected miss after delete, got %v", err)
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(-time.Second)
	_ = c.Set(ctx, "k", entry{Name: "x"})

	var got entry
	if err := c.Get(ctx, "k", &got); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected expired entry to miss, got %v", err)
	}
}

func TestConnectFallsBackToMemory(t *testing.T) {
	if _, ok := Connect(context.Background(), "", time.Minute).(*Memory); !ok {
		t.Fatalf("expected in-memory cache without an address")
	}
}
