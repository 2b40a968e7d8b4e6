package cache

import (
	"context"
	"testing"
	"time"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "k", payload{Name: "tifa", Count: 2}, time.Minute); err != nil {
		t.Fatal(err)
	}

	var got payload
	found, err := store.Get(ctx, "k", &got)
	if err != nil || !found {
		t.Fatalf("Get = %v, %v", found, err)
	}
	if got.Name != "tifa" || got.Count != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestMemoryStoreMiss(t *testing.T) {
	store := NewMemoryStore()

	var got payload
	found, err := store.Get(context.Background(), "absent", &got)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("missing key must not report found")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "k", payload{Name: "tifa"}, time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	found, err := store.Get(ctx, "k", &payload{})
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("expired entry must not be served")
	}
}

func TestMemoryStoreLastWriterWins(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Set(ctx, "k", payload{Count: 1}, 0)
	store.Set(ctx, "k", payload{Count: 2}, 0)

	var got payload
	if found, _ := store.Get(ctx, "k", &got); !found || got.Count != 2 {
		t.Errorf("got %+v (found=%v)", got, found)
	}
}
