package store

import (
	"context"
	"testing"
	"time"
)

func TestFactsCacheFileRoundTrip(t *testing.T) {
	cache := NewFactsCache(nil, t.TempDir(), time.Hour)
	ctx := context.Background()

	payload := []byte(`{"cik":922224,"entityName":"PPL Corp"}`)
	if err := cache.Put(ctx, "0000922224", "PPL", payload); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := cache.Get(ctx, "0000922224")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("cached payload = %s, want %s", got, payload)
	}

	// Same CIK with leading zeros stripped resolves to the same entry.
	got, err = cache.Get(ctx, "922224")
	if err != nil || got == nil {
		t.Errorf("CIK normalization failed: %v, %v", got, err)
	}
}

func TestFactsCacheMiss(t *testing.T) {
	cache := NewFactsCache(nil, t.TempDir(), time.Hour)

	got, err := cache.Get(context.Background(), "1234567")
	if err != nil {
		t.Fatalf("miss should not error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil on miss, got %s", got)
	}
}

func TestFactsCacheExpiry(t *testing.T) {
	cache := NewFactsCache(nil, t.TempDir(), time.Nanosecond)
	ctx := context.Background()

	if err := cache.Put(ctx, "555", "TST", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)

	got, err := cache.Get(ctx, "555")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("stale entries should read as a miss")
	}
}

func TestFactsCacheOverwrite(t *testing.T) {
	cache := NewFactsCache(nil, t.TempDir(), time.Hour)
	ctx := context.Background()

	if err := cache.Put(ctx, "99", "TST", []byte(`{"v":1}`)); err != nil {
		t.Fatal(err)
	}
	if err := cache.Put(ctx, "99", "TST", []byte(`{"v":2}`)); err != nil {
		t.Fatal(err)
	}

	got, _ := cache.Get(ctx, "99")
	if string(got) != `{"v":2}` {
		t.Errorf("expected overwrite, got %s", got)
	}
}
