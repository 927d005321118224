package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreSetGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "key", "value", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := store.Get(ctx, "key")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != "value" {
		t.Errorf("got %q, want %q", got, "value")
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()
	got, err := store.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != "" {
		t.Errorf("got %q for missing key", got)
	}
}

func TestMemoryStoreSetNX(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	ok, err := store.SetNX(ctx, "claim", "first", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first SetNX: ok=%v err=%v", ok, err)
	}
	ok, err = store.SetNX(ctx, "claim", "second", time.Minute)
	if err != nil {
		t.Fatalf("second SetNX errored: %v", err)
	}
	if ok {
		t.Error("second SetNX should lose")
	}
	got, _ := store.Get(ctx, "claim")
	if got != "first" {
		t.Errorf("value = %q, want the first write", got)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Set(ctx, "short", "lived", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if got, _ := store.Get(ctx, "short"); got != "" {
		t.Errorf("expired key still readable: %q", got)
	}
	if ok, _ := store.SetNX(ctx, "short", "again", time.Minute); !ok {
		t.Error("SetNX should win over an expired key")
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Set(ctx, "key", "value", time.Minute)
	if err := store.Delete(ctx, "key"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if got, _ := store.Get(ctx, "key"); got != "" {
		t.Error("key readable after delete")
	}
	if err := store.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("deleting absent key errored: %v", err)
	}
}
