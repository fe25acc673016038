package memory

import (
	"context"
	"testing"
	"time"
)

func TestPutGetRoundTrip(t *testing.T) {
	b, err := New(10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	if err := b.Put(ctx, "resp:abc", "jawaban", time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v, ok, err := b.Get(ctx, "resp:abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || v != "jawaban" {
		t.Fatalf("expected hit with %q, got %q ok=%v", "jawaban", v, ok)
	}
}

func TestExpiredEntryIsNeverReturned(t *testing.T) {
	b, err := New(10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	if err := b.Put(ctx, "resp:abc", "jawaban", time.Millisecond); err != nil {
		t.Fatalf("Put: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	_, ok, err := b.Get(ctx, "resp:abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected an expired entry to never be returned")
	}
}

func TestLRUEvictsOnOverflow(t *testing.T) {
	b, err := New(2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	_ = b.Put(ctx, "resp:a", "1", time.Hour)
	_ = b.Put(ctx, "resp:b", "2", time.Hour)
	// Touch "a" so "b" becomes least-recently-used.
	if _, _, err := b.Get(ctx, "resp:a"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	_ = b.Put(ctx, "resp:c", "3", time.Hour)

	if _, ok, _ := b.Get(ctx, "resp:b"); ok {
		t.Fatal("expected resp:b to be evicted as least-recently-used")
	}
	if _, ok, _ := b.Get(ctx, "resp:a"); !ok {
		t.Fatal("expected resp:a to survive (recently touched)")
	}
	if _, ok, _ := b.Get(ctx, "resp:c"); !ok {
		t.Fatal("expected resp:c (just inserted) to be present")
	}

	stats, err := b.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Size > 2 {
		t.Fatalf("expected capacity bound of 2, got size %d", stats.Size)
	}
}

func TestDeleteMatchingRemovesPrefixedKeys(t *testing.T) {
	b, err := New(10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	_ = b.Put(ctx, "resp:1", "x", time.Hour)
	_ = b.Put(ctx, "resp:2", "y", time.Hour)
	_ = b.Put(ctx, "other:1", "z", time.Hour)

	if err := b.DeleteMatching(ctx, "resp:*"); err != nil {
		t.Fatalf("DeleteMatching: %v", err)
	}

	if _, ok, _ := b.Get(ctx, "resp:1"); ok {
		t.Fatal("expected resp:1 to be deleted")
	}
	if _, ok, _ := b.Get(ctx, "resp:2"); ok {
		t.Fatal("expected resp:2 to be deleted")
	}
	if _, ok, _ := b.Get(ctx, "other:1"); !ok {
		t.Fatal("expected other:1 to be preserved (outside the deleted scope)")
	}
}
