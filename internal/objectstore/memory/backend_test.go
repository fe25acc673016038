package memory

import (
	"context"
	"errors"
	"testing"

	"vkp/internal/objectstore"
)

func TestBackendGetAndHead(t *testing.T) {
	b := NewBackend()
	b.Put("matematika/kelas_10/v1.0.0.vkp", []byte("hello"))

	info, err := b.Head(context.Background(), "matematika/kelas_10/v1.0.0.vkp")
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if info.Size != 5 {
		t.Fatalf("expected size 5, got %d", info.Size)
	}

	data, err := b.Get(context.Background(), "matematika/kelas_10/v1.0.0.vkp")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("got %q", data)
	}
}

func TestBackendMissingKeyIsNotFound(t *testing.T) {
	b := NewBackend()
	_, err := b.Get(context.Background(), "nope")
	if !errors.Is(err, objectstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBackendUnreachable(t *testing.T) {
	b := NewBackend()
	b.Put("k", []byte("v"))
	b.SetUnreachable(true)

	_, err := b.ListAll(context.Background())
	if !errors.Is(err, objectstore.ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestBackendGetRange(t *testing.T) {
	b := NewBackend()
	b.Put("k", []byte("0123456789"))

	data, err := b.GetRange(context.Background(), "k", 5)
	if err != nil {
		t.Fatalf("GetRange: %v", err)
	}
	if string(data) != "56789" {
		t.Fatalf("got %q", data)
	}
}
