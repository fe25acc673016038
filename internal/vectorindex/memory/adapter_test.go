package memory

import (
	"context"
	"testing"

	"vkp/internal/vkp"
)

func TestUpsertIsIdempotent(t *testing.T) {
	a := NewAdapter()
	chunks := []vkp.Chunk{
		{ID: "c_0", Text: "satu", Vector: []float64{0.1}},
		{ID: "c_1", Text: "dua", Vector: []float64{0.2}},
	}
	if err := a.UpsertCollection(context.Background(), "mat_grade10_sem1", chunks); err != nil {
		t.Fatalf("UpsertCollection: %v", err)
	}
	// Re-upsert the same id with a different payload: overwrite, not duplicate.
	updated := []vkp.Chunk{{ID: "c_0", Text: "satu diubah", Vector: []float64{0.9}}}
	if err := a.UpsertCollection(context.Background(), "mat_grade10_sem1", updated); err != nil {
		t.Fatalf("UpsertCollection (update): %v", err)
	}

	points := a.Points("mat_grade10_sem1")
	if len(points) != 2 {
		t.Fatalf("expected 2 points after overwrite, got %d", len(points))
	}
	for _, c := range points {
		if c.ID == "c_0" && c.Text != "satu diubah" {
			t.Fatalf("expected c_0 to be overwritten, got %q", c.Text)
		}
	}
}

func TestRemoveDeletesByID(t *testing.T) {
	a := NewAdapter()
	chunks := []vkp.Chunk{
		{ID: "c_0", Text: "satu", Vector: []float64{0.1}},
		{ID: "c_1", Text: "dua", Vector: []float64{0.2}},
	}
	if err := a.UpsertCollection(context.Background(), "col", chunks); err != nil {
		t.Fatalf("UpsertCollection: %v", err)
	}
	if err := a.Remove(context.Background(), "col", []string{"c_0"}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	points := a.Points("col")
	if len(points) != 1 || points[0].ID != "c_1" {
		t.Fatalf("expected only c_1 to remain, got %+v", points)
	}
}

func TestRemoveOnUnknownCollectionIsNoop(t *testing.T) {
	a := NewAdapter()
	if err := a.Remove(context.Background(), "nope", []string{"c_0"}); err != nil {
		t.Fatalf("Remove on unknown collection should be a no-op, got %v", err)
	}
}
