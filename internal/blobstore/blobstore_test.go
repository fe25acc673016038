package blobstore

import (
	"testing"
	"time"

	"vkp/internal/seal"
	"vkp/internal/vkp"
)

func sealedPackage(t *testing.T, triple vkp.Triple, version string) *vkp.Package {
	t.Helper()
	pkg := &vkp.Package{
		Triple:         triple,
		Version:        version,
		CreatedAt:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EmbeddingModel: "text-embedding-3-small",
		ChunkConfig:    vkp.ChunkConfig{ChunkSize: 512, ChunkOverlap: 64},
		SourceFiles:    []string{"bab1.pdf"},
		Chunks: []vkp.Chunk{
			{ID: "c_0", Text: "isi pertama", Vector: []float64{0.1, 0.2}},
		},
		TotalChunks: 1,
	}
	sum, err := seal.Seal(pkg)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	pkg.Checksum = sum
	return pkg
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	triple := vkp.Triple{Subject: "matematika", Grade: 10, Semester: 1}
	pkg := sealedPackage(t, triple, "1.0.0")

	if err := store.Save(pkg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := store.Load(triple)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("expected a saved blob to be found")
	}
	if got.Version != pkg.Version || got.Checksum != pkg.Checksum {
		t.Fatalf("round-trip mismatch: got %+v", got)
	}
	if len(got.Chunks) != 1 || !got.Chunks[0].Equal(pkg.Chunks[0]) {
		t.Fatalf("chunk mismatch: got %+v", got.Chunks)
	}
}

func TestLoadOnEmptyStoreIsAbsent(t *testing.T) {
	store := New(t.TempDir())
	_, ok, err := store.Load(vkp.Triple{Subject: "fisika", Grade: 11, Semester: 1})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatal("expected no blob on an empty store")
	}
}

func TestLoadPicksHighestVersion(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	triple := vkp.Triple{Subject: "matematika", Grade: 10, Semester: 1}

	if err := store.Save(sealedPackage(t, triple, "1.0.0")); err != nil {
		t.Fatalf("Save 1.0.0: %v", err)
	}
	if err := store.Save(sealedPackage(t, triple, "1.2.0")); err != nil {
		t.Fatalf("Save 1.2.0: %v", err)
	}
	if err := store.Save(sealedPackage(t, triple, "1.1.0")); err != nil {
		t.Fatalf("Save 1.1.0: %v", err)
	}

	got, ok, err := store.Load(triple)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("expected a blob to be found")
	}
	if got.Version != "1.2.0" {
		t.Fatalf("expected the highest saved version 1.2.0, got %s", got.Version)
	}
}

func TestTriplesAreIndependent(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	a := vkp.Triple{Subject: "matematika", Grade: 10, Semester: 1}
	b := vkp.Triple{Subject: "fisika", Grade: 10, Semester: 1}

	if err := store.Save(sealedPackage(t, a, "1.0.0")); err != nil {
		t.Fatalf("Save a: %v", err)
	}

	_, ok, err := store.Load(b)
	if err != nil {
		t.Fatalf("Load b: %v", err)
	}
	if ok {
		t.Fatal("expected no blob for an unrelated triple")
	}
}
