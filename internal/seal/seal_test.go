package seal

import (
	"testing"
	"time"

	"vkp/internal/vkp"
)

func samplePackage() *vkp.Package {
	return &vkp.Package{
		Triple:         vkp.Triple{Subject: "matematika", Grade: 10, Semester: 1},
		Version:        "1.0.0",
		CreatedAt:      time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		EmbeddingModel: "text-embedding-3",
		ChunkConfig:    vkp.ChunkConfig{ChunkSize: 512, ChunkOverlap: 64},
		SourceFiles:    []string{"buku.pdf"},
		Chunks: []vkp.Chunk{
			{ID: "c_0", Text: "hello world", Vector: []float64{0.1, 0.2, 0.3}},
			{ID: "c_1", Text: "selamat pagi", Vector: []float64{0.4, 0.5, 0.6}, Metadata: map[string]string{"page": "2"}},
		},
		TotalChunks: 2,
	}
}

func sealedSample(t *testing.T) *vkp.Package {
	t.Helper()
	p := samplePackage()
	s, err := Seal(p)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	p.Checksum = s
	return p
}

func TestSealDeterministic(t *testing.T) {
	p := samplePackage()
	s1, err := Seal(p)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := Seal(p)
	if err != nil {
		t.Fatal(err)
	}
	if s1 != s2 {
		t.Fatalf("seal not deterministic: %q != %q", s1, s2)
	}
	if len(s1) != len(Prefix)+64 {
		t.Fatalf("unexpected seal length: %q", s1)
	}
}

func TestSealSensitiveToMutation(t *testing.T) {
	base := samplePackage()
	baseSeal, err := Seal(base)
	if err != nil {
		t.Fatal(err)
	}

	mutations := map[string]func(*vkp.Package){
		"text change":     func(p *vkp.Package) { p.Chunks[0].Text = "changed" },
		"vector element":  func(p *vkp.Package) { p.Chunks[0].Vector[0] += 1 },
		"metadata change": func(p *vkp.Package) { p.Chunks[1].Metadata["page"] = "99" },
		"provenance field": func(p *vkp.Package) {
			p.EmbeddingModel = "different-model"
		},
		"chunk order": func(p *vkp.Package) {
			p.Chunks[0], p.Chunks[1] = p.Chunks[1], p.Chunks[0]
		},
		"chunk id": func(p *vkp.Package) { p.Chunks[0].ID = "c_other" },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			p := samplePackage()
			mutate(p)
			s, err := Seal(p)
			if err != nil {
				t.Fatal(err)
			}
			if s == baseSeal {
				t.Fatalf("mutation %q did not change the seal", name)
			}
		})
	}
}

func TestSealPalindromicReorderIsException(t *testing.T) {
	p := &vkp.Package{
		Triple:         vkp.Triple{Subject: "matematika", Grade: 10, Semester: 1},
		Version:        "1.0.0",
		CreatedAt:      time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		EmbeddingModel: "m",
		ChunkConfig:    vkp.ChunkConfig{ChunkSize: 1, ChunkOverlap: 0},
		Chunks: []vkp.Chunk{
			{ID: "same", Text: "same", Vector: []float64{1}},
			{ID: "same", Text: "same", Vector: []float64{1}},
		},
		TotalChunks: 2,
	}
	s1, _ := Seal(p)
	p.Chunks[0], p.Chunks[1] = p.Chunks[1], p.Chunks[0]
	s2, _ := Seal(p)
	if s1 != s2 {
		t.Fatal("reordering two identical chunks should leave the canonical form, and seal, unchanged")
	}
}

func TestVerify(t *testing.T) {
	p := sealedSample(t)
	ok, err := Verify(p)
	if err != nil || !ok {
		t.Fatalf("Verify() = %v, %v; want true, nil", ok, err)
	}

	p.Chunks[0].Text = "tampered"
	ok, err = Verify(p)
	if err != nil || ok {
		t.Fatalf("Verify() after tampering = %v, %v; want false, nil", ok, err)
	}
}
