package objectstore

import (
	"testing"

	"vkp/internal/vkp"
)

func TestParseCandidateFull(t *testing.T) {
	c, err := ParseCandidate(ObjectInfo{Key: "matematika/kelas_10/v1.2.0.vkp", Size: 4096})
	if err != nil {
		t.Fatalf("ParseCandidate: %v", err)
	}
	want := Candidate{
		Triple:  vkp.Triple{Subject: "matematika", Grade: 10, Semester: 1},
		Version: "1.2.0",
		Size:    4096,
		IsDelta: false,
	}
	if c != want {
		t.Fatalf("got %+v, want %+v", c, want)
	}
}

func TestParseCandidateDelta(t *testing.T) {
	c, err := ParseCandidate(ObjectInfo{Key: "fisika/kelas_11/v2.0.0.delta.vkp", Size: 128})
	if err != nil {
		t.Fatalf("ParseCandidate: %v", err)
	}
	if !c.IsDelta {
		t.Fatal("expected IsDelta=true for a .delta.vkp key")
	}
	if c.Triple.Subject != "fisika" || c.Triple.Grade != 11 || c.Version != "2.0.0" {
		t.Fatalf("unexpected parse: %+v", c)
	}
}

func TestParseCandidateRejectsUnrelatedKey(t *testing.T) {
	_, err := ParseCandidate(ObjectInfo{Key: "readme.txt", Size: 1})
	if err == nil {
		t.Fatal("expected an error for a non-package key")
	}
}

func TestKeyRoundTrip(t *testing.T) {
	key := FullKey("matematika", 10, "1.2.0")
	c, err := ParseCandidate(ObjectInfo{Key: key, Size: 1})
	if err != nil {
		t.Fatalf("ParseCandidate(%q): %v", key, err)
	}
	if c.Version != "1.2.0" || c.Triple.Subject != "matematika" || c.Triple.Grade != 10 {
		t.Fatalf("FullKey/ParseCandidate round-trip mismatch: %+v", c)
	}

	deltaKey := DeltaKey("matematika", 10, "1.2.0")
	dc, err := ParseCandidate(ObjectInfo{Key: deltaKey, Size: 1})
	if err != nil {
		t.Fatalf("ParseCandidate(%q): %v", deltaKey, err)
	}
	if !dc.IsDelta {
		t.Fatalf("DeltaKey should parse back as a delta candidate: %+v", dc)
	}
}
