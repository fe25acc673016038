package cache

import "testing"

func TestKeyOfIsStableUnderNormalization(t *testing.T) {
	a := KeyOf("  What is Photosynthesis?  ", "matematika", "1.0.0")
	b := KeyOf("what is photosynthesis?", "matematika", "1.0.0")
	if a != b {
		t.Fatalf("expected normalization to make these equal: %q vs %q", a, b)
	}
}

func TestKeyOfDiffersBySubject(t *testing.T) {
	a := KeyOf("soal nomor satu", "matematika", "1.0.0")
	b := KeyOf("soal nomor satu", "fisika", "1.0.0")
	if a == b {
		t.Fatal("expected different subjects to produce different keys")
	}
}

func TestKeyOfDiffersByVersion(t *testing.T) {
	a := KeyOf("soal nomor satu", "matematika", "1.0.0")
	b := KeyOf("soal nomor satu", "matematika", "1.1.0")
	if a == b {
		t.Fatal("expected different versions to produce different keys")
	}
}

func TestKeyOfHasPrefix(t *testing.T) {
	k := KeyOf("q", "s", "1.0.0")
	if len(k) <= len(KeyPrefix) || k[:len(KeyPrefix)] != KeyPrefix {
		t.Fatalf("expected key to start with %q, got %q", KeyPrefix, k)
	}
}
