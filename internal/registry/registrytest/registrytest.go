// Package registrytest is a conformance suite shared by every Registry
// implementation (memory, sqlite), mirroring the teacher's
// config/storetest pattern: one suite, run against each backend's
// constructor, so the backends cannot silently diverge in behavior.
package registrytest

import (
	"context"
	"errors"
	"testing"

	"vkp/internal/registry"
	"vkp/internal/vkp"
)

// TestRegistry runs the full conformance suite against newStore, a
// constructor producing a fresh, empty Registry.
func TestRegistry(t *testing.T, newStore func(t *testing.T) registry.Registry) {
	t.Run("InstalledOnEmptyIsAbsent", func(t *testing.T) {
		r := newStore(t)
		triple := vkp.Triple{Subject: "matematika", Grade: 10, Semester: 1}
		_, ok, err := r.Installed(context.Background(), triple)
		if err != nil {
			t.Fatalf("Installed: %v", err)
		}
		if ok {
			t.Fatal("expected no active version on an empty registry")
		}
	})

	t.Run("RegisterThenInstalled", func(t *testing.T) {
		r := newStore(t)
		ctx := context.Background()
		triple := vkp.Triple{Subject: "matematika", Grade: 10, Semester: 1}

		if err := r.Register(ctx, triple, "1.0.0", 42, "sha256:abc"); err != nil {
			t.Fatalf("Register: %v", err)
		}
		v, ok, err := r.Installed(ctx, triple)
		if err != nil {
			t.Fatalf("Installed: %v", err)
		}
		if !ok || v != "1.0.0" {
			t.Fatalf("expected installed 1.0.0, got %q ok=%v", v, ok)
		}
	})

	t.Run("RegisterNewVersionSupersedesOld", func(t *testing.T) {
		r := newStore(t)
		ctx := context.Background()
		triple := vkp.Triple{Subject: "matematika", Grade: 10, Semester: 1}

		if err := r.Register(ctx, triple, "1.0.0", 10, "sha256:aaa"); err != nil {
			t.Fatalf("Register 1.0.0: %v", err)
		}
		if err := r.Register(ctx, triple, "1.1.0", 12, "sha256:bbb"); err != nil {
			t.Fatalf("Register 1.1.0: %v", err)
		}
		v, ok, err := r.Installed(ctx, triple)
		if err != nil {
			t.Fatalf("Installed: %v", err)
		}
		if !ok || v != "1.1.0" {
			t.Fatalf("expected installed 1.1.0, got %q ok=%v", v, ok)
		}

		hist, err := r.History(ctx, triple)
		if err != nil {
			t.Fatalf("History: %v", err)
		}
		if len(hist) != 2 {
			t.Fatalf("expected 2 history entries, got %d", len(hist))
		}
		active := 0
		for _, e := range hist {
			if e.Active {
				active++
				if e.Version != "1.1.0" {
					t.Fatalf("expected 1.1.0 active, got %s active", e.Version)
				}
			}
		}
		if active != 1 {
			t.Fatalf("expected exactly one active entry, got %d", active)
		}
	})

	t.Run("HistoryMostRecentFirst", func(t *testing.T) {
		r := newStore(t)
		ctx := context.Background()
		triple := vkp.Triple{Subject: "matematika", Grade: 10, Semester: 1}

		for _, v := range []string{"1.0.0", "1.1.0", "1.2.0"} {
			if err := r.Register(ctx, triple, v, 1, "sha256:x"); err != nil {
				t.Fatalf("Register %s: %v", v, err)
			}
		}
		hist, err := r.History(ctx, triple)
		if err != nil {
			t.Fatalf("History: %v", err)
		}
		if len(hist) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(hist))
		}
		if hist[0].Version != "1.2.0" {
			t.Fatalf("expected most-recent-first, got %s first", hist[0].Version)
		}
	})

	t.Run("RollbackActivatesTarget", func(t *testing.T) {
		r := newStore(t)
		ctx := context.Background()
		triple := vkp.Triple{Subject: "matematika", Grade: 10, Semester: 1}

		if err := r.Register(ctx, triple, "1.0.0", 10, "sha256:aaa"); err != nil {
			t.Fatalf("Register 1.0.0: %v", err)
		}
		if err := r.Register(ctx, triple, "1.1.0", 12, "sha256:bbb"); err != nil {
			t.Fatalf("Register 1.1.0: %v", err)
		}
		if err := r.Rollback(ctx, triple, "1.0.0"); err != nil {
			t.Fatalf("Rollback: %v", err)
		}

		v, ok, err := r.Installed(ctx, triple)
		if err != nil {
			t.Fatalf("Installed: %v", err)
		}
		if !ok || v != "1.0.0" {
			t.Fatalf("expected installed 1.0.0 after rollback, got %q ok=%v", v, ok)
		}

		hist, err := r.History(ctx, triple)
		if err != nil {
			t.Fatalf("History: %v", err)
		}
		if len(hist) != 2 {
			t.Fatalf("rollback must not remove history entries, got %d", len(hist))
		}
	})

	t.Run("RollbackUnknownVersionIsNotFound", func(t *testing.T) {
		r := newStore(t)
		ctx := context.Background()
		triple := vkp.Triple{Subject: "matematika", Grade: 10, Semester: 1}

		if err := r.Register(ctx, triple, "1.0.0", 10, "sha256:aaa"); err != nil {
			t.Fatalf("Register: %v", err)
		}
		err := r.Rollback(ctx, triple, "9.9.9")
		if !errors.Is(err, registry.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		// A failed rollback must not disturb the installed version.
		v, ok, err := r.Installed(ctx, triple)
		if err != nil {
			t.Fatalf("Installed: %v", err)
		}
		if !ok || v != "1.0.0" {
			t.Fatalf("failed rollback must leave 1.0.0 installed, got %q ok=%v", v, ok)
		}
	})

	t.Run("RegisterRejectsMalformedVersion", func(t *testing.T) {
		r := newStore(t)
		ctx := context.Background()
		triple := vkp.Triple{Subject: "matematika", Grade: 10, Semester: 1}

		err := r.Register(ctx, triple, "not-a-version", 1, "sha256:x")
		if !errors.Is(err, vkp.ErrMalformedVersion) {
			t.Fatalf("expected ErrMalformedVersion, got %v", err)
		}
		_, ok, instErr := r.Installed(ctx, triple)
		if instErr != nil {
			t.Fatalf("Installed: %v", instErr)
		}
		if ok {
			t.Fatal("a rejected Register must not leave any version active")
		}
	})

	t.Run("TriplesAreIndependent", func(t *testing.T) {
		r := newStore(t)
		ctx := context.Background()
		a := vkp.Triple{Subject: "matematika", Grade: 10, Semester: 1}
		b := vkp.Triple{Subject: "fisika", Grade: 10, Semester: 1}

		if err := r.Register(ctx, a, "1.0.0", 1, "sha256:x"); err != nil {
			t.Fatalf("Register a: %v", err)
		}
		if err := r.Register(ctx, b, "2.0.0", 1, "sha256:y"); err != nil {
			t.Fatalf("Register b: %v", err)
		}
		va, _, err := r.Installed(ctx, a)
		if err != nil {
			t.Fatalf("Installed a: %v", err)
		}
		vb, _, err := r.Installed(ctx, b)
		if err != nil {
			t.Fatalf("Installed b: %v", err)
		}
		if va != "1.0.0" || vb != "2.0.0" {
			t.Fatalf("triples interfered: a=%s b=%s", va, vb)
		}
	})

	t.Run("Compare", func(t *testing.T) {
		r := newStore(t)
		order, err := r.Compare("1.0.0", "1.1.0")
		if err != nil {
			t.Fatalf("Compare: %v", err)
		}
		if order != vkp.OrderLT {
			t.Fatalf("expected OrderLT, got %v", order)
		}
	})
}
