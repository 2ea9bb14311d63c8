package locate

import (
	"errors"
	"testing"
)

func TestRegisterRejectsMissingFileGroup(t *testing.T) {
	r := NewEmptyRegistry()
	err := r.Register(Family{ID: "nofile", Pattern: `x`})
	if !errors.Is(err, ErrNoFileGroup) {
		t.Errorf("err = %v, want %v", err, ErrNoFileGroup)
	}
}

func TestRegisterRejectsMalformedPattern(t *testing.T) {
	r := NewRegistry()
	before := len(r.Families())

	err := r.Register(Family{ID: "bad", Pattern: `([`, Groups: Groups{File: 1}})
	if err == nil {
		t.Fatal("expected compile error")
	}

	// Registration failure leaves the existing families untouched.
	if got := len(r.Families()); got != before {
		t.Errorf("families after failed register = %d, want %d", got, before)
	}
	if locs := r.Scan("  --> src/main.rs:1:1\n"); len(locs) != 1 {
		t.Errorf("existing families stopped matching: %+v", locs)
	}
}

func TestRegisterRejectsDuplicateID(t *testing.T) {
	r := NewEmptyRegistry()
	f := Family{ID: "dup", Pattern: `(x)`, Groups: Groups{File: 1}}
	if err := r.Register(f); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	err := r.Register(f)
	if !errors.Is(err, ErrDuplicateFamily) {
		t.Errorf("err = %v, want %v", err, ErrDuplicateFamily)
	}
}

func TestRegisterDefaultsKind(t *testing.T) {
	r := NewEmptyRegistry()
	if err := r.Register(Family{ID: "k", Pattern: `(x)`, Groups: Groups{File: 1}}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	fams := r.Families()
	if len(fams) != 1 || fams[0].DefaultKind != KindError {
		t.Errorf("DefaultKind = %q, want %q", fams[0].DefaultKind, KindError)
	}
}

func TestBuiltinFamilies(t *testing.T) {
	r := NewRegistry()
	fams := r.Families()

	want := []string{"arrow", "colon", "gnu", "panic"}
	if len(fams) != len(want) {
		t.Fatalf("got %d builtin families, want %d", len(fams), len(want))
	}
	for i, id := range want {
		if fams[i].ID != id {
			t.Errorf("fams[%d].ID = %q, want %q", i, fams[i].ID, id)
		}
	}
}
