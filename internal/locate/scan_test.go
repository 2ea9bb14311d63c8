package locate

import (
	"strings"
	"testing"
)

func TestScanArrowMarker(t *testing.T) {
	r := NewRegistry()
	locs := r.Scan("error[E0308]: mismatched types\n  --> src/main.rs:12:5\n")

	if len(locs) != 1 {
		t.Fatalf("got %d locations, want 1: %+v", len(locs), locs)
	}
	got := locs[0]
	if got.File != "src/main.rs" || got.Line != 12 || got.Column != 5 {
		t.Errorf("location = %+v, want src/main.rs:12:5", got)
	}
	if got.Kind != KindError {
		t.Errorf("kind = %q, want %q", got.Kind, KindError)
	}
	if got.Family != "arrow" {
		t.Errorf("family = %q, want arrow", got.Family)
	}
}

func TestScanColonMarker(t *testing.T) {
	r := NewRegistry()
	locs := r.Scan("  ::: src/lib.rs:3:1\n")

	if len(locs) != 1 {
		t.Fatalf("got %d locations, want 1: %+v", len(locs), locs)
	}
	got := locs[0]
	if got.File != "src/lib.rs" || got.Line != 3 || got.Column != 1 {
		t.Errorf("location = %+v, want src/lib.rs:3:1", got)
	}
	if got.Kind != KindInfo {
		t.Errorf("kind = %q, want %q", got.Kind, KindInfo)
	}
}

func TestScanGnuMarker(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		text string
		want Kind
	}{
		{"main.go:17:2: error: undefined: frob\n", KindError},
		{"lib.c:4:10: warning: unused variable\n", KindError},
		{"main.go:17:2: note: declared here\n", KindInfo},
	}
	for _, tt := range tests {
		locs := r.Scan(tt.text)
		if len(locs) != 1 {
			t.Fatalf("Scan(%q): got %d locations, want 1: %+v", tt.text, len(locs), locs)
		}
		if locs[0].Kind != tt.want {
			t.Errorf("Scan(%q): kind = %q, want %q", tt.text, locs[0].Kind, tt.want)
		}
	}
}

func TestScanPanicMarker(t *testing.T) {
	r := NewRegistry()
	locs := r.Scan("thread 'main' panicked at src/main.rs:7:9:\nboom\n")

	if len(locs) != 1 {
		t.Fatalf("got %d locations, want 1: %+v", len(locs), locs)
	}
	got := locs[0]
	if got.File != "src/main.rs" || got.Line != 7 || got.Column != 9 {
		t.Errorf("location = %+v, want src/main.rs:7:9", got)
	}
}

func TestScanDefaultsLineAndColumn(t *testing.T) {
	r := NewRegistry()
	locs := r.Scan("  ::: src/lib.rs\n")

	if len(locs) != 1 {
		t.Fatalf("got %d locations, want 1: %+v", len(locs), locs)
	}
	if locs[0].Line != 1 || locs[0].Column != 1 {
		t.Errorf("uncaptured line/column = %d:%d, want 1:1", locs[0].Line, locs[0].Column)
	}
}

func TestScanDocumentOrderAcrossFamilies(t *testing.T) {
	// The colon family registers after arrow, but its match appears first
	// in the text; document order wins over registration order.
	r := NewRegistry()
	text := "  ::: src/first.rs:1:1\nsome output\n  --> src/second.rs:2:2\n"
	locs := r.Scan(text)

	if len(locs) != 2 {
		t.Fatalf("got %d locations, want 2: %+v", len(locs), locs)
	}
	if locs[0].File != "src/first.rs" || locs[1].File != "src/second.rs" {
		t.Errorf("order = [%s, %s], want [src/first.rs, src/second.rs]", locs[0].File, locs[1].File)
	}
	if locs[0].Offset >= locs[1].Offset {
		t.Errorf("offsets not increasing: %d, %d", locs[0].Offset, locs[1].Offset)
	}
}

func TestScanSameOffsetKeepsRegistrationOrder(t *testing.T) {
	r := NewEmptyRegistry()
	for _, f := range []Family{
		{ID: "wide", Pattern: `(?m)^at ([^ :]+):([0-9]+)`, Groups: Groups{File: 1, Line: 2}},
		{ID: "narrow", Pattern: `(?m)^at ([^ :]+)`, Groups: Groups{File: 1}},
	} {
		if err := r.Register(f); err != nil {
			t.Fatalf("Register(%s): %v", f.ID, err)
		}
	}

	locs := r.Scan("at src/main.rs:4\n")
	if len(locs) != 2 {
		t.Fatalf("got %d locations, want 2 (both families retained): %+v", len(locs), locs)
	}
	if locs[0].Family != "wide" || locs[1].Family != "narrow" {
		t.Errorf("order = [%s, %s], want [wide, narrow]", locs[0].Family, locs[1].Family)
	}
}

func TestScanMultipleMatchesOneFamily(t *testing.T) {
	r := NewRegistry()
	text := strings.Join([]string{
		"  --> src/a.rs:1:1",
		"  --> src/b.rs:2:2",
		"  --> src/c.rs:3:3",
	}, "\n")
	locs := r.Scan(text)

	if len(locs) != 3 {
		t.Fatalf("got %d locations, want 3", len(locs))
	}
	for i, want := range []string{"src/a.rs", "src/b.rs", "src/c.rs"} {
		if locs[i].File != want {
			t.Errorf("locs[%d].File = %q, want %q", i, locs[i].File, want)
		}
	}
}

func TestScanKindGroup(t *testing.T) {
	r := NewEmptyRegistry()
	err := r.Register(Family{
		ID:      "diag",
		Pattern: `(?m)^(error|warning|note|help): .* at ([^ :]+):([0-9]+)`,
		Groups:  Groups{Kind: 1, File: 2, Line: 3},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	tests := []struct {
		text string
		want Kind
	}{
		{"error: bad at a.rs:1\n", KindError},
		{"warning: odd at a.rs:1\n", KindError},
		{"note: see at a.rs:1\n", KindInfo},
		{"help: try at a.rs:1\n", KindInfo},
	}
	for _, tt := range tests {
		locs := r.Scan(tt.text)
		if len(locs) != 1 {
			t.Fatalf("Scan(%q): got %d locations", tt.text, len(locs))
		}
		if locs[0].Kind != tt.want {
			t.Errorf("Scan(%q): kind = %q, want %q", tt.text, locs[0].Kind, tt.want)
		}
	}
}

func TestScanEmptyText(t *testing.T) {
	r := NewRegistry()
	if locs := r.Scan(""); len(locs) != 0 {
		t.Errorf("Scan(\"\") = %+v, want empty", locs)
	}
}

func TestScannerLifecycle(t *testing.T) {
	s := NewScanner(NewRegistry())

	if got := s.State(); got != ScanStateNoMatches {
		t.Errorf("initial state = %v, want %v", got, ScanStateNoMatches)
	}

	s.Rescan("  --> src/main.rs:1:1\n")
	if got := s.State(); got != ScanStateMatchesReady {
		t.Errorf("state after scan = %v, want %v", got, ScanStateMatchesReady)
	}
	if got := s.Locations(); len(got) != 1 {
		t.Fatalf("got %d locations, want 1", len(got))
	}

	// A rescan over grown text replaces the records rather than appending.
	s.Rescan("  --> src/main.rs:1:1\n  --> src/lib.rs:2:2\n")
	if got := s.Locations(); len(got) != 2 {
		t.Errorf("after rescan: got %d locations, want 2", len(got))
	}

	s.Reset()
	if got := s.State(); got != ScanStateNoMatches {
		t.Errorf("state after reset = %v, want %v", got, ScanStateNoMatches)
	}
	if got := s.Locations(); len(got) != 0 {
		t.Errorf("locations after reset = %+v, want empty", got)
	}
}
