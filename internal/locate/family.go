package locate

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
)

// Kind classifies a location record.
type Kind string

const (
	// KindError marks a primary diagnostic location.
	KindError Kind = "error"
	// KindInfo marks a secondary or informational location.
	KindInfo Kind = "info"
)

// Groups maps capture-group indices (1-based) to location roles. A zero
// index means the role is not captured by the pattern.
type Groups struct {
	File   int
	Line   int
	Column int
	Kind   int
}

// Family is a named pattern for extracting locations from output text.
// Families are immutable once registered.
type Family struct {
	// ID names the family.
	ID string

	// Pattern is the regular expression. It is matched against the full
	// buffer text, so line anchoring needs the (?m) flag.
	Pattern string

	// Groups maps capture groups to roles. A family without a File group
	// is rejected at registration.
	Groups Groups

	// DefaultKind is used when no Kind group is mapped or the captured
	// text is empty. An empty DefaultKind means KindError.
	DefaultKind Kind
}

// Location is a structured source reference extracted from the log.
// Records are derived and read-only; a scan regenerates them rather than
// mutating earlier results.
type Location struct {
	// File is the path as it appeared in the output.
	File string

	// Line is the 1-based line number. Defaults to 1 when not captured.
	Line int

	// Column is the 1-based column number. Defaults to 1 when not captured.
	Column int

	// Kind classifies the record.
	Kind Kind

	// Offset is the byte offset of the match in the buffer text. It
	// defines document order.
	Offset int

	// Family is the ID of the family that produced the record.
	Family string
}

// Registration errors.
var (
	// ErrNoFileGroup is returned when a family has no file capture group.
	ErrNoFileGroup = errors.New("pattern family has no file group")

	// ErrDuplicateFamily is returned when a family ID is already registered.
	ErrDuplicateFamily = errors.New("pattern family already registered")
)

type compiledFamily struct {
	re  *regexp.Regexp
	fam Family
}

// Registry holds an ordered, append-only set of compiled families.
// Registration during an active scan is safe: Scan works on a snapshot
// taken under the lock, so a concurrent Register is never observed
// mid-scan.
type Registry struct {
	mu       sync.RWMutex
	families []*compiledFamily
}

// NewRegistry creates a registry with the built-in families registered.
func NewRegistry() *Registry {
	r := &Registry{}
	for _, f := range builtinFamilies() {
		if err := r.Register(f); err != nil {
			panic(fmt.Sprintf("builtin family %q: %v", f.ID, err))
		}
	}
	return r
}

// NewEmptyRegistry creates a registry with no families.
func NewEmptyRegistry() *Registry {
	return &Registry{}
}

// Register compiles and appends a family. A malformed pattern is reported
// here and the family excluded; already-registered families are
// unaffected.
func (r *Registry) Register(f Family) error {
	if f.Groups.File <= 0 {
		return fmt.Errorf("family %q: %w", f.ID, ErrNoFileGroup)
	}

	re, err := regexp.Compile(f.Pattern)
	if err != nil {
		return fmt.Errorf("family %q: %w", f.ID, err)
	}
	if f.DefaultKind == "" {
		f.DefaultKind = KindError
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.families {
		if c.fam.ID == f.ID {
			return fmt.Errorf("family %q: %w", f.ID, ErrDuplicateFamily)
		}
	}
	r.families = append(r.families, &compiledFamily{re: re, fam: f})
	return nil
}

// Families returns the registered families in registration order.
func (r *Registry) Families() []Family {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Family, len(r.families))
	for i, c := range r.families {
		out[i] = c.fam
	}
	return out
}

// snapshot returns the current family list for a scan.
func (r *Registry) snapshot() []*compiledFamily {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*compiledFamily, len(r.families))
	copy(out, r.families)
	return out
}

// builtinFamilies returns the families registered by default. The arrow
// and colon markers follow the rustc diagnostic layout, the gnu family
// covers gcc/go-style file:line:col prefixes, and the panic family picks
// up runtime panic locations from test output.
func builtinFamilies() []Family {
	return []Family{
		{
			ID:      "arrow",
			Pattern: `(?m)^ *--> +([^ \t\r\n:]+):([0-9]+)(?::([0-9]+))?`,
			Groups:  Groups{File: 1, Line: 2, Column: 3},
		},
		{
			ID:          "colon",
			Pattern:     `(?m)^ *::: +([^ \t\r\n:]+)(?::([0-9]+))?(?::([0-9]+))?`,
			Groups:      Groups{File: 1, Line: 2, Column: 3},
			DefaultKind: KindInfo,
		},
		{
			ID:      "gnu",
			Pattern: `(?m)^([^ \t\r\n:]+):([0-9]+):([0-9]+): *(error|warning|note|help)`,
			Groups:  Groups{File: 1, Line: 2, Column: 3, Kind: 4},
		},
		{
			ID:      "panic",
			Pattern: `(?m)panicked at ([^ \t\r\n:]+):([0-9]+):([0-9]+)`,
			Groups:  Groups{File: 1, Line: 2, Column: 3},
		},
	}
}
