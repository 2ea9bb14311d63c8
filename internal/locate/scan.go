package locate

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Scan evaluates every family against the full text and returns the
// merged records in document order. Families are evaluated in
// registration order and never short-circuit each other; overlapping
// matches from different families are all retained. Records at the same
// offset keep family registration order.
func (r *Registry) Scan(text string) []Location {
	families := r.snapshot()

	var out []Location
	for _, c := range families {
		out = append(out, matchFamily(c, text)...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Offset < out[j].Offset
	})
	return out
}

func matchFamily(c *compiledFamily, text string) []Location {
	idx := c.re.FindAllStringSubmatchIndex(text, -1)
	if idx == nil {
		return nil
	}

	locs := make([]Location, 0, len(idx))
	for _, m := range idx {
		loc := Location{
			Line:   1,
			Column: 1,
			Kind:   c.fam.DefaultKind,
			Offset: m[0],
			Family: c.fam.ID,
		}

		loc.File = group(text, m, c.fam.Groups.File)
		if loc.File == "" {
			continue
		}
		if s := group(text, m, c.fam.Groups.Line); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n >= 1 {
				loc.Line = n
			}
		}
		if s := group(text, m, c.fam.Groups.Column); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n >= 1 {
				loc.Column = n
			}
		}
		if s := group(text, m, c.fam.Groups.Kind); s != "" {
			loc.Kind = parseKind(s)
		}

		locs = append(locs, loc)
	}
	return locs
}

// group extracts capture group n from a FindAllStringSubmatchIndex match,
// or "" when the group is unmapped or did not participate.
func group(text string, m []int, n int) string {
	if n <= 0 || 2*n+1 >= len(m) {
		return ""
	}
	start, end := m[2*n], m[2*n+1]
	if start < 0 || end < 0 {
		return ""
	}
	return text[start:end]
}

func parseKind(s string) Kind {
	switch strings.ToLower(s) {
	case "note", "info", "help":
		return KindInfo
	default:
		return KindError
	}
}

// ScanState tracks where an incremental scanner is in its per-session
// cycle.
type ScanState int

const (
	// ScanStateNoMatches is the initial state before any scan has run.
	ScanStateNoMatches ScanState = iota
	// ScanStateScanning means a scan is in progress.
	ScanStateScanning
	// ScanStateMatchesReady means the latest scan has completed. The state
	// is transient: the next buffer change re-enters ScanStateScanning.
	ScanStateMatchesReady
)

// String returns a human-readable state name.
func (s ScanState) String() string {
	switch s {
	case ScanStateNoMatches:
		return "no-matches"
	case ScanStateScanning:
		return "scanning"
	case ScanStateMatchesReady:
		return "matches-ready"
	default:
		return "unknown"
	}
}

// Scanner runs incremental scans against a growing buffer. Each Rescan
// regenerates the full record list; earlier results are replaced, never
// mutated. Scanner is safe for concurrent use.
type Scanner struct {
	reg *Registry

	mu    sync.RWMutex
	locs  []Location
	state ScanState
}

// NewScanner creates a scanner over the given registry.
func NewScanner(reg *Registry) *Scanner {
	return &Scanner{reg: reg, state: ScanStateNoMatches}
}

// Rescan scans the full text and replaces the stored records.
func (s *Scanner) Rescan(text string) []Location {
	s.mu.Lock()
	s.state = ScanStateScanning
	s.mu.Unlock()

	locs := s.reg.Scan(text)

	s.mu.Lock()
	s.locs = locs
	s.state = ScanStateMatchesReady
	s.mu.Unlock()
	return locs
}

// Locations returns a copy of the records from the most recent scan.
func (s *Scanner) Locations() []Location {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Location, len(s.locs))
	copy(out, s.locs)
	return out
}

// State returns the current scan state.
func (s *Scanner) State() ScanState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Reset returns the scanner to its initial state for a new session.
func (s *Scanner) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locs = nil
	s.state = ScanStateNoMatches
}
