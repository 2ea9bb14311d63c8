// Package project resolves the working directory a supervised tool runs
// in, by walking upward from a starting directory to the nearest project
// root marker.
package project

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNoRoot is returned when no marker file is found above the starting
// directory. Callers fall back to the starting directory itself.
var ErrNoRoot = errors.New("no project root found")

// defaultMarkers are checked in order at each level.
var defaultMarkers = []string{"Cargo.toml", "go.mod", "Makefile", ".git"}

// Finder locates project roots by marker files.
type Finder struct {
	markers []string
}

// NewFinder creates a finder. With no markers, the defaults are used.
func NewFinder(markers ...string) *Finder {
	if len(markers) == 0 {
		markers = defaultMarkers
	}
	return &Finder{markers: markers}
}

// Root walks from dir toward the filesystem root and returns the first
// directory containing a marker.
func (f *Finder) Root(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for {
		for _, m := range f.markers {
			if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoRoot
		}
		dir = parent
	}
}
