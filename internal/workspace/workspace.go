// Package workspace resolves the filesystem root that every persistence
// primitive in this module reads and writes under.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// MarkerFile is the file whose presence identifies a workspace root.
// A directory tree without one falls back to the current working
// directory, mirroring the teacher's findProjectRoot fallback.
const MarkerFile = ".agent-workspace"

// Resolver yields the workspace root used by every component.
type Resolver interface {
	Root() (string, error)
}

// StaticResolver returns a fixed root, useful for tests and for a
// caller that has already pinned the workspace via configuration.
type StaticResolver struct {
	RootDir string
}

// Root returns the configured root unchanged.
func (r StaticResolver) Root() (string, error) {
	if r.RootDir == "" {
		return "", fmt.Errorf("workspace root not configured")
	}
	return r.RootDir, nil
}

// WalkUpResolver walks up from the current working directory looking
// for MarkerFile, the way the teacher's findProjectRoot walks up
// looking for sdd/sdd.json. If no marker is found, it returns the
// original working directory — never an error, since a missing
// workspace marker is not a fatal condition for a fresh session.
type WalkUpResolver struct{}

// Root implements Resolver.
func (WalkUpResolver) Root() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}

	current := dir
	for {
		if _, err := os.Stat(filepath.Join(current, MarkerFile)); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir, nil
		}
		current = parent
	}
}
