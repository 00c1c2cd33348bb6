package prelude

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// NeedsRegen decides whether an artifact must be rebuilt. It returns true
// when force is set, when the target is missing, when any root directory
// has a descendant newer than the target, or when any individual dependency
// path is newer. An empty dependency set is valid; only the root checks
// apply then. Missing dependencies are treated as not-newer.
func NeedsRegen(target string, roots []string, deps []string, force bool) bool {
	if force {
		return true
	}
	info, err := os.Stat(target)
	if err != nil {
		return true
	}
	built := info.ModTime()

	for _, root := range roots {
		if newestDescendantMtime(root).After(built) {
			return true
		}
	}
	for _, dep := range deps {
		if di, err := os.Stat(dep); err == nil && di.ModTime().After(built) {
			return true
		}
	}
	return false
}

// newestDescendantMtime walks dir and returns the newest modification time
// found among it and its descendants. Returns the zero time for a missing
// directory, which compares older than any artifact.
func newestDescendantMtime(dir string) time.Time {
	var newest time.Time
	if dir == "" {
		return newest
	}
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if info, err := d.Info(); err == nil && info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		return nil
	})
	return newest
}
