package registry

import (
	"os"
	"path/filepath"
)

// Resolve maps a symbolic load path to a canonical absolute path by probing
// the search roots, with and without the script extension. wide widens the
// probe to all known roots (disabled bundles and extra trusted roots
// included). Returns ok=false when nothing matches; resolution failure is
// never an error, the definition may arrive at load time another way.
func (r *Registry) Resolve(symbolic string, wide bool) (string, bool) {
	if symbolic == "" {
		return "", false
	}
	if filepath.IsAbs(symbolic) {
		if fileExists(symbolic) {
			return filepath.Clean(symbolic), true
		}
		if fileExists(symbolic + ScriptExt) {
			return filepath.Clean(symbolic + ScriptExt), true
		}
		return "", false
	}
	for _, root := range r.SearchRoots(wide) {
		candidate := filepath.Join(root, symbolic)
		if fileExists(candidate) {
			return candidate, true
		}
		if fileExists(candidate + ScriptExt) {
			return candidate + ScriptExt, true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
