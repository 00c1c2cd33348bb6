package gen

import (
	"os"
	"regexp"
	"strings"
)

// autoloadRe matches the path argument of a generated deferred-load
// declaration: autoload("name", "symbolic/path").
var autoloadRe = regexp.MustCompile(`autoload\("((?:[^"\\]|\\.)*)",\s*"((?:[^"\\]|\\.)*)"\)`)

// Resolver maps a symbolic load path to a canonical absolute path. wide
// widens the search to every known root (disabled bundles and extra trusted
// roots included). A failed resolution returns ok=false and must not error:
// the referenced definition may legitimately arrive at load time from
// another mechanism.
type Resolver interface {
	Resolve(symbolic string, wide bool) (string, bool)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(symbolic string, wide bool) (string, bool)

func (f ResolverFunc) Resolve(symbolic string, wide bool) (string, bool) {
	return f(symbolic, wide)
}

// RewritePaths replaces every symbolic path inside a deferred-load
// declaration with its resolved, display-friendly absolute form. Resolutions
// are memoized per call keyed by the unresolved string; the cache is
// discarded afterwards. Unresolvable paths are left byte-identical.
func RewritePaths(text string, r Resolver, wide bool) string {
	cache := make(map[string]string)
	return autoloadRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := autoloadRe.FindStringSubmatch(m)
		symbolic := sub[2]
		resolved, ok := cache[symbolic]
		if !ok {
			abs, found := r.Resolve(symbolic, wide)
			if !found {
				abs = symbolic
			}
			resolved = AbbreviatePath(abs)
			cache[symbolic] = resolved
		}
		if resolved == symbolic {
			return m
		}
		return `autoload("` + sub[1] + `", "` + resolved + `")`
	})
}

// AbbreviatePath shortens a path for display and generated text by
// replacing the home directory prefix with "~".
func AbbreviatePath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" || home == "/" {
		return path
	}
	if path == home {
		return "~"
	}
	if strings.HasPrefix(path, home+string(os.PathSeparator)) {
		return "~" + path[len(home):]
	}
	return path
}

// ExpandPath is the inverse of AbbreviatePath for paths read back from
// generated artifacts.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil && home != "" {
			return home + path[1:]
		}
	}
	return path
}
