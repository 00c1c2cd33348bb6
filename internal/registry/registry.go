// Package registry enumerates installed bundles and answers the questions
// the regeneration pipeline asks about them: which bundles exist, which are
// enabled, which bundle owns a given file, and which directories count as
// script search roots.
//
// A bundle is one directory under a configured bundle root. Its name is the
// directory name; its enabled state comes from the configured disabled list.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScriptExt is the source extension the registry indexes.
const ScriptExt = ".risor"

// ExportsFile is the per-bundle precompiled declaration file aggregated
// into the bundle artifact.
const ExportsFile = "exports" + ScriptExt

// Bundle is one installed, independently disable-able unit of source.
type Bundle struct {
	Name    string
	Dir     string
	Enabled bool
}

// Config locates the source tree the registry indexes.
type Config struct {
	LibRoot     string   // first-party scripts
	BundleRoots []string // each child directory is one bundle
	ExtraRoots  []string // additional trusted roots for wide resolution
	Disabled    []string // bundle names disabled by configuration
}

// Registry indexes bundles lazily; Ensure builds the index once.
type Registry struct {
	cfg      Config
	disabled map[string]bool

	ensured bool
	bundles []Bundle
	byName  map[string]int
}

func New(cfg Config) *Registry {
	disabled := make(map[string]bool, len(cfg.Disabled))
	for _, name := range cfg.Disabled {
		disabled[name] = true
	}
	return &Registry{cfg: cfg, disabled: disabled}
}

// Ensure builds the bundle index if it has not been built yet. Every other
// accessor calls it, so callers only need it when they want enumeration
// errors surfaced eagerly.
func (r *Registry) Ensure() error {
	if r.ensured {
		return nil
	}
	r.byName = make(map[string]int)
	for _, root := range r.cfg.BundleRoots {
		entries, err := os.ReadDir(root)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("registry: reading bundle root %s: %w", root, err)
		}
		for _, e := range entries {
			if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			if _, dup := r.byName[e.Name()]; dup {
				// First root wins; later roots shadow.
				continue
			}
			b := Bundle{
				Name:    e.Name(),
				Dir:     filepath.Join(root, e.Name()),
				Enabled: !r.disabled[e.Name()],
			}
			r.byName[b.Name] = len(r.bundles)
			r.bundles = append(r.bundles, b)
		}
	}
	sort.Slice(r.bundles, func(i, j int) bool { return r.bundles[i].Name < r.bundles[j].Name })
	for i, b := range r.bundles {
		r.byName[b.Name] = i
	}
	r.ensured = true
	return nil
}

// Bundles returns every known bundle, sorted by name.
func (r *Registry) Bundles() ([]Bundle, error) {
	if err := r.Ensure(); err != nil {
		return nil, err
	}
	return r.bundles, nil
}

// BundleFor attributes a path to the bundle whose directory contains it.
// Returns nil for first-party and unknown paths.
func (r *Registry) BundleFor(path string) *Bundle {
	if err := r.Ensure(); err != nil {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for i := range r.bundles {
		if abs == r.bundles[i].Dir || strings.HasPrefix(abs, r.bundles[i].Dir+string(os.PathSeparator)) {
			return &r.bundles[i]
		}
	}
	return nil
}

// IsEnabled reports the configured enabled state for a bundle name.
// Unknown names count as enabled so first-party code is never stubbed.
func (r *Registry) IsEnabled(name string) bool {
	return !r.disabled[name]
}

// Disabled returns the configured disabled bundle names, sorted.
func (r *Registry) Disabled() []string {
	names := make([]string, 0, len(r.disabled))
	for name := range r.disabled {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SearchRoots returns the script search roots in precedence order: the lib
// root, then enabled bundle directories. With all set, disabled bundle
// directories and the extra trusted roots are appended.
func (r *Registry) SearchRoots(all bool) []string {
	_ = r.Ensure()
	roots := []string{}
	if r.cfg.LibRoot != "" {
		roots = append(roots, r.cfg.LibRoot)
	}
	for _, b := range r.bundles {
		if b.Enabled {
			roots = append(roots, b.Dir)
		}
	}
	if all {
		for _, b := range r.bundles {
			if !b.Enabled {
				roots = append(roots, b.Dir)
			}
		}
		roots = append(roots, r.cfg.ExtraRoots...)
	}
	return roots
}

// LibScripts lists first-party scripts under the lib root, sorted.
func (r *Registry) LibScripts() ([]string, error) {
	return scriptsUnder(r.cfg.LibRoot)
}

// BundleScripts lists a bundle's scripts, sorted, excluding its exports
// file (that file is aggregation input, not a scan target).
func (r *Registry) BundleScripts(b Bundle) ([]string, error) {
	paths, err := scriptsUnder(b.Dir)
	if err != nil {
		return nil, err
	}
	out := paths[:0]
	for _, p := range paths {
		if filepath.Base(p) != ExportsFile {
			out = append(out, p)
		}
	}
	return out, nil
}

func scriptsUnder(root string) ([]string, error) {
	if root == "" {
		return nil, nil
	}
	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ScriptExt) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("registry: walking %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}
