// Package loader compiles and loads generated autoload artifacts with the
// Risor toolchain. Compile validates an artifact and writes a compile stamp
// sibling; Load evaluates it with the host globals that register deferred
// bindings, aliases, and the restored startup state in the running process.
package loader

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/risor-io/risor"
	"github.com/risor-io/risor/compiler"
	"github.com/risor-io/risor/parser"

	"github.com/mstanton/prelude/internal/artifact"
)

// StampVersion is bumped whenever the compile stamp format changes, which
// invalidates every existing compiled sibling.
const StampVersion = "prelude-stamp-1"

// State is the startup configuration restored from a bundle artifact's
// snapshot assignment.
type State struct {
	LoadPath []string
	Handlers map[string]string
	Disabled []string
}

// Loader evaluates artifacts and accumulates the bindings they declare.
type Loader struct {
	logger *log.Logger

	bindings map[string]string // name -> deferred load path
	owners   map[string]string // name -> owning bundle
	aliases  map[string]string // alias name -> target
	state    *State            // last restored snapshot, if any
}

func New(logger *log.Logger) *Loader {
	return &Loader{
		logger:   logger,
		bindings: make(map[string]string),
		owners:   make(map[string]string),
		aliases:  make(map[string]string),
	}
}

// Compile parses and compiles the artifact at path. On success it writes
// the compile stamp sibling; on failure the artifact is left untouched for
// the caller's rollback handling.
func (l *Loader) Compile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("loader: reading %s: %w", path, err)
	}
	prog, err := parser.Parse(context.Background(), string(src))
	if err != nil {
		return fmt.Errorf("loader: parsing %s: %w", path, err)
	}
	if _, err := compiler.Compile(prog, compiler.WithGlobalNames(l.globalNames())); err != nil {
		return fmt.Errorf("loader: compiling %s: %w", path, err)
	}
	stamp := fmt.Sprintf("%s\n%x\n", StampVersion, sha256.Sum256(src))
	if err := os.WriteFile(artifact.CompiledPath(path), []byte(stamp), 0o644); err != nil {
		return fmt.Errorf("loader: writing stamp for %s: %w", path, err)
	}
	return nil
}

// Stale reports whether the compile stamp sibling is missing or no longer
// matches the artifact source.
func (l *Loader) Stale(path string) bool {
	src, err := os.ReadFile(path)
	if err != nil {
		return true
	}
	stamp, err := os.ReadFile(artifact.CompiledPath(path))
	if err != nil {
		return true
	}
	want := fmt.Sprintf("%s\n%x\n", StampVersion, sha256.Sum256(src))
	return string(stamp) != want
}

// Load evaluates the artifact at path with the host globals. When mustExist
// is false a missing artifact is not an error; the process simply starts
// without its bindings.
func (l *Loader) Load(ctx context.Context, path string, mustExist bool) error {
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return nil
		}
		return fmt.Errorf("loader: reading %s: %w", path, err)
	}

	opts := make([]risor.Option, 0, 8)
	for name, val := range l.globals() {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if _, err := risor.Eval(ctx, string(src), opts...); err != nil {
		return fmt.Errorf("loader: evaluating %s: %w", path, err)
	}
	if l.logger != nil {
		l.logger.Debug("loaded artifact", "path", path, "bindings", len(l.bindings))
	}
	return nil
}

// Binding returns the deferred load path registered for name.
func (l *Loader) Binding(name string) (string, bool) {
	path, ok := l.bindings[name]
	return path, ok
}

// Owner returns the bundle recorded against name, if any.
func (l *Loader) Owner(name string) (string, bool) {
	owner, ok := l.owners[name]
	return owner, ok
}

// Alias returns the registered target for an alias name.
func (l *Loader) Alias(name string) (string, bool) {
	target, ok := l.aliases[name]
	return target, ok
}

// State returns the startup state restored by the last loaded artifact,
// or nil when no artifact carried a snapshot.
func (l *Loader) State() *State {
	return l.state
}

// Bindings returns every registered binding name, sorted.
func (l *Loader) Bindings() []string {
	names := make([]string, 0, len(l.bindings))
	for name := range l.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// builtinNames are the Risor builtins generated artifacts may reference.
// Compile resolves names against this set plus the host globals; anything
// else fails validation.
var builtinNames = []string{
	"print", "printf", "sprintf", "error", "len", "keys", "type",
	"string", "int", "float", "list", "map", "set", "bool", "try", "assert",
	"sorted", "reversed", "any", "all", "getattr", "call", "chunk",
}

func (l *Loader) globalNames() []string {
	globals := l.globals()
	names := make([]string, 0, len(globals)+len(builtinNames))
	for name := range globals {
		names = append(names, name)
	}
	names = append(names, builtinNames...)
	sort.Strings(names)
	return names
}
