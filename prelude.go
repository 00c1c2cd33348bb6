// Package prelude keeps consolidated autoload artifacts in sync with a tree
// of Risor bundle scripts. See doc.go for the pipeline overview.
package prelude

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/mstanton/prelude/internal/ledger"
	"github.com/mstanton/prelude/internal/loader"
	"github.com/mstanton/prelude/internal/registry"
)

// Artifact file names under the state directory.
const (
	CoreArtifactFile    = "core.autoload.risor"
	BundlesArtifactFile = "bundles.autoload.risor"
)

// defaultHandlers is the file-extension dispatch table captured in the
// startup snapshot.
var defaultHandlers = map[string]string{
	".risor":  "source",
	".risorc": "compiled",
}

// Config locates the source tree and state directory for a Pipeline.
type Config struct {
	StateDir    string   // artifacts and the build ledger live here
	LibRoot     string   // first-party scripts
	BundleRoots []string // installed bundles, one directory each
	ExtraRoots  []string // extra trusted roots for wide path resolution
	Disabled    []string // disabled bundle names
	Interactive bool     // suppresses the queued restart notice
}

// Pipeline drives regeneration of the two autoload artifacts.
type Pipeline struct {
	cfg    Config
	reg    *registry.Registry
	loader *loader.Loader
	ledger *ledger.Ledger
	logger *log.Logger

	notices []string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger replaces the default stderr logger.
func WithLogger(logger *log.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithLedger wires a build ledger; regeneration outcomes are recorded in it
// best-effort. The Pipeline takes ownership and closes it on Close.
func WithLedger(l *ledger.Ledger) Option {
	return func(p *Pipeline) { p.ledger = l }
}

// New creates a Pipeline for the given tree layout.
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	if cfg.StateDir == "" {
		return nil, fmt.Errorf("prelude: state dir is required")
	}
	stateDir, err := filepath.Abs(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("prelude: resolving state dir %q: %w", cfg.StateDir, err)
	}
	cfg.StateDir = stateDir
	p := &Pipeline{
		cfg: cfg,
		reg: registry.New(registry.Config{
			LibRoot:     cfg.LibRoot,
			BundleRoots: cfg.BundleRoots,
			ExtraRoots:  cfg.ExtraRoots,
			Disabled:    cfg.Disabled,
		}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "prelude"})
	}
	p.loader = loader.New(p.logger)
	return p, nil
}

// Close releases the Pipeline's ledger, if any.
func (p *Pipeline) Close() error {
	if p.ledger != nil {
		return p.ledger.Close()
	}
	return nil
}

// CorePath is the canonical path of the core artifact.
func (p *Pipeline) CorePath() string {
	return filepath.Join(p.cfg.StateDir, CoreArtifactFile)
}

// BundlesPath is the canonical path of the aggregated bundle artifact.
func (p *Pipeline) BundlesPath() string {
	return filepath.Join(p.cfg.StateDir, BundlesArtifactFile)
}

// Loader exposes the bindings registered by loaded artifacts.
func (p *Pipeline) Loader() *loader.Loader {
	return p.loader
}

// Registry exposes the bundle registry backing this Pipeline.
func (p *Pipeline) Registry() *registry.Registry {
	return p.reg
}

// Notices returns the one-shot end-of-session notices queued so far.
func (p *Pipeline) Notices() []string {
	return p.notices
}

// notice queues an end-of-session message when running non-interactively.
func (p *Pipeline) notice(msg string) {
	if p.cfg.Interactive {
		return
	}
	for _, n := range p.notices {
		if n == msg {
			return
		}
	}
	p.notices = append(p.notices, msg)
}
