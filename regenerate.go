package prelude

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mstanton/prelude/internal/artifact"
	"github.com/mstanton/prelude/internal/gen"
	"github.com/mstanton/prelude/internal/ledger"
	"github.com/mstanton/prelude/internal/registry"
	"github.com/mstanton/prelude/internal/scan"
)

// ErrInvalidTarget is returned by Reload for a path matching neither
// artifact.
var ErrInvalidTarget = errors.New("prelude: not a known artifact")

// Artifact names used in logs and the build ledger.
const (
	coreArtifact    = "core"
	bundlesArtifact = "bundles"
)

// restartNotice is queued once per session after a successful regeneration.
const restartNotice = "autoload artifacts were regenerated; restart or reload for changes to take full effect"

// RegenerateAll rebuilds both artifacts in fixed order, core first. The
// first failure stops the run; the other artifact's state is untouched.
func (p *Pipeline) RegenerateAll(ctx context.Context, force bool) error {
	if err := p.RegenerateCore(ctx, force); err != nil {
		return err
	}
	return p.RegenerateBundles(ctx, force)
}

// RegenerateCore rebuilds the core artifact from first-party lib scripts
// plus per-bundle declaration forms (real bindings for enabled bundles,
// inert stubs for disabled ones). A fresh artifact is loaded as-is.
func (p *Pipeline) RegenerateCore(ctx context.Context, force bool) error {
	start := time.Now()
	if err := p.reg.Ensure(); err != nil {
		return err
	}
	target := p.CorePath()

	bundleFiles, err := p.bundleScanTargets()
	if err != nil {
		return err
	}
	deps := make([]string, len(bundleFiles))
	for i, fi := range bundleFiles {
		deps[i] = fi.Path
	}
	roots := append([]string{p.cfg.LibRoot}, p.cfg.BundleRoots...)
	if !NeedsRegen(target, roots, deps, force) {
		if ok, err := p.loadFresh(ctx, target); ok {
			return err
		}
	}
	p.logger.Info("regenerating core artifact", "path", target)

	libFiles, err := p.libScanTargets()
	if err != nil {
		return err
	}
	libRes := scan.Files(libFiles)
	bundleRes := scan.Files(bundleFiles)

	synth := &gen.Synthesizer{Enabled: p.reg.IsEnabled, Logger: p.logger}
	var body strings.Builder
	body.WriteString(gen.Header(coreArtifact))
	body.WriteString(synth.Emit(libRes.Forms))
	body.WriteString("\n")
	body.WriteString(synth.Emit(bundleRes.Forms))

	// Core generation resolves against the widened scope: disabled bundles
	// and extra trusted roots are searched too, since stubs may reference
	// files outside the enabled set.
	text := gen.RewritePaths(body.String(), p.reg, true)
	text = gen.Cleanup(text, false)

	counts := ledger.Build{
		Artifact:    coreArtifact,
		Ignored:     libRes.Ignored + bundleRes.Ignored,
		Scanned:     libRes.Scanned + bundleRes.Scanned,
		Contributed: libRes.Contributed + bundleRes.Contributed,
	}
	if err := p.finishArtifact(ctx, target, text, &counts, start); err != nil {
		return err
	}
	p.logger.Info("core artifact regenerated",
		"scanned", counts.Scanned, "ignored", counts.Ignored, "took", time.Since(start).Round(time.Millisecond))
	return nil
}

// RegenerateBundles rebuilds the aggregated bundle artifact: the startup
// state snapshot followed by each enabled bundle's precompiled declaration
// file, with its load-context references rewritten to the literal bundle
// directory. A fresh artifact is loaded as-is.
func (p *Pipeline) RegenerateBundles(ctx context.Context, force bool) error {
	start := time.Now()
	if err := p.reg.Ensure(); err != nil {
		return err
	}
	target := p.BundlesPath()

	bundles, err := p.reg.Bundles()
	if err != nil {
		return err
	}
	var deps []string
	for _, b := range bundles {
		deps = append(deps, filepath.Join(b.Dir, registry.ExportsFile))
	}
	if !NeedsRegen(target, p.cfg.BundleRoots, deps, force) {
		if ok, err := p.loadFresh(ctx, target); ok {
			return err
		}
	}
	p.logger.Info("regenerating bundle artifact", "path", target)

	snapshot := gen.Snapshot{
		LoadPath: p.reg.SearchRoots(false),
		Handlers: defaultHandlers,
		Disabled: p.reg.Disabled(),
	}

	var body strings.Builder
	body.WriteString(gen.Header(bundlesArtifact))
	body.WriteString(snapshot.Emit())
	body.WriteString("\n")

	counts := ledger.Build{Artifact: bundlesArtifact}
	for _, b := range bundles {
		if !b.Enabled {
			continue
		}
		data, err := os.ReadFile(filepath.Join(b.Dir, registry.ExportsFile))
		if err != nil {
			counts.Ignored++
			continue
		}
		counts.Scanned++
		chunk := gen.ReplaceBare(string(data), "bundle_dir()", strconv.Quote(gen.AbbreviatePath(b.Dir)))
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		counts.Contributed++
		fmt.Fprintf(&body, "// bundle: %s\n", b.Name)
		body.WriteString(chunk)
		if !strings.HasSuffix(chunk, "\n") {
			body.WriteByte('\n')
		}
		body.WriteByte('\n')
	}

	// Bundle aggregation resolves against the default narrow scope only.
	text := gen.RewritePaths(body.String(), p.reg, false)
	text = gen.Cleanup(text, true)

	if err := p.finishArtifact(ctx, target, text, &counts, start); err != nil {
		return err
	}
	p.logger.Info("bundle artifact regenerated",
		"bundles", counts.Scanned, "took", time.Since(start).Round(time.Millisecond))
	return nil
}

// loadFresh loads an artifact whose inputs are unchanged, checking its
// compile stamp first. A missing or mismatched stamp triggers one
// revalidation; if that recompile fails the artifact text itself is suspect
// and the caller falls through to full regeneration.
func (p *Pipeline) loadFresh(ctx context.Context, target string) (bool, error) {
	if p.loader.Stale(target) {
		if err := p.loader.Compile(target); err != nil {
			p.logger.Warn("fresh artifact failed revalidation; regenerating", "path", target, "err", err)
			return false, nil
		}
		p.logger.Debug("artifact restamped", "path", target)
	}
	p.logger.Debug("artifact is fresh", "path", target)
	return true, p.loader.Load(ctx, target, false)
}

// Reload loads one of the two artifacts into the running process. The path
// must match a known artifact; anything else is an InvalidTarget error.
func (p *Pipeline) Reload(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	switch abs {
	case p.CorePath(), p.BundlesPath():
		return p.loader.Load(ctx, abs, true)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidTarget, path)
	}
}

// finishArtifact writes, validates, loads, and records one artifact. The
// ledger write is best-effort; a failed compile is recorded before the
// regeneration error propagates.
func (p *Pipeline) finishArtifact(ctx context.Context, target, text string, counts *ledger.Build, start time.Time) error {
	counts.InputHash = fmt.Sprintf("%x", sha256.Sum256([]byte(text)))

	if err := artifact.Write(target, text, p.loader); err != nil {
		counts.Status = ledger.StatusFailed
		counts.Error = err.Error()
		p.recordBuild(counts, start)
		var regenErr *artifact.RegenError
		if errors.As(err, &regenErr) {
			p.logger.Error("artifact failed to compile",
				"path", regenErr.Artifact, "backup", regenErr.Backup, "err", regenErr.Err)
		}
		return err
	}
	counts.Status = ledger.StatusOK
	p.recordBuild(counts, start)

	if err := p.loader.Load(ctx, target, true); err != nil {
		return err
	}
	p.notice(restartNotice)
	return nil
}

func (p *Pipeline) recordBuild(b *ledger.Build, start time.Time) {
	if p.ledger == nil {
		return
	}
	b.DurationMS = time.Since(start).Milliseconds()
	if _, err := p.ledger.Record(b); err != nil {
		p.logger.Warn("recording build in ledger", "err", err)
	}
}

// ScanTargets lists every configured scan input: first-party lib scripts
// followed by each bundle's scripts, in listing order.
func (p *Pipeline) ScanTargets() ([]scan.FileInfo, error) {
	lib, err := p.libScanTargets()
	if err != nil {
		return nil, err
	}
	bundles, err := p.bundleScanTargets()
	if err != nil {
		return nil, err
	}
	return append(lib, bundles...), nil
}

// libScanTargets lists first-party scripts as scan inputs. Their symbolic
// path is relative to the lib root and they carry no bundle attribution.
func (p *Pipeline) libScanTargets() ([]scan.FileInfo, error) {
	paths, err := p.reg.LibScripts()
	if err != nil {
		return nil, err
	}
	files := make([]scan.FileInfo, 0, len(paths))
	for _, path := range paths {
		rel, err := filepath.Rel(p.cfg.LibRoot, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		files = append(files, scan.FileInfo{Path: path, Symbolic: filepath.ToSlash(rel)})
	}
	return files, nil
}

// bundleScanTargets lists every bundle's scripts, enabled or not: the stub
// synthesizer needs all forms regardless of bundle state. Symbolic paths
// are relative to the owning bundle directory, mirroring search-root
// precedence at resolution time.
func (p *Pipeline) bundleScanTargets() ([]scan.FileInfo, error) {
	bundles, err := p.reg.Bundles()
	if err != nil {
		return nil, err
	}
	var files []scan.FileInfo
	for _, b := range bundles {
		paths, err := p.reg.BundleScripts(b)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			rel, err := filepath.Rel(b.Dir, path)
			if err != nil {
				rel = filepath.Base(path)
			}
			files = append(files, scan.FileInfo{
				Path:     path,
				Symbolic: filepath.ToSlash(rel),
				Bundle:   b.Name,
			})
		}
	}
	return files, nil
}
