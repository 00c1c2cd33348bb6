// Package gen turns scanned declaration forms into the text of the two
// autoload artifacts: deferred-load bindings and inert stubs, symbolic path
// canonicalization, the startup state snapshot, and the final cleanup pass.
package gen

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/mstanton/prelude/internal/scan"
)

// emission is the per-form decision, resolved once at generation time.
type emission int

const (
	emitReal emission = iota
	emitStub
	emitAliasReal
	emitAliasStub
	emitVerbatim
	emitDrop
)

// Synthesizer renders scanned forms into artifact text. Forms whose bundle
// is enabled get real deferred-load bindings; disabled forms get signature-
// preserving stubs so call sites never hit a missing definition.
type Synthesizer struct {
	Enabled func(bundle string) bool
	Logger  *log.Logger
}

// Emit renders forms in listing order and returns the concatenated text.
// Malformed forms are logged and skipped; they never fail the pass.
func (s *Synthesizer) Emit(forms []scan.Form) string {
	var b strings.Builder
	for _, f := range forms {
		s.emitForm(&b, f)
	}
	return b.String()
}

func (s *Synthesizer) emitForm(b *strings.Builder, f scan.Form) {
	switch s.classify(f) {
	case emitReal:
		fmt.Fprintf(b, "autoload(%q, %q)\n", f.Name, f.Symbolic)
		s.attribution(b, f)
	case emitStub:
		// An inline alternate form is the author's own fallback; prefer it
		// over a synthesized stub.
		if f.Alt != "" {
			b.WriteString(f.Alt)
			b.WriteByte('\n')
			s.attribution(b, f)
			return
		}
		if f.Malformed {
			s.warn(f, "parameter list could not be parsed")
			return
		}
		stub, err := stubFor(f)
		if err != nil {
			s.warn(f, err.Error())
			return
		}
		b.WriteString(stub)
		s.attribution(b, f)
	case emitAliasReal:
		b.WriteString(f.Raw)
		b.WriteByte('\n')
		s.attribution(b, f)
	case emitAliasStub:
		fmt.Fprintf(b, "alias(%q, \"noop\") // %q is disabled: bundle %q is disabled\n",
			f.Name, f.Name, f.Bundle)
		s.attribution(b, f)
	case emitVerbatim:
		b.WriteString(f.Raw)
		b.WriteByte('\n')
	case emitDrop:
	}
}

func (s *Synthesizer) classify(f scan.Form) emission {
	enabled := f.Bundle == "" || s.Enabled == nil || s.Enabled(f.Bundle)
	switch {
	case f.Kind == scan.KindAlias && enabled:
		return emitAliasReal
	case f.Kind == scan.KindAlias:
		return emitAliasStub
	case f.Callable() && enabled:
		return emitReal
	case f.Callable():
		return emitStub
	case enabled:
		return emitVerbatim
	default:
		return emitDrop
	}
}

// attribution records the owning bundle against the name so the running
// process can report where a binding came from.
func (s *Synthesizer) attribution(b *strings.Builder, f scan.Form) {
	if f.Bundle != "" && f.Name != "" {
		fmt.Fprintf(b, "bundle_of(%q, %q)\n", f.Name, f.Bundle)
	}
}

// stubFor synthesizes an inert redefinition preserving name and arity. The
// body never references the parameters; it only reports why the real
// definition is unavailable.
func stubFor(f scan.Form) (string, error) {
	if f.Name == "" {
		return "", fmt.Errorf("declaration has no name")
	}
	if f.Params == nil {
		return "", fmt.Errorf("declaration has no parameter list")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "func %s(%s) {\n", f.Name, strings.Join(f.Params, ", "))
	fmt.Fprintf(&b, "    // stubbed out: bundle %q is disabled\n", f.Bundle)
	fmt.Fprintf(&b, "    print(%q)\n", fmt.Sprintf("%s is unavailable: bundle %q is disabled", f.Name, f.Bundle))
	b.WriteString("}\n")
	return b.String(), nil
}

func (s *Synthesizer) warn(f scan.Form, reason string) {
	if s.Logger != nil {
		s.Logger.Warn("skipping declaration", "name", f.Name, "file", f.File, "reason", reason)
	}
}
