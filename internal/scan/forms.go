package scan

// Kind tags the shape of a scanned declaration.
type Kind string

const (
	// KindFunc is a named function declaration: func name(a, b) { ... }
	KindFunc Kind = "func"
	// KindBind is a function bound to a name: name := func(a, b) { ... }
	KindBind Kind = "bind"
	// KindAlias is an alias registration: alias("name", "target")
	KindAlias Kind = "alias"
	// KindOpaque is any other top-level form following a cookie. Opaque
	// members are emitted verbatim when their bundle is enabled and dropped
	// otherwise.
	KindOpaque Kind = "opaque"
)

// Form is one cookie-marked declaration extracted from a source file.
// Forms live only for the duration of one regeneration pass.
type Form struct {
	Kind   Kind
	Name   string   // declared name; empty for opaque members
	Params []string // parameter names; nil for alias/opaque
	Target string   // alias target; empty otherwise
	Raw    string   // the declaration text as written in the source
	Alt    string   // inline alternate form carried by the cookie, if any

	File     string // originating source file (absolute path)
	Symbolic string // symbolic load path for the file (resolver input)
	Bundle   string // owning bundle name; empty for first-party files

	// Malformed is set when the parameter list could not be parsed. The
	// synthesizer logs and skips such forms instead of failing the pass.
	Malformed bool
}

// Callable reports whether the form declares something invocable by name.
func (f Form) Callable() bool {
	return f.Kind == KindFunc || f.Kind == KindBind
}

// Result aggregates one scan pass over an ordered list of candidate files.
type Result struct {
	Forms []Form

	Ignored     int // files with no cookie marker
	Scanned     int // files with at least one cookie marker
	Contributed int // scanned files that yielded at least one form
}
