// Package prelude is an incremental build pipeline that aggregates
// cookie-marked declarations scattered across a tree of Risor scripts into
// two consolidated, precompiled autoload artifacts, and keeps those
// artifacts in sync with their inputs and the installed-bundle registry.
//
// # Pipeline
//
// Each regeneration runs four stages:
//
//  1. Freshness: compare the artifact's modification time against its
//     dependency paths and root directories; a fresh artifact is loaded
//     without touching disk.
//
//  2. Scan: walk the candidate scripts line by line, extract every
//     declaration flagged by the //prelude:autoload cookie into a typed
//     form (function, bound function, alias, or opaque member).
//
//  3. Generate: emit deferred-load bindings for enabled bundles and
//     signature-preserving inert stubs for disabled ones, canonicalize
//     symbolic load paths through the bundle registry, inject the startup
//     state snapshot (bundle artifact), and strip build-time-only
//     directives.
//
//  4. Validate: write the text under a temp-then-rename transaction,
//     compile it with the Risor toolchain, and on failure back the attempt
//     up to a .bk sibling and remove it from the canonical path. The
//     canonical path never holds text that failed to compile.
//
// # Artifacts
//
// Two artifacts live under the state directory:
//
//   - core.autoload.risor: aggregated from first-party lib scripts plus
//     per-bundle declaration forms (stubs for disabled bundles).
//   - bundles.autoload.risor: the startup state snapshot followed by each
//     enabled bundle's precompiled exports file.
//
// Each artifact may carry a compiled sibling (a .risorc compile stamp) and,
// after a failed regeneration, a .bk backup holding the attempted text.
//
// # Usage
//
// Create a Pipeline and regenerate both artifacts in fixed order:
//
//	p, err := prelude.New(prelude.Config{
//		StateDir:    "~/.local/state/prelude",
//		LibRoot:     "lib",
//		BundleRoots: []string{"bundles"},
//	})
//	if err != nil { ... }
//	defer p.Close()
//
//	err = p.RegenerateAll(ctx, false)
//
// Regeneration is deterministic: with unchanged inputs the generated text
// is byte-identical across runs. The pipeline is single-threaded and
// synchronous; one regeneration runs to completion before control returns.
package prelude
