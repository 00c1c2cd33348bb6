package prelude

import (
	"github.com/mstanton/prelude/internal/artifact"
	"github.com/mstanton/prelude/internal/ledger"
	"github.com/mstanton/prelude/internal/loader"
	"github.com/mstanton/prelude/internal/registry"
	"github.com/mstanton/prelude/internal/scan"
)

// Public type aliases for internal types surfaced through the Pipeline API.
// These are Go type aliases (=), identical to the internal types at compile
// time, so no conversion is needed by external consumers.

type Bundle = registry.Bundle
type Form = scan.Form
type FileInfo = scan.FileInfo
type ScanResult = scan.Result
type RegenError = artifact.RegenError
type Build = ledger.Build
type Ledger = ledger.Ledger
type State = loader.State
