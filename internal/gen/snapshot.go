package gen

import (
	"sort"
	"strconv"
	"strings"
)

// Snapshot is the fixed set of expensive-to-recompute startup values that
// gets serialized into the bundle artifact. Loading the artifact restores
// these wholesale instead of recomputing them at every startup.
type Snapshot struct {
	LoadPath []string          // script search roots, in precedence order
	Handlers map[string]string // file extension -> handler kind
	Disabled []string          // disabled bundle names
}

// Emit serializes the snapshot as one literal assignment followed by the
// restore call the loader interprets. Output is deterministic: list values
// keep their given order only where order is meaningful (LoadPath); the
// handler table and disabled list are sorted.
func (s Snapshot) Emit() string {
	var b strings.Builder
	b.WriteString("prelude_state := {\n")

	disabled := append([]string(nil), s.Disabled...)
	sort.Strings(disabled)
	b.WriteString("    \"disabled\": ")
	writeStringList(&b, disabled)
	b.WriteString(",\n")

	exts := make([]string, 0, len(s.Handlers))
	for ext := range s.Handlers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	b.WriteString("    \"handlers\": {")
	for i, ext := range exts {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(ext))
		b.WriteString(": ")
		b.WriteString(strconv.Quote(s.Handlers[ext]))
	}
	b.WriteString("},\n")

	b.WriteString("    \"load_path\": ")
	writeStringList(&b, s.LoadPath)
	b.WriteString("\n")

	b.WriteString("}\n")
	b.WriteString("restore_state(prelude_state)\n")
	return b.String()
}

func writeStringList(b *strings.Builder, items []string) {
	b.WriteByte('[')
	for i, it := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(it))
	}
	b.WriteByte(']')
}
