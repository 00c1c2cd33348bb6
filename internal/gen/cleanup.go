package gen

import "strings"

// stateMutations are statements made redundant in the bundle artifact once
// the snapshot captures their effect wholesale.
var stateMutations = []string{
	"add_load_path(",
	"register_handler(",
	"export_bundle(",
}

// Cleanup strips build-time-only directive comments from generated text
// and, when dropStateMutations is set (bundle artifact), statements that
// mutate the globals already captured by the snapshot. Runs of blank lines
// collapse to one.
//
// Scanning is string-aware: a directive or mutation spelled inside a
// multi-line raw string survives untouched. Only line-leading matches drop
// a line, so occurrences inside quoted literals never clip an otherwise
// meaningful line.
func Cleanup(text string, dropStateMutations bool) string {
	var out []string
	inRaw := false // inside a backtick raw string spanning lines
	blank := 0

	for _, line := range strings.Split(text, "\n") {
		if inRaw {
			out = append(out, line)
			inRaw = rawStateAfter(line, true)
			continue
		}

		trimmed := strings.TrimSpace(line)
		drop := false
		switch {
		case strings.HasPrefix(trimmed, "//prelude:"):
			drop = true
		case dropStateMutations && isStateMutation(trimmed):
			drop = true
		}
		if drop {
			continue
		}

		if trimmed == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}

		out = append(out, line)
		inRaw = rawStateAfter(line, false)
	}
	return strings.Join(out, "\n")
}

func isStateMutation(trimmed string) bool {
	for _, prefix := range stateMutations {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// ReplaceBare replaces occurrences of old that sit outside string literals
// and line comments, with the same raw-string awareness as Cleanup: an
// occurrence spelled inside a quoted or backtick literal survives untouched.
func ReplaceBare(text, old, new string) string {
	var b strings.Builder
	inRaw := false
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(replaceBareLine(line, old, new, &inRaw))
	}
	return b.String()
}

func replaceBareLine(line, old, new string, inRaw *bool) string {
	var b strings.Builder
	var inStr bool
	var quote byte
	for i := 0; i < len(line); {
		ch := line[i]
		if *inRaw {
			if ch == '`' {
				*inRaw = false
			}
			b.WriteByte(ch)
			i++
			continue
		}
		if inStr {
			if ch == '\\' && i+1 < len(line) {
				b.WriteString(line[i : i+2])
				i += 2
				continue
			}
			if ch == quote {
				inStr = false
			}
			b.WriteByte(ch)
			i++
			continue
		}
		switch ch {
		case '"', '\'':
			inStr = true
			quote = ch
		case '`':
			*inRaw = true
		case '/':
			if i+1 < len(line) && line[i+1] == '/' {
				b.WriteString(line[i:])
				return b.String()
			}
		}
		if strings.HasPrefix(line[i:], old) {
			b.WriteString(new)
			i += len(old)
			continue
		}
		b.WriteByte(ch)
		i++
	}
	return b.String()
}

// rawStateAfter reports whether a multi-line raw string is still open after
// the line, given whether one was open before it. Quoted strings and line
// comments outside raw strings are skipped so their backticks don't count.
func rawStateAfter(line string, inRaw bool) bool {
	var inStr bool
	var quote byte
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if inRaw {
			if ch == '`' {
				inRaw = false
			}
			continue
		}
		if inStr {
			if ch == '\\' {
				i++
			} else if ch == quote {
				inStr = false
			}
			continue
		}
		switch ch {
		case '"', '\'':
			inStr = true
			quote = ch
		case '`':
			inRaw = true
		case '/':
			if i+1 < len(line) && line[i+1] == '/' {
				return false
			}
		}
	}
	return inRaw
}
