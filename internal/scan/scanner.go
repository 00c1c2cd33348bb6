// Package scan extracts cookie-marked declarations from Risor source trees.
//
// A cookie is a line comment of the form
//
//	//prelude:autoload
//
// immediately preceding a top-level declaration. Text after the directive on
// the same line, if any, is an alternate form: a verbatim fallback emitted for
// the declaration when its bundle is disabled.
package scan

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Cookie is the marker convention that flags the following form for
// extraction.
const Cookie = "//prelude:autoload"

var (
	funcRe  = regexp.MustCompile(`^func\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	bindRe  = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*:?=\s*func\s*\(`)
	aliasRe = regexp.MustCompile(`^alias\(\s*"([^"]+)"\s*,\s*"([^"]+)"\s*\)`)
)

// FileInfo tells the scanner how to attribute one candidate file.
type FileInfo struct {
	Path     string // absolute path on disk
	Symbolic string // symbolic load path recorded in generated declarations
	Bundle   string // owning bundle; empty for first-party files
}

// Files walks the candidate files in listing order and extracts every
// cookie-marked form. Listing order is preserved in Result.Forms since it
// decides stub and alias precedence downstream. Unreadable files are counted
// as ignored; per-file read errors do not abort the pass.
func Files(files []FileInfo) *Result {
	res := &Result{}
	for _, fi := range files {
		src, err := os.ReadFile(fi.Path)
		if err != nil || !strings.Contains(string(src), Cookie) {
			res.Ignored++
			continue
		}
		res.Scanned++
		forms := scanSource(string(src), fi)
		if len(forms) > 0 {
			res.Contributed++
			res.Forms = append(res.Forms, forms...)
		}
	}
	return res
}

// Source scans a single in-memory source, attributed per fi. Used by Files
// and directly by tests.
func Source(src string, fi FileInfo) []Form {
	return scanSource(src, fi)
}

func scanSource(src string, fi FileInfo) []Form {
	var forms []Form
	lines := strings.Split(src, "\n")
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, Cookie) {
			continue
		}
		alt := strings.TrimSpace(strings.TrimPrefix(trimmed, Cookie))

		// Find the next non-blank, non-comment line: the declaration head.
		j := i + 1
		for j < len(lines) {
			t := strings.TrimSpace(lines[j])
			if t != "" && !strings.HasPrefix(t, "//") {
				break
			}
			j++
		}
		if j >= len(lines) {
			break
		}

		form, consumed := parseDecl(lines, j)
		form.Alt = alt
		form.File = fi.Path
		form.Symbolic = fi.Symbolic
		form.Bundle = fi.Bundle
		forms = append(forms, form)
		i = j + consumed - 1
	}
	return forms
}

// parseDecl classifies the declaration starting at lines[start] and returns
// the parsed form plus the number of lines it spans.
func parseDecl(lines []string, start int) (Form, int) {
	head := strings.TrimSpace(lines[start])

	if m := aliasRe.FindStringSubmatch(head); m != nil {
		return Form{Kind: KindAlias, Name: m[1], Target: m[2], Raw: head}, 1
	}

	if m := funcRe.FindStringSubmatch(head); m != nil {
		params, span, err := parseParams(lines, start, strings.Index(lines[start], "("))
		f := Form{Kind: KindFunc, Name: m[1], Params: params}
		if err != nil {
			f.Malformed = true
		}
		f.Raw = rawDecl(lines, start, span)
		return f, span
	}

	if m := bindRe.FindStringSubmatch(head); m != nil {
		params, span, err := parseParams(lines, start, strings.Index(lines[start], "("))
		f := Form{Kind: KindBind, Name: m[1], Params: params}
		if err != nil {
			f.Malformed = true
		}
		f.Raw = rawDecl(lines, start, span)
		return f, span
	}

	raw, span := rawForm(lines, start)
	return Form{Kind: KindOpaque, Raw: raw}, span
}

// parseParams reads a parameter list beginning at the opening paren on
// lines[start]. The list may span lines; scanning gives up after eight to
// keep the walker strictly line-oriented.
func parseParams(lines []string, start, open int) ([]string, int, error) {
	if open < 0 {
		return nil, 1, fmt.Errorf("no parameter list")
	}
	var sb strings.Builder
	span := 1
	rest := lines[start][open+1:]
	for {
		if idx := strings.IndexByte(rest, ')'); idx >= 0 {
			sb.WriteString(rest[:idx])
			break
		}
		sb.WriteString(rest)
		sb.WriteByte(',')
		if start+span >= len(lines) || span >= 8 {
			return nil, span, fmt.Errorf("unterminated parameter list")
		}
		rest = lines[start+span]
		span++
	}

	raw := strings.TrimSpace(sb.String())
	if raw == "" {
		return []string{}, declSpan(lines, start), nil
	}
	var params []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		// Strip default values: "timeout=30" declares "timeout".
		if eq := strings.IndexByte(p, '='); eq >= 0 {
			p = strings.TrimSpace(p[:eq])
		}
		if !isIdent(p) {
			return nil, declSpan(lines, start), fmt.Errorf("bad parameter %q", p)
		}
		params = append(params, p)
	}
	return params, declSpan(lines, start), nil
}

// declSpan counts the lines a braced declaration occupies by balancing
// braces outside string literals, starting at lines[start].
func declSpan(lines []string, start int) int {
	depth := 0
	opened := false
	for i := start; i < len(lines); i++ {
		o, c := braceCount(lines[i])
		depth += o - c
		if o > 0 {
			opened = true
		}
		if opened && depth <= 0 {
			return i - start + 1
		}
		if !opened && i > start {
			// Declaration head without a body on the following line.
			return i - start
		}
	}
	return len(lines) - start
}

// rawDecl returns the source text of a declaration spanning span lines.
func rawDecl(lines []string, start, span int) string {
	end := start + span
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}

// rawForm captures an opaque member: a single line, or a braced block when
// the line opens one.
func rawForm(lines []string, start int) (string, int) {
	if o, c := braceCount(lines[start]); o > c {
		span := declSpan(lines, start)
		return rawDecl(lines, start, span), span
	}
	return strings.TrimSpace(lines[start]), 1
}

// braceCount counts braces on a line, skipping string literals and trailing
// line comments.
func braceCount(line string) (open, closed int) {
	var inStr bool
	var quote byte
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if inStr {
			if ch == '\\' {
				i++
			} else if ch == quote {
				inStr = false
			}
			continue
		}
		switch ch {
		case '"', '\'', '`':
			inStr = true
			quote = ch
		case '/':
			if i+1 < len(line) && line[i+1] == '/' {
				return open, closed
			}
		case '{':
			open++
		case '}':
			closed++
		}
	}
	return open, closed
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		case i == 0 && r == '*':
			// Variadic marker on the final parameter.
			if len(s) == 1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
