// Package artifact owns the on-disk lifecycle of a generated artifact:
// transactional write, compile validation, and rollback. The canonical path
// only ever holds a valid previous artifact, no artifact, or a freshly
// validated one, never text that failed to compile.
package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Compiler validates a freshly written artifact.
type Compiler interface {
	Compile(path string) error
}

// RegenError reports a validated write that failed compilation. The
// attempted text is preserved at Backup for inspection.
type RegenError struct {
	Artifact string
	Backup   string
	Err      error
}

func (e *RegenError) Error() string {
	return fmt.Sprintf("artifact %s failed to compile (attempt kept at %s): %v", e.Artifact, e.Backup, e.Err)
}

func (e *RegenError) Unwrap() error {
	return e.Err
}

// CompiledPath is the compiled sibling of an artifact.
func CompiledPath(path string) string {
	return path + "c"
}

// BackupPath is the sibling holding the last failed attempt.
func BackupPath(path string) string {
	return path + ".bk"
}

// Write replaces the artifact at path with text and validates it through c.
//
// The write is all-or-nothing: the text lands in a temporary file in the
// target directory and is renamed into place, so a crash mid-write never
// leaves a half-written artifact at the final path. Any previous artifact
// and compiled sibling are removed first (the sibling best-effort).
//
// On compile failure the just-written artifact is copied to the .bk sibling
// (overwriting any prior backup), removed from the canonical path along with
// its compiled sibling, and a *RegenError is returned.
func Write(path, text string, c Compiler) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifact: creating %s: %w", dir, err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("artifact: removing old %s: %w", path, err)
	}
	// Compiled sibling removal is best-effort; its absence is not an error.
	_ = os.Remove(CompiledPath(path))

	if err := atomicWrite(path, text); err != nil {
		return err
	}

	if err := c.Compile(path); err != nil {
		backup := BackupPath(path)
		if cpErr := copyFile(path, backup); cpErr != nil {
			backup = ""
		}
		_ = os.Remove(path)
		_ = os.Remove(CompiledPath(path))
		return &RegenError{Artifact: path, Backup: backup, Err: err}
	}
	return nil
}

func atomicWrite(path, text string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("artifact: creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("artifact: writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("artifact: closing %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("artifact: chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("artifact: renaming into %s: %w", path, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
