package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompiler records the path it saw and fails on demand. On success it
// writes the compiled sibling like the real loader does.
type fakeCompiler struct {
	fail     bool
	compiled []string
}

func (c *fakeCompiler) Compile(path string) error {
	c.compiled = append(c.compiled, path)
	if c.fail {
		return fmt.Errorf("syntax error near line 3")
	}
	return os.WriteFile(CompiledPath(path), []byte("stamp"), 0o644)
}

func TestWrite_Success(t *testing.T) {
	target := filepath.Join(t.TempDir(), "core.autoload.risor")
	c := &fakeCompiler{}

	require.NoError(t, Write(target, "autoload(\"x\", \"x.risor\")\n", c))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "autoload(\"x\", \"x.risor\")\n", string(data))
	assert.Equal(t, []string{target}, c.compiled)
	assert.FileExists(t, CompiledPath(target))
}

func TestWrite_CreatesTargetDirectory(t *testing.T) {
	target := filepath.Join(t.TempDir(), "state", "deep", "core.autoload.risor")
	require.NoError(t, Write(target, "x := 1\n", &fakeCompiler{}))
	assert.FileExists(t, target)
}

func TestWrite_ReplacesExistingArtifactAndSibling(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "core.autoload.risor")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(CompiledPath(target), []byte("old stamp"), 0o644))

	require.NoError(t, Write(target, "new\n", &fakeCompiler{}))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))
}

func TestWrite_CompileFailureBacksUpAndRemoves(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "core.autoload.risor")

	err := Write(target, "broken {\n", &fakeCompiler{fail: true})
	require.Error(t, err)

	var regenErr *RegenError
	require.ErrorAs(t, err, &regenErr)
	assert.Equal(t, target, regenErr.Artifact)
	assert.Equal(t, BackupPath(target), regenErr.Backup)
	assert.ErrorContains(t, regenErr.Err, "syntax error")

	// The canonical path never holds text that failed to compile.
	assert.NoFileExists(t, target)
	assert.NoFileExists(t, CompiledPath(target))

	// The attempt is preserved for inspection.
	data, err := os.ReadFile(BackupPath(target))
	require.NoError(t, err)
	assert.Equal(t, "broken {\n", string(data))
}

func TestWrite_BackupOverwritesPriorBackup(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "core.autoload.risor")
	require.NoError(t, os.WriteFile(BackupPath(target), []byte("ancient attempt"), 0o644))

	err := Write(target, "second attempt\n", &fakeCompiler{fail: true})
	require.Error(t, err)

	data, err := os.ReadFile(BackupPath(target))
	require.NoError(t, err)
	assert.Equal(t, "second attempt\n", string(data))
}

func TestWrite_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "core.autoload.risor")
	require.NoError(t, Write(target, "x := 1\n", &fakeCompiler{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}

func TestRegenError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &RegenError{Artifact: "/a", Backup: "/a.bk", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "/a.bk")
}
