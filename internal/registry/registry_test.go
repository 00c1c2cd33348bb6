package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestTree builds a lib root and a bundle root with two bundles.
func newTestTree(t *testing.T) (lib, bundleRoot string) {
	t.Helper()
	base := t.TempDir()
	lib = filepath.Join(base, "lib")
	bundleRoot = filepath.Join(base, "bundles")

	require.NoError(t, os.MkdirAll(filepath.Join(lib, "core"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(bundleRoot, "tools"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(bundleRoot, "net"), 0o755))

	write := func(path, src string) {
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	write(filepath.Join(lib, "boot.risor"), "func boot() {}\n")
	write(filepath.Join(lib, "core", "util.risor"), "func util() {}\n")
	write(filepath.Join(bundleRoot, "tools", "greet.risor"), "func greet(n) {}\n")
	write(filepath.Join(bundleRoot, "tools", "exports.risor"), "autoload(\"greet\", \"greet.risor\")\n")
	write(filepath.Join(bundleRoot, "net", "fetch.risor"), "func fetch(u) {}\n")
	return lib, bundleRoot
}

func TestBundles_EnumeratedSorted(t *testing.T) {
	lib, bundleRoot := newTestTree(t)
	r := New(Config{LibRoot: lib, BundleRoots: []string{bundleRoot}, Disabled: []string{"net"}})

	bundles, err := r.Bundles()
	require.NoError(t, err)
	require.Len(t, bundles, 2)
	assert.Equal(t, "net", bundles[0].Name)
	assert.False(t, bundles[0].Enabled)
	assert.Equal(t, "tools", bundles[1].Name)
	assert.True(t, bundles[1].Enabled)
}

func TestBundles_MissingRootIsEmpty(t *testing.T) {
	r := New(Config{BundleRoots: []string{filepath.Join(t.TempDir(), "nope")}})
	bundles, err := r.Bundles()
	require.NoError(t, err)
	assert.Empty(t, bundles)
}

func TestBundleFor(t *testing.T) {
	lib, bundleRoot := newTestTree(t)
	r := New(Config{LibRoot: lib, BundleRoots: []string{bundleRoot}})

	b := r.BundleFor(filepath.Join(bundleRoot, "tools", "greet.risor"))
	require.NotNil(t, b)
	assert.Equal(t, "tools", b.Name)

	assert.Nil(t, r.BundleFor(filepath.Join(lib, "boot.risor")))
	assert.Nil(t, r.BundleFor("/somewhere/else.risor"))
}

func TestSearchRoots_NarrowVersusWide(t *testing.T) {
	lib, bundleRoot := newTestTree(t)
	extra := t.TempDir()
	r := New(Config{
		LibRoot:     lib,
		BundleRoots: []string{bundleRoot},
		ExtraRoots:  []string{extra},
		Disabled:    []string{"net"},
	})

	narrow := r.SearchRoots(false)
	assert.Equal(t, []string{lib, filepath.Join(bundleRoot, "tools")}, narrow)

	wide := r.SearchRoots(true)
	assert.Equal(t, []string{
		lib,
		filepath.Join(bundleRoot, "tools"),
		filepath.Join(bundleRoot, "net"),
		extra,
	}, wide)
}

func TestLibScripts_SortedRecursive(t *testing.T) {
	lib, bundleRoot := newTestTree(t)
	r := New(Config{LibRoot: lib, BundleRoots: []string{bundleRoot}})

	scripts, err := r.LibScripts()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(lib, "boot.risor"),
		filepath.Join(lib, "core", "util.risor"),
	}, scripts)
}

func TestBundleScripts_ExcludesExports(t *testing.T) {
	lib, bundleRoot := newTestTree(t)
	r := New(Config{LibRoot: lib, BundleRoots: []string{bundleRoot}})

	bundles, err := r.Bundles()
	require.NoError(t, err)
	var tools Bundle
	for _, b := range bundles {
		if b.Name == "tools" {
			tools = b
		}
	}

	scripts, err := r.BundleScripts(tools)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(bundleRoot, "tools", "greet.risor")}, scripts)
}

func TestResolve(t *testing.T) {
	lib, bundleRoot := newTestTree(t)
	r := New(Config{LibRoot: lib, BundleRoots: []string{bundleRoot}, Disabled: []string{"net"}})

	// Extension supplied.
	path, ok := r.Resolve("greet.risor", false)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(bundleRoot, "tools", "greet.risor"), path)

	// Extension elided.
	path, ok = r.Resolve("boot", false)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(lib, "boot.risor"), path)

	// Disabled bundle content is only visible to the wide scope.
	_, ok = r.Resolve("fetch.risor", false)
	assert.False(t, ok)
	path, ok = r.Resolve("fetch.risor", true)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(bundleRoot, "net", "fetch.risor"), path)

	// Unresolvable never errors.
	_, ok = r.Resolve("ghost.risor", true)
	assert.False(t, ok)
}

func TestIsEnabled_UnknownNamesCountEnabled(t *testing.T) {
	r := New(Config{Disabled: []string{"net"}})
	assert.False(t, r.IsEnabled("net"))
	assert.True(t, r.IsEnabled("tools"))
	assert.True(t, r.IsEnabled(""))
}

func TestDisabled_Sorted(t *testing.T) {
	r := New(Config{Disabled: []string{"zeta", "alpha"}})
	assert.Equal(t, []string{"alpha", "zeta"}, r.Disabled())
}
