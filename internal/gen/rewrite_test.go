package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mapResolver(m map[string]string) ResolverFunc {
	return func(symbolic string, wide bool) (string, bool) {
		abs, ok := m[symbolic]
		return abs, ok
	}
}

func TestRewritePaths_ResolvableReplacedOnce(t *testing.T) {
	text := `autoload("greet", "greet.risor")` + "\n"
	out := RewritePaths(text, mapResolver(map[string]string{
		"greet.risor": "/opt/bundles/tools/greet.risor",
	}), false)

	assert.Equal(t, `autoload("greet", "/opt/bundles/tools/greet.risor")`+"\n", out)
}

func TestRewritePaths_UnresolvableLeftByteIdentical(t *testing.T) {
	text := `autoload("ghost", "missing/ghost.risor")` + "\n"
	out := RewritePaths(text, mapResolver(nil), false)
	assert.Equal(t, text, out)
}

func TestRewritePaths_CacheConsultedPerUnresolvedString(t *testing.T) {
	calls := 0
	r := ResolverFunc(func(symbolic string, wide bool) (string, bool) {
		calls++
		return "/resolved/" + symbolic, true
	})
	text := `autoload("a", "same.risor")` + "\n" + `autoload("b", "same.risor")` + "\n"
	out := RewritePaths(text, r, false)

	assert.Equal(t, 1, calls)
	assert.Contains(t, out, `autoload("a", "/resolved/same.risor")`)
	assert.Contains(t, out, `autoload("b", "/resolved/same.risor")`)
}

func TestRewritePaths_WideFlagForwarded(t *testing.T) {
	var gotWide bool
	r := ResolverFunc(func(symbolic string, wide bool) (string, bool) {
		gotWide = wide
		return "", false
	})
	RewritePaths(`autoload("x", "x.risor")`, r, true)
	assert.True(t, gotWide)
}

func TestRewritePaths_NonAutoloadTextUntouched(t *testing.T) {
	text := "func greet(name) {\n    print(\"autoload is a word\")\n}\n"
	out := RewritePaths(text, mapResolver(map[string]string{"x": "/x"}), false)
	assert.Equal(t, text, out)
}

func TestAbbreviatePath_RoundTrip(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	abbr := AbbreviatePath("/home/tester/bundles/tools/greet.risor")
	assert.Equal(t, "~/bundles/tools/greet.risor", abbr)
	assert.Equal(t, "/home/tester/bundles/tools/greet.risor", ExpandPath(abbr))

	// Paths outside the home directory pass through unchanged.
	assert.Equal(t, "/opt/greet.risor", AbbreviatePath("/opt/greet.risor"))
}
