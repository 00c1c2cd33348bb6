package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotEmit_Deterministic(t *testing.T) {
	a := Snapshot{
		LoadPath: []string{"/lib", "/bundles/tools"},
		Handlers: map[string]string{".risorc": "compiled", ".risor": "source"},
		Disabled: []string{"zeta", "alpha"},
	}
	b := Snapshot{
		LoadPath: []string{"/lib", "/bundles/tools"},
		Handlers: map[string]string{".risor": "source", ".risorc": "compiled"},
		Disabled: []string{"alpha", "zeta"},
	}
	assert.Equal(t, a.Emit(), b.Emit())
}

func TestSnapshotEmit_Shape(t *testing.T) {
	out := Snapshot{
		LoadPath: []string{"/lib"},
		Handlers: map[string]string{".risor": "source"},
		Disabled: []string{"tools"},
	}.Emit()

	assert.Contains(t, out, "prelude_state := {")
	assert.Contains(t, out, `"disabled": ["tools"]`)
	assert.Contains(t, out, `"handlers": {".risor": "source"}`)
	assert.Contains(t, out, `"load_path": ["/lib"]`)
	assert.Contains(t, out, "restore_state(prelude_state)")
}

func TestSnapshotEmit_LoadPathOrderPreserved(t *testing.T) {
	// Load path precedence is meaningful; it must not be sorted.
	out := Snapshot{LoadPath: []string{"/z", "/a"}}.Emit()
	assert.Contains(t, out, `"load_path": ["/z", "/a"]`)
}

func TestSnapshotEmit_EmptyValues(t *testing.T) {
	out := Snapshot{}.Emit()
	assert.Contains(t, out, `"disabled": []`)
	assert.Contains(t, out, `"handlers": {}`)
	assert.Contains(t, out, `"load_path": []`)
}
