package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "builds.db"))
	require.NoError(t, err)
	require.NoError(t, l.Migrate())
	t.Cleanup(func() { l.Close() })
	return l
}

func TestMigrate_Idempotent(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.Migrate())
}

func TestRecordAndHistory(t *testing.T) {
	l := newTestLedger(t)

	id, err := l.Record(&Build{
		Artifact: "core", InputHash: "abc", Scanned: 3, Ignored: 1, Contributed: 2,
		Status: StatusOK, DurationMS: 42,
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = l.Record(&Build{Artifact: "core", Status: StatusFailed, Error: "syntax error"})
	require.NoError(t, err)

	builds, err := l.History("core", 10)
	require.NoError(t, err)
	require.Len(t, builds, 2)

	// Newest first.
	assert.Equal(t, StatusFailed, builds[0].Status)
	assert.Equal(t, "syntax error", builds[0].Error)
	assert.Equal(t, StatusOK, builds[1].Status)
	assert.Equal(t, 3, builds[1].Scanned)
	assert.Equal(t, int64(42), builds[1].DurationMS)
	assert.WithinDuration(t, time.Now(), builds[1].BuiltAt, time.Minute)
}

func TestHistory_RespectsLimit(t *testing.T) {
	l := newTestLedger(t)
	for i := 0; i < 5; i++ {
		_, err := l.Record(&Build{Artifact: "core", Status: StatusOK})
		require.NoError(t, err)
	}
	builds, err := l.History("core", 3)
	require.NoError(t, err)
	assert.Len(t, builds, 3)
}

func TestLatest_OneRowPerArtifact(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.Record(&Build{Artifact: "core", Status: StatusOK})
	require.NoError(t, err)
	_, err = l.Record(&Build{Artifact: "core", Status: StatusFailed, Error: "boom"})
	require.NoError(t, err)
	_, err = l.Record(&Build{Artifact: "bundles", Status: StatusOK})
	require.NoError(t, err)

	builds, err := l.Latest()
	require.NoError(t, err)
	require.Len(t, builds, 2)
	assert.Equal(t, "bundles", builds[0].Artifact)
	assert.Equal(t, StatusOK, builds[0].Status)
	assert.Equal(t, "core", builds[1].Artifact)
	assert.Equal(t, StatusFailed, builds[1].Status)
}

func TestHistory_EmptyForUnknownArtifact(t *testing.T) {
	l := newTestLedger(t)
	builds, err := l.History("ghost", 10)
	require.NoError(t, err)
	assert.Empty(t, builds)
}
