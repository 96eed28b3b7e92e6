package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "history.json"), 10)
}

func TestStoreRecordOrdering(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Load())

	require.NoError(t, s.Record("alpha"))
	require.NoError(t, s.Record("beta"))
	require.NoError(t, s.Record("gamma"))

	assert.Equal(t, []string{"gamma", "beta", "alpha"}, s.Entries())
}

func TestStoreCap(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Load())

	for i := 1; i <= 11; i++ {
		require.NoError(t, s.Record(fmt.Sprintf("query %d", i)))
	}

	entries := s.Entries()
	require.Len(t, entries, 10)
	assert.Equal(t, "query 11", entries[0])
	assert.Equal(t, "query 2", entries[9])
	assert.NotContains(t, entries, "query 1")
}

func TestStoreDuplicateMovesToFront(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Load())

	require.NoError(t, s.Record("alpha"))
	require.NoError(t, s.Record("beta"))
	require.NoError(t, s.Record("alpha"))

	assert.Equal(t, []string{"alpha", "beta"}, s.Entries())

	// Recording the most recent entry again does not grow the list.
	require.NoError(t, s.Record("alpha"))
	assert.Equal(t, []string{"alpha", "beta"}, s.Entries())
}

func TestStoreDedupeIsCaseSensitive(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Load())

	require.NoError(t, s.Record("Go"))
	require.NoError(t, s.Record("go"))

	assert.Equal(t, []string{"go", "Go"}, s.Entries())
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	s := NewStore(path, 10)
	require.NoError(t, s.Load())
	require.NoError(t, s.Record("first"))
	require.NoError(t, s.Record("second"))

	// The persisted form is a plain JSON array of strings.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw []string
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, []string{"second", "first"}, raw)

	// Reconstructing from disk yields the same ordered list.
	reloaded := NewStore(path, 10)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, s.Entries(), reloaded.Entries())
}

func TestStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	s := NewStore(path, 10)
	require.NoError(t, s.Load())
	require.NoError(t, s.Record("doomed"))
	require.NoError(t, s.Clear())

	assert.Equal(t, 0, s.Len())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing again is harmless.
	assert.NoError(t, s.Clear())
}

func TestStoreCorruptedFileBackedUp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	s := NewStore(path, 10)
	require.NoError(t, s.Load())
	assert.Equal(t, 0, s.Len())

	_, err := os.Stat(path + ".backup")
	assert.NoError(t, err)
}
