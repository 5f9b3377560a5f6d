package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id, keyword string, age time.Duration, matched int) *RunRecord {
	return &RunRecord{
		ID:         id,
		Timestamp:  time.Now().Add(-age),
		Input:      "burp.log",
		URLKeyword: keyword,
		Mode:       "context",
		Matched:    matched,
	}
}

func TestStore_SaveGet(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	rec := record("r1", "api.example.com", 0, 3)
	rec.Tags = []string{"nightly"}
	require.NoError(t, s.Save(rec))

	rec.Tags[0] = "mutated"
	got, err := s.Get("r1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Matched)
	assert.Equal(t, []string{"nightly"}, got.Tags, "store keeps its own copy")

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, s.Save(&RunRecord{}))
}

func TestStore_Persists(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(record("r1", "a", 0, 1)))

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	_, err = reopened.Get("r1")
	assert.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary files are left behind")
	assert.Equal(t, "index.json", entries[0].Name())
}

func TestStore_CorruptIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.json"), []byte("{not json"), 0o644))
	_, err := NewStore(dir)
	assert.Error(t, err)
}

func TestStore_List(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Save(record("old", "dipp.sf-express.com", 48*time.Hour, 1)))
	require.NoError(t, s.Save(record("mid", "api.example.com", time.Hour, 2)))
	require.NoError(t, s.Save(record("new", "DIPP.sf-express.com", time.Minute, 3)))

	all := s.List(Filter{})
	require.Len(t, all, 3)
	assert.Equal(t, "new", all[0].ID, "newest first")
	assert.Equal(t, "old", all[2].ID)

	dipp := s.List(Filter{Keyword: "dipp"})
	assert.Len(t, dipp, 2)

	recent := s.List(Filter{Since: time.Now().Add(-2 * time.Hour)})
	assert.Len(t, recent, 2)

	assert.Len(t, s.List(Filter{Limit: 1}), 1)

	latest, err := s.Latest()
	require.NoError(t, err)
	assert.Equal(t, "new", latest.ID)
}

func TestStore_DeletePrune(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Save(record("a", "", 72*time.Hour, 1)))
	require.NoError(t, s.Save(record("b", "", 71*time.Hour, 1)))
	require.NoError(t, s.Save(record("c", "", time.Minute, 1)))

	require.NoError(t, s.Delete("c"))
	assert.ErrorIs(t, s.Delete("c"), ErrNotFound)

	n, err := s.Prune(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Zero(t, s.Stats().TotalRuns)

	_, err = s.Latest()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Stats(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Save(record("a", "", time.Hour, 2)))
	require.NoError(t, s.Save(record("b", "", time.Minute, 5)))

	st := s.Stats()
	assert.Equal(t, 2, st.TotalRuns)
	assert.Equal(t, 7, st.TotalMatched)
	assert.True(t, st.OldestRun.Before(st.NewestRun))
	assert.Positive(t, st.StorageSizeBytes)
}
