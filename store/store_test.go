package store_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheenubhat/network-automation-scripts/store"
)

func TestDirStoreSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	s, err := store.NewDirStore(dir)
	require.NoError(t, err)

	at := time.Date(2026, 8, 28, 14, 30, 5, 0, time.UTC)
	path, err := s.Save("R1", at, []byte("interface Gi0/1\n shutdown\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "R1-20260828-143005.config"), path)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "interface Gi0/1\n shutdown\n", string(contents))
}

func TestDirStoreDistinctTimestampsNeverCollide(t *testing.T) {
	s, err := store.NewDirStore(t.TempDir())
	require.NoError(t, err)

	first, err := s.Save("R1", time.Date(2026, 8, 28, 14, 30, 5, 0, time.UTC), []byte("a"))
	require.NoError(t, err)
	second, err := s.Save("R1", time.Date(2026, 8, 28, 14, 30, 6, 0, time.UTC), []byte("b"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	contents, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "a", string(contents))
}

func TestNewDirStoreCreatesDirectoryIdempotently(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	_, err := store.NewDirStore(dir)
	require.NoError(t, err)
	_, err = store.NewDirStore(dir)
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestArtifactNameDeterministic(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "R1-20260102-030405.config", store.ArtifactName("R1", at))
	assert.Equal(t, store.ArtifactName("R1", at), store.ArtifactName("R1", at))
}

func TestTranscriptPath(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, filepath.Join("logs", "R1-20260102-030405_session.log"),
		store.TranscriptPath("logs", "R1", at))
}
