package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStore_MissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")

	fs, err := OpenFileStore(path, "octo/src", "octo/dst")
	require.NoError(t, err)
	require.Equal(t, 0, fs.Len())

	entry, err := fs.Get(1)
	require.NoError(t, err)
	require.Nil(t, entry)

	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileStore_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")

	fs, err := OpenFileStore(path, "octo/src", "octo/dst")
	require.NoError(t, err)
	require.NoError(t, fs.Set(1, Entry{Destination: 10, Done: true, RunID: "run-1"}))
	require.NoError(t, fs.Set(2, Entry{Destination: 11, Closed: true, CommentsCopied: 3, LastCommentID: 300, RunID: "run-1"}))

	reopened, err := OpenFileStore(path, "octo/src", "octo/dst")
	require.NoError(t, err)
	require.Equal(t, 2, reopened.Len())

	entry, err := reopened.Get(2)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, 11, entry.Destination)
	require.True(t, entry.Closed)
	require.Equal(t, 3, entry.CommentsCopied)
	require.Equal(t, int64(300), entry.LastCommentID)
	require.False(t, entry.Done)
	require.Equal(t, "run-1", entry.RunID)
	require.False(t, entry.UpdatedAt.IsZero())
}

func TestFileStore_SetOverwritesEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")

	fs, err := OpenFileStore(path, "octo/src", "octo/dst")
	require.NoError(t, err)
	require.NoError(t, fs.Set(5, Entry{Destination: 50}))
	require.NoError(t, fs.Set(5, Entry{Destination: 50, Done: true}))

	entry, err := fs.Get(5)
	require.NoError(t, err)
	require.True(t, entry.Done)
	require.Equal(t, 1, fs.Len())
}

func TestFileStore_RejectsOtherRepositories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")

	fs, err := OpenFileStore(path, "octo/src", "octo/dst")
	require.NoError(t, err)
	require.NoError(t, fs.Set(1, Entry{Destination: 1}))

	_, err = OpenFileStore(path, "octo/src", "octo/elsewhere")
	require.ErrorContains(t, err, "octo/elsewhere")
}

func TestFileStore_RejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := OpenFileStore(path, "octo/src", "octo/dst")
	require.Error(t, err)
}

func TestFileStore_LeavesNoTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoint.json")

	fs, err := OpenFileStore(path, "octo/src", "octo/dst")
	require.NoError(t, err)
	require.NoError(t, fs.Set(1, Entry{Destination: 1}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "checkpoint.json", entries[0].Name())
}

func TestNopStore(t *testing.T) {
	var s Store = NopStore{}
	require.NoError(t, s.Set(1, Entry{Destination: 1}))

	entry, err := s.Get(1)
	require.NoError(t, err)
	require.Nil(t, entry)
}
