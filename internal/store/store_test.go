package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFileStore(dir, zap.NewNop())
	require.NoError(t, err)
	return fs, dir
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()
	fs, _ := newTestStore(t)

	in := map[string]int{"a": 1, "b": 2}
	require.NoError(t, fs.Save("counts", in))

	out := make(map[string]int)
	require.NoError(t, fs.Load("counts", &out))
	assert.Equal(t, in, out)
}

func TestFileStoreMissingDocumentLeavesValueUntouched(t *testing.T) {
	t.Parallel()
	fs, _ := newTestStore(t)

	out := map[string]int{"seed": 7}
	require.NoError(t, fs.Load("never_saved", &out))
	assert.Equal(t, map[string]int{"seed": 7}, out)
}

func TestFileStoreSaveLeavesNoTempFile(t *testing.T) {
	t.Parallel()
	fs, dir := newTestStore(t)

	require.NoError(t, fs.Save("doc", map[string]string{"k": "v"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "doc.json", entries[0].Name())
}

func TestFileStoreQuarantinesCorruptDocument(t *testing.T) {
	t.Parallel()
	fs, dir := newTestStore(t)

	path := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	// Load succeeds with an empty value and the corrupt file is moved aside.
	out := make(map[string]int)
	require.NoError(t, fs.Load("broken", &out))
	assert.Empty(t, out)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	backups, err := filepath.Glob(path + ".bak.*")
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	// The document name stays usable afterwards.
	require.NoError(t, fs.Save("broken", map[string]int{"x": 1}))
	out = make(map[string]int)
	require.NoError(t, fs.Load("broken", &out))
	assert.Equal(t, map[string]int{"x": 1}, out)
}
