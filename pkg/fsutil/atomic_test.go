package fsutil_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/grantoftegaard/garden/pkg/fsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWrite_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "current_layout.png")
	data := []byte("png bytes")

	require.NoError(t, fsutil.AtomicWrite(path, data, 0644))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, content)
}

func TestAtomicWrite_OverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "current_layout.png")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	require.NoError(t, fsutil.AtomicWrite(path, []byte("new"), 0644))

	content, _ := os.ReadFile(path)
	assert.Equal(t, "new", string(content))
}

func TestAtomicWrite_NoTmpLeftOnSuccess(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, fsutil.AtomicWrite(filepath.Join(dir, "a.json"), []byte("data"), 0644))

	entries, _ := os.ReadDir(dir)
	assert.Len(t, entries, 1, "only the target file should exist")
}

func TestAtomicWrite_MissingDir(t *testing.T) {
	err := fsutil.AtomicWrite(filepath.Join(t.TempDir(), "nope", "a.json"), []byte("x"), 0644)
	assert.Error(t, err)
}

func TestWriteNew_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "2024-06-01 - 10:00:00.json")

	require.NoError(t, fsutil.WriteNew(path, []byte(`{"mapping":[]}`), 0644))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"mapping":[]}`, string(content))

	entries, _ := os.ReadDir(dir)
	assert.Len(t, entries, 1, "temp file must be removed")
}

func TestWriteNew_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "2024-06-01 - 10:00:00.json")
	require.NoError(t, os.WriteFile(path, []byte("first"), 0644))

	err := fsutil.WriteNew(path, []byte("second"), 0644)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrExist))

	content, _ := os.ReadFile(path)
	assert.Equal(t, "first", string(content))
}

func TestLeftoverTemps(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, fsutil.TempPrefix+"123"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.json"), nil, 0644))

	temps, err := fsutil.LeftoverTemps(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, fsutil.TempPrefix+"123")}, temps)
}

func TestFsyncDir(t *testing.T) {
	assert.NoError(t, fsutil.FsyncDir(t.TempDir()))
	assert.Error(t, fsutil.FsyncDir(filepath.Join(t.TempDir(), "missing")))
}
