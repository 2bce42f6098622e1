package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadPathBucketsByYearMonth(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	path := UploadPath("abc_unit1.pdf", now)
	assert.Equal(t, filepath.Join("materials", "2026", "03", "abc_unit1.pdf"), path)
}

func TestSaveStreamAndOpen(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	rel := filepath.Join("materials", "2026", "03", "unit1.pdf")
	saved, written, err := store.SaveStream(rel, bytes.NewReader([]byte("hello")))
	require.NoError(t, err)
	assert.Equal(t, rel, saved)
	assert.Equal(t, int64(5), written)

	file, err := store.Open(rel)
	require.NoError(t, err)
	defer file.Close()

	info, err := file.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
}

func TestDeleteIsIdempotent(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.SaveStream("a.txt", bytes.NewReader([]byte("x")))
	require.NoError(t, err)

	require.NoError(t, store.Delete("a.txt"))
	require.NoError(t, store.Delete("a.txt"))

	_, err = os.Stat(store.Path("a.txt"))
	assert.True(t, os.IsNotExist(err))
}
