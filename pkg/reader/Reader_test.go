package reader_test

import "os"
import "path/filepath"
import "testing"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

import "github.com/raftkit/snapshot/pkg/reader"


func writeSnapshotFiles(t *testing.T, dir string, files map[string]string) {
	for name, content := range files {
		writeErr := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644)
		require.NoError(t, writeErr)
	}
}

func TestChunkReaderYieldsFilesInAscendingNameOrder(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotFiles(t, dir, map[string]string{
		"CHUNK-02": "second",
		"CHUNK-00": "zeroth",
		"CHUNK-01": "first",
	})

	r, openErr := reader.NewChunkReader("snapshot-x", dir, 12345)
	require.NoError(t, openErr)
	defer r.Close()

	var seen []string
	for r.HasNext() {
		c, readErr := r.Next()
		require.NoError(t, readErr)
		seen = append(seen, c.ChunkName)

		assert.Equal(t, uint32(3), c.TotalCount)
		assert.Equal(t, uint64(12345), c.SnapshotChecksum)
	}

	assert.Equal(t, []string{ "CHUNK-00", "CHUNK-01", "CHUNK-02" }, seen)
}

func TestPeekNextIdDoesNotAdvanceCursor(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotFiles(t, dir, map[string]string{ "CHUNK-00": "zeroth" })

	r, openErr := reader.NewChunkReader("snapshot-y", dir, 0)
	require.NoError(t, openErr)
	defer r.Close()

	first, ok := r.PeekNextId()
	require.True(t, ok)
	assert.Equal(t, "CHUNK-00", first)

	second, ok := r.PeekNextId()
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestSeekSkipsChunksUpToAndIncludingId(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotFiles(t, dir, map[string]string{
		"CHUNK-00": "zeroth",
		"CHUNK-01": "first",
		"CHUNK-02": "second",
	})

	r, openErr := reader.NewChunkReader("snapshot-z", dir, 0)
	require.NoError(t, openErr)
	defer r.Close()

	r.Seek("CHUNK-01")

	next, ok := r.PeekNextId()
	require.True(t, ok)
	assert.Equal(t, "CHUNK-02", next)
}

func TestCloseMakesHasNextFalse(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotFiles(t, dir, map[string]string{ "CHUNK-00": "zeroth" })

	r, openErr := reader.NewChunkReader("snapshot-w", dir, 0)
	require.NoError(t, openErr)

	r.Close()

	assert.False(t, r.HasNext())
}
