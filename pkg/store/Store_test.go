package store_test

import "os"
import "path/filepath"
import "testing"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

import "github.com/raftkit/snapshot/pkg/chunk"
import "github.com/raftkit/snapshot/pkg/store"


func newTestStore(t *testing.T) *store.Store {
	root := t.TempDir()

	s, openErr := store.NewStore(root)
	require.NoError(t, openErr)

	return s
}

func writeAllChunks(t *testing.T, ts *store.TransientSnapshot, snapshotId string, files map[string][]byte) {
	combined := make([][]byte, 0, len(files))
	for _, content := range files {
		combined = append(combined, content)
	}

	snapshotChecksum := chunk.CombinedChecksum(combined)
	total := uint32(len(files))

	for name, content := range files {
		c := &chunk.Chunk{
			SnapshotId: snapshotId,
			TotalCount: total,
			ChunkName: name,
			Content: content,
			Checksum: chunk.ChecksumOfContent(content),
			SnapshotChecksum: snapshotChecksum,
		}

		_, writeErr := ts.Write(c)
		require.NoError(t, writeErr)
	}
}

func TestTakeTransientSnapshotFromDbCheckpointsAndCommits(t *testing.T) {
	s := newTestStore(t)

	ts := s.TakeTransientSnapshotFromDb(10, 1, 100)

	taken := ts.Take(func(stagingDir string) error {
		return os.WriteFile(filepath.Join(stagingDir, "state.db"), []byte("checkpoint-bytes"), 0644)
	})
	require.True(t, taken)

	committed, commitErr := ts.Commit()
	require.NoError(t, commitErr)
	assert.Equal(t, ts.SnapshotId(), committed.Id())

	latest := s.LatestSnapshot()
	require.NotNil(t, latest)
	assert.Equal(t, committed.Id(), latest.Id())
}

func TestWriteRejectsCorruptChunk(t *testing.T) {
	s := newTestStore(t)

	ts := s.TakeTransientSnapshotForChunks("snapshot-a")

	c := &chunk.Chunk{
		SnapshotId: "snapshot-a",
		TotalCount: 1,
		ChunkName: "CHUNK-00",
		Content: []byte("real content"),
		Checksum: 0, // wrong on purpose
		SnapshotChecksum: 0,
	}

	_, writeErr := ts.Write(c)
	require.Error(t, writeErr)
}

func TestWriteRejectsDuplicateChunkName(t *testing.T) {
	s := newTestStore(t)

	ts := s.TakeTransientSnapshotForChunks("snapshot-b")

	content := []byte("content")
	c := &chunk.Chunk{
		SnapshotId: "snapshot-b",
		TotalCount: 1,
		ChunkName: "CHUNK-00",
		Content: content,
		Checksum: chunk.ChecksumOfContent(content),
	}

	_, firstErr := ts.Write(c)
	require.NoError(t, firstErr)

	_, secondErr := ts.Write(c)
	require.Error(t, secondErr)
}

func TestCommitFailsOnChecksumMismatch(t *testing.T) {
	s := newTestStore(t)

	ts := s.TakeTransientSnapshotForChunks("snapshot-c")

	content := []byte("content")
	c := &chunk.Chunk{
		SnapshotId: "snapshot-c",
		TotalCount: 1,
		ChunkName: "CHUNK-00",
		Content: content,
		Checksum: chunk.ChecksumOfContent(content),
		SnapshotChecksum: 0xBADBADBAD,
	}

	_, writeErr := ts.Write(c)
	require.NoError(t, writeErr)

	_, commitErr := ts.Commit()
	require.Error(t, commitErr)
}

func TestInterleavedSnapshotsCommitIndependently(t *testing.T) {
	s := newTestStore(t)

	idA := store.NewSnapshotId(100, 2, 0)
	idB := store.NewSnapshotId(150, 2, 0)

	tsA := s.TakeTransientSnapshotForChunks(idA)
	tsB := s.TakeTransientSnapshotForChunks(idB)

	writeAllChunks(t, tsA, idA, map[string][]byte{ "CHUNK-00": []byte("a-content") })
	writeAllChunks(t, tsB, idB, map[string][]byte{ "CHUNK-00": []byte("b-content") })

	_, commitAErr := tsA.Commit()
	require.NoError(t, commitAErr)

	_, commitBErr := tsB.Commit()
	require.NoError(t, commitBErr)

	assert.True(t, s.Exists(idA))
	assert.True(t, s.Exists(idB))
}

func TestSweepPendingRemovesUncommittedStagingDirectories(t *testing.T) {
	s := newTestStore(t)

	ts := s.TakeTransientSnapshotForChunks("snapshot-crash")
	writeAllChunks(t, ts, "snapshot-crash", map[string][]byte{ "CHUNK-00": []byte("partial") })

	sweepErr := s.SweepPending()
	require.NoError(t, sweepErr)

	_, commitErr := ts.Commit()
	require.Error(t, commitErr)
}

func TestAbortIsIdempotentAndNeverErrors(t *testing.T) {
	s := newTestStore(t)

	ts := s.TakeTransientSnapshotForChunks("snapshot-abort")
	writeAllChunks(t, ts, "snapshot-abort", map[string][]byte{ "CHUNK-00": []byte("doomed") })

	ts.Abort()
	ts.Abort()

	assert.Equal(t, store.Aborted, ts.State())
}
