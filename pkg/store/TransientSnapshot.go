package store

import "os"
import "path/filepath"

import "github.com/pkg/errors"

import "github.com/raftkit/snapshot/pkg/chunk"


//=========================================== Transient Snapshot


/*
	Take drives the database-backed construction path: checkpoint populates the staging
	directory directly (no per-chunk writes), and a checkpoint failure aborts the transient
	snapshot on the way out, matching the "on failure the transient aborts itself" contract
*/

func (ts *TransientSnapshot) Take(checkpoint CheckpointFunc) bool {
	if ts.state != Open { return false }

	mkdirErr := os.MkdirAll(ts.stagingDir, 0755)
	if mkdirErr != nil {
		Log.Error("failed to create staging directory for", ts.snapshotId, ":", mkdirErr.Error())
		ts.Abort()
		return false
	}

	checkpointErr := checkpoint(ts.stagingDir)
	if checkpointErr != nil {
		Log.Error("checkpoint failed for", ts.snapshotId, ":", checkpointErr.Error())
		ts.Abort()
		return false
	}

	return true
}

/*
	Write idempotently writes a single chunk's content into the staging directory. A
	duplicate file, a bad per-chunk checksum, or an I/O failure all return an error (the
	caller marks the whole install invalid); a chunk belonging to an already-committed
	snapshot is treated as already satisfied
*/

func (ts *TransientSnapshot) Write(c *chunk.Chunk) (bool, error) {
	if ts.state != Open { return false, errors.New("write on a non-open transient snapshot") }

	if ts.store.Exists(c.SnapshotId) { return true, nil }

	if chunk.ChecksumOfContent(c.Content) != c.Checksum {
		return false, errors.Wrapf(ErrChunkCorrupt, "chunk %s of snapshot %s", c.ChunkName, c.SnapshotId)
	}

	mkdirErr := os.MkdirAll(ts.stagingDir, 0755)
	if mkdirErr != nil { return false, errors.Wrap(mkdirErr, "failed to create staging directory") }

	destination := filepath.Join(ts.stagingDir, c.ChunkName)

	file, openErr := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if openErr != nil {
		if os.IsExist(openErr) { return false, errors.Wrapf(ErrDuplicateChunk, "chunk %s of snapshot %s", c.ChunkName, c.SnapshotId) }
		return false, errors.Wrap(openErr, "failed to open chunk file")
	}
	defer file.Close()

	_, writeErr := file.Write(c.Content)
	if writeErr != nil { return false, errors.Wrap(writeErr, "failed to write chunk content") }

	ts.expectedChecksum = c.SnapshotChecksum
	ts.haveExpectedChecksum = true

	return true, nil
}

/*
	Commit delegates to the owning store's atomic promotion. A successful commit transitions
	the handle to Committed and it becomes unusable for further writes
*/

func (ts *TransientSnapshot) Commit() (*Snapshot, error) {
	if ts.state != Open { return nil, errors.New("commit on a non-open transient snapshot") }

	snapshot, commitErr := ts.store.commit(ts.stagingDir, ts.expectedChecksum, ts.haveExpectedChecksum)
	if commitErr != nil { return nil, commitErr }

	ts.state = Committed
	return snapshot, nil
}

/*
	Abort deletes the staging directory and transitions the handle to Aborted. Idempotent and
	never surfaces an error out of this path -- callers call it from error-handling code that
	cannot itself fail
*/

func (ts *TransientSnapshot) Abort() {
	if ts.state == Committed { return }

	ts.state = Aborted

	removeErr := os.RemoveAll(ts.stagingDir)
	if removeErr != nil { Log.Warn("failed to remove staging directory", ts.stagingDir, ":", removeErr.Error()) }
}

func (ts *TransientSnapshot) SnapshotId() string {
	return ts.snapshotId
}

func (ts *TransientSnapshot) State() TransientSnapshotState {
	return ts.state
}
