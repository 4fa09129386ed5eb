package reader

import "os"
import "path/filepath"
import "sort"

import "github.com/pkg/errors"

import "github.com/raftkit/snapshot/pkg/chunk"


//=========================================== Chunk Reader


/*
	NewChunkReader opens a resumable cursor over the committed snapshot at dir. The file list
	is captured once, sorted ascending by name, at open time -- a committed snapshot's
	directory is read-only, so the listing can never go stale underneath the cursor
*/

func NewChunkReader(snapshotId string, dir string, snapshotChecksum uint64) (*ChunkReader, error) {
	entries, readErr := os.ReadDir(dir)
	if readErr != nil { return nil, errors.Wrapf(readErr, "failed to list snapshot directory %s", dir) }

	var names []string
	for _, entry := range entries {
		if entry.IsDir() { continue }
		names = append(names, entry.Name())
	}

	sort.Strings(names)

	return &ChunkReader{
		snapshotId: snapshotId,
		dir: dir,
		totalCount: uint32(len(names)),
		snapshotChecksum: snapshotChecksum,
		names: names,
	}, nil
}

/*
	HasNext reports whether Next would yield a chunk
*/

func (r *ChunkReader) HasNext() bool {
	return !r.closed && r.position < len(r.names)
}

/*
	Next loads and returns the next chunk in ascending name order. Undefined if !HasNext --
	callers are expected to check first
*/

func (r *ChunkReader) Next() (*chunk.Chunk, error) {
	name := r.names[r.position]
	r.position++

	content, readErr := os.ReadFile(filepath.Join(r.dir, name))
	if readErr != nil { return nil, errors.Wrapf(readErr, "failed to read chunk file %s", name) }

	return &chunk.Chunk{
		SnapshotId: r.snapshotId,
		TotalCount: r.totalCount,
		ChunkName: name,
		Content: content,
		Checksum: chunk.ChecksumOfContent(content),
		SnapshotChecksum: r.snapshotChecksum,
	}, nil
}

/*
	PeekNextId returns the name of the chunk Next would return, or ("", false) if none remain
*/

func (r *ChunkReader) PeekNextId() (string, bool) {
	if !r.HasNext() { return "", false }
	return r.names[r.position], true
}

/*
	Seek skips every chunk whose id is lexicographically <= id, so the following Next yields
	the chunk strictly after it. An empty id is a no-op -- used to resume replication to a
	follower that already has a prefix of the snapshot without re-sending it
*/

func (r *ChunkReader) Seek(id string) {
	if id == "" { return }

	for r.position < len(r.names) && r.names[r.position] <= id {
		r.position++
	}
}

/*
	Close releases the reader. Idempotent
*/

func (r *ChunkReader) Close() {
	r.closed = true
}
