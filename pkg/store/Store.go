package store

import "os"
import "path/filepath"
import "sort"

import "github.com/pkg/errors"

import "github.com/raftkit/snapshot/pkg/chunk"


//=========================================== Snapshot Store


/*
	NewStore opens (creating if necessary) the committed and pending directories under root and
	scans the committed directory for the newest existing snapshot, so a restarted process picks
	up exactly where it left off without replaying any commit
*/

func NewStore(rootDir string) (*Store, error) {
	committedDir := filepath.Join(rootDir, CommittedDirName)
	pendingDir := filepath.Join(rootDir, PendingDirName)

	for _, dir := range []string{ committedDir, pendingDir } {
		mkdirErr := os.MkdirAll(dir, 0755)
		if mkdirErr != nil { return nil, errors.Wrapf(mkdirErr, "failed to create store directory %s", dir) }
	}

	s := &Store{
		rootDir: rootDir,
		committedDir: committedDir,
		pendingDir: pendingDir,
	}

	latestErr := s.loadLatest()
	if latestErr != nil { return nil, latestErr }

	return s, nil
}

/*
	loadLatest scans the committed directory and caches the snapshot with the greatest id,
	so LatestSnapshot is O(1) on every call after startup
*/

func (s *Store) loadLatest() error {
	entries, readErr := os.ReadDir(s.committedDir)
	if readErr != nil { return errors.Wrap(readErr, "failed to list committed snapshots") }

	var latestId string
	for _, entry := range entries {
		if !entry.IsDir() { continue }
		if CompareSnapshotIds(entry.Name(), latestId) > 0 { latestId = entry.Name() }
	}

	if latestId == "" { return nil }

	snapshot, loadErr := s.loadSnapshot(latestId)
	if loadErr != nil { return loadErr }

	s.latest = snapshot
	return nil
}

func (s *Store) loadSnapshot(id string) (*Snapshot, error) {
	index, term, position, parseErr := ParseSnapshotId(id)
	if parseErr != nil { return nil, parseErr }

	dir := filepath.Join(s.committedDir, id)
	checksum, checksumErr := combinedChecksumOfDir(dir)
	if checksumErr != nil { return nil, checksumErr }

	return &Snapshot{
		Index: index,
		Term: term,
		Position: position,
		Path: dir,
		Checksum: checksum,
	}, nil
}

/*
	LatestSnapshot returns the newest committed snapshot, O(1), or nil if none has been
	committed yet
*/

func (s *Store) LatestSnapshot() *Snapshot {
	return s.latest
}

/*
	Exists reports whether id is already present in the committed set
*/

func (s *Store) Exists(id string) bool {
	_, statErr := os.Stat(filepath.Join(s.committedDir, id))
	return statErr == nil
}

/*
	PendingDirectoryFor returns the staging path for id, or "" if id is already committed.
	Idempotent: calling it twice for the same not-yet-committed id returns the same path
*/

func (s *Store) PendingDirectoryFor(id string) string {
	if s.Exists(id) { return "" }
	return filepath.Join(s.pendingDir, id)
}

/*
	AddSnapshotListener registers a callback fired synchronously, in commit order, after every
	commit that promotes a staging directory and before TransientSnapshot.Commit returns to
	its own caller
*/

func (s *Store) AddSnapshotListener(listener Listener) {
	s.listeners = append(s.listeners, listener)
}

/*
	TakeTransientSnapshotFromDb allocates a staging directory for a brand-new snapshot at
	(index, term) and returns a TransientSnapshot the caller drives with Take(checkpoint) --
	the sender-side construction path
*/

func (s *Store) TakeTransientSnapshotFromDb(index int64, term int64, position int64) *TransientSnapshot {
	id := NewSnapshotId(index, term, position)

	return &TransientSnapshot{
		snapshotId: id,
		stagingDir: filepath.Join(s.pendingDir, id),
		state: Open,
		store: s,
	}
}

/*
	TakeTransientSnapshotForChunks allocates (or re-opens) the staging directory for an
	in-flight snapshot identified by a peer -- the receiver-side construction path
*/

func (s *Store) TakeTransientSnapshotForChunks(id string) *TransientSnapshot {
	return &TransientSnapshot{
		snapshotId: id,
		stagingDir: filepath.Join(s.pendingDir, id),
		state: Open,
		store: s,
	}
}

/*
	commit performs the atomic promotion of a staging directory into the committed set.
	Integrity is re-verified here regardless of what the TransientSnapshot already checked,
	because the store -- not the transient handle -- is the last line of defense against a
	half-written or tampered staging directory

	if the destination already exists (AlreadyCommitted) it returns the existing snapshot
	without error, as a no-op success, and fires no listener; if the recomputed combined
	checksum does not match the one the written chunks carried it returns
	ErrCommitChecksumMismatch. The checksum is only compared when at least one chunk was
	written; a checkpoint-backed snapshot commits with whatever checksum its files produce
*/

func (s *Store) commit(pendingPath string, expectedChecksum uint64, haveExpectedChecksum bool) (*Snapshot, error) {
	id := filepath.Base(pendingPath)

	if s.Exists(id) {
		return s.loadSnapshot(id)
	}

	actualChecksum, checksumErr := combinedChecksumOfDir(pendingPath)
	if checksumErr != nil { return nil, checksumErr }

	if haveExpectedChecksum && actualChecksum != expectedChecksum {
		return nil, ErrCommitChecksumMismatch
	}

	destination := filepath.Join(s.committedDir, id)

	commitErr := atomicPromote(pendingPath, destination)
	if commitErr != nil { return nil, errors.Wrapf(commitErr, "failed to commit snapshot %s", id) }

	index, term, position, parseErr := ParseSnapshotId(id)
	if parseErr != nil { return nil, parseErr }

	snapshot := &Snapshot{
		Index: index,
		Term: term,
		Position: position,
		Path: destination,
		Checksum: actualChecksum,
	}

	if s.latest == nil || CompareSnapshotIds(snapshot.Id(), s.latest.Id()) > 0 {
		s.latest = snapshot
	}

	for _, listener := range s.listeners {
		listener(snapshot)
	}

	return snapshot, nil
}

/*
	atomicPromote renames src to dst. A marker file is written last inside src before every
	rename and removed from dst after it. SweepPending does not look at the marker: it
	removes every staging directory, marked or not
*/

func atomicPromote(src string, dst string) error {
	markerErr := os.WriteFile(filepath.Join(src, CommitMarkerFile), []byte{}, 0644)
	if markerErr != nil { return errors.Wrap(markerErr, "failed to write commit marker") }

	renameErr := os.Rename(src, dst)
	if renameErr != nil { return errors.Wrap(renameErr, "failed to rename staging directory") }

	return os.Remove(filepath.Join(dst, CommitMarkerFile))
}

/*
	SweepPending deletes every staging directory left over from a process that crashed before
	committing. Called once, before any snapshot is trusted, by the state controller's
	Recover -- a crash before commit is equivalent to an abort on the next startup
*/

func (s *Store) SweepPending() error {
	entries, readErr := os.ReadDir(s.pendingDir)
	if readErr != nil { return errors.Wrap(readErr, "failed to list pending directory") }

	for _, entry := range entries {
		path := filepath.Join(s.pendingDir, entry.Name())

		removeErr := os.RemoveAll(path)
		if removeErr != nil { return errors.Wrapf(removeErr, "failed to sweep pending directory %s", path) }
	}

	return nil
}

/*
	combinedChecksumOfDir enumerates dir's entries in sorted name order and folds their
	contents through chunk.CombinedChecksum -- the same fold every ChunkReader and
	TransientSnapshot.Write path uses, so a commit-time mismatch here always means the
	staging directory genuinely diverges from what the chunks described
*/

func combinedChecksumOfDir(dir string) (uint64, error) {
	entries, readErr := os.ReadDir(dir)
	if readErr != nil { return 0, errors.Wrapf(readErr, "failed to list snapshot directory %s", dir) }

	var names []string
	for _, entry := range entries {
		if entry.IsDir() { continue }
		if entry.Name() == CommitMarkerFile { continue }
		names = append(names, entry.Name())
	}

	sort.Strings(names)

	contents := make([][]byte, 0, len(names))
	for _, name := range names {
		content, readErr := os.ReadFile(filepath.Join(dir, name))
		if readErr != nil { return 0, errors.Wrapf(readErr, "failed to read snapshot file %s", name) }

		contents = append(contents, content)
	}

	return chunk.CombinedChecksum(contents), nil
}
