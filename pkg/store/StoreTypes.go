package store

import "github.com/pkg/errors"

import "github.com/raftkit/snapshot/pkg/logger"


//=========================================== Store Types


const NAME = "SnapshotStore"
const CommittedDirName = "snapshots"
const PendingDirName = "pending"

/*
	CommitMarkerFile is written last, before the staging directory is renamed into the
	committed set, on every commit -- see atomicPromote
*/
const CommitMarkerFile = ".committed"

var Log = clog.NewCustomLog(NAME)


/*
	Snapshot is the immutable, committed representation of a point-in-time state machine
	checkpoint. Directory is read-only once TransientSnapshot.Commit has returned it
*/

type Snapshot struct {
	Index int64
	Term int64
	Position int64
	Path string
	Checksum uint64
}

func (s *Snapshot) Id() string {
	return NewSnapshotId(s.Index, s.Term, s.Position)
}

func (s *Snapshot) CompactionBound() int64 {
	return s.Index
}

/*
	TransientSnapshotState tracks the Open -> Committed | Aborted lifecycle of a
	TransientSnapshot; once Committed or Aborted, the handle rejects further operations
*/

type TransientSnapshotState int

const (
	Open TransientSnapshotState = iota
	Committed
	Aborted
)

/*
	CheckpointFunc is invoked by TransientSnapshot.Take with the staging directory the database
	must populate; returning an error aborts the transient snapshot
*/

type CheckpointFunc func(stagingDir string) error

/*
	TransientSnapshot is the mutable, write-side handle to a pending snapshot. It is never
	visible to readers of the committed set until Commit succeeds
*/

type TransientSnapshot struct {
	snapshotId string
	stagingDir string
	state TransientSnapshotState
	expectedChecksum uint64
	haveExpectedChecksum bool
	store *Store
}

/*
	Listener is notified synchronously, after a successful commit and before
	TransientSnapshot.Commit returns, with the newly committed Snapshot
*/

type Listener func(snapshot *Snapshot)

/*
	Store is the persistent directory of committed snapshots plus the staging area for pending
	ones. All operations are expected to run on a single partition's cooperative loop, never
	concurrently, so the store itself holds no locks
*/

type Store struct {
	rootDir string
	committedDir string
	pendingDir string
	latest *Snapshot
	listeners []Listener
}

var (
	ErrChunkCorrupt = errors.New("snapshot chunk checksum mismatch")
	ErrDuplicateChunk = errors.New("snapshot chunk already written")
	ErrCommitChecksumMismatch = errors.New("combined checksum does not match snapshot checksum")
	ErrAlreadyCommitted = errors.New("snapshot already committed")
	ErrNotFound = errors.New("pending snapshot not found")
)
