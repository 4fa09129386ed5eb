package replication

import "time"

import "github.com/raftkit/snapshot/pkg/chunk"
import "github.com/raftkit/snapshot/pkg/logger"
import "github.com/raftkit/snapshot/pkg/metrics"
import "github.com/raftkit/snapshot/pkg/store"


//=========================================== Replication Types


const NAME = "Replication"

/*
	InboxBufferSize bounds how many inbound chunks can queue ahead of the partition's own
	cooperative loop before a sender's Replicate call starts blocking
*/
const InboxBufferSize = 256

var Log = clog.NewCustomLog(NAME)

/*
	Replication stands in for the out-of-scope SnapshotReplication collaborator: a
	best-effort transport with no per-chunk acknowledgement from the receiving controller.
	Consume's handler may be called on any transport-owned goroutine; the Controller hops
	each chunk onto its own loop through enqueueChunk
*/

type Replication interface {
	Replicate(c *chunk.Chunk) error
	Consume(handler func(c *chunk.Chunk))
}

/*
	installPhase distinguishes an install that is still receiving chunks from one that has
	been poisoned by a corrupt or duplicate chunk. A tagged variant in place of an
	identity-compared sentinel, so callers pattern-match instead of comparing pointers
*/

type installPhase int

const (
	inProgress installPhase = iota
	invalid
)

/*
	InstallState is either an in-progress ReplicationContext or the Invalid sentinel. Chunks
	arriving for an Invalid install are dropped silently until a newer snapshot id supersedes it
*/

type InstallState struct {
	phase installPhase
	context *ReplicationContext
}

func inProgressState(context *ReplicationContext) InstallState {
	return InstallState{ phase: inProgress, context: context }
}

func invalidState() InstallState {
	return InstallState{ phase: invalid }
}

func (s InstallState) IsInvalid() bool {
	return s.phase == invalid
}

/*
	ReplicationContext is the per-in-flight-snapshot bookkeeping on the receiver side: when
	the install started, the TransientSnapshot it is writing into, and how many chunks have
	landed so far
*/

type ReplicationContext struct {
	StartTimestamp time.Time
	TransientSnapshot *store.TransientSnapshot
	ChunksReceived uint32
}

/*
	Controller drives snapshot production on commit, and consumes incoming chunks from any
	peer, tracking per-snapshot install state. A single Controller instance serves exactly
	one partition; receivedSnapshots is only ever touched from the goroutine draining inbox,
	never from the transport's own delivery goroutine
*/

type Controller struct {
	partition string
	store *store.Store
	replication Replication
	metrics *metrics.ReplicationMetrics
	receivedSnapshots map[string]InstallState
	inbox chan *chunk.Chunk
}

/*
	NewController wires the controller to its store and transport, registers itself as the
	store's commit listener so every successful commit -- whether produced locally by a
	checkpoint or by this very controller finishing an install -- triggers re-replication, and
	starts the single goroutine that drains inbox, serializing every consumeChunk call onto
	one cooperative loop regardless of how many peers are delivering chunks concurrently
*/

func NewController(partition string, snapshotStore *store.Store, replicationTransport Replication) *Controller {
	c := &Controller{
		partition: partition,
		store: snapshotStore,
		replication: replicationTransport,
		metrics: metrics.NewReplicationMetrics(partition),
		receivedSnapshots: make(map[string]InstallState),
		inbox: make(chan *chunk.Chunk, InboxBufferSize),
	}

	snapshotStore.AddSnapshotListener(c.OnNewSnapshot)
	replicationTransport.Consume(c.enqueueChunk)

	go c.drainInbox()

	return c
}

/*
	RefreshDiskStats samples the filesystem backing storeRoot and republishes the disk-available
	gauge. Meant to be called on a timer by whoever owns this Controller's lifecycle (see
	cmd/snapshotd), not on every install, since disk stats change slowly relative to chunk
	traffic
*/

func (c *Controller) RefreshDiskStats(storeRoot string) error {
	return c.metrics.RefreshDiskStats(storeRoot)
}
