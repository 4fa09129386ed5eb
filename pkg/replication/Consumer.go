package replication

import "time"

import "github.com/raftkit/snapshot/pkg/chunk"
import "github.com/raftkit/snapshot/pkg/store"


//=========================================== Replication Consumer


/*
	enqueueChunk is the function registered with the transport's Consume: it only hands the
	chunk off to inbox, so whichever goroutine the transport delivers on (one per inbound RPC)
	never itself touches receivedSnapshots
*/

func (c *Controller) enqueueChunk(incoming *chunk.Chunk) {
	c.inbox <- incoming
}

/*
	drainInbox is the partition's single cooperative loop: every chunk, from every peer,
	funnels through this one goroutine and into consumeChunk strictly one at a time, which is
	what lets consumeChunk and everything it calls run without a lock
*/

func (c *Controller) drainInbox() {
	for incoming := range c.inbox {
		c.consumeChunk(incoming)
	}
}

/*
	consumeChunk applies a single incoming chunk to its in-flight install, in order:

		1.) look up (or create) the ReplicationContext for this snapshot id
		2.) drop the chunk if the install is already marked Invalid
		3.) write the chunk into the transient snapshot; a write failure marks the install
			Invalid
		4.) once every chunk has arrived, attempt to commit

	Never called concurrently with itself -- every call comes from drainInbox, the only
	goroutine that touches receivedSnapshots, which is what lets this run lock-free
*/

func (c *Controller) consumeChunk(incoming *chunk.Chunk) {
	state, exists := c.receivedSnapshots[incoming.SnapshotId]
	if !exists {
		state = c.newInstall(incoming.SnapshotId)
	}

	if state.IsInvalid() {
		Log.Debug("dropping chunk", incoming.ChunkName, "of", incoming.SnapshotId, "install marked invalid")
		return
	}

	context := state.context

	_, writeErr := context.TransientSnapshot.Write(incoming)
	if writeErr != nil {
		Log.Warn("chunk", incoming.ChunkName, "of", incoming.SnapshotId, "rejected:", writeErr.Error())
		c.markInvalid(incoming.SnapshotId, context)
		return
	}

	context.ChunksReceived++

	if context.ChunksReceived == incoming.TotalCount {
		c.tryCommit(incoming.SnapshotId, context)
		return
	}

	Log.Debug("snapshot", incoming.SnapshotId, "waiting for more chunks, have", context.ChunksReceived, "of", incoming.TotalCount)
}

func (c *Controller) newInstall(snapshotId string) InstallState {
	transientSnapshot := c.store.TakeTransientSnapshotForChunks(snapshotId)

	context := &ReplicationContext{
		StartTimestamp: time.Now(),
		TransientSnapshot: transientSnapshot,
	}

	state := inProgressState(context)
	c.receivedSnapshots[snapshotId] = state
	c.metrics.IncrementInFlight()

	return state
}

/*
	markInvalid aborts the staging directory and replaces the map entry with the Invalid
	sentinel. Every further chunk for this snapshot id is dropped by consumeChunk until a
	strictly newer snapshot id's commit succeeds and purges it, see purgeSuperseded
*/

func (c *Controller) markInvalid(snapshotId string, context *ReplicationContext) {
	context.TransientSnapshot.Abort()
	c.receivedSnapshots[snapshotId] = invalidState()
	c.metrics.DecrementInFlight()
}

/*
	tryCommit attempts the final commit once all chunks have landed. A commit failure --
	most commonly CommitChecksumMismatch -- marks the install invalid rather than retrying;
	the leader is expected to redrive with a fresh snapshot
*/

func (c *Controller) tryCommit(snapshotId string, context *ReplicationContext) {
	committed, commitErr := context.TransientSnapshot.Commit()
	if commitErr != nil {
		Log.Warn("failed to commit snapshot", snapshotId, ":", commitErr.Error())
		c.markInvalid(snapshotId, context)
		return
	}

	elapsed := time.Since(context.StartTimestamp)

	delete(c.receivedSnapshots, snapshotId)
	c.metrics.DecrementInFlight()
	c.metrics.ObserveDurationMillis(float64(elapsed.Milliseconds()))

	c.purgeSuperseded(committed)
}

/*
	purgeSuperseded drops any Invalid sentinel whose snapshot id sorts strictly below the
	snapshot that just committed -- its staged state is gone once retention reclaims older
	snapshots, so there is nothing left to keep the sentinel guarding. The sentinel is never
	garbage-collected on a timer, only by this kind of supersession
*/

func (c *Controller) purgeSuperseded(committed *store.Snapshot) {
	committedId := committed.Id()

	for id, state := range c.receivedSnapshots {
		if state.IsInvalid() && store.CompareSnapshotIds(id, committedId) < 0 {
			delete(c.receivedSnapshots, id)
		}
	}
}
