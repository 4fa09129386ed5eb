package replication

import "github.com/google/uuid"

import "github.com/raftkit/snapshot/pkg/store"


//=========================================== Replication Producer


/*
	OnNewSnapshot is the store's commit listener: open a ChunkReader on the newly committed
	snapshot and publish every chunk, in order, to the transport. The transport is
	best-effort -- no per-chunk acknowledgement is awaited here. If publication fails
	mid-stream the remaining chunks are dropped; a later snapshot commit (this one's or a
	newer one) redrives replication from scratch, which is the intended recovery path

	Every call is tagged with a random correlation id so the chunk-level log lines for one
	publish batch can be grepped out from an overlapping batch for a different snapshot
*/

func (c *Controller) OnNewSnapshot(snapshot *store.Snapshot) {
	correlationId := uuid.NewString()

	chunkReader, openErr := c.store.NewChunkReader(snapshot)
	if openErr != nil {
		Log.Error("publish", correlationId, "failed to open chunk reader for", snapshot.Id(), ":", openErr.Error())
		return
	}
	defer chunkReader.Close()

	published := 0

	for chunkReader.HasNext() {
		nextChunk, readErr := chunkReader.Next()
		if readErr != nil {
			Log.Error("publish", correlationId, "failed to read chunk of", snapshot.Id(), "after publishing", published, ":", readErr.Error())
			return
		}

		publishErr := c.replication.Replicate(nextChunk)
		if publishErr != nil {
			Log.Warn("publish", correlationId, "failed to publish chunk", nextChunk.ChunkName, "of", snapshot.Id(), "after", published, "chunks:", publishErr.Error())
			return
		}

		published++
	}

	Log.Debug("publish", correlationId, "published", published, "chunks for snapshot", snapshot.Id())
}
