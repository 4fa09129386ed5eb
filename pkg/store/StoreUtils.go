package store

import "github.com/raftkit/snapshot/pkg/reader"


//=========================================== Store Utils


/*
	NewChunkReader opens a resumable cursor over a committed snapshot, used by the replication
	controller's producer side on every onNewSnapshot callback
*/

func (s *Store) NewChunkReader(snapshot *Snapshot) (*reader.ChunkReader, error) {
	return reader.NewChunkReader(snapshot.Id(), snapshot.Path, snapshot.Checksum)
}
