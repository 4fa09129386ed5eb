package raftlog

import bolt "go.etcd.io/bbolt"

import "github.com/raftkit/snapshot/pkg/db"


//=========================================== Log Types


/*
	Entry mirrors the fields of the out-of-scope Raft log entry the state controller needs:
	just the term of the entry at a given position
*/

type Entry struct {
	Term int64
}

/*
	Indexed mirrors io.atomix.raft's Indexed<RaftLogEntry> -- the (index, entry) pair the
	AtomixRecordEntrySupplier collaborator resolves a log position to
*/

type Indexed struct {
	Index int64
	Entry Entry
}

/*
	EntrySupplier stands in for the out-of-scope AtomixRecordEntrySupplier collaborator
*/

type EntrySupplier interface {
	GetIndexedEntry(position int64) (*Indexed, bool)
}

/*
	ExporterPositionSupplier stands in for the out-of-scope ExporterPositionSupplier
	collaborator: the last position the exporter pipeline has durably consumed, below which
	it is always safe to take a snapshot
*/

type ExporterPositionSupplier func(handle db.Db) int64

/*
	Log is a minimal, bbolt-backed indexed log used as the concrete EntrySupplier in this
	repository -- real deployments plug in the Raft library's own log instead
*/

type Log struct {
	handle *bolt.DB
}

const EntriesBucket = "entries"
