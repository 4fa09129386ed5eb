package raftlog

import "encoding/binary"

import "github.com/pkg/errors"
import bolt "go.etcd.io/bbolt"

import "github.com/raftkit/snapshot/pkg/db"


//=========================================== Log


/*
	NewLog opens (creating if necessary) the bbolt-backed indexed log at path
*/

func NewLog(path string) (*Log, error) {
	handle, openErr := bolt.Open(path, 0600, nil)
	if openErr != nil { return nil, errors.Wrapf(openErr, "failed to open log at %s", path) }

	bucketErr := handle.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists([]byte(EntriesBucket))
		return createErr
	})
	if bucketErr != nil { return nil, errors.Wrap(bucketErr, "failed to create entries bucket") }

	return &Log{ handle: handle }, nil
}

/*
	Append records the term of the entry at position -- used by tests and by whatever feeds
	entries into this log ahead of Raft log replication, which is out of scope here
*/

func (l *Log) Append(position int64, term int64) error {
	return l.handle.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(EntriesBucket))
		return bucket.Put(positionToBytes(position), termToBytes(term))
	})
}

/*
	GetIndexedEntry implements EntrySupplier: resolves position to the Indexed{index, term}
	pair, or (nil, false) if nothing has been appended at that position
*/

func (l *Log) GetIndexedEntry(position int64) (*Indexed, bool) {
	var found *Indexed

	viewErr := l.handle.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(EntriesBucket))
		raw := bucket.Get(positionToBytes(position))
		if raw == nil { return nil }

		found = &Indexed{
			Index: position,
			Entry: Entry{ Term: bytesToTerm(raw) },
		}

		return nil
	})
	if viewErr != nil { return nil, false }

	return found, found != nil
}

func (l *Log) Close() error {
	return l.handle.Close()
}

func positionToBytes(position int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(position))
	return buf
}

func termToBytes(term int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(term))
	return buf
}

func bytesToTerm(buf []byte) int64 {
	return int64(binary.BigEndian.Uint64(buf))
}

/*
	DefaultExporterPositionSupplier reads the position the exporter pipeline last durably
	consumed directly off the database handle
*/

func DefaultExporterPositionSupplier(handle db.Db) int64 {
	return handle.ExporterPosition()
}

