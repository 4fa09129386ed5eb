package db

import "os"
import "path/filepath"

import "github.com/pkg/errors"
import bolt "go.etcd.io/bbolt"


//=========================================== Bolt-backed Db


const ReplicatedLogBucket = "replicated-log"
const ExporterBucket = "exporter"

/*
	CreateDb opens the database rooted at path, creating the directory and both buckets the
	rest of the subsystem expects (the replicated log index and the exporter position) if this
	is a fresh runtime directory
*/

func (f *BoltFactory) CreateDb(path string) (Db, error) {
	mkdirErr := os.MkdirAll(path, 0755)
	if mkdirErr != nil { return nil, errors.Wrapf(mkdirErr, "failed to create db directory %s", path) }

	dataPath := filepath.Join(path, DataFileName)

	handle, openErr := bolt.Open(dataPath, 0600, nil)
	if openErr != nil { return nil, errors.Wrapf(openErr, "failed to open db at %s", dataPath) }

	bucketErr := handle.Update(func(tx *bolt.Tx) error {
		for _, bucket := range []string{ ReplicatedLogBucket, ExporterBucket } {
			_, createErr := tx.CreateBucketIfNotExists([]byte(bucket))
			if createErr != nil { return createErr }
		}

		return nil
	})
	if bucketErr != nil { return nil, errors.Wrap(bucketErr, "failed to create db buckets") }

	return &BoltDb{ path: path, handle: handle }, nil
}

/*
	CreateSnapshot writes a consistent point-in-time copy of the database into a file under
	dir. bbolt's transaction-scoped CopyFile is the checkpoint primitive this embedded KV
	database offers in place of a RocksDB/LSM-tree snapshot
*/

func (b *BoltDb) CreateSnapshot(dir string) error {
	snapshotPath := filepath.Join(dir, DataFileName)

	copyErr := b.handle.View(func(tx *bolt.Tx) error {
		return tx.CopyFile(snapshotPath, 0600)
	})
	if copyErr != nil { return errors.Wrapf(copyErr, "failed to checkpoint db into %s", snapshotPath) }

	return nil
}

func (b *BoltDb) Close() error {
	return b.handle.Close()
}

const exporterPositionKey = "position"

/*
	ExporterPosition returns the last position the exporter pipeline has durably consumed, or
	0 if nothing has ever been recorded -- the default ExporterPositionSupplier backing
*/

func (b *BoltDb) ExporterPosition() int64 {
	var position int64

	viewErr := b.handle.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(ExporterBucket))
		raw := bucket.Get([]byte(exporterPositionKey))
		if raw == nil { return nil }

		position = bytesToInt64(raw)
		return nil
	})
	if viewErr != nil { return 0 }

	return position
}

func (b *BoltDb) SetExporterPosition(position int64) error {
	return b.handle.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(ExporterBucket))
		return bucket.Put([]byte(exporterPositionKey), int64ToBytes(position))
	})
}

func int64ToBytes(v int64) []byte {
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * (7 - i)))
	}
	return buf
}

func bytesToInt64(buf []byte) int64 {
	var v int64
	for i := 0; i < 8; i++ {
		v = v<<8 | int64(buf[i])
	}
	return v
}
