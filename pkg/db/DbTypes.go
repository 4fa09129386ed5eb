package db

import bolt "go.etcd.io/bbolt"

import "github.com/raftkit/snapshot/pkg/logger"


//=========================================== Db Types


const NAME = "Db"
const DataFileName = "state.db"

var Log = clog.NewCustomLog(NAME)


/*
	Factory stands in for the out-of-scope ZeebeDbFactory collaborator: given a directory, it
	opens (creating if necessary) the embedded key-value database rooted there
*/

type Factory interface {
	CreateDb(path string) (Db, error)
}

/*
	Db stands in for the out-of-scope ZeebeDb collaborator. CreateSnapshot writes a
	self-contained, consistent checkpoint of the database into path -- the callback the
	TransientSnapshot's Take drives
*/

type Db interface {
	CreateSnapshot(path string) error
	Close() error
	ExporterPosition() int64
	SetExporterPosition(position int64) error
}

/*
	BoltFactory opens a go.etcd.io/bbolt database per runtime directory -- an embedded,
	transactional key-value store standing in for a RocksDB-backed state machine
*/

type BoltFactory struct{}

func NewBoltFactory() *BoltFactory {
	return &BoltFactory{}
}

type BoltDb struct {
	path string
	handle *bolt.DB
}
