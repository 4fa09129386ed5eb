package state

import "github.com/pkg/errors"

import "github.com/raftkit/snapshot/pkg/db"
import "github.com/raftkit/snapshot/pkg/logger"
import "github.com/raftkit/snapshot/pkg/raftlog"
import "github.com/raftkit/snapshot/pkg/store"


//=========================================== State Controller Types


const NAME = "StateController"

var Log = clog.NewCustomLog(NAME)

/*
	UnrecoverableState is returned by Recover when a committed snapshot exists but the
	runtime database cannot be opened from it. There is no automatic fallback -- the operator
	has to inspect the snapshot directory by hand
*/

type UnrecoverableState struct {
	SnapshotId string
	Cause error
}

func (e *UnrecoverableState) Error() string {
	return errors.Wrapf(e.Cause, "failed to recover from snapshot %s", e.SnapshotId).Error()
}

func (e *UnrecoverableState) Unwrap() error {
	return e.Cause
}

/*
	handlePhase distinguishes a Controller that has never opened its database from one that
	has, as an explicit variant rather than a nullable field callers have to remember to
	nil-check
*/

type handlePhase int

const (
	closedPhase handlePhase = iota
	openPhase
)

/*
	dbHandle is the tagged Closed | Open(handle) variant: closedPhase carries no database,
	openPhase always carries a non-nil one. OpenDb and Close are the only two places that
	construct a dbHandle, so every other method can pattern-match instead of nil-checking
*/

type dbHandle struct {
	phase handlePhase
	db db.Db
}

func closedHandle() dbHandle {
	return dbHandle{ phase: closedPhase }
}

func openHandle(handle db.Db) dbHandle {
	return dbHandle{ phase: openPhase, db: handle }
}

func (h dbHandle) isOpen() bool {
	return h.phase == openPhase
}

/*
	Controller is the concrete stand-in for the source's StateControllerImpl: it binds the
	newest committed snapshot to a runtime database directory on startup, and drives
	checkpoint-based transient snapshots on behalf of whoever decides it is time to snapshot
	(the partition's own commit-position watcher, not modeled in this module)
*/

type Controller struct {
	partition string
	runtimeDir string
	factory db.Factory
	store *store.Store
	entrySupplier raftlog.EntrySupplier
	exporterPositionSupplier raftlog.ExporterPositionSupplier

	handle dbHandle
}

func NewController(
	partition string,
	runtimeDir string,
	factory db.Factory,
	snapshotStore *store.Store,
	entrySupplier raftlog.EntrySupplier,
	exporterPositionSupplier raftlog.ExporterPositionSupplier,
) *Controller {
	return &Controller{
		partition: partition,
		runtimeDir: runtimeDir,
		factory: factory,
		store: snapshotStore,
		entrySupplier: entrySupplier,
		exporterPositionSupplier: exporterPositionSupplier,
		handle: closedHandle(),
	}
}
