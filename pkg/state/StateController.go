package state

import "io"
import "os"
import "path/filepath"
import "time"

import "github.com/pkg/errors"

import "github.com/raftkit/snapshot/pkg/db"
import "github.com/raftkit/snapshot/pkg/store"


//=========================================== State Controller


/*
	Recover binds the newest committed snapshot to the runtime directory:
		1.) sweep any staging directories abandoned by a crash before their commit
		2.) delete any stale runtime directory left by the previous process
		3.) if a committed snapshot exists, copy it into the runtime directory and open the
			database as a correctness check -- a database that does not open is not a
			database this process can run on
	Called once, before OpenDb, on process startup
*/

func (c *Controller) Recover() error {
	sweepErr := c.store.SweepPending()
	if sweepErr != nil { return errors.Wrap(sweepErr, "failed to sweep pending snapshots") }

	_, statErr := os.Stat(c.runtimeDir)
	if statErr == nil {
		removeErr := os.RemoveAll(c.runtimeDir)
		if removeErr != nil { return errors.Wrapf(removeErr, "failed to remove stale runtime directory %s", c.runtimeDir) }
	}

	latest := c.store.LatestSnapshot()
	if latest == nil {
		Log.Info("no committed snapshot available, starting with an empty runtime database")
		return nil
	}

	Log.Debug("recovering from snapshot", latest.Id())

	copyErr := copyDirectory(latest.Path, c.runtimeDir)
	if copyErr != nil { return errors.Wrapf(copyErr, "failed to copy snapshot %s into runtime directory", latest.Id()) }

	_, openErr := c.OpenDb()
	if openErr != nil {
		Log.Error("failed to open database recovered from snapshot", latest.Id(), ":", openErr.Error())

		removeErr := os.RemoveAll(c.runtimeDir)
		if removeErr != nil { Log.Warn("failed to remove runtime directory after failed recovery:", removeErr.Error()) }

		return &UnrecoverableState{ SnapshotId: latest.Id(), Cause: openErr }
	}

	Log.Info("recovered state from snapshot", latest.Id())
	return nil
}

/*
	OpenDb is lazy and idempotent: the first call opens the embedded database rooted at the
	runtime directory, every later call returns the same handle
*/

func (c *Controller) OpenDb() (db.Db, error) {
	if c.handle.isOpen() { return c.handle.db, nil }

	handle, createErr := c.factory.CreateDb(c.runtimeDir)
	if createErr != nil { return nil, errors.Wrapf(createErr, "failed to open database at %s", c.runtimeDir) }

	c.handle = openHandle(handle)
	Log.Debug("opened database from", c.runtimeDir)

	return handle, nil
}

/*
	Close closes the runtime database, if one is open, and transitions the handle back to
	Closed. Idempotent
*/

func (c *Controller) Close() error {
	if !c.handle.isOpen() { return nil }

	closeErr := c.handle.db.Close()
	c.handle = closedHandle()

	if closeErr != nil { return errors.Wrap(closeErr, "failed to close database") }

	Log.Debug("closed database from", c.runtimeDir)
	return nil
}

/*
	TakeTransientSnapshot implements the recovery binding's takeTransientSnapshot:
		1.) no open database means nothing to checkpoint
		2.) snapshotPosition = min(exporter position, lowerBoundSnapshotPosition)
		3.) resolve that position to an indexed log entry
		4.) if the resolved index matches the previous snapshot's compaction bound, skip --
			an idempotence guard against re-snapshotting state that has not advanced
		5.) otherwise allocate a transient snapshot at (index, term, now) and drive it with a
			checkpoint that calls Db.CreateSnapshot into the staging directory
	Returns nil, nil when no snapshot was warranted -- callers must not treat that as an error
*/

func (c *Controller) TakeTransientSnapshot(lowerBoundSnapshotPosition int64) (*store.TransientSnapshot, error) {
	if !c.handle.isOpen() {
		Log.Debug("skipping snapshot attempt, no database is open")
		return nil, nil
	}

	exportedPosition := c.exporterPositionSupplier(c.handle.db)
	snapshotPosition := min64(exportedPosition, lowerBoundSnapshotPosition)

	indexed, found := c.entrySupplier.GetIndexedEntry(snapshotPosition)
	if !found {
		Log.Debug("no log entry found at position", snapshotPosition, "skipping snapshot")
		return nil, nil
	}

	previousCompactionBound := int64(-1)
	if latest := c.store.LatestSnapshot(); latest != nil {
		previousCompactionBound = latest.CompactionBound()
	}

	if indexed.Index == previousCompactionBound {
		Log.Debug("snapshot at index", indexed.Index, "already taken, skipping")
		return nil, nil
	}

	transientSnapshot := c.store.TakeTransientSnapshotFromDb(indexed.Index, indexed.Entry.Term, time.Now().UnixMilli())

	taken := transientSnapshot.Take(func(stagingDir string) error {
		return c.handle.db.CreateSnapshot(stagingDir)
	})

	if !taken {
		return nil, errors.Errorf("failed to checkpoint database into staging directory for index %d", indexed.Index)
	}

	return transientSnapshot, nil
}

func min64(a int64, b int64) int64 {
	if a < b { return a }
	return b
}

func copyDirectory(src string, dst string) error {
	mkdirErr := os.MkdirAll(dst, 0755)
	if mkdirErr != nil { return mkdirErr }

	entries, readErr := os.ReadDir(src)
	if readErr != nil { return readErr }

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			copyErr := copyDirectory(srcPath, dstPath)
			if copyErr != nil { return copyErr }
			continue
		}

		copyErr := copyFile(srcPath, dstPath)
		if copyErr != nil { return copyErr }
	}

	return nil
}

func copyFile(src string, dst string) error {
	source, openErr := os.Open(src)
	if openErr != nil { return openErr }
	defer source.Close()

	destination, createErr := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if createErr != nil { return createErr }
	defer destination.Close()

	_, copyErr := io.Copy(destination, source)
	return copyErr
}
