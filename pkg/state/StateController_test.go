package state_test

import "os"
import "path/filepath"
import "testing"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

import "github.com/raftkit/snapshot/pkg/db"
import "github.com/raftkit/snapshot/pkg/raftlog"
import "github.com/raftkit/snapshot/pkg/state"
import "github.com/raftkit/snapshot/pkg/store"


type fakeDb struct {
	path string
	exporterPosition int64
	closed bool
	snapshotContent string
}

func (f *fakeDb) CreateSnapshot(path string) error {
	return os.WriteFile(filepath.Join(path, "state.snap"), []byte(f.snapshotContent), 0644)
}

func (f *fakeDb) Close() error {
	f.closed = true
	return nil
}

func (f *fakeDb) ExporterPosition() int64 {
	return f.exporterPosition
}

func (f *fakeDb) SetExporterPosition(position int64) error {
	f.exporterPosition = position
	return nil
}

type fakeFactory struct {
	created []string
	failNext bool
	handle *fakeDb
}

func (f *fakeFactory) CreateDb(path string) (db.Db, error) {
	if f.failNext { return nil, assertError{} }
	f.created = append(f.created, path)
	if f.handle == nil { f.handle = &fakeDb{ path: path, snapshotContent: "checkpoint" } }
	return f.handle, nil
}

type assertError struct{}

func (assertError) Error() string { return "forced failure opening database" }

type fakeEntrySupplier struct {
	entries map[int64]raftlog.Entry
}

func (f *fakeEntrySupplier) GetIndexedEntry(position int64) (*raftlog.Indexed, bool) {
	entry, ok := f.entries[position]
	if !ok { return nil, false }
	return &raftlog.Indexed{ Index: position, Entry: entry }, true
}

func exporterAt(position int64) raftlog.ExporterPositionSupplier {
	return func(handle db.Db) int64 { return position }
}

func TestRecoverWithNoCommittedSnapshotStartsClean(t *testing.T) {
	dataDir := t.TempDir()

	snapshotStore, storeErr := store.NewStore(filepath.Join(dataDir, "snapshots"))
	require.NoError(t, storeErr)

	factory := &fakeFactory{}
	runtimeDir := filepath.Join(dataDir, "runtime")
	controller := state.NewController("partition-1", runtimeDir, factory, snapshotStore, &fakeEntrySupplier{}, exporterAt(0))

	recoverErr := controller.Recover()
	assert.NoError(t, recoverErr)
	assert.Empty(t, factory.created)
}

func TestOpenDbIsLazyAndIdempotent(t *testing.T) {
	dataDir := t.TempDir()

	snapshotStore, storeErr := store.NewStore(filepath.Join(dataDir, "snapshots"))
	require.NoError(t, storeErr)

	factory := &fakeFactory{}
	runtimeDir := filepath.Join(dataDir, "runtime")
	controller := state.NewController("partition-1", runtimeDir, factory, snapshotStore, &fakeEntrySupplier{}, exporterAt(0))

	first, firstErr := controller.OpenDb()
	require.NoError(t, firstErr)

	second, secondErr := controller.OpenDb()
	require.NoError(t, secondErr)

	assert.Same(t, first, second)
	assert.Len(t, factory.created, 1)
}

func TestCloseIsIdempotent(t *testing.T) {
	dataDir := t.TempDir()

	snapshotStore, storeErr := store.NewStore(filepath.Join(dataDir, "snapshots"))
	require.NoError(t, storeErr)

	factory := &fakeFactory{}
	runtimeDir := filepath.Join(dataDir, "runtime")
	controller := state.NewController("partition-1", runtimeDir, factory, snapshotStore, &fakeEntrySupplier{}, exporterAt(0))

	_, openErr := controller.OpenDb()
	require.NoError(t, openErr)

	require.NoError(t, controller.Close())
	require.NoError(t, controller.Close())

	assert.True(t, factory.handle.closed)
}

func TestTakeTransientSnapshotSkipsWhenNoDatabaseIsOpen(t *testing.T) {
	dataDir := t.TempDir()

	snapshotStore, storeErr := store.NewStore(filepath.Join(dataDir, "snapshots"))
	require.NoError(t, storeErr)

	runtimeDir := filepath.Join(dataDir, "runtime")
	controller := state.NewController("partition-1", runtimeDir, &fakeFactory{}, snapshotStore, &fakeEntrySupplier{}, exporterAt(0))

	transientSnapshot, takeErr := controller.TakeTransientSnapshot(10)
	assert.NoError(t, takeErr)
	assert.Nil(t, transientSnapshot)
}

func TestTakeTransientSnapshotChecksPointsDatabaseAndCommits(t *testing.T) {
	dataDir := t.TempDir()

	snapshotStore, storeErr := store.NewStore(filepath.Join(dataDir, "snapshots"))
	require.NoError(t, storeErr)

	entrySupplier := &fakeEntrySupplier{ entries: map[int64]raftlog.Entry{ 5: { Term: 1 } } }
	runtimeDir := filepath.Join(dataDir, "runtime")
	controller := state.NewController("partition-1", runtimeDir, &fakeFactory{}, snapshotStore, entrySupplier, exporterAt(5))

	_, openErr := controller.OpenDb()
	require.NoError(t, openErr)

	transientSnapshot, takeErr := controller.TakeTransientSnapshot(100)
	require.NoError(t, takeErr)
	require.NotNil(t, transientSnapshot)

	committed, commitErr := transientSnapshot.Commit()
	require.NoError(t, commitErr)
	assert.Equal(t, int64(5), committed.Index)
}

func TestTakeTransientSnapshotSkipsWhenAlreadyTakenAtSameIndex(t *testing.T) {
	dataDir := t.TempDir()

	snapshotStore, storeErr := store.NewStore(filepath.Join(dataDir, "snapshots"))
	require.NoError(t, storeErr)

	entrySupplier := &fakeEntrySupplier{ entries: map[int64]raftlog.Entry{ 5: { Term: 1 } } }
	runtimeDir := filepath.Join(dataDir, "runtime")
	controller := state.NewController("partition-1", runtimeDir, &fakeFactory{}, snapshotStore, entrySupplier, exporterAt(5))

	_, openErr := controller.OpenDb()
	require.NoError(t, openErr)

	first, takeErr := controller.TakeTransientSnapshot(100)
	require.NoError(t, takeErr)
	require.NotNil(t, first)
	_, commitErr := first.Commit()
	require.NoError(t, commitErr)

	second, secondErr := controller.TakeTransientSnapshot(100)
	assert.NoError(t, secondErr)
	assert.Nil(t, second)
}

func TestRecoverFromCommittedSnapshotCopiesIntoRuntimeDirAndOpensDb(t *testing.T) {
	dataDir := t.TempDir()

	storeDir := filepath.Join(dataDir, "snapshots")
	snapshotStore, storeErr := store.NewStore(storeDir)
	require.NoError(t, storeErr)

	entrySupplier := &fakeEntrySupplier{ entries: map[int64]raftlog.Entry{ 5: { Term: 1 } } }
	runtimeDir := filepath.Join(dataDir, "runtime")
	factory := &fakeFactory{}
	controller := state.NewController("partition-1", runtimeDir, factory, snapshotStore, entrySupplier, exporterAt(5))

	_, openErr := controller.OpenDb()
	require.NoError(t, openErr)
	transientSnapshot, takeErr := controller.TakeTransientSnapshot(100)
	require.NoError(t, takeErr)
	_, commitErr := transientSnapshot.Commit()
	require.NoError(t, commitErr)
	require.NoError(t, controller.Close())

	reopenedStore, reopenErr := store.NewStore(storeDir)
	require.NoError(t, reopenErr)

	secondFactory := &fakeFactory{}
	secondController := state.NewController("partition-1", runtimeDir, secondFactory, reopenedStore, entrySupplier, exporterAt(5))

	recoverErr := secondController.Recover()
	require.NoError(t, recoverErr)

	content, readErr := os.ReadFile(filepath.Join(runtimeDir, "state.snap"))
	require.NoError(t, readErr)
	assert.Equal(t, "checkpoint", string(content))
}
