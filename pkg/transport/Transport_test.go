package transport

import "context"
import "testing"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"
import "google.golang.org/protobuf/types/known/wrapperspb"

import "github.com/raftkit/snapshot/pkg/chunk"
import "github.com/raftkit/snapshot/pkg/connpool"


func testChunk() *chunk.Chunk {
	return &chunk.Chunk{
		SnapshotId: "0000000000000000005-0000000000000000001-0000000000000000100",
		TotalCount: 1,
		ChunkName: "CHUNK-00",
		Content: []byte("payload"),
		Checksum: chunk.ChecksumOfContent([]byte("payload")),
		SnapshotChecksum: chunk.CombinedChecksum([][]byte{ []byte("payload") }),
	}
}

func TestHandleInstallChunkDispatchesDecodedChunkToRegisteredHandler(t *testing.T) {
	pool := connpool.NewConnectionPool(connpool.ConnectionPoolOpts{ MaxConn: 1 })
	replication := NewGRPCReplication(nil, ":0", pool)

	var received *chunk.Chunk
	replication.Consume(func(c *chunk.Chunk) { received = c })

	encoded := chunk.EncodeChunk(testChunk())
	_, err := replication.handleInstallChunk(context.Background(), &wrapperspb.BytesValue{ Value: encoded })

	require.NoError(t, err)
	require.NotNil(t, received)
	assert.Equal(t, "CHUNK-00", received.ChunkName)
	assert.Equal(t, testChunk().SnapshotId, received.SnapshotId)
}

func TestHandleInstallChunkWithNoRegisteredHandlerAcksWithoutError(t *testing.T) {
	pool := connpool.NewConnectionPool(connpool.ConnectionPoolOpts{ MaxConn: 1 })
	replication := NewGRPCReplication(nil, ":0", pool)

	encoded := chunk.EncodeChunk(testChunk())
	reply, err := replication.handleInstallChunk(context.Background(), &wrapperspb.BytesValue{ Value: encoded })

	assert.NoError(t, err)
	assert.NotNil(t, reply)
}

func TestHandleInstallChunkRejectsMalformedBytes(t *testing.T) {
	pool := connpool.NewConnectionPool(connpool.ConnectionPoolOpts{ MaxConn: 1 })
	replication := NewGRPCReplication(nil, ":0", pool)

	_, err := replication.handleInstallChunk(context.Background(), &wrapperspb.BytesValue{ Value: []byte("not a chunk") })

	assert.Error(t, err)
}

func TestReplicateWithNoPeersConfiguredSucceeds(t *testing.T) {
	pool := connpool.NewConnectionPool(connpool.ConnectionPoolOpts{ MaxConn: 1 })
	replication := NewGRPCReplication(nil, ":0", pool)

	err := replication.Replicate(testChunk())
	assert.NoError(t, err)
}
