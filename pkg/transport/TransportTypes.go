package transport

import "time"

import "github.com/raftkit/snapshot/pkg/chunk"
import "github.com/raftkit/snapshot/pkg/connpool"
import "github.com/raftkit/snapshot/pkg/logger"


//=========================================== Transport Types


const NAME = "Transport"
const RPCTimeout = 5 * time.Second

var Log = clog.NewCustomLog(NAME)

/*
	serviceName/methodName form the path grpc.ClientConn.Invoke dials and the path the
	manually built grpc.ServiceDesc below registers. There is no .proto file behind this --
	the wire contract is chunk.EncodeChunk/DecodeChunk, carried inside a
	wrapperspb.BytesValue so the method still speaks real protobuf on the stream
*/

const serviceName = "snapshotreplication.ChunkTransport"
const methodName = "InstallChunk"
const fullMethod = "/" + serviceName + "/" + methodName

/*
	GRPCReplication is the concrete stand-in for the out-of-scope SnapshotReplication
	collaborator: a fire-and-forget, best-effort chunk transport built on grpc and the
	connection pool
*/

type GRPCReplication struct {
	peers []string
	port string
	pool *connpool.ConnectionPool
	handler func(c *chunk.Chunk)
}

func NewGRPCReplication(peers []string, port string, pool *connpool.ConnectionPool) *GRPCReplication {
	return &GRPCReplication{
		peers: peers,
		port: port,
		pool: pool,
	}
}
