package transport

import "context"
import "sync"

import "github.com/raftkit/snapshot/pkg/chunk"
import "google.golang.org/protobuf/types/known/wrapperspb"


//=========================================== Transport Client


/*
	Replicate fans a single encoded chunk out to every configured peer in parallel and
	returns an error only if every peer failed -- a lone unreachable follower should never
	stall the whole install fan-out, it will simply catch up (or get marked invalid and
	redriven) on the next snapshot
*/

func (t *GRPCReplication) Replicate(c *chunk.Chunk) error {
	encoded := chunk.EncodeChunk(c)
	req := &wrapperspb.BytesValue{ Value: encoded }

	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures []error

	for _, peer := range t.peers {
		wg.Add(1)

		go func(peer string) {
			defer wg.Done()

			sendErr := t.sendChunk(peer, req)
			if sendErr != nil {
				Log.Warn("failed to send chunk", c.ChunkName, "of", c.SnapshotId, "to", peer, ":", sendErr.Error())

				mu.Lock()
				failures = append(failures, sendErr)
				mu.Unlock()
			}
		}(peer)
	}

	wg.Wait()

	if len(t.peers) > 0 && len(failures) == len(t.peers) {
		return failures[0]
	}

	return nil
}

func (t *GRPCReplication) sendChunk(peer string, req *wrapperspb.BytesValue) error {
	conn, connErr := t.pool.GetConnection(peer, t.port)
	if connErr != nil { return connErr }

	ctx, cancel := context.WithTimeout(context.Background(), RPCTimeout)
	defer cancel()

	reply := &wrapperspb.BytesValue{}
	return conn.Invoke(ctx, fullMethod, req, reply)
}

/*
	Consume registers the partition's inbound handler. The handler is invoked from
	handleInstallChunk on whatever goroutine grpc delivers the RPC on -- callers that need
	single-threaded-per-partition semantics are responsible for hopping onto their own loop
*/

func (t *GRPCReplication) Consume(handler func(c *chunk.Chunk)) {
	t.handler = handler
}
