package chunk

import "fmt"


//=========================================== Chunk Types


/*
	Chunk is the on-wire, self-describing record for a single file of a snapshot

	a recipient can validate Content against Checksum without consulting any other chunk, and
	can validate a fully assembled snapshot against SnapshotChecksum, which is identical across
	every chunk that belongs to the same snapshot
*/

type Chunk struct {
	SnapshotId string
	TotalCount uint32
	ChunkName string
	Content []byte
	Checksum uint64
	SnapshotChecksum uint64
}

/*
	DecodeError wraps a failure to parse the fixed binary chunk layout, carrying the byte offset
	at which decoding gave up so a caller can log something more useful than "malformed chunk"
*/

type DecodeError struct {
	Offset int
	Reason string
}

func (err *DecodeError) Error() string {
	return fmt.Sprintf("chunk decode failed at offset %d: %s", err.Offset, err.Reason)
}

func newDecodeError(offset int, reason string) *DecodeError {
	return &DecodeError{ Offset: offset, Reason: reason }
}
