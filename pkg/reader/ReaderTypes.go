package reader


//=========================================== Chunk Reader Types


/*
	ChunkReader is a resumable cursor over a committed snapshot's files, ascending by file
	name. It loads one chunk at a time on demand -- it never holds a whole snapshot in memory
*/

type ChunkReader struct {
	snapshotId string
	dir string
	totalCount uint32
	snapshotChecksum uint64
	names []string
	position int
	closed bool
}
