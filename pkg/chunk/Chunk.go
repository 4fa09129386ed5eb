package chunk

import "encoding/binary"


//=========================================== Chunk Codec


/*
	EncodeChunk serializes a Chunk to the fixed, big-endian, length-prefixed wire layout:

		snapshotId:string totalCount:u32 chunkName:string checksum:u64 snapshotChecksum:u64
		contentLen:u32 content:bytes[contentLen]

	identical input byte sequences in identical field order always produce identical output,
	so two hosts encoding the same Chunk value produce byte-identical wire representations
*/

func EncodeChunk(c *Chunk) []byte {
	snapshotIdBytes := []byte(c.SnapshotId)
	chunkNameBytes := []byte(c.ChunkName)

	size := 4 + len(snapshotIdBytes) + 4 + 4 + len(chunkNameBytes) + 8 + 8 + 4 + len(c.Content)
	buf := make([]byte, size)
	offset := 0

	offset = putString(buf, offset, snapshotIdBytes)
	binary.BigEndian.PutUint32(buf[offset:], c.TotalCount)
	offset += 4

	offset = putString(buf, offset, chunkNameBytes)

	binary.BigEndian.PutUint64(buf[offset:], c.Checksum)
	offset += 8

	binary.BigEndian.PutUint64(buf[offset:], c.SnapshotChecksum)
	offset += 8

	binary.BigEndian.PutUint32(buf[offset:], uint32(len(c.Content)))
	offset += 4

	copy(buf[offset:], c.Content)

	return buf
}

/*
	DecodeChunk parses the wire layout produced by EncodeChunk; any truncation or length field
	that would read past the end of buf is reported as a DecodeError rather than panicking
*/

func DecodeChunk(buf []byte) (*Chunk, error) {
	offset := 0

	snapshotId, next, err := getString(buf, offset)
	if err != nil { return nil, err }
	offset = next

	totalCount, next, err := getUint32(buf, offset)
	if err != nil { return nil, err }
	offset = next

	chunkName, next, err := getString(buf, offset)
	if err != nil { return nil, err }
	offset = next

	checksum, next, err := getUint64(buf, offset)
	if err != nil { return nil, err }
	offset = next

	snapshotChecksum, next, err := getUint64(buf, offset)
	if err != nil { return nil, err }
	offset = next

	contentLen, next, err := getUint32(buf, offset)
	if err != nil { return nil, err }
	offset = next

	if offset+int(contentLen) > len(buf) { return nil, newDecodeError(offset, "content length overruns buffer") }

	content := make([]byte, contentLen)
	copy(content, buf[offset:offset+int(contentLen)])

	return &Chunk{
		SnapshotId: snapshotId,
		TotalCount: totalCount,
		ChunkName: chunkName,
		Content: content,
		Checksum: checksum,
		SnapshotChecksum: snapshotChecksum,
	}, nil
}

func putString(buf []byte, offset int, field []byte) int {
	binary.BigEndian.PutUint32(buf[offset:], uint32(len(field)))
	offset += 4

	copy(buf[offset:], field)
	return offset + len(field)
}

func getUint32(buf []byte, offset int) (uint32, int, error) {
	if offset+4 > len(buf) { return 0, offset, newDecodeError(offset, "truncated u32 field") }
	return binary.BigEndian.Uint32(buf[offset:]), offset + 4, nil
}

func getUint64(buf []byte, offset int) (uint64, int, error) {
	if offset+8 > len(buf) { return 0, offset, newDecodeError(offset, "truncated u64 field") }
	return binary.BigEndian.Uint64(buf[offset:]), offset + 8, nil
}

func getString(buf []byte, offset int) (string, int, error) {
	length, next, err := getUint32(buf, offset)
	if err != nil { return "", offset, err }

	if next+int(length) > len(buf) { return "", next, newDecodeError(next, "truncated string field") }

	value := string(buf[next : next+int(length)])
	return value, next + int(length), nil
}
