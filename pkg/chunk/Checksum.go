package chunk

import "sort"

import "github.com/cespare/xxhash/v2"


//=========================================== Checksum


/*
	ChecksumOfContent computes a deterministic, host-stable 64-bit checksum of a single chunk's
	content; xxhash.Sum64 is a pure byte-oracle (no host endianness, timing, or pointer leakage
	into the result) so two hosts hashing the same bytes always agree
*/

func ChecksumOfContent(content []byte) uint64 {
	return xxhash.Sum64(content)
}

/*
	CombinedChecksum folds the per-file checksum of an ordered sequence of file contents into a
	single whole-snapshot checksum

	the fold is order-sensitive by design, not commutative: files are expected to already be
	sorted by name ascending before being passed in here, and
	the digest absorbs each checksum in that order followed by the file's own length, so two
	snapshots with the same files in a different order produce different checksums
*/

func CombinedChecksum(orderedContents [][]byte) uint64 {
	digest := xxhash.New()

	for _, content := range orderedContents {
		perFile := ChecksumOfContent(content)

		var lenAndChecksum [16]byte
		putUint64(lenAndChecksum[0:8], perFile)
		putUint64(lenAndChecksum[8:16], uint64(len(content)))

		digest.Write(lenAndChecksum[:])
	}

	return digest.Sum64()
}

/*
	SortedFileNames returns names sorted ascending, matching the order the store and the chunk
	reader both use when computing or verifying a combined checksum
*/

func SortedFileNames(names []string) []string {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	return sorted
}

func putUint64(buf []byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * (7 - i)))
	}
}
