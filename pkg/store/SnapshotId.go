package store

import "fmt"
import "strconv"
import "strings"


//=========================================== Snapshot Id


const idFieldWidth = 19
const idSeparator = "-"

/*
	NewSnapshotId serializes (index, term, position) into the fixed-width, separator-joined
	string form. Zero-padding each field to idFieldWidth digits guarantees that lexicographic
	ordering of the serialized string matches numeric ordering of (index, term, position),
	which is what makes SnapshotId a totally ordered key
*/

func NewSnapshotId(index int64, term int64, position int64) string {
	return fmt.Sprintf("%0*d%s%0*d%s%0*d", idFieldWidth, index, idSeparator, idFieldWidth, term, idSeparator, idFieldWidth, position)
}

/*
	ParseSnapshotId reverses NewSnapshotId; a malformed id is a programmer error in this
	subsystem (ids are only ever produced by NewSnapshotId) so callers treat a parse failure
	as an IoFailure-class condition rather than corruption of an untrusted input
*/

func ParseSnapshotId(id string) (index int64, term int64, position int64, err error) {
	parts := strings.Split(id, idSeparator)
	if len(parts) != 3 { return 0, 0, 0, fmt.Errorf("malformed snapshot id: %q", id) }

	index, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil { return 0, 0, 0, fmt.Errorf("malformed snapshot id index: %w", err) }

	term, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil { return 0, 0, 0, fmt.Errorf("malformed snapshot id term: %w", err) }

	position, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil { return 0, 0, 0, fmt.Errorf("malformed snapshot id position: %w", err) }

	return index, term, position, nil
}

/*
	CompareSnapshotIds orders two ids the way the underlying string comparison already would;
	exported as a named comparison so callers don't need to know the serialization is
	lexicographically comparable by construction
*/

func CompareSnapshotIds(a string, b string) int {
	return strings.Compare(a, b)
}
