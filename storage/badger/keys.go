package badger

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Key prefixes for different data types
const (
	jobRecordPrefix  = "jobrec"
	jobEndTimePrefix = "jobrece"
)

// makeJobKey generates a key for an archived job by id.
func makeJobKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", jobRecordPrefix, id))
}

// makeJobEndKey generates a composite key for the end-time index.
// Format: prefix:endTime:id
func makeJobEndKey(end time.Time, id string) []byte {
	prefix := jobEndTimePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 + len(id)
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(end.UnixMicro()))
	offset += 8
	copy(buf[offset:], id)
	return buf
}

// makePartialJobEndKey generates a partial key for end-time range scans.
// Format: prefix:endTime
func makePartialJobEndKey(end time.Time) []byte {
	prefix := jobEndTimePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(end.UnixMicro()))
	return buf
}
