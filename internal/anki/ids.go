package anki

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"time"
)

// idAllocator hands out collection-unique row ids. Anki derives note and
// card ids from epoch milliseconds; notes and cards draw from one shared
// counter so ids never collide inside a collection.
type idAllocator struct {
	next int64
}

func newIDAllocator(now time.Time) *idAllocator {
	return &idAllocator{next: now.UnixMilli()}
}

func (a *idAllocator) take() int64 {
	id := a.next
	a.next++
	return id
}

// fieldChecksum is Anki's sort-field checksum: the first eight hex
// digits of the SHA-1 of the field, read as an integer.
func fieldChecksum(sortField string) int64 {
	sum := sha1.Sum([]byte(sortField))
	v, err := strconv.ParseInt(hex.EncodeToString(sum[:])[:8], 16, 64)
	if err != nil {
		return 0
	}
	return v
}
