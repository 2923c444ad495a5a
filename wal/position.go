package wal

import "fmt"

// Position is a location in one shard's commit log: the id of a segment
// and a byte offset within it. Order is lexicographic on
// (SegmentID, Offset). Shard does not participate in the order; it
// partitions the namespace, and positions are only meaningfully compared
// within the same shard. The zero Position sorts before every position a
// writer can produce.
type Position struct {
	SegmentID uint64
	Offset    uint32
	Shard     uint32
}

// Less reports whether p sorts strictly before o.
func (p Position) Less(o Position) bool {
	if p.SegmentID != o.SegmentID {
		return p.SegmentID < o.SegmentID
	}
	return p.Offset < o.Offset
}

// LessEq reports whether p sorts before or equal to o.
func (p Position) LessEq(o Position) bool {
	return !o.Less(p)
}

func (p Position) IsZero() bool {
	return p.SegmentID == 0 && p.Offset == 0
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d@shard%d", p.SegmentID, p.Offset, p.Shard)
}

// MaxPosition returns the later of a and b.
func MaxPosition(a, b Position) Position {
	if a.Less(b) {
		return b
	}
	return a
}

// MinPosition returns the earlier of a and b.
func MinPosition(a, b Position) Position {
	if b.Less(a) {
		return b
	}
	return a
}
