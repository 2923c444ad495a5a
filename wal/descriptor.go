package wal

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	segmentPrefix = "segment-"
	segmentExt    = ".log"
)

// Descriptor identifies one commit log segment file. The file name and
// the descriptor are a bijection: "segment-<id>-<shard>.log".
type Descriptor struct {
	SegmentID uint64
	Shard     uint32
}

// ParseDescriptor derives a Descriptor from a segment file path.
func ParseDescriptor(path string) (Descriptor, error) {
	name := filepath.Base(path)
	base, ok := strings.CutSuffix(name, segmentExt)
	if !ok {
		return Descriptor{}, InvalidSegmentNameError(name)
	}
	rest, ok := strings.CutPrefix(base, segmentPrefix)
	if !ok {
		return Descriptor{}, InvalidSegmentNameError(name)
	}
	idStr, shardStr, ok := strings.Cut(rest, "-")
	if !ok {
		return Descriptor{}, InvalidSegmentNameError(name)
	}
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return Descriptor{}, InvalidSegmentNameError(name)
	}
	shard, err := strconv.ParseUint(shardStr, 10, 32)
	if err != nil {
		return Descriptor{}, InvalidSegmentNameError(name)
	}
	d := Descriptor{SegmentID: id, Shard: uint32(shard)}
	if d.FileName() != name {
		return Descriptor{}, InvalidSegmentNameError(name)
	}
	return d, nil
}

// FileName renders the canonical file name for the descriptor.
func (d Descriptor) FileName() string {
	return fmt.Sprintf("%s%d-%d%s", segmentPrefix, d.SegmentID, d.Shard, segmentExt)
}

// Position returns the replay position of the segment's first byte.
func (d Descriptor) Position() Position {
	return Position{SegmentID: d.SegmentID, Shard: d.Shard}
}
