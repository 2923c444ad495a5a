package wal

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/snappy"
)

// Writer appends framed entries to a single segment file. It is the
// write-side counterpart of ReadSegment and is not safe for concurrent
// use; one shard owns one open segment at a time.
type Writer struct {
	f        *os.File
	desc     Descriptor
	offset   uint32
	compress bool
	scratch  []byte
}

// CreateSegment creates the segment file for d under dir. With compress
// set, every appended payload is stored snappy-compressed.
func CreateSegment(dir string, d Descriptor, compress bool) (*Writer, error) {
	path := filepath.Join(dir, d.FileName())
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create segment %s: %w", path, err)
	}
	return &Writer{f: f, desc: d, compress: compress}, nil
}

// Append frames payload and writes it to the segment, returning the
// position of the frame's first byte.
func (w *Writer) Append(payload []byte) (Position, error) {
	pos := Position{SegmentID: w.desc.SegmentID, Offset: w.offset, Shard: w.desc.Shard}

	var flags byte
	body := payload
	if w.compress {
		w.scratch = snappy.Encode(w.scratch[:0], payload)
		body = w.scratch
		flags |= FlagSnappy
	}
	if len(body) > MaxFrameSize {
		return Position{}, fmt.Errorf("entry of %d bytes exceeds max frame size", len(body))
	}

	var hdr [frameHeaderSize]byte
	putFrameHeader(hdr[:], flags, uint32(len(body)))
	if _, err := w.f.Write(hdr[:]); err != nil {
		return Position{}, fmt.Errorf("failed to write frame header: %w", err)
	}
	if _, err := w.f.Write(body); err != nil {
		return Position{}, fmt.Errorf("failed to write frame payload: %w", err)
	}
	var trailer [frameTrailerLen]byte
	binary.LittleEndian.PutUint32(trailer[:], checksum(body))
	if _, err := w.f.Write(trailer[:]); err != nil {
		return Position{}, fmt.Errorf("failed to write frame checksum: %w", err)
	}

	w.offset += frameHeaderSize + uint32(len(body)) + frameTrailerLen
	return pos, nil
}

// Offset returns the position the next Append will be framed at.
func (w *Writer) Offset() uint32 {
	return w.offset
}

// Sync flushes the segment to stable storage.
func (w *Writer) Sync() error {
	return w.f.Sync()
}

func (w *Writer) Close() error {
	return w.f.Close()
}
