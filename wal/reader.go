package wal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/snappy"

	"github.com/tidemarkdb/tidemark/utils/log"
)

// Handler consumes one framed entry payload together with the position of
// the frame's first byte. The buffer is only valid for the duration of
// the call; implementations that retain data must copy it.
type Handler func(buf []byte, pos Position) error

// ReadSegment streams the frames of the segment at path in file order,
// invoking h once per well-formed frame, starting at the given byte
// offset. The stream holds one frame in memory at a time.
//
// When the remaining bytes past the last well-formed frame cannot be
// framed, the scan stops cleanly and ReadSegment returns a
// SegmentCorruptError carrying the unreadable byte count. Any other
// error aborts the read: one returned by h is returned as-is, an I/O
// failure is returned wrapped with the segment path.
func ReadSegment(path string, offset uint32, h Handler) error {
	d, err := ParseDescriptor(path)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open segment %s: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat segment %s: %w", path, err)
	}
	size := fi.Size()

	if _, err := f.Seek(int64(offset), io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek segment %s to %d: %w", path, offset, err)
	}

	var (
		r       = bufio.NewReader(f)
		pos     = int64(offset)
		hdr     [frameHeaderSize]byte
		payload []byte
	)
	for pos < size {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				// Partial frame header at the tail.
				return SegmentCorruptError{Bytes: size - pos}
			}
			return fmt.Errorf("failed to read segment %s: %w", path, err)
		}
		flags, length, ok := parseFrameHeader(hdr[:])
		if !ok {
			return SegmentCorruptError{Bytes: size - pos}
		}

		need := int(length) + frameTrailerLen
		if cap(payload) < need {
			payload = make([]byte, need)
		}
		payload = payload[:need]
		if _, err := io.ReadFull(r, payload); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return SegmentCorruptError{Bytes: size - pos}
			}
			return fmt.Errorf("failed to read segment %s: %w", path, err)
		}
		body := payload[:length]
		if checksum(body) != binary.LittleEndian.Uint32(payload[length:]) {
			return SegmentCorruptError{Bytes: size - pos}
		}

		buf := body
		if flags&FlagSnappy != 0 {
			buf, err = snappy.Decode(nil, body)
			if err != nil {
				// The checksum held but the compressed stream does
				// not decode. Same containment as a checksum fail.
				log.Warn("segment %s: undecodable snappy frame at %d: %v", path, pos, err)
				return SegmentCorruptError{Bytes: size - pos}
			}
		}

		if err := h(buf, Position{SegmentID: d.SegmentID, Offset: uint32(pos), Shard: d.Shard}); err != nil {
			return err
		}
		pos += frameHeaderSize + int64(need)
	}
	return nil
}
