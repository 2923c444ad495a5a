package wal

import (
	"encoding/binary"
	"hash/crc32"
)

/*
	Segment file format (version 1)

	A segment is a plain sequence of frames with no file header. Each
	frame is:

		magic     uint16   0x544D
		flags     uint8
		reserved  uint8
		length    uint32   payload byte count as stored
		headerCRC uint32   CRC-32C over magic..length
		payload   [length]byte
		dataCRC   uint32   CRC-32C over payload

	All integers are little-endian. A frame whose header fails to parse,
	whose length field is zero (zero-filled preallocated space), or whose
	checksums mismatch marks the start of the corrupt tail.
*/

const (
	frameMagic      = 0x544D
	frameHeaderSize = 12
	frameTrailerLen = 4

	// FlagSnappy marks a snappy-compressed payload.
	FlagSnappy = 1 << 0

	// MaxFrameSize bounds a single framed entry. Anything larger is
	// treated as corruption rather than allocated.
	MaxFrameSize = 16 << 20
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func checksum(p []byte) uint32 {
	return crc32.Checksum(p, castagnoli)
}

// putFrameHeader fills hdr with the header for a payload of the given
// stored length and flags. hdr must be frameHeaderSize bytes.
func putFrameHeader(hdr []byte, flags byte, length uint32) {
	binary.LittleEndian.PutUint16(hdr[0:2], frameMagic)
	hdr[2] = flags
	hdr[3] = 0
	binary.LittleEndian.PutUint32(hdr[4:8], length)
	binary.LittleEndian.PutUint32(hdr[8:12], checksum(hdr[0:8]))
}

// parseFrameHeader validates hdr and extracts flags and stored payload
// length. ok is false when the bytes cannot be the start of a frame.
func parseFrameHeader(hdr []byte) (flags byte, length uint32, ok bool) {
	if binary.LittleEndian.Uint16(hdr[0:2]) != frameMagic {
		return 0, 0, false
	}
	length = binary.LittleEndian.Uint32(hdr[4:8])
	if length == 0 || length > MaxFrameSize {
		return 0, 0, false
	}
	if binary.LittleEndian.Uint32(hdr[8:12]) != checksum(hdr[0:8]) {
		return 0, 0, false
	}
	return hdr[2], length, true
}
