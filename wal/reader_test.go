package wal_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidemarkdb/tidemark/wal"
)

type readRecord struct {
	buf []byte
	pos wal.Position
}

func writeTestSegment(t *testing.T, dir string, d wal.Descriptor, compress bool, payloads ...[]byte) (string, []wal.Position) {
	t.Helper()
	w, err := wal.CreateSegment(dir, d, compress)
	require.NoError(t, err)
	positions := make([]wal.Position, len(payloads))
	for i, p := range payloads {
		positions[i], err = w.Append(p)
		require.NoError(t, err)
	}
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())
	return filepath.Join(dir, d.FileName()), positions
}

func readAll(t *testing.T, path string, offset uint32) ([]readRecord, error) {
	t.Helper()
	var records []readRecord
	err := wal.ReadSegment(path, offset, func(buf []byte, pos wal.Position) error {
		records = append(records, readRecord{buf: append([]byte(nil), buf...), pos: pos})
		return nil
	})
	return records, err
}

func TestReadSegmentRoundTrip(t *testing.T) {
	dir := t.TempDir()
	d := wal.Descriptor{SegmentID: 7, Shard: 2}
	payloads := [][]byte{
		[]byte("first entry"),
		[]byte("second entry, somewhat longer than the first"),
		[]byte("third"),
	}
	path, positions := writeTestSegment(t, dir, d, false, payloads...)

	records, err := readAll(t, path, 0)
	require.NoError(t, err)
	require.Len(t, records, len(payloads))
	for i, r := range records {
		assert.Equal(t, payloads[i], r.buf)
		assert.Equal(t, positions[i], r.pos)
		assert.Equal(t, uint32(2), r.pos.Shard)
		assert.Equal(t, uint64(7), r.pos.SegmentID)
	}
}

func TestReadSegmentCompressed(t *testing.T) {
	dir := t.TempDir()
	d := wal.Descriptor{SegmentID: 1, Shard: 0}
	big := bytes.Repeat([]byte("tidemark"), 1000)
	path, _ := writeTestSegment(t, dir, d, true, big, []byte("small"))

	records, err := readAll(t, path, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, big, records[0].buf)
	assert.Equal(t, []byte("small"), records[1].buf)
}

func TestReadSegmentFromOffset(t *testing.T) {
	dir := t.TempDir()
	d := wal.Descriptor{SegmentID: 3, Shard: 1}
	path, positions := writeTestSegment(t, dir, d, false,
		[]byte("one"), []byte("two"), []byte("three"))

	records, err := readAll(t, path, positions[1].Offset)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []byte("two"), records[0].buf)
	assert.Equal(t, []byte("three"), records[1].buf)
}

func TestReadSegmentEmptyFile(t *testing.T) {
	dir := t.TempDir()
	d := wal.Descriptor{SegmentID: 9, Shard: 0}
	path, _ := writeTestSegment(t, dir, d, false)

	records, err := readAll(t, path, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadSegmentCorruptTail(t *testing.T) {
	dir := t.TempDir()
	d := wal.Descriptor{SegmentID: 4, Shard: 0}
	path, _ := writeTestSegment(t, dir, d, false, []byte("aa"), []byte("bb"), []byte("cc"))

	garbage := bytes.Repeat([]byte{0xFF}, 40)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o600)
	require.NoError(t, err)
	_, err = f.Write(garbage)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	records, err := readAll(t, path, 0)
	require.Len(t, records, 3)
	var corrupt wal.SegmentCorruptError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, int64(40), corrupt.Bytes)
}

func TestReadSegmentTruncatedFrame(t *testing.T) {
	dir := t.TempDir()
	d := wal.Descriptor{SegmentID: 4, Shard: 0}
	path, positions := writeTestSegment(t, dir, d, false, []byte("aa"), []byte("a longer final entry"))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	// Cut the last frame short by five bytes.
	require.NoError(t, os.Truncate(path, fi.Size()-5))

	records, err := readAll(t, path, 0)
	require.Len(t, records, 1)
	var corrupt wal.SegmentCorruptError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, fi.Size()-5-int64(positions[1].Offset), corrupt.Bytes)
}

func TestReadSegmentMidCorruptionStopsScan(t *testing.T) {
	dir := t.TempDir()
	d := wal.Descriptor{SegmentID: 5, Shard: 0}
	path, positions := writeTestSegment(t, dir, d, false,
		[]byte("good"), []byte("damaged"), []byte("unreached"))

	// Flip a payload byte inside the second frame. The reader does not
	// resynchronize: everything from that frame on counts as corrupt,
	// including the still well-formed third frame.
	f, err := os.OpenFile(path, os.O_RDWR, 0o600)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{'X'}, int64(positions[1].Offset)+12)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	fi, err := os.Stat(path)
	require.NoError(t, err)

	records, err := readAll(t, path, 0)
	require.Len(t, records, 1)
	assert.Equal(t, []byte("good"), records[0].buf)
	var corrupt wal.SegmentCorruptError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, fi.Size()-int64(positions[1].Offset), corrupt.Bytes)
}

func TestReadSegmentHandlerErrorAborts(t *testing.T) {
	dir := t.TempDir()
	d := wal.Descriptor{SegmentID: 6, Shard: 0}
	path, _ := writeTestSegment(t, dir, d, false, []byte("aa"), []byte("bb"))

	calls := 0
	sentinel := fmt.Errorf("stop here")
	err := wal.ReadSegment(path, 0, func(buf []byte, pos wal.Position) error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestReadSegmentMissingFile(t *testing.T) {
	_, err := readAll(t, filepath.Join(t.TempDir(), "segment-1-0.log"), 0)
	require.Error(t, err)
	// A missing file is an I/O failure, not tail corruption.
	var corrupt wal.SegmentCorruptError
	assert.False(t, errors.As(err, &corrupt))
}

func TestReadSegmentBadName(t *testing.T) {
	err := wal.ReadSegment("not-a-segment.bin", 0, func([]byte, wal.Position) error { return nil })
	assert.IsType(t, wal.InvalidSegmentNameError(""), err)
}
