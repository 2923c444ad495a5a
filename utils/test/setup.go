package test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tidemarkdb/tidemark/mutation"
	"github.com/tidemarkdb/tidemark/wal"
)

// TwoColumnMapping is the simplest realistic table shape: a partition
// key and one regular column.
func TwoColumnMapping() mutation.ColumnMapping {
	return mutation.ColumnMapping{Columns: []mutation.Column{
		{ID: 1, Name: "key", Type: "text", Kind: mutation.PartitionKey},
		{ID: 2, Name: "val", Type: "text", Kind: mutation.Regular},
	}}
}

// MakeEntry builds a single-cell commit log entry for the given table
// and schema. With embed set, the schema's column mapping travels in
// the entry, the way a writer embeds it after observing a schema
// change.
func MakeEntry(table mutation.TableID, schema *mutation.Schema, token uint64, ts int64, val string, embed bool) *mutation.Entry {
	valCol, ok := schema.Mapping.ByName("val")
	if !ok {
		panic("schema has no val column")
	}
	e := &mutation.Entry{
		Mutation: mutation.Mutation{
			Table: table,
			Token: token,
			Key:   []byte("k"),
			Cells: []mutation.Cell{{Column: valCol.ID, Timestamp: ts, Value: []byte(val)}},
		},
		SchemaVersion: schema.Version,
	}
	if embed {
		m := schema.Mapping
		e.Mapping = &m
	}
	return e
}

// WriteSegment creates the segment file for d under dir and appends the
// given entries, returning the position of each.
func WriteSegment(tb testing.TB, dir string, d wal.Descriptor, entries []*mutation.Entry) []wal.Position {
	tb.Helper()
	w, err := wal.CreateSegment(dir, d, false)
	require.NoError(tb, err)
	defer func() { require.NoError(tb, w.Close()) }()

	positions := make([]wal.Position, len(entries))
	for i, e := range entries {
		buf, err := mutation.EncodeEntry(e)
		require.NoError(tb, err)
		positions[i], err = w.Append(buf)
		require.NoError(tb, err)
	}
	require.NoError(tb, w.Sync())
	return positions
}

// AppendGarbage appends n bytes that cannot parse as a frame to the
// file at path.
func AppendGarbage(tb testing.TB, path string, n int) {
	tb.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o600)
	require.NoError(tb, err)
	defer func() { require.NoError(tb, f.Close()) }()
	garbage := make([]byte, n)
	for i := range garbage {
		garbage[i] = 0xFF
	}
	_, err = f.Write(garbage)
	require.NoError(tb, err)
}

// SegmentPath returns where WriteSegment put the segment for d.
func SegmentPath(dir string, d wal.Descriptor) string {
	return filepath.Join(dir, d.FileName())
}
