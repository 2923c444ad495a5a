package catalog

import (
	"bytes"
	"sync"

	"github.com/tidemarkdb/tidemark/mutation"
	"github.com/tidemarkdb/tidemark/wal"
)

// SSTableMeta is the slice of an on-disk table file's metadata the
// replay core consumes: where the file lives and the commit log
// position its contents were flushed at.
type SSTableMeta struct {
	Path         string `msgpack:"path"`
	Generation   uint64 `msgpack:"gen"`
	FlushSegment uint64 `msgpack:"seg"`
	FlushOffset  uint32 `msgpack:"off"`
	FlushShard   uint32 `msgpack:"shard"`
	RecordCount  uint64 `msgpack:"records"`
}

// FlushPosition returns the commit log position the file was flushed at.
func (m SSTableMeta) FlushPosition() wal.Position {
	return wal.Position{SegmentID: m.FlushSegment, Offset: m.FlushOffset, Shard: m.FlushShard}
}

type cell struct {
	timestamp int64
	value     []byte
}

type partition struct {
	key   []byte
	cells map[uint32]cell
}

// Table is one table in the catalog: its live schema, the metadata of
// its on-disk files, its truncation history, and the in-memory store
// replayed mutations land in.
type Table struct {
	id   mutation.TableID
	name string

	mu          sync.RWMutex
	schema      *mutation.Schema
	sstables    []SSTableMeta
	truncations []wal.Position
	parts       map[uint64]*partition
}

func newTable(id mutation.TableID, name string, schema *mutation.Schema) *Table {
	return &Table{
		id:     id,
		name:   name,
		schema: schema,
		parts:  map[uint64]*partition{},
	}
}

func (t *Table) ID() mutation.TableID { return t.id }
func (t *Table) Name() string         { return t.name }

// Schema returns the table's live schema.
func (t *Table) Schema() *mutation.Schema {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.schema
}

// SetSchema installs a new live schema, e.g. after an ALTER.
func (t *Table) SetSchema(s *mutation.Schema) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.schema = s
}

// SSTables returns the metadata of the table's on-disk files.
func (t *Table) SSTables() []SSTableMeta {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]SSTableMeta(nil), t.sstables...)
}

// AddSSTable records the metadata of one flushed file.
func (t *Table) AddSSTable(m SSTableMeta) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sstables = append(t.sstables, m)
}

// TruncatedAt returns the positions the operator truncated the table at.
func (t *Table) TruncatedAt() []wal.Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]wal.Position(nil), t.truncations...)
}

// Truncate records an operator truncation at pos.
func (t *Table) Truncate(pos wal.Position) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.truncations = append(t.truncations, pos)
}

// Apply merges one mutation into the in-memory store. Reconciliation is
// per-cell last-writer-wins on timestamp, ties broken by the larger
// value bytes, so applying the same mutation any number of times leaves
// the same state.
func (t *Table) Apply(m *mutation.Mutation) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.parts[m.Token]
	if p == nil {
		p = &partition{key: m.Key, cells: map[uint32]cell{}}
		t.parts[m.Token] = p
	}
	for _, c := range m.Cells {
		cur, ok := p.cells[c.Column]
		if ok && !wins(c, cur) {
			continue
		}
		p.cells[c.Column] = cell{timestamp: c.Timestamp, value: c.Value}
	}
	return nil
}

func wins(c mutation.Cell, cur cell) bool {
	if c.Timestamp != cur.timestamp {
		return c.Timestamp > cur.timestamp
	}
	return bytes.Compare(c.Value, cur.value) > 0
}

// Row returns the current cell values of one partition, keyed by column
// id. Nil when the partition has no data.
func (t *Table) Row(token uint64) map[uint32][]byte {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p := t.parts[token]
	if p == nil {
		return nil
	}
	out := make(map[uint32][]byte, len(p.cells))
	for id, c := range p.cells {
		out[id] = c.value
	}
	return out
}

// PartitionCount reports how many partitions hold data.
func (t *Table) PartitionCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.parts)
}
