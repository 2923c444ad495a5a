package replay

import (
	"github.com/tidemarkdb/tidemark/mutation"
	"github.com/tidemarkdb/tidemark/utils/log"
	"github.com/tidemarkdb/tidemark/wal"
)

// Watermarks holds, per shard, the highest commit log position already
// durable on disk for each table, and the minimum of those maxima
// across the shard's tables. Built once before replay and read-only
// afterwards; safe to share across shards.
type Watermarks struct {
	tables map[uint32]map[mutation.TableID]wal.Position
	min    map[uint32]wal.Position
}

// BuildWatermarks folds every table's sstable flush positions and
// truncation records into per-(shard, table) maxima, then derives each
// shard's global minimum.
//
// A table known to the catalog but with no files and no truncation
// record on some shard means nothing of it is durable there, so that
// shard's global minimum is forced back to the zero position. Without
// this, a freshly created table's writes would be skipped entirely.
func BuildWatermarks(cat Catalogue) (*Watermarks, error) {
	w := &Watermarks{
		tables: map[uint32]map[mutation.TableID]wal.Position{},
		min:    map[uint32]wal.Position{},
	}
	var known []mutation.TableID
	err := cat.ForEachTable(func(id mutation.TableID, t TableHandle) error {
		known = append(known, id)
		for _, sst := range t.SSTables() {
			p := sst.FlushPosition()
			log.Debug("table %s sstable gen %d -> position %v", id, sst.Generation, p)
			w.note(id, p)
		}
		for _, p := range t.TruncatedAt() {
			log.Debug("table %s truncated at %v", id, p)
			w.note(id, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for shard, perTable := range w.tables {
		first := true
		var min wal.Position
		for _, p := range perTable {
			if first || p.Less(min) {
				min = p
				first = false
			}
		}
		w.min[shard] = min
	}

	for shard, perTable := range w.tables {
		for _, id := range known {
			if _, ok := perTable[id]; !ok {
				w.min[shard] = wal.Position{}
				break
			}
		}
	}

	for shard, p := range w.min {
		log.Debug("minimum position for shard %d: %v", shard, p)
	}
	return w, nil
}

func (w *Watermarks) note(id mutation.TableID, p wal.Position) {
	perTable := w.tables[p.Shard]
	if perTable == nil {
		perTable = map[mutation.TableID]wal.Position{}
		w.tables[p.Shard] = perTable
	}
	perTable[id] = wal.MaxPosition(perTable[id], p)
}

// TableMax returns the highest durable position for (shard, table).
func (w *Watermarks) TableMax(shard uint32, id mutation.TableID) (wal.Position, bool) {
	p, ok := w.tables[shard][id]
	return p, ok
}

// GlobalMin returns the position below which no entry on the shard
// needs replaying. A shard with no recorded positions at all gets the
// zero position: everything replays.
func (w *Watermarks) GlobalMin(shard uint32) wal.Position {
	return w.min[shard]
}
