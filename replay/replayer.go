package replay

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tidemarkdb/tidemark/catalog"
	"github.com/tidemarkdb/tidemark/mutation"
	"github.com/tidemarkdb/tidemark/shard"
	"github.com/tidemarkdb/tidemark/utils/log"
	"github.com/tidemarkdb/tidemark/wal"
)

const defaultDispatchWindow = 128

// TableHandle is the slice of a table the replay core consumes: flush
// metadata and truncation history for watermark building, the live
// schema for translation, and the apply entry point.
type TableHandle interface {
	SSTables() []catalog.SSTableMeta
	TruncatedAt() []wal.Position
	Schema() *mutation.Schema
	Apply(*mutation.Mutation) error
}

// Catalogue is the capability the Replayer needs from the database:
// table enumeration and lookup, plus the shard count of the current
// topology. Lookup returns catalog.ErrNoSuchTable for dropped tables.
type Catalogue interface {
	ForEachTable(fn func(mutation.TableID, TableHandle) error) error
	Lookup(id mutation.TableID) (TableHandle, error)
	ShardCount() int
}

type liveCatalogue struct {
	c *catalog.Catalog
}

// WrapCatalog adapts a *catalog.Catalog to the Catalogue capability.
func WrapCatalog(c *catalog.Catalog) Catalogue {
	return liveCatalogue{c: c}
}

func (a liveCatalogue) ForEachTable(fn func(mutation.TableID, TableHandle) error) error {
	return a.c.ForEachTable(func(id mutation.TableID, t *catalog.Table) error {
		return fn(id, t)
	})
}

func (a liveCatalogue) Lookup(id mutation.TableID) (TableHandle, error) {
	t, err := a.c.Lookup(id)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (a liveCatalogue) ShardCount() int {
	return a.c.ShardCount()
}

// Replayer re-applies commit log segments left over from the previous
// run. Construction computes the durability watermarks; Recover streams
// the segments through them. One Replayer serves one boot.
type Replayer struct {
	cat    Catalogue
	marks  *Watermarks
	shards int
	window int
}

type Option func(*Replayer)

// WithDispatchWindow bounds the number of in-flight cross-shard applies
// per source shard.
func WithDispatchWindow(n int) Option {
	return func(r *Replayer) {
		r.window = n
	}
}

// NewReplayer builds the watermarks from the catalogue and returns a
// Replayer ready to recover segments.
func NewReplayer(cat Catalogue, opts ...Option) (*Replayer, error) {
	r := &Replayer{
		cat:    cat,
		shards: cat.ShardCount(),
		window: defaultDispatchWindow,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.shards <= 0 {
		return nil, fmt.Errorf("invalid shard count: %d", r.shards)
	}
	if r.window <= 0 {
		return nil, fmt.Errorf("invalid dispatch window: %d", r.window)
	}
	marks, err := BuildWatermarks(cat)
	if err != nil {
		return nil, fmt.Errorf("failed to build replay watermarks: %w", err)
	}
	r.marks = marks
	return r, nil
}

type segmentWork struct {
	path string
	desc wal.Descriptor
}

// RecoverFile replays a single segment.
func (r *Replayer) RecoverFile(path string) (Stats, error) {
	return r.Recover([]string{path})
}

// Recover replays the given segment files and returns the aggregate
// accounting. Files are partitioned by their writing shard; each shard
// worker replays its files serially, in the order given, while applies
// route to the shard owning the mutation's partition. Tail corruption
// is contained per segment; an I/O failure or a malformed file name
// aborts the run.
func (r *Replayer) Recover(files []string) (Stats, error) {
	log.Info("replaying %s", strings.Join(files, ", "))

	work := make([][]segmentWork, r.shards)
	for _, f := range files {
		d, err := wal.ParseDescriptor(f)
		if err != nil {
			return Stats{}, err
		}
		s := int(d.Shard) % r.shards
		work[s] = append(work[s], segmentWork{path: f, desc: d})
	}

	g := shard.NewGroup(r.shards)
	results := make([]Stats, r.shards)
	errs := make([]error, r.shards)
	var wg sync.WaitGroup
	for s := 0; s < r.shards; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			cache := newSchemaCache()
			win := shard.NewWindow(r.window)
			var total Stats
			for _, sw := range work[s] {
				st, err := r.recoverSegment(g, cache, win, sw)
				total = total.Add(st)
				if err != nil {
					errs[s] = fmt.Errorf("replay of %s failed: %w", sw.path, err)
					break
				}
				if st.CorruptBytes != 0 {
					log.Warn("corrupted segment %s: %d bytes skipped", sw.path, st.CorruptBytes)
				}
				log.Debug("replay of %s complete: %s", sw.path, st)
			}
			results[s] = total
		}(s)
	}
	wg.Wait()
	g.Stop()

	var total Stats
	for _, st := range results {
		total = total.Add(st)
	}
	for _, err := range errs {
		if err != nil {
			return total, err
		}
	}
	log.Info("log replay complete: %s", total)
	return total, nil
}

// recoverSegment replays one segment on the calling worker, waiting for
// every dispatched apply to land before returning, so a shard never has
// two segments in flight.
func (r *Replayer) recoverSegment(g *shard.Group, cache *schemaCache, win *shard.Window, sw segmentWork) (Stats, error) {
	rp := sw.desc.Position()
	gp := r.marks.GlobalMin(sw.desc.Shard)
	if rp.SegmentID < gp.SegmentID {
		log.Debug("skipping replay of fully-flushed %s", sw.path)
		return Stats{}, nil
	}
	var start uint32
	if rp.SegmentID == gp.SegmentID {
		start = gp.Offset
	}

	c := &counters{}
	var inflight sync.WaitGroup
	err := wal.ReadSegment(sw.path, start, func(buf []byte, pos wal.Position) error {
		r.process(g, cache, win, c, &inflight, buf, pos)
		return nil
	})
	inflight.Wait()

	var corrupt wal.SegmentCorruptError
	if errors.As(err, &corrupt) {
		c.corruptBytes.Add(uint64(corrupt.Bytes))
		err = nil
	}
	return c.snapshot(), err
}

// process decides one entry's fate: drop as invalid, skip as already
// durable, or dispatch to the shard owning its partition.
func (r *Replayer) process(g *shard.Group, cache *schemaCache, win *shard.Window, c *counters,
	inflight *sync.WaitGroup, buf []byte, pos wal.Position,
) {
	e, err := mutation.DecodeEntry(buf)
	if err != nil {
		c.invalid.Add(1)
		log.Warn("error replaying entry at %v: %v", pos, err)
		return
	}

	// Resolve the mapping before any skip decision: a skipped entry may
	// be the only carrier of its schema version's embedded mapping, and
	// a later entry in the same segment may need it.
	src, err := cache.resolve(e)
	if err != nil {
		c.invalid.Add(1)
		log.Warn("error replaying entry at %v: %v", pos, err)
		return
	}

	if pos.Less(r.marks.GlobalMin(pos.Shard)) {
		log.Debug("entry at %v is below the shard minimum, skipping", pos)
		c.skipped.Add(1)
		return
	}
	if tp, ok := r.marks.TableMax(pos.Shard, e.Mutation.Table); ok && pos.LessEq(tp) {
		log.Debug("entry for %s at %v is not past the flushed position %v, skipping",
			e.Mutation.Table, pos, tp)
		c.skipped.Add(1)
		return
	}

	dest := int(e.Mutation.Token % uint64(r.shards))
	win.Acquire()
	inflight.Add(1)
	g.Shard(dest).Submit(func() {
		defer inflight.Done()
		defer win.Release()
		r.apply(c, e, src, pos)
	})
}

// apply runs on the destination shard's executor.
func (r *Replayer) apply(c *counters, e *mutation.Entry, src *mutation.ColumnMapping, pos wal.Position) {
	t, err := r.cat.Lookup(e.Mutation.Table)
	if err != nil {
		if errors.Is(err, catalog.ErrNoSuchTable) {
			// The table was dropped after the entry was written.
			// Not an error, not invalid.
			log.Debug("dropping entry at %v for missing table %s", pos, e.Mutation.Table)
			return
		}
		c.invalid.Add(1)
		log.Warn("error replaying at %v: %v", pos, err)
		return
	}

	live := t.Schema()
	m := &e.Mutation
	if live.Version != e.SchemaVersion {
		m = mutation.Translate(m, src, live)
	}
	if err := t.Apply(m); err != nil {
		c.invalid.Add(1)
		log.Warn("error replaying at %v: %v", pos, err)
		return
	}
	c.applied.Add(1)
}
