package catalog

import (
	"sync"

	"github.com/tidemarkdb/tidemark/mutation"
)

// Catalog is the live table catalogue: every table the process serves,
// plus the shard count of the current topology.
type Catalog struct {
	shards int

	mu     sync.RWMutex
	tables map[mutation.TableID]*Table
}

// New returns an empty catalog for a topology of the given shard count.
func New(shards int) *Catalog {
	return &Catalog{
		shards: shards,
		tables: map[mutation.TableID]*Table{},
	}
}

func (c *Catalog) ShardCount() int {
	return c.shards
}

// AddTable registers a table under a fresh id.
func (c *Catalog) AddTable(name string, schema *mutation.Schema) *Table {
	return c.AddTableWithID(mutation.NewTableID(), name, schema)
}

// AddTableWithID registers a table under a known id, e.g. when loading
// the catalog from disk.
func (c *Catalog) AddTableWithID(id mutation.TableID, name string, schema *mutation.Schema) *Table {
	t := newTable(id, name, schema)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[id] = t
	return t
}

// DropTable removes a table. Subsequent lookups return ErrNoSuchTable.
func (c *Catalog) DropTable(id mutation.TableID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tables, id)
}

// Lookup returns the table with the given id.
func (c *Catalog) Lookup(id mutation.TableID) (*Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[id]
	if !ok {
		return nil, ErrNoSuchTable
	}
	return t, nil
}

// ForEachTable invokes fn for every table in the catalog. Iteration
// stops at the first error.
func (c *Catalog) ForEachTable(fn func(id mutation.TableID, t *Table) error) error {
	c.mu.RLock()
	tables := make([]*Table, 0, len(c.tables))
	for _, t := range c.tables {
		tables = append(tables, t)
	}
	c.mu.RUnlock()
	for _, t := range tables {
		if err := fn(t.id, t); err != nil {
			return err
		}
	}
	return nil
}
