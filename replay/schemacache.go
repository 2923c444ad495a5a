package replay

import (
	"github.com/tidemarkdb/tidemark/mutation"
	"github.com/tidemarkdb/tidemark/utils/log"
)

// schemaCache memoizes column mappings by schema version, learning them
// lazily from entries that carry an embedded mapping. One cache exists
// per shard, owned by that shard's recovery worker, and is never shared
// across shards. Entries are only ever inserted: a version's mapping is
// immutable once seen.
type schemaCache struct {
	m map[mutation.SchemaVersion]*mutation.ColumnMapping
}

func newSchemaCache() *schemaCache {
	return &schemaCache{m: map[mutation.SchemaVersion]*mutation.ColumnMapping{}}
}

// resolve returns the column mapping the entry was written under.
func (c *schemaCache) resolve(e *mutation.Entry) (*mutation.ColumnMapping, error) {
	if m, ok := c.m[e.SchemaVersion]; ok {
		return m, nil
	}
	if e.Mapping == nil {
		return nil, UnknownSchemaVersionError(e.SchemaVersion)
	}
	log.Debug("new schema version %s learned from entry", e.SchemaVersion)
	c.m[e.SchemaVersion] = e.Mapping
	return e.Mapping, nil
}
