package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack"
	"gopkg.in/yaml.v2"

	"github.com/tidemarkdb/tidemark/mutation"
	"github.com/tidemarkdb/tidemark/utils/log"
	"github.com/tidemarkdb/tidemark/wal"
)

/*
	On-disk catalog layout, one directory per table:

		<root>/<table-uuid>/schema.yml
		<root>/<table-uuid>/truncations.yml    (optional)
		<root>/<table-uuid>/sst-<gen>.meta     (zero or more)

	schema.yml carries the table name and the live columns;
	sst-*.meta files are msgpack-encoded SSTableMeta.
*/

const (
	schemaFileName      = "schema.yml"
	truncationsFileName = "truncations.yml"
	sstMetaPrefix       = "sst-"
	sstMetaExt          = ".meta"
)

type schemaFile struct {
	Name    string `yaml:"name"`
	Columns []struct {
		ID   uint32 `yaml:"id"`
		Name string `yaml:"name"`
		Type string `yaml:"type"`
		Kind int8   `yaml:"kind"`
	} `yaml:"columns"`
}

type truncationsFile struct {
	Truncations []struct {
		Segment uint64 `yaml:"segment"`
		Offset  uint32 `yaml:"offset"`
		Shard   uint32 `yaml:"shard"`
	} `yaml:"truncations"`
}

// Load scans root and builds the catalog from the table directories
// found there. Directories whose names are not table ids are skipped.
func Load(root string, shards int) (*Catalog, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("unable to read catalog root %s: %w", root, err)
	}
	c := New(shards)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, err := mutation.ParseTableID(e.Name())
		if err != nil {
			continue
		}
		if err := loadTable(c, id, filepath.Join(root, e.Name())); err != nil {
			return nil, fmt.Errorf("failed to load table %s: %w", e.Name(), err)
		}
	}
	return c, nil
}

func loadTable(c *Catalog, id mutation.TableID, dir string) error {
	data, err := os.ReadFile(filepath.Join(dir, schemaFileName))
	if err != nil {
		return fmt.Errorf("failed to read table schema: %w", err)
	}
	var sf schemaFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("failed to parse table schema: %w", err)
	}
	mapping := mutation.ColumnMapping{Columns: make([]mutation.Column, len(sf.Columns))}
	for i, col := range sf.Columns {
		mapping.Columns[i] = mutation.Column{
			ID:   col.ID,
			Name: col.Name,
			Type: col.Type,
			Kind: mutation.ColumnKind(col.Kind),
		}
	}
	t := c.AddTableWithID(id, sf.Name, mutation.NewSchema(mapping))

	if data, err := os.ReadFile(filepath.Join(dir, truncationsFileName)); err == nil {
		var tf truncationsFile
		if err := yaml.Unmarshal(data, &tf); err != nil {
			return fmt.Errorf("failed to parse truncation records: %w", err)
		}
		for _, p := range tf.Truncations {
			t.Truncate(wal.Position{SegmentID: p.Segment, Offset: p.Offset, Shard: p.Shard})
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read truncation records: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("unable to read table directory: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, sstMetaPrefix) || !strings.HasSuffix(name, sstMetaExt) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read sstable metadata %s: %w", name, err)
		}
		var meta SSTableMeta
		if err := msgpack.Unmarshal(data, &meta); err != nil {
			// A single unreadable metadata file should not keep the
			// node from booting; its writes will be replayed again,
			// which the apply path tolerates.
			log.Warn("could not read sstable metadata %s: %v", name, err)
			continue
		}
		t.AddSSTable(meta)
		log.Debug("sstable %s -> flush position %v", name, meta.FlushPosition())
	}
	return nil
}

// SaveTable writes a table's schema, truncation records, and sstable
// metadata under root in the layout Load reads. Used by tooling and
// tests; the storage engine owns these files in production.
func SaveTable(root string, t *Table) error {
	dir := filepath.Join(root, t.ID().String())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create table directory: %w", err)
	}

	sf := schemaFile{Name: t.Name()}
	for _, col := range t.Schema().Mapping.Columns {
		sf.Columns = append(sf.Columns, struct {
			ID   uint32 `yaml:"id"`
			Name string `yaml:"name"`
			Type string `yaml:"type"`
			Kind int8   `yaml:"kind"`
		}{col.ID, col.Name, col.Type, int8(col.Kind)})
	}
	data, err := yaml.Marshal(&sf)
	if err != nil {
		return fmt.Errorf("failed to encode table schema: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, schemaFileName), data, 0o640); err != nil {
		return fmt.Errorf("failed to write table schema: %w", err)
	}

	if truncs := t.TruncatedAt(); len(truncs) > 0 {
		var tf truncationsFile
		for _, p := range truncs {
			tf.Truncations = append(tf.Truncations, struct {
				Segment uint64 `yaml:"segment"`
				Offset  uint32 `yaml:"offset"`
				Shard   uint32 `yaml:"shard"`
			}{p.SegmentID, p.Offset, p.Shard})
		}
		data, err := yaml.Marshal(&tf)
		if err != nil {
			return fmt.Errorf("failed to encode truncation records: %w", err)
		}
		if err := os.WriteFile(filepath.Join(dir, truncationsFileName), data, 0o640); err != nil {
			return fmt.Errorf("failed to write truncation records: %w", err)
		}
	}

	for _, meta := range t.SSTables() {
		data, err := msgpack.Marshal(&meta)
		if err != nil {
			return fmt.Errorf("failed to encode sstable metadata: %w", err)
		}
		name := fmt.Sprintf("%s%d%s", sstMetaPrefix, meta.Generation, sstMetaExt)
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o640); err != nil {
			return fmt.Errorf("failed to write sstable metadata: %w", err)
		}
	}
	return nil
}
