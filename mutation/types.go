package mutation

import (
	"crypto/md5"
	"encoding/binary"

	"github.com/google/uuid"
)

// TableID identifies a table. Opaque outside this package family:
// equality and map keys only.
type TableID uuid.UUID

func (id TableID) String() string {
	return uuid.UUID(id).String()
}

// ParseTableID parses the canonical UUID text form.
func ParseTableID(s string) (TableID, error) {
	u, err := uuid.Parse(s)
	return TableID(u), err
}

// NewTableID returns a fresh random table id.
func NewTableID() TableID {
	return TableID(uuid.New())
}

// SchemaVersion identifies one historical shape of a table's schema.
// It is a digest of the column mapping, so two tables with identical
// column sets share a version. Equality only.
type SchemaVersion [16]byte

func (v SchemaVersion) String() string {
	return uuid.UUID(v).String()
}

// ColumnKind is the role a column plays in the primary key.
type ColumnKind int8

const (
	PartitionKey ColumnKind = iota
	ClusteringKey
	Regular
	Static
)

// Column describes one column as it existed under some schema version.
type Column struct {
	ID   uint32
	Name string
	Type string
	Kind ColumnKind
}

// ColumnMapping is the snapshot of a table's columns under one schema
// version, sufficient to decode any mutation written under it.
// Immutable once built.
type ColumnMapping struct {
	Columns []Column
}

// Column returns the column with the given id.
func (m *ColumnMapping) Column(id uint32) (Column, bool) {
	for _, c := range m.Columns {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}

// ByName returns the column with the given name.
func (m *ColumnMapping) ByName(name string) (Column, bool) {
	for _, c := range m.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Version digests the mapping into its SchemaVersion.
func (m *ColumnMapping) Version() SchemaVersion {
	h := md5.New()
	var b [4]byte
	for _, c := range m.Columns {
		binary.LittleEndian.PutUint32(b[:], c.ID)
		h.Write(b[:])
		h.Write([]byte(c.Name))
		h.Write([]byte(c.Type))
		h.Write([]byte{byte(c.Kind)})
	}
	var v SchemaVersion
	copy(v[:], h.Sum(nil))
	return v
}

// Schema is a table's live schema: the current column mapping plus its
// version.
type Schema struct {
	Version SchemaVersion
	Mapping ColumnMapping
}

// NewSchema builds a Schema whose version is derived from the mapping.
func NewSchema(mapping ColumnMapping) *Schema {
	return &Schema{Version: mapping.Version(), Mapping: mapping}
}
