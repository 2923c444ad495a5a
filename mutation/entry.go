package mutation

import (
	"fmt"

	"github.com/vmihailenco/msgpack"
)

// MalformedPayloadError is returned when a framed buffer does not decode
// into a commit log entry.
type MalformedPayloadError string

func (e MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed commit log entry: %s", string(e))
}

// Entry is one framed commit log record: a mutation, the schema version
// it was written under, and, when the writer had just observed a schema
// change, the column mapping for that version embedded in-line.
type Entry struct {
	Mutation      Mutation
	SchemaVersion SchemaVersion
	// Mapping is non-nil iff the writer embedded the column mapping.
	Mapping *ColumnMapping
}

type wireCell struct {
	Column    uint32 `msgpack:"c"`
	Timestamp int64  `msgpack:"t"`
	Value     []byte `msgpack:"v"`
}

type wireColumn struct {
	ID   uint32 `msgpack:"i"`
	Name string `msgpack:"n"`
	Type string `msgpack:"t"`
	Kind int8   `msgpack:"k"`
}

type wireEntry struct {
	Table         []byte       `msgpack:"tbl"`
	SchemaVersion []byte       `msgpack:"ver"`
	Token         uint64       `msgpack:"tok"`
	Key           []byte       `msgpack:"key"`
	Cells         []wireCell   `msgpack:"cel"`
	Mapping       []wireColumn `msgpack:"map,omitempty"`
	HasMapping    bool         `msgpack:"hm"`
}

// EncodeEntry serializes e into the payload carried by one WAL frame.
func EncodeEntry(e *Entry) ([]byte, error) {
	w := wireEntry{
		Table:         append([]byte(nil), e.Mutation.Table[:]...),
		SchemaVersion: append([]byte(nil), e.SchemaVersion[:]...),
		Token:         e.Mutation.Token,
		Key:           e.Mutation.Key,
	}
	w.Cells = make([]wireCell, len(e.Mutation.Cells))
	for i, c := range e.Mutation.Cells {
		w.Cells[i] = wireCell{Column: c.Column, Timestamp: c.Timestamp, Value: c.Value}
	}
	if e.Mapping != nil {
		w.HasMapping = true
		w.Mapping = make([]wireColumn, len(e.Mapping.Columns))
		for i, c := range e.Mapping.Columns {
			w.Mapping[i] = wireColumn{ID: c.ID, Name: c.Name, Type: c.Type, Kind: int8(c.Kind)}
		}
	}
	data, err := msgpack.Marshal(&w)
	if err != nil {
		return nil, fmt.Errorf("failed to encode commit log entry: %w", err)
	}
	return data, nil
}

// DecodeEntry deserializes one framed buffer. Failures come back as
// MalformedPayloadError.
func DecodeEntry(buf []byte) (*Entry, error) {
	var w wireEntry
	if err := msgpack.Unmarshal(buf, &w); err != nil {
		return nil, MalformedPayloadError(err.Error())
	}
	if len(w.Table) != 16 {
		return nil, MalformedPayloadError(fmt.Sprintf("table id is %d bytes", len(w.Table)))
	}
	if len(w.SchemaVersion) != 16 {
		return nil, MalformedPayloadError(fmt.Sprintf("schema version is %d bytes", len(w.SchemaVersion)))
	}
	e := &Entry{}
	copy(e.Mutation.Table[:], w.Table)
	copy(e.SchemaVersion[:], w.SchemaVersion)
	e.Mutation.Token = w.Token
	e.Mutation.Key = w.Key
	e.Mutation.Cells = make([]Cell, len(w.Cells))
	for i, c := range w.Cells {
		e.Mutation.Cells[i] = Cell{Column: c.Column, Timestamp: c.Timestamp, Value: c.Value}
	}
	if w.HasMapping {
		m := &ColumnMapping{Columns: make([]Column, len(w.Mapping))}
		for i, c := range w.Mapping {
			m.Columns[i] = Column{ID: c.ID, Name: c.Name, Type: c.Type, Kind: ColumnKind(c.Kind)}
		}
		e.Mapping = m
	}
	return e, nil
}
