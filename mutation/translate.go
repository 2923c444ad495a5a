package mutation

// Translate re-keys m's cells from the column mapping they were written
// under to the live schema, matching columns by name. Cells whose column
// no longer exists in the live schema are dropped; columns the live
// schema added since have no cell, which reads as null. The input
// mutation is not modified.
func Translate(m *Mutation, src *ColumnMapping, live *Schema) *Mutation {
	out := &Mutation{
		Table: m.Table,
		Token: m.Token,
		Key:   m.Key,
		Cells: make([]Cell, 0, len(m.Cells)),
	}
	for _, c := range m.Cells {
		srcCol, ok := src.Column(c.Column)
		if !ok {
			// Written under a mapping that does not describe its own
			// column. Nothing to translate against.
			continue
		}
		liveCol, ok := live.Mapping.ByName(srcCol.Name)
		if !ok {
			// Column dropped since the write.
			continue
		}
		out.Cells = append(out.Cells, Cell{
			Column:    liveCol.ID,
			Timestamp: c.Timestamp,
			Value:     c.Value,
		})
	}
	return out
}
