package mutation

// Cell is one column write inside a mutation. Timestamp is the writer's
// microsecond clock and drives last-writer-wins reconciliation.
type Cell struct {
	Column    uint32
	Timestamp int64
	Value     []byte
}

// Mutation is one write against one partition of one table.
type Mutation struct {
	Table TableID
	// Token is the partition key token: the hashed partition key, which
	// places the partition on its owning shard.
	Token uint64
	// Key is the raw partition key bytes.
	Key   []byte
	Cells []Cell
}
