package replay

import (
	"fmt"
	"sync/atomic"
)

// Stats is the replay accounting for one segment, one shard, or the
// whole run. Addition is component-wise and commutative, so per-shard
// totals reduce to the same aggregate in any completion order.
type Stats struct {
	Applied      uint64
	Skipped      uint64
	Invalid      uint64
	CorruptBytes uint64
}

// Add returns the component-wise sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Applied:      s.Applied + o.Applied,
		Skipped:      s.Skipped + o.Skipped,
		Invalid:      s.Invalid + o.Invalid,
		CorruptBytes: s.CorruptBytes + o.CorruptBytes,
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("%d applied, %d skipped, %d invalid, %d corrupt bytes",
		s.Applied, s.Skipped, s.Invalid, s.CorruptBytes)
}

// counters is the mutable form of Stats while a segment is in flight.
// Applied and invalid are bumped from destination shard executors, the
// rest from the owning recovery worker, hence the atomics.
type counters struct {
	applied      atomic.Uint64
	skipped      atomic.Uint64
	invalid      atomic.Uint64
	corruptBytes atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Applied:      c.applied.Load(),
		Skipped:      c.skipped.Load(),
		Invalid:      c.invalid.Load(),
		CorruptBytes: c.corruptBytes.Load(),
	}
}
