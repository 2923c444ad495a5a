package replay_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tidemarkdb/tidemark/replay"
)

func TestStatsAdd(t *testing.T) {
	a := replay.Stats{Applied: 1, Skipped: 2, Invalid: 3, CorruptBytes: 4}
	b := replay.Stats{Applied: 10, Skipped: 20, Invalid: 30, CorruptBytes: 40}
	c := replay.Stats{Applied: 100, Skipped: 200, Invalid: 300, CorruptBytes: 400}

	want := replay.Stats{Applied: 111, Skipped: 222, Invalid: 333, CorruptBytes: 444}

	// Commutative and associative: the reduce is order-independent.
	assert.Equal(t, a.Add(b), b.Add(a))
	assert.Equal(t, want, a.Add(b).Add(c))
	assert.Equal(t, want, c.Add(b.Add(a)))
	assert.Equal(t, want, b.Add(c).Add(a))

	// Zero is the identity.
	assert.Equal(t, a, a.Add(replay.Stats{}))
}

func TestStatsString(t *testing.T) {
	s := replay.Stats{Applied: 5, Skipped: 2, Invalid: 1, CorruptBytes: 40}
	assert.Equal(t, "5 applied, 2 skipped, 1 invalid, 40 corrupt bytes", s.String())
}
