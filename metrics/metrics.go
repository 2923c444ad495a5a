package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tidemarkdb/tidemark/replay"
)

var (
	namespace = "tidemark"
	subsystem = "replay"
)

var (
	// StartupTime stores how long boot-time replay took (in seconds).
	StartupTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "startup_seconds",
			Help:      "Seconds taken by boot-time commit log replay",
		},
	)

	// AppliedMutations counts mutations re-applied from the commit log.
	AppliedMutations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "applied_mutations_total",
		Help:      "Number of commit log mutations applied during replay",
	})

	// SkippedMutations counts mutations already durable in table files.
	SkippedMutations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "skipped_mutations_total",
		Help:      "Number of commit log mutations skipped as already flushed",
	})

	// InvalidMutations counts entries that could not be replayed.
	InvalidMutations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "invalid_mutations_total",
		Help:      "Number of commit log entries that failed to decode or apply",
	})

	// CorruptBytes counts unreadable segment tail bytes.
	CorruptBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "corrupt_bytes_total",
		Help:      "Number of unreadable commit log bytes skipped during replay",
	})
)

// RecordStats folds one replay run's accounting into the counters.
func RecordStats(s replay.Stats) {
	AppliedMutations.Add(float64(s.Applied))
	SkippedMutations.Add(float64(s.Skipped))
	InvalidMutations.Add(float64(s.Invalid))
	CorruptBytes.Add(float64(s.CorruptBytes))
}
