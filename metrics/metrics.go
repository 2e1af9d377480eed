package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Label constants. Each constant's name should end with `Label`.

	// Status code as defined by grpc/codes.
	StatusLabel = "status"
)

var (
	SpawnInputExpansions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spawnkit",
		Subsystem: "exec",
		Name:      "spawn_input_expansions",
		Help:      "Number of completed spawn input expansions, by gRPC status code.",
	}, []string{StatusLabel})

	SpawnInputMappingSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "spawnkit",
		Subsystem: "exec",
		Name:      "spawn_input_mapping_size",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
		Help:      "Number of entries in a completed spawn input mapping.",
	})

	InputMappingOverwrites = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "spawnkit",
		Subsystem: "exec",
		Name:      "input_mapping_overwrites",
		Help:      "Number of mapping entries overwritten by a later input resolving to the same sandbox path.",
	})
)
