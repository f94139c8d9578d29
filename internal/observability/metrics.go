package observability

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics aggregates per-operation counters and latencies for the graph
// endpoints. It keeps a bounded window of recent durations per operation so
// percentile estimates stay cheap.
type Metrics struct {
	mu sync.Mutex

	requestTotal  atomic.Int64
	requestFailed atomic.Int64

	operations   map[string]*operationMetrics
	maxDurations int
}

type operationMetrics struct {
	count     atomic.Int64
	errors    atomic.Int64
	durations []time.Duration
}

// OperationStats is one operation's snapshot.
type OperationStats struct {
	Count    int64   `json:"count"`
	Errors   int64   `json:"errors"`
	AvgMs    float64 `json:"avgMs"`
	P95Ms    float64 `json:"p95Ms"`
	MaxMs    float64 `json:"maxMs"`
}

// NewMetrics creates a metrics collector keeping up to maxDurations samples
// per operation.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000
	}
	return &Metrics{
		operations:   make(map[string]*operationMetrics),
		maxDurations: maxDurations,
	}
}

var globalMetrics = NewMetrics(1000)

// GlobalMetrics returns the shared process-wide collector.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordRequest records one finished request for the operation.
func (m *Metrics) RecordRequest(operation string, duration time.Duration, failed bool) {
	m.requestTotal.Add(1)
	if failed {
		m.requestFailed.Add(1)
	}

	op := m.operation(operation)
	op.count.Add(1)
	if failed {
		op.errors.Add(1)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(op.durations) >= m.maxDurations {
		// drop the oldest half rather than shifting on every sample
		copy(op.durations, op.durations[len(op.durations)/2:])
		op.durations = op.durations[:len(op.durations)-len(op.durations)/2]
	}
	op.durations = append(op.durations, duration)
}

func (m *Metrics) operation(name string) *operationMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	if op, ok := m.operations[name]; ok {
		return op
	}
	op := &operationMetrics{}
	m.operations[name] = op
	return op
}

// Snapshot returns current stats keyed by operation name.
func (m *Metrics) Snapshot() map[string]OperationStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[string]OperationStats, len(m.operations))
	for name, op := range m.operations {
		stats := OperationStats{
			Count:  op.count.Load(),
			Errors: op.errors.Load(),
		}
		if len(op.durations) > 0 {
			sorted := make([]time.Duration, len(op.durations))
			copy(sorted, op.durations)
			sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

			var total time.Duration
			for _, d := range sorted {
				total += d
			}
			stats.AvgMs = float64(total.Microseconds()) / float64(len(sorted)) / 1000
			stats.P95Ms = float64(sorted[len(sorted)*95/100].Microseconds()) / 1000
			stats.MaxMs = float64(sorted[len(sorted)-1].Microseconds()) / 1000
		}
		snapshot[name] = stats
	}
	return snapshot
}

// Totals returns the overall request and failure counts.
func (m *Metrics) Totals() (total, failed int64) {
	return m.requestTotal.Load(), m.requestFailed.Load()
}
