package agent

import (
	"sync"
	"sync/atomic"
	"time"
)

// MetricsRecorder receives orchestrator events.
type MetricsRecorder interface {
	// RecordQuery records a finished query and how many completion calls it took.
	RecordQuery(success bool, attempts int, duration time.Duration)
	// RecordErrorClass records one failed completion attempt by its class.
	RecordErrorClass(class ErrorClass)
	// RecordTruncation records a conversation that lost turns to the budget.
	RecordTruncation()
}

// AgentMetrics collects orchestrator metrics in process.
// All operations are thread-safe for concurrent access.
type AgentMetrics struct {
	mu sync.RWMutex

	queryDuration      []time.Duration // Recent query durations
	maxDurationSamples int

	totalQueries      atomic.Int64
	successfulQueries atomic.Int64
	failedQueries     atomic.Int64
	completionCalls   atomic.Int64

	transientErrors atomic.Int64
	permanentErrors atomic.Int64

	truncations atomic.Int64
}

// NewAgentMetrics creates a new metrics collector.
func NewAgentMetrics() *AgentMetrics {
	return &AgentMetrics{
		queryDuration:      make([]time.Duration, 0, 100),
		maxDurationSamples: 100,
	}
}

func (m *AgentMetrics) RecordQuery(success bool, attempts int, duration time.Duration) {
	m.totalQueries.Add(1)
	m.completionCalls.Add(int64(attempts))
	if success {
		m.successfulQueries.Add(1)
	} else {
		m.failedQueries.Add(1)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Keep only the last N samples
	if len(m.queryDuration) >= m.maxDurationSamples {
		m.queryDuration = m.queryDuration[1:]
	}
	m.queryDuration = append(m.queryDuration, duration)
}

func (m *AgentMetrics) RecordErrorClass(class ErrorClass) {
	switch class {
	case ErrorClassTransient:
		m.transientErrors.Add(1)
	case ErrorClassPermanent:
		m.permanentErrors.Add(1)
	}
}

func (m *AgentMetrics) RecordTruncation() {
	m.truncations.Add(1)
}

// GetSuccessRate returns the success rate as a percentage (0-100).
func (m *AgentMetrics) GetSuccessRate() float64 {
	total := m.totalQueries.Load()
	if total == 0 {
		return 0
	}
	return float64(m.successfulQueries.Load()) / float64(total) * 100
}

// GetAverageDuration returns the average query duration over recent samples.
func (m *AgentMetrics) GetAverageDuration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.queryDuration) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range m.queryDuration {
		sum += d
	}
	return sum / time.Duration(len(m.queryDuration))
}

// MetricsSnapshot is a point-in-time copy of AgentMetrics.
type MetricsSnapshot struct {
	TotalQueries      int64
	SuccessfulQueries int64
	FailedQueries     int64
	CompletionCalls   int64
	TransientErrors   int64
	PermanentErrors   int64
	Truncations       int64
	SuccessRate       float64
	AverageDuration   time.Duration
}

// Snapshot returns the current counters.
func (m *AgentMetrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TotalQueries:      m.totalQueries.Load(),
		SuccessfulQueries: m.successfulQueries.Load(),
		FailedQueries:     m.failedQueries.Load(),
		CompletionCalls:   m.completionCalls.Load(),
		TransientErrors:   m.transientErrors.Load(),
		PermanentErrors:   m.permanentErrors.Load(),
		Truncations:       m.truncations.Load(),
		SuccessRate:       m.GetSuccessRate(),
		AverageDuration:   m.GetAverageDuration(),
	}
}

// MultiRecorder fans events out to several recorders.
type MultiRecorder []MetricsRecorder

func (r MultiRecorder) RecordQuery(success bool, attempts int, duration time.Duration) {
	for _, rec := range r {
		rec.RecordQuery(success, attempts, duration)
	}
}

func (r MultiRecorder) RecordErrorClass(class ErrorClass) {
	for _, rec := range r {
		rec.RecordErrorClass(class)
	}
}

func (r MultiRecorder) RecordTruncation() {
	for _, rec := range r {
		rec.RecordTruncation()
	}
}

type noopRecorder struct{}

func (noopRecorder) RecordQuery(bool, int, time.Duration) {}
func (noopRecorder) RecordErrorClass(ErrorClass)          {}
func (noopRecorder) RecordTruncation()                    {}
