package daemon

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks daemon counters. A snapshot is written to the state file
// so that `violet daemon status` can show it.
type Metrics struct {
	fixesProcessed atomic.Int64
	transitions    atomic.Int64
	reconciles     atomic.Int64
	errorsTotal    atomic.Int64

	mu               sync.RWMutex
	lastFixAt        time.Time
	lastTransitionAt time.Time
	lastError        string
	lastErrorAt      time.Time
	errorsByCategory map[string]int64
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{errorsByCategory: make(map[string]int64)}
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	FixesProcessedTotal int64            `json:"fixes_processed_total"`
	TransitionsTotal    int64            `json:"transitions_total"`
	ReconcilesTotal     int64            `json:"reconciles_total"`
	ErrorsTotal         int64            `json:"errors_total"`
	LastFixAt           *time.Time       `json:"last_fix_at,omitempty"`
	LastTransitionAt    *time.Time       `json:"last_transition_at,omitempty"`
	LastError           string           `json:"last_error,omitempty"`
	LastErrorAt         *time.Time       `json:"last_error_at,omitempty"`
	ErrorsByCategory    map[string]int64 `json:"errors_by_category,omitempty"`
}

// Snapshot returns a copy of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		FixesProcessedTotal: m.fixesProcessed.Load(),
		TransitionsTotal:    m.transitions.Load(),
		ReconcilesTotal:     m.reconciles.Load(),
		ErrorsTotal:         m.errorsTotal.Load(),
		LastFixAt:           timePtr(m.lastFixAt),
		LastTransitionAt:    timePtr(m.lastTransitionAt),
		LastError:           m.lastError,
		LastErrorAt:         timePtr(m.lastErrorAt),
		ErrorsByCategory:    make(map[string]int64, len(m.errorsByCategory)),
	}
	for k, v := range m.errorsByCategory {
		snap.ErrorsByCategory[k] = v
	}
	return snap
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// RecordFix records a processed location fix and the transitions it caused.
func (m *Metrics) RecordFix(transitions int) {
	m.fixesProcessed.Add(1)
	m.transitions.Add(int64(transitions))

	now := time.Now()
	m.mu.Lock()
	m.lastFixAt = now
	if transitions > 0 {
		m.lastTransitionAt = now
	}
	m.mu.Unlock()
}

// RecordReconcile records a reconcile run.
func (m *Metrics) RecordReconcile() {
	m.reconciles.Add(1)
}

// RecordError records an error with category.
func (m *Metrics) RecordError(category string, err error) {
	m.errorsTotal.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastError = err.Error()
	m.lastErrorAt = time.Now()
	if category != "" {
		m.errorsByCategory[category]++
	}
}

// FixesProcessed returns the total fixes processed.
func (m *Metrics) FixesProcessed() int64 {
	return m.fixesProcessed.Load()
}

// Transitions returns the total region transitions.
func (m *Metrics) Transitions() int64 {
	return m.transitions.Load()
}

// ErrorsTotal returns the total errors.
func (m *Metrics) ErrorsTotal() int64 {
	return m.errorsTotal.Load()
}
