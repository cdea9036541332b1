package daemon

import (
	"runtime"
	"sort"
	"sync"
	"time"
)

// Health states.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus is the daemon's health at one point in time.
type HealthStatus struct {
	Status        string        `json:"status"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	MemoryMB      float64       `json:"memory_mb"`
	Goroutines    int           `json:"goroutines"`
	CheckedAt     time.Time     `json:"checked_at"`
	Version       string        `json:"version,omitempty"`
	Checks        []CheckResult `json:"checks,omitempty"`
}

// CheckResult is the result of a single named check.
type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// HealthChecker runs named checks, such as database access and the broker
// connection.
type HealthChecker struct {
	mu        sync.RWMutex
	startTime time.Time
	version   string
	checks    map[string]func() error
}

// NewHealthChecker creates a new health checker.
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
		version:   version,
		checks:    make(map[string]func() error),
	}
}

// AddCheck adds or replaces a named check.
func (h *HealthChecker) AddCheck(name string, check func() error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// RemoveCheck removes a named check.
func (h *HealthChecker) RemoveCheck(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.checks, name)
}

// Check runs every check. Any failing check makes the daemon unhealthy.
func (h *HealthChecker) Check() *HealthStatus {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := StatusHealthy
	results := make([]CheckResult, 0, len(names))
	for _, name := range names {
		r := CheckResult{Name: name, Healthy: true}
		if err := h.checks[name](); err != nil {
			r.Healthy = false
			r.Error = err.Error()
			status = StatusUnhealthy
		}
		results = append(results, r)
	}
	h.mu.RUnlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return &HealthStatus{
		Status:        status,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		MemoryMB:      float64(mem.Alloc) / 1024 / 1024,
		Goroutines:    runtime.NumGoroutine(),
		CheckedAt:     time.Now(),
		Version:       h.version,
		Checks:        results,
	}
}

// IsHealthy reports whether every check passes.
func (h *HealthChecker) IsHealthy() bool {
	return h.Check().Status == StatusHealthy
}

// Uptime returns how long the daemon has been running.
func (h *HealthChecker) Uptime() time.Duration {
	return time.Since(h.startTime)
}
