// Package quota gates outbound requests per source, combining a fixed-window
// request ceiling with a circuit breaker over consecutive failures. All checks
// fail fast: a request that would exceed the ceiling is rejected before any
// network call is attempted, never queued.
package quota

import (
	"sync"
	"time"

	"github.com/jonathan/jobscout/internal/metrics"
)

// CircuitState is the per-source breaker state.
type CircuitState int

const (
	// CircuitClosed allows requests.
	CircuitClosed CircuitState = iota
	// CircuitOpen blocks requests until the cool-down elapses.
	CircuitOpen
	// CircuitHalfOpen allows exactly one probe request.
	CircuitHalfOpen
)

// String returns the lowercase state label.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Limits configures one source's budget.
type Limits struct {
	// Ceiling is the maximum number of requests per window.
	Ceiling int
	// Window is the fixed interval the ceiling applies to. Window boundaries
	// are aligned to UTC (e.g. a 24h window resets at UTC midnight).
	Window time.Duration
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold int
	// Cooldown is how long the circuit stays open before allowing a probe.
	Cooldown time.Duration
}

// DefaultLimits returns the budget applied to sources without explicit limits.
func DefaultLimits() Limits {
	return Limits{
		Ceiling:          500,
		Window:           24 * time.Hour,
		FailureThreshold: 3,
		Cooldown:         10 * time.Minute,
	}
}

// budget is the mutable per-source state. Guarded by Manager.mu.
type budget struct {
	limits        Limits
	windowStart   time.Time
	used          int
	failures      int
	state         CircuitState
	reopenAt      time.Time
	probeInFlight bool
}

// Status is a read-only snapshot of one source's budget.
type Status struct {
	Source      string
	State       CircuitState
	Used        int
	Ceiling     int
	WindowStart time.Time
	Failures    int
}

// Manager tracks request budgets and circuit state for all sources. It is safe
// for concurrent use; the check-then-increment in Allow holds the lock so
// concurrent callers can never jointly exceed a ceiling.
type Manager struct {
	mu      sync.Mutex
	budgets map[string]*budget
	metrics *metrics.Manager
	now     func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithMetrics wires quota rejections and circuit transitions into Prometheus.
func WithMetrics(m *metrics.Manager) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

// WithClock overrides the clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(mgr *Manager) { mgr.now = now }
}

// NewManager creates an empty quota manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		budgets: make(map[string]*budget),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register creates the budget for a source. Registering an already-known
// source replaces its limits but keeps accumulated state.
func (m *Manager) Register(source string, limits Limits) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.budgets[source]; ok {
		b.limits = limits
		return
	}
	m.budgets[source] = &budget{
		limits:      limits,
		windowStart: m.now().UTC().Truncate(limits.Window),
	}
}

// Allow reports whether the source may issue one request now, and consumes one
// unit of its budget if so. Unregistered sources are denied.
func (m *Manager) Allow(source string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.budgets[source]
	if !ok {
		m.reject(source, "unregistered")
		return false
	}

	now := m.now().UTC()
	m.refillWindow(b, now)

	switch b.state {
	case CircuitOpen:
		if now.Before(b.reopenAt) {
			m.reject(source, "circuit_open")
			return false
		}
		m.transition(source, b, CircuitHalfOpen)
	case CircuitHalfOpen:
		if b.probeInFlight {
			m.reject(source, "probe_in_flight")
			return false
		}
	}

	if b.used >= b.limits.Ceiling {
		m.reject(source, "ceiling")
		return false
	}

	b.used++
	if b.state == CircuitHalfOpen {
		b.probeInFlight = true
	}
	return true
}

// Permitted reports whether a request for the source would currently be
// allowed, without consuming budget. The orchestrator uses it to skip sources
// up front; adapters still go through Allow for every outbound call.
func (m *Manager) Permitted(source string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.budgets[source]
	if !ok {
		return false
	}

	now := m.now().UTC()
	m.refillWindow(b, now)

	if b.state == CircuitOpen && now.Before(b.reopenAt) {
		return false
	}
	if b.state == CircuitHalfOpen && b.probeInFlight {
		return false
	}
	return b.used < b.limits.Ceiling
}

// RecordResult reports the outcome of a request previously allowed for the
// source. A positive retryAfter (from a 429-equivalent response) opens the
// circuit until that hint elapses, regardless of the failure count.
func (m *Manager) RecordResult(source string, success bool, retryAfter time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.budgets[source]
	if !ok {
		return
	}

	now := m.now().UTC()

	if success {
		b.failures = 0
		b.probeInFlight = false
		if b.state != CircuitClosed {
			m.transition(source, b, CircuitClosed)
		}
		return
	}

	b.failures++
	b.probeInFlight = false

	if retryAfter > 0 {
		b.reopenAt = now.Add(retryAfter)
		if b.state != CircuitOpen {
			m.transition(source, b, CircuitOpen)
		}
		return
	}

	switch b.state {
	case CircuitHalfOpen:
		// Probe failed: back to open for another cool-down.
		b.reopenAt = now.Add(b.limits.Cooldown)
		m.transition(source, b, CircuitOpen)
	case CircuitClosed:
		if b.failures >= b.limits.FailureThreshold {
			b.reopenAt = now.Add(b.limits.Cooldown)
			m.transition(source, b, CircuitOpen)
		}
	}
}

// Snapshot returns the current status of every registered source.
func (m *Manager) Snapshot() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	out := make([]Status, 0, len(m.budgets))
	for source, b := range m.budgets {
		m.refillWindow(b, now)
		out = append(out, Status{
			Source:      source,
			State:       b.state,
			Used:        b.used,
			Ceiling:     b.limits.Ceiling,
			WindowStart: b.windowStart,
			Failures:    b.failures,
		})
	}
	return out
}

// refillWindow resets the request counter when a window boundary has passed.
// Caller holds the lock.
func (m *Manager) refillWindow(b *budget, now time.Time) {
	start := now.Truncate(b.limits.Window)
	if start.After(b.windowStart) {
		b.windowStart = start
		b.used = 0
	}
}

// transition changes circuit state and records the transition. Caller holds the lock.
func (m *Manager) transition(source string, b *budget, to CircuitState) {
	b.state = to
	if to == CircuitClosed {
		b.failures = 0
	}
	if m.metrics != nil {
		m.metrics.CircuitTransition(source, to.String())
	}
}

// reject records a fail-fast rejection. Caller holds the lock.
func (m *Manager) reject(source, reason string) {
	if m.metrics != nil {
		m.metrics.QuotaRejected(source, reason)
	}
}
