package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Health statuses reported by Monitor.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Health is a point-in-time view of one upstream.
type Health struct {
	Name          string
	State         gobreaker.State
	Counts        gobreaker.Counts
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string
}

// Status maps the breaker state onto healthy, degraded or unhealthy.
func (h Health) Status() string {
	switch h.State {
	case gobreaker.StateOpen:
		return StatusUnhealthy
	case gobreaker.StateHalfOpen:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}

// Monitor tracks the outcome of calls made through resilient clients.
type Monitor struct {
	mu       sync.RWMutex
	upstream map[string]*tracked
	now      func() time.Time
}

type tracked struct {
	client        *Client
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

// NewMonitor creates an empty monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		upstream: make(map[string]*tracked),
		now:      time.Now,
	}
}

// Track starts reporting on the client under its name.
func (m *Monitor) Track(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upstream[c.Name()] = &tracked{client: c}
}

// Succeeded records a successful call. Unknown names are ignored.
func (m *Monitor) Succeeded(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.upstream[name]; ok {
		now := m.now()
		t.lastSuccessAt = &now
	}
}

// Failed records a failed call. Unknown names are ignored.
func (m *Monitor) Failed(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.upstream[name]; ok {
		now := m.now()
		t.lastFailureAt = &now
		if err != nil {
			t.lastError = err.Error()
		}
	}
}

// Health returns the view of a single upstream.
func (m *Monitor) Health(name string) (Health, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.upstream[name]
	if !ok {
		return Health{}, false
	}
	return t.health(name), true
}

// All returns every tracked upstream, sorted by name.
func (m *Monitor) All() []Health {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Health, 0, len(m.upstream))
	for name, t := range m.upstream {
		out = append(out, t.health(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Overall returns the worst status across all upstreams.
func (m *Monitor) Overall() string {
	status := StatusHealthy
	for _, h := range m.All() {
		switch h.Status() {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

func (t *tracked) health(name string) Health {
	return Health{
		Name:          name,
		State:         t.client.State(),
		Counts:        t.client.Counts(),
		LastSuccessAt: t.lastSuccessAt,
		LastFailureAt: t.lastFailureAt,
		LastError:     t.lastError,
	}
}
