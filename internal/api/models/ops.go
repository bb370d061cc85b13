package models

// Health represents the liveness of this service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus reports on the route backend and every resilient upstream.
type SystemStatus struct {
	Status    HealthStatus     `json:"status"`
	Time      Timestamp        `json:"time"`
	Backend   BackendStatus    `json:"backend"`
	Upstreams []UpstreamStatus `json:"upstreams"`
}

// BackendStatus is the result of probing the backend health endpoint.
type BackendStatus struct {
	Reachable  bool            `json:"reachable"`
	Status     string          `json:"status,omitempty"`
	Configured map[string]bool `json:"configured,omitempty"`
	Message    *string         `json:"message,omitempty"`
}

// UpstreamStatus represents the circuit breaker view of one upstream.
type UpstreamStatus struct {
	Name                string       `json:"name"`
	Status              HealthStatus `json:"status"`
	CircuitState        string       `json:"circuitState"`
	Requests            uint32       `json:"requests"`
	ConsecutiveFailures uint32       `json:"consecutiveFailures"`
	LastSuccessAt       *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt       *Timestamp   `json:"lastFailureAt,omitempty"`
	Message             *string      `json:"message,omitempty"`
}
