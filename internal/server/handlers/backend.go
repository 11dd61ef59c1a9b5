package handlers

import "context"

// BackendPinger is the liveness call of the search client.
type BackendPinger interface {
	Health(ctx context.Context) error
}

// BackendChecker adapts the search backend liveness probe to HealthChecker.
type BackendChecker struct {
	Backend BackendPinger
}

// CheckHealth probes the backend once.
func (c BackendChecker) CheckHealth(ctx context.Context) error {
	return c.Backend.Health(ctx)
}
