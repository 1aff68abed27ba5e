package core

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// healthCheckTimeout is the maximum time allowed for all health probes.
const healthCheckTimeout = 2 * time.Second

// HealthProbe is a subsystem health check (database, weather upstream).
type HealthProbe interface {
	// Name returns a human-readable identifier for the probe.
	Name() string
	// Check performs the health check, respecting the context deadline.
	Check(ctx context.Context) error
}

type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components,omitempty"`
}

// HandleHealth runs all registered probes concurrently with a short timeout.
// Returns 200 when every probe is healthy, 503 otherwise. Public endpoint,
// mounted at GET /health.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	probes := s.HealthProbes
	if len(probes) == 0 {
		JSON(w, r, http.StatusOK, healthResponse{Status: "healthy"})
		return
	}

	components := make(map[string]componentStatus, len(probes))
	var mu sync.Mutex
	var wg sync.WaitGroup
	healthy := true

	for _, probe := range probes {
		wg.Add(1)
		go func(p HealthProbe) {
			defer wg.Done()
			err := p.Check(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				healthy = false
				components[p.Name()] = componentStatus{Status: "unhealthy", Message: err.Error()}
			} else {
				components[p.Name()] = componentStatus{Status: "healthy"}
			}
		}(probe)
	}
	wg.Wait()

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	JSON(w, r, code, healthResponse{Status: status, Components: components})
}
