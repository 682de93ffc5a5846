// Package health serves the /health and /metrics endpoints.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger is a dependency whose reachability is reported on /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Response is the /health body.
type Response struct {
	Status        string         `json:"status"`
	Service       string         `json:"service"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Components    map[string]any `json:"components,omitempty"`
}

// Server exposes health and Prometheus endpoints.
type Server struct {
	service  string
	start    time.Time
	gatherer prometheus.Gatherer

	mu      sync.RWMutex
	pingers map[string]Pinger

	now func() time.Time
}

// New creates a health server. gatherer may be nil to omit /metrics.
func New(service string, start time.Time, gatherer prometheus.Gatherer) *Server {
	return &Server{
		service:  service,
		start:    start,
		gatherer: gatherer,
		pingers:  make(map[string]Pinger),
		now:      time.Now,
	}
}

// AddCheck registers a named dependency check.
func (s *Server) AddCheck(name string, p Pinger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pingers[name] = p
}

// Handler returns an http.Handler with /health and /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := Response{
		Status:        "healthy",
		Service:       s.service,
		UptimeSeconds: s.now().Sub(s.start).Seconds(),
	}

	s.mu.RLock()
	if len(s.pingers) > 0 {
		resp.Components = make(map[string]any, len(s.pingers))
	}
	for name, p := range s.pingers {
		if err := p.Ping(ctx); err != nil {
			resp.Status = "unhealthy"
			resp.Components[name] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
			continue
		}
		resp.Components[name] = "connected"
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if resp.Status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(resp)
}
