package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hiveops/hive-agent-go/internal/logging"
)

// probeTimeout bounds each individual dependency probe on /api/ready so a
// hung Qdrant or Hive API connection cannot stall the whole readiness check.
const probeTimeout = 5 * time.Second

// Pinger reports reachability of one backing dependency. Implementations
// must be safe for concurrent use; the readiness handler may be hit by
// multiple orchestrators at once.
type Pinger interface {
	// Ping returns nil when the dependency answered within the context
	// deadline, or an error describing why it did not.
	Ping(ctx context.Context) error

	// Name labels the dependency in readiness responses ("qdrant", "hive-api").
	Name() string
}

// readyCheck is one dependency's probe outcome in the /api/ready body.
type readyCheck struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
	// Error holds the probe failure reason, empty when OK.
	Error string `json:"error,omitempty"`
}

// readyResponse is the JSON body of GET /api/ready.
type readyResponse struct {
	Ready  bool         `json:"ready"`
	Checks []readyCheck `json:"checks"`
}

// handleReady probes every configured dependency and answers 200 only when
// all of them are reachable, 503 otherwise. /api/health stays a pure liveness
// endpoint; this is the one that tells a load balancer whether chat turns can
// actually succeed.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	resp := readyResponse{
		Ready:  true,
		Checks: make([]readyCheck, 0, len(s.pingers)),
	}
	for _, p := range s.pingers {
		probeCtx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		err := p.Ping(probeCtx)
		cancel()

		check := readyCheck{Name: p.Name(), OK: err == nil}
		if err != nil {
			check.Error = err.Error()
			resp.Ready = false
			log.Warn("readiness probe failed",
				slog.String("dependency", p.Name()),
				slog.Any("error", err),
			)
		}
		resp.Checks = append(resp.Checks, check)
	}

	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error("ready encode error", slog.Any("error", err))
	}
}
