package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hiveops/hive-agent-go/internal/agent"
	"github.com/hiveops/hive-agent-go/internal/session"
	"github.com/hiveops/hive-agent-go/internal/store"
)

// AgentFactory authenticates against the Hive API with the given credentials
// and returns a fresh agent bound to that authenticated client. Login
// failures must carry the hive error taxonomy so the handler can map them to
// HTTP statuses.
type AgentFactory func(ctx context.Context, username, password string) (*agent.Agent, error)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8000).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// NewAgent builds an authenticated agent for POST /api/login.
	NewAgent AgentFactory
	// Transcripts receives completed turns. Nil disables transcript logging;
	// write failures are logged, never surfaced to the client.
	Transcripts store.TranscriptStore
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// Metrics is the Prometheus registry backing /metrics. If nil a fresh
	// registry is created.
	Metrics *prometheus.Registry
}

// Server is the HTTP front end over the session registry.
type Server struct {
	cfg        *Config
	sessions   *session.Registry
	httpServer *http.Server
	log        *slog.Logger
	pingers    []Pinger
	metrics    *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// loginRequest is the JSON body for POST /api/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the JSON response for POST /api/login.
type loginResponse struct {
	SessionID string `json:"session_id"`
}

// chatRequest is the JSON body for POST /api/chat.
type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// chatResponse is the JSON response for POST /api/chat.
type chatResponse struct {
	Response string `json:"response"`
}

// sessionRequest is the JSON body for POST /api/reset and POST /api/logout.
type sessionRequest struct {
	SessionID string `json:"session_id"`
}

// messageResponse is the generic JSON acknowledgement body.
type messageResponse struct {
	Message string `json:"message"`
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
