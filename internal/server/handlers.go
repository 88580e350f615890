package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hiveops/hive-agent-go/internal/hive"
	"github.com/hiveops/hive-agent-go/internal/logging"
	"github.com/hiveops/hive-agent-go/internal/store"
)

// handleLogin handles POST /api/login: it authenticates against the Hive API
// and registers a new session around a fresh agent.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	a, err := s.cfg.NewAgent(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, hive.ErrAuthentication):
			s.metrics.loginsTotal.WithLabelValues("unauthorized").Inc()
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, hive.ErrConnectivity):
			s.metrics.loginsTotal.WithLabelValues("error").Inc()
			writeError(w, http.StatusBadGateway, "hive api unreachable")
		default:
			s.metrics.loginsTotal.WithLabelValues("error").Inc()
			log.Error("login failed", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "login failed")
		}
		return
	}

	sess := s.sessions.Create(a)
	s.metrics.loginsTotal.WithLabelValues("ok").Inc()
	s.metrics.sessionsActive.Set(float64(s.sessions.Len()))

	log.Info("session created", slog.String("session_id", sess.ID))
	writeJSON(w, http.StatusOK, loginResponse{SessionID: sess.ID})
}

// handleChat handles POST /api/chat: it runs one conversation turn on the
// session's agent. Turns on the same session are serialised by the session
// lock; different sessions run concurrently.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	sess, ok := s.sessions.Get(req.SessionID)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	sess.Lock()
	defer sess.Unlock()

	start := time.Now()
	answer, err := sess.Agent.HandleTurn(r.Context(), req.Message)
	elapsed := time.Since(start)

	if err != nil {
		s.metrics.turnsTotal.WithLabelValues("error").Inc()
		s.metrics.turnDurationSeconds.WithLabelValues("error").Observe(elapsed.Seconds())
		log.Error("turn failed", slog.String("session_id", sess.ID), slog.Any("error", err))
		if errors.Is(err, hive.ErrConnectivity) {
			writeError(w, http.StatusBadGateway, "hive api unreachable")
			return
		}
		writeError(w, http.StatusInternalServerError, "turn failed")
		return
	}

	s.metrics.turnsTotal.WithLabelValues("ok").Inc()
	s.metrics.turnDurationSeconds.WithLabelValues("ok").Observe(elapsed.Seconds())
	for _, m := range sess.Agent.LastTurn() {
		for _, tc := range m.ToolCalls {
			s.metrics.toolCallsTotal.WithLabelValues(tc.Name).Inc()
		}
	}

	s.logTranscript(r, sess.ID, req.Message, answer)

	writeJSON(w, http.StatusOK, chatResponse{Response: answer})
}

// handleReset handles POST /api/reset: it clears the session's conversation
// history while keeping the session itself alive.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, ok := s.sessions.Get(req.SessionID)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	sess.Lock()
	sess.Agent.Reset()
	sess.Unlock()

	writeJSON(w, http.StatusOK, messageResponse{Message: "conversation reset"})
}

// handleLogout handles POST /api/logout: it closes the session's agent and
// removes the session. Logging out an unknown or already removed session is
// still a success, so retries are harmless.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.sessions.Remove(req.SessionID); err != nil {
		log.Warn("session close reported error",
			slog.String("session_id", req.SessionID),
			slog.Any("error", err),
		)
	}
	s.metrics.sessionsActive.Set(float64(s.sessions.Len()))

	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// logTranscript appends the completed turn to the transcript store.
// Best effort: a store failure is logged and otherwise ignored.
func (s *Server) logTranscript(r *http.Request, sessionID, userText, answer string) {
	if s.cfg.Transcripts == nil {
		return
	}
	log := logging.FromContext(r.Context())
	ctx := r.Context()
	if err := s.cfg.Transcripts.Append(ctx, sessionID, store.RoleUser, userText); err != nil {
		log.Warn("transcript write failed", slog.Any("error", err))
		return
	}
	if err := s.cfg.Transcripts.Append(ctx, sessionID, store.RoleAssistant, answer); err != nil {
		log.Warn("transcript write failed", slog.Any("error", err))
	}
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
