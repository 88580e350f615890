// Package session tracks the live conversations owned by the web layer. Each
// session maps an opaque ID to one agent; the registry also serialises turns
// per session, since an agent is not safe for concurrent use.
package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/hiveops/hive-agent-go/internal/agent"
)

// Session is one registered conversation.
type Session struct {
	// ID is the opaque token the client presents on every request.
	ID string

	// Agent is the conversation owned by this session.
	Agent *agent.Agent

	// mu serialises turns on this session.
	mu sync.Mutex
}

// Lock takes the session's turn lock.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session's turn lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Registry is a concurrency-safe map of session ID to Session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create registers a new session for the given agent and returns it. The
// session ID is a fresh random UUID.
func (r *Registry) Create(a *agent.Agent) *Session {
	s := &Session{
		ID:    uuid.NewString(),
		Agent: a,
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session with the given ID, or false when it does not exist.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove deregisters a session and closes its agent. Removing an unknown ID
// is a no-op, so logout stays idempotent.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return s.Agent.Close()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll closes every agent and empties the registry. Used at shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		_ = s.Agent.Close()
	}
}
