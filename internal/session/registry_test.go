package session

import (
	"context"
	"sync"
	"testing"

	"github.com/hiveops/hive-agent-go/internal/agent"
	"github.com/hiveops/hive-agent-go/internal/hive"
	"github.com/hiveops/hive-agent-go/internal/llm"
)

type nopLLM struct{}

func (nopLLM) Chat(context.Context, []llm.Message, []llm.ToolDefinition) (*llm.Message, error) {
	m := llm.AssistantMessage("ok")
	return &m, nil
}

type nopExecutor struct{ closed bool }

func (e *nopExecutor) Execute(context.Context, string, map[string]any) (hive.Result, error) {
	return hive.Result{Success: true}, nil
}

func (e *nopExecutor) Close() error {
	e.closed = true
	return nil
}

type nopRetriever struct{}

func (nopRetriever) Retrieve(context.Context, string) (string, error) { return "", nil }
func (nopRetriever) Close() error                                     { return nil }

func newAgent(t *testing.T, exec *nopExecutor) *agent.Agent {
	t.Helper()
	a, err := agent.New(&agent.Config{LLM: nopLLM{}, Executor: exec, Retriever: nopRetriever{}})
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestRegistry_Lifecycle(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	exec := &nopExecutor{}
	s := r.Create(newAgent(t, exec))

	if s.ID == "" {
		t.Fatal("Create() returned empty session ID")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	got, ok := r.Get(s.ID)
	if !ok || got != s {
		t.Fatalf("Get(%q) = %v, %v", s.ID, got, ok)
	}
	if _, ok := r.Get("no-such-session"); ok {
		t.Error("Get() found a session that was never created")
	}

	if err := r.Remove(s.ID); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if !exec.closed {
		t.Error("Remove() did not close the agent")
	}
	if r.Len() != 0 {
		t.Errorf("Len() after Remove = %d, want 0", r.Len())
	}

	// Idempotent: removing again is a no-op.
	if err := r.Remove(s.ID); err != nil {
		t.Errorf("second Remove() error: %v", err)
	}
}

func TestRegistry_UniqueIDs(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		s := r.Create(newAgent(t, &nopExecutor{}))
		if seen[s.ID] {
			t.Fatalf("duplicate session ID %q", s.ID)
		}
		seen[s.ID] = true
	}
}

func TestRegistry_CloseAll(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	execs := make([]*nopExecutor, 3)
	for i := range execs {
		execs[i] = &nopExecutor{}
		r.Create(newAgent(t, execs[i]))
	}

	r.CloseAll()
	if r.Len() != 0 {
		t.Errorf("Len() after CloseAll = %d, want 0", r.Len())
	}
	for i, e := range execs {
		if !e.closed {
			t.Errorf("agent %d not closed", i)
		}
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := r.Create(newAgent(t, &nopExecutor{}))
			if _, ok := r.Get(s.ID); !ok {
				t.Errorf("session %q vanished", s.ID)
			}
			_ = r.Remove(s.ID)
		}()
	}
	wg.Wait()

	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}
