package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/hiveops/hive-agent-go/internal/hive"
	"github.com/hiveops/hive-agent-go/internal/llm"
)

// scriptedLLM replays canned responses, recording what it was asked.
type scriptedLLM struct {
	responses []llm.Message
	calls     []struct {
		messages []llm.Message
		tools    []llm.ToolDefinition
	}
	failOn int // 1-based call number to fail on, 0 = never
}

func (s *scriptedLLM) Chat(_ context.Context, messages []llm.Message, tools []llm.ToolDefinition) (*llm.Message, error) {
	snapshot := make([]llm.Message, len(messages))
	copy(snapshot, messages)
	s.calls = append(s.calls, struct {
		messages []llm.Message
		tools    []llm.ToolDefinition
	}{snapshot, tools})

	if s.failOn == len(s.calls) {
		return nil, fmt.Errorf("model unavailable")
	}
	if len(s.responses) == 0 {
		return nil, fmt.Errorf("script exhausted")
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return &resp, nil
}

// fakeExecutor records dispatched tool names in order.
type fakeExecutor struct {
	results map[string]hive.Result
	order   []string
	hardErr error
	closed  bool
}

func (f *fakeExecutor) Execute(_ context.Context, name string, args map[string]any) (hive.Result, error) {
	f.order = append(f.order, name)
	if f.hardErr != nil {
		return hive.Result{}, f.hardErr
	}
	if r, ok := f.results[name]; ok {
		return r, nil
	}
	return hive.Result{Success: false, Error: "unknown tool: " + name}, nil
}

func (f *fakeExecutor) Close() error {
	f.closed = true
	return nil
}

type fakeRetriever struct {
	docs   string
	err    error
	closed bool
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string) (string, error) {
	return f.docs, f.err
}

func (f *fakeRetriever) Close() error {
	f.closed = true
	return nil
}

func newTestAgent(t *testing.T, model *scriptedLLM, exec *fakeExecutor, ret *fakeRetriever) *Agent {
	t.Helper()
	a, err := New(&Config{LLM: model, Executor: exec, Retriever: ret})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return a
}

func toolCallResponse(calls ...llm.ToolCall) llm.Message {
	return llm.Message{Role: llm.RoleAssistant, ToolCalls: calls}
}

func TestHandleTurn_ToolCallFlow(t *testing.T) {
	t.Parallel()

	model := &scriptedLLM{responses: []llm.Message{
		toolCallResponse(llm.ToolCall{ID: "call_1", Name: "list_tables", Arguments: `{"schema": "public"}`}),
		llm.AssistantMessage("public has 2 tables: measure, events"),
	}}
	exec := &fakeExecutor{results: map[string]hive.Result{
		"list_tables": {StatusCode: 200, Success: true, Data: []any{"measure", "events"}},
	}}
	ret := &fakeRetriever{docs: "GET /api/hive/tables lists tables in a schema."}
	a := newTestAgent(t, model, exec, ret)

	answer, err := a.HandleTurn(context.Background(), "what tables are in public?")
	if err != nil {
		t.Fatalf("HandleTurn() error: %v", err)
	}
	if answer != "public has 2 tables: measure, events" {
		t.Errorf("answer = %q", answer)
	}

	// System, augmented user, assistant tool call, tool result, final answer.
	history := a.History()
	if len(history) != 5 {
		t.Fatalf("history length = %d, want 5", len(history))
	}
	wantRoles := []llm.Role{llm.RoleSystem, llm.RoleUser, llm.RoleAssistant, llm.RoleTool, llm.RoleAssistant}
	for i, want := range wantRoles {
		if history[i].Role != want {
			t.Errorf("history[%d].Role = %q, want %q", i, history[i].Role, want)
		}
	}

	user := history[1].Content
	if !strings.Contains(user, "[Relevant API documentation]") ||
		!strings.Contains(user, ret.docs) ||
		!strings.Contains(user, "[User request]") ||
		!strings.Contains(user, "what tables are in public?") {
		t.Errorf("augmented prompt missing sections:\n%s", user)
	}

	if history[3].ToolCallID != "call_1" {
		t.Errorf("tool message ToolCallID = %q, want call_1", history[3].ToolCallID)
	}
	var res hive.Result
	if err := json.Unmarshal([]byte(history[3].Content), &res); err != nil {
		t.Fatalf("tool message is not a JSON result: %v", err)
	}
	if !res.Success || res.StatusCode != 200 {
		t.Errorf("tool result = %+v", res)
	}

	// First call offers tools, second call must not.
	if len(model.calls) != 2 {
		t.Fatalf("model calls = %d, want 2", len(model.calls))
	}
	if len(model.calls[0].tools) == 0 {
		t.Error("first model call had no tools")
	}
	if model.calls[1].tools != nil {
		t.Error("second model call still offered tools")
	}
}

func TestHandleTurn_NoToolCalls(t *testing.T) {
	t.Parallel()

	model := &scriptedLLM{responses: []llm.Message{
		llm.AssistantMessage("I can manage Hive tables and databases for you."),
	}}
	a := newTestAgent(t, model, &fakeExecutor{}, &fakeRetriever{})

	answer, err := a.HandleTurn(context.Background(), "what can you do?")
	if err != nil {
		t.Fatalf("HandleTurn() error: %v", err)
	}
	if answer == "" {
		t.Error("empty answer")
	}
	if got := len(a.History()); got != 3 {
		t.Errorf("history length = %d, want 3 (no second model call)", got)
	}
	if len(model.calls) != 1 {
		t.Errorf("model calls = %d, want 1", len(model.calls))
	}
}

func TestHandleTurn_MultipleCallsInModelOrder(t *testing.T) {
	t.Parallel()

	model := &scriptedLLM{responses: []llm.Message{
		toolCallResponse(
			llm.ToolCall{ID: "call_1", Name: "list_databases", Arguments: `{}`},
			llm.ToolCall{ID: "call_2", Name: "list_tables", Arguments: `{"schema": "public"}`},
		),
		llm.AssistantMessage("done"),
	}}
	exec := &fakeExecutor{results: map[string]hive.Result{
		"list_databases": {StatusCode: 200, Success: true},
		"list_tables":    {StatusCode: 200, Success: true},
	}}
	a := newTestAgent(t, model, exec, &fakeRetriever{})

	if _, err := a.HandleTurn(context.Background(), "show me everything"); err != nil {
		t.Fatalf("HandleTurn() error: %v", err)
	}

	if len(exec.order) != 2 || exec.order[0] != "list_databases" || exec.order[1] != "list_tables" {
		t.Errorf("execution order = %v, want model order", exec.order)
	}

	// One tool message per call ID, immediately after the assistant message.
	history := a.History()
	if len(history) != 6 {
		t.Fatalf("history length = %d, want 6", len(history))
	}
	if history[3].ToolCallID != "call_1" || history[4].ToolCallID != "call_2" {
		t.Errorf("tool message IDs = %q, %q", history[3].ToolCallID, history[4].ToolCallID)
	}
}

func TestHandleTurn_UnknownToolDoesNotAbort(t *testing.T) {
	t.Parallel()

	model := &scriptedLLM{responses: []llm.Message{
		toolCallResponse(llm.ToolCall{ID: "call_1", Name: "drop_everything", Arguments: `{}`}),
		llm.AssistantMessage("that operation does not exist"),
	}}
	a := newTestAgent(t, model, &fakeExecutor{}, &fakeRetriever{})

	answer, err := a.HandleTurn(context.Background(), "drop everything")
	if err != nil {
		t.Fatalf("HandleTurn() error: %v (unknown tool must not abort the turn)", err)
	}
	if answer != "that operation does not exist" {
		t.Errorf("answer = %q", answer)
	}

	var res hive.Result
	if err := json.Unmarshal([]byte(a.History()[3].Content), &res); err != nil {
		t.Fatal(err)
	}
	if res.Success || !strings.Contains(res.Error, "unknown tool") {
		t.Errorf("tool result = %+v, want unknown-tool failure envelope", res)
	}
}

func TestHandleTurn_MalformedArgumentsDoNotAbort(t *testing.T) {
	t.Parallel()

	model := &scriptedLLM{responses: []llm.Message{
		toolCallResponse(llm.ToolCall{ID: "call_1", Name: "list_tables", Arguments: `{"schema": `}),
		llm.AssistantMessage("I could not read the arguments"),
	}}
	exec := &fakeExecutor{}
	a := newTestAgent(t, model, exec, &fakeRetriever{})

	if _, err := a.HandleTurn(context.Background(), "list tables"); err != nil {
		t.Fatalf("HandleTurn() error: %v", err)
	}
	if len(exec.order) != 0 {
		t.Errorf("executor was called with malformed arguments: %v", exec.order)
	}
	var res hive.Result
	if err := json.Unmarshal([]byte(a.History()[3].Content), &res); err != nil {
		t.Fatal(err)
	}
	if res.Success || !strings.Contains(res.Error, "invalid tool arguments") {
		t.Errorf("tool result = %+v", res)
	}
}

func TestHandleTurn_HardFailureLeavesNoOrphanedToolCalls(t *testing.T) {
	t.Parallel()

	model := &scriptedLLM{responses: []llm.Message{
		toolCallResponse(llm.ToolCall{ID: "call_1", Name: "list_databases", Arguments: `{}`}),
	}}
	exec := &fakeExecutor{hardErr: hive.ErrConnectivity}
	a := newTestAgent(t, model, exec, &fakeRetriever{})

	if _, err := a.HandleTurn(context.Background(), "list databases"); err == nil {
		t.Fatal("HandleTurn() expected error on connectivity failure, got nil")
	}

	for _, m := range a.History() {
		if len(m.ToolCalls) > 0 {
			t.Error("aborted turn left an assistant tool-call message in history")
		}
		if m.Role == llm.RoleTool {
			t.Error("aborted turn left a tool message in history")
		}
	}
}

func TestHandleTurn_RetrievalFailureAborts(t *testing.T) {
	t.Parallel()

	a := newTestAgent(t, &scriptedLLM{}, &fakeExecutor{}, &fakeRetriever{err: fmt.Errorf("qdrant down")})
	if _, err := a.HandleTurn(context.Background(), "anything"); err == nil {
		t.Fatal("HandleTurn() expected error when retrieval fails, got nil")
	}
	if got := len(a.History()); got != 1 {
		t.Errorf("history length = %d, want 1 (nothing appended)", got)
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	model := &scriptedLLM{responses: []llm.Message{
		llm.AssistantMessage("hello"),
		llm.AssistantMessage("hello again"),
	}}
	a := newTestAgent(t, model, &fakeExecutor{}, &fakeRetriever{})

	if _, err := a.HandleTurn(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}
	a.Reset()
	a.Reset() // idempotent
	history := a.History()
	if len(history) != 1 || history[0].Role != llm.RoleSystem {
		t.Errorf("after Reset history = %+v, want only the system prompt", history)
	}

	// The conversation still works after a reset.
	if _, err := a.HandleTurn(context.Background(), "hi again"); err != nil {
		t.Fatalf("HandleTurn() after Reset error: %v", err)
	}
}

func TestClose_BeforeFirstTurn(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{}
	ret := &fakeRetriever{}
	a := newTestAgent(t, &scriptedLLM{}, exec, ret)

	if err := a.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if !exec.closed || !ret.closed {
		t.Error("Close() did not release executor and retriever")
	}
}

func TestLastTurn_SurvivesHistoryTrimming(t *testing.T) {
	t.Parallel()

	model := &scriptedLLM{responses: []llm.Message{
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{
			{ID: "call_1", Name: "list_databases", Arguments: "{}"},
		}},
		llm.AssistantMessage("first answer"),
		llm.AssistantMessage("second answer"),
	}}
	exec := &fakeExecutor{results: map[string]hive.Result{
		"list_databases": {Success: true},
	}}

	// A one-token budget forces the first turn out of the history before the
	// second one is appended.
	a, err := New(&Config{
		LLM:              model,
		Executor:         exec,
		Retriever:        &fakeRetriever{docs: "docs"},
		MaxContextTokens: 1,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if _, err := a.HandleTurn(context.Background(), "list the databases"); err != nil {
		t.Fatal(err)
	}
	// user + assistant tool call + tool result + final answer.
	if got := a.LastTurn(); len(got) != 4 {
		t.Fatalf("LastTurn() after tool turn = %d messages, want 4", len(got))
	}

	if _, err := a.HandleTurn(context.Background(), "thanks"); err != nil {
		t.Fatal(err)
	}
	// The first turn was trimmed away, so the history is now shorter than it
	// was before this turn started.
	if got := a.History(); len(got) != 3 {
		t.Fatalf("history after trimmed turn = %d messages, want 3", len(got))
	}
	last := a.LastTurn()
	if len(last) != 2 {
		t.Fatalf("LastTurn() after trimmed turn = %d messages, want 2", len(last))
	}
	if last[0].Role != llm.RoleUser || last[1].Content != "second answer" {
		t.Errorf("LastTurn() = %+v, want the second turn's user message and answer", last)
	}
}

func TestLastTurn_EmptyBeforeFirstTurnAndAfterReset(t *testing.T) {
	t.Parallel()

	model := &scriptedLLM{responses: []llm.Message{llm.AssistantMessage("ok")}}
	a := newTestAgent(t, model, &fakeExecutor{}, &fakeRetriever{})

	if got := a.LastTurn(); len(got) != 0 {
		t.Errorf("LastTurn() before first turn = %d messages, want 0", len(got))
	}
	if _, err := a.HandleTurn(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}
	a.Reset()
	if got := a.LastTurn(); len(got) != 0 {
		t.Errorf("LastTurn() after Reset = %d messages, want 0", len(got))
	}
}
