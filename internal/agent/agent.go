// Package agent implements the tool-calling conversation orchestrator. One
// Agent owns one conversation: it retrieves relevant API documentation,
// augments the user's request with it, lets the model pick tools, executes
// them against the Hive API in the model's order, and asks the model for the
// final answer.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hiveops/hive-agent-go/internal/budget"
	"github.com/hiveops/hive-agent-go/internal/hive"
	"github.com/hiveops/hive-agent-go/internal/llm"
	"github.com/hiveops/hive-agent-go/internal/logging"
	"github.com/hiveops/hive-agent-go/internal/rag"
)

// Executor runs a model-selected tool by name. Unknown tools and bad
// arguments come back inside the Result; the error return is reserved for
// hard failures that must abort the turn.
type Executor interface {
	Execute(ctx context.Context, name string, args map[string]any) (hive.Result, error)
	Close() error
}

// Config holds the collaborators for a new Agent.
type Config struct {
	// LLM is the chat model client.
	LLM llm.Client

	// Executor dispatches tool calls, normally the hive API client.
	Executor Executor

	// Retriever supplies relevant documentation for each user request.
	Retriever rag.Retriever

	// Tools is the tool catalog offered to the model. Defaults to
	// hive.Catalog() when nil.
	Tools []llm.ToolDefinition

	// MaxContextTokens bounds the estimated conversation size; oldest turns
	// are dropped when it is exceeded. Zero means the package default.
	MaxContextTokens int
}

// Agent is a single conversation. Not safe for concurrent use; callers must
// serialise turns (the session registry does this for the web layer).
type Agent struct {
	llm       llm.Client
	executor  Executor
	retriever rag.Retriever
	tools     []llm.ToolDefinition
	maxTokens int

	// messages is the full conversation history. messages[0] is always the
	// system prompt.
	messages []llm.Message

	// turnStart is the index in messages where the most recent turn begins.
	// Trimming can shrink the history, so callers must not derive this from a
	// pre-turn length.
	turnStart int
}

// New constructs an Agent with an empty history seeded with the system prompt.
func New(cfg *Config) (*Agent, error) {
	if cfg.LLM == nil {
		return nil, fmt.Errorf("agent: llm client must not be nil")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("agent: executor must not be nil")
	}
	if cfg.Retriever == nil {
		return nil, fmt.Errorf("agent: retriever must not be nil")
	}

	tools := cfg.Tools
	if tools == nil {
		tools = hive.Catalog()
	}
	maxTokens := cfg.MaxContextTokens
	if maxTokens <= 0 {
		maxTokens = budget.DefaultMaxContextTokens
	}

	return &Agent{
		llm:       cfg.LLM,
		executor:  cfg.Executor,
		retriever: cfg.Retriever,
		tools:     tools,
		maxTokens: maxTokens,
		messages:  []llm.Message{llm.SystemMessage(systemPrompt)},
		turnStart: 1,
	}, nil
}

// HandleTurn runs one full conversation turn and returns the assistant's
// final answer.
//
// Hard failures (model errors, retrieval errors, API connectivity) abort the
// turn with an error; the history is left without any orphaned tool-call
// message, so the next turn starts from a consistent state. Tool-level
// failures never abort: they are reported to the model inside the tool
// results and end up explained in the final answer.
func (a *Agent) HandleTurn(ctx context.Context, userText string) (string, error) {
	log := logging.FromContext(ctx)

	docs, err := a.retriever.Retrieve(ctx, userText)
	if err != nil {
		return "", fmt.Errorf("agent: retrieving context: %w", err)
	}

	userMsg := llm.UserMessage(augmentPrompt(docs, userText))

	// Trim oldest turns before the new one is added. The system prompt and
	// the incoming message are never dropped.
	fixed := []llm.Message{a.messages[0], userMsg}
	history := budget.TrimHistory(fixed, a.messages[1:], a.maxTokens)
	a.messages = append(a.messages[:1], history...)
	a.turnStart = len(a.messages)
	a.messages = append(a.messages, userMsg)

	first, err := a.llm.Chat(ctx, a.messages, a.tools)
	if err != nil {
		return "", fmt.Errorf("agent: model call failed: %w", err)
	}

	if len(first.ToolCalls) == 0 {
		a.messages = append(a.messages, *first)
		return first.Content, nil
	}

	// Execute every requested tool in the model's order. Results are staged
	// and only appended together with the assistant message once all
	// dispatches are done, so a mid-turn hard failure cannot leave a
	// tool-call message without its results.
	toolMsgs := make([]llm.Message, 0, len(first.ToolCalls))
	for _, call := range first.ToolCalls {
		result, err := a.runTool(ctx, call)
		if err != nil {
			return "", fmt.Errorf("agent: tool %s: %w", call.Name, err)
		}
		payload, err := json.Marshal(result)
		if err != nil {
			return "", fmt.Errorf("agent: encoding result of %s: %w", call.Name, err)
		}
		log.Debug("agent: tool executed",
			slog.String("tool", call.Name),
			slog.Bool("success", result.Success),
			slog.Int("status", result.StatusCode),
		)
		toolMsgs = append(toolMsgs, llm.ToolMessage(call.ID, string(payload)))
	}

	a.messages = append(a.messages, *first)
	a.messages = append(a.messages, toolMsgs...)

	// Second model call, without tools: turn the results into an answer.
	final, err := a.llm.Chat(ctx, a.messages, nil)
	if err != nil {
		return "", fmt.Errorf("agent: final model call failed: %w", err)
	}
	a.messages = append(a.messages, *final)

	return final.Content, nil
}

// runTool decodes the call arguments and dispatches through the executor.
// Malformed argument JSON is a tool-level failure, not a turn abort.
func (a *Agent) runTool(ctx context.Context, call llm.ToolCall) (hive.Result, error) {
	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return hive.Result{
				Success: false,
				Error:   fmt.Sprintf("invalid tool arguments: %v", err),
			}, nil
		}
	}
	return a.executor.Execute(ctx, call.Name, args)
}

// Reset discards the conversation history, keeping only the system prompt.
// Safe to call repeatedly.
func (a *Agent) Reset() {
	a.messages = a.messages[:1]
	a.turnStart = 1
}

// History returns a copy of the conversation so far.
func (a *Agent) History() []llm.Message {
	out := make([]llm.Message, len(a.messages))
	copy(out, a.messages)
	return out
}

// LastTurn returns a copy of the messages the most recent HandleTurn appended,
// starting with the augmented user message. Empty before the first turn and
// after Reset. History length is not a reliable baseline for this: trimming
// can leave the conversation shorter than it was before the turn.
func (a *Agent) LastTurn() []llm.Message {
	out := make([]llm.Message, len(a.messages)-a.turnStart)
	copy(out, a.messages[a.turnStart:])
	return out
}

// Close releases the executor and retriever resources. Safe to call before
// the first turn.
func (a *Agent) Close() error {
	return errors.Join(a.executor.Close(), a.retriever.Close())
}

// augmentPrompt wraps the user's request with the retrieved documentation in
// clearly delimited sections, so the model can tell context from request.
func augmentPrompt(docs, userText string) string {
	if docs == "" {
		docs = "(no relevant documentation found)"
	}
	return fmt.Sprintf("[Relevant API documentation]\n%s\n\n[User request]\n%s", docs, userText)
}
