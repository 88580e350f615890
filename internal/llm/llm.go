// Package llm defines the chat model contract used by the agent: message and
// tool-call types plus the Client interface. Concrete implementations
// (OpenAI-compatible backends) satisfy Client so the orchestration loop never
// depends on a specific SDK.
package llm

import "context"

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleSystem is the fixed instruction preamble.
	RoleSystem Role = "system"
	// RoleUser is a message sent by the human operator.
	RoleUser Role = "user"
	// RoleAssistant is a message produced by the model, possibly carrying
	// tool calls.
	RoleAssistant Role = "assistant"
	// RoleTool is the serialized result of a single tool call.
	RoleTool Role = "tool"
)

// ToolCall is a structured request emitted by the model naming one catalog
// action and its arguments.
type ToolCall struct {
	// ID is the call identifier the corresponding tool message must echo.
	ID string `json:"id"`
	// Name is the catalog tool name.
	Name string `json:"name"`
	// Arguments is the JSON-encoded argument payload.
	Arguments string `json:"arguments"`
}

// Message is a single entry in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// ToolCalls is the list of tool invocations requested by an assistant
	// message. Empty for all other roles.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID cross-references the invocation a tool message answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ToolDefinition is the schema of one tool offered to the model.
type ToolDefinition struct {
	// Name is the tool name; it must match the dispatch key of the executor.
	Name string `json:"name"`
	// Description tells the model what the tool does.
	Description string `json:"description,omitempty"`
	// Parameters is the JSON-Schema-shaped argument specification.
	Parameters map[string]any `json:"parameters"`
}

// Client is the interface for a tool-calling chat model.
// Implementations must be safe to call from multiple goroutines.
type Client interface {
	// Chat sends the full message sequence to the model and returns its
	// response. When tools is non-empty the model may answer with tool
	// calls; when tools is nil the response is plain text.
	Chat(ctx context.Context, messages []Message, tools []ToolDefinition) (*Message, error)
}

// SystemMessage constructs a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage constructs a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage constructs an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolMessage constructs a tool result message answering callID.
func ToolMessage(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}
