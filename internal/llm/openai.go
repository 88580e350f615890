package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIClient implements Client against any OpenAI-compatible chat
// completions endpoint. This covers OpenAI itself, Azure OpenAI, and Ollama's
// /v1 compatibility layer, so one implementation serves every backend the
// factory knows about. It is safe for concurrent use.
type OpenAIClient struct {
	// client is the underlying SDK client.
	client *openai.Client
	// model is the chat model name sent with every request.
	model string
}

// NewOpenAIClient constructs an OpenAIClient for the given model name.
// opts configure the SDK client (base URL, API key, request timeout).
func NewOpenAIClient(model string, opts ...option.RequestOption) *OpenAIClient {
	client := openai.NewClient(opts...)
	return &OpenAIClient{client: &client, model: model}
}

// Chat sends the message sequence to the chat completions endpoint and maps
// the response back into the package's Message type. Tool calls returned by
// the model keep their call identifiers and model-declared order.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message, tools []ToolDefinition) (*Message, error) {
	params := openai.ChatCompletionNewParams{
		Messages: buildMessages(messages),
		Model:    c.model,
	}
	if len(tools) > 0 {
		params.Tools = buildTools(tools)
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("llm: chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("llm: chat completion returned no choices")
	}

	choice := completion.Choices[0]
	resp := &Message{
		Role:    RoleAssistant,
		Content: choice.Message.Content,
	}
	for _, tc := range choice.Message.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return resp, nil
}

// buildMessages converts the package's Message slice into SDK params.
// Assistant messages carry their tool calls unchanged so the wire history
// matches what the model previously emitted.
func buildMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case RoleAssistant:
			assistant := openai.AssistantMessage(msg.Content)
			if len(msg.ToolCalls) > 0 && assistant.OfAssistant != nil {
				calls := make([]openai.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
				for i, tc := range msg.ToolCalls {
					calls[i] = openai.ChatCompletionMessageToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: tc.Arguments,
						},
					}
				}
				assistant.OfAssistant.ToolCalls = calls
			}
			out = append(out, assistant)
		case RoleTool:
			out = append(out, openai.ToolMessage(msg.ToolCallID, msg.Content))
		}
	}
	return out
}

// buildTools converts ToolDefinitions into SDK tool params.
func buildTools(tools []ToolDefinition) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, len(tools))
	for i, t := range tools {
		out[i] = openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  shared.FunctionParameters(t.Parameters),
			},
		}
	}
	return out
}
