// Package budget provides token budget estimation and history trimming for
// the conversation agent. Because the agent supports multiple model backends
// with different tokenizers, it uses a conservative character-based heuristic:
// 1 token ≈ 4 characters (English prose and JSON). This deliberately
// under-estimates token counts to leave headroom for model-specific overhead.
package budget

import "github.com/hiveops/hive-agent-go/internal/llm"

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// estimation. 4 chars/token is standard for English and JSON; using 3
	// would be more aggressive but risks overflowing context windows.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default input context budget in tokens.
	// Conservative enough to fit within 8k-context models (Qwen 2.5 7B at
	// default settings) while leaving room for the output.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for a slice of
// messages, including tool call payloads.
func EstimateMessages(msgs []llm.Message) int {
	total := 0
	for _, m := range msgs {
		// Each message has a small per-message overhead (~4 tokens in most APIs).
		total += 4
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
		for _, tc := range m.ToolCalls {
			total += Estimate(tc.Name) + Estimate(tc.Arguments)
		}
	}
	return total
}

// TrimHistory drops the oldest conversation turns from history until the
// estimated token count of fixed + history fits within maxTokens. fixed holds
// messages that must never be trimmed (the system prompt and the incoming
// user message). A turn starts at a user message and runs up to the next one,
// so an assistant tool-call message is never separated from its tool results.
//
// If even an empty history exceeds the budget, the empty slice is returned;
// fixed messages are never dropped here.
func TrimHistory(fixed, history []llm.Message, maxTokens int) []llm.Message {
	if len(history) == 0 {
		return history
	}

	fixedTokens := EstimateMessages(fixed)

	for len(history) > 0 {
		if fixedTokens+EstimateMessages(history) <= maxTokens {
			break
		}
		history = history[nextTurnStart(history):]
	}
	return history
}

// nextTurnStart returns the index of the second turn in history: the next
// user message after the first, or len(history) when the remainder is a
// single turn.
func nextTurnStart(history []llm.Message) int {
	for i := 1; i < len(history); i++ {
		if history[i].Role == llm.RoleUser {
			return i
		}
	}
	return len(history)
}
