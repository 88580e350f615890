package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
)

// Default chat models per backend.
const (
	defaultOllamaModel = "qwen2.5:7b"
	defaultOpenAIModel = "gpt-4o-mini"

	// defaultTimeout bounds each chat completion request so a wedged model
	// endpoint fails the turn instead of hanging the session.
	defaultTimeout = 120 * time.Second
)

// NewFromEnv constructs a Client from environment variables.
//
// MODEL_PROVIDER selects the backend (default: ollama). All backends speak
// the OpenAI chat completions protocol:
//
//	ollama — OLLAMA_HOST (default http://localhost:11434), OLLAMA_MODEL
//	openai — OPENAI_API_KEY (required), OPENAI_MODEL
//	azure  — AZURE_OPENAI_API_KEY, AZURE_OPENAI_ENDPOINT,
//	         AZURE_OPENAI_DEPLOYMENT, AZURE_OPENAI_API_VERSION
//
// MODEL_TIMEOUT_SECONDS overrides the per-request timeout.
func NewFromEnv() (Client, error) {
	backend := getEnvOrDefault("MODEL_PROVIDER", "ollama")
	timeout := defaultTimeout
	if secs := getEnvInt("MODEL_TIMEOUT_SECONDS", 0); secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}

	switch backend {
	case "ollama":
		host := getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434")
		model := getEnvOrDefault("OLLAMA_MODEL", defaultOllamaModel)
		// Ollama exposes an OpenAI-compatible endpoint under /v1 and
		// ignores the API key, but the SDK requires one to be present.
		return NewOpenAIClient(model,
			option.WithBaseURL(host+"/v1"),
			option.WithAPIKey("ollama"),
			option.WithRequestTimeout(timeout),
		), nil

	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("llm: openai requires OPENAI_API_KEY")
		}
		model := getEnvOrDefault("OPENAI_MODEL", defaultOpenAIModel)
		return NewOpenAIClient(model,
			option.WithAPIKey(apiKey),
			option.WithRequestTimeout(timeout),
		), nil

	case "azure":
		apiKey := os.Getenv("AZURE_OPENAI_API_KEY")
		endpoint := os.Getenv("AZURE_OPENAI_ENDPOINT")
		deployment := os.Getenv("AZURE_OPENAI_DEPLOYMENT")
		if apiKey == "" || endpoint == "" || deployment == "" {
			return nil, fmt.Errorf("llm: azure requires AZURE_OPENAI_API_KEY, AZURE_OPENAI_ENDPOINT, and AZURE_OPENAI_DEPLOYMENT")
		}
		apiVersion := getEnvOrDefault("AZURE_OPENAI_API_VERSION", "2025-04-01-preview")
		return NewOpenAIClient(deployment,
			azure.WithEndpoint(endpoint, apiVersion),
			azure.WithAPIKey(apiKey),
			option.WithRequestTimeout(timeout),
		), nil

	default:
		return nil, fmt.Errorf("llm: unknown backend %q — valid values: ollama, openai, azure", backend)
	}
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
