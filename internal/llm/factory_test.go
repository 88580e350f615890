package llm

import (
	"os"
	"testing"
)

func TestNewFromEnv_DefaultOllama(t *testing.T) {
	os.Unsetenv("MODEL_PROVIDER")
	os.Unsetenv("OLLAMA_HOST")
	os.Unsetenv("OLLAMA_MODEL")

	client, err := NewFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	oc, ok := client.(*OpenAIClient)
	if !ok {
		t.Fatalf("expected *OpenAIClient, got %T", client)
	}
	if oc.model != defaultOllamaModel {
		t.Errorf("model: got %q, want %q", oc.model, defaultOllamaModel)
	}
}

func TestNewFromEnv_OpenAIRequiresKey(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")
	os.Unsetenv("OPENAI_API_KEY")

	if _, err := NewFromEnv(); err == nil {
		t.Fatal("expected error when OPENAI_API_KEY is unset")
	}
}

func TestNewFromEnv_AzureRequiresEndpoint(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "azure")
	t.Setenv("AZURE_OPENAI_API_KEY", "key")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "")
	os.Unsetenv("AZURE_OPENAI_ENDPOINT")
	t.Setenv("AZURE_OPENAI_DEPLOYMENT", "gpt-4o")

	if _, err := NewFromEnv(); err == nil {
		t.Fatal("expected error when AZURE_OPENAI_ENDPOINT is unset")
	}
}

func TestNewFromEnv_UnknownBackend(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "bedrock")

	if _, err := NewFromEnv(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestMessageConstructors(t *testing.T) {
	t.Parallel()

	if m := SystemMessage("preamble"); m.Role != RoleSystem || m.Content != "preamble" {
		t.Errorf("SystemMessage: got %+v", m)
	}
	if m := ToolMessage("call_1", `{"success":true}`); m.Role != RoleTool || m.ToolCallID != "call_1" {
		t.Errorf("ToolMessage: got %+v", m)
	}
}
