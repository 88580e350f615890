package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestOpenAIEmbedder_ReordersByIndex verifies that embeddings returned out of
// order by the backend are re-placed at their declared input positions.
func TestOpenAIEmbedder_ReordersByIndex(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want Bearer test-key", got)
		}
		// Deliberately reversed order.
		resp := map[string]any{
			"data": []map[string]any{
				{"index": 2, "embedding": []float32{0.3}},
				{"index": 0, "embedding": []float32{0.1}},
				{"index": 1, "embedding": []float32{0.2}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(&OpenAIConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "text-embedding-3-small",
	})

	got, err := e.Embed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	want := []float32{0.1, 0.2, 0.3}
	for i, v := range want {
		if len(got[i]) != 1 || got[i][0] != v {
			t.Errorf("embedding[%d] = %v, want [%v]", i, got[i], v)
		}
	}
}

func TestOpenAIEmbedder_CountMismatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": []float32{0.1}}},
		})
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(&OpenAIConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	if _, err := e.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("Embed() expected error on count mismatch, got nil")
	}
}

func TestOpenAIEmbedder_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid api key"},
		})
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(&OpenAIConfig{BaseURL: srv.URL, APIKey: "bad", Model: "m"})
	if _, err := e.Embed(context.Background(), []string{"a"}); err == nil {
		t.Fatal("Embed() expected error on HTTP 401, got nil")
	}
}

func TestOllamaEmbedder_Embed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("path = %q, want /api/embed", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{0.1, 0.2}, {0.3, 0.4}},
		})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(&OllamaConfig{Host: srv.URL, Model: "nomic-embed-text"})
	got, err := e.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(got) != 2 || got[1][1] != 0.4 {
		t.Errorf("unexpected embeddings: %v", got)
	}
}

func TestDefaultDimensions(t *testing.T) {
	if got := DefaultDimensions("ollama"); got != 768 {
		t.Errorf("DefaultDimensions(ollama) = %d, want 768", got)
	}
	if got := DefaultDimensions("openai"); got != 1536 {
		t.Errorf("DefaultDimensions(openai) = %d, want 1536", got)
	}
	t.Setenv("EMBEDDING_DIMENSIONS", "256")
	if got := DefaultDimensions("ollama"); got != 256 {
		t.Errorf("DefaultDimensions with override = %d, want 256", got)
	}
}

func TestNewFromEnv_Defaults(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "")
	t.Setenv("MODEL_PROVIDER", "")
	e, err := NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv() error: %v", err)
	}
	oe, ok := e.(*OllamaEmbedder)
	if !ok {
		t.Fatalf("NewFromEnv() = %T, want *OllamaEmbedder", e)
	}
	if oe.model != defaultOllamaModel {
		t.Errorf("model = %q, want %q", oe.model, defaultOllamaModel)
	}
}

func TestNewFromEnv_OpenAIRequiresKey(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "openai")
	t.Setenv("EMBEDDING_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewFromEnv(); err == nil {
		t.Fatal("NewFromEnv() expected error without API key, got nil")
	}
}

func TestNewFromEnv_UnknownBackend(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "bedrock")
	if _, err := NewFromEnv(); err == nil {
		t.Fatal("NewFromEnv() expected error for unknown backend, got nil")
	}
}
