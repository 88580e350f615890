// Package embedder provides implementations of the rag.Embedder interface for
// converting text into dense vector embeddings. Each implementation talks to
// its backend (OpenAI, Azure OpenAI, Ollama) via plain HTTP — no additional
// SDK dependencies are required.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OpenAIConfig holds the settings for constructing an OpenAIEmbedder.
type OpenAIConfig struct {
	// BaseURL is the API base URL. For OpenAI: "https://api.openai.com/v1".
	// For Azure: "https://<resource>.openai.azure.com/openai".
	BaseURL string
	// APIKey is the authentication key.
	APIKey string
	// Model is the embedding model name.
	Model string
	// Dimensions is the desired vector length (0 = model default).
	Dimensions int
	// Azure enables Azure OpenAI mode (api-key header + api-version param).
	Azure bool
	// APIVersion is the Azure OpenAI API version. Ignored when Azure is false.
	APIVersion string
}

// OpenAIEmbedder implements rag.Embedder against the OpenAI (or Azure OpenAI)
// embeddings REST API. Safe for concurrent use.
type OpenAIEmbedder struct {
	cfg    OpenAIConfig
	client *http.Client
}

// NewOpenAIEmbedder constructs an OpenAIEmbedder from the given config.
func NewOpenAIEmbedder(cfg *OpenAIConfig) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		cfg:    *cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// embedRequest is the JSON body sent to the embeddings endpoint.
type embedRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// embedResponse is the JSON body the embeddings endpoint returns. Each datum
// carries the index of the input it belongs to.
type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// endpoint returns the full embeddings URL for the configured backend. Azure
// routes per-deployment and requires the api-version query parameter.
func (e *OpenAIEmbedder) endpoint() string {
	if e.cfg.Azure {
		return e.cfg.BaseURL + "/deployments/" + e.cfg.Model + "/embeddings?api-version=" + e.cfg.APIVersion
	}
	return e.cfg.BaseURL + "/embeddings"
}

// authorize sets the backend-appropriate auth header on req.
func (e *OpenAIEmbedder) authorize(req *http.Request) {
	if e.cfg.Azure {
		req.Header.Set("api-key", e.cfg.APIKey)
		return
	}
	req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
}

// Embed converts a batch of texts into their embeddings. The returned slice
// is parallel to texts: the wire protocol does not guarantee response order,
// so each result is re-placed at its declared input index before returning.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	body := embedRequest{Input: texts, Model: e.cfg.Model}
	if e.cfg.Dimensions > 0 {
		body.Dimensions = e.cfg.Dimensions
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("openai embedder: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("openai embedder: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	e.authorize(req)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai embedder: request failed: %w", err)
	}
	defer resp.Body.Close()

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("openai embedder: decode response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if result.Error != nil {
			return nil, fmt.Errorf("openai embedder: %s", result.Error.Message)
		}
		return nil, fmt.Errorf("openai embedder: HTTP %d", resp.StatusCode)
	}
	if len(result.Data) != len(texts) {
		return nil, fmt.Errorf("openai embedder: expected %d embeddings, got %d", len(texts), len(result.Data))
	}

	embeddings := make([][]float32, len(texts))
	for _, d := range result.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("openai embedder: index %d out of range [0, %d)", d.Index, len(texts))
		}
		embeddings[d.Index] = d.Embedding
	}
	return embeddings, nil
}
