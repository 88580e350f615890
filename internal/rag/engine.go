package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hiveops/hive-agent-go/internal/logging"
)

// Engine is the default Retriever: it composes an Embedder, a VectorStore and
// a knowledge corpus directory. The index is built lazily on first use, when
// the store is empty. Safe for concurrent use once constructed.
type Engine struct {
	embedder     Embedder
	store        VectorStore
	knowledgeDir string
	topK         int
}

// NewEngine constructs an Engine and builds the index if the store is empty.
// A non-empty store is left untouched; use Rebuild to force a refresh.
// topK <= 0 falls back to 3 results per retrieval.
func NewEngine(ctx context.Context, embedder Embedder, store VectorStore, knowledgeDir string, topK int) (*Engine, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("rag: store must not be nil")
	}
	if topK <= 0 {
		topK = 3
	}

	e := &Engine{
		embedder:     embedder,
		store:        store,
		knowledgeDir: knowledgeDir,
		topK:         topK,
	}

	count, err := store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("rag: checking index state: %w", err)
	}
	if count == 0 {
		if err := e.buildIndex(ctx); err != nil {
			return nil, err
		}
	} else {
		logging.FromContext(ctx).Debug("rag: index already populated, skipping build",
			slog.Uint64("documents", count),
		)
	}

	return e, nil
}

// buildIndex loads the corpus, embeds every document in one batch and upserts
// the results. Any failure aborts the build; there is no partial recovery.
func (e *Engine) buildIndex(ctx context.Context) error {
	log := logging.FromContext(ctx)

	docs, err := LoadKnowledgeBase(e.knowledgeDir)
	if err != nil {
		return err
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}

	embeddings, err := e.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("rag: embedding corpus: %w", err)
	}

	if err := e.store.Upsert(ctx, docs, embeddings); err != nil {
		return fmt.Errorf("rag: indexing corpus: %w", err)
	}

	log.Info("rag: knowledge index built",
		slog.Int("documents", len(docs)),
		slog.String("dir", e.knowledgeDir),
	)

	return nil
}

// Rebuild re-loads the corpus and re-upserts every document unconditionally.
// Existing entries with the same document ID are overwritten.
func (e *Engine) Rebuild(ctx context.Context) error {
	return e.buildIndex(ctx)
}

// Retrieve embeds the query, searches the store and joins the matched
// document texts with blank lines, most relevant first. No matches yields an
// empty string and no error.
func (e *Engine) Retrieve(ctx context.Context, query string) (string, error) {
	embeddings, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return "", fmt.Errorf("rag: embedding query: %w", err)
	}
	if len(embeddings) == 0 {
		return "", fmt.Errorf("rag: embedder returned no vector for query")
	}

	docs, err := e.store.Search(ctx, embeddings[0], e.topK)
	if err != nil {
		return "", fmt.Errorf("rag: searching index: %w", err)
	}

	texts := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.Text != "" {
			texts = append(texts, d.Text)
		}
	}

	return strings.Join(texts, "\n\n"), nil
}

// Close releases the underlying vector store connection.
func (e *Engine) Close() error {
	return e.store.Close()
}
