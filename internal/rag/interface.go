// Package rag provides the retrieval-augmented generation layer: the knowledge
// corpus loader, the vector store contract, and the retrieval engine that
// turns a user query into relevant documentation text. Concrete backends
// (Qdrant, HTTP embedders) satisfy these interfaces so the agent layer never
// depends on a specific vendor.
package rag

import "context"

// Document is one unit of knowledge: an API documentation snippet or a usage
// example from the corpus.
type Document struct {
	// ID is the stable corpus identifier for this document.
	ID string

	// Text is the document content that gets embedded and retrieved.
	Text string

	// Metadata holds arbitrary key-value pairs (category, endpoint, etc.).
	Metadata map[string]string

	// Score is the similarity score assigned during retrieval.
	// Zero value means the score was not computed.
	Score float32
}

// Embedder converts text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines, and must
// return a slice parallel to the input regardless of backend response order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore persists and searches document embeddings.
// Implementations must be safe to call from multiple goroutines.
type VectorStore interface {
	// Upsert stores or updates a batch of documents. The embeddings slice is
	// parallel to docs. Upserting the same document ID twice overwrites the
	// previous entry rather than duplicating it.
	Upsert(ctx context.Context, docs []Document, embeddings [][]float32) error

	// Search returns the topK documents nearest to the query embedding,
	// most similar first.
	Search(ctx context.Context, queryEmbedding []float32, topK int) ([]Document, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (uint64, error)

	// Close releases any resources held by the store.
	Close() error
}

// Retriever is the narrow interface the agent uses to fetch context for a
// query. The result is ready-to-inject prompt text, not raw documents.
type Retriever interface {
	// Retrieve returns the most relevant corpus text for the query, with
	// documents separated by blank lines. Empty string means no matches.
	Retrieve(ctx context.Context, query string) (string, error)

	// Close releases the retriever's resources.
	Close() error
}
