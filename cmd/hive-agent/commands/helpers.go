package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hiveops/hive-agent-go/internal/embedder"
	"github.com/hiveops/hive-agent-go/internal/hive"
	"github.com/hiveops/hive-agent-go/internal/rag"
)

// defaultKnowledgeDir is where the corpus JSON files live unless
// RAG_KNOWLEDGE_DIR points elsewhere.
const defaultKnowledgeDir = "knowledge"

// buildQdrantStore connects to Qdrant using the standard env vars, sizing the
// collection vectors for the resolved embedding backend.
func buildQdrantStore(ctx context.Context, log *slog.Logger) (*rag.QdrantStore, error) {
	host := getEnvOrDefault("QDRANT_HOST", "localhost")
	port := getEnvInt("QDRANT_PORT", 6334)
	collection := getEnvOrDefault("QDRANT_COLLECTION", "hive-agent-docs")
	embBackend := getEnvOrDefault("EMBEDDING_PROVIDER", getEnvOrDefault("MODEL_PROVIDER", "ollama"))
	vectorSize := uint64(embedder.DefaultDimensions(embBackend))

	store, err := rag.NewQdrantStore(ctx, &rag.QdrantConfig{
		Host:       host,
		Port:       port,
		Collection: collection,
		VectorSize: vectorSize,
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     os.Getenv("QDRANT_TLS") == "true",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", host, port, err)
	}

	log.Info("qdrant store ready",
		slog.String("host", host),
		slog.Int("port", port),
		slog.String("collection", collection),
	)
	return store, nil
}

// buildEngine wires embedder + Qdrant into a retrieval engine. The engine
// builds the knowledge index on first run (empty collection). The store is
// returned alongside for callers that need the raw Qdrant connection (the
// serve command's readiness probe); closing the engine closes the store.
func buildEngine(ctx context.Context, log *slog.Logger) (*rag.Engine, *rag.QdrantStore, error) {
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}

	store, err := buildQdrantStore(ctx, log)
	if err != nil {
		return nil, nil, err
	}

	engine, err := rag.NewEngine(ctx,
		emb,
		store,
		getEnvOrDefault("RAG_KNOWLEDGE_DIR", defaultKnowledgeDir),
		getEnvInt("RAG_TOP_K", 3),
	)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return engine, store, nil
}

// newHiveClient constructs an unauthenticated Hive API client from env.
func newHiveClient() *hive.Client {
	timeout := time.Duration(getEnvInt("HIVE_API_TIMEOUT_SECONDS", 0)) * time.Second
	return hive.NewClient(getEnvOrDefault("HIVE_API_BASE_URL", "http://localhost:8080"), timeout)
}

// sharedRetriever exposes one engine to many agents. Close is a no-op so a
// single session logging out cannot tear down the shared Qdrant connection;
// the owner closes the engine itself at shutdown.
type sharedRetriever struct {
	*rag.Engine
}

// Close is a no-op; the engine owner closes the real connection.
func (sharedRetriever) Close() error { return nil }

// resolveBindAddr returns the serve bind address: an explicit --host/--port
// flag wins, then SERVER_HOST/SERVER_PORT (set directly or through the YAML
// config), then the passed-in flag defaults.
func resolveBindAddr(cmd *cobra.Command, host string, port int) (string, int) {
	if !cmd.Flags().Changed("host") {
		host = getEnvOrDefault("SERVER_HOST", host)
	}
	if !cmd.Flags().Changed("port") {
		port = getEnvInt("SERVER_PORT", port)
	}
	return host, port
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
