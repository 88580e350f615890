package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hiveops/hive-agent-go/internal/embedder"
	"github.com/hiveops/hive-agent-go/internal/logging"
	"github.com/hiveops/hive-agent-go/internal/rag"
)

// NewReindexCmd constructs the `hive-agent reindex` command, which re-embeds
// the knowledge corpus and overwrites the vector index.
func NewReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the knowledge index from the corpus files",
		Long: `Re-load the knowledge corpus, re-embed every document and upsert the
results into Qdrant. Existing entries with the same document ID are
overwritten, so running reindex after editing the corpus is safe.

Required environment variables:
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: hive-agent-docs)
  RAG_KNOWLEDGE_DIR    Corpus directory of JSON files (default: knowledge)
  EMBEDDING_*          Embedding backend overrides

Examples:
  hive-agent reindex
  RAG_KNOWLEDGE_DIR=./docs hive-agent reindex`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("reindex: failed to initialise embedder: %w", err)
			}

			qstore, err := buildQdrantStore(ctx, log)
			if err != nil {
				return fmt.Errorf("reindex: %w", err)
			}
			defer qstore.Close()

			// An empty collection is already built by NewEngine; only a
			// populated one needs the explicit rebuild.
			count, err := qstore.Count(ctx)
			if err != nil {
				return fmt.Errorf("reindex: %w", err)
			}

			engine, err := rag.NewEngine(ctx,
				emb,
				qstore,
				getEnvOrDefault("RAG_KNOWLEDGE_DIR", defaultKnowledgeDir),
				getEnvInt("RAG_TOP_K", 3),
			)
			if err != nil {
				return fmt.Errorf("reindex: %w", err)
			}
			if count > 0 {
				if err := engine.Rebuild(ctx); err != nil {
					return fmt.Errorf("reindex: %w", err)
				}
			}

			log.Info("reindex complete", slog.Uint64("previous_documents", count))
			cmd.Println("Knowledge index rebuilt.")
			return nil
		},
	}
}
