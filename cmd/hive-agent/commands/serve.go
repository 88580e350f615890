package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hiveops/hive-agent-go/internal/agent"
	"github.com/hiveops/hive-agent-go/internal/llm"
	"github.com/hiveops/hive-agent-go/internal/logging"
	"github.com/hiveops/hive-agent-go/internal/server"
	"github.com/hiveops/hive-agent-go/internal/store"
)

// NewServeCmd constructs the `hive-agent serve` command, which starts the
// HTTP server exposing the agent over a session-based REST API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Hive agent HTTP server",
		Long: `Start the Hive agent HTTP server on localhost.

Clients log in with their Hive API credentials (POST /api/login), receive a
session ID, and converse through POST /api/chat. Every session gets its own
agent and its own authenticated Hive API client; the retrieval index is
shared.

Examples:
  hive-agent serve
  hive-agent serve --port 9000
  MODEL_PROVIDER=azure hive-agent serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Flags win over SERVER_HOST/SERVER_PORT; the env vars win over
			// the flag defaults. Resolved here, after the YAML config has been
			// folded into the environment.
			host, port = resolveBindAddr(cmd, host, port)

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			model, err := llm.NewFromEnv()
			if err != nil {
				return fmt.Errorf("serve: failed to initialise model provider: %w", err)
			}

			engine, qstore, err := buildEngine(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = engine.Close() }()

			// Open the transcript store. HIVE_AGENT_TRANSCRIPT_DB overrides
			// the default path (~/.hive-agent/transcripts.db); "disabled"
			// turns transcript logging off.
			var transcripts store.TranscriptStore
			dbPath := os.Getenv("HIVE_AGENT_TRANSCRIPT_DB")
			if dbPath != "disabled" {
				if dbPath == "" {
					dbPath, err = store.DefaultDBPath()
					if err != nil {
						log.Warn("transcripts: could not resolve default DB path, disabling", slog.Any("error", err))
					}
				}
				if dbPath != "" {
					ts, tsErr := store.Open(dbPath)
					if tsErr != nil {
						log.Warn("transcripts: failed to open store, disabling", slog.Any("error", tsErr))
					} else {
						transcripts = ts
						defer func() { _ = ts.Close() }()
						log.Info("transcripts: store opened", slog.String("path", dbPath))
					}
				}
			} else {
				log.Info("transcripts: disabled via HIVE_AGENT_TRANSCRIPT_DB=disabled")
			}

			hiveBaseURL := getEnvOrDefault("HIVE_API_BASE_URL", "http://localhost:8080")

			factory := func(ctx context.Context, username, password string) (*agent.Agent, error) {
				client := newHiveClient()
				if err := client.Login(ctx, username, password); err != nil {
					return nil, err
				}
				return agent.New(&agent.Config{
					LLM:       model,
					Executor:  client,
					Retriever: sharedRetriever{engine},
				})
			}

			srv, err := server.New(&server.Config{
				Host:        host,
				Port:        port,
				Logger:      log,
				NewAgent:    factory,
				Transcripts: transcripts,
				Pingers: []server.Pinger{
					server.NewHivePinger(hiveBaseURL),
					server.NewQdrantPinger(qstore.Client()),
				},
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to (overrides SERVER_HOST)")
	cmd.Flags().IntVarP(&port, "port", "p", 8000, "TCP port to listen on (overrides SERVER_PORT)")

	return cmd
}
