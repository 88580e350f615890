// Package commands defines all Cobra CLI commands for the hive-agent binary.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hiveops/hive-agent-go/internal/audit"
	"github.com/hiveops/hive-agent-go/internal/config"
	"github.com/hiveops/hive-agent-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hive-agent",
		Short: "Hive Agent — manage Hive metastore tables with natural language",
		Long: `Hive Agent is an AI assistant for Hive metastore operators.

It translates natural language requests ("delete public.measure",
"what tables are in analytics?") into calls against the Hive REST API,
grounded in a retrieval index of the API documentation.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.hive-agent/config.yaml).
See 'hive-agent --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// .env is a convenience for local development; missing file is fine.
			_ = godotenv.Load()

			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.hive-agent/config.yaml)")

	root.AddCommand(
		NewChatCmd(),
		NewServeCmd(),
		NewReindexCmd(),
		NewTranscriptCmd(),
		NewVersionCmd(),
	)

	return root
}
