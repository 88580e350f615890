package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hiveops/hive-agent-go/internal/store"
)

// NewTranscriptCmd constructs the `hive-agent transcript` command, which
// prints the recent transcript entries logged for a server session.
func NewTranscriptCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "transcript <session-id>",
		Short: "Show recent transcript entries for a server session",
		Long: `Show the most recent transcript entries the server logged for a session,
oldest first. The transcript is an audit log written by the serve command;
it is never fed back into a conversation.

The database path is taken from HIVE_AGENT_TRANSCRIPT_DB, falling back to
~/.hive-agent/transcripts.db.

Examples:
  hive-agent transcript 2f1c9a1e-0b3d-4c6e-9f0a-8d2b5c7e4a11
  hive-agent transcript <session-id> --limit 50`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath := os.Getenv("HIVE_AGENT_TRANSCRIPT_DB")
			if dbPath == "disabled" {
				return fmt.Errorf("transcript: logging is disabled (HIVE_AGENT_TRANSCRIPT_DB=disabled)")
			}
			if dbPath == "" {
				var err error
				dbPath, err = store.DefaultDBPath()
				if err != nil {
					return fmt.Errorf("transcript: %w", err)
				}
			}

			ts, err := store.Open(dbPath)
			if err != nil {
				return fmt.Errorf("transcript: %w", err)
			}
			defer ts.Close()

			entries, err := ts.Recent(cmd.Context(), args[0], limit)
			if err != nil {
				return fmt.Errorf("transcript: %w", err)
			}
			if len(entries) == 0 {
				cmd.Printf("No transcript entries for session %s.\n", args[0])
				return nil
			}
			for _, e := range entries {
				cmd.Printf("[%s] %s: %s\n", e.CreatedAt.Format(time.RFC3339), e.Role, e.Content)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show")

	return cmd
}
