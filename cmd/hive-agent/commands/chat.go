package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hiveops/hive-agent-go/internal/agent"
	"github.com/hiveops/hive-agent-go/internal/hive"
	"github.com/hiveops/hive-agent-go/internal/llm"
	"github.com/hiveops/hive-agent-go/internal/logging"
)

// maxLoginAttempts bounds interactive login retries before giving up.
const maxLoginAttempts = 3

// NewChatCmd constructs the `hive-agent chat` command: an interactive
// conversation in the terminal.
func NewChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat with the Hive agent",
		Long: `Start an interactive terminal conversation with the Hive agent.

You will be asked for your Hive API credentials first. During the chat,
type "reset" to clear the conversation and "exit" or "quit" to leave.

Examples:
  hive-agent chat
  MODEL_PROVIDER=openai hive-agent chat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			reader := bufio.NewReader(os.Stdin)

			client := newHiveClient()
			if err := loginLoop(cmd, reader, client); err != nil {
				return err
			}

			model, err := llm.NewFromEnv()
			if err != nil {
				return fmt.Errorf("chat: failed to initialise model provider: %w", err)
			}

			engine, _, err := buildEngine(ctx, log)
			if err != nil {
				return fmt.Errorf("chat: %w", err)
			}

			a, err := agent.New(&agent.Config{
				LLM:       model,
				Executor:  client,
				Retriever: engine,
			})
			if err != nil {
				return fmt.Errorf("chat: failed to initialise agent: %w", err)
			}
			defer func() { _ = a.Close() }()

			cmd.Println("Connected. Type your request, \"reset\" to start over, \"exit\" to leave.")

			for {
				cmd.Print("\nYou: ")
				line, err := reader.ReadString('\n')
				if err != nil {
					// EOF (ctrl-d) ends the session cleanly.
					cmd.Println()
					return nil
				}
				input := strings.TrimSpace(line)

				switch {
				case input == "":
					continue
				case input == "exit" || input == "quit":
					cmd.Println("Bye.")
					return nil
				case input == "reset":
					a.Reset()
					cmd.Println("Conversation reset.")
					continue
				}

				answer, err := a.HandleTurn(ctx, input)
				if err != nil {
					// Hard failures end the turn, not the session.
					cmd.PrintErrf("error: %v\n", err)
					continue
				}
				cmd.Printf("\nAgent: %s\n", answer)
			}
		},
	}
}

// loginLoop prompts for credentials up to maxLoginAttempts times.
// Authentication rejections allow a retry; connectivity failures abort
// immediately since retyping credentials will not help.
func loginLoop(cmd *cobra.Command, reader *bufio.Reader, client *hive.Client) error {
	for attempt := 1; attempt <= maxLoginAttempts; attempt++ {
		cmd.Print("Username: ")
		username, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("chat: reading username: %w", err)
		}
		cmd.Print("Password: ")
		password, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("chat: reading password: %w", err)
		}

		err = client.Login(cmd.Context(), strings.TrimSpace(username), strings.TrimSpace(password))
		if err == nil {
			return nil
		}
		if errors.Is(err, hive.ErrAuthentication) {
			cmd.PrintErrf("login failed (%d/%d): invalid credentials\n", attempt, maxLoginAttempts)
			continue
		}
		return fmt.Errorf("chat: login: %w", err)
	}
	return fmt.Errorf("chat: too many failed login attempts")
}
