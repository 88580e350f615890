// Command hive-agent is the entry point for the Hive metastore AI agent.
// It provides an interactive CLI chat (via Cobra) and an HTTP server that
// exposes the agent over a session-based REST API.
package main

import (
	"fmt"
	"os"

	"github.com/hiveops/hive-agent-go/cmd/hive-agent/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
