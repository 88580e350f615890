package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hiveops/hive-agent-go/internal/store"
)

func runTranscript(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewTranscriptCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTranscriptCmd_PrintsSessionEntries(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "transcripts.db")
	t.Setenv("HIVE_AGENT_TRANSCRIPT_DB", dbPath)

	ts, err := store.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := ts.Append(ctx, "sess-1", store.RoleUser, "list the databases"); err != nil {
		t.Fatal(err)
	}
	if err := ts.Append(ctx, "sess-1", store.RoleAssistant, "There are 2 databases."); err != nil {
		t.Fatal(err)
	}
	if err := ts.Append(ctx, "sess-2", store.RoleUser, "other session"); err != nil {
		t.Fatal(err)
	}
	if err := ts.Close(); err != nil {
		t.Fatal(err)
	}

	out, err := runTranscript(t, "sess-1")
	if err != nil {
		t.Fatalf("transcript error: %v", err)
	}
	userIdx := strings.Index(out, "user: list the databases")
	assistantIdx := strings.Index(out, "assistant: There are 2 databases.")
	if userIdx < 0 || assistantIdx < 0 {
		t.Fatalf("output missing entries:\n%s", out)
	}
	if userIdx > assistantIdx {
		t.Errorf("entries not oldest-first:\n%s", out)
	}
	if strings.Contains(out, "other session") {
		t.Errorf("output leaked another session's entries:\n%s", out)
	}
}

func TestTranscriptCmd_UnknownSession(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "transcripts.db")
	t.Setenv("HIVE_AGENT_TRANSCRIPT_DB", dbPath)

	out, err := runTranscript(t, "nope")
	if err != nil {
		t.Fatalf("transcript error: %v", err)
	}
	if !strings.Contains(out, "No transcript entries") {
		t.Errorf("output = %q, want an empty-session notice", out)
	}
}

func TestTranscriptCmd_DisabledStore(t *testing.T) {
	t.Setenv("HIVE_AGENT_TRANSCRIPT_DB", "disabled")

	if _, err := runTranscript(t, "sess-1"); err == nil {
		t.Error("expected an error when transcript logging is disabled")
	}
}
