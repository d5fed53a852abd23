package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dgerlanc/hookgate/internal/session"
	"github.com/spf13/cobra"
)

func runHistoryCapture(t *testing.T, id string) string {
	t.Helper()
	cmd := &cobra.Command{}
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	if err := runHistory(cmd, []string{id}); err != nil {
		t.Fatalf("runHistory() error = %v", err)
	}
	return stdout.String()
}

func TestRunHistoryShowsStoredPrompts(t *testing.T) {
	cleanup := setupTestConfig(t)
	defer cleanup()

	storeSession = true
	runHandle(`{"session_id":"abc","prompt":"first prompt"}`)
	runHandle(`{"session_id":"abc","prompt":"second prompt"}`)
	runHandle(`{"session_id":"other","prompt":"unrelated"}`)

	output := runHistoryCapture(t, "abc")
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got:\n%s", output)
	}
	if !strings.HasSuffix(lines[0], "  first prompt") || !strings.HasSuffix(lines[1], "  second prompt") {
		t.Errorf("unexpected history output:\n%s", output)
	}
}

func TestRunHistoryJSON(t *testing.T) {
	cleanup := setupTestConfig(t)
	defer cleanup()

	storeSession = true
	runHandle(`{"session_id":"abc","prompt":"hello"}`)

	historyJSON = true
	output := runHistoryCapture(t, "abc")

	var e session.Entry
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &e); err != nil {
		t.Fatalf("output is not a JSON entry: %v\n%s", err, output)
	}
	if e.SessionID != "abc" || e.Prompt != "hello" || e.Timestamp.IsZero() {
		t.Errorf("unexpected entry: %+v", e)
	}
}

func TestRunHistoryUnknownSession(t *testing.T) {
	cleanup := setupTestConfig(t)
	defer cleanup()

	output := runHistoryCapture(t, "missing")
	if !strings.Contains(output, "No history for session missing") {
		t.Errorf("unexpected output: %s", output)
	}
}

func TestHistoryCmdArgs(t *testing.T) {
	if err := historyCmd.Args(historyCmd, []string{}); err == nil {
		t.Error("history should require a session id")
	}
	if err := historyCmd.Args(historyCmd, []string{"a", "b"}); err == nil {
		t.Error("history should take exactly one argument")
	}
}
