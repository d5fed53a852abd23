package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgerlanc/hookgate/internal/config"
	"github.com/dgerlanc/hookgate/internal/constants"
	"github.com/dgerlanc/hookgate/internal/session"
	"github.com/spf13/cobra"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history <session-id>",
	Short: "Show the prompts stored for a session",
	Long: `History prints the prompts recorded with --store-session for one
session, oldest first. Only the most recent entries are kept (see
[session] history_limit in config.toml).`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print entries as JSON lines")
}

func runHistory(cmd *cobra.Command, args []string) error {
	stateDir, err := config.GetStateDir()
	if err != nil {
		return fmt.Errorf("failed to get state directory: %w", err)
	}

	store := session.NewFileStore(filepath.Join(stateDir, constants.SessionsDir), config.Get().HistoryLimit)
	entries, err := store.History(args[0])
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintf(out, "No history for session %s\n", args[0])
		return nil
	}

	for _, e := range entries {
		if historyJSON {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to encode entry: %w", err)
			}
			fmt.Fprintln(out, string(data))
			continue
		}
		fmt.Fprintf(out, "%s  %s\n", e.Timestamp.Local().Format(time.DateTime), e.Prompt)
	}
	return nil
}
