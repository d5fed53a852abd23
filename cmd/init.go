package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgerlanc/hookgate/internal/config"
	"github.com/dgerlanc/hookgate/internal/constants"
	"github.com/dgerlanc/hookgate/internal/envelope"
	"github.com/spf13/cobra"
)

// gatedTools is the PreToolUse matcher hookgate registers under.
var gatedTools = strings.Join([]string{
	envelope.ToolBash,
	envelope.ToolRead,
	envelope.ToolWrite,
	envelope.ToolEdit,
	envelope.ToolMultiEdit,
	envelope.ToolNotebookEdit,
}, "|")

// hookCommands maps each registered event to the command it runs.
var hookCommands = map[string]string{
	envelope.EventPreToolUse:       constants.AppName,
	envelope.EventUserPromptSubmit: constants.AppName + " --store-session",
}

var (
	initForce          bool
	initConfigOnly     bool
	initClaudeSettings string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize hookgate configuration and register its hooks",
	Long: `Initialize writes the default config.toml and a starter skill-rules.json
to ~/.config/hookgate (or the directory in HOOKGATE_CONFIG), then registers
hookgate in ~/.claude/settings.json for PreToolUse and UserPromptSubmit.

Existing files are kept unless --force is given. Use --config-only to skip
the settings file.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing config files")
	initCmd.Flags().BoolVar(&initConfigOnly, "config-only", false, "Only write config files, do not touch agent settings")
	initCmd.Flags().StringVar(&initClaudeSettings, "claude-settings", "", "Path to settings.json (default ~/.claude/settings.json)")
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := config.GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, constants.DirMode); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{constants.ConfigFileName, config.GetDefaultConfig()},
		{constants.RulesFileName, config.GetDefaultRules()},
	}
	for _, f := range files {
		path := filepath.Join(configDir, f.name)
		if _, err := os.Stat(path); err == nil && !initForce {
			fmt.Fprintf(cmd.OutOrStdout(), "Keeping existing %s (use --force to overwrite)\n", path)
			continue
		}
		if err := os.WriteFile(path, f.data, constants.FileMode); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	}

	if initConfigOnly {
		fmt.Fprintln(cmd.OutOrStdout(), "Run 'hookgate validate' to verify your configuration.")
		return nil
	}

	settingsPath := initClaudeSettings
	if settingsPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		settingsPath = filepath.Join(home, ".claude", "settings.json")
	}

	if err := configureSettings(settingsPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered hooks in %s\n", settingsPath)
	fmt.Fprintln(cmd.OutOrStdout(), "Run 'hookgate validate' to verify your configuration.")
	return nil
}

// configureSettings adds the hookgate hooks to the settings file, creating it
// if needed and preserving everything else in it.
func configureSettings(path string) error {
	settings := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &settings); err != nil {
			return fmt.Errorf("failed to parse %s: invalid JSON: %w", path, err)
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if isHookPresent(settings) {
		return nil
	}
	settings = addHooks(settings)

	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), constants.DirMode); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := os.WriteFile(path, append(out, '\n'), constants.FileMode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// isHookPresent reports whether every hookgate event already runs hookgate.
func isHookPresent(settings map[string]any) bool {
	for event := range hookCommands {
		if !eventHasHook(settings, event) {
			return false
		}
	}
	return true
}

// eventHasHook reports whether any matcher under event runs hookgate.
func eventHasHook(settings map[string]any, event string) bool {
	hooks, ok := settings["hooks"].(map[string]any)
	if !ok {
		return false
	}
	matchers, ok := hooks[event].([]any)
	if !ok {
		return false
	}
	for _, m := range matchers {
		entry, ok := m.(map[string]any)
		if !ok {
			continue
		}
		list, ok := entry["hooks"].([]any)
		if !ok {
			continue
		}
		for _, h := range list {
			handler, ok := h.(map[string]any)
			if !ok {
				continue
			}
			if command, ok := handler["command"].(string); ok && isHookgateCommand(command) {
				return true
			}
		}
	}
	return false
}

// isHookgateCommand matches "hookgate", "hookgate --flags" and absolute paths to it.
func isHookgateCommand(command string) bool {
	fields := strings.Fields(command)
	return len(fields) > 0 && filepath.Base(fields[0]) == constants.AppName
}

// addHooks registers hookgate for each missing event, keeping existing
// matchers and unrelated settings.
func addHooks(settings map[string]any) map[string]any {
	if settings == nil {
		settings = map[string]any{}
	}
	hooks, ok := settings["hooks"].(map[string]any)
	if !ok {
		hooks = map[string]any{}
	}
	settings["hooks"] = hooks

	for _, event := range []string{envelope.EventPreToolUse, envelope.EventUserPromptSubmit} {
		if eventHasHook(settings, event) {
			continue
		}
		entry := map[string]any{
			"hooks": []any{
				map[string]any{"type": "command", "command": hookCommands[event]},
			},
		}
		if event == envelope.EventPreToolUse {
			entry["matcher"] = gatedTools
		}
		matchers, _ := hooks[event].([]any)
		hooks[event] = append(matchers, entry)
	}
	return settings
}
