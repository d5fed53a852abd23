package cmd

import (
	"fmt"

	"github.com/dgerlanc/hookgate/internal/config"
	"github.com/dgerlanc/hookgate/internal/patterns"
	"github.com/dgerlanc/hookgate/internal/skills"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and show compiled patterns",
	Long: `Validate loads the hookgate configuration and skill rules and displays
everything that will be used.

This is useful for:
- Checking that your config.toml syntax is correct
- Seeing which command, path and prompt rules are active
- Checking which skill rules load from the rule source`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("failed to load configuration")
	}
	if err := config.InitError(); err != nil {
		return fmt.Errorf("configuration invalid (hooks fall back to built-in defaults): %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration valid!")
	if path := config.GetConfigPath(); path != "" {
		fmt.Fprintf(out, "Config file: %s\n", path)
	}
	fmt.Fprintln(out)

	printPatterns(cmd, "Command rules", cfg.CommandPatterns)
	printPatterns(cmd, "Path rules", cfg.PathPatterns)
	printPatterns(cmd, "Prompt rules", cfg.PromptPatterns)

	source := config.ResolveRulesPath(rulesPath, cfg)
	rs, err := skills.Load(source)
	if err != nil {
		// Skill rules are optional; report and keep going.
		fmt.Fprintf(out, "Skill rules: none (%v)\n", err)
		return nil
	}
	fmt.Fprintf(out, "Skill rules: %d (%s)\n", rs.Len(), source)
	for _, r := range rs.Rules() {
		fmt.Fprintf(out, "  - %s: %d keywords, %d file patterns, %d tool patterns\n",
			r.Name,
			len(r.Triggers.PromptKeywords),
			len(r.Triggers.FilePatterns),
			len(r.Triggers.ToolPatterns))
	}

	return nil
}

func printPatterns(cmd *cobra.Command, title string, list []patterns.Pattern) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d\n", title, len(list))
	for _, p := range list {
		fmt.Fprintf(out, "  - %s: %s\n", p.Name, p.Regex.String())
		if p.Exclude != nil {
			fmt.Fprintf(out, "      except: %s\n", p.Exclude.String())
		}
	}
	fmt.Fprintln(out)
}
