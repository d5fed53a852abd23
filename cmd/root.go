// Package cmd implements the CLI commands for hookgate.
package cmd

import (
	"github.com/dgerlanc/hookgate/internal/audit"
	"github.com/dgerlanc/hookgate/internal/config"
	"github.com/dgerlanc/hookgate/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
	dryRun  bool
	profile string

	// Hook flags
	auditLog        bool
	storeSession    bool
	validatePrompts bool
	noSkills        bool
	rulesPath       string

	// auditPath comes from HOOKGATE_AUDIT_LOG; empty means the default path
	auditPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hookgate",
	Short: "Security gate and skill activator for agent runtime hooks",
	Long: `hookgate is a hook for Claude Code style agent runtimes. It blocks
dangerous shell commands and access to sensitive files, and suggests relevant
skills for submitted prompts.

When called without arguments, it reads one JSON event from stdin. A blocked
action exits with status 2 and prints {"decision":"block","reason":...};
everything else exits 0, printing advisory text for matched skills.

Usage in ~/.claude/settings.json:
  "hooks": {
    "PreToolUse": [{
      "matcher": "Bash|Read|Write|Edit|MultiEdit|NotebookEdit",
      "hooks": [{"type": "command", "command": "hookgate"}]
    }],
    "UserPromptSubmit": [{
      "hooks": [{"type": "command", "command": "hookgate --store-session"}]
    }]
  }`,
	// Run the hook by default when no subcommand is given
	Run: runHook,
	// Silence usage on errors
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Initialize before running any command
	cobra.OnInitialize(initApp)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (debug logging)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Print the decision to stderr and always exit 0")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Config profile to use (or set HOOKGATE_PROFILE env var)")
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "Skill rule source, JSON or YAML (or set HOOKGATE_RULES env var)")

	// Hook flags
	rootCmd.Flags().BoolVar(&auditLog, "log", false, "Append each decision to the audit log")
	rootCmd.Flags().BoolVar(&storeSession, "store-session", false, "Record submitted prompts in the session history")
	rootCmd.Flags().BoolVar(&validatePrompts, "validate", false, "Block prompts matching the configured prompt rules")
	rootCmd.Flags().BoolVar(&noSkills, "no-skills", false, "Skip skill matching for prompts")
}

// initApp initializes the application (logger, config, audit)
func initApp() {
	// Initialize logger
	logger.Init(logger.Options{Verbose: verbose})

	env, err := config.LoadEnv()
	if err != nil {
		logger.Warn("ignoring environment", "error", err)
	}

	// Flags take precedence over environment variables
	if profile == "" {
		profile = env.Profile
	}
	if rulesPath == "" {
		rulesPath = env.RulesPath
	}
	auditPath = env.AuditLog

	// Set profile before initializing config
	if profile != "" {
		config.SetProfile(profile)
	}

	// Initialize config; failures fall back to the embedded defaults
	config.Init()

	// Initialize audit logging (only with --log)
	if err := audit.Init(auditPath, !auditLog, config.Get().AuditMaxBytes); err != nil {
		logger.Warn("audit logging disabled", "error", err)
	}
}

// IsVerbose returns whether verbose mode is enabled
func IsVerbose() bool {
	return verbose
}

// IsDryRun returns whether dry-run mode is enabled
func IsDryRun() bool {
	return dryRun
}

// GetProfile returns the current profile name
func GetProfile() string {
	return profile
}

// GetRulesPath returns the skill rule source override, if any
func GetRulesPath() string {
	return rulesPath
}
