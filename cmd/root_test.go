package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgerlanc/hookgate/internal/audit"
	"github.com/dgerlanc/hookgate/internal/config"
	"github.com/dgerlanc/hookgate/internal/constants"
	"github.com/dgerlanc/hookgate/internal/testutil"
	"github.com/spf13/cobra"
)

// resetGlobalState resets all global flags to their default values
func resetGlobalState() {
	verbose = false
	dryRun = false
	profile = ""
	auditLog = false
	storeSession = false
	validatePrompts = false
	noSkills = false
	rulesPath = ""
	auditPath = ""
	historyJSON = false
	initForce = false
	initConfigOnly = false
	initClaudeSettings = ""
	config.Reset()
	audit.Reset()
}

func TestIsVerbose(t *testing.T) {
	tests := []struct {
		name     string
		value    bool
		expected bool
	}{
		{"verbose false", false, false},
		{"verbose true", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobalState()
			verbose = tt.value
			if got := IsVerbose(); got != tt.expected {
				t.Errorf("IsVerbose() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsDryRun(t *testing.T) {
	tests := []struct {
		name     string
		value    bool
		expected bool
	}{
		{"dry-run false", false, false},
		{"dry-run true", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobalState()
			dryRun = tt.value
			if got := IsDryRun(); got != tt.expected {
				t.Errorf("IsDryRun() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetProfile(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{"empty profile", "", ""},
		{"named profile", "strict", "strict"},
		{"profile with dash", "my-profile", "my-profile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobalState()
			profile = tt.value
			if got := GetProfile(); got != tt.expected {
				t.Errorf("GetProfile() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestInitAppWithEnvProfile(t *testing.T) {
	resetGlobalState()
	defer resetGlobalState()

	testutil.SetupTestConfig(t, testutil.MinimalTestConfig)
	config.Reset()
	t.Setenv(constants.EnvProfile, "test-profile")

	initApp()

	if config.GetProfile() != "test-profile" {
		t.Errorf("expected profile 'test-profile' from env var, got %q", config.GetProfile())
	}
	// config.test-profile.toml does not exist, so config.toml is used
	if len(config.Get().PromptPatterns) != 1 {
		t.Errorf("expected fallback to config.toml, got %d prompt rules", len(config.Get().PromptPatterns))
	}
}

func TestInitAppProfileFlagOverridesEnv(t *testing.T) {
	resetGlobalState()
	defer resetGlobalState()

	dir := testutil.SetupTestConfig(t, testutil.MinimalTestConfig)
	config.Reset()
	t.Setenv(constants.EnvProfile, "env-profile")

	strict := `
[[deny.command]]
name = "any-git"
pattern = '\bgit\b'
reason = "git disabled"
`
	if err := os.WriteFile(filepath.Join(dir, "config.flag-profile.toml"), []byte(strict), 0644); err != nil {
		t.Fatal(err)
	}

	// Simulate --profile
	profile = "flag-profile"

	initApp()

	if config.GetProfile() != "flag-profile" {
		t.Errorf("expected profile 'flag-profile' from flag, got %q", config.GetProfile())
	}
	cmds := config.Get().CommandPatterns
	if len(cmds) != 1 || cmds[0].Name != "any-git" {
		t.Errorf("expected profile config to load, got %+v", cmds)
	}
}

func TestInitAppReadsEnvironment(t *testing.T) {
	resetGlobalState()
	defer resetGlobalState()

	testutil.SetupTestConfig(t, testutil.MinimalTestConfig)
	config.Reset()

	logPath := filepath.Join(t.TempDir(), "audit.log")
	t.Setenv(constants.EnvRules, "/tmp/rules.yaml")
	t.Setenv(constants.EnvAuditLog, logPath)

	auditLog = true
	initApp()

	if GetRulesPath() != "/tmp/rules.yaml" {
		t.Errorf("rulesPath = %q, want env value", GetRulesPath())
	}
	if !audit.IsEnabled() {
		t.Error("expected audit logging with --log")
	}
	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("audit log not created at HOOKGATE_AUDIT_LOG: %v", err)
	}
}

func TestInitAppAuditOffByDefault(t *testing.T) {
	resetGlobalState()
	defer resetGlobalState()

	testutil.SetupTestConfig(t, testutil.MinimalTestConfig)
	config.Reset()
	t.Setenv(constants.EnvAuditLog, filepath.Join(t.TempDir(), "audit.log"))

	initApp()

	if audit.IsEnabled() {
		t.Error("audit logging should be off without --log")
	}
}

func TestRootCmdFlags(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		expectVerbose  bool
		expectDryRun   bool
		expectProfile  string
		expectLog      bool
		expectStore    bool
		expectValidate bool
		expectNoSkills bool
		expectRules    string
	}{
		{
			name: "no flags",
			args: []string{},
		},
		{
			name:          "verbose short flag",
			args:          []string{"-v"},
			expectVerbose: true,
		},
		{
			name:         "dry-run flag",
			args:         []string{"--dry-run"},
			expectDryRun: true,
		},
		{
			name:          "profile flag",
			args:          []string{"--profile", "strict"},
			expectProfile: "strict",
		},
		{
			name:           "hook flags",
			args:           []string{"--log", "--store-session", "--validate", "--no-skills"},
			expectLog:      true,
			expectStore:    true,
			expectValidate: true,
			expectNoSkills: true,
		},
		{
			name:        "rules flag",
			args:        []string{"--rules", "rules.yaml"},
			expectRules: "rules.yaml",
		},
		{
			name:          "multiple flags",
			args:          []string{"-v", "--dry-run", "--profile", "test", "--log"},
			expectVerbose: true,
			expectDryRun:  true,
			expectProfile: "test",
			expectLog:     true,
		},
	}

	// cobra.OnInitialize hooks run for every command, so keep initApp
	// away from the real home directory.
	t.Setenv(constants.EnvConfigDir, t.TempDir())
	t.Setenv(constants.EnvAuditLog, filepath.Join(t.TempDir(), "audit.log"))
	defer resetGlobalState()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobalState()

			// Fresh command bound to the same variables
			cmd := &cobra.Command{Use: "test"}
			cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "")
			cmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "")
			cmd.PersistentFlags().StringVar(&profile, "profile", "", "")
			cmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "")
			cmd.Flags().BoolVar(&auditLog, "log", false, "")
			cmd.Flags().BoolVar(&storeSession, "store-session", false, "")
			cmd.Flags().BoolVar(&validatePrompts, "validate", false, "")
			cmd.Flags().BoolVar(&noSkills, "no-skills", false, "")

			cmd.SetArgs(tt.args)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.Run = func(cmd *cobra.Command, args []string) {} // noop

			if err := cmd.Execute(); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}

			if verbose != tt.expectVerbose {
				t.Errorf("verbose = %v, want %v", verbose, tt.expectVerbose)
			}
			if dryRun != tt.expectDryRun {
				t.Errorf("dryRun = %v, want %v", dryRun, tt.expectDryRun)
			}
			if profile != tt.expectProfile {
				t.Errorf("profile = %q, want %q", profile, tt.expectProfile)
			}
			if auditLog != tt.expectLog {
				t.Errorf("auditLog = %v, want %v", auditLog, tt.expectLog)
			}
			if storeSession != tt.expectStore {
				t.Errorf("storeSession = %v, want %v", storeSession, tt.expectStore)
			}
			if validatePrompts != tt.expectValidate {
				t.Errorf("validatePrompts = %v, want %v", validatePrompts, tt.expectValidate)
			}
			if noSkills != tt.expectNoSkills {
				t.Errorf("noSkills = %v, want %v", noSkills, tt.expectNoSkills)
			}
			if rulesPath != tt.expectRules {
				t.Errorf("rulesPath = %q, want %q", rulesPath, tt.expectRules)
			}
		})
	}
}

func TestRootCmdRegistersFlags(t *testing.T) {
	for _, name := range []string{"verbose", "dry-run", "profile", "rules"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag --%s", name)
		}
	}
	for _, name := range []string{"log", "store-session", "validate", "no-skills"} {
		flag := rootCmd.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("missing flag --%s", name)
			continue
		}
		if flag.DefValue != "false" {
			t.Errorf("--%s default = %q, want false", name, flag.DefValue)
		}
	}
}

func TestRootCmdHasExpectedSubcommands(t *testing.T) {
	expectedCommands := []string{"init", "validate", "history", "completion"}

	for _, cmdName := range expectedCommands {
		found := false
		for _, cmd := range rootCmd.Commands() {
			if cmd.Name() == cmdName {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected subcommand %q not found", cmdName)
		}
	}
}

func TestRootCmdUsageContainsDescription(t *testing.T) {
	if rootCmd.Short == "" {
		t.Error("rootCmd.Short should not be empty")
	}
	if rootCmd.Long == "" {
		t.Error("rootCmd.Long should not be empty")
	}
	if rootCmd.Use != "hookgate" {
		t.Errorf("rootCmd.Use = %q, want 'hookgate'", rootCmd.Use)
	}
}
