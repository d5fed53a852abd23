// Package testutil provides shared test utilities for hookgate tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dgerlanc/hookgate/internal/config"
	"github.com/dgerlanc/hookgate/internal/constants"
)

// SetupTestConfig creates a temporary config directory with test configuration
// and points HOOKGATE_CONFIG at it. Returns the directory. The environment and
// config state are restored when the test ends.
func SetupTestConfig(t *testing.T, configContent string) string {
	t.Helper()

	tmpDir := t.TempDir()
	t.Setenv(constants.EnvConfigDir, tmpDir)
	t.Setenv(constants.EnvProjectDir, "")

	if configContent != "" {
		configPath := filepath.Join(tmpDir, constants.ConfigFileName)
		if err := os.WriteFile(configPath, []byte(configContent), constants.FileMode); err != nil {
			t.Fatal(err)
		}
	}

	config.Reset()
	config.Init()
	t.Cleanup(config.Reset)

	return tmpDir
}

// SetupStateDir points HOOKGATE_STATE_DIR at a fresh temp directory.
func SetupStateDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(constants.EnvStateDir, dir)
	return dir
}

// WriteRules writes a skill rule source into dir and returns its path.
func WriteRules(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), constants.FileMode); err != nil {
		t.Fatal(err)
	}
	return path
}

// SetupProjectRules points CLAUDE_PROJECT_DIR at a fresh temp directory
// holding content as .claude/skills/skill-rules.json. Returns the file path.
func SetupProjectRules(t *testing.T, content string) string {
	t.Helper()
	projectDir := t.TempDir()
	t.Setenv(constants.EnvProjectDir, projectDir)
	dir := filepath.Join(projectDir, constants.ProjectRulesDir)
	if err := os.MkdirAll(dir, constants.DirMode); err != nil {
		t.Fatal(err)
	}
	return WriteRules(t, dir, constants.RulesFileName, content)
}

// MinimalTestConfig is a minimal config for testing.
const MinimalTestConfig = `
[[deny.command]]
name = "rm-recursive"
pattern = '\brm\s+-rf\b'
reason = "recursive delete"

[[deny.path]]
name = "dotenv"
pattern = '(^|/)\.env$'
reason = "environment file"

[[prompt.block]]
name = "secrets"
pattern = 'print .*secret'
reason = "asks to reveal secrets"
`

// TestRules is a skill rule source with one keyword and one file trigger.
const TestRules = `{
  "skills": [
    {"name": "testing", "description": "Write and run tests", "triggers": {"prompt_keywords": ["test"]}},
    {"name": "frontend", "description": "React components", "triggers": {"file_patterns": ["**/*.tsx"]}}
  ]
}`
