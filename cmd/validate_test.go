package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgerlanc/hookgate/internal/config"
	"github.com/dgerlanc/hookgate/internal/testutil"
	"github.com/spf13/cobra"
)

func runValidateCapture(t *testing.T) (string, error) {
	t.Helper()
	cmd := &cobra.Command{}
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	err := runValidate(cmd, []string{})
	return stdout.String(), err
}

func TestRunValidateWithValidConfig(t *testing.T) {
	resetGlobalState()
	defer resetGlobalState()

	dir := testutil.SetupTestConfig(t, testutil.MinimalTestConfig)
	testutil.WriteRules(t, dir, "skill-rules.json", testutil.TestRules)

	output, err := runValidateCapture(t)
	if err != nil {
		t.Fatalf("runValidate() error = %v", err)
	}

	expectedStrings := []string{
		"Configuration valid!",
		"Config file: " + filepath.Join(dir, "config.toml"),
		"Command rules: 1",
		"  - rm-recursive: (?i)",
		"Path rules: 1",
		"Prompt rules: 1",
		"  - secrets:",
		"Skill rules: 2",
		"  - testing: 1 keywords, 0 file patterns, 0 tool patterns",
		"  - frontend: 0 keywords, 1 file patterns, 0 tool patterns",
	}

	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("output should contain %q, got:\n%s", expected, output)
		}
	}
}

func TestRunValidateShowsExcludes(t *testing.T) {
	resetGlobalState()
	defer resetGlobalState()

	testutil.SetupTestConfig(t, "")

	output, err := runValidateCapture(t)
	if err != nil {
		t.Fatalf("runValidate() error = %v", err)
	}
	if !strings.Contains(output, "  - dotenv:") || !strings.Contains(output, "      except: ") {
		t.Errorf("expected default dotenv rule with its exclusion, got:\n%s", output)
	}
}

func TestRunValidateWithoutSkillRules(t *testing.T) {
	resetGlobalState()
	defer resetGlobalState()

	testutil.SetupTestConfig(t, testutil.MinimalTestConfig)

	output, err := runValidateCapture(t)
	if err != nil {
		t.Fatalf("missing skill rules should not fail validation: %v", err)
	}
	if !strings.Contains(output, "Skill rules: none") {
		t.Errorf("expected skill rules notice, got:\n%s", output)
	}
}

func TestRunValidateRulesOverride(t *testing.T) {
	resetGlobalState()
	defer resetGlobalState()

	testutil.SetupTestConfig(t, testutil.MinimalTestConfig)
	rulesPath = testutil.WriteRules(t, t.TempDir(), "rules.yml", "skills:\n  - name: docs\n    triggers:\n      prompt_keywords: [readme]\n")

	output, err := runValidateCapture(t)
	if err != nil {
		t.Fatalf("runValidate() error = %v", err)
	}
	if !strings.Contains(output, "Skill rules: 1 ("+rulesPath+")") {
		t.Errorf("expected --rules source, got:\n%s", output)
	}
}

func TestRunValidateWithInvalidConfig(t *testing.T) {
	resetGlobalState()
	defer resetGlobalState()

	dir := testutil.SetupTestConfig(t, "")
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[[deny.command]]\npattern = '(unclosed'\n"), 0644); err != nil {
		t.Fatal(err)
	}
	config.Reset()

	_, err := runValidateCapture(t)
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}
	if !strings.Contains(err.Error(), "built-in defaults") {
		t.Errorf("error should mention the fallback, got: %v", err)
	}
}

func TestValidateCmdUsage(t *testing.T) {
	if validateCmd.Use != "validate" {
		t.Errorf("validateCmd.Use = %q, want 'validate'", validateCmd.Use)
	}
	if validateCmd.Short == "" || validateCmd.Long == "" {
		t.Error("validateCmd should have a description")
	}
}
