package main

import (
	"regexp"
	"strings"
	"testing"

	"github.com/dgerlanc/hookgate/internal/config"
	"github.com/dgerlanc/hookgate/internal/decision"
	"github.com/dgerlanc/hookgate/internal/envelope"
	"github.com/dgerlanc/hookgate/internal/hook"
	"github.com/dgerlanc/hookgate/internal/patterns"
	"github.com/dgerlanc/hookgate/internal/policy"
	"github.com/dgerlanc/hookgate/internal/skills"
)

// getTestConfig returns the embedded default configuration
func getTestConfig(tb testing.TB) *config.Config {
	tb.Helper()
	cfg, err := config.LoadConfig(config.GetDefaultConfig(), tb.TempDir())
	if err != nil {
		tb.Fatalf("LoadConfig failed: %v", err)
	}
	return cfg
}

// FuzzSplitCommandChain tests the command chain splitting for crashes
func FuzzSplitCommandChain(f *testing.F) {
	f.Add("git status")
	f.Add("git status && echo done")
	f.Add("echo 'hello && world'")
	f.Add("ls | grep foo | wc -l")
	f.Add("")
	f.Add("   ")
	f.Add("$(cat /etc/passwd)")
	f.Add("`whoami`")
	f.Add(":(){ :|:& };:")
	f.Add("for i in 1 2 3; do echo $i; done")
	f.Add("if [ -f foo ]; then cat foo; fi")

	f.Fuzz(func(t *testing.T, cmd string) {
		// Just ensure no panics
		_, _ = policy.SplitCommandChain(cmd)
	})
}

// FuzzProcess checks that no input can crash the hook or block by fault
func FuzzProcess(f *testing.F) {
	f.Add(`{"tool_name":"Bash","tool_input":{"command":"git status"}}`)
	f.Add(`{"tool_name":"Bash","tool_input":{"command":"rm -rf /"}}`)
	f.Add(`{"tool_name":"Bash","tool_input":{"command":["rm"]}}`)
	f.Add(`{"tool_name":"Read","tool_input":{"file_path":"/home/u/.ssh/id_ed25519"}}`)
	f.Add(`{"tool_name":"Read","tool_input":{"file_path":7}}`)
	f.Add(`{"prompt":"write tests","files":["a/b.test.ts"]}`)
	f.Add(`{"hook_event_name":"UserPromptSubmit"}`)
	f.Add(`{}`)
	f.Add(`null`)
	f.Add(`not json`)

	cfg := getTestConfig(f)

	f.Fuzz(func(t *testing.T, input string) {
		res := hook.Process(strings.NewReader(input), hook.Options{Config: cfg, Skills: true})
		if res.Err != nil && res.Decision.IsBlock() {
			t.Errorf("fault produced a block: %v", res.Err)
		}
		if res.Decision.IsBlock() && res.Decision.Reason == "" {
			t.Error("block without reason")
		}
	})
}

// FuzzEvaluate checks determinism of the security gate
func FuzzEvaluate(f *testing.F) {
	f.Add("Bash", "sudo rm -rf /")
	f.Add("Bash", "chmod -R 777 .")
	f.Add("Read", "/app/.env.production")
	f.Add("Write", `C:\Users\me\.aws\credentials`)

	cfg := getTestConfig(f)
	ev := policy.New(cfg.CommandPatterns, cfg.PathPatterns)

	f.Fuzz(func(t *testing.T, tool, value string) {
		env := envelope.New(tool, map[string]any{"command": value, "file_path": value})
		first, err1 := ev.Evaluate(env)
		second, err2 := ev.Evaluate(env)
		if first != second || (err1 == nil) != (err2 == nil) {
			t.Errorf("non-deterministic decision: %v vs %v", first, second)
		}
		if err1 != nil && first.Kind != decision.KindAllow {
			t.Errorf("error with non-allow decision: %v", first)
		}
	})
}

// FuzzGlobPattern checks that any glob translates to a valid regexp
func FuzzGlobPattern(f *testing.F) {
	f.Add("**/*.test.ts")
	f.Add("src/*.go")
	f.Add("[a-z]+(?")
	f.Add("")

	f.Fuzz(func(t *testing.T, glob string) {
		if _, err := regexp.Compile(patterns.BuildGlobPattern(glob)); err != nil {
			t.Errorf("glob %q produced invalid regexp: %v", glob, err)
		}
	})
}

// FuzzSkillMatch checks that matching is idempotent
func FuzzSkillMatch(f *testing.F) {
	f.Add("Let's write some tests", "src/foo/bar.test.ts")
	f.Add("DEPLOY", "")

	rs := skills.NewRuleSet([]skills.Rule{
		{Name: "testing", Triggers: skills.Triggers{PromptKeywords: []string{"test"}, FilePatterns: []string{"**/*.test.ts"}}},
		{Name: "deploy", Triggers: skills.Triggers{PromptKeywords: []string{"deploy"}, ToolPatterns: []string{"kubectl"}}},
	})

	f.Fuzz(func(t *testing.T, prompt, file string) {
		a := rs.Match(prompt, []string{file})
		b := rs.Match(prompt, []string{file})
		if len(a) != len(b) {
			t.Fatalf("Match not idempotent: %v vs %v", a, b)
		}
		seen := map[string]bool{}
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("Match not idempotent: %v vs %v", a, b)
			}
			if seen[a[i].Name] {
				t.Fatalf("duplicate activation %q", a[i].Name)
			}
			seen[a[i].Name] = true
		}
	})
}
