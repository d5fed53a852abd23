package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dgerlanc/hookgate/internal/audit"
	"github.com/dgerlanc/hookgate/internal/config"
	"github.com/dgerlanc/hookgate/internal/constants"
	"github.com/dgerlanc/hookgate/internal/emit"
	"github.com/dgerlanc/hookgate/internal/envelope"
	"github.com/dgerlanc/hookgate/internal/hook"
	"github.com/dgerlanc/hookgate/internal/logger"
	"github.com/dgerlanc/hookgate/internal/session"
	"github.com/spf13/cobra"
)

// osExit is replaced in tests.
var osExit = os.Exit

// runHook is the default command that evaluates the event on stdin
func runHook(cmd *cobra.Command, args []string) {
	code := handle(os.Stdin, os.Stdout, os.Stderr)
	audit.Close()
	if code != constants.ExitAllow {
		osExit(code)
	}
}

// handle runs one invocation and returns the exit status.
func handle(stdin io.Reader, stdout, stderr io.Writer) int {
	opts := hook.Options{
		Validate:     validatePrompts,
		Skills:       !noSkills,
		RulesPath:    rulesPath,
		StoreSession: storeSession,
	}
	if storeSession {
		opts.Store = sessionStore()
	}

	res := hook.Process(stdin, opts)

	if dryRun {
		printDryRun(stderr, res)
		return constants.ExitAllow
	}

	return emit.Emit(stdout, stderr, res.Decision, res.Advisory)
}

// sessionStore opens the file-backed session history under the state dir.
func sessionStore() session.Store {
	dir, err := config.GetStateDir()
	if err != nil {
		logger.Warn("session history unavailable", "error", err)
		return nil
	}
	return session.NewFileStore(filepath.Join(dir, constants.SessionsDir), config.Get().HistoryLimit)
}

// printDryRun describes the decision on stderr instead of emitting it.
func printDryRun(w io.Writer, res hook.Result) {
	subject := describe(res.Envelope)
	if res.Decision.IsBlock() {
		fmt.Fprintf(w, "BLOCKED: %s (rule: %s)\n  reason: %s\n", subject, res.Decision.Rule, res.Decision.Reason)
	} else {
		fmt.Fprintf(w, "ALLOWED: %s\n", subject)
	}
	if res.Err != nil {
		fmt.Fprintf(w, "  fail-open: %v\n", res.Err)
	}
	if res.Advisory != "" {
		fmt.Fprint(w, res.Advisory)
	}
}

// describe names what an envelope asks for, for dry-run output.
func describe(env envelope.Envelope) string {
	kind := env.Kind()
	switch {
	case kind == envelope.KindExecute:
		cmd, _, _ := env.StringParam(envelope.ParamCommand)
		return fmt.Sprintf("%s %q", env.Tool(), cmd)
	case kind.IsFile():
		for _, key := range []string{envelope.ParamFilePath, envelope.ParamNotebookPath, envelope.ParamPath} {
			if path, ok, isString := env.StringParam(key); ok && isString {
				return fmt.Sprintf("%s %s", env.Tool(), path)
			}
		}
		return env.Tool()
	case kind == envelope.KindPrompt:
		return fmt.Sprintf("prompt %q", env.Prompt())
	case env.Tool() != "":
		return env.Tool()
	default:
		return "(unreadable input)"
	}
}
