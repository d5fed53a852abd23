// Package policy implements the security gate: it blocks dangerous shell
// commands and access to sensitive files.
package policy

import (
	"errors"
	"fmt"

	"github.com/dgerlanc/hookgate/internal/decision"
	"github.com/dgerlanc/hookgate/internal/envelope"
	"github.com/dgerlanc/hookgate/internal/logger"
	"github.com/dgerlanc/hookgate/internal/patterns"
)

// ErrMalformedParameter is returned when a tool parameter has the wrong type.
var ErrMalformedParameter = errors.New("malformed tool parameter")

// Evaluator holds the ordered pattern libraries for one invocation.
type Evaluator struct {
	Commands []patterns.Pattern
	Paths    []patterns.Pattern
}

// New returns an Evaluator over the given libraries.
func New(commands, paths []patterns.Pattern) *Evaluator {
	return &Evaluator{Commands: commands, Paths: paths}
}

// Evaluate renders a decision for execute and file events. Other events are
// allowed. A non-nil error means the evaluator could not decide; the
// returned decision is then always Allow.
func (e *Evaluator) Evaluate(env envelope.Envelope) (decision.Decision, error) {
	kind := env.Kind()

	if kind == envelope.KindExecute {
		cmd, present, isString := env.StringParam(envelope.ParamCommand)
		if present && !isString {
			v, _ := env.Param(envelope.ParamCommand)
			return decision.Allow(), fmt.Errorf("%w: command is %T", ErrMalformedParameter, v)
		}
		if m := CheckCommand(cmd, e.Commands); m.Matched {
			logger.Debug("command matched deny rule", "rule", m.Name, "segment", m.Segment)
			return decision.BlockRule(m.Name, CommandReason(m)), nil
		}
	}

	if kind.IsFile() {
		path, err := filePath(env)
		if err != nil {
			return decision.Allow(), err
		}
		if m := CheckPath(path, e.Paths); m.Matched {
			logger.Debug("path matched deny rule", "rule", m.Name, "path", path)
			return decision.BlockRule(m.Name, PathReason(path, m)), nil
		}
	}

	return decision.Allow(), nil
}

// filePath extracts the target path of a file operation.
func filePath(env envelope.Envelope) (string, error) {
	for _, key := range []string{envelope.ParamFilePath, envelope.ParamNotebookPath, envelope.ParamPath} {
		path, present, isString := env.StringParam(key)
		if !present {
			continue
		}
		if !isString {
			v, _ := env.Param(key)
			return "", fmt.Errorf("%w: %s is %T", ErrMalformedParameter, key, v)
		}
		return path, nil
	}
	return "", nil
}

// CommandReason formats the block reason for a dangerous command.
func CommandReason(m Match) string {
	reason := "Dangerous command pattern detected: " + m.Reason
	if m.Segment != "" {
		reason += fmt.Sprintf(" (in %q)", m.Segment)
	}
	return reason
}

// PathReason formats the block reason for a sensitive path.
func PathReason(path string, m Match) string {
	return fmt.Sprintf("Access to sensitive file blocked: %s (%s)", path, m.Reason)
}
