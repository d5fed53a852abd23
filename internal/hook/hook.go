// Package hook runs one hookgate invocation: it parses the event envelope,
// selects the evaluators for its kind and collects the decision and advisory
// text for the emitter. Every infrastructure fault fails open.
package hook

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dgerlanc/hookgate/internal/audit"
	"github.com/dgerlanc/hookgate/internal/config"
	"github.com/dgerlanc/hookgate/internal/decision"
	"github.com/dgerlanc/hookgate/internal/envelope"
	"github.com/dgerlanc/hookgate/internal/logger"
	"github.com/dgerlanc/hookgate/internal/policy"
)

// ErrPanic wraps a panic recovered during evaluation.
var ErrPanic = errors.New("panic during evaluation")

// Process reads one envelope from r and evaluates it.
// It never returns a Block for a fault: unreadable input, evaluator errors
// and panics all produce Allow with Result.Err set.
func Process(r io.Reader, opts Options) (res Result) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("%w: %v", ErrPanic, p)
			logger.Warn("recovered from panic, allowing", "error", err)
			res = Result{Envelope: res.Envelope, Decision: decision.Allow(), Err: err}
		}
		logAudit(res, time.Since(start))
	}()

	env, err := envelope.Parse(r)
	if err != nil {
		logger.Warn("ignoring unreadable input", "error", err)
		return Result{Decision: decision.Allow(), Err: err}
	}
	res.Envelope = env

	return Evaluate(env, opts)
}

// Evaluate runs the evaluators that apply to env's kind.
func Evaluate(env envelope.Envelope, opts Options) Result {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Get()
	}

	kind := env.Kind()
	logger.Debug("evaluating envelope",
		"tool", env.Tool(),
		"kind", kind.String(),
		"event", env.HookEvent())

	switch {
	case kind == envelope.KindPrompt:
		return evaluatePrompt(env, cfg, opts)
	case kind == envelope.KindExecute || kind.IsFile():
		return evaluateAction(env, cfg)
	default:
		logger.Debug("no policy applies", "tool", env.Tool())
		return Result{Envelope: env, Decision: decision.Allow()}
	}
}

// evaluateAction runs the security gate on a shell or file action.
func evaluateAction(env envelope.Envelope, cfg *config.Config) Result {
	res := Result{Envelope: env, Decision: decision.Allow()}

	d, err := policy.New(cfg.CommandPatterns, cfg.PathPatterns).Evaluate(env)
	if err != nil {
		logger.Warn("policy evaluation failed, allowing", "tool", env.Tool(), "error", err)
		res.Err = err
		return res
	}
	if d.IsBlock() {
		logger.Debug("blocked", "rule", d.Rule, "reason", d.Reason)
	}
	res.Decision = d
	return res
}

// logAudit logs the invocation outcome to the audit log.
func logAudit(res Result, elapsed time.Duration) {
	var configError string
	if err := config.InitError(); err != nil {
		configError = err.Error()
	}
	var errText string
	if res.Err != nil {
		errText = res.Err.Error()
	}

	verdict := "allow"
	if res.Decision.IsBlock() {
		verdict = "block"
	}

	env := res.Envelope
	audit.Log(audit.Entry{
		SessionID:   env.SessionID(),
		DurationMs:  float64(elapsed.Microseconds()) / 1000.0,
		Event:       env.HookEvent(),
		Tool:        env.Tool(),
		Kind:        env.Kind().String(),
		Decision:    verdict,
		Rule:        res.Decision.Rule,
		Reason:      res.Decision.Reason,
		Skills:      res.Skills,
		Error:       errText,
		Input:       env.Raw(),
		ConfigPath:  config.GetConfigPath(),
		ConfigError: configError,
	})
}
