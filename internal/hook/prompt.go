package hook

import (
	"time"

	"github.com/dgerlanc/hookgate/internal/config"
	"github.com/dgerlanc/hookgate/internal/decision"
	"github.com/dgerlanc/hookgate/internal/envelope"
	"github.com/dgerlanc/hookgate/internal/logger"
	"github.com/dgerlanc/hookgate/internal/patterns"
	"github.com/dgerlanc/hookgate/internal/session"
	"github.com/dgerlanc/hookgate/internal/skills"
)

// PromptReason formats the block reason for a rejected prompt.
func PromptReason(p patterns.Pattern) string {
	return "Prompt blocked: " + p.Describe()
}

// evaluatePrompt validates a submitted prompt, matches skill triggers and
// records the prompt in the session history. A blocked prompt is neither
// matched nor recorded.
func evaluatePrompt(env envelope.Envelope, cfg *config.Config, opts Options) Result {
	res := Result{Envelope: env, Decision: decision.Allow()}
	prompt := env.Prompt()

	if opts.Validate {
		if p, ok := patterns.FirstMatch(prompt, cfg.PromptPatterns); ok {
			logger.Debug("prompt matched block rule", "rule", p.Name)
			res.Decision = decision.BlockRule(p.Name, PromptReason(p))
			return res
		}
	}

	if opts.Skills {
		path := config.ResolveRulesPath(opts.RulesPath, cfg)
		activations := skills.LoadOrEmpty(path).Match(prompt, env.Files())
		for _, a := range activations {
			res.Skills = append(res.Skills, a.Name)
		}
		res.Advisory = skills.FormatAdvisory(activations)
		logger.Debug("skills matched", "count", len(activations))
	}

	if opts.StoreSession {
		recordPrompt(opts.Store, env)
	}

	return res
}

// recordPrompt appends the prompt to the session history. Failures are
// logged and never change the decision.
func recordPrompt(store session.Store, env envelope.Envelope) {
	if store == nil {
		logger.Warn("session storage requested without a store")
		return
	}
	err := store.Append(session.Entry{
		SessionID: env.SessionID(),
		Prompt:    env.Prompt(),
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		logger.Warn("failed to store session history", "session", env.SessionID(), "error", err)
	}
}
