package hook

/*
Type Relationships in the hook package:

Data Flow:
  stdin (JSON from the agent runtime)
    → Process()
      → envelope.Parse() → Envelope
      → Evaluate()
          execute/file kinds → policy.Evaluator → decision.Decision
          prompt kind        → prompt.block patterns (Options.Validate)
                             → skills.RuleSet.Match() → advisory text
                             → session.Store.Append() (Options.StoreSession)
    → Result (returned to caller)
    → emit.Emit() → stdout/stderr + exit status

Related packages:
  - config.Config: compiled command, path and prompt patterns plus the skill rule source
  - decision.Decision: the Allow/Block outcome handed to the emitter
  - audit.Entry: logged once per invocation
*/

import (
	"github.com/dgerlanc/hookgate/internal/config"
	"github.com/dgerlanc/hookgate/internal/decision"
	"github.com/dgerlanc/hookgate/internal/envelope"
	"github.com/dgerlanc/hookgate/internal/session"
)

// Options selects the optional behaviors of one invocation.
// The zero value runs the security gate only.
type Options struct {
	// Config supplies patterns and settings; nil means config.Get()
	Config *config.Config
	// Validate checks prompts against the configured blocked-prompt list
	Validate bool
	// Skills runs the trigger matcher on prompt events
	Skills bool
	// RulesPath overrides the configured skill rule source
	RulesPath string
	// StoreSession appends prompts to Store
	StoreSession bool
	// Store receives prompt history when StoreSession is set
	Store session.Store
}

// Result contains the outcome of one invocation.
// Err records an infrastructure fault; Decision is always Allow when Err is set.
type Result struct {
	Envelope envelope.Envelope // The parsed event, zero if parsing failed
	Decision decision.Decision // Allow or Block
	Advisory string            // Freeform text for stdout on Allow
	Skills   []string          // Names of activated skill rules
	Err      error             // Fault that forced a fail-open Allow
}
