// Package decision defines the Allow/Block outcome rendered by evaluators.
package decision

// Kind is the decision tag.
type Kind int

const (
	KindAllow Kind = iota
	KindBlock
)

// DefaultBlockReason is used when a Block is constructed without a reason.
const DefaultBlockReason = "blocked by policy"

// Decision is the outcome of evaluating one envelope.
// A Block always carries a non-empty Reason.
type Decision struct {
	Kind   Kind
	Reason string
	Rule   string // name of the rule that produced a Block, if any
}

// Allow returns an Allow decision.
func Allow() Decision {
	return Decision{Kind: KindAllow}
}

// Block returns a Block decision with the given reason.
func Block(reason string) Decision {
	if reason == "" {
		reason = DefaultBlockReason
	}
	return Decision{Kind: KindBlock, Reason: reason}
}

// BlockRule returns a Block decision attributed to a named rule.
func BlockRule(rule, reason string) Decision {
	d := Block(reason)
	d.Rule = rule
	return d
}

// IsBlock reports whether the decision blocks the action.
func (d Decision) IsBlock() bool {
	return d.Kind == KindBlock
}

func (d Decision) String() string {
	if d.IsBlock() {
		return "block: " + d.Reason
	}
	return "allow"
}
