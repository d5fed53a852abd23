package policy

import (
	"strings"

	"github.com/dgerlanc/hookgate/internal/patterns"
)

// Match contains detailed information about a deny pattern match.
type Match struct {
	Matched bool   // Whether a pattern matched
	Name    string // Name of the rule (from config)
	Reason  string // Human-readable description of the rule
	Pattern string // The regex pattern that matched
	Segment string // Command segment containing the match, when it could be located
}

// CheckCommand scans the whole command string against commands in order and
// returns on first match. Empty commands never match.
func CheckCommand(cmd string, commands []patterns.Pattern) Match {
	if strings.TrimSpace(cmd) == "" {
		return Match{}
	}
	p, ok := patterns.FirstMatch(cmd, commands)
	if !ok {
		return Match{}
	}
	return Match{
		Matched: true,
		Name:    p.Name,
		Reason:  p.Describe(),
		Pattern: p.Pattern,
		Segment: locateSegment(cmd, p),
	}
}

// CheckPath tests a file path against paths in order and returns on first match.
func CheckPath(path string, paths []patterns.Pattern) Match {
	if path == "" {
		return Match{}
	}
	p, ok := patterns.FirstMatch(normalizePath(path), paths)
	if !ok {
		return Match{}
	}
	return Match{
		Matched: true,
		Name:    p.Name,
		Reason:  p.Describe(),
		Pattern: p.Pattern,
	}
}

// normalizePath makes Windows separators match the slash-based patterns.
func normalizePath(path string) string {
	return strings.ReplaceAll(path, `\`, "/")
}
