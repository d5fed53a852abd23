// Package patterns provides compiled, ordered regex rules shared by the
// security gate and the prompt validator, plus the glob translation used by
// skill file triggers.
package patterns

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern holds a compiled rule and its human-readable reason.
type Pattern struct {
	Regex   *regexp.Regexp
	Exclude *regexp.Regexp // optional carve-out; a match here cancels Regex
	Name    string
	Reason  string
	Pattern string // original pattern string
}

// Matches reports whether s matches the rule and is not carved out by Exclude.
func (p Pattern) Matches(s string) bool {
	if p.Regex == nil || !p.Regex.MatchString(s) {
		return false
	}
	return p.Exclude == nil || !p.Exclude.MatchString(s)
}

// Describe returns the reason, falling back to the name and then the raw pattern.
func (p Pattern) Describe() string {
	switch {
	case p.Reason != "":
		return p.Reason
	case p.Name != "":
		return p.Name
	default:
		return p.Pattern
	}
}

// FirstMatch returns the first pattern in lib that matches s.
// Order is a contract: when several rules match, the earliest one wins.
func FirstMatch(s string, lib []Pattern) (Pattern, bool) {
	for _, p := range lib {
		if p.Matches(s) {
			return p, true
		}
	}
	return Pattern{}, false
}

// BuildFoldPattern makes a pattern case-insensitive unless it already sets flags.
func BuildFoldPattern(pattern string) string {
	if strings.HasPrefix(pattern, "(?") {
		return pattern
	}
	return `(?i)` + pattern
}

// BuildGlobPattern converts a glob-like pattern to an unanchored regex.
// "**" becomes ".*" (crosses path separators), "*" becomes "[^/]*", and every
// other character is matched literally.
// "**/*.test.ts" becomes `.*/[^/]*\.test\.ts`
func BuildGlobPattern(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); {
		if strings.HasPrefix(glob[i:], "**") {
			b.WriteString(`.*`)
			i += 2
			continue
		}
		if glob[i] == '*' {
			b.WriteString(`[^/]*`)
			i++
			continue
		}
		j := i
		for j < len(glob) && glob[j] != '*' {
			j++
		}
		b.WriteString(regexp.QuoteMeta(glob[i:j]))
		i = j
	}
	return b.String()
}

// Compile compiles a case-insensitive rule with an optional exclusion.
// Returns an error if either pattern is invalid.
func Compile(pattern, exclude, name, reason string) (Pattern, error) {
	if pattern == "" {
		return Pattern{}, fmt.Errorf("empty pattern for rule %q", name)
	}
	re, err := regexp.Compile(BuildFoldPattern(pattern))
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	p := Pattern{Regex: re, Name: name, Reason: reason, Pattern: pattern}
	if exclude != "" {
		ex, err := regexp.Compile(BuildFoldPattern(exclude))
		if err != nil {
			return Pattern{}, fmt.Errorf("invalid exclude pattern %q: %w", exclude, err)
		}
		p.Exclude = ex
	}
	return p, nil
}

// MustCompile is like Compile but panics if the pattern is invalid.
func MustCompile(pattern, exclude, name, reason string) Pattern {
	p, err := Compile(pattern, exclude, name, reason)
	if err != nil {
		panic(err)
	}
	return p
}
