package skills

import (
	"fmt"
	"strings"
)

// Activation is a rule whose triggers matched.
type Activation struct {
	Name        string
	Description string
}

// Match returns the activated rules in declared order. The envelope's tool
// field is not consulted: tool patterns are matched against the prompt text.
func (rs RuleSet) Match(prompt string, files []string) []Activation {
	folded := strings.ToLower(prompt)
	var out []Activation
	for _, r := range rs.rules {
		if r.matches(folded, files) {
			out = append(out, Activation{Name: r.Name, Description: r.Description})
		}
	}
	return out
}

// matches checks keyword, file and tool triggers in that order and stops at
// the first satisfied category. folded is the lowercased prompt.
func (r compiledRule) matches(folded string, files []string) bool {
	for _, kw := range r.keywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	for _, re := range r.files {
		for _, f := range files {
			if re.MatchString(f) {
				return true
			}
		}
	}
	for _, tool := range r.tools {
		if strings.Contains(folded, tool) {
			return true
		}
	}
	return false
}

// FormatAdvisory renders activations as freeform advisory text.
// Returns "" when nothing matched.
func FormatAdvisory(activations []Activation) string {
	if len(activations) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Relevant skills for this request:\n")
	for _, a := range activations {
		if a.Description != "" {
			fmt.Fprintf(&b, "- %s: %s\n", a.Name, a.Description)
		} else {
			fmt.Fprintf(&b, "- %s\n", a.Name)
		}
	}
	return b.String()
}
