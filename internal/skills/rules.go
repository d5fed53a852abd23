// Package skills implements the trigger-matching engine: it matches a prompt
// and its in-context files against a declarative skill rule set.
package skills

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dgerlanc/hookgate/internal/logger"
	"github.com/dgerlanc/hookgate/internal/patterns"
	"gopkg.in/yaml.v3"
)

// ErrNoRuleSource is returned when no rule source path is configured.
var ErrNoRuleSource = errors.New("no skill rule source configured")

// Triggers are the activation conditions of a rule. Any satisfied entry in
// any category activates the rule.
type Triggers struct {
	PromptKeywords []string `json:"prompt_keywords,omitempty" yaml:"prompt_keywords,omitempty"`
	FilePatterns   []string `json:"file_patterns,omitempty" yaml:"file_patterns,omitempty"`
	ToolPatterns   []string `json:"tool_patterns,omitempty" yaml:"tool_patterns,omitempty"`
}

// Empty reports whether no trigger is declared.
func (t Triggers) Empty() bool {
	return len(t.PromptKeywords) == 0 && len(t.FilePatterns) == 0 && len(t.ToolPatterns) == 0
}

// Rule is one skill activation rule as declared in the rule source.
type Rule struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Triggers    Triggers `json:"triggers" yaml:"triggers"`
}

// source is the document shape: {"skills": [...]}.
type source struct {
	Skills []Rule `json:"skills" yaml:"skills"`
}

// Format selects the rule source decoder.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFor picks a decoder from the file extension; anything that is not
// .yaml/.yml is decoded as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// compiledRule is a Rule with its triggers normalized for matching.
type compiledRule struct {
	Rule
	keywords []string
	files    []*regexp.Regexp
	tools    []string
}

// RuleSet is an ordered, immutable collection of compiled rules.
// The zero value is an empty rule set.
type RuleSet struct {
	rules []compiledRule
}

// NewRuleSet compiles rules in declared order. Rules without a name and
// rules whose name repeats an earlier rule are dropped.
func NewRuleSet(rules []Rule) RuleSet {
	seen := make(map[string]bool, len(rules))
	compiled := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		if r.Name == "" {
			logger.Warn("skipping skill rule without name", "index", i)
			continue
		}
		if seen[r.Name] {
			logger.Warn("skipping duplicate skill rule", "name", r.Name, "index", i)
			continue
		}
		seen[r.Name] = true
		compiled = append(compiled, compile(r))
	}
	return RuleSet{rules: compiled}
}

// compile lowercases substring triggers and translates file globs.
func compile(r Rule) compiledRule {
	c := compiledRule{
		Rule:     r,
		keywords: foldSet(r.Triggers.PromptKeywords),
		tools:    foldSet(r.Triggers.ToolPatterns),
	}
	seen := make(map[string]bool)
	for _, glob := range r.Triggers.FilePatterns {
		if seen[glob] {
			continue
		}
		seen[glob] = true
		re, err := regexp.Compile(patterns.BuildGlobPattern(glob))
		if err != nil {
			logger.Warn("skipping invalid file pattern", "skill", r.Name, "pattern", glob, "error", err)
			continue
		}
		c.files = append(c.files, re)
	}
	return c
}

// foldSet lowercases entries, dropping duplicates. An empty entry is kept
// and matches every prompt.
func foldSet(values []string) []string {
	var out []string
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.ToLower(v)
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Parse decodes a rule source document.
func Parse(data []byte, format Format) (RuleSet, error) {
	var src source
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &src)
	default:
		err = json.Unmarshal(data, &src)
	}
	if err != nil {
		return RuleSet{}, fmt.Errorf("failed to parse skill rules: %w", err)
	}
	return NewRuleSet(src.Skills), nil
}

// Load reads and parses the rule source at path. On any error the returned
// rule set is empty.
func Load(path string) (RuleSet, error) {
	if path == "" {
		return RuleSet{}, ErrNoRuleSource
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("failed to read skill rules: %w", err)
	}
	rs, err := Parse(data, FormatFor(path))
	if err != nil {
		return RuleSet{}, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// LoadOrEmpty loads the rule source and fails open: a missing source is
// logged at debug level, an unreadable or invalid one at warn level.
func LoadOrEmpty(path string) RuleSet {
	rs, err := Load(path)
	switch {
	case err == nil:
		logger.Debug("skill rules loaded", "path", path, "rules", rs.Len())
	case errors.Is(err, ErrNoRuleSource), errors.Is(err, os.ErrNotExist):
		logger.Debug("no skill rules", "path", path, "error", err)
	default:
		logger.Warn("ignoring skill rules", "path", path, "error", err)
	}
	return rs
}

// Len returns the number of rules.
func (rs RuleSet) Len() int {
	return len(rs.rules)
}

// Rules returns the rules in declared order.
func (rs RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	for i, r := range rs.rules {
		out[i] = r.Rule
	}
	return out
}
