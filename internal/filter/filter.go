package filter

import "strings"

// Rule represents a single ignore or re-include rule.
type Rule struct {
	Pattern *compiledPattern
	Include bool // true=re-include, false=ignore
}

// Chain holds an ordered list of ignore rules.
type Chain struct {
	rules  []Rule
	noCase bool
}

// NewChain creates an empty chain. Matching is case-sensitive unless noCase
// is set.
func NewChain(noCase bool) *Chain {
	return &Chain{noCase: noCase}
}

// FromRules builds a chain from ignore rules as written in configuration:
// a leading "!" marks a re-include rule, anything else is ignored.
func FromRules(rules []string, noCase bool) (*Chain, error) {
	c := NewChain(noCase)
	for _, r := range rules {
		if err := c.Add(r); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add appends a rule, honoring a leading "!" as re-include.
func (c *Chain) Add(rule string) error {
	if strings.HasPrefix(rule, "!") {
		return c.AddInclude(rule[1:])
	}
	return c.AddExclude(rule)
}

// AddExclude adds an ignore rule for the given pattern.
func (c *Chain) AddExclude(pattern string) error {
	cp, err := compilePattern(pattern, c.noCase)
	if err != nil {
		return err
	}
	c.rules = append(c.rules, Rule{Pattern: cp, Include: false})
	return nil
}

// AddInclude adds a re-include rule for the given pattern.
func (c *Chain) AddInclude(pattern string) error {
	cp, err := compilePattern(pattern, c.noCase)
	if err != nil {
		return err
	}
	c.rules = append(c.rules, Rule{Pattern: cp, Include: true})
	return nil
}

// Empty reports whether the chain has no rules.
func (c *Chain) Empty() bool {
	return len(c.rules) == 0
}

// Len returns the number of rules.
func (c *Chain) Len() int {
	return len(c.rules)
}

// Match returns true if relPath should be KEPT (not ignored). relPath is
// slash-separated and relative to the pattern's context.
func (c *Chain) Match(relPath string) bool {
	// Walk rules in order; first match wins.
	for _, rule := range c.rules {
		if rule.Pattern.match(relPath) {
			return rule.Include
		}
	}

	// No match → keep (default).
	return true
}

// Rules returns the rules as written, "!"-prefixed for re-includes.
func (c *Chain) Rules() []string {
	out := make([]string, 0, len(c.rules))
	for _, r := range c.rules {
		if r.Include {
			out = append(out, "!"+r.Pattern.original)
			continue
		}
		out = append(out, r.Pattern.original)
	}
	return out
}
