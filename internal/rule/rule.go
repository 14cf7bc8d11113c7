// Package rule runs ordered (pattern, transform) substitutions over text.
//
// Patterns use github.com/dlclark/regexp2 because the rewrite grammars need
// back-references and look-around, which the standard regexp package does
// not support.
package rule

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
)

// MatchTimeout bounds a single pattern evaluation.
const MatchTimeout = 2 * time.Second

// Common option sets.
const (
	// Lines makes ^ and $ match at line boundaries.
	Lines = regexp2.Multiline
	// DotAll lets . match newlines.
	DotAll = regexp2.Singleline
)

// MustCompile compiles expr with the given options and the package match
// timeout. It panics on invalid patterns, so use it for package-level rules.
func MustCompile(expr string, opts regexp2.RegexOptions) *regexp2.Regexp {
	re := regexp2.MustCompile(expr, opts)
	re.MatchTimeout = MatchTimeout
	return re
}

// Compile is MustCompile for patterns built at run time.
func Compile(expr string, opts regexp2.RegexOptions) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(expr, opts)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	re.MatchTimeout = MatchTimeout
	return re, nil
}

// Transform computes the replacement for one match.
type Transform func(m regexp2.Match) (string, error)

// Rule is one substitution step.
type Rule struct {
	// Name identifies the rule in errors and logs.
	Name string

	// Pattern selects the text to replace.
	Pattern *regexp2.Regexp

	// Replacement is a regexp2 substitution template ($1, ${name}).
	// Ignored when Transform is set.
	Replacement string

	// Transform computes the replacement from the match.
	Transform Transform

	// Limit caps the number of replacements; zero or negative means all.
	Limit int
}

// Apply runs the rule once over src.
func (r Rule) Apply(src string) (string, error) {
	count := -1
	if r.Limit > 0 {
		count = r.Limit
	}

	if r.Transform == nil {
		out, err := r.Pattern.Replace(src, r.Replacement, -1, count)
		if err != nil {
			return "", fmt.Errorf("rule %s: %w", r.Name, err)
		}
		return out, nil
	}

	var firstErr error
	out, err := r.Pattern.ReplaceFunc(src, func(m regexp2.Match) string {
		if firstErr != nil {
			return m.String()
		}
		repl, err := r.Transform(m)
		if err != nil {
			firstErr = err
			return m.String()
		}
		return repl
	}, -1, count)
	if err != nil {
		return "", fmt.Errorf("rule %s: %w", r.Name, err)
	}
	if firstErr != nil {
		return "", fmt.Errorf("rule %s: %w", r.Name, firstErr)
	}
	return out, nil
}

// Pipeline is an ordered list of rules. Later rules see the output of
// earlier ones.
type Pipeline []Rule

// Apply runs every rule in order.
func (p Pipeline) Apply(src string) (string, error) {
	out := src
	for _, r := range p {
		var err error
		out, err = r.Apply(out)
		if err != nil {
			return "", err
		}
	}
	return out, nil
}

// Names returns the rule names in execution order.
func (p Pipeline) Names() []string {
	names := make([]string, len(p))
	for i, r := range p {
		names[i] = r.Name
	}
	return names
}

// Group returns the text of a named group and whether it participated in
// the match.
func Group(m regexp2.Match, name string) (string, bool) {
	g := m.GroupByName(name)
	if g == nil || len(g.Captures) == 0 {
		return "", false
	}
	return g.String(), true
}
