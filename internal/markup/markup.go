// Package markup renders Codewars-style conditional documentation for a
// single implementation language.
//
// A conditional block is a fenced region whose opening fence carries a
// directive:
//
//	```if:python,javascript
//	shown for python and javascript
//	```
//
//	~~~if-not:go
//	hidden for go
//	~~~
//
// Fences are three or more backticks or exactly three tildes, and the
// closing fence must repeat the opening marker exactly.
package markup

import (
	"errors"
	"fmt"

	"github.com/dlclark/regexp2"

	"github.com/kataforge-dev/kataforge/internal/rule"
)

const fence = "(?<fence>`{3,}|~{3})"

var unwrapConditional = rule.Rule{
	Name:        "unwrap-conditional",
	Pattern:     rule.MustCompile(fence+`if[^\n]+\n(?<content>.+?)\n\k<fence>`, rule.DotAll),
	Replacement: "${content}",
}

// Render removes the blocks that do not apply to language, unwraps the
// conditional blocks that do, and drops fenced code samples written for
// other languages. Prose and blocks for language keep their order.
func Render(doc, language string) (string, error) {
	p, err := pipeline(language)
	if err != nil {
		return "", err
	}
	return p.Apply(doc)
}

// MustRender is Render for callers that control the language name.
func MustRender(doc, language string) string {
	out, err := Render(doc, language)
	if err != nil {
		panic(err)
	}
	return out
}

// ErrNoLanguage is returned when Render is called without a language.
var ErrNoLanguage = errors.New("active language is required")

func pipeline(language string) (rule.Pipeline, error) {
	if language == "" {
		return nil, ErrNoLanguage
	}
	lang := regexp2.Escape(language)

	removeIfs, err := rule.Compile(
		fence+`if:(?:(?!`+lang+`).)*?\n.+?\n\k<fence>(?:\n+|\z)`, rule.DotAll)
	if err != nil {
		return nil, fmt.Errorf("if blocks for %q: %w", language, err)
	}

	removeIfNots, err := rule.Compile(
		fence+`if-not:[^\n]*?(?=`+lang+`)[^\n]+?\n.+?\n\k<fence>(?:\n+|\z)`, rule.DotAll)
	if err != nil {
		return nil, fmt.Errorf("if-not blocks for %q: %w", language, err)
	}

	removeOthers, err := rule.Compile(
		fence+`(?!`+lang+`|if)[^\n]+\n.+?\n\k<fence>(?:\n+|\z)`, rule.DotAll)
	if err != nil {
		return nil, fmt.Errorf("code blocks for %q: %w", language, err)
	}

	return rule.Pipeline{
		{Name: "remove-if", Pattern: removeIfs},
		{Name: "remove-if-not", Pattern: removeIfNots},
		unwrapConditional,
		{Name: "remove-other-code", Pattern: removeOthers},
	}, nil
}
