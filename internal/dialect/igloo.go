package dialect

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kataforge-dev/kataforge/internal/rule"
	"github.com/kataforge-dev/kataforge/internal/tokenizer"
)

const catch2Include = "#include <catch2/catch_all.hpp>"

var (
	iglooAssertion = regexp.MustCompile(`\b(?:Assert::That|AssertThat)\s*\(`)
	iglooMatcher   = regexp.MustCompile(`^((?:Is\s*\(\s*\)\s*\.\s*)?(?:Not\s*\(\s*\)\s*\.\s*)?\w+)\s*\(`)
	spaceRun       = regexp.MustCompile(`\s+`)
)

// comparisonMatchers map an Igloo constraint to the C++ operator it checks.
var comparisonMatchers = map[string]string{
	"Equals":             "==",
	"EqualsContainer":    "==",
	"Is().EqualTo":       "==",
	"Is().Not().EqualTo": "!=",
	"IsGreaterThan":      ">",
	"Is().GreaterThan":   ">",
	"IsLessThan":         "<",
	"Is().LessThan":      "<",
}

// truthMatchers take no operand. The value is the Catch2 macro to use.
var truthMatchers = map[string]string{
	"IsTrue":     "REQUIRE",
	"Is().True":  "REQUIRE",
	"IsFalse":    "REQUIRE_FALSE",
	"Is().False": "REQUIRE_FALSE",
}

// IglooRewriter converts Igloo (C++) specs to Catch2.
type IglooRewriter struct {
	include  rule.Rule
	pipeline rule.Pipeline
}

// NewIglooRewriter creates the Igloo to Catch2 rewriter.
func NewIglooRewriter() *IglooRewriter {
	return &IglooRewriter{
		include: rule.Rule{
			Name:    "igloo-include",
			Pattern: rule.MustCompile(`^[ \t]*#include\s*<igloo/igloo\.h>[ \t]*(?:\r?\n)?`, rule.Lines),
			Limit:   1,
		},
		pipeline: rule.Pipeline{
			{
				Name:    "drop-igloo-namespace",
				Pattern: rule.MustCompile(`^[ \t]*using\s+namespace\s+igloo\s*;[ \t]*(?:\r?\n)?`, rule.Lines),
				Limit:   1,
			},
			{
				Name:        "describe",
				Pattern:     rule.MustCompile(`\bDescribe\s*\(\s*(\w+)\s*\)`, 0),
				Replacement: `TEST_CASE("$1")`,
			},
			{
				Name:        "it",
				Pattern:     rule.MustCompile(`\b(?:It|Context)\s*\(\s*(\w+)\s*\)`, 0),
				Replacement: `SECTION("$1")`,
			},
		},
	}
}

// Name implements Rewriter.
func (r *IglooRewriter) Name() string {
	return IglooToCatch2
}

// Rewrite implements Rewriter.
func (r *IglooRewriter) Rewrite(ctx context.Context, src string, _ Options) (string, error) {
	if err := checkContext(ctx); err != nil {
		return "", err
	}

	// The Igloo include becomes the Catch2 include, once.
	include := r.include
	if !strings.Contains(src, catch2Include) {
		include.Replacement = catch2Include + "\n"
	}

	out, err := append(rule.Pipeline{include}, r.pipeline...).Apply(src)
	if err != nil {
		return "", err
	}
	return rewriteCalls(out, iglooAssertion, rewriteIglooCall)
}

func rewriteIglooCall(c call) (callEdit, error) {
	switch len(c.Args) {
	case 1:
		return callEdit{Text: "REQUIRE(" + c.Args[0] + ")"}, nil
	case 2:
		text, err := iglooComparison(c.Args[0], c.Args[1])
		if err != nil {
			return callEdit{}, shapeError(c.Text, "%v", err)
		}
		return callEdit{Text: text}, nil
	default:
		return callEdit{}, shapeError(c.Text, "expected one or two arguments, got %d", len(c.Args))
	}
}

// iglooComparison builds the Catch2 assertion for That(actual, matcher).
// The matcher call must span the whole argument.
func iglooComparison(actual, matcher string) (string, error) {
	loc := iglooMatcher.FindStringSubmatchIndex(matcher)
	if loc == nil {
		return "", fmt.Errorf("unrecognized matcher %s", matcher)
	}
	head := spaceRun.ReplaceAllString(matcher[loc[2]:loc[3]], "")

	list, err := tokenizer.Tokenize(matcher, loc[1]-1)
	if err != nil || list.End != len(matcher)-1 {
		return "", fmt.Errorf("matcher %s must be a single call", head)
	}

	if macro, ok := truthMatchers[head]; ok {
		if list.Len() != 0 {
			return "", fmt.Errorf("%s takes no arguments", head)
		}
		return macro + "(" + actual + ")", nil
	}

	op, ok := comparisonMatchers[head]
	if !ok {
		return "", fmt.Errorf("unsupported matcher %s", head)
	}
	if list.Len() != 1 || list.Args[0] == "" {
		return "", fmt.Errorf("%s takes exactly one argument", head)
	}

	relational := op == "<" || op == ">"
	return "REQUIRE(" + comparand(actual, relational) + " " + op + " " + comparand(list.Args[0], relational) + ")", nil
}
