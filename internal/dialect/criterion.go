package dialect

import (
	"context"
	"regexp"
	"strings"

	"github.com/kataforge-dev/kataforge/internal/rule"
)

// CriterionRewriter converts Criterion (C) tests to Catch2.
type CriterionRewriter struct {
	pipeline rule.Pipeline
}

var criterionAssertion = regexp.MustCompile(`\bcr_(assert|expect)(_not|_eq|_neq)?\s*\(`)

// NewCriterionRewriter creates the Criterion to Catch2 rewriter.
func NewCriterionRewriter() *CriterionRewriter {
	return &CriterionRewriter{
		pipeline: rule.Pipeline{
			{
				// Test(math, add_test) -> TEST_CASE("math:add_test", "[math]")
				Name:        "test-declaration",
				Pattern:     rule.MustCompile(`\bTest\s*\(\s*(\w+)\s*,\s*(\w+)\s*\)`, 0),
				Replacement: `TEST_CASE("$1:$2", "[$1]")`,
			},
			{
				Name:        "drop-criterion-include",
				Pattern:     rule.MustCompile(`^[ \t]*#include\s*<criterion/criterion\.h>[ \t]*(?:\r?\n)?`, rule.Lines),
				Replacement: "",
			},
		},
	}
}

// Name implements Rewriter.
func (r *CriterionRewriter) Name() string {
	return CriterionToCatch2
}

// Rewrite implements Rewriter.
func (r *CriterionRewriter) Rewrite(ctx context.Context, src string, _ Options) (string, error) {
	if err := checkContext(ctx); err != nil {
		return "", err
	}

	out, err := r.pipeline.Apply(src)
	if err != nil {
		return "", err
	}
	return rewriteCalls(out, criterionAssertion, rewriteCriterionCall)
}

// rewriteCriterionCall maps cr_assert, cr_assert_not, cr_expect and
// cr_expect_not (plus the _eq/_neq comparisons) to REQUIRE, REQUIRE_FALSE
// and CHECK. Negated expectations prepend '!' to the condition text.
func rewriteCriterionCall(c call) (callEdit, error) {
	kind, variant := c.Groups[0], c.Groups[1]
	args := c.Args

	var cond string
	var rest []string

	switch variant {
	case "_eq", "_neq":
		if len(args) < 2 {
			return callEdit{}, shapeError(c.Text, "%s needs two operands, got %d", c.Callee, len(args))
		}
		op := " == "
		if variant == "_neq" {
			op = " != "
		}
		cond = comparand(args[0], false) + op + comparand(args[1], false)
		rest = args[2:]
	default:
		if len(args) == 0 {
			return callEdit{}, shapeError(c.Text, "%s needs a condition", c.Callee)
		}
		cond = args[0]
		rest = args[1:]
	}

	if len(rest) > 0 && !isStringLiteral(rest[0]) {
		return callEdit{}, shapeError(c.Text, "message argument must be a string literal, got %s", rest[0])
	}

	var name string
	skip := 0
	switch {
	case kind == "assert" && variant == "_not":
		name = "REQUIRE_FALSE"
	case kind == "assert":
		name = "REQUIRE"
	case kind == "expect" && variant == "_not":
		name = "CHECK"
		cond = "!" + cond
		skip = leadingSemicolon(c.Rest)
	default:
		name = "CHECK"
		skip = leadingSemicolon(c.Rest)
	}

	if len(rest) > 0 {
		name += "_MSG"
	}

	text := name + "(" + strings.Join(append([]string{cond}, rest...), ", ") + ")"
	if kind == "expect" {
		text += ";"
	}
	return callEdit{Text: text, Skip: skip}, nil
}
