package dialect

import (
	"context"
	"strings"

	"github.com/kataforge-dev/kataforge/internal/rule"
)

// ChaiImport is the canonical import line of the Chai assertion library.
const ChaiImport = "import { assert } from 'chai';"

const chaiAdapter = ChaiImport + `
const ${var} = {
  assertSimilar: assert.deepEqual,
  assertEquals: assert.strictEqual,
  assertDeepEquals: assert.deepEqual,
  expect: assert.isTrue,
  expectError: (message, fn) => assert.throws(fn, null, null, message),
};`

// ChaiRewriter converts tests written against @codewars/test-compat to
// Chai's assert interface.
type ChaiRewriter struct {
	typescript bool
	pipeline   rule.Pipeline
}

// NewChaiRewriter creates the rewriter. The TypeScript variant also drops
// named imports from the local solution module.
func NewChaiRewriter(typescript bool) *ChaiRewriter {
	p := rule.Pipeline{
		{
			Name:        "compat-require",
			Pattern:     rule.MustCompile(`^[^\n]*?\b(?<var>\w+)\s*=\s*require\(\s*(?<quote>["'])@codewars/test-compat\k<quote>\s*\)[^\n]*$`, rule.Lines),
			Replacement: chaiAdapter,
		},
		{
			Name:        "compat-import",
			Pattern:     rule.MustCompile(`^[ \t]*import\s+(?:\*\s+as\s+)?(?<var>\w+)\s+from\s+(?<quote>["'])@codewars/test-compat\k<quote>[^\n]*$`, rule.Lines),
			Replacement: chaiAdapter,
		},
		{
			Name:        "chai-require",
			Pattern:     rule.MustCompile(`^[ \t]*(?:const|let|var)\s+(?:\{\s*assert\s*\}\s*=\s*require\(\s*(?<q1>["'])chai\k<q1>\s*\)|assert\s*=\s*require\(\s*(?<q2>["'])chai\k<q2>\s*\)\s*\.\s*assert)[ \t]*;?[ \t]*$`, rule.Lines),
			Replacement: ChaiImport,
		},
		{
			Name:        "chai-import",
			Pattern:     rule.MustCompile(`^[ \t]*import\s*\{\s*assert\s*\}\s*from\s*(?<quote>["'])chai\k<quote>[ \t]*;?[ \t]*$`, rule.Lines),
			Replacement: ChaiImport,
		},
	}

	if typescript {
		p = append(p, rule.Rule{
			Name:    "solution-import",
			Pattern: rule.MustCompile(`^[ \t]*import\s*\{[^}]*\}\s*from\s*(?<quote>["'])\./solution(?:\.[jt]s)?\k<quote>[ \t]*;?[ \t]*(?:\r?\n)?`, rule.Lines),
		})
	}

	return &ChaiRewriter{typescript: typescript, pipeline: p}
}

// Name implements Rewriter.
func (r *ChaiRewriter) Name() string {
	if r.typescript {
		return CodewarsToChaiTS
	}
	return CodewarsToChai
}

// Rewrite implements Rewriter.
func (r *ChaiRewriter) Rewrite(ctx context.Context, src string, _ Options) (string, error) {
	if err := checkContext(ctx); err != nil {
		return "", err
	}

	out, err := r.pipeline.Apply(src)
	if err != nil {
		return "", err
	}
	return dedupeLine(out, ChaiImport), nil
}

// dedupeLine keeps the first line equal to line and removes the rest.
func dedupeLine(src, line string) string {
	if strings.Count(src, line) < 2 {
		return src
	}

	lines := strings.SplitAfter(src, "\n")
	kept := lines[:0]
	seen := false
	for _, l := range lines {
		if strings.TrimRight(l, "\r\n") == line {
			if seen {
				continue
			}
			seen = true
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "")
}
