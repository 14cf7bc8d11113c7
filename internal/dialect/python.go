package dialect

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kataforge-dev/kataforge/internal/rule"
)

// Both Python lowerings read the codewars_test dialect:
//
//	import codewars_test as test
//
//	@test.describe("Group")
//	def group():
//	    @test.it("case")
//	    def case():
//	        test.assert_equals(actual, expected, "message")
//
// The markers may also be bare calls followed by statements at the same
// indentation. Structure is recovered line by line; the first statement
// after a bare marker belongs to it until the next marker.

var (
	pyMarkerLine = regexp.MustCompile(`^([ \t]*)(@)?test\.(describe|it)\(\s*(?:"([^"]*)"|'([^']*)')\s*\)\s*(?:#.*)?$`)
	pyEmptyDef   = regexp.MustCompile(`^[ \t]*def\s+\w+\s*\(\s*\)\s*(?:->\s*None\s*)?:\s*(?:#.*)?$`)
	pyAssertion  = regexp.MustCompile(`^test\.(?:assert_equals|assert_not_equals|expect)\s*\(`)
)

// pyImports removes the compat and solution imports. The first rule's
// replacement is set per lowering.
func pyImports(compatReplacement string) rule.Pipeline {
	return rule.Pipeline{
		{
			Name:        "compat-import",
			Pattern:     rule.MustCompile(`^[ \t]*import\s+codewars_test\s+as\s+test[ \t]*(?:#[^\n]*)?(?:\r?\n)?`, rule.Lines),
			Replacement: compatReplacement,
		},
		{
			Name:    "solution-from-import",
			Pattern: rule.MustCompile(`^[ \t]*from\s+solution\s+import\s+(?:\([^)]*\)|[^\n]*)[ \t]*(?:\r?\n)?`, rule.Lines),
		},
		{
			Name:    "solution-import",
			Pattern: rule.MustCompile(`^[ \t]*import\s+solution\b[^\n]*(?:\r?\n)?`, rule.Lines),
		},
	}
}

type pyMarkerKind int

const (
	pyDescribe pyMarkerKind = iota
	pyIt
)

// pyMarker is a describe or it marker line.
type pyMarker struct {
	kind      pyMarkerKind
	decorated bool
	name      string
	indent    int
}

func parseMarker(line string) (pyMarker, bool) {
	m := pyMarkerLine.FindStringSubmatch(line)
	if m == nil {
		return pyMarker{}, false
	}
	marker := pyMarker{
		decorated: m[2] == "@",
		name:      m[4] + m[5],
		indent:    len(m[1]),
	}
	if m[3] == "it" {
		marker.kind = pyIt
	}
	return marker, true
}

// pyLine is one source line with its bracket context.
type pyLine struct {
	text    string
	trimmed string
	indent  int
	// continued is set when the line continues an open bracket from an
	// earlier line. Such lines never start or end a block.
	continued bool
}

func (l pyLine) blank() bool   { return l.trimmed == "" }
func (l pyLine) comment() bool { return strings.HasPrefix(l.trimmed, "#") }

// splitPyLines splits src into lines and marks bracket continuations.
// Brackets inside string literals are counted like any other.
func splitPyLines(src string) []pyLine {
	raw := strings.Split(src, "\n")
	lines := make([]pyLine, len(raw))
	depth := 0
	for i, text := range raw {
		trimmed := strings.TrimSpace(text)
		lines[i] = pyLine{
			text:      text,
			trimmed:   trimmed,
			indent:    len(text) - len(strings.TrimLeft(text, " \t")),
			continued: depth > 0,
		}
		if !strings.HasPrefix(trimmed, "#") {
			depth = max(depth+bracketDelta(text), 0)
		}
	}
	return lines
}

// bracketDelta returns opened minus closed brackets before any comment.
func bracketDelta(text string) int {
	if i := strings.IndexByte(text, '#'); i >= 0 {
		text = text[:i]
	}
	delta := 0
	for _, r := range text {
		switch r {
		case '(', '[', '{':
			delta++
		case ')', ']', '}':
			delta--
		}
	}
	return delta
}

// reindent strips up to base leading whitespace bytes from a line and
// prefixes it with indent spaces.
func reindent(l pyLine, base, indent int) string {
	k := base
	if l.indent < k || k < 0 {
		k = l.indent
	}
	return strings.Repeat(" ", indent) + l.text[k:]
}

// uniqueName returns name, or name with a numeric suffix when it has been
// handed out before.
func uniqueName(seen map[string]int, name, sep string) string {
	seen[name]++
	if n := seen[name]; n > 1 {
		return name + sep + strconv.Itoa(n)
	}
	return name
}

// skipEmptyDef reports whether the line after a decorated marker is the
// decorated function's def line.
func skipEmptyDef(lines []pyLine, i int, m pyMarker) bool {
	return m.decorated && i+1 < len(lines) && pyEmptyDef.MatchString(lines[i+1].text)
}

// pyBlock tracks one describe or it block while walking lines.
type pyBlock struct {
	open bool
	// indent is the marker's indentation, or -1 for a bare marker whose
	// block runs until the next marker.
	indent int
	// base is the indentation of the first body line, -1 until seen.
	base int
}

func (b *pyBlock) start(m pyMarker) {
	b.open = true
	b.indent = -1
	if m.decorated {
		b.indent = m.indent
	}
	b.base = -1
}

func (b *pyBlock) startBare() {
	b.open = true
	b.indent = -1
	b.base = -1
}

// endsAt reports whether l dedents out of a decorated block.
func (b *pyBlock) endsAt(l pyLine) bool {
	return b.open && b.indent >= 0 && l.indent <= b.indent
}

// body re-indents a body line of the block to indent.
func (b *pyBlock) body(l pyLine, indent int) string {
	if b.base < 0 && !l.comment() && !l.continued {
		b.base = l.indent
	}
	return reindent(l, b.base, indent)
}

// pyVisitor receives the lines of a codewars_test source.
type pyVisitor interface {
	blank()
	// dedent closes the blocks that l dedents out of.
	dedent(l pyLine)
	marker(m pyMarker)
	statement(l pyLine)
}

func walkPy(src string, v pyVisitor) {
	lines := splitPyLines(src)
	for i := 0; i < len(lines); i++ {
		l := lines[i]
		switch {
		case l.blank():
			v.blank()
			continue
		case l.continued || l.comment():
			v.statement(l)
			continue
		}

		v.dedent(l)
		if m, ok := parseMarker(l.text); ok {
			v.marker(m)
			if skipEmptyDef(lines, i, m) {
				i++
			}
			continue
		}
		v.statement(l)
	}
}

func isPyAssertion(l pyLine) bool {
	return !l.continued && pyAssertion.MatchString(l.trimmed)
}
