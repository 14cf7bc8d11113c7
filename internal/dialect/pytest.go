package dialect

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kataforge-dev/kataforge/internal/rule"
	"github.com/kataforge-dev/kataforge/internal/slug"
	"github.com/kataforge-dev/kataforge/internal/syntax"
)

// Operand node types that bind looser than a comparison.
var pyLowPrecedence = map[string]bool{
	"boolean_operator":       true,
	"not_operator":           true,
	"comparison_operator":    true,
	"conditional_expression": true,
	"lambda":                 true,
	"named_expression":       true,
}

// Operand node types that can span lines without extra parentheses.
var pyBracketed = map[string]bool{
	"call":                     true,
	"subscript":                true,
	"list":                     true,
	"tuple":                    true,
	"dictionary":               true,
	"set":                      true,
	"parenthesized_expression": true,
	"list_comprehension":       true,
	"dictionary_comprehension": true,
	"set_comprehension":        true,
	"generator_expression":     true,
	"string":                   true,
}

// PytestRewriter lowers codewars_test sources to flat pytest functions.
type PytestRewriter struct {
	imports rule.Pipeline
	parser  *syntax.Parser
}

// NewPytestRewriter creates the flat-function Python lowering. Assertions
// are located with the parser's Python grammar.
func NewPytestRewriter(parser *syntax.Parser) *PytestRewriter {
	return &PytestRewriter{imports: pyImports(""), parser: parser}
}

// Name implements Rewriter.
func (r *PytestRewriter) Name() string {
	return CodewarsPytest
}

// Rewrite implements Rewriter.
func (r *PytestRewriter) Rewrite(ctx context.Context, src string, _ Options) (string, error) {
	if err := checkContext(ctx); err != nil {
		return "", err
	}

	out, err := r.imports.Apply(src)
	if err != nil {
		return "", err
	}
	if out != src {
		out = strings.TrimLeft(out, "\r\n")
	}

	l := &pytestLowering{names: make(map[string]int)}
	walkPy(out, l)

	return r.lowerAssertions(ctx, strings.Join(l.out, "\n"))
}

// pytestLowering turns every describe and it pair into one module-level
// test function.
type pytestLowering struct {
	out   []string
	names map[string]int

	group      string
	groupBlock pyBlock
	fn         pyBlock
	// loose is set when fn only collects top-level assertions.
	loose bool
}

func (p *pytestLowering) blank() {
	p.out = append(p.out, "")
}

func (p *pytestLowering) dedent(l pyLine) {
	if p.fn.endsAt(l) {
		p.fn.open = false
	}
	if p.groupBlock.endsAt(l) {
		p.group = ""
		p.groupBlock.open = false
		p.fn.open = false
	}
	if p.loose && l.indent == 0 && !isPyAssertion(l) {
		p.loose = false
		p.fn.open = false
	}
}

func (p *pytestLowering) marker(m pyMarker) {
	p.loose = false
	p.fn.open = false

	switch m.kind {
	case pyDescribe:
		p.group = slug.Snake(m.name)
		if p.group == "" {
			p.group = "group"
		}
		p.groupBlock.start(m)
	case pyIt:
		name := slug.Snake(m.name)
		if name == "" {
			name = "case"
		}
		if p.group != "" {
			name = p.group + "__" + name
		}
		p.openFunc("test_" + name)
		p.fn.start(m)
	}
}

func (p *pytestLowering) statement(l pyLine) {
	switch {
	case p.fn.open:
		p.out = append(p.out, p.fn.body(l, 4))

	case p.groupBlock.open && isPyAssertion(l):
		p.openFunc("test_" + p.group)
		p.fn.startBare()
		p.out = append(p.out, p.fn.body(l, 4))

	case p.groupBlock.open:
		// describe-level statements move to module level
		p.out = append(p.out, p.groupBlock.body(l, 0))

	case l.indent == 0 && isPyAssertion(l):
		p.openFunc("test_example")
		p.loose = true
		p.fn.startBare()
		p.out = append(p.out, p.fn.body(l, 4))

	default:
		p.out = append(p.out, l.text)
	}
}

func (p *pytestLowering) openFunc(name string) {
	p.out = append(p.out, "def "+uniqueName(p.names, name, "_")+"():")
}

// lowerAssertions replaces statements consisting of a test.assert_equals,
// test.assert_not_equals or test.expect call with assert statements.
func (r *PytestRewriter) lowerAssertions(ctx context.Context, src string) (string, error) {
	if !strings.Contains(src, "test.") {
		return src, nil
	}

	source := []byte(src)
	tree, err := r.parser.Parse(ctx, syntax.LangPython, source)
	if err != nil {
		return "", err
	}
	defer tree.Close()

	var edits []syntax.Edit
	var firstErr error
	syntax.Walk(tree.RootNode(), func(n *sitter.Node) bool {
		if firstErr != nil {
			return false
		}
		if n.Type() != "expression_statement" {
			return true
		}
		text, ok, err := pytestAssertion(n, source)
		if err != nil {
			firstErr = err
		} else if ok {
			edits = append(edits, syntax.Edit{Start: n.StartByte(), End: n.EndByte(), Text: text})
		}
		return false
	})
	if firstErr != nil {
		return "", firstErr
	}
	return syntax.Apply(source, edits), nil
}

// pytestAssertion returns the assert statement for an expression statement
// that is a single codewars_test assertion call.
func pytestAssertion(stmt *sitter.Node, src []byte) (string, bool, error) {
	if stmt.NamedChildCount() != 1 {
		return "", false, nil
	}
	callNode := stmt.NamedChild(0)
	if callNode.Type() != "call" {
		return "", false, nil
	}

	fn := callNode.ChildByFieldName("function")
	if fn == nil || fn.Type() != "attribute" {
		return "", false, nil
	}
	obj := fn.ChildByFieldName("object")
	attr := fn.ChildByFieldName("attribute")
	if obj == nil || attr == nil || obj.Type() != "identifier" || obj.Content(src) != "test" {
		return "", false, nil
	}

	kind := attr.Content(src)
	want := 2
	switch kind {
	case "assert_equals", "assert_not_equals":
	case "expect":
		want = 1
	default:
		return "", false, nil
	}

	text := callNode.Content(src)
	argsNode := callNode.ChildByFieldName("arguments")
	if argsNode == nil || argsNode.Type() != "argument_list" {
		return "", false, shapeError(text, "unsupported argument list")
	}

	var positional []*sitter.Node
	var message *sitter.Node
	for i := 0; i < int(argsNode.NamedChildCount()); i++ {
		arg := argsNode.NamedChild(i)
		switch arg.Type() {
		case "comment":
			continue
		case "keyword_argument":
			name := arg.ChildByFieldName("name")
			if name == nil || name.Content(src) != "message" || message != nil {
				return "", false, shapeError(text, "unsupported keyword argument")
			}
			message = arg.ChildByFieldName("value")
		case "list_splat", "dictionary_splat":
			return "", false, shapeError(text, "unpacked arguments")
		default:
			if message != nil {
				return "", false, shapeError(text, "positional argument after keyword")
			}
			positional = append(positional, arg)
		}
	}

	if len(positional) == want+1 && message == nil {
		message = positional[want]
		positional = positional[:want]
	}
	if len(positional) != want {
		return "", false, shapeError(text, "test.%s takes %d or %d arguments, got %d", kind, want, want+1, len(positional))
	}

	var sb strings.Builder
	sb.WriteString("assert ")
	if kind == "expect" {
		sb.WriteString(pyOperand(positional[0], src, false))
	} else {
		actual, expected := positional[0], positional[1]
		op := "=="
		if isPyIdentityNode(expected) {
			op = "is"
		}
		if kind == "assert_not_equals" {
			op = "!="
			if isPyIdentityNode(expected) {
				op = "is not"
			}
		}
		sb.WriteString(pyOperand(actual, src, true))
		sb.WriteString(" " + op + " ")
		sb.WriteString(pyOperand(expected, src, true))
	}
	if message != nil {
		sb.WriteString(", ")
		sb.WriteString(pyOperand(message, src, false))
	}
	return sb.String(), true, nil
}

func isPyIdentityNode(n *sitter.Node) bool {
	switch n.Type() {
	case "true", "false", "none":
		return true
	}
	return false
}

// pyOperand returns the operand text, parenthesized when embedding it in an
// assert statement would change its grouping or break the line structure.
func pyOperand(n *sitter.Node, src []byte, comparison bool) string {
	text := n.Content(src)
	switch {
	case n.Type() == "named_expression",
		comparison && pyLowPrecedence[n.Type()],
		strings.Contains(text, "\n") && !pyBracketed[n.Type()]:
		return "(" + text + ")"
	}
	return text
}
