package dialect

import (
	"context"
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/kataforge-dev/kataforge/internal/rule"
	"github.com/kataforge-dev/kataforge/internal/slug"
)

const (
	defaultTestClass  = "SolutionTests"
	defaultTestMethod = "test_solution"
)

var (
	pyTestCall     = regexp.MustCompile(`\btest\.(assert_equals|assert_not_equals|expect)\s*\(`)
	pyKeywordArg   = regexp.MustCompile(`(?s)^(\w+)\s*=([^=].*)$`)
	unittestImport = regexp.MustCompile(`(?m)^import\s+unittest\b`)
	testCaseClass  = regexp.MustCompile(`^class\s+(\w+)\(unittest\.TestCase\):`)

	helperDef = rule.MustCompile(`^(?<lead>[ \t]*def\s+)(?<name>(?!test_)\w+)(?<open>\s*\()(?!\s*self\b)(?<close>\s*\))?`, 0)
)

// UnittestRewriter lowers codewars_test sources to unittest classes.
type UnittestRewriter struct {
	imports rule.Pipeline
}

// NewUnittestRewriter creates the class-based Python lowering.
func NewUnittestRewriter() *UnittestRewriter {
	return &UnittestRewriter{imports: pyImports("import unittest\n")}
}

// Name implements Rewriter.
func (r *UnittestRewriter) Name() string {
	return CodewarsUnittest
}

// Rewrite implements Rewriter.
func (r *UnittestRewriter) Rewrite(ctx context.Context, src string, _ Options) (string, error) {
	if err := checkContext(ctx); err != nil {
		return "", err
	}

	out, err := r.imports.Apply(src)
	if err != nil {
		return "", err
	}

	l := &unittestLowering{
		classes: make(map[string]int),
		methods: make(map[string]int),
		helpers: make(map[string][]string),
	}
	walkPy(out, l)
	out = strings.Join(l.out, "\n")
	if l.err != nil {
		return "", l.err
	}

	out, err = rewriteCalls(out, pyTestCall, unittestAssertion)
	if err != nil {
		return "", err
	}

	out, err = qualifyHelpers(out, l.helpers)
	if err != nil {
		return "", err
	}

	if out != src && !unittestImport.MatchString(out) {
		out = "import unittest\n" + out
	}
	return out, nil
}

// unittestLowering turns describe blocks into TestCase classes and it
// blocks into test methods.
type unittestLowering struct {
	out     []string
	err     error
	classes map[string]int
	methods map[string]int
	// helpers holds the helper defs of each emitted class.
	helpers map[string][]string

	// class is set while a class body is being written.
	class     bool
	className string
	group  pyBlock
	method pyBlock
	// loose is set when the open class only wraps top-level assertions.
	loose bool
}

func (u *unittestLowering) blank() {
	u.out = append(u.out, "")
}

func (u *unittestLowering) dedent(l pyLine) {
	if u.method.endsAt(l) {
		u.method.open = false
		if !u.group.open {
			u.class = false
		}
	}
	if u.group.endsAt(l) {
		u.closeClass()
	}
	if u.loose && l.indent == 0 && !isPyAssertion(l) {
		u.closeClass()
	}
}

func (u *unittestLowering) marker(m pyMarker) {
	switch m.kind {
	case pyDescribe:
		u.closeClass()
		name := defaultTestClass
		if m.decorated {
			if n := slug.ClassName(m.name); n != "" {
				name = n
			}
		}
		u.openClass(name)
		u.group.start(m)
	case pyIt:
		u.loose = false
		if !u.class {
			u.openClass(defaultTestClass)
		}
		name := defaultTestMethod
		if m.decorated {
			if n := slug.Snake(m.name); n != "" {
				name = "test_" + n
			}
		}
		u.openMethod(name)
		u.method.start(m)
	}
}

func (u *unittestLowering) statement(l pyLine) {
	switch {
	case u.method.open:
		u.out = append(u.out, u.method.body(l, 8))

	case u.group.open && isPyAssertion(l):
		u.openMethod(defaultTestMethod)
		u.method.startBare()
		u.out = append(u.out, u.method.body(l, 8))

	case u.group.open:
		text := u.group.body(l, 4)
		if !l.continued && l.indent == u.group.base {
			text = u.selfParameter(text)
		}
		u.out = append(u.out, text)

	case l.indent == 0 && isPyAssertion(l):
		u.openClass(defaultTestClass)
		u.loose = true
		u.openMethod(defaultTestMethod)
		u.method.startBare()
		u.out = append(u.out, u.method.body(l, 8))

	default:
		u.out = append(u.out, l.text)
	}
}

func (u *unittestLowering) openClass(name string) {
	u.class = true
	u.className = uniqueName(u.classes, name, "")
	u.methods = make(map[string]int)
	u.out = append(u.out, "class "+u.className+"(unittest.TestCase):")
}

func (u *unittestLowering) openMethod(name string) {
	u.out = append(u.out, "    def "+uniqueName(u.methods, name, "_")+"(self):")
}

func (u *unittestLowering) closeClass() {
	u.class = false
	u.loose = false
	u.group.open = false
	u.method.open = false
}

// selfParameter adds self to a helper def inside a class and records the
// helper's name.
func (u *unittestLowering) selfParameter(text string) string {
	out, err := rule.Rule{
		Name:    "helper-self",
		Pattern: helperDef,
		Limit:   1,
		Transform: func(m regexp2.Match) (string, error) {
			lead, _ := rule.Group(m, "lead")
			name, _ := rule.Group(m, "name")
			open, _ := rule.Group(m, "open")
			u.helpers[u.className] = append(u.helpers[u.className], name)
			if _, ok := rule.Group(m, "close"); ok {
				return lead + name + open + "self)", nil
			}
			return lead + name + open + "self, ", nil
		},
	}.Apply(text)
	if err != nil {
		if u.err == nil {
			u.err = err
		}
		return text
	}
	return out
}

// qualifyHelpers rewrites calls to class helpers inside method bodies to
// instance calls. A helper is only qualified inside the class declaring it.
func qualifyHelpers(src string, helpers map[string][]string) (string, error) {
	if len(helpers) == 0 {
		return src, nil
	}

	rules := make(map[string]rule.Rule, len(helpers))
	for class, names := range helpers {
		escaped := make([]string, len(names))
		for i, h := range names {
			escaped[i] = regexp2.Escape(h)
		}
		pattern, err := rule.Compile(`(?<![\w.])(?:`+strings.Join(escaped, "|")+`)(?=\s*\()`, 0)
		if err != nil {
			return "", err
		}
		rules[class] = rule.Rule{Name: "qualify-helpers", Pattern: pattern, Replacement: "self.$0"}
	}

	var (
		qualify rule.Rule
		inClass bool
		err     error
	)
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent == 0 && trimmed != "" {
			m := testCaseClass.FindStringSubmatch(line)
			if m != nil {
				qualify, inClass = rules[m[1]]
			} else {
				inClass = false
			}
			continue
		}
		if !inClass || indent < 8 || strings.HasPrefix(trimmed, "def ") || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if lines[i], err = qualify.Apply(line); err != nil {
			return "", err
		}
	}
	return strings.Join(lines, "\n"), nil
}

// unittestAssertion maps test.assert_equals, test.assert_not_equals and
// test.expect to TestCase assertions. Identity assertions are used when the
// expected value is True, False or None.
func unittestAssertion(c call) (callEdit, error) {
	args := make([]string, 0, len(c.Args))
	positional := 0
	for _, a := range c.Args {
		if a == "" {
			return callEdit{}, shapeError(c.Text, "empty argument")
		}
		if kw := pyKeywordArg.FindStringSubmatch(a); kw != nil {
			if kw[1] != "message" {
				return callEdit{}, shapeError(c.Text, "unsupported keyword argument %s", kw[1])
			}
			args = append(args, "msg="+strings.TrimSpace(kw[2]))
			continue
		}
		if positional < len(args) {
			return callEdit{}, shapeError(c.Text, "positional argument after keyword")
		}
		positional++
		args = append(args, a)
	}

	want := 2
	if c.Groups[0] == "expect" {
		want = 1
	}
	if positional < want || len(args) > want+1 {
		return callEdit{}, shapeError(c.Text, "%s takes %d or %d arguments, got %d", c.Callee, want, want+1, len(args))
	}

	var method string
	switch c.Groups[0] {
	case "assert_equals":
		method = "assertEqual"
		if isPyIdentityLiteral(args[1]) {
			method = "assertIs"
		}
	case "assert_not_equals":
		method = "assertNotEqual"
		if isPyIdentityLiteral(args[1]) {
			method = "assertIsNot"
		}
	default:
		method = "assertTrue"
	}
	return callEdit{Text: "self." + method + "(" + strings.Join(args, ", ") + ")"}, nil
}

func isPyIdentityLiteral(s string) bool {
	switch strings.TrimSpace(s) {
	case "True", "False", "None":
		return true
	}
	return false
}
