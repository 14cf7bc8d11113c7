package dialect

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kataforge-dev/kataforge/internal/syntax"
)

const (
	ginkgoImport = `"github.com/onsi/ginkgo/v2"`
	gomegaImport = `"github.com/onsi/gomega"`
	entryPoint   = "TestEntryPoint"
)

// GinkgoRewriter makes a Ginkgo spec file runnable with go test: the kata
// package and the Ginkgo/Gomega DSLs are dot-imported and a test entry
// point is added.
type GinkgoRewriter struct {
	parser *syntax.Parser
}

// NewGinkgoRewriter creates the Go harness rewriter.
func NewGinkgoRewriter(parser *syntax.Parser) *GinkgoRewriter {
	return &GinkgoRewriter{parser: parser}
}

// Name implements Rewriter.
func (r *GinkgoRewriter) Name() string {
	return GinkgoHarness
}

// Rewrite implements Rewriter. opts.Directory names the kata package
// relative to opts.GoModule.
func (r *GinkgoRewriter) Rewrite(ctx context.Context, src string, opts Options) (string, error) {
	if err := checkContext(ctx); err != nil {
		return "", err
	}
	dir := strings.Trim(opts.Directory, "/")
	if dir == "" {
		return "", fmt.Errorf("%w: %s needs the kata directory", ErrMissingOption, GinkgoHarness)
	}
	module := opts.GoModule
	if module == "" {
		module = DefaultGoModule
	}

	source := []byte(src)
	tree, err := r.parser.Parse(ctx, syntax.LangGo, source)
	if err != nil {
		return "", err
	}
	defer tree.Close()

	root := tree.RootNode()
	var imports, pkg *sitter.Node
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "package_clause":
			pkg = child
		case "import_declaration":
			if imports == nil {
				imports = child
			}
		case "function_declaration":
			if name := child.ChildByFieldName("name"); name != nil && name.Content(source) == entryPoint {
				return src, nil
			}
		}
	}

	kata := fmt.Sprintf("%q", module+"/"+dir)
	block := harnessImports(kata, keptImports(imports, source, kata))

	switch {
	case imports != nil:
		return syntax.Apply(source, []syntax.Edit{{Start: imports.StartByte(), End: imports.EndByte(), Text: block}}), nil
	case pkg != nil:
		return syntax.Apply(source, []syntax.Edit{{Start: pkg.EndByte(), End: pkg.EndByte(), Text: "\n\n" + block}}), nil
	default:
		return block + "\n" + src, nil
	}
}

// keptImports returns the import specs of decl other than the ones the
// harness block declares itself.
func keptImports(decl *sitter.Node, src []byte, kata string) []string {
	if decl == nil {
		return nil
	}

	var kept []string
	syntax.Walk(decl, func(n *sitter.Node) bool {
		if n.Type() != "import_spec" {
			return true
		}
		path := n.ChildByFieldName("path")
		if path == nil {
			return false
		}
		p := path.Content(src)
		switch {
		case p == `"testing"`, p == kata:
		case strings.HasPrefix(p, `"github.com/onsi/ginkgo`), strings.HasPrefix(p, `"github.com/onsi/gomega`):
		default:
			kept = append(kept, n.Content(src))
		}
		return false
	})
	return kept
}

func harnessImports(kata string, extra []string) string {
	var sb strings.Builder
	sb.WriteString("import (\n")
	sb.WriteString("\t. " + kata + "\n")
	for _, spec := range extra {
		sb.WriteString("\t" + spec + "\n")
	}
	sb.WriteString("\t\"testing\"\n")
	sb.WriteString("\n")
	sb.WriteString("\t. " + ginkgoImport + "\n")
	sb.WriteString("\t. " + gomegaImport + "\n")
	sb.WriteString(")\n")
	sb.WriteString("\n")
	sb.WriteString("func " + entryPoint + "(t *testing.T) {\n")
	sb.WriteString("\tRegisterFailHandler(Fail)\n")
	sb.WriteString("\tRunSpecs(t, \"Tests Suite\")\n")
	sb.WriteString("}")
	return sb.String()
}
