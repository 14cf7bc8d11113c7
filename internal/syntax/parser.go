// Package syntax wraps the tree-sitter grammars used to locate rewrite
// targets precisely where a text pattern would be ambiguous.
package syntax

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/python"
)

// Language identifies a grammar.
type Language string

const (
	LangGo     Language = "go"
	LangJava   Language = "java"
	LangPython Language = "python"
)

// Parser holds one tree-sitter parser per grammar.
type Parser struct {
	parsers map[Language]*sitter.Parser
	mu      sync.Mutex
}

// NewParser initializes the grammars and returns a Parser.
func NewParser() (*Parser, error) {
	parsers := make(map[Language]*sitter.Parser)

	goParser := sitter.NewParser()
	goParser.SetLanguage(golang.GetLanguage())
	parsers[LangGo] = goParser

	javaParser := sitter.NewParser()
	javaParser.SetLanguage(java.GetLanguage())
	parsers[LangJava] = javaParser

	pythonParser := sitter.NewParser()
	pythonParser.SetLanguage(python.GetLanguage())
	parsers[LangPython] = pythonParser

	return &Parser{parsers: parsers}, nil
}

// MustNewParser is NewParser for package initialization.
func MustNewParser() *Parser {
	p, err := NewParser()
	if err != nil {
		panic(err)
	}
	return p
}

// Parse parses source with the grammar for lang. The caller owns the
// returned tree and must Close it.
func (p *Parser) Parse(ctx context.Context, lang Language, source []byte) (*sitter.Tree, error) {
	parser, ok := p.parsers[lang]
	if !ok {
		return nil, fmt.Errorf("unsupported grammar: %s", lang)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	// tree-sitter parsers are not safe for concurrent use
	p.mu.Lock()
	defer p.mu.Unlock()

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", lang, err)
	}
	return tree, nil
}

// IsSupported reports whether a grammar is loaded for lang.
func (p *Parser) IsSupported(lang Language) bool {
	_, ok := p.parsers[lang]
	return ok
}

// Walk visits node and its descendants in source order. Children of a node
// are skipped when fn returns false.
func Walk(node *sitter.Node, fn func(n *sitter.Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		Walk(node.Child(i), fn)
	}
}

// Edit replaces the bytes [Start, End) of a source.
type Edit struct {
	Start uint32
	End   uint32
	Text  string
}

// Apply applies non-overlapping edits given in ascending order, working
// from the end of the source so earlier offsets stay valid.
func Apply(source []byte, edits []Edit) string {
	out := append([]byte(nil), source...)
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		tail := append([]byte(e.Text), out[e.End:]...)
		out = append(out[:e.Start], tail...)
	}
	return string(out)
}
