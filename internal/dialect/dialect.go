// Package dialect rewrites test code written against one framework's
// vocabulary into another framework's vocabulary.
//
// Each Rewriter handles one (source dialect, target framework) pair and is
// an ordered pipeline of text rules. Text that matches no rule passes
// through unchanged; assertion calls whose arguments cannot be mapped fail
// with ErrUnsupportedArgumentShape.
package dialect

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kataforge-dev/kataforge/internal/syntax"
)

var (
	// ErrUnsupportedArgumentShape is returned when an assertion call has an
	// argument count or shape no rule knows how to translate.
	ErrUnsupportedArgumentShape = errors.New("unsupported argument shape")

	// ErrUnknownRewriter is returned by Registry.Get for unregistered names.
	ErrUnknownRewriter = errors.New("unknown rewriter")

	// ErrMissingOption is returned when a rewriter needs an option the
	// caller did not supply.
	ErrMissingOption = errors.New("missing rewrite option")
)

// Rewriter names.
const (
	CriterionToCatch2 = "criterion-catch2"
	IglooToCatch2     = "igloo-catch2"
	CodewarsToChai    = "codewars-chai"
	CodewarsToChaiTS  = "codewars-chai-ts"
	CodewarsUnittest  = "codewars-unittest"
	CodewarsPytest    = "codewars-pytest"
	GinkgoHarness     = "ginkgo-harness"
	StripPackage      = "strip-package"
)

// DefaultGoModule is the module path kata packages are imported from.
const DefaultGoModule = "codewarsGo"

// Options carries per-call settings. Nothing is read from global state.
type Options struct {
	// Directory is the kata directory relative to the project root.
	Directory string

	// GoModule is the module path used by GinkgoHarness.
	GoModule string
}

// Rewriter transforms one source dialect into a target framework.
type Rewriter interface {
	// Name returns the registry name of the rewriter.
	Name() string

	// Rewrite returns the rewritten source. The input is never modified.
	Rewrite(ctx context.Context, src string, opts Options) (string, error)
}

// Registry maps rewriter names to implementations.
type Registry struct {
	rewriters map[string]Rewriter
}

// NewRegistry creates a Registry holding every built-in rewriter. The
// syntax-aware rewriters share one parser.
func NewRegistry() *Registry {
	r := &Registry{rewriters: make(map[string]Rewriter)}
	parser := syntax.MustNewParser()

	r.Register(NewCriterionRewriter())
	r.Register(NewIglooRewriter())
	r.Register(NewChaiRewriter(false))
	r.Register(NewChaiRewriter(true))
	r.Register(NewUnittestRewriter())
	r.Register(NewPytestRewriter(parser))
	r.Register(NewGinkgoRewriter(parser))
	r.Register(NewPackageStripper())

	return r
}

// Register adds or replaces a rewriter.
func (r *Registry) Register(rw Rewriter) {
	r.rewriters[rw.Name()] = rw
}

// Get returns the rewriter registered under name.
func (r *Registry) Get(name string) (Rewriter, error) {
	rw, ok := r.rewriters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRewriter, name)
	}
	return rw, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.rewriters))
	for name := range r.rewriters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// checkContext returns ctx.Err() if the context is already done.
func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// shapeError wraps ErrUnsupportedArgumentShape with the offending call.
func shapeError(call string, format string, args ...any) error {
	return fmt.Errorf("%w: %s in %q", ErrUnsupportedArgumentShape, fmt.Sprintf(format, args...), call)
}
