package dialect

import (
	"context"

	"github.com/kataforge-dev/kataforge/internal/rule"
)

// PackageStripper removes package declarations from Java and Kotlin
// sources. The kata directory decides the package instead.
type PackageStripper struct {
	rule rule.Rule
}

// NewPackageStripper creates the JVM package stripper.
func NewPackageStripper() *PackageStripper {
	return &PackageStripper{
		rule: rule.Rule{
			Name:    "package-declaration",
			Pattern: rule.MustCompile(`^package [^\n]*(?:\n|\z)`, rule.Lines),
		},
	}
}

// Name implements Rewriter.
func (r *PackageStripper) Name() string {
	return StripPackage
}

// Rewrite implements Rewriter.
func (r *PackageStripper) Rewrite(ctx context.Context, src string, _ Options) (string, error) {
	if err := checkContext(ctx); err != nil {
		return "", err
	}
	return r.rule.Apply(src)
}
