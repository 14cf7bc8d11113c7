package dialect

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Declaration Tests
// =============================================================================

func TestCriterion_TestDeclaration(t *testing.T) {
	r := NewCriterionRewriter()

	out, err := r.Rewrite(context.Background(), "Test(math, add_test) {\n}\n", Options{})
	require.NoError(t, err)
	assert.Equal(t, "TEST_CASE(\"math:add_test\", \"[math]\") {\n}\n", out)
}

func TestCriterion_DropsInclude(t *testing.T) {
	r := NewCriterionRewriter()

	out, err := r.Rewrite(context.Background(), "#include <criterion/criterion.h>\n#include <stdio.h>\n", Options{})
	require.NoError(t, err)
	assert.Equal(t, "#include <stdio.h>\n", out)
}

// =============================================================================
// Assertion Tests
// =============================================================================

func TestCriterion_Assertions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"assert", "cr_assert(x == 1);", "REQUIRE(x == 1);"},
		{"assert not", "cr_assert_not(x > 0);", "REQUIRE_FALSE(x > 0);"},
		{"expect", "cr_expect(ok);", "CHECK(ok);"},
		{"expect without semicolon", "cr_expect(ok)\n", "CHECK(ok);\n"},
		{"expect not", "cr_expect_not(done);", "CHECK(!done);"},
		{"expect not keeps precedence risk", "cr_expect_not(a && b);", "CHECK(!a && b);"},
		{"message", `cr_assert(ok, "must be ok");`, `REQUIRE_MSG(ok, "must be ok");`},
		{"message with format args", `cr_expect(n > 0, "got %d", n);`, `CHECK_MSG(n > 0, "got %d", n);`},
		{"nested call", "cr_assert(add(1, 2) == 3);", "REQUIRE(add(1, 2) == 3);"},
		{"eq", "cr_assert_eq(add(1, 2), 3);", "REQUIRE(add(1, 2) == 3);"},
		{"neq with operator", "cr_expect_neq(a | b, 0);", "CHECK((a | b) != 0);"},
		{"eq with message", `cr_assert_eq(x, 3, "x");`, `REQUIRE_MSG(x == 3, "x");`},
	}

	r := NewCriterionRewriter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Rewrite(context.Background(), tt.in, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestCriterion_FullProgram(t *testing.T) {
	src := `#include <criterion/criterion.h>

int add(int a, int b);

Test(math, add_test) {
    cr_assert(add(1, 2) == 3);
    cr_assert_not(add(1, 1) > 2);
    cr_expect(add(0, 0) == 0, "zero");
    cr_expect_not(add(-1, 1));
}
`
	want := `
int add(int a, int b);

TEST_CASE("math:add_test", "[math]") {
    REQUIRE(add(1, 2) == 3);
    REQUIRE_FALSE(add(1, 1) > 2);
    CHECK_MSG(add(0, 0) == 0, "zero");
    CHECK(!add(-1, 1));
}
`
	out, err := NewCriterionRewriter().Rewrite(context.Background(), src, Options{})
	require.NoError(t, err)
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("Rewrite mismatch (-want +got):\n%s", diff)
	}
}

// =============================================================================
// Failure Tests
// =============================================================================

func TestCriterion_UnsupportedShapes(t *testing.T) {
	inputs := []string{
		"cr_assert();",
		"cr_expect_not();",
		"cr_assert(x, y);",
		"cr_assert_eq(x);",
	}

	r := NewCriterionRewriter()
	for _, in := range inputs {
		_, err := r.Rewrite(context.Background(), in, Options{})
		assert.ErrorIs(t, err, ErrUnsupportedArgumentShape, "input %q", in)
	}
}

func TestCriterion_UnbalancedCallLeftUntouched(t *testing.T) {
	src := "cr_assert(x == (1;\n"

	out, err := NewCriterionRewriter().Rewrite(context.Background(), src, Options{})
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestCriterion_UnknownMacroLeftUntouched(t *testing.T) {
	src := "cr_assert_null(p);\n"

	out, err := NewCriterionRewriter().Rewrite(context.Background(), src, Options{})
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestCriterion_TargetTextIsStable(t *testing.T) {
	src := "TEST_CASE(\"math:add\", \"[math]\") {\n    REQUIRE(x == 1);\n    CHECK_MSG(ok, \"m\");\n    CHECK(!done);\n}\n"

	out, err := NewCriterionRewriter().Rewrite(context.Background(), src, Options{})
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestCriterion_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCriterionRewriter().Rewrite(ctx, "cr_assert(x);", Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
