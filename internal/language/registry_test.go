package language

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kataforge-dev/kataforge/internal/dialect"
	"github.com/kataforge-dev/kataforge/internal/models"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(dialect.NewRegistry(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return r
}

func details(title, difficulty, solution, tests string) models.KataDetails {
	return models.KataDetails{
		Title:      title,
		Difficulty: difficulty,
		Files: []models.SourceFile{
			{Template: models.TemplateSolution, Contents: solution},
			{Template: models.TemplateTest, Contents: tests},
		},
	}
}

// =============================================================================
// Registry Tests
// =============================================================================

func TestRegistry_BuiltinLanguages(t *testing.T) {
	r := newTestRegistry(t)

	assert.Equal(t, []string{
		"c", "cpp", "go", "java", "javascript", "kotlin", "php", "python", "rust", "typescript",
	}, r.Languages())
}

func TestRegistry_HandlerForExtension(t *testing.T) {
	r := newTestRegistry(t)

	tests := map[string]string{
		".py":  "python",
		"kt":   "kotlin",
		".TS":  "typescript",
		"cpp":  "cpp",
		".rs":  "rust",
		".js":  "javascript",
		".php": "php",
	}
	for ext, want := range tests {
		h, ok := r.HandlerForExtension(ext)
		require.True(t, ok, ext)
		assert.Equal(t, want, h.Language(), ext)
	}

	_, ok := r.HandlerForExtension(".rb")
	assert.False(t, ok)
}

func TestRegistry_UnknownLanguage(t *testing.T) {
	r := newTestRegistry(t)

	_, ok := r.Handler("cobol")
	assert.False(t, ok)

	_, err := r.Get("cobol")
	assert.ErrorIs(t, err, ErrUnknownLanguage)
	assert.Contains(t, err.Error(), "python")
}

func TestRegistry_HandlerLookupIgnoresCase(t *testing.T) {
	h, ok := newTestRegistry(t).Handler("Python")
	require.True(t, ok)
	assert.Equal(t, "Python", h.DisplayName())
	assert.Equal(t, []string{"pytest", "unittest"}, h.Variants())
}

func TestRegistry_RegisterRejectsUnknownRewriter(t *testing.T) {
	r := newTestRegistry(t)
	cfg, err := ParseConfig([]byte(`
language: ruby
extension: rb
directory: katas/
files:
  - {name: "solution_{slug}", template: solution, contents: solution}
  - {name: "test_{slug}", template: test, contents: tests}
rewriters:
  tests: [rspec-minitest]
`))
	require.NoError(t, err)

	err = r.Register(cfg)
	assert.ErrorIs(t, err, dialect.ErrUnknownRewriter)
	_, ok := r.Handler("ruby")
	assert.False(t, ok)
}

func TestRegistry_RegisterReplacesExtension(t *testing.T) {
	r := newTestRegistry(t)
	cfg, err := ParseConfig([]byte(`
language: php
extension: phtml
directory: php/
files:
  - {name: "solution_{slug}", template: solution, contents: solution}
  - {name: "test_{slug}", template: test, contents: tests}
`))
	require.NoError(t, err)
	require.NoError(t, r.Register(cfg))

	_, ok := r.HandlerForExtension("php")
	assert.False(t, ok)
	h, ok := r.HandlerForExtension("phtml")
	require.True(t, ok)
	assert.Equal(t, "php", h.Language())
}

// =============================================================================
// Plan Tests
// =============================================================================

func TestHandler_PlanDirectories(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		lang       string
		difficulty string
		want       string
	}{
		{"python", "6", "solutions/6kyu/multiples_of_3_or_5"},
		{"cpp", "8", "solutions/8kyu/multiples_of_3_or_5"},
		{"go", "5", "src/solutions/5kyu/multiples_of_3_or_5"},
		{"c", "4", "src/solutions/4kyu/multiples_of_3_or_5"},
		{"rust", "6", "src/solutions/_6kyu/multiples_of_3_or_5"},
		{"java", "7", "src/main/java/katas/solutions/_7kyu/multiples_of_3_or_5"},
		{"kotlin", "Beta", "src/main/kotlin/katas/solutions/beta/multiples_of_3_or_5"},
		{"python", "beta", "solutions/beta/multiples_of_3_or_5"},
	}

	for _, tt := range tests {
		t.Run(tt.lang+"/"+tt.difficulty, func(t *testing.T) {
			h, err := r.Get(tt.lang)
			require.NoError(t, err)
			plan, err := h.Plan(context.Background(), details("Multiples of 3 or 5", tt.difficulty, "s", "t"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan.Directory)
			assert.Equal(t, tt.lang, plan.Language)
		})
	}
}

func TestHandler_PlanFiles(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		lang  string
		files []string
	}{
		{"python", []string{"solution_even_or_odd.py", "test_even_or_odd.py"}},
		{"javascript", []string{"solution_even_or_odd.js", "test_even_or_odd.js"}},
		{"typescript", []string{"solution_even_or_odd.ts", "test_even_or_odd.ts"}},
		{"php", []string{"solution_even_or_odd.php", "test_even_or_odd.php"}},
		{"c", []string{"solution_even_or_odd.c", "solution_even_or_odd.h", "test_even_or_odd.c"}},
		{"cpp", []string{"solution_even_or_odd.cpp", "solution_even_or_odd.hpp", "test_even_or_odd.cpp"}},
		{"rust", []string{"solution_even_or_odd.rs", "test_even_or_odd.rs", "mod.rs"}},
		{"go", []string{"even_or_odd_solution.go", "even_or_odd_test.go"}},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			h, err := r.Get(tt.lang)
			require.NoError(t, err)
			plan, err := h.Plan(context.Background(), details("Even or Odd", "8", "solution body", "test body"))
			require.NoError(t, err)

			var names []string
			for _, f := range plan.Files {
				names = append(names, f.FileName())
			}
			assert.Equal(t, tt.files, names)

			solution, ok := plan.File(models.TemplateSolution)
			require.True(t, ok)
			assert.Equal(t, "solution body", solution.Contents)
			tests, ok := plan.File(models.TemplateTest)
			require.True(t, ok)
			assert.Equal(t, "test body", tests.Contents)
		})
	}
}

func TestHandler_PlanEmptyExtraFiles(t *testing.T) {
	h, err := newTestRegistry(t).Get("c")
	require.NoError(t, err)

	plan, err := h.Plan(context.Background(), details("Even or Odd", "8", "int f();", "Test(a, b) {}"))
	require.NoError(t, err)

	header, ok := plan.File("header")
	require.True(t, ok)
	assert.Empty(t, header.Contents)
}

func TestHandler_PlanJavaClassNames(t *testing.T) {
	h, err := newTestRegistry(t).Get("java")
	require.NoError(t, err)

	solution := "import java.util.*;\n\nclass Helper {}\n\npublic class Kata {\n  public static int f() { return 1; }\n}\n"
	tests := "import org.junit.jupiter.api.Test;\n\nclass SolutionTest {\n  @Test void works() {}\n}\n"

	plan, err := h.Plan(context.Background(), details("Even or Odd", "8", solution, tests))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"src/main/java/katas/solutions/_8kyu/even_or_odd/Kata.java",
		"src/main/java/katas/solutions/_8kyu/even_or_odd/SolutionTest.java",
	}, plan.Paths())
}

func TestHandler_PlanKotlinClassNames(t *testing.T) {
	h, err := newTestRegistry(t).Get("kotlin")
	require.NoError(t, err)

	plan, err := h.Plan(context.Background(), details("Even or Odd", "8", "object Kata {\n  fun f() = 1\n}\n", "fun main() {}\n"))
	require.NoError(t, err)

	assert.Equal(t, "Kata", plan.Files[0].Name)
	assert.Equal(t, "SolutionTest", plan.Files[1].Name, "default name when no class is declared")
	assert.Equal(t, "kt", plan.Files[1].Extension)
}

func TestHandler_PlanRendersDescription(t *testing.T) {
	h, err := newTestRegistry(t).Get("python")
	require.NoError(t, err)

	d := details("Even or Odd", "8", "", "")
	d.Description = "Return the parity.\n```if:python\nUse `%`.\n```\n```if:go\nUse a switch.\n```\n"

	plan, err := h.Plan(context.Background(), d)
	require.NoError(t, err)

	readme, ok := plan.File(TemplateReadme)
	require.True(t, ok)
	assert.Equal(t, "README.md", readme.FileName())
	assert.Contains(t, readme.Contents, "Use `%`.")
	assert.NotContains(t, readme.Contents, "switch")
}

func TestHandler_PlanRejectsInvalidDetails(t *testing.T) {
	h, err := newTestRegistry(t).Get("python")
	require.NoError(t, err)

	_, err = h.Plan(context.Background(), models.KataDetails{Title: "x", Difficulty: "6"})
	assert.Error(t, err)
}

// =============================================================================
// Duplicate Suffix Tests
// =============================================================================

func TestHandler_WithDuplicateSuffix(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		lang string
		want []string
	}{
		{"python", []string{"solutions/8kyu/even_or_odd_2/solution_even_or_odd_2.py", "solutions/8kyu/even_or_odd_2/test_even_or_odd_2.py"}},
		{"rust", []string{
			"src/solutions/_8kyu/even_or_odd_2/solution_even_or_odd_2.rs",
			"src/solutions/_8kyu/even_or_odd_2/test_even_or_odd_2.rs",
			"src/solutions/_8kyu/even_or_odd_2/mod.rs",
		}},
		{"java", []string{
			"src/main/java/katas/solutions/_8kyu/even_or_odd_2/Solution2.java",
			"src/main/java/katas/solutions/_8kyu/even_or_odd_2/SolutionTest2.java",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			h, err := r.Get(tt.lang)
			require.NoError(t, err)
			plan, err := h.Plan(context.Background(), details("Even or Odd", "8", "", ""))
			require.NoError(t, err)

			dup := h.WithDuplicateSuffix(plan, 2)
			assert.Equal(t, tt.want, dup.Paths())
			assert.NotEqual(t, plan.Directory, dup.Directory, "original plan is untouched")
		})
	}
}

// =============================================================================
// Format Argument Tests
// =============================================================================

func TestHandler_FormatArgs(t *testing.T) {
	r := newTestRegistry(t)
	url := "https://www.codewars.com/kata/abc123"

	py, err := r.Get("python")
	require.NoError(t, err)
	plan, err := py.Plan(context.Background(), details("Even or Odd", "8", "def f(): pass", "test.expect(f())"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"codewars_url":       url,
		"solution_file_name": "solution_even_or_odd",
		"solution":           "def f(): pass",
		"tests":              "test.expect(f())",
	}, py.FormatArgs(plan, url))

	c, err := r.Get("c")
	require.NoError(t, err)
	plan, err = c.Plan(context.Background(), details("Even or Odd", "8", "", ""))
	require.NoError(t, err)
	assert.Equal(t, "SOLUTION_EVEN_OR_ODD", c.FormatArgs(plan, url)["solution_file_name_upper"])

	kt, err := r.Get("kotlin")
	require.NoError(t, err)
	plan, err = kt.Plan(context.Background(), details("Even or Odd", "8", "", ""))
	require.NoError(t, err)
	assert.Equal(t, "katas.solutions._8kyu.even_or_odd", kt.FormatArgs(plan, url)["package_name"])
}

// =============================================================================
// Edit Tests
// =============================================================================

func TestHandler_EditPythonVariants(t *testing.T) {
	h, err := newTestRegistry(t).Get("python")
	require.NoError(t, err)

	tests := "import codewars_test as test\nfrom solution import f\n\ntest.assert_equals(f(1), 1)\n"
	plan, err := h.Plan(context.Background(), details("Identity", "8", "def f(x):\n    return x\n", tests))
	require.NoError(t, err)

	edited, err := h.Edit(context.Background(), plan, EditOptions{})
	require.NoError(t, err)
	got, _ := edited.File(models.TemplateTest)
	assert.Equal(t, "def test_example():\n    assert f(1) == 1\n", got.Contents)

	edited, err = h.Edit(context.Background(), plan, EditOptions{Variant: "unittest"})
	require.NoError(t, err)
	got, _ = edited.File(models.TemplateTest)
	assert.Contains(t, got.Contents, "class SolutionTests(unittest.TestCase):")

	original, _ := plan.File(models.TemplateTest)
	assert.Equal(t, tests, original.Contents, "plan is not modified")

	solution, _ := edited.File(models.TemplateSolution)
	assert.Equal(t, "def f(x):\n    return x\n", solution.Contents)
}

func TestHandler_EditUnknownVariant(t *testing.T) {
	r := newTestRegistry(t)

	py, err := r.Get("python")
	require.NoError(t, err)
	plan, err := py.Plan(context.Background(), details("Identity", "8", "", ""))
	require.NoError(t, err)
	_, err = py.Edit(context.Background(), plan, EditOptions{Variant: "nose"})
	assert.ErrorIs(t, err, ErrUnknownVariant)

	c, err := r.Get("c")
	require.NoError(t, err)
	plan, err = c.Plan(context.Background(), details("Identity", "8", "", ""))
	require.NoError(t, err)
	_, err = c.Edit(context.Background(), plan, EditOptions{Variant: "pytest"})
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

func TestHandler_EditGoPassesDirectory(t *testing.T) {
	h, err := newTestRegistry(t).Get("go")
	require.NoError(t, err)

	tests := "package kata_test\n\nimport (\n\t. \"github.com/onsi/ginkgo\"\n)\n\nvar _ = Describe(\"x\", func() {})\n"
	plan, err := h.Plan(context.Background(), details("Even or Odd", "8", "package kata\n", tests))
	require.NoError(t, err)

	edited, err := h.Edit(context.Background(), plan, EditOptions{GoModule: "example.com/katas"})
	require.NoError(t, err)
	got, _ := edited.File(models.TemplateTest)
	assert.Contains(t, got.Contents, `. "example.com/katas/src/solutions/8kyu/even_or_odd"`)
	assert.Contains(t, got.Contents, "func TestEntryPoint(t *testing.T) {")
}

func TestHandler_EditJavaStripsPackages(t *testing.T) {
	h, err := newTestRegistry(t).Get("java")
	require.NoError(t, err)

	plan, err := h.Plan(context.Background(), details("Even or Odd", "8",
		"package codewars;\npublic class Kata {}\n",
		"package codewars;\nclass KataTest {}\n"))
	require.NoError(t, err)

	edited, err := h.Edit(context.Background(), plan, EditOptions{})
	require.NoError(t, err)
	assert.Equal(t, "public class Kata {}\n", edited.Files[0].Contents)
	assert.Equal(t, "class KataTest {}\n", edited.Files[1].Contents)
}

func TestHandler_EditWrapsRewriteErrors(t *testing.T) {
	h, err := newTestRegistry(t).Get("c")
	require.NoError(t, err)

	plan, err := h.Plan(context.Background(), details("Even or Odd", "8", "", "cr_assert_eq(a, b, 3);\n"))
	require.NoError(t, err)

	_, err = h.Edit(context.Background(), plan, EditOptions{})
	require.ErrorIs(t, err, dialect.ErrUnsupportedArgumentShape)
	assert.Contains(t, err.Error(), "test_even_or_odd.c")
}

func TestHandler_Rewriters(t *testing.T) {
	h, err := newTestRegistry(t).Get("cpp")
	require.NoError(t, err)

	names, err := h.Rewriters(models.TemplateTest, "")
	require.NoError(t, err)
	assert.Equal(t, []string{dialect.IglooToCatch2}, names)

	names, err = h.Rewriters(models.TemplateSolution, "")
	require.NoError(t, err)
	assert.Empty(t, names)
}
