package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kataforge-dev/kataforge/internal/dialect"
	"github.com/kataforge-dev/kataforge/internal/language"
)

const pythonTests = "import codewars_test as test\nfrom solution import f\n\ntest.assert_equals(f(1), 1)\n"

const criterionTests = "#include <criterion/criterion.h>\nTest(a, b) { cr_assert(x); }\n"

// =============================================================================
// Rewrite Command Tests
// =============================================================================

func TestRewrite_StdinWithLanguage(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCmd(t, t.TempDir(), pythonTests, "rewrite", "--lang", "python")
	require.NoError(t, err)
	assert.Contains(t, stdout, "def test_example():")
	assert.Contains(t, stdout, "assert f(1) == 1")
}

func TestRewrite_Lowering(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCmd(t, t.TempDir(), pythonTests, "rewrite", "--lang", "python", "--lowering", "unittest")
	require.NoError(t, err)
	assert.Contains(t, stdout, "class SolutionTests(unittest.TestCase):")
}

func TestRewrite_ConfiguredLowering(t *testing.T) {
	isolate(t)
	t.Setenv("KATAFORGE_PYTHON_LOWERING", "unittest")

	stdout, _, err := executeCmd(t, t.TempDir(), pythonTests, "rewrite", "--lang", "python")
	require.NoError(t, err)
	assert.Contains(t, stdout, "unittest.TestCase")
}

func TestRewrite_InvalidLowering(t *testing.T) {
	isolate(t)

	_, _, err := executeCmd(t, t.TempDir(), pythonTests, "rewrite", "--lang", "python", "--lowering", "nose")
	require.Error(t, err)
	assert.ErrorIs(t, err, language.ErrUnknownVariant)
	assert.Contains(t, err.Error(), "pytest, unittest")
}

func TestRewrite_LanguageFromExtension(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	file := writeProjectFile(t, dir, "c/test_kata.c", criterionTests)

	stdout, _, err := executeCmd(t, dir, "", "rewrite", file)
	require.NoError(t, err)
	assert.Contains(t, stdout, `TEST_CASE("a:b", "[a]")`)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, criterionTests, string(data), "without --write the file is untouched")
}

func TestRewrite_WriteBack(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	file := writeProjectFile(t, dir, "test_kata.c", criterionTests)

	stdout, _, err := executeCmd(t, dir, "", "rewrite", file, "--write")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[OK] Rewrote")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "TEST_CASE")

	stdout, _, err = executeCmd(t, dir, "", "rewrite", file, "--write")
	require.NoError(t, err)
	assert.Contains(t, stdout, "already converted")
}

func TestRewrite_WriteFromStdinFails(t *testing.T) {
	isolate(t)

	_, _, err := executeCmd(t, t.TempDir(), pythonTests, "rewrite", "--lang", "python", "--write")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stdin")
}

func TestRewrite_JSON(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCmd(t, t.TempDir(), pythonTests, "rewrite", "--lang", "Python", "--json")
	require.NoError(t, err)

	var result RewriteResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, "python", result.Language)
	assert.Equal(t, []string{dialect.CodewarsPytest}, result.Rewriters)
	assert.True(t, result.Changed)
	assert.False(t, result.Written)
	assert.Contains(t, result.Output, "assert f(1) == 1")
}

func TestRewrite_SingleRewriter(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCmd(t, t.TempDir(), criterionTests, "rewrite", "--rewriter", dialect.CriterionToCatch2)
	require.NoError(t, err)
	assert.Contains(t, stdout, "TEST_CASE")
}

func TestRewrite_UnknownRewriter(t *testing.T) {
	isolate(t)

	_, _, err := executeCmd(t, t.TempDir(), "x", "rewrite", "--rewriter", "mocha")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown rewriter: mocha")
	assert.Contains(t, err.Error(), dialect.IglooToCatch2)
}

func TestRewrite_UnknownLanguage(t *testing.T) {
	isolate(t)

	_, _, err := executeCmd(t, t.TempDir(), "x", "rewrite", "--lang", "cobol")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown language: cobol")
}

func TestRewrite_UnsupportedShape(t *testing.T) {
	isolate(t)

	_, _, err := executeCmd(t, t.TempDir(), "cr_assert_eq(a);\n", "rewrite", "--lang", "c")
	require.Error(t, err)
	assert.ErrorIs(t, err, dialect.ErrUnsupportedArgumentShape)
	assert.Contains(t, err.Error(), "Failed to rewrite source")
}

func TestRewrite_GoNeedsDirectory(t *testing.T) {
	isolate(t)

	_, _, err := executeCmd(t, t.TempDir(), "package kata\n", "rewrite", "--lang", "go")
	assert.ErrorIs(t, err, dialect.ErrMissingOption)
}

func TestRewrite_RemembersLanguage(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	_, _, err := executeCmd(t, dir, "import { assert } from 'chai';\n", "rewrite", "--lang", "javascript")
	require.NoError(t, err)

	stdout, _, err := executeCmd(t, dir, "const Test = require('@codewars/test-compat');\n", "rewrite", "--json")
	require.NoError(t, err)

	var result RewriteResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, "javascript", result.Language, "previous language is used")
	assert.Contains(t, result.Output, "import { assert } from 'chai';")
}

func TestRewrite_DefaultLanguageWithoutHistory(t *testing.T) {
	isolate(t)
	t.Setenv("KATAFORGE_HISTORY_ENABLED", "false")
	t.Setenv("KATAFORGE_DEFAULT_LANGUAGE", "c")

	stdout, _, err := executeCmd(t, t.TempDir(), criterionTests, "rewrite")
	require.NoError(t, err)
	assert.Contains(t, stdout, "TEST_CASE")
}

func TestKataDirectory(t *testing.T) {
	dir := t.TempDir()
	orig := projectRoot
	projectRoot = dir
	defer func() { projectRoot = orig }()

	assert.Equal(t, "katas/6kyu/kata", kataDirectory(filepath.Join(dir, "katas", "6kyu", "kata", "kata_test.go")))
	assert.Equal(t, "", kataDirectory(filepath.Join(dir, "kata_test.go")))
	assert.Equal(t, "", kataDirectory(filepath.Join(filepath.Dir(dir), "elsewhere", "kata_test.go")))
}
