package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kataforge-dev/kataforge/internal/batch"
	"github.com/kataforge-dev/kataforge/internal/config"
	"github.com/kataforge-dev/kataforge/internal/dialect"
)

const description = "Return the parity.\n```if:python\nUse `%`.\n```\n```if:go\nUse a switch.\n```\n"

// =============================================================================
// Render Command Tests
// =============================================================================

func TestRender_ForLanguage(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCmd(t, t.TempDir(), description, "render", "--lang", "go")
	require.NoError(t, err)
	if diff := cmp.Diff("Return the parity.\nUse a switch.\n", stdout); diff != "" {
		t.Errorf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_DefaultLanguage(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCmd(t, t.TempDir(), description, "render", "--json")
	require.NoError(t, err)

	var result RenderResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, "python", result.Language)
	assert.Equal(t, "Return the parity.\nUse `%`.\n", result.Output)
}

func TestRender_LanguageWithoutHandler(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCmd(t, t.TempDir(), "```if:csharp\nC#\n```\n", "render", "--lang", "csharp")
	require.NoError(t, err)
	assert.Equal(t, "C#\n", stdout)
}

func TestRender_Pretty(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCmd(t, t.TempDir(), "# Title\n\nSome *text*.\n", "render", "--lang", "python", "--pretty")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Title")
	assert.NotEqual(t, "# Title\n\nSome *text*.\n", stdout, "markdown is styled")
}

// =============================================================================
// Plan Command Tests
// =============================================================================

func planArgs(t *testing.T, dir string, extra ...string) []string {
	t.Helper()
	solution := writeProjectFile(t, t.TempDir(), "solution.py", "def even_or_odd(n):\n    pass\n")
	tests := writeProjectFile(t, t.TempDir(), "tests.py", pythonTests)
	args := []string{"plan", "--lang", "python", "--title", "Even or Odd", "--difficulty", "8",
		"--solution", solution, "--tests", tests}
	return append(args, extra...)
}

func TestPlan_DryRun(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	stdout, _, err := executeCmd(t, dir, "", planArgs(t, dir, "--json")...)
	require.NoError(t, err)

	var result PlanResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, "solutions/8kyu/even_or_odd", result.Plan.Directory)
	assert.Equal(t, []string{
		"solutions/8kyu/even_or_odd/solution_even_or_odd.py",
		"solutions/8kyu/even_or_odd/test_even_or_odd.py",
	}, result.Paths)
	assert.Contains(t, result.Plan.Files[1].Contents, "assert f(1) == 1", "tests are rewritten")
	assert.Equal(t, "solution_even_or_odd", result.FormatArgs["solution_file_name"])
	assert.False(t, result.Written)

	_, err = os.Stat(filepath.Join(dir, "solutions"))
	assert.True(t, os.IsNotExist(err), "dry run creates nothing")
}

func TestPlan_WriteAndDuplicate(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	stdout, _, err := executeCmd(t, dir, "", planArgs(t, dir, "--write")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "[OK] Created 2 files in solutions/8kyu/even_or_odd")

	data, err := os.ReadFile(filepath.Join(dir, "solutions", "8kyu", "even_or_odd", "test_even_or_odd.py"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "def test_example():")

	_, stderr, err := executeCmd(t, dir, "", planArgs(t, dir, "--write")...)
	require.NoError(t, err)
	assert.Contains(t, stderr, "using suffix 1")

	_, err = os.Stat(filepath.Join(dir, "solutions", "8kyu", "even_or_odd_1", "solution_even_or_odd_1.py"))
	assert.NoError(t, err)
}

func TestPlan_WithDescription(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	desc := writeProjectFile(t, t.TempDir(), "README.md", description)

	stdout, _, err := executeCmd(t, dir, "", planArgs(t, dir, "--description", desc, "--json")...)
	require.NoError(t, err)

	var result PlanResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	require.Len(t, result.Paths, 3)
	assert.Equal(t, "solutions/8kyu/even_or_odd/README.md", result.Paths[2])
	assert.Equal(t, "Return the parity.\nUse `%`.\n", result.Plan.Files[2].Contents)
}

func TestPlan_RequiresFlags(t *testing.T) {
	isolate(t)

	_, _, err := executeCmd(t, t.TempDir(), "", "plan", "--lang", "python")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

// =============================================================================
// Convert Command Tests
// =============================================================================

func TestConvert_WriteAndHistory(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeProjectFile(t, dir, "katas/test_one.py", pythonTests)
	writeProjectFile(t, dir, "katas/test_two.c", criterionTests)

	stdout, _, err := executeCmd(t, dir, "", "convert", "katas", "--write", "--json")
	require.NoError(t, err)

	var result ConvertResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	require.Len(t, result.Files, 2)
	assert.Equal(t, 2, result.Written)
	assert.Equal(t, 0, result.Failed)

	stdout, _, err = executeCmd(t, dir, "", "history", "--json")
	require.NoError(t, err)

	var hist HistoryResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &hist))
	assert.Equal(t, 2, hist.Total)
	require.Len(t, hist.Rewrites, 2)
}

func TestConvert_DryRunTable(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeProjectFile(t, dir, "test_one.py", pythonTests)

	stdout, _, err := executeCmd(t, dir, "", "convert", ".", "--lowering", "unittest")
	require.NoError(t, err)
	assert.Contains(t, stdout, dialect.CodewarsUnittest)
	assert.Contains(t, stdout, "changed")
	assert.Contains(t, stdout, "1 of 1 files would change")

	data, err := os.ReadFile(filepath.Join(dir, "test_one.py"))
	require.NoError(t, err)
	assert.Equal(t, pythonTests, string(data))
}

func TestConvert_ReportsFailures(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeProjectFile(t, dir, "test_bad.c", "cr_assert_eq(a);\n")

	_, stderr, err := executeCmd(t, dir, "", "convert", ".")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 files could not be rewritten")
	assert.Contains(t, stderr, "[ERROR] test_bad.c")
}

func TestConvert_NotADirectory(t *testing.T) {
	isolate(t)

	_, _, err := executeCmd(t, t.TempDir(), "", "convert", "absent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not a directory: absent")
}

func TestConvertStatus(t *testing.T) {
	assert.Equal(t, "skipped", convertStatus(batch.Result{}))
	assert.Equal(t, "unchanged", convertStatus(batch.Result{Rewriters: []string{"x"}}))
	assert.Equal(t, "changed", convertStatus(batch.Result{Rewriters: []string{"x"}, Changed: true}))
	assert.Equal(t, "written", convertStatus(batch.Result{Changed: true, Written: true}))
}

// =============================================================================
// History Command Tests
// =============================================================================

func TestHistory_Empty(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCmd(t, t.TempDir(), "", "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Previous language: (none, using python)")
	assert.Contains(t, stdout, "Rewrites recorded: 0")
}

func TestHistory_Disabled(t *testing.T) {
	isolate(t)
	t.Setenv("KATAFORGE_HISTORY_ENABLED", "false")

	_, _, err := executeCmd(t, t.TempDir(), "", "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "History is disabled")
}

func TestHistory_ImportsLegacyFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeProjectFile(t, dir, "history.json", `{"previousLanguage": "kotlin"}`)

	stdout, _, err := executeCmd(t, dir, "", "history", "--json")
	require.NoError(t, err)

	var hist HistoryResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &hist))
	assert.Equal(t, "kotlin", hist.PreviousLanguage)
	assert.Empty(t, hist.Rewrites)
}

// =============================================================================
// Languages Command Tests
// =============================================================================

func TestLanguages_JSON(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCmd(t, t.TempDir(), "", "languages", "--json")
	require.NoError(t, err)

	var infos []LanguageInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &infos))
	require.Len(t, infos, 10)

	byName := make(map[string]LanguageInfo)
	for _, info := range infos {
		byName[info.Language] = info
	}
	assert.Equal(t, []string{"pytest", "unittest"}, byName["python"].Variants)
	assert.Equal(t, []string{dialect.IglooToCatch2}, byName["cpp"].Rewriters)
	assert.Equal(t, "rs", byName["rust"].Extension)
}

func TestLanguages_Table(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCmd(t, t.TempDir(), "", "languages")
	require.NoError(t, err)
	assert.Contains(t, stdout, "LANGUAGE")
	assert.Contains(t, stdout, ".kt")
}

// =============================================================================
// Init Command Tests
// =============================================================================

func TestInit_CreatesConfigAndHistory(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeProjectFile(t, dir, "history.json", `{"previousLanguage": "rust"}`)

	stdout, _, err := executeCmd(t, dir, "", "init", "--local-history", "--json")
	require.NoError(t, err)

	var result InitResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.True(t, result.Success)
	assert.True(t, result.ImportedLegacy)
	assert.Equal(t, filepath.Join(dir, ".kataforge", "history.db"), result.HistoryPath)

	_, err = os.Stat(result.HistoryPath)
	assert.NoError(t, err)

	cfg, err := config.NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(".kataforge", "history.db"), cfg.History.Path)
}

func TestInit_AlreadyInitialized(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	_, _, err := executeCmd(t, dir, "", "init")
	require.NoError(t, err)

	_, stderr, err := executeCmd(t, dir, "", "init")
	require.NoError(t, err)
	assert.Contains(t, stderr, "already initialized")
}

func TestInit_InvalidRoot(t *testing.T) {
	isolate(t)

	_, _, err := executeCmd(t, filepath.Join(t.TempDir(), "absent"), "", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid project root")
}
