package rule

import (
	"errors"
	"strings"
	"testing"

	"github.com/dlclark/regexp2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRule_ApplyReplacement(t *testing.T) {
	r := Rule{
		Name:        "swap",
		Pattern:     MustCompile(`(\w+)=(\w+)`, regexp2.None),
		Replacement: "$2=$1",
	}

	out, err := r.Apply("a=b, c=d")
	require.NoError(t, err)
	assert.Equal(t, "b=a, d=c", out)
}

func TestRule_ApplyLimit(t *testing.T) {
	r := Rule{
		Name:        "first",
		Pattern:     MustCompile(`x`, regexp2.None),
		Replacement: "y",
		Limit:       1,
	}

	out, err := r.Apply("xxx")
	require.NoError(t, err)
	assert.Equal(t, "yxx", out)
}

func TestRule_BackReference(t *testing.T) {
	r := Rule{
		Name:        "fence",
		Pattern:     MustCompile("(?<fence>`{3,})x\n.*?\n\\k<fence>\n?", DotAll),
		Replacement: "",
	}

	out, err := r.Apply("````x\nbody\n```\nstill\n````\nafter")
	require.NoError(t, err)
	assert.Equal(t, "after", out, "closing fence must match the opening marker exactly")
}

func TestRule_Transform(t *testing.T) {
	r := Rule{
		Name:    "upper",
		Pattern: MustCompile(`(?<word>[a-z]+)`, regexp2.None),
		Transform: func(m regexp2.Match) (string, error) {
			w, ok := Group(m, "word")
			require.True(t, ok)
			return strings.ToUpper(w), nil
		},
	}

	out, err := r.Apply("ab 12 cd")
	require.NoError(t, err)
	assert.Equal(t, "AB 12 CD", out)
}

func TestRule_TransformError(t *testing.T) {
	boom := errors.New("boom")
	r := Rule{
		Name:    "fails",
		Pattern: MustCompile(`b`, regexp2.None),
		Transform: func(m regexp2.Match) (string, error) {
			return "", boom
		},
	}

	_, err := r.Apply("abc")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "fails")
}

func TestGroup_NonParticipating(t *testing.T) {
	re := MustCompile(`(?<at>@)?x`, regexp2.None)
	m, err := re.FindStringMatch("x")
	require.NoError(t, err)
	require.NotNil(t, m)

	_, ok := Group(*m, "at")
	assert.False(t, ok)

	_, ok = Group(*m, "missing")
	assert.False(t, ok)
}

func TestPipeline_Order(t *testing.T) {
	p := Pipeline{
		{Name: "a-to-b", Pattern: MustCompile(`a`, regexp2.None), Replacement: "b"},
		{Name: "b-to-c", Pattern: MustCompile(`b`, regexp2.None), Replacement: "c"},
	}

	out, err := p.Apply("ab")
	require.NoError(t, err)
	assert.Equal(t, "cc", out, "later rules see earlier output")
	assert.Equal(t, []string{"a-to-b", "b-to-c"}, p.Names())
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile(`(`, regexp2.None)
	assert.Error(t, err)
}
