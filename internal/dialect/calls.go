package dialect

import (
	"errors"
	"regexp"
	"strings"

	"github.com/kataforge-dev/kataforge/internal/tokenizer"
)

// call is one located invocation of a rewritable function.
type call struct {
	// Callee is the matched callee text without the opening paren.
	Callee string
	// Groups are the callee pattern's submatches.
	Groups []string
	// Args are the top-level arguments.
	Args []string
	// Text is the full call text, callee through closing paren.
	Text string
	// Rest is the source following the closing paren.
	Rest string
}

// callEdit is the replacement for one call. Skip counts the bytes after
// the closing paren that the replacement absorbs.
type callEdit struct {
	Text string
	Skip int
}

// rewriteCalls replaces every call whose callee matches pattern. The
// pattern must end with the opening paren. Calls with unbalanced
// parentheses are left untouched.
//
// Callees are located with the standard regexp package because its match
// offsets are byte offsets, which the tokenizer works in.
func rewriteCalls(src string, pattern *regexp.Regexp, fn func(c call) (callEdit, error)) (string, error) {
	var sb strings.Builder
	pos := 0

	for pos < len(src) {
		loc := pattern.FindStringSubmatchIndex(src[pos:])
		if loc == nil {
			break
		}
		start, open := pos+loc[0], pos+loc[1]-1

		list, err := tokenizer.Tokenize(src, open)
		if err != nil {
			if errors.Is(err, tokenizer.ErrUnbalancedDelimiters) || errors.Is(err, tokenizer.ErrNoArgumentList) {
				sb.WriteString(src[pos : open+1])
				pos = open + 1
				continue
			}
			return "", err
		}

		groups := make([]string, 0, len(loc)/2)
		for i := 2; i+1 < len(loc); i += 2 {
			if loc[i] < 0 {
				groups = append(groups, "")
				continue
			}
			groups = append(groups, src[pos+loc[i]:pos+loc[i+1]])
		}

		c := call{
			Callee: strings.TrimSpace(src[start:open]),
			Groups: groups,
			Args:   list.Args,
			Text:   src[start : list.End+1],
			Rest:   src[list.End+1:],
		}

		edit, err := fn(c)
		if err != nil {
			return "", err
		}

		sb.WriteString(src[pos:start])
		sb.WriteString(edit.Text)
		pos = list.End + 1 + edit.Skip
	}

	if pos < len(src) {
		sb.WriteString(src[pos:])
	}
	return sb.String(), nil
}

// isStringLiteral reports whether s is a double-quoted literal, possibly
// split into adjacent pieces.
func isStringLiteral(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

// lowPrecedenceOps are operators that bind no tighter than equality in C
// and C++.
var lowPrecedenceOps = []string{"|", "&", "==", "!=", "^", "?", "="}

// relationalOps bind at the same level as < and >.
var relationalOps = []string{"<", ">"}

// comparand prepares an operand for embedding in "a OP b". Operands
// containing operators that would regroup the comparison are wrapped in
// parentheses unless they already are.
func comparand(operand string, relational bool) string {
	operand = strings.TrimSpace(operand)
	if tokenizer.IsWrapped(operand) {
		return operand
	}
	ops := lowPrecedenceOps
	if relational {
		ops = append(append([]string{}, lowPrecedenceOps...), relationalOps...)
	}
	for _, op := range ops {
		if strings.Contains(operand, op) {
			return "(" + operand + ")"
		}
	}
	return operand
}

// leadingSemicolon returns the number of bytes up to and including a ';'
// that follows only spaces or tabs, or 0.
func leadingSemicolon(rest string) int {
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case ' ', '\t':
			continue
		case ';':
			return i + 1
		default:
			return 0
		}
	}
	return 0
}
