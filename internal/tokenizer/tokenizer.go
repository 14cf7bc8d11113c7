// Package tokenizer splits parenthesized call argument lists into their
// top-level arguments.
//
// It is a balanced-delimiter counter, not a lexer: only '(' , ')' and ','
// are significant. Parentheses or commas inside string and character
// literals are counted like any other, so `f("a,b")` yields two arguments.
package tokenizer

import (
	"errors"
	"strings"
)

var (
	// ErrUnbalancedDelimiters is returned when the buffer ends before the
	// opening parenthesis is matched. The returned ArgumentList is partial.
	ErrUnbalancedDelimiters = errors.New("unbalanced delimiters")

	// ErrNoArgumentList is returned when no '(' follows the start offset.
	ErrNoArgumentList = errors.New("no argument list")
)

// ArgumentList holds the top-level arguments of one call expression.
type ArgumentList struct {
	// Args are the trimmed argument texts in left-to-right order.
	Args []string

	// Start is the offset just after the opening parenthesis, or -1 when
	// no parenthesis was found.
	Start int

	// End is the offset of the matching closing parenthesis. It equals the
	// buffer length when the list is unterminated.
	End int
}

// Len returns the number of arguments.
func (a ArgumentList) Len() int {
	return len(a.Args)
}

// Tokenize scans text from start, finds the first '(' and splits the
// enclosed argument list at depth-one commas.
func Tokenize(text string, start int) (ArgumentList, error) {
	result := ArgumentList{Start: -1, End: len(text)}
	if start < 0 {
		start = 0
	}

	depth := 0
	argStart := 0

	for i := start; i < len(text); i++ {
		switch text[i] {
		case '(':
			if depth == 0 {
				result.Start = i + 1
				argStart = i + 1
			}
			depth++
		case ')':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				last := strings.TrimSpace(text[argStart:i])
				if last != "" || len(result.Args) > 0 {
					result.Args = append(result.Args, last)
				}
				result.End = i
				return result, nil
			}
		case ',':
			if depth == 1 {
				result.Args = append(result.Args, strings.TrimSpace(text[argStart:i]))
				argStart = i + 1
			}
		}
	}

	if depth == 0 {
		return result, ErrNoArgumentList
	}

	if tail := strings.TrimSpace(text[argStart:]); tail != "" {
		result.Args = append(result.Args, tail)
	}
	return result, ErrUnbalancedDelimiters
}

// Split tokenizes a bare argument string such as "a, (b, c), d" as if it
// were wrapped in parentheses.
func Split(args string) ([]string, error) {
	list, err := Tokenize("("+args+")", 0)
	return list.Args, err
}

// IsWrapped reports whether s is entirely enclosed by one balanced pair of
// parentheses, as in "(a | b)" but not "(a) | (b)".
func IsWrapped(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' {
		return false
	}
	list, err := Tokenize(s, 0)
	return err == nil && list.End == len(s)-1
}
