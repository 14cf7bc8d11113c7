// Package slug turns free text such as kata titles or test descriptions
// into identifiers.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und)

// Words returns the runs of letters, digits and underscores in s.
func Words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !isWordRune(r)
	})
}

// Snake lower-cases s and joins its words with underscores:
// "Does Thing!" becomes "does_thing".
func Snake(s string) string {
	return strings.Join(Words(strings.ToLower(s)), "_")
}

// ClassName title-cases s and concatenates its ASCII alphanumeric runs:
// "group name" becomes "GroupName". It returns "" when nothing survives.
func ClassName(s string) string {
	titled := titleCaser.String(s)
	var sb strings.Builder
	for _, r := range titled {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Upper returns a snake-cased identifier in upper case, suitable for
// include guards.
func Upper(s string) string {
	return strings.ToUpper(Snake(s))
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
