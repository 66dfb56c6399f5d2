package generator

import (
	"strconv"
	"strings"
	"unicode"
)

var templateLiteralEscaper = strings.NewReplacer(`\`, `\\`, "`", "\\`", "${", "\\${")

// jsLiteral renders s as a JavaScript template literal. Quotes of either kind
// inside s need no escaping.
func jsLiteral(s string) string {
	return "`" + templateLiteralEscaper.Replace(s) + "`"
}

// pyLiteral renders s as a double quoted Python string. Go's escape sequences
// are a subset of Python's, so the result is valid Python.
func pyLiteral(s string) string {
	return strconv.Quote(s)
}

// psLiteral renders s as a single quoted PowerShell string
func psLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// commentText flattens s onto one line and drops control and other
// non-printable runes, so it cannot escape a line comment or a YAML comment
func commentText(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, strings.Join(strings.Fields(s), " "))
}
