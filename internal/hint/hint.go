// Package hint classifies terminal command lines by the CLI utility they invoke.
//
// Detection is a pure function over a read-only alias table and is safe for
// concurrent use.
package hint

import (
	"path/filepath"
	"regexp"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Prefix namespaces every tool identifier returned by Detect.
const Prefix = "terminal:"

// aliases maps executable basenames to their canonical tool key.
var aliases = map[string]string{
	"rg":      "rg",
	"ripgrep": "rg",
}

var escalation = map[string]struct{}{
	"sudo": {},
	"doas": {},
}

var assignmentPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*=`)

// Detect tokenizes command and reports the known tool it runs, if any.
//
// tool is "terminal:<key>" for a recognised executable and "" otherwise.
// argv is the full word list of command, including any environment
// assignments and privilege prefix. Both are zero when command is empty or
// cannot be split.
func Detect(command string) (tool string, argv []string) {
	words, err := Split(command)
	if err != nil || len(words) == 0 {
		return "", nil
	}
	rest := words
	for len(rest) > 0 && IsAssignment(rest[0]) {
		rest = rest[1:]
	}
	if len(rest) > 0 {
		if _, ok := escalation[rest[0]]; ok {
			rest = rest[1:]
		}
	}
	if len(rest) == 0 {
		return "", words
	}
	if key, ok := aliases[filepath.Base(rest[0])]; ok {
		return Prefix + key, words
	}
	return "", words
}

// IsAssignment reports whether word has the NAME=VALUE form of a leading
// environment assignment.
func IsAssignment(word string) bool {
	return assignmentPattern.MatchString(word)
}

// Join renders argv back into a single command line, quoting words as needed.
func Join(argv []string) string {
	parts := make([]string, 0, len(argv))
	for _, arg := range argv {
		quoted, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			// Quote fails only for words bash cannot represent, such as NUL bytes.
			quoted = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
		}
		parts = append(parts, quoted)
	}
	return strings.Join(parts, " ")
}
