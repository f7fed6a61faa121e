package hint

import (
	"fmt"
	"strings"
)

// SyntaxError reports a command line that cannot be split into words.
// Offset is a byte offset into the input.
type SyntaxError struct {
	Offset int
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("shell syntax error at offset %d: %s", e.Offset, e.Reason)
}

// Split breaks a command line into words using POSIX shell quoting rules.
// Quotes and escapes are removed; no expansion, operators, or comments are
// recognised, so "a | b" yields three words. Input is scanned byte by byte,
// so non-ASCII and invalid UTF-8 bytes pass through unchanged.
func Split(input string) ([]string, error) {
	var (
		words  []string
		buf    strings.Builder
		inWord bool
	)
	for i := 0; i < len(input); i++ {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			if inWord {
				words = append(words, buf.String())
				buf.Reset()
				inWord = false
			}
		case c == '\\':
			if i+1 >= len(input) {
				return nil, &SyntaxError{Offset: i, Reason: "trailing escape"}
			}
			i++
			if input[i] == '\n' {
				continue
			}
			buf.WriteByte(input[i])
			inWord = true
		case c == '\'':
			end := strings.IndexByte(input[i+1:], '\'')
			if end < 0 {
				return nil, &SyntaxError{Offset: i, Reason: "unterminated single quote"}
			}
			buf.WriteString(input[i+1 : i+1+end])
			i += end + 1
			inWord = true
		case c == '"':
			end, err := readDouble(input, i, &buf)
			if err != nil {
				return nil, err
			}
			i = end
			inWord = true
		default:
			buf.WriteByte(c)
			inWord = true
		}
	}
	if inWord {
		words = append(words, buf.String())
	}
	return words, nil
}

// readDouble consumes a double-quoted section starting at input[start] and
// returns the index of the closing quote.
func readDouble(input string, start int, buf *strings.Builder) (int, error) {
	for i := start + 1; i < len(input); i++ {
		switch c := input[i]; c {
		case '"':
			return i, nil
		case '\\':
			if i+1 >= len(input) {
				return 0, &SyntaxError{Offset: start, Reason: "unterminated double quote"}
			}
			switch next := input[i+1]; next {
			case '$', '`', '"', '\\':
				buf.WriteByte(next)
				i++
			case '\n':
				i++
			default:
				buf.WriteByte(c)
			}
		default:
			buf.WriteByte(c)
		}
	}
	return 0, &SyntaxError{Offset: start, Reason: "unterminated double quote"}
}
