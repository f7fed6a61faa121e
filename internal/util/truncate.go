package util

import (
	"strings"
	"unicode/utf8"
)

// TruncateBytes trims a string to at most maxBytes without splitting a rune.
func TruncateBytes(input string, maxBytes int) (string, bool) {
	if maxBytes <= 0 || len(input) <= maxBytes {
		return input, false
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(input[cut]) {
		cut--
	}
	return input[:cut], true
}

// TruncateLines keeps at most maxLines lines and maxBytes bytes, counting the
// newline separators.
func TruncateLines(lines []string, maxLines int, maxBytes int) (out []string, truncated bool) {
	byteCount := 0
	for _, line := range lines {
		if maxLines > 0 && len(out) >= maxLines {
			return out, true
		}
		sep := 0
		if len(out) > 0 {
			sep = 1
		}
		if maxBytes > 0 && byteCount+sep+len(line) > maxBytes {
			return out, true
		}
		byteCount += sep + len(line)
		out = append(out, line)
	}
	return out, false
}

// Preview returns a short preview of text by limiting lines and bytes.
func Preview(text string, maxLines int, maxBytes int) string {
	if text == "" {
		return ""
	}
	trimmed, _ := TruncateLines(strings.Split(text, "\n"), maxLines, maxBytes)
	return strings.Join(trimmed, "\n")
}

// LineCount counts the lines in a preview; an empty string has none.
func LineCount(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(text, "\n") + 1
}
