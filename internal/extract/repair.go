package extract

import (
	"fmt"
	"strings"
)

// Repair applies low-risk syntactic fixes to a JSON candidate string:
//
//   - quotes bare object keys matching identifier syntax
//   - strips trailing commas before } and ]
//   - escapes literal newlines, tabs and other control characters found
//     inside string literals
//   - inserts a missing comma between adjacent }{ or ][ tokens
//
// The pass is a single scan that tracks string state, so fixes never touch
// the content of string literals or numbers.
func Repair(s string) string {
	var out strings.Builder
	out.Grow(len(s) + 16)

	inString := false
	escape := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escape:
				escape = false
				out.WriteByte(c)
			case c == '\\':
				escape = true
				out.WriteByte(c)
			case c == '"':
				inString = false
				out.WriteByte(c)
			case c == '\n':
				out.WriteString(`\n`)
			case c == '\r':
				out.WriteString(`\r`)
			case c == '\t':
				out.WriteString(`\t`)
			case c < 0x20:
				out.WriteString(fmt.Sprintf(`\u%04x`, c))
			default:
				out.WriteByte(c)
			}
			continue
		}

		switch {
		case c == '"':
			inString = true
			out.WriteByte(c)

		case c == ',':
			// Trailing comma: drop it when the next token closes a scope.
			if next := nextToken(s, i+1); next == '}' || next == ']' {
				continue
			}
			out.WriteByte(c)

		case c == '}' || c == ']':
			out.WriteByte(c)
			// Missing comma between adjacent values.
			if next := nextToken(s, i+1); next == '{' || next == '[' {
				out.WriteByte(',')
			}

		case isIdentStart(c):
			// Quote a bare key: an identifier whose next token is a colon.
			j := i
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			word := s[i:j]
			if nextToken(s, j) == ':' {
				out.WriteByte('"')
				out.WriteString(word)
				out.WriteByte('"')
			} else {
				out.WriteString(word)
			}
			i = j - 1

		default:
			out.WriteByte(c)
		}
	}

	return out.String()
}

// nextToken returns the first non-whitespace byte at or after position i,
// or 0 when the string ends first.
func nextToken(s string, i int) byte {
	for ; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return s[i]
		}
	}
	return 0
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
