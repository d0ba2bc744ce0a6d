package parser

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// unquoteString returns the value of a JavaScript string literal given its
// source text, quotes included. Malformed escapes are kept as written.
func unquoteString(literal string) string {
	literal = strings.TrimSpace(literal)
	if len(literal) >= 2 {
		first, last := literal[0], literal[len(literal)-1]
		if first == last && (first == '"' || first == '\'') {
			literal = literal[1 : len(literal)-1]
		}
	}
	if !strings.Contains(literal, `\`) {
		return literal
	}

	var b strings.Builder
	b.Grow(len(literal))
	for i := 0; i < len(literal); {
		c := literal[i]
		if c != '\\' || i+1 >= len(literal) {
			b.WriteByte(c)
			i++
			continue
		}
		r, n := decodeEscape(literal[i+1:])
		switch {
		case n == 0:
			b.WriteByte(c)
			i++
			continue
		case r >= 0:
			b.WriteRune(r)
		}
		i += 1 + n
	}
	return b.String()
}

// decodeEscape decodes the escape sequence at the start of s, which follows a
// backslash. It returns the rune (-1 for a line continuation) and the number
// of bytes consumed, or 0 when the sequence is malformed.
func decodeEscape(s string) (rune, int) {
	switch s[0] {
	case 'n':
		return '\n', 1
	case 't':
		return '\t', 1
	case 'r':
		return '\r', 1
	case 'b':
		return '\b', 1
	case 'f':
		return '\f', 1
	case 'v':
		return '\v', 1
	case '0':
		if len(s) == 1 || s[1] < '0' || s[1] > '9' {
			return 0, 1
		}
	case '\n':
		return -1, 1
	case '\r':
		if strings.HasPrefix(s, "\r\n") {
			return -1, 2
		}
		return -1, 1
	case 'x':
		if len(s) >= 3 {
			if v, err := strconv.ParseUint(s[1:3], 16, 8); err == nil {
				return rune(v), 3
			}
		}
		return 0, 0
	case 'u':
		return decodeUnicodeEscape(s)
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == '\u2028' || r == '\u2029' {
		return -1, size
	}
	return r, size
}

func decodeUnicodeEscape(s string) (rune, int) {
	if strings.HasPrefix(s, "u{") {
		end := strings.IndexByte(s, '}')
		if end < 3 {
			return 0, 0
		}
		v, err := strconv.ParseUint(s[2:end], 16, 32)
		if err != nil || v > utf8.MaxRune {
			return 0, 0
		}
		return rune(v), end + 1
	}
	if len(s) < 5 {
		return 0, 0
	}
	v, err := strconv.ParseUint(s[1:5], 16, 16)
	if err != nil {
		return 0, 0
	}
	r := rune(v)
	if utf16.IsSurrogate(r) && len(s) >= 11 && s[5] == '\\' && s[6] == 'u' {
		if low, err := strconv.ParseUint(s[7:11], 16, 16); err == nil {
			if pair := utf16.DecodeRune(r, rune(low)); pair != utf8.RuneError {
				return pair, 11
			}
		}
	}
	return r, 5
}
