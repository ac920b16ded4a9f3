package document

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/youngspe/mintyml-go/grammar"
)

// HasEscapes reports whether a source slice contains any backslash
// escape sequences.
func HasEscapes(s string) bool {
	return strings.IndexByte(s, '\\') >= 0
}

// Unescape decodes the backslash escape sequences of a source slice.
// base is the byte offset of s within the original source; recorded
// error spans are absolute. Malformed sequences are kept verbatim and
// reported, so decoding never fails outright.
//
// Recognized forms: \n, \t, \r, \\, \xNN, \u{...}, and a backslash
// before any punctuation or symbol rune, which yields that rune.
func Unescape(s string, base int) (string, []*SyntaxError) {
	if !HasEscapes(s) {
		return s, nil
	}
	var out strings.Builder
	out.Grow(len(s))
	var errs []*SyntaxError

	fail := func(start, end int) {
		errs = append(errs, &SyntaxError{
			Span: grammar.Span{Start: base + start, End: base + end},
			Kind: ErrInvalidEscape,
			Item: s[start:end],
		})
		out.WriteString(s[start:end])
	}

	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' {
			_, size := utf8.DecodeRuneInString(s[i:])
			out.WriteString(s[i : i+size])
			i += size
			continue
		}
		if i+1 >= len(s) {
			fail(i, len(s))
			break
		}
		switch s[i+1] {
		case 'n':
			out.WriteByte('\n')
			i += 2
		case 't':
			out.WriteByte('\t')
			i += 2
		case 'r':
			out.WriteByte('\r')
			i += 2
		case '\\':
			out.WriteByte('\\')
			i += 2
		case 'x':
			if i+4 <= len(s) && isHex(s[i+2]) && isHex(s[i+3]) {
				out.WriteRune(rune(hexVal(s[i+2])<<4 | hexVal(s[i+3])))
				i += 4
			} else {
				end := i + 2
				for end < len(s) && end < i+4 && isHex(s[end]) {
					end++
				}
				fail(i, end)
				i = end
			}
		case 'u':
			n, ok := decodeUnicodeEscape(s[i:])
			if ok {
				r := rune(0)
				for j := i + 3; j < i+n-1; j++ {
					r = r<<4 | rune(hexVal(s[j]))
				}
				out.WriteRune(r)
				i += n
			} else {
				fail(i, i+min(n, len(s)-i))
				i += n
			}
		default:
			r, size := utf8.DecodeRuneInString(s[i+1:])
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				fail(i, i+1+size)
			} else {
				out.WriteRune(r)
			}
			i += 1 + size
		}
	}
	return out.String(), errs
}

// decodeUnicodeEscape validates a \u{...} sequence at the start of s.
// It returns the total byte length of the sequence and whether it
// denotes a valid Unicode scalar value.
func decodeUnicodeEscape(s string) (int, bool) {
	if len(s) < 4 || s[2] != '{' {
		return 2, false
	}
	i := 3
	v := 0
	digits := 0
	for i < len(s) && isHex(s[i]) {
		v = v<<4 | hexVal(s[i])
		digits++
		i++
	}
	if i >= len(s) || s[i] != '}' || digits == 0 || digits > 6 {
		return i, false
	}
	i++
	if v > unicode.MaxRune || (v >= 0xD800 && v <= 0xDFFF) {
		return i, false
	}
	return i, true
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}
