package render

import (
	"fmt"
	"strings"
)

// escapeText rewrites s for use as element content. HTML mode encodes
// tab and newline as their named entities; XML mode keeps them literal.
// Control characters beyond those become numeric references in both
// modes so the output survives strict parsers.
func escapeText(s string, xml bool) string {
	if !needsEscape(s, false, xml) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '\t':
			if xml {
				b.WriteByte('\t')
			} else {
				b.WriteString("&Tab;")
			}
		case '\n':
			if xml {
				b.WriteByte('\n')
			} else {
				b.WriteString("&NewLine;")
			}
		case '\r':
			b.WriteString("&#13;")
		default:
			if isControl(r) {
				fmt.Fprintf(&b, "&#%d;", r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// escapeAttr rewrites s for use inside a double-quoted attribute value.
// It matches escapeText except that double quotes are encoded too.
func escapeAttr(s string, xml bool) string {
	if !needsEscape(s, true, xml) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\t':
			if xml {
				b.WriteByte('\t')
			} else {
				b.WriteString("&Tab;")
			}
		case '\n':
			if xml {
				b.WriteByte('\n')
			} else {
				b.WriteString("&NewLine;")
			}
		case '\r':
			b.WriteString("&#13;")
		default:
			if isControl(r) {
				fmt.Fprintf(&b, "&#%d;", r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// escapeAttrName rewrites a decoded attribute name so it cannot break
// out of the open tag: characters that would terminate the name or the
// tag become numeric references, which a parser reads as literal name
// text.
func escapeAttrName(s string) string {
	plain := true
	for _, r := range s {
		if badNameRune(r) {
			plain = false
			break
		}
	}
	if plain {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		if badNameRune(r) {
			fmt.Fprintf(&b, "&#%d;", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func badNameRune(r rune) bool {
	switch r {
	case '"', '\'', '<', '>', '=', '/', '&', ' ':
		return true
	}
	return isControl(r)
}

func needsEscape(s string, attr, xml bool) bool {
	for _, r := range s {
		switch r {
		case '&', '<', '>', '\r':
			return true
		case '"':
			if attr {
				return true
			}
		case '\t', '\n':
			if !xml {
				return true
			}
		default:
			if isControl(r) {
				return true
			}
		}
	}
	return false
}

// isControl covers C0 and C1 minus the whitespace handled above.
func isControl(r rune) bool {
	return r < 0x20 || (r >= 0x7f && r <= 0x9f)
}
