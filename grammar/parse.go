package grammar

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ParseError is the only fatal outcome of parsing: the source could not
// be tokenized at all. Every structural problem short of that is
// recovered from and flagged on the parse tree instead.
type ParseError struct {
	Span     Span
	Expected string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failed at %s: expected %s", e.Span, e.Expected)
}

// Parse builds the parse tree for the given source text.
func Parse(source string) (*AST, error) {
	if !utf8.ValidString(source) {
		off := 0
		for i := 0; i < len(source); {
			r, size := utf8.DecodeRuneInString(source[i:])
			if r == utf8.RuneError && size == 1 {
				off = i
				break
			}
			i += size
		}
		return nil, &ParseError{Span: Span{off, off + 1}, Expected: "valid UTF-8 text"}
	}
	p := &parser{src: source}
	items, _ := p.blockItems(false)
	return &AST{Nodes: items, Span: Span{0, len(source)}}, nil
}

type parser struct {
	src string
	pos int
}

// stops describes where an inline content run must end. The terminator
// is never consumed here; the caller that opened the construct decides
// whether finding it means "closed" or "unclosed".
type stops struct {
	closer string // e.g. ")>", "#>"; empty at block level
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) ch() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) byteAt(i int) byte {
	if i < 0 || i >= len(p.src) {
		return 0
	}
	return p.src[i]
}

func (p *parser) at(s string) bool {
	return strings.HasPrefix(p.src[p.pos:], s)
}

func isHSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' }

func isNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_'
}

func isNameStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// lineStart reports whether only horizontal whitespace precedes the
// given offset on its line.
func (p *parser) lineStart(at int) bool {
	for i := at - 1; i >= 0; i-- {
		c := p.src[i]
		if c == '\n' {
			return true
		}
		if !isHSpace(c) {
			return false
		}
	}
	return true
}

func (p *parser) skipHSpace() {
	for !p.eof() && isHSpace(p.ch()) {
		p.pos++
	}
}

// blockItems parses the content of a block (or of the whole document
// when inBlock is false) until the closing brace, which is consumed.
func (p *parser) blockItems(inBlock bool) (items []Node, closed bool) {
	for {
		switch c := p.ch(); {
		case p.eof():
			return items, false
		case c == '\n':
			start := p.pos
			p.pos++
			items = append(items, Node{Kind: KindBreak, Span: Span{start, p.pos}})
		case isHSpace(c):
			start := p.pos
			p.skipHSpace()
			if !p.lineStart(start) {
				items = append(items, Node{Kind: KindSpace, Span: Span{start, p.pos}})
			}
		case c == '}':
			if inBlock {
				p.pos++
				return items, true
			}
			items = append(items, Node{Kind: KindInvalid, Span: Span{p.pos, p.pos + 1}, Text: Span{p.pos, p.pos + 1}})
			p.pos++
		case p.fenceAhead():
			items = append(items, p.fence())
		default:
			if n, ok := p.tryElement(stops{}); ok {
				items = append(items, n)
				continue
			}
			items = append(items, p.inlineItem(stops{}))
		}
	}
}

// contentItems parses inline content until end of line, a closing
// brace, or the active closer. None of those are consumed.
func (p *parser) contentItems(st stops) (items []Node) {
	for {
		c := p.ch()
		switch {
		case p.eof() || c == '\n' || c == '}':
			return items
		case st.closer != "" && p.at(st.closer):
			return items
		case isHSpace(c):
			start := p.pos
			p.skipHSpace()
			items = append(items, Node{Kind: KindSpace, Span: Span{start, p.pos}})
		default:
			if n, ok := p.tryElement(st); ok {
				items = append(items, n)
				continue
			}
			items = append(items, p.inlineItem(st))
		}
	}
}

var specialDelims = []struct {
	open, close string
	kind        SpecialKind
}{
	{"<#", "#>", Strong},
	{"</", "/>", Emphasis},
	{"<_", "_>", Underline},
	{"<~", "~>", Strike},
	{`<"`, `">`, Quote},
	{"<`", "`>", Code},
}

// inlineItem parses one inline item: an inline element, a special
// shorthand, a comment, or a text run.
func (p *parser) inlineItem(st stops) Node {
	if p.at("<!") {
		return p.comment()
	}
	if p.at("<(") {
		return p.inlineElement(st)
	}
	for _, d := range specialDelims {
		if p.at(d.open) {
			return p.specialElement(d.open, d.close, d.kind)
		}
	}
	return p.textRun(st)
}

func (p *parser) comment() Node {
	start := p.pos
	open := Span{start, start + 2}
	p.pos += 2
	textStart := p.pos
	if i := strings.Index(p.src[p.pos:], "!>"); i >= 0 {
		p.pos += i + 2
		return Node{
			Kind: KindComment,
			Span: Span{start, p.pos},
			Open: open,
			Text: Span{textStart, p.pos - 2},
		}
	}
	p.pos = len(p.src)
	return Node{
		Kind:     KindComment,
		Span:     Span{start, p.pos},
		Open:     open,
		Text:     Span{textStart, p.pos},
		Unclosed: true,
	}
}

func (p *parser) inlineElement(st stops) Node {
	start := p.pos
	p.pos += 2
	p.skipHSpace()

	n := Node{Kind: KindElement, Form: FormInline, Open: Span{start, start + 2}}
	if el, ok := p.tryElement(stops{closer: ")>"}); ok && el.Form == FormLine {
		// <(selector> content)> puts the selector on the inline element
		// itself rather than nesting a line element.
		n.Selector = el.Selector
		n.Items = el.Items
	} else if ok {
		n.Items = append(n.Items, el)
		n.Items = append(n.Items, p.contentItems(stops{closer: ")>"})...)
	} else {
		n.Items = p.contentItems(stops{closer: ")>"})
	}
	if p.at(")>") {
		p.pos += 2
	} else {
		n.Unclosed = true
	}
	n.Span = Span{start, p.pos}
	return n
}

func (p *parser) specialElement(open, close string, kind SpecialKind) Node {
	start := p.pos
	p.pos += len(open)

	n := Node{Kind: KindElement, Form: FormSpecial, Special: kind, Open: Span{start, start + len(open)}}
	if kind == Code {
		// Code content is verbatim: no nested markup, only the closing
		// delimiter ends it.
		textStart := p.pos
		for !p.eof() && p.ch() != '\n' && !p.at(close) {
			p.pos++
		}
		if text := (Span{textStart, p.pos}); text.Len() > 0 {
			n.Items = append(n.Items, Node{Kind: KindText, Span: text, Text: text, Verbatim: true})
		}
	} else {
		n.Items = p.contentItems(stops{closer: close})
	}
	if p.at(close) {
		p.pos += len(close)
	} else {
		n.Unclosed = true
	}
	n.Span = Span{start, p.pos}
	trimSpaceItems(&n.Items)
	return n
}

// trimSpaceItems drops leading and trailing whitespace items so that
// "<# Hello #>" and "<#Hello#>" build the same element.
func trimSpaceItems(items *[]Node) {
	s := *items
	for len(s) > 0 && s[0].Kind == KindSpace {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1].Kind == KindSpace {
		s = s[:len(s)-1]
	}
	*items = s
}

func (p *parser) textRun(st stops) Node {
	start := p.pos
loop:
	for !p.eof() {
		c := p.ch()
		switch {
		case c == '\n' || isHSpace(c) || c == '{' || c == '}' || c == '>':
			break loop
		case st.closer != "" && p.at(st.closer):
			break loop
		case c == '\\':
			p.pos++
			if !p.eof() && p.ch() != '\n' {
				_, size := utf8.DecodeRuneInString(p.src[p.pos:])
				p.pos += size
			}
		case c == '<':
			if p.at("<!") || p.at("<(") {
				break loop
			}
			for _, d := range specialDelims {
				if p.at(d.open) {
					break loop
				}
			}
			p.pos++
		default:
			p.pos++
		}
	}
	if p.pos == start {
		// Lone '<' or similar; consume it so the caller makes progress.
		p.pos++
	}
	s := Span{start, p.pos}
	return Node{Kind: KindText, Span: s, Text: s}
}

// tryElement attempts to parse an element introduced by a selector, a
// bare combinator '>', or a bare block '{'. On failure the position is
// left untouched.
func (p *parser) tryElement(st stops) (Node, bool) {
	start := p.pos

	if p.ch() == '{' {
		return p.blockElement(nil, start, FormBlock), true
	}

	sel, form, ok := p.trySelector()
	if !ok {
		return Node{}, false
	}
	if form == '{' {
		return p.blockElement(sel, start, FormBlock), true
	}

	// Line form: "selector>" was consumed; a block right after the
	// arrow makes this a line-block.
	p.skipHSpace()
	if p.ch() == '{' {
		return p.blockElement(sel, start, FormLineBlock), true
	}
	n := Node{Kind: KindElement, Form: FormLine, Selector: sel}
	n.Items = p.contentItems(st)
	trimSpaceItems(&n.Items)
	n.Span = Span{start, p.pos}
	return n, true
}

// blockElement parses "{ ... }" with the opening brace at the current
// position.
func (p *parser) blockElement(sel *Selector, start int, form ElemForm) Node {
	open := Span{p.pos, p.pos + 1}
	p.pos++ // consume '{'
	items, closed := p.blockItems(true)
	return Node{
		Kind:     KindElement,
		Form:     form,
		Selector: sel,
		Items:    items,
		Unclosed: !closed,
		Open:     open,
		Span:     Span{start, p.pos},
	}
}

// trySelector parses "segment(>segment)*" followed by '>' (line form)
// or '{' (block form, whitespace allowed before the brace). It returns
// the form byte; on failure the position is restored.
func (p *parser) trySelector() (*Selector, byte, bool) {
	save := p.pos
	var segs []Segment
	for {
		seg, ok := p.segment()
		if !ok {
			break
		}
		segs = append(segs, seg)
		// A chained segment follows the '>' with no whitespace.
		if p.ch() == '>' && isSegmentStart(p.byteAt(p.pos+1)) {
			p.pos++
			continue
		}
		break
	}

	if len(segs) > 0 {
		r := p.pos
		for isHSpace(p.byteAt(r)) {
			r++
		}
		if p.byteAt(r) == '{' {
			p.pos = r
			return p.selector(segs, save), '{', true
		}
		// An attribute list cut off by the end of the line still forms
		// a line element, so the unclosed flag reaches the builder.
		if segs[len(segs)-1].Unclosed {
			return p.selector(segs, save), '>', true
		}
	}
	if p.ch() == '>' {
		p.pos++
		return p.selector(segs, save), '>', true
	}
	p.pos = save
	return nil, 0, false
}

func (p *parser) selector(segs []Segment, start int) *Selector {
	if len(segs) == 0 {
		return nil
	}
	return &Selector{Span: Span{start, segs[len(segs)-1].Span.End}, Segments: segs}
}

func isSegmentStart(c byte) bool {
	return isNameStart(c) || c == '.' || c == '#' || c == '[' || c == '*'
}

// segment parses one selector path step: optional tag name (or '*' for
// an explicit inference slot) and any number of class, id, and
// attribute-list fragments.
func (p *parser) segment() (Segment, bool) {
	start := p.pos
	var seg Segment
	switch {
	case isNameStart(p.ch()):
		ts := p.pos
		for isNameByte(p.ch()) {
			p.pos++
		}
		seg.Tag = Span{ts, p.pos}
		seg.HasTag = true
	case p.ch() == '*':
		p.pos++
	}
	for {
		switch {
		case p.ch() == '.' && isNameByte(p.byteAt(p.pos+1)):
			p.pos++
			ns := p.pos
			for isNameByte(p.ch()) {
				p.pos++
			}
			seg.Classes = append(seg.Classes, Span{ns, p.pos})
		case p.ch() == '#' && isNameByte(p.byteAt(p.pos+1)):
			p.pos++
			ns := p.pos
			for isNameByte(p.ch()) {
				p.pos++
			}
			seg.ID = Span{ns, p.pos}
			seg.HasID = true
		case p.ch() == '[':
			p.attrList(&seg)
		default:
			if p.pos == start {
				return Segment{}, false
			}
			seg.Span = Span{start, p.pos}
			return seg, true
		}
	}
}

// attrList parses "[name name=value name="value"]" with the opening
// bracket at the current position. A list cut off by end of line keeps
// the attributes read so far and is flagged unclosed.
func (p *parser) attrList(seg *Segment) {
	p.pos++ // consume '['
	for {
		p.skipHSpace()
		c := p.ch()
		switch {
		case p.eof() || c == '\n':
			seg.Unclosed = true
			return
		case c == ']':
			p.pos++
			return
		default:
			seg.Attrs = append(seg.Attrs, p.attr())
		}
	}
}

func (p *parser) attr() Attr {
	start := p.pos
	ns := p.pos
	for !p.eof() {
		c := p.ch()
		if isHSpace(c) || c == '\n' || c == '=' || c == ']' {
			break
		}
		if c == '\\' {
			p.pos++
			if !p.eof() && p.ch() != '\n' {
				p.pos++
			}
			continue
		}
		p.pos++
	}
	a := Attr{Name: Span{ns, p.pos}}
	if p.ch() == '=' {
		p.pos++
		a.HasValue = true
		if q := p.ch(); q == '"' || q == '\'' {
			p.pos++
			vs := p.pos
			for !p.eof() && p.ch() != '\n' && p.ch() != q {
				if p.ch() == '\\' {
					p.pos++
					if !p.eof() && p.ch() != '\n' {
						p.pos++
					}
					continue
				}
				p.pos++
			}
			a.Value = Span{vs, p.pos}
			if p.ch() == q {
				p.pos++
			}
		} else {
			vs := p.pos
			for !p.eof() {
				c := p.ch()
				if isHSpace(c) || c == '\n' || c == ']' {
					break
				}
				p.pos++
			}
			a.Value = Span{vs, p.pos}
		}
	}
	a.Span = Span{start, p.pos}
	return a
}

// fenceAhead reports whether a multiline fence opens at the current
// position, which must be the first non-blank content of its line.
func (p *parser) fenceAhead() bool {
	if !p.lineStart(p.pos) {
		return false
	}
	return p.at(`"""`) || p.at("'''") || p.at("```")
}

// fence parses a triple-delimited multiline block. Content runs until
// a line holding only the matching delimiter; the indentation of that
// line is recorded for dedenting at serialization time.
func (p *parser) fence() Node {
	start := p.pos
	delim := p.src[p.pos : p.pos+3]
	p.pos += 3
	// The rest of the opener line is ignored (a ``` info string).
	for !p.eof() && p.ch() != '\n' {
		p.pos++
	}
	if !p.eof() {
		p.pos++ // newline after the opener
	}
	textStart := p.pos

	n := Node{
		Kind:      KindFence,
		Verbatim:  delim[0] != '"',
		CodeFence: delim[0] == '`',
		Open:      Span{start, start + 3},
	}

	for {
		if p.eof() {
			n.Unclosed = true
			n.Text = Span{textStart, p.pos}
			break
		}
		lineStart := p.pos
		ws := p.pos
		for isHSpace(p.byteAt(ws)) {
			ws++
		}
		if strings.HasPrefix(p.src[ws:], delim) {
			rest := ws + 3
			for isHSpace(p.byteAt(rest)) {
				rest++
			}
			if rest >= len(p.src) || p.src[rest] == '\n' {
				textEnd := lineStart
				if textEnd > textStart {
					textEnd-- // exclude the newline before the closing line
				}
				n.Text = Span{textStart, textEnd}
				n.CloseIndent = Span{lineStart, ws}
				p.pos = rest
				break
			}
		}
		// advance to the next line
		for !p.eof() && p.ch() != '\n' {
			p.pos++
		}
		if !p.eof() {
			p.pos++
		}
	}
	n.Span = Span{start, p.pos}
	return n
}
