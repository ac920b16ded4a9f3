package document

import (
	"github.com/youngspe/mintyml-go/grammar"
)

// Build walks the parse tree and produces the document tree, recording
// syntax errors on the way. It never fails: every recoverable problem
// yields an error plus a best-effort substitute, so the returned
// document is always structurally valid.
func Build(source string, tree *grammar.AST) (*Document, []*SyntaxError) {
	b := &builder{src: source}
	doc := &Document{
		Nodes: b.blockLevel(tree.Nodes),
		Span:  tree.Span,
	}
	return doc, b.errs
}

type builder struct {
	src  string
	errs []*SyntaxError
}

func (b *builder) errorf(e *SyntaxError) {
	b.errs = append(b.errs, e)
}

// blockLevel converts a block-item list: line breaks collapse into
// space nodes, adjacency rules are enforced, and consecutive text
// lines merge into implicit paragraphs.
func (b *builder) blockLevel(items []grammar.Node) []Node {
	flat := b.flatten(items)
	out := b.group(flat)
	trimSpaces(&out)
	return out
}

// flatten converts grammar items to document nodes, collapsing runs of
// line breaks into a single LineEnd (one break) or ParagraphEnd (blank
// line) space node and dropping trailing whitespace before a break.
func (b *builder) flatten(items []grammar.Node) []Node {
	var out []Node
	lastBlockOnLine := false // a block element ended and no break was seen since
	for i := 0; i < len(items); i++ {
		it := items[i]
		if it.Kind == grammar.KindBreak {
			span := it.Span
			breaks := 1
			for i+1 < len(items) && items[i+1].Kind == grammar.KindBreak {
				i++
				breaks++
				span = span.Join(items[i].Span)
			}
			// trailing whitespace on the line adds nothing
			for len(out) > 0 && out[len(out)-1].Kind == KindSpace && out[len(out)-1].Space == SpaceInline {
				out = out[:len(out)-1]
			}
			kind := SpaceLineEnd
			if breaks > 1 {
				kind = SpaceParagraphEnd
			}
			out = append(out, NewSpace(kind, span))
			lastBlockOnLine = false
			continue
		}

		n, isBlock := b.item(it)
		if isBlock {
			if lastBlockOnLine {
				// two blocks on one line need a combinator between them
				b.errorf(&SyntaxError{
					Span:      it.Span,
					Kind:      ErrMisplacedItem,
					Placement: MustNotFollow,
					Item:      "block",
				})
			}
			lastBlockOnLine = true
		} else if it.Kind != grammar.KindSpace {
			lastBlockOnLine = false
		}
		out = append(out, n)
	}
	return out
}

// item converts one grammar node. The second result reports whether it
// was a block-form element, for the adjacency check.
func (b *builder) item(it grammar.Node) (Node, bool) {
	switch it.Kind {
	case grammar.KindText:
		return b.text(it), false
	case grammar.KindSpace:
		return NewSpace(SpaceInline, it.Span), false
	case grammar.KindComment:
		if it.Unclosed {
			b.errorf(&SyntaxError{Span: it.Open, Kind: ErrUnclosed, Delim: DelimComment})
		}
		return Node{Kind: KindComment, Span: it.Span, Value: it.Text.Of(b.src)}, false
	case grammar.KindFence:
		return b.fence(it), it.CodeFence
	case grammar.KindElement:
		n := b.element(it)
		return n, it.Form == grammar.FormBlock
	case grammar.KindInvalid:
		item := it.Text.Of(b.src)
		b.errorf(&SyntaxError{Span: it.Span, Kind: ErrInvalidItem, Item: item})
		// keep the offending token as plain text
		return Node{Kind: KindText, Span: it.Span, Value: item}, false
	}
	return Node{Kind: KindText, Span: it.Span}, false
}

func (b *builder) text(it grammar.Node) Node {
	value := it.Text.Of(b.src)
	n := Node{Kind: KindText, Span: it.Span, Value: value}
	if !it.Verbatim && HasEscapes(value) {
		n.Escape = true
		b.validateEscapes(value, it.Text.Start)
	}
	return n
}

func (b *builder) validateEscapes(s string, base int) {
	_, errs := Unescape(s, base)
	b.errs = append(b.errs, errs...)
}

// fence converts a multiline block. A ``` fence builds the
// CodeBlockContainer/Code special pair; the other fences yield a bare
// multiline text node.
func (b *builder) fence(it grammar.Node) Node {
	if it.Unclosed {
		b.errorf(&SyntaxError{Span: it.Open, Kind: ErrUnclosed, Delim: DelimBlock})
	}
	value := it.Text.Of(b.src)
	text := Node{
		Kind:        KindText,
		Span:        it.Span,
		Value:       value,
		Multiline:   true,
		CloseIndent: it.CloseIndent.Of(b.src),
	}
	if !it.Verbatim && HasEscapes(value) {
		text.Escape = true
		b.validateEscapes(value, it.Text.Start)
	}
	if !it.CodeFence {
		return text
	}
	code := &Element{
		Selector: Selector{Kind: Special, Special: grammar.Code},
		Nodes:    []Node{text},
		Kind:     Line,
		Span:     it.Span,
	}
	container := &Element{
		Selector: Selector{Kind: Special, Special: grammar.CodeBlockContainer},
		Nodes:    []Node{NewElement(code)},
		Kind:     Line,
		Span:     it.Span,
	}
	return NewElement(container)
}

// element converts an element node, emitting one nested Element per
// selector segment so that every nesting level owns exactly one
// pending inference slot.
func (b *builder) element(it grammar.Node) Node {
	if it.Form == grammar.FormSpecial {
		if it.Unclosed {
			b.errorf(&SyntaxError{
				Span:    it.Open,
				Kind:    ErrUnclosed,
				Delim:   DelimSpecialInline,
				Special: it.Special,
			})
		}
		el := &Element{
			Selector: Selector{Kind: Special, Special: it.Special},
			Nodes:    b.inlineLevel(it.Items),
			Kind:     Inline,
			Span:     it.Span,
		}
		return NewElement(el)
	}

	var kind ElementKind
	var nodes []Node
	switch it.Form {
	case grammar.FormLine:
		kind = Line
		nodes = b.inlineLevel(it.Items)
	case grammar.FormLineBlock:
		kind = LineBlock
		nodes = b.blockLevel(it.Items)
	case grammar.FormBlock:
		kind = Block
		nodes = b.blockLevel(it.Items)
	case grammar.FormInline:
		kind = Inline
		nodes = b.inlineLevel(it.Items)
	}

	if it.Unclosed {
		switch it.Form {
		case grammar.FormInline:
			b.errorf(&SyntaxError{Span: it.Open, Kind: ErrUnclosed, Delim: DelimInline})
		default:
			b.errorf(&SyntaxError{Span: it.Open, Kind: ErrUnclosed, Delim: DelimBlock})
		}
	}

	segs := b.segments(it.Selector)
	// innermost segment owns the content; outer segments wrap it
	el := &Element{Selector: segs[len(segs)-1], Nodes: nodes, Kind: kind, Span: it.Span}
	for i := len(segs) - 2; i >= 0; i-- {
		el = &Element{Selector: segs[i], Nodes: []Node{NewElement(el)}, Kind: kind, Span: it.Span}
	}
	return NewElement(el)
}

// segments folds a selector's path segments into document selectors,
// validating attribute escapes and reporting unclosed attribute lists.
// A nil selector yields a single inference slot.
func (b *builder) segments(sel *grammar.Selector) []Selector {
	if sel == nil || len(sel.Segments) == 0 {
		return []Selector{{Kind: Infer}}
	}
	out := make([]Selector, 0, len(sel.Segments))
	for _, seg := range sel.Segments {
		s := Selector{Kind: Infer}
		if seg.HasTag {
			s.Kind = Name
			s.Tag = seg.Tag.Of(b.src)
		}
		for _, c := range seg.Classes {
			s.Classes = append(s.Classes, c.Of(b.src))
		}
		if seg.HasID {
			s.ID = seg.ID.Of(b.src)
		}
		for _, a := range seg.Attrs {
			name := a.Name.Of(b.src)
			if HasEscapes(name) {
				b.validateEscapes(name, a.Name.Start)
			}
			attr := Attr{Name: name, Span: a.Span}
			if a.HasValue {
				attr.HasValue = true
				attr.Value = a.Value.Of(b.src)
				if HasEscapes(attr.Value) {
					b.validateEscapes(attr.Value, a.Value.Start)
				}
			}
			s.Attrs = append(s.Attrs, attr)
		}
		if seg.Unclosed {
			b.errorf(&SyntaxError{Span: seg.Span, Kind: ErrUnclosed, Delim: DelimAttributeList})
		}
		out = append(out, s)
	}
	return out
}

// inlineLevel converts single-line content: no paragraph grouping, no
// break markers, just the items with edge whitespace dropped.
func (b *builder) inlineLevel(items []grammar.Node) []Node {
	out := make([]Node, 0, len(items))
	for _, it := range items {
		n, _ := b.item(it)
		out = append(out, n)
	}
	trimSpaces(&out)
	return out
}

// group merges runs of inline material separated by line ends into
// implicit paragraph elements. Material carried past the paragraph
// (trailing line ends) stays between siblings.
func (b *builder) group(flat []Node) []Node {
	var out []Node
	var para []Node

	flush := func() {
		if para == nil {
			return
		}
		// move trailing whitespace out of the paragraph
		var tail []Node
		for len(para) > 0 && para[len(para)-1].Kind == KindSpace {
			tail = append([]Node{para[len(para)-1]}, tail...)
			para = para[:len(para)-1]
		}
		if hasContent(para) {
			span := para[0].Span
			for _, n := range para[1:] {
				span = span.Join(n.Span)
			}
			el := &Element{
				Selector: Selector{Kind: Infer},
				Nodes:    para,
				Kind:     Paragraph,
				Span:     span,
			}
			out = append(out, NewElement(el))
		} else {
			out = append(out, para...)
		}
		out = append(out, tail...)
		para = nil
	}

	for _, n := range flat {
		switch {
		case isParagraphMaterial(n):
			para = append(para, n)
		case n.Kind == KindSpace && n.Space == SpaceLineEnd && para != nil:
			para = append(para, n)
		default:
			flush()
			out = append(out, n)
		}
	}
	flush()
	return out
}

// isParagraphMaterial reports whether a node belongs inside an
// implicit paragraph: inline text, inline whitespace, comments, and
// inline elements. Multiline text stands alone.
func isParagraphMaterial(n Node) bool {
	switch n.Kind {
	case KindText:
		return !n.Multiline
	case KindComment:
		return true
	case KindSpace:
		return n.Space == SpaceInline
	case KindElement:
		return n.Element.Kind == Inline
	}
	return false
}

// hasContent reports whether the run holds anything besides comments
// and whitespace; comment-only runs are not wrapped in a paragraph.
func hasContent(run []Node) bool {
	for _, n := range run {
		if n.Kind == KindText || n.Kind == KindElement {
			return true
		}
	}
	return false
}

// trimSpaces drops whitespace nodes at both edges of a sibling list.
func trimSpaces(nodes *[]Node) {
	s := *nodes
	for len(s) > 0 && s[0].Kind == KindSpace {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1].Kind == KindSpace {
		s = s[:len(s)-1]
	}
	*nodes = s
}
