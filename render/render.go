// Package render serializes a resolved document tree to HTML or XHTML.
// It assumes tag inference has already run: every element either
// carries a concrete tag or is marked dissolved.
package render

import (
	"io"
	"strings"

	"golang.org/x/net/html/atom"

	"github.com/youngspe/mintyml-go/document"
)

// Options controls the output dialect and layout.
type Options struct {
	// Indent > 0 switches to pretty-printed output with that many
	// spaces per nesting level. Zero emits compact output where line
	// and paragraph breaks collapse to a single space.
	Indent int
	// XML emits XHTML: self-closing empty elements, numeric whitespace
	// entities, explicit values for boolean attributes.
	XML bool
	// Doctype prefixes the output with the HTML5 doctype line.
	Doctype bool
}

// Render writes the serialized document to w.
func Render(w io.Writer, doc *document.Document, opts Options) error {
	r := &renderer{w: w, opts: opts}
	if opts.Doctype {
		r.raw("<!DOCTYPE html>")
		if !r.pretty() {
			// pretty layout supplies the break before the root element
			r.raw("\n")
		}
		r.followsSpace = true
	}
	r.nodes(doc.Nodes, modeBlock, 0)
	return r.err
}

type contentMode uint8

const (
	modeBlock contentMode = iota
	modeInline
)

type renderer struct {
	w    io.Writer
	opts Options
	err  error
	// followsSpace suppresses a space node when output already ends
	// with emitted whitespace.
	followsSpace bool
	wroteAny     bool
}

func (r *renderer) raw(s string) {
	if r.err != nil || s == "" {
		return
	}
	_, r.err = io.WriteString(r.w, s)
	r.wroteAny = true
}

func (r *renderer) pretty() bool { return r.opts.Indent > 0 }

// breakLine starts a fresh output line at the given depth. Nothing is
// emitted before the first write, so the document does not open with a
// blank line.
func (r *renderer) breakLine(depth int) {
	if !r.wroteAny {
		return
	}
	r.raw("\n")
	r.raw(strings.Repeat(" ", r.opts.Indent*depth))
	r.followsSpace = true
}

func (r *renderer) nodes(nodes []document.Node, mode contentMode, depth int) {
	for i := range nodes {
		r.node(&nodes[i], mode, depth)
	}
}

func (r *renderer) node(n *document.Node, mode contentMode, depth int) {
	switch n.Kind {
	case document.KindSpace:
		if n.Space == document.SpaceExact {
			r.raw(n.Value)
			r.followsSpace = true
			return
		}
		if mode == modeBlock && r.pretty() {
			// block layout supplies its own line breaks
			return
		}
		if !r.followsSpace {
			r.raw(" ")
			r.followsSpace = true
		}
	case document.KindText:
		r.text(n, mode, depth)
	case document.KindComment:
		if mode == modeBlock && r.pretty() {
			r.breakLine(depth)
		}
		r.raw("<!--")
		r.raw(n.Value)
		r.raw("-->")
		r.followsSpace = false
	case document.KindElement:
		el := n.Element
		if el.Selector.Kind == document.None {
			// dissolved: children splice into this position
			r.nodes(el.Nodes, mode, depth)
			return
		}
		if mode == modeBlock && r.pretty() {
			r.breakLine(depth)
		}
		r.element(el, depth)
	}
}

func (r *renderer) text(n *document.Node, mode contentMode, depth int) {
	s := n.Value
	if n.Escape {
		s, _ = document.Unescape(s, n.Span.Start)
	}
	if n.Multiline {
		s = dedent(s, n.CloseIndent)
	}
	if !n.Raw {
		s = escapeText(s, r.opts.XML)
	}
	if s == "" {
		return
	}
	if mode == modeBlock && r.pretty() {
		r.breakLine(depth)
	}
	r.raw(s)
	r.followsSpace = false
}

func (r *renderer) element(el *document.Element, depth int) {
	tag := el.Selector.Tag
	empty := !hasRenderable(el.Nodes)

	if isVoid(tag) && !r.opts.XML {
		r.openTag(el, false)
		r.followsSpace = false
		return
	}
	if empty && r.opts.XML {
		r.openTag(el, true)
		r.followsSpace = false
		return
	}

	r.openTag(el, false)
	r.followsSpace = true

	childMode := modeInline
	switch el.Kind {
	case document.Block, document.LineBlock:
		childMode = modeBlock
	}
	if el.IsRaw {
		childMode = modeInline
	}

	if childMode == modeBlock && r.pretty() && !empty {
		r.nodes(el.Nodes, childMode, depth+1)
		r.breakLine(depth)
	} else {
		r.nodes(el.Nodes, childMode, depth)
	}

	r.raw("</")
	r.raw(tag)
	r.raw(">")
	r.followsSpace = false
}

func (r *renderer) openTag(el *document.Element, selfClose bool) {
	r.raw("<")
	r.raw(el.Selector.Tag)
	r.attrs(&el.Selector)
	if selfClose {
		r.raw("/>")
		return
	}
	r.raw(">")
}

// attrs writes id first, then the merged class list, then the source
// attributes in order of appearance.
func (r *renderer) attrs(sel *document.Selector) {
	if sel.ID != "" {
		r.raw(` id="`)
		r.raw(escapeAttr(r.decode(sel.ID), r.opts.XML))
		r.raw(`"`)
	}
	if len(sel.Classes) > 0 {
		decoded := make([]string, len(sel.Classes))
		for i, c := range sel.Classes {
			decoded[i] = r.decode(c)
		}
		r.raw(` class="`)
		r.raw(escapeAttr(strings.Join(decoded, " "), r.opts.XML))
		r.raw(`"`)
	}
	for _, a := range sel.Attrs {
		r.raw(" ")
		name := r.decode(a.Name)
		r.raw(escapeAttrName(name))
		switch {
		case a.HasValue:
			r.raw(`="`)
			r.raw(escapeAttr(r.decode(a.Value), r.opts.XML))
			r.raw(`"`)
		case r.opts.XML:
			// XML has no bare boolean attributes
			r.raw(`="`)
			r.raw(escapeAttr(name, true))
			r.raw(`"`)
		}
	}
}

func (r *renderer) decode(s string) string {
	if !document.HasEscapes(s) {
		return s
	}
	out, _ := document.Unescape(s, 0)
	return out
}

// hasRenderable reports whether any child produces output, so that
// space-only content still serializes as an empty element.
func hasRenderable(nodes []document.Node) bool {
	for i := range nodes {
		switch nodes[i].Kind {
		case document.KindText, document.KindComment:
			return true
		case document.KindElement:
			el := nodes[i].Element
			if el.Selector.Kind != document.None {
				return true
			}
			if hasRenderable(el.Nodes) {
				return true
			}
		}
	}
	return false
}

// dedent strips the closing delimiter's indentation from every line of
// a fenced block and normalizes CRLF line ends.
func dedent(s, indent string) string {
	if indent == "" && !strings.Contains(s, "\r") {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		ln = strings.TrimSuffix(ln, "\r")
		lines[i] = strings.TrimPrefix(ln, indent)
	}
	return strings.Join(lines, "\n")
}

// voidAtoms are the HTML void elements; they take no closing tag and
// may not hold content.
var voidAtoms = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Param: true, atom.Source: true,
	atom.Track: true, atom.Wbr: true,
}

func isVoid(tag string) bool {
	return voidAtoms[atom.Lookup([]byte(strings.ToLower(tag)))]
}
