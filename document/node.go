// Package document builds and models the MinTyML document tree: the
// structured form between the raw parse tree and serialized HTML. The
// builder validates escapes and selectors and records syntax errors
// without aborting, so downstream stages always receive a structurally
// valid tree.
package document

import "github.com/youngspe/mintyml-go/grammar"

// Document is the root container for one conversion.
type Document struct {
	Nodes []Node
	Span  grammar.Span
}

// NodeKind discriminates the Node union.
type NodeKind uint8

const (
	KindElement NodeKind = iota + 1
	KindText
	KindComment
	KindSpace
)

// SpaceKind classifies whitespace nodes.
type SpaceKind uint8

const (
	// SpaceInline is a space within a line.
	SpaceInline SpaceKind = iota + 1
	// SpaceLineEnd is the break between lines of one paragraph or
	// between adjacent block-level siblings.
	SpaceLineEnd
	// SpaceParagraphEnd is the break between adjacent implicit
	// paragraphs (a blank line in source).
	SpaceParagraphEnd
	// SpaceExact is a literal whitespace run copied from source; the
	// serializer emits Value verbatim instead of collapsing it.
	SpaceExact
)

// Node is one node of the document tree.
type Node struct {
	Kind NodeKind
	Span grammar.Span

	// KindElement
	Element *Element

	// KindText and KindComment. Value is the raw (undecoded) source
	// slice; escape decoding happens once, at serialization time.
	Value string
	// Escape marks text that requires backslash-decoding before
	// emission.
	Escape bool
	// Multiline marks text from a fenced block requiring dedent
	// processing.
	Multiline bool
	// Raw marks text that bypasses output escaping (raw-text element
	// content such as script and style bodies).
	Raw bool
	// CloseIndent is the whitespace prefix of the line holding the
	// closing fence delimiter; the serializer strips it from every
	// line of a multiline value.
	CloseIndent string

	// KindSpace
	Space SpaceKind
}

// ElementKind records the source syntax that introduced an element.
// It drives both inference defaults and serializer line-break behavior.
type ElementKind uint8

const (
	// Line is "selector> content".
	Line ElementKind = iota + 1
	// LineBlock is "selector> { ... }".
	LineBlock
	// Block is "selector { ... }".
	Block
	// Inline is "<( ... )>" or a special inline shorthand.
	Inline
	// Paragraph is an implicit grouping of consecutive text lines.
	Paragraph
)

// Element is a single element of the tree.
type Element struct {
	Selector Selector
	Nodes    []Node
	Kind     ElementKind
	// IsRaw marks raw-text containers (script, style): their content
	// is emitted verbatim and not recursed into by inference.
	IsRaw bool
	Span  grammar.Span
}

// SelectorKind discriminates the element part of a selector.
type SelectorKind uint8

const (
	// Infer is a placeholder resolved by the tag inference engine.
	Infer SelectorKind = iota
	// Name is a concrete tag name.
	Name
	// Special is one of the fixed syntactic shorthands; it maps to a
	// configurable tag name during inference.
	Special
	// None marks a dissolved element: the serializer splices its
	// children into the parent in its place.
	None
)

// Selector is the tag/class/id/attribute descriptor of an element.
type Selector struct {
	Kind    SelectorKind
	Tag     string
	Special grammar.SpecialKind
	Classes []string
	ID      string
	Attrs   []Attr
}

// Attr is one element attribute. Name and Value are raw source slices;
// quotes are already stripped, escapes are not yet decoded.
type Attr struct {
	Name     string
	Value    string
	HasValue bool
	Span     grammar.Span
}

// NewElement returns an element node wrapping el.
func NewElement(el *Element) Node {
	return Node{Kind: KindElement, Span: el.Span, Element: el}
}

// NewSpace returns a whitespace node of the given kind.
func NewSpace(kind SpaceKind, span grammar.Span) Node {
	return Node{Kind: KindSpace, Space: kind, Span: span}
}
