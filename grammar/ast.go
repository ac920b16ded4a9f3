// Package grammar turns raw MinTyML source into a position-annotated
// parse tree. The parser recovers from every structural problem it can:
// unclosed delimiters are closed at the best recovery point and flagged
// on the node, so the document builder can report them without losing
// the content read so far.
package grammar

// NodeKind discriminates the variants of a parse tree Node.
type NodeKind uint8

const (
	// KindText is a run of non-whitespace inline text. The run may
	// contain backslash escape sequences; they are not decoded here.
	KindText NodeKind = iota + 1
	// KindSpace is a run of horizontal whitespace inside a line.
	KindSpace
	// KindBreak is a single line break between block-level items.
	KindBreak
	// KindElement is an element introduced by any of the element forms.
	KindElement
	// KindComment is a <! ... !> comment.
	KindComment
	// KindFence is a triple-delimited multiline text block.
	KindFence
	// KindInvalid is a stray token kept verbatim, e.g. an unmatched
	// closing brace at the top level.
	KindInvalid
)

// ElemForm records the source syntax that introduced an element.
type ElemForm uint8

const (
	// FormLine is "selector> content" on a single line.
	FormLine ElemForm = iota + 1
	// FormLineBlock is "selector> { ... }".
	FormLineBlock
	// FormBlock is "selector { ... }" or a bare "{ ... }".
	FormBlock
	// FormInline is "<( ... )>".
	FormInline
	// FormSpecial is one of the special inline shorthands.
	FormSpecial
)

// SpecialKind names the special inline shorthands and the container
// generated around fenced code blocks.
type SpecialKind uint8

const (
	SpecialNone SpecialKind = iota
	Emphasis                // </ ... />
	Strong                  // <# ... #>
	Underline               // <_ ... _>
	Strike                  // <~ ... ~>
	Quote                   // <" ... ">
	Code                    // <` ... `>
	CodeBlockContainer      // wraps a ``` fenced block
)

func (k SpecialKind) String() string {
	switch k {
	case Emphasis:
		return "emphasis"
	case Strong:
		return "strong"
	case Underline:
		return "underline"
	case Strike:
		return "strike"
	case Quote:
		return "quote"
	case Code:
		return "code"
	case CodeBlockContainer:
		return "code block"
	}
	return "none"
}

// Node is a single parse tree node. Exactly the fields relevant to
// Kind are populated; everything is addressed by byte spans into the
// original source.
type Node struct {
	Kind NodeKind
	Span Span

	// Items holds the children of an element (inline content for
	// FormLine/FormInline/FormSpecial, block items for the others).
	Items []Node

	// Element fields.
	Form     ElemForm
	Selector *Selector
	Special  SpecialKind
	Unclosed bool
	// Open is the span of the opening delimiter ('{', '<(', '<#', ...)
	// for forms that have one; unclosed-delimiter errors point here.
	Open Span

	// Text holds the content span for KindText, KindComment, KindFence
	// and KindInvalid nodes.
	Text Span

	// Verbatim marks fences whose content must not be escape-decoded
	// (''' and ``` fences).
	Verbatim bool
	// CodeFence marks a ``` fence, which builds a pre/code pair.
	CodeFence bool
	// CloseIndent is the leading whitespace of the closing fence line,
	// used by the serializer to dedent the block.
	CloseIndent Span
}

// Selector is the tag/class/id/attribute descriptor in front of an
// element. Segments chained with '>' each own one inference slot.
type Selector struct {
	Span     Span
	Segments []Segment
}

// Segment is one path step of a selector.
type Segment struct {
	Span     Span
	Tag      Span
	HasTag   bool
	Classes  []Span
	ID       Span
	HasID    bool
	Attrs    []Attr
	Unclosed bool // attribute list missing its closing bracket
}

// Attr is a single [name=value] attribute. Value spans exclude the
// surrounding quotes but are otherwise raw source: escape decoding
// happens at serialization time.
type Attr struct {
	Span     Span
	Name     Span
	Value    Span
	HasValue bool
}

// AST is the root of the parse tree for one source text.
type AST struct {
	Nodes []Node
	Span  Span
}
