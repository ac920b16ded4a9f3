package document

import (
	"fmt"

	"github.com/youngspe/mintyml-go/grammar"
)

// ErrorKind is the taxonomy of syntax errors. Every kind except
// ErrParseFailed is recoverable: the builder records the error,
// substitutes the best local recovery, and keeps going.
type ErrorKind uint8

const (
	// ErrParseFailed means the source could not be tokenized at all.
	// It is the only fatal kind; no partial document exists.
	ErrParseFailed ErrorKind = iota + 1
	// ErrInvalidEscape is a malformed backslash sequence. The slice is
	// kept undecoded.
	ErrInvalidEscape
	// ErrUnclosed is a delimiter without its matching close. The
	// content consumed up to the recovery point is kept.
	ErrUnclosed
	// ErrInvalidItem is a stray token that fits nowhere, kept as-is.
	ErrInvalidItem
	// ErrMisplacedItem is a structural adjacency violation.
	ErrMisplacedItem
)

// Delimiter identifies the construct an ErrUnclosed is about.
type Delimiter uint8

const (
	DelimBlock Delimiter = iota + 1
	DelimInline
	DelimSpecialInline
	DelimComment
	DelimAttributeList
)

func (d Delimiter) String() string {
	switch d {
	case DelimBlock:
		return "block"
	case DelimInline:
		return "inline element"
	case DelimSpecialInline:
		return "special inline"
	case DelimComment:
		return "comment"
	case DelimAttributeList:
		return "attribute list"
	}
	return "delimiter"
}

// Placement names the adjacency rule an ErrMisplacedItem violated.
type Placement uint8

const (
	MustPrecede Placement = iota + 1
	MustNotPrecede
	MustFollow
	MustNotFollow
)

func (p Placement) String() string {
	switch p {
	case MustPrecede:
		return "must precede"
	case MustNotPrecede:
		return "must not precede"
	case MustFollow:
		return "must follow"
	case MustNotFollow:
		return "must not follow"
	}
	return "misplaced"
}

// SyntaxError is one recorded problem with the source text. Errors are
// owned values (no source slices) so they can cross conversion
// boundaries freely.
type SyntaxError struct {
	Span grammar.Span
	Kind ErrorKind

	// Delim and Special qualify ErrUnclosed.
	Delim   Delimiter
	Special grammar.SpecialKind

	// Placement and Item qualify ErrMisplacedItem / ErrInvalidItem.
	Placement Placement
	Item      string

	// Expected qualifies ErrParseFailed.
	Expected string
}

func (e *SyntaxError) Error() string {
	switch e.Kind {
	case ErrParseFailed:
		return fmt.Sprintf("%s: parse failed: expected %s", e.Span, e.Expected)
	case ErrInvalidEscape:
		return fmt.Sprintf("%s: invalid escape sequence %q", e.Span, e.Item)
	case ErrUnclosed:
		if e.Delim == DelimSpecialInline {
			return fmt.Sprintf("%s: unclosed %s element", e.Span, e.Special)
		}
		return fmt.Sprintf("%s: unclosed %s", e.Span, e.Delim)
	case ErrInvalidItem:
		return fmt.Sprintf("%s: invalid item %q", e.Span, e.Item)
	case ErrMisplacedItem:
		return fmt.Sprintf("%s: item %s %s", e.Span, e.Placement, e.Item)
	}
	return fmt.Sprintf("%s: syntax error", e.Span)
}
