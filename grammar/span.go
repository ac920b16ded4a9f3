package grammar

import "fmt"

// Span is a half-open [Start, End) byte range into the source text.
type Span struct {
	Start int
	End   int
}

// IsZero returns true if the span is uninitialized.
func (s Span) IsZero() bool {
	return s.Start == 0 && s.End == 0
}

// Len returns the length of the span in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// Of returns the source text the span covers.
func (s Span) Of(source string) string {
	if s.Start < 0 || s.End > len(source) || s.Start > s.End {
		return ""
	}
	return source[s.Start:s.End]
}

// Join returns the smallest span covering both s and other.
func (s Span) Join(other Span) Span {
	if other.IsZero() {
		return s
	}
	out := s
	if other.Start < out.Start {
		out.Start = other.Start
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}
