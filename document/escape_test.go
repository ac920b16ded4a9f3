package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnescape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "no escapes", in: "plain text", want: "plain text"},
		{name: "newline", in: `a\nb`, want: "a\nb"},
		{name: "tab", in: `a\tb`, want: "a\tb"},
		{name: "carriage return", in: `a\rb`, want: "a\rb"},
		{name: "backslash", in: `a\\b`, want: `a\b`},
		{name: "punctuation", in: `\{\}\>\<\!`, want: "{}><!"},
		{name: "hex", in: `\x41\x7a`, want: "Az"},
		{name: "unicode short", in: `\u{2014}`, want: "—"},
		{name: "unicode long", in: `\u{1F600}`, want: "\U0001F600"},
		{name: "unicode mixed", in: `a\u{e9}b`, want: "aéb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errs := Unescape(tt.in, 0)
			assert.Empty(t, errs)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnescapeInvalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string // malformed sequences are kept verbatim
	}{
		{name: "trailing backslash", in: `abc\`, want: `abc\`},
		{name: "letter escape", in: `\q`, want: `\q`},
		{name: "digit escape", in: `\5`, want: `\5`},
		{name: "short hex", in: `\x4`, want: `\x4`},
		{name: "bad hex digit", in: `\xg1`, want: `\xg1`},
		{name: "unicode missing brace", in: `\u41`, want: `\u41`},
		{name: "unicode empty", in: `\u{}`, want: `\u{}`},
		{name: "unicode surrogate", in: `\u{d800}`, want: `\u{d800}`},
		{name: "unicode out of range", in: `\u{110000}`, want: `\u{110000}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errs := Unescape(tt.in, 0)
			assert.NotEmpty(t, errs)
			for _, e := range errs {
				assert.Equal(t, ErrInvalidEscape, e.Kind)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnescapeErrorSpansUseBase(t *testing.T) {
	_, errs := Unescape(`ok \q`, 100)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
	if errs[0].Span.Start != 103 {
		t.Errorf("span start = %d, want 103", errs[0].Span.Start)
	}
}

func TestHasEscapes(t *testing.T) {
	assert.True(t, HasEscapes(`a\nb`))
	assert.False(t, HasEscapes("a\nb"))
}
