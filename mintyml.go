// Package mintyml converts MinTyML, a minimalist markup language, to
// HTML or XHTML. The pipeline parses the source, builds a document
// tree while accumulating syntax errors, infers a tag for every
// element the source left untagged, and serializes the result.
package mintyml

import (
	"fmt"
	"strings"

	"github.com/youngspe/mintyml-go/document"
	"github.com/youngspe/mintyml-go/grammar"
	"github.com/youngspe/mintyml-go/infer"
	"github.com/youngspe/mintyml-go/render"
)

// SpecialTags overrides the element names emitted for the special
// inline shorthands. Empty fields keep the defaults.
type SpecialTags struct {
	Emphasis  string // </ /> default "em"
	Strong    string // <# #> default "strong"
	Underline string // <_ _> default "u"
	Strike    string // <~ ~> default "s"
	Quote     string // <" "> default "q"
	Code      string // <` `> default "code"
	// CodeBlockContainer wraps the code element built from a ```
	// fence, default "pre".
	CodeBlockContainer string
}

func (t SpecialTags) table() map[grammar.SpecialKind]string {
	m := map[grammar.SpecialKind]string{}
	set := func(k grammar.SpecialKind, v string) {
		if v != "" {
			m[k] = v
		}
	}
	set(grammar.Emphasis, t.Emphasis)
	set(grammar.Strong, t.Strong)
	set(grammar.Underline, t.Underline)
	set(grammar.Strike, t.Strike)
	set(grammar.Quote, t.Quote)
	set(grammar.Code, t.Code)
	set(grammar.CodeBlockContainer, t.CodeBlockContainer)
	return m
}

// OutputConfig controls one conversion.
type OutputConfig struct {
	// Indent > 0 pretty-prints with that many spaces per level.
	Indent int
	// XML emits XHTML-compatible output.
	XML bool
	// CompletePage wraps the result in doctype/html/head/body.
	CompletePage bool
	// Lang sets the lang attribute when CompletePage adds an html
	// element; ignored when the source supplies its own.
	Lang string
	// SpecialTags customizes the special inline element names.
	SpecialTags SpecialTags
	// Metadata adds a data-mtml source-range attribute to every
	// element, for tooling that maps output back to input.
	Metadata bool
}

// ConvertError reports the syntax errors of one conversion. Forgiving
// conversion returns it alongside best-effort output; strict
// conversion returns it alone.
type ConvertError struct {
	Errors []*document.SyntaxError
	// Source is the input text the error spans refer to.
	Source string
}

func (e *ConvertError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d syntax errors", len(e.Errors))
	for _, se := range e.Errors {
		b.WriteString("\n\t")
		b.WriteString(se.Error())
	}
	return b.String()
}

// Unwrap exposes the individual syntax errors to errors.Is/As.
func (e *ConvertError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, se := range e.Errors {
		out[i] = se
	}
	return out
}

// Convert translates src strictly: any syntax error fails the whole
// conversion and no output is produced.
func Convert(src string, cfg OutputConfig) (string, error) {
	out, err := convert(src, cfg)
	if err != nil {
		return "", err
	}
	return out, nil
}

// ConvertForgiving translates src with error recovery: the output is
// always produced and well-formed, and any syntax errors encountered
// along the way are returned beside it.
func ConvertForgiving(src string, cfg OutputConfig) (string, error) {
	return convert(src, cfg)
}

func convert(src string, cfg OutputConfig) (string, error) {
	tree, err := grammar.Parse(src)
	if err != nil {
		pe := err.(*grammar.ParseError)
		return "", &ConvertError{
			Errors: []*document.SyntaxError{{
				Span:     pe.Span,
				Kind:     document.ErrParseFailed,
				Expected: pe.Expected,
			}},
			Source: src,
		}
	}

	doc, errs := document.Build(src, tree)
	infer.Apply(doc, infer.Options{SpecialTags: cfg.SpecialTags.table()})
	if cfg.CompletePage {
		document.CompletePage(doc, cfg.Lang)
	}
	if cfg.Metadata {
		document.InjectMetadata(doc)
	}

	var b strings.Builder
	if err := render.Render(&b, doc, render.Options{
		Indent:  cfg.Indent,
		XML:     cfg.XML,
		Doctype: cfg.CompletePage,
	}); err != nil {
		return "", err
	}
	if len(errs) > 0 {
		return b.String(), &ConvertError{Errors: errs, Source: src}
	}
	return b.String(), nil
}
