package mintyml

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youngspe/mintyml-go/document"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name string
		src  string
		cfg  OutputConfig
		want string
	}{
		{
			name: "block with inferred paragraph",
			src:  "div {\n    <#Hello#>, </world/>!\n}",
			want: "<div><p><strong>Hello</strong>, <em>world</em>!</p></div>",
		},
		{
			name: "list with inferred items",
			src:  "ul {\n    <#Hello#>,\n\n    </world/>!\n}",
			want: "<ul><li><strong>Hello</strong>,</li> <li><em>world</em>!</li></ul>",
		},
		{
			name: "complete page",
			src:  "title> Foo\ndiv {\n <#Hello#>, </world/>!\n}",
			cfg:  OutputConfig{CompletePage: true},
			want: "<!DOCTYPE html>\n<html><head><title>Foo</title></head> <body><div><p><strong>Hello</strong>, <em>world</em>!</p></div></body></html>",
		},
		{
			name: "complete page keeps explicit html root",
			src:  "html {\nbody {\nx\n}\n}",
			cfg:  OutputConfig{CompletePage: true},
			want: "<!DOCTYPE html>\n<html><body><p>x</p></body></html>",
		},
		{
			name: "complete page lang attribute",
			src:  "title> Foo",
			cfg:  OutputConfig{CompletePage: true, Lang: "en"},
			want: `<!DOCTYPE html>` + "\n" + `<html lang="en"><head><title>Foo</title></head> <body></body></html>`,
		},
		{
			name: "special tag overrides",
			src:  "<#x#> <`y`>",
			cfg:  OutputConfig{SpecialTags: SpecialTags{Strong: "b", Code: "kbd"}},
			want: "<p><b>x</b> <kbd>y</kbd></p>",
		},
		{
			name: "pretty printing",
			src:  "div {\ntext\n}",
			cfg:  OutputConfig{Indent: 2},
			want: "<div>\n  <p>text</p>\n</div>",
		},
		{
			name: "xml output",
			src:  "div {\nimg[src=x.png]> \n}",
			cfg:  OutputConfig{XML: true},
			want: `<div><img src="x.png"/></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.src, tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertStrictRejectsSyntaxErrors(t *testing.T) {
	out, err := Convert("div {\n<#Hello#>, </world/>!", OutputConfig{})
	assert.Empty(t, out)
	require.Error(t, err)

	var ce *ConvertError
	require.True(t, errors.As(err, &ce))
	require.Len(t, ce.Errors, 1)
	assert.Equal(t, document.ErrUnclosed, ce.Errors[0].Kind)
	assert.Equal(t, document.DelimBlock, ce.Errors[0].Delim)
}

func TestConvertForgivingProducesOutput(t *testing.T) {
	out, err := ConvertForgiving("div {\n<#Hello#>, </world/>!", OutputConfig{})
	require.Error(t, err)
	assert.Equal(t, "<div><p><strong>Hello</strong>, <em>world</em>!</p></div>", out)

	// the recovered output is still well-formed
	doc, qerr := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, qerr)
	assert.Equal(t, "Hello", doc.Find("div p strong").Text())
}

func TestConvertForgivingNestedUnclosedBlock(t *testing.T) {
	src := "dl {\n{\ndetails\n}"
	out, err := ConvertForgiving(src, OutputConfig{})

	var ce *ConvertError
	require.True(t, errors.As(err, &ce))
	require.Len(t, ce.Errors, 1)
	assert.Equal(t, document.ErrUnclosed, ce.Errors[0].Kind)
	assert.Equal(t, document.DelimBlock, ce.Errors[0].Delim)
	assert.Equal(t, "{", ce.Errors[0].Span.Of(ce.Source))
	assert.Equal(t, 3, ce.Errors[0].Span.Start)

	// the unclosed container is still closed in the output
	assert.Equal(t, "<dl><dd><p>details</p></dd></dl>", out)
}

func TestConvertForgivingCollectsAllErrors(t *testing.T) {
	src := "div {\n<#one\n<(two\nbad \\q escape"
	out, err := ConvertForgiving(src, OutputConfig{})
	require.Error(t, err)
	assert.NotEmpty(t, out)

	var ce *ConvertError
	require.True(t, errors.As(err, &ce))
	assert.GreaterOrEqual(t, len(ce.Errors), 3)
	assert.Contains(t, ce.Error(), "syntax errors")
}

func TestConvertInvalidUTF8Fails(t *testing.T) {
	out, err := ConvertForgiving("ok\xff", OutputConfig{})
	assert.Empty(t, out)
	var ce *ConvertError
	require.True(t, errors.As(err, &ce))
	require.Len(t, ce.Errors, 1)
	assert.Equal(t, document.ErrParseFailed, ce.Errors[0].Kind)
}

func TestConvertCompletePageStructure(t *testing.T) {
	src := "title> My Page\nmeta[name=author content=someone]> \nh1> Heading\np> Body text"
	out, err := Convert(src, OutputConfig{CompletePage: true, Lang: "en"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "<!DOCTYPE html>\n"))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "My Page", doc.Find("head title").Text())
	assert.Equal(t, "someone", doc.Find(`head meta[name="author"]`).AttrOr("content", ""))
	assert.Equal(t, "Heading", doc.Find("body h1").Text())
	assert.Equal(t, "Body text", doc.Find("body p").Text())
	assert.Equal(t, "en", doc.Find("html").AttrOr("lang", ""))
}

func TestConvertMetadata(t *testing.T) {
	out, err := Convert("div> x", OutputConfig{Metadata: true})
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)
	v, ok := doc.Find("div").Attr("data-mtml")
	require.True(t, ok)
	assert.Equal(t, "0..6", v)
}

func TestConvertDocumentSample(t *testing.T) {
	src := strings.Join([]string{
		"article {",
		"h1> The <#Title#>",
		"",
		"An opening paragraph with </emphasis/>",
		"spanning two source lines.",
		"",
		"ul {",
		"first item",
		"",
		"second item",
		"}",
		"}",
	}, "\n")

	out, err := Convert(src, OutputConfig{})
	require.NoError(t, err)

	doc, qerr := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, qerr)
	assert.Equal(t, "The Title", doc.Find("article h1").Text())
	assert.Equal(t, "An opening paragraph with emphasis spanning two source lines.",
		doc.Find("article > p").Text())
	assert.Equal(t, 2, doc.Find("article ul li").Length())
}
