package document

import (
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youngspe/mintyml-go/grammar"
)

func buildSource(t *testing.T, src string) (*Document, []*SyntaxError) {
	t.Helper()
	tree, err := grammar.Parse(src)
	require.NoError(t, err)
	return Build(src, tree)
}

// dumpDoc flattens a document tree into a compact one-line form:
// space nodes appear as _ (inline), ; (line end) and ;; (paragraph
// end), elements as kind(selector)[children].
func dumpDoc(nodes []Node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, dumpDocNode(n))
	}
	return strings.Join(parts, " ")
}

func dumpDocNode(n Node) string {
	switch n.Kind {
	case KindText:
		q := strconv.Quote(n.Value)
		if n.Multiline {
			return "m" + q
		}
		return q
	case KindComment:
		return "cmt(" + strconv.Quote(n.Value) + ")"
	case KindSpace:
		switch n.Space {
		case SpaceInline:
			return "_"
		case SpaceLineEnd:
			return ";"
		case SpaceParagraphEnd:
			return ";;"
		}
	case KindElement:
		el := n.Element
		var kind string
		switch el.Kind {
		case Line:
			kind = "line"
		case LineBlock:
			kind = "line-block"
		case Block:
			kind = "block"
		case Inline:
			kind = "inline"
		case Paragraph:
			kind = "para"
		}
		return kind + "(" + dumpDocSelector(&el.Selector) + ")[" + dumpDoc(el.Nodes) + "]"
	}
	return "?"
}

func dumpDocSelector(sel *Selector) string {
	var b strings.Builder
	switch sel.Kind {
	case Infer:
		b.WriteString("?")
	case Name:
		b.WriteString(sel.Tag)
	case Special:
		b.WriteString("#" + sel.Special.String())
	case None:
		b.WriteString("-")
	}
	for _, c := range sel.Classes {
		b.WriteString("." + c)
	}
	if sel.ID != "" {
		b.WriteString("#" + sel.ID)
	}
	if len(sel.Attrs) > 0 {
		b.WriteString("[")
		for i, a := range sel.Attrs {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(a.Name)
			if a.HasValue {
				b.WriteString("=" + strconv.Quote(a.Value))
			}
		}
		b.WriteString("]")
	}
	return b.String()
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "paragraph grouping",
			src:  "one\ntwo\n\nthree",
			want: `para(?)["one" ; "two"] ;; para(?)["three"]`,
		},
		{
			name: "special inlines join a paragraph",
			src:  "div {\n    <#Hello#>, </world/>!\n}",
			want: `block(div)[para(?)[inline(#strong)["Hello"] "," _ inline(#emphasis)["world"] "!"]]`,
		},
		{
			name: "blank line splits paragraphs inside a block",
			src:  "ul {\n    <#Hello#>,\n\n    </world/>!\n}",
			want: `block(ul)[para(?)[inline(#strong)["Hello"] ","] ;; para(?)[inline(#emphasis)["world"] "!"]]`,
		},
		{
			name: "line element content is not grouped",
			src:  "h1> Title here",
			want: `line(h1)["Title" _ "here"]`,
		},
		{
			name: "selector chain nests one element per segment",
			src:  "nav>ul> items",
			want: `line(nav)[line(ul)["items"]]`,
		},
		{
			name: "line block groups its content",
			src:  "section> {\na\n\nb\n}",
			want: `line-block(section)[para(?)["a"] ;; para(?)["b"]]`,
		},
		{
			name: "comment only line stays bare",
			src:  "<! note !>",
			want: `cmt(" note ")`,
		},
		{
			name: "comment joins adjacent paragraph",
			src:  "text <! note !> more",
			want: `para(?)["text" _ cmt(" note ") _ "more"]`,
		},
		{
			name: "code fence builds pre code pair",
			src:  "```\nlet x = 1;\n```",
			want: `line(#code block)[line(#code)[m"let x = 1;"]]`,
		},
		{
			name: "verbatim fence is standalone multiline text",
			src:  "a\n'''\nraw\n'''\nb",
			want: `para(?)["a"] ; m"raw" ; para(?)["b"]`,
		},
		{
			name: "classes and attributes",
			src:  `button.primary#go[type=submit]> Go`,
			want: `line(button.primary#go[type="submit"])["Go"]`,
		},
		{
			name: "bare combinator paragraph line",
			src:  "> plain",
			want: `line(?)["plain"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, errs := buildSource(t, tt.src)
			assert.Empty(t, errs)
			if diff := cmp.Diff(tt.want, dumpDoc(doc.Nodes)); diff != "" {
				t.Errorf("document mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantKind  ErrorKind
		wantDelim Delimiter
	}{
		{
			name:      "unclosed block",
			src:       "div {\ncontent",
			wantKind:  ErrUnclosed,
			wantDelim: DelimBlock,
		},
		{
			name:      "unclosed inline",
			src:       "<(content",
			wantKind:  ErrUnclosed,
			wantDelim: DelimInline,
		},
		{
			name:      "unclosed special",
			src:       "<#bold",
			wantKind:  ErrUnclosed,
			wantDelim: DelimSpecialInline,
		},
		{
			name:      "unclosed comment",
			src:       "<! never ends",
			wantKind:  ErrUnclosed,
			wantDelim: DelimComment,
		},
		{
			name:      "unclosed attribute list",
			src:       "a[href=x",
			wantKind:  ErrUnclosed,
			wantDelim: DelimAttributeList,
		},
		{
			name:     "stray closing brace",
			src:      "}",
			wantKind: ErrInvalidItem,
		},
		{
			name:     "invalid escape in text",
			src:      `bad \q escape`,
			wantKind: ErrInvalidEscape,
		},
		{
			name:     "invalid escape in attribute value",
			src:      `div[title=a\qb]> x`,
			wantKind: ErrInvalidEscape,
		},
		{
			name:     "adjacent blocks on one line",
			src:      "{x} {y}",
			wantKind: ErrMisplacedItem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, errs := buildSource(t, tt.src)
			require.NotNil(t, doc)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.wantKind, errs[0].Kind)
			if tt.wantDelim != 0 {
				assert.Equal(t, tt.wantDelim, errs[0].Delim)
			}
			assert.NotEmpty(t, errs[0].Error())
		})
	}
}

func TestBuildUnclosedBlockKeepsContent(t *testing.T) {
	doc, errs := buildSource(t, "div {\nkept content")
	require.Len(t, errs, 1)
	want := `block(div)[para(?)["kept" _ "content"]]`
	if diff := cmp.Diff(want, dumpDoc(doc.Nodes)); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildUnclosedErrorPointsAtOpener(t *testing.T) {
	src := "div {\nx"
	_, errs := buildSource(t, src)
	require.Len(t, errs, 1)
	assert.Equal(t, "{", errs[0].Span.Of(src))
}

func TestBuildEscapeFlag(t *testing.T) {
	doc, errs := buildSource(t, `a\nb`)
	require.Empty(t, errs)
	require.Len(t, doc.Nodes, 1)
	para := doc.Nodes[0].Element
	require.Len(t, para.Nodes, 1)
	text := para.Nodes[0]
	assert.True(t, text.Escape)
	assert.Equal(t, `a\nb`, text.Value)
}
