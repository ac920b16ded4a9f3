package document

import (
	"fmt"

	"github.com/youngspe/mintyml-go/grammar"
)

// headTags are the top-level elements the complete-page transform
// moves into <head>; everything else lands in <body>.
var headTags = map[string]bool{
	"title": true,
	"base":  true,
	"link":  true,
	"meta":  true,
	"style": true,
}

// CompletePage wraps the document in html/head/body, partitioning the
// top-level elements into head and body content, and propagates lang
// onto the html element. It runs after tag inference, when every tag
// is known. The serializer adds the doctype line.
func CompletePage(doc *Document, lang string) {
	if html := soleHTMLElement(doc); html != nil {
		setLang(html, lang)
		return
	}

	var head, body []Node
	for _, n := range doc.Nodes {
		if n.Kind == KindElement {
			el := n.Element
			if el.Selector.Kind == Name && headTags[el.Selector.Tag] {
				if len(head) > 0 {
					head = append(head, NewSpace(SpaceLineEnd, grammar.Span{}))
				}
				head = append(head, n)
				continue
			}
		}
		body = append(body, n)
	}
	trimSpaces(&body)

	headEl := &Element{Selector: Selector{Kind: Name, Tag: "head"}, Nodes: head, Kind: Block, Span: doc.Span}
	bodyEl := &Element{Selector: Selector{Kind: Name, Tag: "body"}, Nodes: body, Kind: Block, Span: doc.Span}
	htmlEl := &Element{
		Selector: Selector{Kind: Name, Tag: "html"},
		Nodes: []Node{
			NewElement(headEl),
			NewSpace(SpaceLineEnd, grammar.Span{}),
			NewElement(bodyEl),
		},
		Kind: Block,
		Span: doc.Span,
	}
	setLang(htmlEl, lang)
	doc.Nodes = []Node{NewElement(htmlEl)}
}

// soleHTMLElement returns the root html element if the document is
// already a complete page.
func soleHTMLElement(doc *Document) *Element {
	var html *Element
	for _, n := range doc.Nodes {
		switch n.Kind {
		case KindSpace, KindComment:
		case KindElement:
			if html != nil || n.Element.Selector.Tag != "html" {
				return nil
			}
			html = n.Element
		default:
			return nil
		}
	}
	return html
}

func setLang(html *Element, lang string) {
	if lang == "" {
		return
	}
	for _, a := range html.Selector.Attrs {
		if a.Name == "lang" {
			return
		}
	}
	html.Selector.Attrs = append(html.Selector.Attrs, Attr{Name: "lang", Value: lang, HasValue: true})
}

// InjectMetadata adds a data-mtml attribute holding the source byte
// range to every element, for debug tooling that maps output back to
// input.
func InjectMetadata(doc *Document) {
	injectMetadata(doc.Nodes)
}

func injectMetadata(nodes []Node) {
	for i := range nodes {
		if nodes[i].Kind != KindElement {
			continue
		}
		el := nodes[i].Element
		el.Selector.Attrs = append(el.Selector.Attrs, Attr{
			Name:     "data-mtml",
			Value:    fmt.Sprintf("%d..%d", el.Span.Start, el.Span.End),
			HasValue: true,
		})
		injectMetadata(el.Nodes)
	}
}
