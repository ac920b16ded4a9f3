package infer

import (
	"golang.org/x/net/html/atom"

	"github.com/youngspe/mintyml-go/document"
)

// outcome is the three-valued result of a predicate: a tag test
// against a sibling that has not been resolved yet is neither true nor
// false, it is incomplete, and the engine retries it on a later pass.
type outcome uint8

const (
	no outcome = iota
	yes
	incomplete
)

// pred is one composable condition evaluated against the context of a
// single sibling node.
type pred func(cx *context) outcome

// context links a node to its sibling list and, through parent, to the
// chain of containers above it. No back-pointers are materialized in
// the tree itself.
type context struct {
	parent   *context
	element  *document.Element // container owning siblings; nil at the root
	siblings []document.Node
	index    int
}

func (cx *context) node() *document.Node { return &cx.siblings[cx.index] }

// at returns a copy of the context positioned on sibling i.
func (cx *context) at(i int) *context {
	c := *cx
	c.index = i
	return &c
}

func anyNode() pred {
	return func(cx *context) outcome { return yes }
}

func and(ps ...pred) pred {
	return func(cx *context) outcome {
		out := yes
		for _, p := range ps {
			switch p(cx) {
			case no:
				return no
			case incomplete:
				out = incomplete
			}
		}
		return out
	}
}

func or(ps ...pred) pred {
	return func(cx *context) outcome {
		out := no
		for _, p := range ps {
			switch p(cx) {
			case yes:
				return yes
			case incomplete:
				out = incomplete
			}
		}
		return out
	}
}

func not(p pred) pred {
	return func(cx *context) outcome {
		switch p(cx) {
		case yes:
			return no
		case no:
			return yes
		}
		return incomplete
	}
}

func element() pred {
	return func(cx *context) outcome {
		return boolOutcome(cx.node().Kind == document.KindElement)
	}
}

func kindIn(kinds ...document.ElementKind) pred {
	return func(cx *context) outcome {
		n := cx.node()
		if n.Kind != document.KindElement {
			return no
		}
		for _, k := range kinds {
			if n.Element.Kind == k {
				return yes
			}
		}
		return no
	}
}

func paragraph() pred { return kindIn(document.Paragraph) }
func line() pred      { return kindIn(document.Line) }
func inline() pred    { return kindIn(document.Inline) }

// block matches both brace-block forms.
func block() pred { return kindIn(document.Block, document.LineBlock) }

// tagWhere matches an element whose tag is already resolved and
// satisfies f. Evaluating it against a sibling still awaiting
// resolution yields incomplete, deferring the caller to a later pass.
func tagWhere(f func(tag string) bool) pred {
	return func(cx *context) outcome {
		n := cx.node()
		if n.Kind != document.KindElement {
			return no
		}
		switch n.Element.Selector.Kind {
		case document.Name:
			return boolOutcome(f(n.Element.Selector.Tag))
		case document.None:
			return no
		default:
			return incomplete
		}
	}
}

func tag(name string) pred {
	return tagWhere(func(t string) bool { return t == name })
}

func tagIn(names ...string) pred {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return tagWhere(func(t string) bool { return set[t] })
}

// first matches a node with no element sibling before it.
func first() pred {
	return func(cx *context) outcome {
		for i := 0; i < cx.index; i++ {
			if cx.siblings[i].Kind == document.KindElement {
				return no
			}
		}
		return yes
	}
}

// last matches a node with no element sibling after it.
func last() pred {
	return func(cx *context) outcome {
		for i := cx.index + 1; i < len(cx.siblings); i++ {
			if cx.siblings[i].Kind == document.KindElement {
				return no
			}
		}
		return yes
	}
}

// childOf matches when the direct container satisfies p, evaluated
// against the container's own context.
func childOf(p pred) pred {
	return func(cx *context) outcome {
		if cx.parent == nil {
			return no
		}
		return p(cx.parent)
	}
}

// descendantOf matches when any ancestor satisfies p.
func descendantOf(p pred) pred {
	return func(cx *context) outcome {
		out := no
		for a := cx.parent; a != nil; a = a.parent {
			switch p(a) {
			case yes:
				return yes
			case incomplete:
				out = incomplete
			}
		}
		return out
	}
}

// before matches when some later sibling satisfies p.
func before(p pred) pred {
	return func(cx *context) outcome {
		out := no
		for i := cx.index + 1; i < len(cx.siblings); i++ {
			switch p(cx.at(i)) {
			case yes:
				return yes
			case incomplete:
				out = incomplete
			}
		}
		return out
	}
}

// after matches when some earlier sibling satisfies p.
func after(p pred) pred {
	return func(cx *context) outcome {
		out := no
		for i := 0; i < cx.index; i++ {
			switch p(cx.at(i)) {
			case yes:
				return yes
			case incomplete:
				out = incomplete
			}
		}
		return out
	}
}

// justBefore matches when the nearest following non-space,
// non-comment sibling satisfies p.
func justBefore(p pred) pred {
	return func(cx *context) outcome {
		for i := cx.index + 1; i < len(cx.siblings); i++ {
			if skippable(&cx.siblings[i]) {
				continue
			}
			return p(cx.at(i))
		}
		return no
	}
}

// justAfter matches when the nearest preceding non-space, non-comment
// sibling satisfies p.
func justAfter(p pred) pred {
	return func(cx *context) outcome {
		for i := cx.index - 1; i >= 0; i-- {
			if skippable(&cx.siblings[i]) {
				continue
			}
			return p(cx.at(i))
		}
		return no
	}
}

func skippable(n *document.Node) bool {
	return n.Kind == document.KindSpace || n.Kind == document.KindComment
}

func boolOutcome(b bool) outcome {
	if b {
		return yes
	}
	return no
}

// phrasingAtoms is the set of elements whose content is inline flow; a
// paragraph forming directly inside one dissolves instead of becoming
// a nested p.
var phrasingAtoms = map[atom.Atom]bool{
	atom.A: true, atom.Abbr: true, atom.B: true, atom.Bdi: true,
	atom.Bdo: true, atom.Cite: true, atom.Code: true, atom.Data: true,
	atom.Dfn: true, atom.Em: true, atom.I: true, atom.Kbd: true,
	atom.Label: true, atom.Mark: true, atom.Q: true, atom.S: true,
	atom.Samp: true, atom.Small: true, atom.Span: true, atom.Strong: true,
	atom.Sub: true, atom.Sup: true, atom.Time: true, atom.U: true,
	atom.Var: true,
}

func isPhrasingTag(t string) bool {
	return phrasingAtoms[atom.Lookup([]byte(t))]
}

// inPhrasing matches a node whose container is inline flow: an inline,
// line, or paragraph form, or a resolved phrasing tag.
func inPhrasing() pred {
	return childOf(or(
		kindIn(document.Line, document.Inline, document.Paragraph),
		tagWhere(isPhrasingTag),
	))
}
