package infer

import (
	"github.com/youngspe/mintyml-go/document"
	"github.com/youngspe/mintyml-go/grammar"
)

// Options configures one inference run.
type Options struct {
	// SpecialTags overrides the tag emitted for a special inline
	// shorthand; unset kinds use the built-in defaults.
	SpecialTags map[grammar.SpecialKind]string
}

// Apply resolves every pending tag in the document in place. It cannot
// fail: every tag chain ends in a catch-all rule, so resolution always
// reaches a fixed point with no element left undecided.
func Apply(doc *document.Document, opts Options) {
	e := &engine{special: opts.SpecialTags}
	e.run(&context{siblings: doc.Nodes}, Root)
}

type engine struct {
	special map[grammar.SpecialKind]string
}

func (e *engine) specialTag(kind grammar.SpecialKind) string {
	if t, ok := e.special[kind]; ok && t != "" {
		return t
	}
	return specialDefaults[kind]
}

// run resolves one sibling list under the given strategy, then picks a
// strategy for each element's children and recurses with the element
// pushed onto the parent-context chain.
func (e *engine) run(cx *context, st Strategy) {
	rs := ruleSets[st]
	e.mapSpecials(cx.siblings)
	e.resolveTags(cx, rs)

	for i := range cx.siblings {
		n := &cx.siblings[i]
		if n.Kind != document.KindElement {
			continue
		}
		el := n.Element
		if el.Selector.Kind == document.None {
			// dissolved: the children splice into this list, so they
			// keep the current strategy
			e.run(&context{parent: cx.at(i), element: el, siblings: el.Nodes}, st)
			continue
		}
		next, raw := e.selectMethod(cx.at(i), rs)
		if raw {
			markRaw(el)
			continue
		}
		e.run(&context{parent: cx.at(i), element: el, siblings: el.Nodes}, next)
	}
}

// mapSpecials substitutes the configured tag for every special
// shorthand in the list, before tag resolution so that tag predicates
// can see them.
func (e *engine) mapSpecials(nodes []document.Node) {
	for i := range nodes {
		if nodes[i].Kind != document.KindElement {
			continue
		}
		sel := &nodes[i].Element.Selector
		if sel.Kind == document.Special {
			sel.Tag = e.specialTag(sel.Special)
			sel.Kind = document.Name
		}
	}
}

// resolveTags is the constraint-satisfaction pass over one sibling
// list. Each pending node tracks the chain offset to resume from; a
// rule that needs a still-unresolved neighbor defers the node to a
// later pass. Passes alternate direction whenever a full scan resolves
// nothing, and the loop stops at a fixed point: all nodes resolved, or
// two consecutive zero-progress passes.
func (e *engine) resolveTags(cx *context, rs *ruleSet) {
	n := len(cx.siblings)
	pending := 0
	for i := 0; i < n; i++ {
		if isPending(&cx.siblings[i]) {
			pending++
		}
	}
	if pending == 0 {
		return
	}

	resume := make([]int, n)
	backward := rs.backward
	zeroRuns := 0

	for pending > 0 && zeroRuns < 2 {
		progress := 0
		for k := 0; k < n; k++ {
			i := k
			if backward {
				i = n - 1 - k
			}
			node := &cx.siblings[i]
			if !isPending(node) {
				continue
			}
			cxi := cx.at(i)
			j := resume[i]
		chain:
			for j < len(rs.tags) {
				switch rs.tags[j].when(cxi) {
				case yes:
					applyRule(node.Element, &rs.tags[j])
					progress++
					pending--
					break chain
				case no:
					j++
				case incomplete:
					break chain
				}
			}
			resume[i] = j
			if j == len(rs.tags) && isPending(node) {
				// chain exhausted; the terminal catch-all makes this
				// unreachable for the built-in strategies
				node.Element.Selector.Kind = document.None
				progress++
				pending--
			}
		}
		if progress == 0 {
			backward = !backward
			zeroRuns++
		} else {
			zeroRuns = 0
		}
	}

	// Fixed point with nodes still pending means mutually-dependent
	// incomplete rules; they keep the no-op outcome.
	if pending > 0 {
		for i := 0; i < n; i++ {
			if isPending(&cx.siblings[i]) {
				cx.siblings[i].Element.Selector.Kind = document.None
			}
		}
	}
}

func isPending(n *document.Node) bool {
	return n.Kind == document.KindElement && n.Element.Selector.Kind == document.Infer
}

func applyRule(el *document.Element, r *tagRule) {
	if r.dissolve {
		el.Selector.Kind = document.None
		return
	}
	el.Selector.Kind = document.Name
	el.Selector.Tag = r.tag
}

// selectMethod picks the strategy for an element's children. Tags are
// all resolved by now, so incomplete cannot occur and counts as no.
func (e *engine) selectMethod(cx *context, rs *ruleSet) (Strategy, bool) {
	for i := range rs.methods {
		if rs.methods[i].when(cx) == yes {
			return rs.methods[i].next, rs.methods[i].raw
		}
	}
	return Standard, false
}

// markRaw flags a raw-text container: its text is emitted verbatim and
// untagged children dissolve rather than acquire tags.
func markRaw(el *document.Element) {
	el.IsRaw = true
	markRawNodes(el.Nodes)
}

func markRawNodes(nodes []document.Node) {
	for i := range nodes {
		switch nodes[i].Kind {
		case document.KindText:
			nodes[i].Raw = true
		case document.KindElement:
			child := nodes[i].Element
			if child.Selector.Kind == document.Infer || child.Selector.Kind == document.Special {
				child.Selector.Kind = document.None
			}
			markRawNodes(child.Nodes)
		}
	}
}
