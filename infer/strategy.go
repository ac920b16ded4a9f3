// Package infer assigns a concrete HTML tag to every element whose
// source omitted one. Inference is declarative: each strategy supplies
// an ordered tag chain (what an untagged sibling becomes) and an
// ordered method chain (which strategy governs a resolved element's
// children). Strategies compose by rule-chain concatenation.
package infer

import "github.com/youngspe/mintyml-go/grammar"

// Strategy selects the rule set governing one sibling list. The
// inventory is closed, so dispatch is a table lookup rather than
// dynamic dispatch.
type Strategy uint8

const (
	// Standard is the baseline: blocks become div, lines and
	// paragraphs become p, inline content becomes span.
	Standard Strategy = iota
	// Root governs the top level of the document.
	Root
	// List governs ul/ol/menu content: everything is a list item.
	List
	// DescriptionList governs dl content: blocks are dd, lines dt.
	DescriptionList
	// Table and TableGroup make rows; TableRow makes cells.
	Table
	TableGroup
	TableRow
	// SelectMenu and OptionGroup make options.
	SelectMenu
	OptionGroup
	// Details makes the first element a summary.
	Details
	// Fieldset makes the first element a legend.
	Fieldset
	// Label turns untagged inline elements into inputs.
	Label
	// ImageMap makes areas.
	ImageMap
	// Picture makes sources, with the last element an img.
	Picture
)

type tagRule struct {
	when     pred
	tag      string
	dissolve bool
}

type methodRule struct {
	when pred
	next Strategy
	raw  bool
}

// ruleSet is one inference strategy: the tag chain resolves untagged
// siblings, the method chain picks the strategy for a resolved
// element's children. backward is the scan direction most likely to
// converge first; it affects pass count only, never the result.
type ruleSet struct {
	tags     []tagRule
	methods  []methodRule
	backward bool
}

var ruleSets map[Strategy]*ruleSet

func init() {
	stdTags := []tagRule{
		{when: and(paragraph(), inPhrasing()), dissolve: true},
		{when: or(paragraph(), line()), tag: "p"},
		{when: inline(), tag: "span"},
		{when: anyNode(), tag: "div"},
	}
	stdMethods := []methodRule{
		{when: tagIn("ul", "ol", "menu"), next: List},
		{when: tag("dl"), next: DescriptionList},
		{when: tag("table"), next: Table},
		{when: tagIn("thead", "tbody", "tfoot"), next: TableGroup},
		{when: tag("tr"), next: TableRow},
		{when: tagIn("select", "datalist"), next: SelectMenu},
		{when: tag("optgroup"), next: OptionGroup},
		{when: tag("details"), next: Details},
		{when: tag("fieldset"), next: Fieldset},
		{when: tag("label"), next: Label},
		{when: tag("map"), next: ImageMap},
		{when: tag("picture"), next: Picture},
		{when: tagIn("script", "style"), raw: true},
		{when: anyNode(), next: Standard},
	}
	std := &ruleSet{tags: stdTags, methods: stdMethods}

	item := func(tag string) []tagRule {
		return []tagRule{{when: anyNode(), tag: tag}}
	}
	lead := func(when pred, tag string) []tagRule {
		return append([]tagRule{{when: when, tag: tag}}, stdTags...)
	}

	ruleSets = map[Strategy]*ruleSet{
		Standard: std,
		Root:     std,
		List:     {tags: item("li"), methods: stdMethods},
		DescriptionList: {
			tags: append([]tagRule{
				{when: block(), tag: "dd"},
			}, item("dt")...),
			methods: stdMethods,
		},
		Table:       {tags: item("tr"), methods: stdMethods},
		TableGroup:  {tags: item("tr"), methods: stdMethods},
		TableRow:    {tags: item("td"), methods: stdMethods},
		SelectMenu:  {tags: item("option"), methods: stdMethods},
		OptionGroup: {tags: item("option"), methods: stdMethods},
		Details:     {tags: lead(first(), "summary"), methods: stdMethods},
		Fieldset:    {tags: lead(first(), "legend"), methods: stdMethods},
		Label:       {tags: lead(inline(), "input"), methods: stdMethods},
		ImageMap:    {tags: item("area"), methods: stdMethods},
		Picture: {
			tags: []tagRule{
				{when: last(), tag: "img"},
				{when: before(element()), tag: "source"},
				{when: anyNode(), tag: "img"},
			},
			methods:  stdMethods,
			backward: true,
		},
	}
}

// specialDefaults are the built-in tags for the special inline
// shorthands, overridable per conversion.
var specialDefaults = map[grammar.SpecialKind]string{
	grammar.Emphasis:           "em",
	grammar.Strong:             "strong",
	grammar.Underline:          "u",
	grammar.Strike:             "s",
	grammar.Quote:              "q",
	grammar.Code:               "code",
	grammar.CodeBlockContainer: "pre",
}
