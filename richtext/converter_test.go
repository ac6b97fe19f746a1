package richtext_test

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"rtc/css"
	"rtc/richtext"
)

var testBreakpoints = richtext.Breakpoints{
	{ID: "mobile", ActivationWidth: 0, ExemplaryWidth: 375},
	{ID: "tablet", ActivationWidth: 768, ExemplaryWidth: 768},
	{ID: "desktop", ActivationWidth: 1024, ExemplaryWidth: 1440},
}

func convert(t *testing.T, in richtext.Input, bps richtext.Breakpoints, opts richtext.Options) *richtext.Result {
	t.Helper()

	res, err := richtext.New(zaptest.NewLogger(t)).Convert(in, bps, opts)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	return res
}

// mediaRules returns rules of @media block emitted for breakpoint at position idx.
func mediaRules(t *testing.T, sheet *css.Stylesheet, idx int) []css.Rule {
	t.Helper()

	blocks := sheet.MediaBlocks()
	if idx >= len(blocks) {
		t.Fatalf("expected at least %d media blocks, got %d", idx+1, len(blocks))
	}
	return blocks[idx].Rules
}

func findRule(rules []css.Rule, selector string) (css.Rule, bool) {
	for _, r := range rules {
		if r.Selector.Raw == selector {
			return r, true
		}
	}
	return css.Rule{}, false
}

func property(t *testing.T, rules []css.Rule, selector, name string) string {
	t.Helper()

	rule, ok := findRule(rules, selector)
	if !ok {
		t.Fatalf("no rule for selector %q", selector)
	}
	v, ok := rule.GetProperty(name)
	if !ok {
		return ""
	}
	return v.Raw
}

func TestConvert_PlainText(t *testing.T) {
	in := richtext.Input{
		Text:   "Hello, world\n",
		Blocks: []richtext.Block{{Start: 0, End: 12}},
	}

	res := convert(t, in, testBreakpoints, richtext.Options{Namespace: "ns"})

	if len(res.Nodes) != 1 {
		t.Fatalf("expected 1 block node, got %d", len(res.Nodes))
	}
	block := res.Nodes[0]
	if block.Kind != richtext.KindBlock || block.Class != "rt_ns-b0_111" {
		t.Errorf("unexpected block node %s", block)
	}
	if len(block.Children) != 1 {
		t.Fatalf("expected exactly one span, got %d", len(block.Children))
	}
	span := block.Children[0]
	if span.Kind != richtext.KindSpan || span.Class != "" || span.Text != "Hello, world\n" {
		t.Errorf("unexpected span %s", span)
	}
}

func TestConvert_EntityWrapsStyledSpan(t *testing.T) {
	in := richtext.Input{
		Text: "abcdefghij\n",
		Blocks: []richtext.Block{{
			Start: 0, End: 10,
			Entities: []richtext.Entity{{Start: 2, End: 8, Type: "LINK", Data: &richtext.EntityData{URL: "example.com", Target: "_blank"}}},
		}},
		Styles: map[string][]richtext.StyleRange{
			"mobile": {{Start: 4, End: 6, Style: richtext.StyleFontWeight, Value: "700"}},
		},
	}
	bps := testBreakpoints[:1]

	res := convert(t, in, bps, richtext.Options{Namespace: "ns"})

	kids := res.Nodes[0].Children
	if len(kids) != 3 {
		t.Fatalf("expected plain, link, plain; got %d nodes", len(kids))
	}
	if kids[0].Text != "ab" || kids[2].Text != "ij\n" {
		t.Errorf("unexpected text around link: %q %q", kids[0].Text, kids[2].Text)
	}

	link := kids[1]
	if link.Kind != richtext.KindLink {
		t.Fatalf("expected link node, got %s", link)
	}
	if link.Href() != "//example.com" || link.Target != "_blank" {
		t.Errorf("unexpected link %s", link)
	}
	if len(link.Children) != 3 {
		t.Fatalf("expected 3 spans inside link, got %d", len(link.Children))
	}
	want := []struct{ class, text string }{{"", "cd"}, {"s-4-6", "ef"}, {"", "gh"}}
	for i, w := range want {
		if c := link.Children[i]; c.Class != w.class || c.Text != w.text {
			t.Errorf("link child %d = %s, want class %q text %q", i, c, w.class, w.text)
		}
	}
}

func TestConvert_TombstoneEntity(t *testing.T) {
	in := richtext.Input{
		Text: "abcdefghij\n",
		Blocks: []richtext.Block{{
			Start: 0, End: 10,
			Entities: []richtext.Entity{{Start: 2, End: 8, Type: "LINK"}},
		}},
		Styles: map[string][]richtext.StyleRange{
			"mobile": {{Start: 4, End: 6, Style: richtext.StyleFontWeight, Value: "700"}},
		},
	}

	res := convert(t, in, testBreakpoints[:1], richtext.Options{Namespace: "ns"})

	kids := res.Nodes[0].Children
	for _, k := range kids {
		if k.Kind == richtext.KindLink {
			t.Errorf("tombstone produced link %s", k)
		}
	}
	if len(kids) != 3 || kids[0].Text != "abcd" || kids[1].Class != "s-4-6" || kids[2].Text != "ghij\n" {
		t.Errorf("tombstone must not contribute edges, got %v", kids)
	}
}

func TestConvert_TombstoneOnly(t *testing.T) {
	in := richtext.Input{
		Text:   "abc\n",
		Blocks: []richtext.Block{{Start: 0, End: 3, Entities: []richtext.Entity{{Start: 0, End: 2}}}},
	}

	res := convert(t, in, testBreakpoints, richtext.Options{Namespace: "ns"})

	kids := res.Nodes[0].Children
	if len(kids) != 1 || kids[0].Text != "abc\n" {
		t.Errorf("expected single plain span, got %v", kids)
	}
}

func TestConvert_EmptyLineInheritsLineHeight(t *testing.T) {
	in := richtext.Input{
		Text: "Hello\n\nWorld\n",
		Blocks: []richtext.Block{
			{Start: 0, End: 5},
			{Start: 6, End: 6},
			{Start: 7, End: 12},
		},
		Styles: map[string][]richtext.StyleRange{
			// first line height in the list seeds the accumulator, first
			// block then overrides it before the empty line
			"mobile": {
				{Start: 7, End: 12, Style: richtext.StyleLineHeight, Value: "0.1"},
				{Start: 0, End: 5, Style: richtext.StyleLineHeight, Value: "0.05"},
			},
		},
	}

	res := convert(t, in, testBreakpoints, richtext.Options{Namespace: "ns", Editing: true, ActiveBreakpoint: "mobile"})

	if len(res.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(res.Nodes))
	}
	br := res.Nodes[1]
	if br.Kind != richtext.KindLineBreak || br.Class != "rt_ns_br_1" {
		t.Fatalf("expected line break node, got %s", br)
	}

	rules := res.Stylesheet.RulesBySelector(".rt_ns_br_1")
	if len(rules) != 1 {
		t.Fatalf("expected 1 line height rule, got %d", len(rules))
	}
	if v, _ := rules[0].GetProperty("line-height"); v.Raw != "18.75px" {
		t.Errorf("expected line-height 18.75px, got %q", v.Raw)
	}
	if len(rules[0].Properties) != 1 {
		t.Errorf("expected only line-height, got %v", rules[0].Properties)
	}
}

func TestConvert_EmptyLineSeededLineHeight(t *testing.T) {
	in := richtext.Input{
		Text:   "\nWorld\n",
		Blocks: []richtext.Block{{Start: 0, End: 0}, {Start: 1, End: 6}},
		Styles: map[string][]richtext.StyleRange{
			"desktop": {{Start: 1, End: 6, Style: richtext.StyleLineHeight, Value: "0.025"}},
		},
	}

	res := convert(t, in, testBreakpoints, richtext.Options{Namespace: "ns"})

	if got := property(t, mediaRules(t, res.Stylesheet, 2), ".rt_ns_br_0", "line-height"); got != "36px" {
		t.Errorf("expected seeded line-height 36px, got %q", got)
	}
	if _, ok := findRule(mediaRules(t, res.Stylesheet, 0), ".rt_ns_br_0"); ok {
		t.Error("breakpoint without line height must not get empty line rule")
	}
}

func TestConvert_ScalingLaw(t *testing.T) {
	tests := []struct {
		exemplary float64
		want      string
	}{
		{1440, "28.8px"},
		{768, "15.36px"},
		{375, "7.5px"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			in := richtext.Input{
				Text:   "Title\n",
				Blocks: []richtext.Block{{Start: 0, End: 5}},
				Styles: map[string][]richtext.StyleRange{
					"only": {{Start: 0, End: 5, Style: richtext.StyleFontSize, Value: "0.02"}},
				},
			}
			bps := richtext.Breakpoints{{ID: "only", ExemplaryWidth: tt.exemplary}}

			res := convert(t, in, bps, richtext.Options{Namespace: "ns"})

			if got := property(t, mediaRules(t, res.Stylesheet, 0), ".rt_ns-b0_1 .s-0-5", "font-size"); got != tt.want {
				t.Errorf("font-size = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConvert_SameBoundariesShareMarkup(t *testing.T) {
	in := richtext.Input{
		Text:   "Shared text\n",
		Blocks: []richtext.Block{{Start: 0, End: 11}},
		Styles: map[string][]richtext.StyleRange{
			"mobile":  {{Start: 0, End: 6, Style: richtext.StyleFontWeight, Value: "400"}},
			"tablet":  {{Start: 0, End: 6, Style: richtext.StyleFontWeight, Value: "700"}},
			"desktop": {{Start: 0, End: 6, Style: richtext.StyleFontWeight, Value: "900"}},
		},
	}

	res := convert(t, in, testBreakpoints, richtext.Options{Namespace: "ns"})

	if len(res.Nodes) != 1 {
		t.Fatalf("expected one shared block, got %d", len(res.Nodes))
	}
	if res.Nodes[0].Class != "rt_ns-b0_111" {
		t.Errorf("unexpected block class %q", res.Nodes[0].Class)
	}
	for i, want := range []string{"400", "700", "900"} {
		rules := mediaRules(t, res.Stylesheet, i)
		if got := property(t, rules, ".rt_ns-b0_111 .s-0-6", "font-weight"); got != want {
			t.Errorf("breakpoint %d font-weight = %q, want %q", i, got, want)
		}
		if got := property(t, rules, ".rt_ns-b0_111", "display"); got != "block" {
			t.Errorf("breakpoint %d display = %q", i, got)
		}
	}
}

func TestConvert_DifferentBoundariesSplitMarkup(t *testing.T) {
	in := richtext.Input{
		Text:   "Split text\n",
		Blocks: []richtext.Block{{Start: 0, End: 10}},
		Styles: map[string][]richtext.StyleRange{
			"mobile": {{Start: 0, End: 5, Style: richtext.StyleFontWeight, Value: "700"}},
			"tablet": {{Start: 6, End: 10, Style: richtext.StyleFontWeight, Value: "700"}},
		},
	}
	bps := testBreakpoints[:2]

	res := convert(t, in, bps, richtext.Options{Namespace: "ns"})

	if len(res.Nodes) != 2 {
		t.Fatalf("expected two blocks, got %d", len(res.Nodes))
	}
	if res.Nodes[0].Class != "rt_ns-b0_10" || res.Nodes[1].Class != "rt_ns-b0_01" {
		t.Errorf("unexpected block classes %q %q", res.Nodes[0].Class, res.Nodes[1].Class)
	}

	mobile, tablet := mediaRules(t, res.Stylesheet, 0), mediaRules(t, res.Stylesheet, 1)
	checks := []struct {
		rules    []css.Rule
		selector string
		want     string
	}{
		{mobile, ".rt_ns-b0_10", "block"},
		{mobile, ".rt_ns-b0_01", "none"},
		{tablet, ".rt_ns-b0_10", "none"},
		{tablet, ".rt_ns-b0_01", "block"},
	}
	for _, c := range checks {
		if got := property(t, c.rules, c.selector, "display"); got != c.want {
			t.Errorf("%s display = %q, want %q", c.selector, got, c.want)
		}
		if got := property(t, c.rules, c.selector, "white-space"); got != "pre-wrap" {
			t.Errorf("%s white-space = %q", c.selector, got)
		}
	}
	if _, ok := findRule(mobile, ".rt_ns-b0_01 .s-6-10"); ok {
		t.Error("mobile must not carry tablet span rule")
	}
}

func TestConvert_CodePointOffsets(t *testing.T) {
	in := richtext.Input{
		Text:   "héllo 🎉 wörld\n",
		Blocks: []richtext.Block{{Start: 0, End: 13}},
		Styles: map[string][]richtext.StyleRange{
			"mobile": {{Start: 6, End: 7, Style: richtext.StyleFontWeight, Value: "700"}},
		},
	}

	res := convert(t, in, testBreakpoints[:1], richtext.Options{Namespace: "ns"})

	kids := res.Nodes[0].Children
	if len(kids) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(kids))
	}
	if kids[0].Text != "héllo " || kids[1].Text != "🎉" || kids[2].Text != " wörld\n" {
		t.Errorf("unexpected spans %q %q %q", kids[0].Text, kids[1].Text, kids[2].Text)
	}
}

func TestConvert_Modes(t *testing.T) {
	in := richtext.Input{
		Text:   "Text\n",
		Blocks: []richtext.Block{{Start: 0, End: 4}},
		Styles: map[string][]richtext.StyleRange{
			"mobile":  {{Start: 0, End: 4, Style: richtext.StyleFontStyle, Value: "italic"}},
			"desktop": {{Start: 0, End: 4, Style: richtext.StyleFontStyle, Value: "bold"}},
		},
	}

	t.Run("live", func(t *testing.T) {
		res := convert(t, in, testBreakpoints, richtext.Options{Namespace: "ns"})

		blocks := res.Stylesheet.MediaBlocks()
		if len(blocks) != 3 || len(blocks) != len(res.Stylesheet.Items) {
			t.Fatalf("expected only 3 media blocks, got %d of %d items", len(blocks), len(res.Stylesheet.Items))
		}
		want := []string{
			"(min-width: 0px) and (max-width: 767px)",
			"(min-width: 768px) and (max-width: 1023px)",
			"(min-width: 1024px)",
		}
		for i, w := range want {
			if got := blocks[i].Query.String(); got != w {
				t.Errorf("media block %d = %q, want %q", i, got, w)
			}
		}
	})

	t.Run("editing", func(t *testing.T) {
		res := convert(t, in, testBreakpoints, richtext.Options{Namespace: "ns", Editing: true, ActiveBreakpoint: "desktop"})

		if len(res.Stylesheet.MediaBlocks()) != 0 {
			t.Error("editing mode must not produce media blocks")
		}
		text := res.StylesheetText()
		if !strings.Contains(text, "font-weight: bold;") {
			t.Errorf("expected desktop rules, got:\n%s", text)
		}
		if strings.Contains(text, "font-style: italic;") {
			t.Errorf("mobile rules leaked into editing stylesheet:\n%s", text)
		}
	})
}

func TestConvert_UnsortedBreakpoints(t *testing.T) {
	bps := richtext.Breakpoints{testBreakpoints[2], testBreakpoints[0], testBreakpoints[1]}
	in := richtext.Input{Text: "x\n", Blocks: []richtext.Block{{Start: 0, End: 1}}}

	res := convert(t, in, bps, richtext.Options{Namespace: "ns"})

	blocks := res.Stylesheet.MediaBlocks()
	if len(blocks) != 3 || blocks[0].Query.MinWidth != 0 || blocks[2].Query.HasMax {
		t.Errorf("breakpoints were not ordered by activation width")
	}
}

func TestConvert_Errors(t *testing.T) {
	in := richtext.Input{Text: "x\n", Blocks: []richtext.Block{{Start: 0, End: 1}}}

	tests := []struct {
		name string
		bps  richtext.Breakpoints
		opts richtext.Options
		want error
	}{
		{"no breakpoints", nil, richtext.Options{}, richtext.ErrNoBreakpoints},
		{"editing without active", testBreakpoints, richtext.Options{Editing: true}, richtext.ErrUnknownBreakpoint},
		{"unknown active in editing", testBreakpoints, richtext.Options{Editing: true, ActiveBreakpoint: "watch"}, richtext.ErrUnknownBreakpoint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := richtext.New(zaptest.NewLogger(t)).Convert(in, tt.bps, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("Convert() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConvert_LiveIgnoresActiveBreakpoint(t *testing.T) {
	in := richtext.Input{Text: "x\n", Blocks: []richtext.Block{{Start: 0, End: 1}}}

	res := convert(t, in, testBreakpoints, richtext.Options{Namespace: "ns", ActiveBreakpoint: "watch"})
	if got := len(res.Stylesheet.MediaBlocks()); got != len(testBreakpoints) {
		t.Errorf("expected %d media blocks, got %d", len(testBreakpoints), got)
	}
}

func TestConvert_EmptyInput(t *testing.T) {
	res := convert(t, richtext.Input{}, testBreakpoints, richtext.Options{})

	if len(res.Nodes) != 0 {
		t.Errorf("expected no nodes, got %d", len(res.Nodes))
	}
	for _, mb := range res.Stylesheet.MediaBlocks() {
		if len(mb.Rules) != 0 {
			t.Errorf("expected empty media block, got %d rules", len(mb.Rules))
		}
	}
}

func TestConvert_UnknownStyleDropped(t *testing.T) {
	in := richtext.Input{
		Text:   "Text\n",
		Blocks: []richtext.Block{{Start: 0, End: 4}},
		Styles: map[string][]richtext.StyleRange{
			"mobile": {{Start: 0, End: 4, Style: "COLOR", Value: "red"}},
		},
	}

	res := convert(t, in, testBreakpoints[:1], richtext.Options{Namespace: "ns"})

	kids := res.Nodes[0].Children
	if len(kids) != 1 || kids[0].Class != "" {
		t.Errorf("unknown style must not produce styled span: %v", kids)
	}
}

func TestConvert_NamespaceSanitized(t *testing.T) {
	in := richtext.Input{Text: "x\n", Blocks: []richtext.Block{{Start: 0, End: 1}}}

	res := convert(t, in, testBreakpoints[:1], richtext.Options{Namespace: ":r1:"})

	if res.Nodes[0].Class != "rt_r1-b0_1" {
		t.Errorf("unexpected class %q", res.Nodes[0].Class)
	}
}

func TestConvert_StylesheetParsesBack(t *testing.T) {
	in := richtext.Input{
		Text:   "Heading\n\nBody text\n",
		Blocks: []richtext.Block{{Start: 0, End: 7}, {Start: 8, End: 8}, {Start: 9, End: 18}},
		Styles: map[string][]richtext.StyleRange{
			"mobile": {
				{Start: 0, End: 7, Style: richtext.StyleTypeface, Value: "Inter"},
				{Start: 0, End: 7, Style: richtext.StyleLineHeight, Value: "0.05"},
			},
			"desktop": {{Start: 9, End: 13, Style: richtext.StyleLetterSpacing, Value: "0.001"}},
		},
	}

	res := convert(t, in, testBreakpoints, richtext.Options{Namespace: "ns"})

	sheet := css.NewParser(zaptest.NewLogger(t)).Parse([]byte(res.StylesheetText()))
	if len(sheet.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", sheet.Warnings)
	}
	if len(sheet.Items) != len(res.Stylesheet.Items) {
		t.Fatalf("got %d items after parsing, want %d", len(sheet.Items), len(res.Stylesheet.Items))
	}

	rules := sheet.Resolve(400)
	if got := property(t, rules, ".rt_ns-b0_100 .s-0-7", "font-family"); got != `"Inter"` {
		t.Errorf("font-family = %q", got)
	}
	if got := property(t, rules, ".rt_ns_br_1", "line-height"); got != "18.75px" {
		t.Errorf("line-height = %q", got)
	}
	if got := property(t, sheet.Resolve(1500), ".rt_ns-b2_001 .s-0-4", "letter-spacing"); got != "1.44px" {
		t.Errorf("letter-spacing = %q", got)
	}
}
