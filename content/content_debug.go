package content

import (
	"unicode/utf8"

	"rtc/utils/debug"
)

// String returns a readable tree of the whole Content: layouts, blocks with
// their text and entities and style ranges per layout.
// It exists solely for manual inspection during debugging.
func (c *Content) String() string {
	if c == nil {
		return "<nil Content>"
	}

	tw := debug.NewTreeWriter()
	tw.Line(0, "Content %q namespace %q", c.SrcName, c.Namespace)

	tw.Line(0, "Layouts: %d", len(c.Breakpoints))
	for _, bp := range c.Breakpoints.Sorted() {
		tw.Line(1, "Layout[%q] title[%q] starts[%v] exemplary[%v]", bp.ID, bp.Title, bp.ActivationWidth, bp.ExemplaryWidth)
	}

	if c.Doc == nil {
		return tw.String()
	}
	text := []rune(c.Doc.Text)

	tw.Line(0, "Text: %d code points", utf8.RuneCountInString(c.Doc.Text))
	tw.Line(0, "Blocks: %d", len(c.Doc.Blocks))
	for i, b := range c.Doc.Blocks {
		tw.Line(1, "Block[%d] type[%q] range[%d, %d]", i, b.Type, b.Start, b.End)
		tw.TextBlock(2, "Text", slice(text, b.Start, b.End+1))
		for j, e := range b.Entities {
			if e.Data == nil {
				tw.Line(2, "Entity[%d] type[%q] range[%d, %d) removed", j, e.Type, e.Start, e.End)
				continue
			}
			tw.Line(2, "Entity[%d] type[%q] range[%d, %d) url[%q] target[%q]", j, e.Type, e.Start, e.End, e.Data.URL, e.Data.Target)
		}
	}

	tw.Line(0, "Layout styles: %d", len(c.Doc.LayoutStyles))
	for _, id := range debug.SortedKeys(c.Doc.LayoutStyles) {
		styles := c.Doc.LayoutStyles[id]
		tw.Line(1, "Layout[%q] (%d styles)", id, len(styles))
		for _, s := range styles {
			tw.Line(2, "%s[%q] range[%d, %d)", s.Style, s.Value, s.Start, s.End)
		}
	}
	return tw.String()
}

func slice(text []rune, start, end int) string {
	start, end = max(start, 0), min(end, len(text))
	if start >= end {
		return ""
	}
	return string(text[start:end])
}
