package content

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"rtc/richtext"
)

// Block types, same names editor uses.
const (
	BlockUnstyled      = "unstyled"
	BlockBlockquote    = "blockquote"
	BlockCode          = "code-block"
	BlockUnorderedItem = "unordered-list-item"
	BlockOrderedItem   = "ordered-list-item"
)

var headingTypes = [...]string{"header-one", "header-two", "header-three", "header-four", "header-five", "header-six"}

// heading font sizes in pixels by level, scaled to layout exemplary width
var headingSizes = [...]float64{32, 28, 24, 20, 18, 16}

// markdown is goldmark with extensions we can express, tables are not
// supported and stay plain text.
var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.Strikethrough,
		extension.Linkify,
	),
)

// mdBuilder walks markdown AST accumulating document text, blocks and styles.
type mdBuilder struct {
	src  []byte
	bps  richtext.Breakpoints
	text strings.Builder
	pos  int // code points written so far

	blocks []Block
	styles LayoutStyles

	inBlock    bool
	blockStart int
	entities   []Entity
	separate   bool   // blank line is due before next block
	prefix     string // list item marker for next block
	quoteDepth int
	listDepth  int
	// inline start positions between entering and leaving nodes
	open map[ast.Node]int
}

// FromMarkdown builds document from markdown source. Inline styles apply to
// every breakpoint, heading sizes are scaled for each breakpoint separately.
func FromMarkdown(src []byte, bps richtext.Breakpoints) (*Document, error) {
	if len(bps) == 0 {
		return nil, richtext.ErrNoBreakpoints
	}

	b := &mdBuilder{
		src:    src,
		bps:    bps,
		styles: make(LayoutStyles, len(bps)),
		open:   map[ast.Node]int{},
	}
	for _, bp := range bps {
		b.styles[bp.ID] = []Style{}
	}

	root := markdown.Parser().Parse(text.NewReader(src))
	if err := ast.Walk(root, b.walk); err != nil {
		return nil, fmt.Errorf("unable to process markdown: %w", err)
	}

	return &Document{
		Text:         b.text.String(),
		Blocks:       b.blocks,
		LayoutStyles: b.styles,
	}, nil
}

func (b *mdBuilder) write(s string) {
	if !b.inBlock || s == "" {
		return
	}
	b.text.WriteString(s)
	b.pos += utf8.RuneCountInString(s)
}

// blank emits empty line sentinel block.
func (b *mdBuilder) blank() {
	b.text.WriteByte('\n')
	b.blocks = append(b.blocks, Block{Start: b.pos, End: b.pos, Type: BlockUnstyled, Entities: []Entity{}})
	b.pos++
}

func (b *mdBuilder) startBlock() {
	if b.separate && len(b.blocks) > 0 {
		b.blank()
	}
	b.separate = false
	b.inBlock = true
	b.blockStart = b.pos
	b.entities = []Entity{}
	if b.prefix != "" {
		b.write(b.prefix)
		b.prefix = ""
	}
}

// endBlock terminates block with new line, end is inclusive and covers it.
func (b *mdBuilder) endBlock(typ string) {
	if b.quoteDepth > 0 && typ != BlockCode {
		typ = BlockBlockquote
		b.addStyle(b.blockStart, b.pos, richtext.StyleFontStyle, "italic")
	}
	b.text.WriteByte('\n')
	b.blocks = append(b.blocks, Block{Start: b.blockStart, End: b.pos, Type: typ, Entities: b.entities})
	b.pos++
	b.inBlock = false
}

func (b *mdBuilder) addStyle(start, end int, name richtext.StyleName, value string) {
	if end <= start {
		return
	}
	for _, bp := range b.bps {
		b.styles[bp.ID] = append(b.styles[bp.ID], Style{Start: start, End: end, Style: string(name), Value: value})
	}
}

func (b *mdBuilder) addLink(start int, url string) {
	if !b.inBlock || b.pos <= start || url == "" {
		return
	}
	b.entities = append(b.entities, Entity{
		Start: start - b.blockStart,
		End:   b.pos - b.blockStart,
		Type:  "LINK",
		Data:  &EntityData{URL: url, Target: "_self"},
	})
}

func (b *mdBuilder) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering && node.Parent() != nil && node.Parent().Kind() == ast.KindDocument && node.PreviousSibling() != nil {
		b.separate = true
	}

	switch n := node.(type) {
	case *ast.Text:
		if entering {
			b.write(string(n.Segment.Value(b.src)))
			switch {
			case n.HardLineBreak():
				b.write("\n")
			case n.SoftLineBreak():
				b.write(" ")
			}
		}

	case *ast.String:
		if entering {
			b.write(string(n.Value))
		}

	case *ast.Paragraph, *ast.TextBlock:
		if entering {
			b.startBlock()
			return ast.WalkContinue, nil
		}
		typ := BlockUnstyled
		if b.listDepth > 0 {
			typ = b.listItemType(node)
		}
		b.endBlock(typ)

	case *ast.Heading:
		if entering {
			b.startBlock()
			b.open[n] = b.pos
			return ast.WalkContinue, nil
		}
		start := b.open[n]
		delete(b.open, n)
		level := min(max(n.Level, 1), len(headingTypes))
		b.addStyle(start, b.pos, richtext.StyleFontWeight, "700")
		if b.pos > start {
			for _, bp := range b.bps {
				b.styles[bp.ID] = append(b.styles[bp.ID], Style{
					Start: start,
					End:   b.pos,
					Style: string(richtext.StyleFontSize),
					Value: strconv.FormatFloat(headingSizes[level-1]/bp.ExemplaryWidth, 'f', -1, 64),
				})
			}
		}
		b.endBlock(headingTypes[level-1])

	case *ast.Emphasis:
		style := "italic"
		if n.Level >= 2 {
			style = "bold"
		}
		b.inline(n, entering, richtext.StyleFontStyle, style)

	case *east.Strikethrough:
		b.inline(n, entering, richtext.StyleTextDecoration, "line-through")

	case *ast.CodeSpan:
		b.inline(n, entering, richtext.StyleTypeface, "monospace")

	case *ast.Link:
		if entering {
			b.open[n] = b.pos
			return ast.WalkContinue, nil
		}
		b.addLink(b.open[n], string(n.Destination))
		delete(b.open, n)

	case *ast.AutoLink:
		if entering {
			start := b.pos
			b.write(string(n.Label(b.src)))
			b.addLink(start, string(n.URL(b.src)))
		}
		return ast.WalkSkipChildren, nil

	case *ast.Blockquote:
		if entering {
			b.quoteDepth++
		} else {
			b.quoteDepth--
		}

	case *ast.List:
		if entering {
			b.listDepth++
		} else {
			b.listDepth--
		}

	case *ast.ListItem:
		if entering {
			b.prefix = listMarker(n, b.listDepth)
		} else {
			b.prefix = ""
		}

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if !entering {
			return ast.WalkContinue, nil
		}
		lines := node.Lines()
		for i := range lines.Len() {
			line := lines.At(i)
			b.startBlock()
			start := b.pos
			b.write(strings.TrimRight(string(line.Value(b.src)), "\r\n"))
			b.addStyle(start, b.pos, richtext.StyleTypeface, "monospace")
			b.endBlock(BlockCode)
		}
		return ast.WalkSkipChildren, nil

	case *ast.ThematicBreak:
		if entering {
			b.separate = false
			if len(b.blocks) > 0 {
				b.blank()
			}
			b.separate = true
		}

	case *ast.HTMLBlock, *ast.RawHTML:
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

// inline records style over text produced by node children.
func (b *mdBuilder) inline(n ast.Node, entering bool, style richtext.StyleName, value string) {
	if entering {
		b.open[n] = b.pos
		return
	}
	b.addStyle(b.open[n], b.pos, style, value)
	delete(b.open, n)
}

func (b *mdBuilder) listItemType(n ast.Node) string {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if l, ok := p.(*ast.List); ok {
			if l.IsOrdered() {
				return BlockOrderedItem
			}
			return BlockUnorderedItem
		}
	}
	return BlockUnstyled
}

// listMarker returns indented bullet or number for list item.
func listMarker(item *ast.ListItem, depth int) string {
	indent := strings.Repeat("  ", max(depth-1, 0))
	list, ok := item.Parent().(*ast.List)
	if !ok || !list.IsOrdered() {
		return indent + "• "
	}
	idx := list.Start
	for s := item.PreviousSibling(); s != nil; s = s.PreviousSibling() {
		idx++
	}
	return indent + strconv.Itoa(idx) + ". "
}
