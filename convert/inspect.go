package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"rtc/content"
	"rtc/css"
	"rtc/markup"
	"rtc/richtext"
	"rtc/state"
	"rtc/utils/debug"
)

// Inspect renders single document and prints render tree and stylesheet
// summary. Stylesheet is parsed back from its text and markup is parsed as
// HTML, so report shows what browser would get.
func Inspect(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("inspect")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Mailformed command line, too many sources", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	if err := applyRenderFlags(cmd, env); err != nil {
		return err
	}

	var width *float64
	if cmd.IsSet("width") {
		w := cmd.Float("width")
		if w < 0 {
			return fmt.Errorf("viewport width must not be negative: %v", w)
		}
		width = &w
	}

	out := cmd.Root().Writer
	if out == nil {
		out = os.Stdout
	}
	return inspect(ctx, src, width, out, log)
}

func inspect(ctx context.Context, src string, width *float64, out io.Writer, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	ok, enc, err := isContentFile(src)
	if err != nil {
		return fmt.Errorf("unable to check file type: %w", err)
	}
	if !ok {
		return fmt.Errorf("input was not recognized as rich text document (%s)", src)
	}

	file, err := os.Open(src)
	if err != nil {
		return err
	}
	defer file.Close()

	c, err := content.Prepare(ctx, selectReader(file, enc), filepath.Base(src), log)
	if err != nil {
		return fmt.Errorf("unable to prepare document (%s): %w", src, err)
	}
	if env.Rpt == nil {
		defer os.RemoveAll(c.WorkDir)
	}

	opts := env.RenderOptions(c.Namespace)
	res, err := richtext.New(log).Convert(c.Input, c.Breakpoints, opts)
	if err != nil {
		return fmt.Errorf("unable to render document (%s): %w", src, err)
	}

	fragment, err := markup.Fragment(res)
	if err != nil {
		return err
	}
	elements, err := countElements(fragment)
	if err != nil {
		return fmt.Errorf("unable to parse rendered markup: %w", err)
	}
	sheet := css.NewParser(log).Parse([]byte(res.StylesheetText()), src)

	tw := debug.NewTreeWriter()
	tw.Line(0, "Document %q namespace %q mode %s", c.SrcName, c.Namespace, modeName(opts))
	for _, bp := range c.Breakpoints.Sorted() {
		tw.Line(1, "Layout[%q] starts[%v] exemplary[%v]", bp.ID, bp.ActivationWidth, bp.ExemplaryWidth)
	}
	writeRenderTree(tw, res.Nodes)
	writeElements(tw, elements)
	writeStylesheet(tw, sheet, width)

	if _, err := io.WriteString(out, tw.String()); err != nil {
		return fmt.Errorf("unable to write report: %w", err)
	}
	return nil
}

func modeName(opts richtext.Options) string {
	if opts.Editing {
		return "editor(" + opts.ActiveBreakpoint + ")"
	}
	return "live"
}

// renderTree returns readable dump of rendered nodes.
func renderTree(nodes []*richtext.Node) string {
	tw := debug.NewTreeWriter()
	writeRenderTree(tw, nodes)
	return tw.String()
}

func writeRenderTree(tw *debug.TreeWriter, nodes []*richtext.Node) {
	tw.Line(0, "Render tree: %d top level nodes", len(nodes))
	for _, n := range nodes {
		n.Walk(func(node *richtext.Node, depth int) bool {
			tw.Line(depth+1, "%s", node)
			return true
		})
	}
}

// countElements parses markup fragment the way browser does in body context
// and counts elements by tag name.
func countElements(fragment string) (map[string]int, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			counts[n.Data]++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return counts, nil
}

func writeElements(tw *debug.TreeWriter, elements map[string]int) {
	tw.Line(0, "Markup elements: %d kinds", len(elements))
	for _, name := range debug.SortedKeys(elements) {
		tw.Line(1, "%s: %d", name, elements[name])
	}
}

func writeStylesheet(tw *debug.TreeWriter, sheet *css.Stylesheet, width *float64) {
	var rules int
	for _, item := range sheet.Items {
		if item.Rule != nil {
			rules++
		}
	}
	blocks := sheet.MediaBlocks()
	tw.Line(0, "Stylesheet: %d rules, %d media blocks", rules, len(blocks))
	for _, w := range sheet.Warnings {
		tw.Line(1, "Warning: %s", w)
	}

	if width == nil {
		for _, item := range sheet.Items {
			if item.Rule != nil {
				writeRule(tw, 1, item.Rule)
			}
		}
		for _, mb := range blocks {
			tw.Line(1, "@media %s (%d rules)", mb.Query.String(), len(mb.Rules))
			for i := range mb.Rules {
				writeRule(tw, 2, &mb.Rules[i])
			}
		}
		return
	}

	effective := sheet.Resolve(*width)
	tw.Line(0, "Effective at %s: %d rules", css.Px(*width), len(effective))
	for i := range effective {
		writeRule(tw, 1, &effective[i])
	}
}

func writeRule(tw *debug.TreeWriter, depth int, rule *css.Rule) {
	props := make([]string, 0, len(rule.Properties))
	for _, name := range debug.SortedKeys(rule.Properties) {
		props = append(props, name+": "+rule.Properties[name].Raw)
	}
	tw.Line(depth, "%s { %s } (line %d)", rule.Selector.Raw, strings.Join(props, "; "), rule.SourceLine)
}
