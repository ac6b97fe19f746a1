package richtext

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"rtc/css"
)

// Result is rendered document: markup tree and stylesheet which goes with it.
type Result struct {
	Nodes      []*Node
	Stylesheet *css.Stylesheet
}

// StylesheetText returns stylesheet as text ready to be put into style element.
func (r *Result) StylesheetText() string {
	if r == nil || r.Stylesheet == nil {
		return ""
	}
	return r.Stylesheet.String()
}

// Converter turns annotated text into render nodes and responsive stylesheet.
// It keeps no state between calls and could be used concurrently.
type Converter struct {
	log *zap.Logger
}

// New creates converter.
func New(log *zap.Logger) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Converter{log: log.Named("richtext")}
}

// Convert is a shortcut for converter without logging.
func Convert(in Input, bps Breakpoints, opts Options) (*Result, error) {
	return New(nil).Convert(in, bps, opts)
}

// Convert renders input for all breakpoints. Breakpoints are processed in
// order of their activation width.
func (c *Converter) Convert(in Input, bps Breakpoints, opts Options) (*Result, error) {
	if len(bps) == 0 {
		return nil, ErrNoBreakpoints
	}
	bps = bps.Sorted()

	// active breakpoint means nothing in live mode and is ignored there
	active := -1
	if opts.Editing {
		if opts.ActiveBreakpoint == "" {
			return nil, fmt.Errorf("editing mode requires active breakpoint: %w", ErrUnknownBreakpoint)
		}
		idx, ok := bps.Find(opts.ActiveBreakpoint)
		if !ok {
			return nil, fmt.Errorf("active breakpoint: %w: %q", ErrUnknownBreakpoint, opts.ActiveBreakpoint)
		}
		active = idx
	}

	r := &render{
		ns:     SanitizeNamespace(opts.Namespace),
		bps:    bps,
		text:   newSymbols(in.Text),
		styles: c.knownStyles(in.Styles),
		rules:  make([][]*css.Rule, len(bps)),
	}

	var nodes []*Node
	acc := seedLineHeights(bps, r.styles)
	for idx, block := range in.Blocks {
		var blockNodes []*Node
		blockNodes, acc = r.block(idx, block, acc)
		nodes = append(nodes, blockNodes...)
	}

	sheet := &css.Stylesheet{}
	if opts.Editing {
		for _, rule := range r.rules[active] {
			sheet.AddRule(rule)
		}
	} else {
		for i := range bps {
			rules := make([]css.Rule, 0, len(r.rules[i]))
			for _, rule := range r.rules[i] {
				rules = append(rules, *rule)
			}
			sheet.AddMediaBlock(mediaQueryAt(bps, i), rules)
		}
	}

	c.log.Debug("Rich text converted",
		zap.Int("blocks", len(in.Blocks)),
		zap.Int("nodes", len(nodes)),
		zap.Int("breakpoints", len(bps)),
		zap.Bool("editing", opts.Editing))

	return &Result{Nodes: nodes, Stylesheet: sheet}, nil
}

// knownStyles drops style ranges with names outside of known vocabulary.
func (c *Converter) knownStyles(styles map[string][]StyleRange) map[string][]StyleRange {
	var errs error
	known := make(map[string][]StyleRange, len(styles))
	for id, list := range styles {
		kept := make([]StyleRange, 0, len(list))
		for _, s := range list {
			if !s.Style.IsValid() {
				errs = multierr.Append(errs, fmt.Errorf("breakpoint %q: [%d,%d): %q", id, s.Start, s.End, s.Style))
				continue
			}
			kept = append(kept, s)
		}
		known[id] = kept
	}
	if errs != nil {
		c.log.Warn("Unknown styles ignored", zap.Error(errs))
	}
	return known
}

// render is state of a single conversion call. Collected rules are indexed by
// breakpoint position.
type render struct {
	ns     string
	bps    Breakpoints
	text   symbols
	styles map[string][]StyleRange
	rules  [][]*css.Rule
}

// block renders single block, line heights are threaded from block to block.
func (r *render) block(idx int, block Block, acc lineHeights) ([]*Node, lineHeights) {
	content := r.text.sub(block.Start, block.End+1)

	if content.len() == 1 {
		class := fmt.Sprintf("rt_%s_br_%d", r.ns, idx)
		for i, bp := range r.bps {
			lh, ok := acc.current(bp.ID)
			if !ok {
				continue
			}
			rule := css.NewRule("." + class).Set("line-height", scaledLength(lh, bp.ExemplaryWidth))
			if rule.Empty() {
				continue
			}
			r.rules[i] = append(r.rules[i], rule)
		}
		return []*Node{{Kind: KindLineBreak, Class: class}}, acc
	}

	entities := liveEntities(block.Entities)

	// breakpoints having the same group boundaries share markup
	perBreakpoint := make([][]StyleGroup, len(r.bps))
	var (
		keys    []string
		members = make(map[string][]int)
	)
	for i, bp := range r.bps {
		perBreakpoint[i] = normalizeStyles(blockStyles(r.styles[bp.ID], block), entities)
		key := serializeRanges(perBreakpoint[i])
		if _, ok := members[key]; !ok {
			keys = append(keys, key)
		}
		members[key] = append(members[key], i)
	}

	nodes := make([]*Node, 0, len(keys))
	for _, key := range keys {
		group := members[key]
		blockClass := fmt.Sprintf("rt_%s-b%d_%s", r.ns, idx, r.mask(group))

		for i := range r.bps {
			display := "none"
			if isMember(group, i) {
				display = "block"
			}
			r.rules[i] = append(r.rules[i], css.NewRule("."+blockClass).
				Set("display", display).
				Set("text-align", "initial").
				Set("white-space", "pre-wrap").
				Set("overflow-wrap", "break-word"))
		}

		children := assemble(content, groupEntities(entities, perBreakpoint[group[0]]))

		for _, i := range group {
			bp := r.bps[i]
			for _, seg := range groupEntities(entities, perBreakpoint[i]) {
				for _, sg := range seg.Groups {
					acc = acc.with(bp.ID, sg)
					rule := css.NewRule(fmt.Sprintf(".%s .%s", blockClass, spanClass(sg)))
					applyStyles(rule, sg.Styles, bp.ExemplaryWidth)
					r.rules[i] = append(r.rules[i], rule)
				}
			}
		}

		nodes = append(nodes, &Node{Kind: KindBlock, Class: blockClass, Children: children})
	}
	return nodes, acc
}

// mask has one character per breakpoint: 1 for group members, 0 otherwise.
func (r *render) mask(group []int) string {
	var sb strings.Builder
	for i := range r.bps {
		if isMember(group, i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func isMember(group []int, i int) bool {
	return slices.Contains(group, i)
}

func spanClass(sg StyleGroup) string {
	return fmt.Sprintf("s-%d-%d", sg.Start, sg.End)
}

// assemble builds inline nodes of the block. Text not covered by style groups
// goes into plain spans, segments with links are wrapped.
func assemble(content symbols, segments []Segment) []*Node {
	var (
		kids   []*Node
		offset int
	)
	plain := func(list []*Node, start, end int) []*Node {
		if text := content.slice(start, end); text != "" {
			list = append(list, newSpan("", text))
		}
		return list
	}

	for _, seg := range segments {
		var segKids []*Node
		if offset < seg.Start {
			kids = plain(kids, offset, seg.Start)
			offset = seg.Start
		}
		for _, sg := range seg.Groups {
			if offset < sg.Start {
				segKids = plain(segKids, offset, sg.Start)
			}
			segKids = append(segKids, newSpan(spanClass(sg), content.slice(sg.Start, sg.End)))
			offset = sg.End
		}
		if offset < seg.End {
			segKids = plain(segKids, offset, seg.End)
			offset = seg.End
		}
		if seg.Link != nil {
			kids = append(kids, &Node{
				Kind:     KindLink,
				URL:      seg.Link.URL,
				Target:   seg.Link.Target,
				Children: segKids,
			})
			continue
		}
		kids = append(kids, segKids...)
	}
	if offset < content.len() {
		kids = plain(kids, offset, content.len())
	}
	return kids
}
