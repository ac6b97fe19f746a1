package css

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// cssEscapeDoubleQuoted escapes a string for use inside CSS double quotes.
// Backslashes and double quotes are escaped per CSS syntax: \" and \\.
func cssEscapeDoubleQuoted(s string) string {
	// Fast path: nothing to escape.
	if !strings.ContainsAny(s, `"\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Quote wraps s in double quotes escaping it as necessary.
func Quote(s string) string {
	return `"` + cssEscapeDoubleQuoted(s) + `"`
}

// Number formats n using the shortest decimal representation which reads
// back to the same float64 (28.8, 15.36, 1024).
func Number(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Px formats n as CSS pixel length.
func Px(n float64) string {
	return Number(n) + "px"
}

// MediaQuery represents a parsed @media query condition. Only viewport width
// features are understood, everything else is kept in Raw.
type MediaQuery struct {
	Raw      string  // Original (or generated) media query string
	Type     string  // Media type (e.g., "screen", "all") if present
	Negated  bool    // true if "not" modifier was used on main type
	MinWidth float64 // min-width in px, valid when HasMin is set
	MaxWidth float64 // max-width in px, valid when HasMax is set
	HasMin   bool
	HasMax   bool
}

// NewWidthQuery creates media query for [minWidth, maxWidth] range. When
// hasMax is false the range is open ended.
func NewWidthQuery(minWidth, maxWidth float64, hasMax bool) MediaQuery {
	mq := MediaQuery{MinWidth: minWidth, HasMin: true, MaxWidth: maxWidth, HasMax: hasMax}
	mq.Raw = mq.String()
	return mq
}

// String returns canonical text of the width condition, or Raw when query
// does not have one.
func (mq MediaQuery) String() string {
	if !mq.HasMin && !mq.HasMax {
		return mq.Raw
	}
	var parts []string
	if mq.Type != "" {
		t := mq.Type
		if mq.Negated {
			t = "not " + t
		}
		parts = append(parts, t)
	}
	if mq.HasMin {
		parts = append(parts, "(min-width: "+Px(mq.MinWidth)+")")
	}
	if mq.HasMax {
		parts = append(parts, "(max-width: "+Px(mq.MaxWidth)+")")
	}
	return strings.Join(parts, " and ")
}

// Evaluate returns true if this media query matches viewport of the given
// width in px.
func (mq MediaQuery) Evaluate(width float64) bool {
	var typeMatches bool
	switch strings.ToLower(mq.Type) {
	case "", "all", "screen":
		typeMatches = true
	default:
		typeMatches = false
	}
	if typeMatches {
		if mq.HasMin && width < mq.MinWidth {
			typeMatches = false
		}
		if mq.HasMax && width > mq.MaxWidth {
			typeMatches = false
		}
	}
	if mq.Negated {
		return !typeMatches
	}
	return typeMatches
}

// Value represents a parsed CSS property value.
type Value struct {
	Raw     string  // Original CSS value string (e.g., "28.8px", "bold", "\"Inter\"")
	Value   float64 // Numeric value if applicable
	Unit    string  // Unit if applicable: "px", "em", "%", etc.
	Keyword string  // Keyword if applicable: "bold", "italic", "uppercase", etc.
}

// IsNumeric returns true if the value has a numeric component.
// This includes explicit zero values like "0" or "0px".
func (v Value) IsNumeric() bool {
	if v.Unit != "" {
		return true
	}
	if v.Value != 0 && v.Keyword == "" {
		return true
	}
	// handles "0"
	if v.Raw != "" && v.Keyword == "" {
		firstChar := rune(v.Raw[0])
		if unicode.IsDigit(firstChar) || firstChar == '.' || firstChar == '-' || firstChar == '+' {
			return true
		}
	}
	return false
}

// IsKeyword returns true if the value is a keyword (no numeric component).
func (v Value) IsKeyword() bool {
	return v.Keyword != "" && v.Unit == ""
}

// Selector represents a parsed CSS selector with its components.
type Selector struct {
	Raw      string    // Original selector string
	Element  string    // Element name (e.g., "span", "div") or empty for class-only
	Class    string    // Class name without dot or empty
	Ancestor *Selector // Ancestor selector for descendant selectors (".blk .s-0-4" -> Ancestor is ".blk")
}

// IsSimple returns true if this is a simple selector (element, class, or element.class).
func (s Selector) IsSimple() bool {
	return s.Element != "" || s.Class != ""
}

// DescendantBaseName returns the base name for the rightmost part of the selector.
// Class takes precedence over element.
func (s Selector) DescendantBaseName() string {
	switch {
	case s.Class != "":
		return s.Class
	case s.Element != "":
		return s.Element
	default:
		return s.Raw
	}
}

// ParseSelector splits selector text into its parts. Combinators other than
// descendant, attribute selectors and pseudo classes are not understood and
// result in selector which is not simple.
func ParseSelector(selStr string) Selector {
	selStr = strings.TrimSpace(selStr)
	if strings.ContainsAny(selStr, "+~>[:") {
		return Selector{Raw: selStr}
	}
	parts := strings.Fields(selStr)
	switch len(parts) {
	case 0:
		return Selector{Raw: selStr}
	case 1:
		return parseSimpleSelector(parts[0])
	}
	sel := parseSimpleSelector(parts[len(parts)-1])
	sel.Raw = strings.Join(parts, " ")
	if !sel.IsSimple() {
		return Selector{Raw: selStr}
	}
	ancestor := ParseSelector(strings.Join(parts[:len(parts)-1], " "))
	if ancestor.IsSimple() {
		sel.Ancestor = &ancestor
	}
	return sel
}

// parseSimpleSelector parses a simple selector (element, class, or element.class).
func parseSimpleSelector(selStr string) Selector {
	sel := Selector{Raw: selStr}
	if element, class, found := strings.Cut(selStr, "."); found {
		sel.Element = element
		sel.Class = class
	} else {
		sel.Element = selStr
	}
	return sel
}

// Rule represents a single CSS rule (selector + properties).
type Rule struct {
	Selector   Selector         // Parsed selector
	Properties map[string]Value // Property name -> value
	SourceLine int              // Line of the rule in parsed source, 0 for rules built in code
}

// NewRule creates empty rule for a selector.
func NewRule(selector string) *Rule {
	return &Rule{
		Selector:   ParseSelector(selector),
		Properties: make(map[string]Value),
	}
}

// Set sets property to raw value. Empty values are ignored.
func (r *Rule) Set(name, raw string) *Rule {
	if len(raw) == 0 {
		return r
	}
	r.Properties[name] = Value{Raw: raw}
	return r
}

// Empty returns true when rule has no declarations.
func (r Rule) Empty() bool {
	return len(r.Properties) == 0
}

// GetProperty returns the value for a property, or empty Value if not found.
func (r Rule) GetProperty(name string) (Value, bool) {
	v, ok := r.Properties[name]
	return v, ok
}

// StylesheetItem is a single top-level item in a stylesheet.
// Exactly one of Rule or MediaBlock is non-nil.
type StylesheetItem struct {
	Rule       *Rule       // A plain rule (selector + properties)
	MediaBlock *MediaBlock // A @media block containing nested rules
}

// MediaBlock represents a @media block with its query and nested rules.
type MediaBlock struct {
	Query MediaQuery
	Rules []Rule
}

// Stylesheet represents CSS stylesheet, either produced by converter or parsed.
type Stylesheet struct {
	Items    []StylesheetItem // All top-level items in source order
	Warnings []string         // Warnings for unsupported features
}

// AddRule appends plain rule to the stylesheet.
func (s *Stylesheet) AddRule(rule *Rule) {
	s.Items = append(s.Items, StylesheetItem{Rule: rule})
}

// AddMediaBlock appends @media block to the stylesheet.
func (s *Stylesheet) AddMediaBlock(query MediaQuery, rules []Rule) {
	s.Items = append(s.Items, StylesheetItem{MediaBlock: &MediaBlock{Query: query, Rules: rules}})
}

// MediaBlocks returns all @media blocks in source order.
func (s *Stylesheet) MediaBlocks() []*MediaBlock {
	var blocks []*MediaBlock
	for _, item := range s.Items {
		if item.MediaBlock != nil {
			blocks = append(blocks, item.MediaBlock)
		}
	}
	return blocks
}

// RulesBySelector returns all top-level rules matching the given selector string.
func (s *Stylesheet) RulesBySelector(selector string) []Rule {
	var matches []Rule
	for _, item := range s.Items {
		if item.Rule != nil && item.Rule.Selector.Raw == selector {
			matches = append(matches, *item.Rule)
		}
	}
	return matches
}

// Resolve returns rules which are in effect for viewport of the given width:
// all top-level rules and rules of matching @media blocks, in source order.
func (s *Stylesheet) Resolve(width float64) []Rule {
	var rules []Rule
	for _, item := range s.Items {
		switch {
		case item.Rule != nil:
			rules = append(rules, *item.Rule)
		case item.MediaBlock != nil && item.MediaBlock.Query.Evaluate(width):
			rules = append(rules, item.MediaBlock.Rules...)
		}
	}
	return rules
}

// WriteTo writes the stylesheet to w in source order, implementing io.WriterTo.
// Property order within a rule is sorted alphabetically for deterministic output.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, item := range s.Items {
		var n int
		var err error

		switch {
		case item.MediaBlock != nil:
			n, err = writeMediaBlock(w, item.MediaBlock)
		case item.Rule != nil:
			n, err = writeRule(w, item.Rule, "")
		}

		total += int64(n)
		if err != nil {
			return total, err
		}

		// blank line between items (except after last)
		if i < len(s.Items)-1 {
			n, err = fmt.Fprint(w, "\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// writeRule writes a single CSS rule to w, every line prefixed with indent.
func writeRule(w io.Writer, rule *Rule, indent string) (int, error) {
	var total int
	n, err := fmt.Fprintf(w, "%s%s {\n", indent, rule.Selector.Raw)
	total += n
	if err != nil {
		return total, err
	}
	n, err = writeProperties(w, rule.Properties, indent+"  ")
	total += n
	if err != nil {
		return total, err
	}
	n, err = fmt.Fprintf(w, "%s}\n", indent)
	total += n
	return total, err
}

// writeProperties writes property declarations sorted alphabetically.
func writeProperties(w io.Writer, props map[string]Value, indent string) (int, error) {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	var total int
	for _, name := range names {
		n, err := fmt.Fprintf(w, "%s%s: %s;\n", indent, name, props[name].Raw)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// writeMediaBlock writes an @media block to w.
func writeMediaBlock(w io.Writer, mb *MediaBlock) (int, error) {
	var total int
	n, err := fmt.Fprintf(w, "@media %s {\n", mb.Query.String())
	total += n
	if err != nil {
		return total, err
	}

	for i := range mb.Rules {
		n, err = writeRule(w, &mb.Rules[i], "  ")
		total += n
		if err != nil {
			return total, err
		}
		if i < len(mb.Rules)-1 {
			n, err = fmt.Fprint(w, "\n")
			total += n
			if err != nil {
				return total, err
			}
		}
	}

	n, err = fmt.Fprint(w, "}\n")
	total += n
	return total, err
}
