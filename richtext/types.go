package richtext

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrNoBreakpoints is returned when converter is called without any breakpoint.
	ErrNoBreakpoints = errors.New("no breakpoints")
	// ErrUnknownBreakpoint is returned when requested breakpoint id is not in the list.
	ErrUnknownBreakpoint = errors.New("unknown breakpoint")
)

// Block is one paragraph of the text buffer. End is inclusive: block covers
// code points [Start, End+1). Entity coordinates are block local.
type Block struct {
	Start    int
	End      int
	Type     string
	Entities []Entity
}

// EntityData is payload of the hyperlink entity.
type EntityData struct {
	URL    string
	Target string
}

// Entity marks hyperlink range [Start, End) inside a block. Entity without
// Data is a tombstone (its target was removed) and is ignored.
type Entity struct {
	Start int
	End   int
	Type  string
	Data  *EntityData
}

// Live reports whether entity carries data.
func (e Entity) Live() bool {
	return e.Data != nil
}

// StyleRange applies named style to code points [Start, End) of the buffer.
type StyleRange struct {
	Start int
	End   int
	Style StyleName
	Value string
}

// Breakpoint is a responsive layout tier. ActivationWidth is the smallest
// viewport width the breakpoint applies to, ExemplaryWidth is reference
// width fractional style magnitudes are scaled against.
type Breakpoint struct {
	ID              string
	Title           string
	ActivationWidth float64
	ExemplaryWidth  float64
}

// Breakpoints is list of breakpoints ordered by activation width.
type Breakpoints []Breakpoint

// Sorted returns copy of the list ordered by activation width, original
// order is kept for equal widths.
func (bps Breakpoints) Sorted() Breakpoints {
	sorted := slices.Clone(bps)
	slices.SortStableFunc(sorted, func(a, b Breakpoint) int {
		return cmp.Compare(a.ActivationWidth, b.ActivationWidth)
	})
	return sorted
}

// Find returns position of breakpoint with the given id.
func (bps Breakpoints) Find(id string) (int, bool) {
	idx := slices.IndexFunc(bps, func(bp Breakpoint) bool { return bp.ID == id })
	return idx, idx >= 0
}

// Get returns breakpoint with the given id.
func (bps Breakpoints) Get(id string) (Breakpoint, error) {
	idx, ok := bps.Find(id)
	if !ok {
		return Breakpoint{}, fmt.Errorf("%w: %q", ErrUnknownBreakpoint, id)
	}
	return bps[idx], nil
}

// Input is everything converter needs to know about a document. Styles are
// keyed by breakpoint id, breakpoint without entry has no styling.
type Input struct {
	Text   string
	Blocks []Block
	Styles map[string][]StyleRange
}

// Options controls a single conversion.
type Options struct {
	// Namespace makes generated class names unique between several rendered
	// documents on the same page. It is sanitized before use.
	Namespace string
	// ActiveBreakpoint selects breakpoint rules emitted in editing mode.
	ActiveBreakpoint string
	// Editing requests only active breakpoint rules without media conditions.
	Editing bool
}
