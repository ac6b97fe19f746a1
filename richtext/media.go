package richtext

import (
	"fmt"

	"rtc/css"
)

// MediaQuery returns width condition breakpoint with the given id is active
// for: from its activation width up to one pixel below activation width of
// the next breakpoint. The widest breakpoint is open ended.
func MediaQuery(id string, bps Breakpoints) (css.MediaQuery, error) {
	if len(bps) == 0 {
		return css.MediaQuery{}, ErrNoBreakpoints
	}
	sorted := bps.Sorted()
	idx, ok := sorted.Find(id)
	if !ok {
		return css.MediaQuery{}, fmt.Errorf("no layout was found by the given id: %w: %q", ErrUnknownBreakpoint, id)
	}
	return mediaQueryAt(sorted, idx), nil
}

// mediaQueryAt expects breakpoints to be sorted.
func mediaQueryAt(sorted Breakpoints, idx int) css.MediaQuery {
	current := sorted[idx]
	if idx+1 >= len(sorted) {
		return css.NewWidthQuery(current.ActivationWidth, 0, false)
	}
	return css.NewWidthQuery(current.ActivationWidth, sorted[idx+1].ActivationWidth-1, true)
}
