package richtext

import "maps"

// lineHeights tracks the last line height value seen for every breakpoint.
// Empty line blocks inherit it from preceding text. It is threaded through
// blocks by value: every update returns new accumulator.
type lineHeights map[string]string

// seedLineHeights starts with the first line height found in breakpoint
// styles, regardless of which block it belongs to. Empty lines preceding any
// line height style intentionally take it from a later block.
func seedLineHeights(bps Breakpoints, styles map[string][]StyleRange) lineHeights {
	acc := make(lineHeights, len(bps))
	for _, bp := range bps {
		for _, s := range styles[bp.ID] {
			if s.Style == StyleLineHeight {
				if s.Value != "" {
					acc[bp.ID] = s.Value
				}
				break
			}
		}
	}
	return acc
}

// current returns line height recorded for the breakpoint.
func (acc lineHeights) current(id string) (string, bool) {
	v, ok := acc[id]
	return v, ok
}

// with returns accumulator updated from style group of the breakpoint.
func (acc lineHeights) with(id string, group StyleGroup) lineHeights {
	for _, st := range group.Styles {
		if st.Name != StyleLineHeight || st.Value == "" {
			continue
		}
		if acc[id] == st.Value {
			return acc
		}
		next := maps.Clone(acc)
		next[id] = st.Value
		return next
	}
	return acc
}
