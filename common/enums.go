// Package common keeps enums shared between configuration and processing
// code, so that neither has to import the other for them.
package common

// Specification of requested output type.
// ENUM(fragment, page, split)
type OutputFmt int

// Ext returns file extension of the main (markup) output file.
func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtFragment, OutputFmtPage, OutputFmtSplit:
		return ".html"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}

// SeparateStylesheet reports whether stylesheet goes into its own file.
func (o OutputFmt) SeparateStylesheet() bool {
	return o == OutputFmtSplit
}

// Specification of how stylesheet rules are scoped.
// ENUM(live, editor)
type RenderMode int

// Editing reports whether only active layout rules are emitted.
func (m RenderMode) Editing() bool {
	return m == RenderModeEditor
}
