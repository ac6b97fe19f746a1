package richtext

// symbols is text indexed by code point. All range coordinates are code point
// offsets, while Go strings are indexed by bytes.
type symbols []rune

func newSymbols(text string) symbols {
	return symbols([]rune(text))
}

func (s symbols) len() int {
	return len(s)
}

// slice returns text of code points [start, end). Out of range coordinates
// are clamped, inverted range produces empty string.
func (s symbols) slice(start, end int) string {
	start = max(0, min(start, len(s)))
	end = max(0, min(end, len(s)))
	if start >= end {
		return ""
	}
	return string(s[start:end])
}

// sub returns code points [start, end) as new symbols without copying.
func (s symbols) sub(start, end int) symbols {
	start = max(0, min(start, len(s)))
	end = max(start, min(end, len(s)))
	return s[start:end]
}
