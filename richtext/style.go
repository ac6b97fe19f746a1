package richtext

import (
	"cmp"
	"fmt"
	"math"
	"strconv"
	"strings"

	"rtc/css"
)

// StyleName is a closed set of style directives style ranges may carry.
type StyleName string

const (
	StyleTypeface       StyleName = "TYPEFACE"
	StyleFontStyle      StyleName = "FONTSTYLE"
	StyleFontWeight     StyleName = "FONTWEIGHT"
	StyleFontSize       StyleName = "FONTSIZE"
	StyleLineHeight     StyleName = "LINEHEIGHT"
	StyleLetterSpacing  StyleName = "LETTERSPACING"
	StyleWordSpacing    StyleName = "WORDSPACING"
	StyleTextTransform  StyleName = "TEXTTRANSFORM"
	StyleVerticalAlign  StyleName = "VERTICALALIGN"
	StyleTextDecoration StyleName = "TEXTDECORATION"
	StyleFontVariant    StyleName = "FONTVARIANT"
)

var styleNames = []StyleName{
	StyleTypeface,
	StyleFontStyle,
	StyleFontWeight,
	StyleFontSize,
	StyleLineHeight,
	StyleLetterSpacing,
	StyleWordSpacing,
	StyleTextTransform,
	StyleVerticalAlign,
	StyleTextDecoration,
	StyleFontVariant,
}

// ErrInvalidStyleName is returned for style names outside of known vocabulary.
var ErrInvalidStyleName = fmt.Errorf("not a valid StyleName, try [%s]", strings.Join(StyleNames(), ", "))

// StyleNames returns list of all known style names.
func StyleNames() []string {
	names := make([]string, len(styleNames))
	for i, n := range styleNames {
		names[i] = string(n)
	}
	return names
}

// ParseStyleName converts string to StyleName, names are case insensitive.
func ParseStyleName(name string) (StyleName, error) {
	s := StyleName(strings.ToUpper(strings.TrimSpace(name)))
	if s.IsValid() {
		return s, nil
	}
	return "", fmt.Errorf("%s is %w", name, ErrInvalidStyleName)
}

// IsValid returns true when name belongs to known vocabulary.
func (s StyleName) IsValid() bool {
	switch s {
	case StyleTypeface, StyleFontStyle, StyleFontWeight, StyleFontSize, StyleLineHeight,
		StyleLetterSpacing, StyleWordSpacing, StyleTextTransform, StyleVerticalAlign,
		StyleTextDecoration, StyleFontVariant:
		return true
	}
	return false
}

// Scaled reports whether style magnitude is a fraction of exemplary width.
func (s StyleName) Scaled() bool {
	switch s {
	case StyleFontSize, StyleLineHeight, StyleLetterSpacing, StyleWordSpacing:
		return true
	}
	return false
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *StyleName) UnmarshalText(text []byte) error {
	v, err := ParseStyleName(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s StyleName) MarshalText() ([]byte, error) {
	return []byte(s), nil
}

// Style is a resolved style directive of a style group.
type Style struct {
	Name  StyleName
	Value string
}

// font style presets
var fontStylePresets = map[string][2]string{
	"normal": {"font-style", "normal"},
	"bold":   {"font-weight", "bold"},
	"italic": {"font-style", "italic"},
}

// scaledLength converts fractional magnitude to px. Returns empty string when
// value could not be used.
func scaledLength(value string, exemplary float64) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v == 0 {
		return ""
	}
	px := v * exemplary
	if math.IsNaN(px) || math.IsInf(px, 0) || px == 0 {
		return ""
	}
	return css.Px(px)
}

// fontFamily quotes typeface unless value is already quoted.
func fontFamily(value string) string {
	if strings.Contains(value, `"`) {
		return value
	}
	return css.Quote(value)
}

// forcesZeroLineHeight reports whether vertical alignment requires line
// height to be collapsed.
func forcesZeroLineHeight(value string) bool {
	return value == "super" || value == "sub"
}

// apply adds CSS declarations for the style to the rule. Empty values are not
// emitted, except where style has a default.
func (st Style) apply(rule *css.Rule, exemplary float64) {
	switch st.Name {
	case StyleTypeface:
		if st.Value != "" {
			rule.Set("font-family", fontFamily(st.Value))
		}
	case StyleFontStyle:
		if preset, ok := fontStylePresets[st.Value]; ok {
			rule.Set(preset[0], preset[1])
		}
	case StyleFontWeight:
		rule.Set("font-weight", st.Value)
	case StyleFontSize:
		rule.Set("font-size", scaledLength(st.Value, exemplary))
	case StyleLineHeight:
		rule.Set("line-height", scaledLength(st.Value, exemplary))
	case StyleLetterSpacing:
		rule.Set("letter-spacing", scaledLength(st.Value, exemplary))
	case StyleWordSpacing:
		rule.Set("word-spacing", scaledLength(st.Value, exemplary))
	case StyleTextTransform:
		rule.Set("text-transform", cmp.Or(st.Value, "none"))
	case StyleVerticalAlign:
		rule.Set("vertical-align", cmp.Or(st.Value, "unset"))
	case StyleTextDecoration:
		rule.Set("text-decoration", st.Value)
	case StyleFontVariant:
		rule.Set("font-variant", st.Value)
	default:
		// unknown names are rejected on input, nothing to emit
	}
}

// applyStyles adds declarations for all styles of the group. Collapsed line
// height required by super/sub alignment wins over explicit one.
func applyStyles(rule *css.Rule, styles []Style, exemplary float64) {
	var zeroLineHeight bool
	for _, st := range styles {
		st.apply(rule, exemplary)
		if st.Name == StyleVerticalAlign && forcesZeroLineHeight(st.Value) {
			zeroLineHeight = true
		}
	}
	if zeroLineHeight {
		rule.Set("line-height", "0")
	}
}
