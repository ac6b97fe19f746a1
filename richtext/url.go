package richtext

import "strings"

// link destinations which are used as is
var urlPrefixes = []string{
	"http://",
	"https://",
	"/",
	"mailto:",
	"tel:",
	"file:",
	"ftp:",
	"javascript",
	"#",
}

// BuildValidURL makes hyperlink destination usable in markup: anything which
// does not look like absolute or local reference becomes protocol relative.
// No other validation is done.
func BuildValidURL(url string) string {
	for _, prefix := range urlPrefixes {
		if strings.HasPrefix(url, prefix) {
			return url
		}
	}
	return "//" + url
}

// SanitizeNamespace removes from namespace id everything which could not be
// used in CSS class name as is.
func SanitizeNamespace(ns string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return -1
		}
	}, ns)
}
