// Package markup serializes rendered rich text into HTML.
package markup

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"

	"rtc/richtext"
)

// ContentClass is class of the page element rendered nodes are put into.
const ContentClass = "rt-content"

// Render appends elements for nodes to parent. Elements are never indented:
// blocks use pre-wrap white space and any added text would be visible.
func Render(parent *etree.Element, nodes []*richtext.Node) {
	for _, n := range nodes {
		renderNode(parent, n)
	}
}

func renderNode(parent *etree.Element, n *richtext.Node) {
	switch n.Kind {
	case richtext.KindBlock:
		div := parent.CreateElement("div")
		div.CreateAttr("class", n.Class)
		Render(div, n.Children)
		closed(div)

	case richtext.KindLineBreak:
		div := parent.CreateElement("div")
		div.CreateAttr("class", n.Class)
		div.CreateElement("br")

	case richtext.KindSpan:
		span := parent.CreateElement("span")
		if n.Class != "" {
			span.CreateAttr("class", n.Class)
		}
		span.SetText(n.Text)
		closed(span)

	case richtext.KindLink:
		if n.URL == "" {
			// nowhere to go, keep content only
			Render(parent, n.Children)
			return
		}
		a := parent.CreateElement("a")
		a.CreateAttr("href", n.Href())
		if n.Target == "_blank" {
			a.CreateAttr("target", n.Target)
			a.CreateAttr("rel", "noreferrer")
		}
		Render(a, n.Children)
		closed(a)
	}
}

// closed makes sure element is written with end tag, self closing div or
// span is not understood by HTML parsers.
func closed(e *etree.Element) {
	if len(e.Child) == 0 {
		e.CreateText("")
	}
}

// styleText makes stylesheet safe to be put into raw text style element.
func styleText(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// WriteFragment writes rendered nodes followed by style element with the
// stylesheet, ready to be embedded into an HTML page.
func WriteFragment(w io.Writer, res *richtext.Result) error {
	doc := etree.NewDocument()
	Render(&doc.Element, res.Nodes)

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("unable to write markup: %w", err)
	}
	// style element content is raw text in HTML, no entity escaping
	if _, err := fmt.Fprintf(w, "<style>\n%s</style>\n", styleText(res.StylesheetText())); err != nil {
		return fmt.Errorf("unable to write stylesheet: %w", err)
	}
	return nil
}

// Fragment returns WriteFragment output as a string.
func Fragment(res *richtext.Result) (string, error) {
	var buf bytes.Buffer
	if err := WriteFragment(&buf, res); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PageOptions controls standalone page generation.
type PageOptions struct {
	Title string
	Lang  string
	// StylesheetHref links external stylesheet instead of embedding it.
	StylesheetHref string
}

// Page builds standalone XHTML document with rendered nodes.
func Page(res *richtext.Result, opts PageOptions) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateDirective("DOCTYPE html")

	html := doc.CreateElement("html")
	html.CreateAttr("xmlns", "http://www.w3.org/1999/xhtml")
	if opts.Lang != "" {
		html.CreateAttr("lang", opts.Lang)
		html.CreateAttr("xml:lang", opts.Lang)
	}

	head := html.CreateElement("head")

	meta := head.CreateElement("meta")
	meta.CreateAttr("http-equiv", "Content-Type")
	meta.CreateAttr("content", "text/html; charset=utf-8")

	viewport := head.CreateElement("meta")
	viewport.CreateAttr("name", "viewport")
	viewport.CreateAttr("content", "width=device-width, initial-scale=1")

	titleElem := head.CreateElement("title")
	titleElem.SetText(opts.Title)
	closed(titleElem)

	if opts.StylesheetHref != "" {
		link := head.CreateElement("link")
		link.CreateAttr("rel", "stylesheet")
		link.CreateAttr("type", "text/css")
		link.CreateAttr("href", opts.StylesheetHref)
	} else {
		style := head.CreateElement("style")
		style.CreateAttr("type", "text/css")
		style.SetText("\n" + res.StylesheetText())
	}

	body := html.CreateElement("body")
	root := body.CreateElement("div")
	root.CreateAttr("class", ContentClass)
	Render(root, res.Nodes)
	closed(root)

	return doc
}

// WritePage writes standalone XHTML document with rendered nodes.
func WritePage(w io.Writer, res *richtext.Result, opts PageOptions) error {
	if _, err := Page(res, opts).WriteTo(w); err != nil {
		return fmt.Errorf("unable to write page: %w", err)
	}
	return nil
}
