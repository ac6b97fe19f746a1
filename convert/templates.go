package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"unicode/utf8"

	sprig "github.com/go-task/slim-sprig/v3"

	"rtc/common"
	"rtc/config"
	"rtc/content"
)

// maximum length of first line made available to templates, in code points
const firstLineLimit = 64

// LayoutDefinition describes single layout document is rendered for.
type LayoutDefinition struct {
	ID        string
	Title     string
	Starts    float64
	Exemplary float64
}

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	SourceFile string
	SourcePath string
	Namespace  string
	Format     string
	Mode       string
	FirstLine  string
	Blocks     int
	Layouts    []LayoutDefinition
}

func buildLayouts(c *content.Content) []LayoutDefinition {
	result := make([]LayoutDefinition, 0, len(c.Breakpoints))
	for _, bp := range c.Breakpoints.Sorted() {
		result = append(result, LayoutDefinition{
			ID:        bp.ID,
			Title:     bp.Title,
			Starts:    bp.ActivationWidth,
			Exemplary: bp.ExemplaryWidth,
		})
	}
	return result
}

// firstLine returns first line of the first non empty block.
func firstLine(c *content.Content) string {
	if c.Doc == nil {
		return ""
	}
	text := []rune(c.Doc.Text)
	for _, b := range c.Doc.Blocks {
		start, end := max(b.Start, 0), min(b.End+1, len(text))
		if start >= end {
			continue
		}
		line, _, _ := strings.Cut(strings.TrimSpace(string(text[start:end])), "\n")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > firstLineLimit {
			line = strings.TrimSpace(string([]rune(line)[:firstLineLimit]))
		}
		return line
	}
	return ""
}

func expandTemplate(c *content.Content, name config.TemplateFieldName, field string, format common.OutputFmt, mode common.RenderMode) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values := Values{
		Context:    string(name),
		SourceFile: strings.TrimSuffix(filepath.Base(c.SrcName), filepath.Ext(c.SrcName)),
		SourcePath: filepath.ToSlash(filepath.Dir(c.SrcName)),
		Namespace:  c.Namespace,
		Format:     format.String(),
		Mode:       mode.String(),
		FirstLine:  firstLine(c),
		Layouts:    buildLayouts(c),
	}
	if c.Doc != nil {
		values.Blocks = len(c.Doc.Blocks)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
