package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"rtc/richtext"
)

type (
	// Document is rich text content payload as it is stored by the editor.
	Document struct {
		Text         string       `yaml:"text" json:"text"`
		Blocks       []Block      `yaml:"blocks" json:"blocks"`
		LayoutStyles LayoutStyles `yaml:"layoutStyles" json:"layoutStyles"`
		// Layouts are optional, when present they are used instead of
		// configured ones.
		Layouts []Layout `yaml:"layouts,omitempty" json:"layouts,omitempty"`
	}

	// Block coordinates are buffer global, end is inclusive.
	Block struct {
		Start    int      `yaml:"start" json:"start"`
		End      int      `yaml:"end" json:"end"`
		Type     string   `yaml:"type,omitempty" json:"type,omitempty"`
		Entities []Entity `yaml:"entities" json:"entities"`
	}

	// Entity coordinates are block local, end is exclusive. Entity without
	// data is a tombstone.
	Entity struct {
		Start int         `yaml:"start" json:"start"`
		End   int         `yaml:"end" json:"end"`
		Type  string      `yaml:"type,omitempty" json:"type,omitempty"`
		Data  *EntityData `yaml:"data,omitempty" json:"data,omitempty"`
	}

	EntityData struct {
		URL    string `yaml:"url" json:"url"`
		Target string `yaml:"target,omitempty" json:"target,omitempty"`
	}

	// Style coordinates are buffer global, end is exclusive. Style name is
	// kept as is, unknown names are dropped when document is prepared for
	// rendering.
	Style struct {
		Start int    `yaml:"start" json:"start"`
		End   int    `yaml:"end" json:"end"`
		Style string `yaml:"style" json:"style"`
		Value string `yaml:"value,omitempty" json:"value,omitempty"`
	}

	// LayoutStyles maps layout id to its style ranges.
	LayoutStyles map[string][]Style

	Layout struct {
		ID         string  `yaml:"id" json:"id"`
		Title      string  `yaml:"title,omitempty" json:"title,omitempty"`
		StartsWith float64 `yaml:"startsWith" json:"startsWith"`
		Exemplary  float64 `yaml:"exemplary" json:"exemplary"`
	}
)

// UnmarshalYAML accepts empty sequence in place of mapping, editor stores
// documents without styles this way.
func (ls *LayoutStyles) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		if len(node.Content) != 0 {
			return fmt.Errorf("line %d: layout styles must be a mapping", node.Line)
		}
		*ls = LayoutStyles{}
		return nil
	}
	m := map[string][]Style{}
	if err := node.Decode(&m); err != nil {
		return err
	}
	*ls = m
	return nil
}

// UnmarshalJSON accepts empty array in place of object, same as UnmarshalYAML.
func (ls *LayoutStyles) UnmarshalJSON(data []byte) error {
	if data = bytes.TrimSpace(data); len(data) > 0 && data[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		if len(list) != 0 {
			return errors.New("layout styles must be an object")
		}
		*ls = LayoutStyles{}
		return nil
	}
	var m map[string][]Style
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*ls = m
	return nil
}

// UnmarshalJSON takes style value in any scalar form, editor keeps them as
// strings but numbers and booleans are accepted as written.
func (s *Style) UnmarshalJSON(data []byte) error {
	type plain Style
	var raw struct {
		plain
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Style(raw.plain)
	s.Value = ""
	switch v := bytes.TrimSpace(raw.Value); {
	case len(v) == 0 || bytes.Equal(v, []byte("null")):
	case v[0] == '"':
		if err := json.Unmarshal(v, &s.Value); err != nil {
			return err
		}
	case v[0] == '{' || v[0] == '[':
		return fmt.Errorf("style %q: value must be scalar", s.Style)
	default:
		s.Value = string(v)
	}
	return nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// IsJSON reports whether data looks like JSON object, leading BOM and
// white space are skipped.
func IsJSON(data []byte) bool {
	data = bytes.TrimLeft(bytes.TrimPrefix(data, utf8BOM), " \t\r\n")
	return len(data) > 0 && data[0] == '{'
}

// Decode reads single document. JSON object is decoded as JSON, anything
// else as YAML.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read document: %w", err)
	}
	if !IsJSON(data) {
		return decodeYAML(data)
	}
	doc := &Document{}
	// payload may carry fields we do not need, so unknown fields are allowed
	if err := json.Unmarshal(bytes.TrimPrefix(data, utf8BOM), doc); err != nil {
		return nil, fmt.Errorf("unable to decode document: %w", err)
	}
	return doc, nil
}

// DecodeYAML reads single document in YAML form. Flow style YAML which looks
// like JSON is still read as YAML.
func DecodeYAML(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read document: %w", err)
	}
	return decodeYAML(data)
}

func decodeYAML(data []byte) (*Document, error) {
	doc := &Document{}
	if err := yaml.NewDecoder(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM))).Decode(doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, fmt.Errorf("unable to decode document: %w", err)
	}
	return doc, nil
}

// Encode writes document in YAML form.
func (d *Document) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("unable to encode document: %w", err)
	}
	return enc.Close()
}

// Breakpoints returns layouts carried by the document, if any.
func (d *Document) Breakpoints() richtext.Breakpoints {
	if len(d.Layouts) == 0 {
		return nil
	}
	bps := make(richtext.Breakpoints, 0, len(d.Layouts))
	for _, l := range d.Layouts {
		bps = append(bps, richtext.Breakpoint{
			ID:              l.ID,
			Title:           l.Title,
			ActivationWidth: l.StartsWith,
			ExemplaryWidth:  l.Exemplary,
		})
	}
	return bps
}

// Input converts document into converter input. Styles with unknown names
// are dropped and reported.
func (d *Document) Input(log *zap.Logger) richtext.Input {
	in := richtext.Input{
		Text:   d.Text,
		Blocks: make([]richtext.Block, 0, len(d.Blocks)),
		Styles: make(map[string][]richtext.StyleRange, len(d.LayoutStyles)),
	}

	for _, b := range d.Blocks {
		rb := richtext.Block{Start: b.Start, End: b.End, Type: b.Type}
		for _, e := range b.Entities {
			re := richtext.Entity{Start: e.Start, End: e.End, Type: e.Type}
			if e.Data != nil {
				re.Data = &richtext.EntityData{URL: e.Data.URL, Target: e.Data.Target}
			}
			rb.Entities = append(rb.Entities, re)
		}
		in.Blocks = append(in.Blocks, rb)
	}

	unknown := map[string]int{}
	for id, styles := range d.LayoutStyles {
		ranges := make([]richtext.StyleRange, 0, len(styles))
		for _, s := range styles {
			name, err := richtext.ParseStyleName(s.Style)
			if err != nil {
				unknown[strings.TrimSpace(s.Style)]++
				continue
			}
			ranges = append(ranges, richtext.StyleRange{Start: s.Start, End: s.End, Style: name, Value: s.Value})
		}
		in.Styles[id] = ranges
	}
	for name, count := range unknown {
		log.Warn("Unknown style dropped", zap.String("style", name), zap.Int("ranges", count))
	}
	return in
}
