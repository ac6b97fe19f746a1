package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"rtc/common"
	"rtc/richtext"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	// LayoutConfig describes single responsive breakpoint.
	LayoutConfig struct {
		ID         string  `yaml:"id" validate:"required"`
		Title      string  `yaml:"title"`
		StartsWith float64 `yaml:"starts_with" validate:"gte=0"`
		Exemplary  float64 `yaml:"exemplary" validate:"gt=0"`
	}

	RenderConfig struct {
		Mode                  common.RenderMode `yaml:"mode" validate:"gte=0"`
		ActiveLayout          string            `yaml:"active_layout" validate:"required_if=Mode 1"`
		Namespace             string            `yaml:"namespace"`
		OutputFormat          common.OutputFmt  `yaml:"output_format" validate:"gte=0"`
		OutputNameTemplate    string            `yaml:"output_name_template"`
		FileNameTransliterate bool              `yaml:"file_name_transliterate"`
		PageTitleTemplate     string            `yaml:"page_title_template"`
		PageLanguage          string            `yaml:"page_language" validate:"omitempty,bcp47_language_tag"`
		// document carried layouts replace configured ones
		PreferDocumentLayouts bool `yaml:"prefer_document_layouts"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Render    RenderConfig   `yaml:"render"`
		Layouts   []LayoutConfig `yaml:"layouts" validate:"required,min=1,unique=ID,dive"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
	PageTitleTemplateFieldName  TemplateFieldName = "page_title_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
	gencfg.WithDoNotExpandField(string(PageTitleTemplateFieldName)),
)

// Breakpoints converts configured layouts into converter breakpoints.
func (c *Config) Breakpoints() richtext.Breakpoints {
	bps := make(richtext.Breakpoints, 0, len(c.Layouts))
	for _, l := range c.Layouts {
		bps = append(bps, richtext.Breakpoint{
			ID:              l.ID,
			Title:           l.Title,
			ActivationWidth: l.StartsWith,
			ExemplaryWidth:  l.Exemplary,
		})
	}
	return bps
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	// NOTE: yaml decoder replaces layouts list as a whole when file has it
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
