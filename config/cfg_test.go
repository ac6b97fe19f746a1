package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rupor-github/gencfg"

	"rtc/common"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Render.Mode != common.RenderModeLive {
		t.Errorf("Default mode = %s, want live", cfg.Render.Mode)
	}
	if cfg.Render.OutputFormat != common.OutputFmtFragment {
		t.Errorf("Default output format = %s, want fragment", cfg.Render.OutputFormat)
	}

	want := []LayoutConfig{
		{ID: "mobile", Title: "Mobile", StartsWith: 0, Exemplary: 375},
		{ID: "tablet", Title: "Tablet", StartsWith: 768, Exemplary: 768},
		{ID: "desktop", Title: "Desktop", StartsWith: 1024, Exemplary: 1440},
	}
	if len(cfg.Layouts) != len(want) {
		t.Fatalf("Default layouts = %+v", cfg.Layouts)
	}
	for i := range want {
		if cfg.Layouts[i] != want[i] {
			t.Errorf("Layouts[%d] = %+v, want %+v", i, cfg.Layouts[i], want[i])
		}
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	path := writeConfig(t, `version: 1
render:
  mode: editor
  active_layout: wide
  namespace: promo
  output_format: split
  output_name_template: "{{ .Name }}-out"
layouts:
  - id: narrow
    starts_with: 0
    exemplary: 320
  - id: wide
    starts_with: 900
    exemplary: 1200
logging:
  console:
    level: normal
  file:
    level: none
reporting:
  destination: `+filepath.Join(t.TempDir(), "report.zip")+`
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if !cfg.Render.Mode.Editing() || cfg.Render.ActiveLayout != "wide" {
		t.Errorf("Render = %+v", cfg.Render)
	}
	if cfg.Render.OutputFormat != common.OutputFmtSplit {
		t.Errorf("OutputFormat = %s, want split", cfg.Render.OutputFormat)
	}
	if cfg.Render.OutputNameTemplate != "{{ .Name }}-out" {
		t.Errorf("OutputNameTemplate = %q", cfg.Render.OutputNameTemplate)
	}
	if len(cfg.Layouts) != 2 || cfg.Layouts[1].ID != "wide" {
		t.Errorf("file layouts must replace defaults, got %+v", cfg.Layouts)
	}
}

func TestLoadConfiguration_MergeWithDefaults(t *testing.T) {
	path := writeConfig(t, `version: 1
render:
  namespace: partial
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Render.Namespace != "partial" {
		t.Errorf("Namespace = %q", cfg.Render.Namespace)
	}
	if len(cfg.Layouts) != 3 {
		t.Errorf("default layouts expected, got %+v", cfg.Layouts)
	}
	if cfg.Render.OutputFormat != common.OutputFmtFragment {
		t.Errorf("default output format expected, got %s", cfg.Render.OutputFormat)
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "version: 1\nrender:\n  mode: live\n  invalid indent\n"},
		{"unknown field", "version: 1\nunknown_field: value\n"},
		{"bad version", "version: 2\n"},
		{"bad mode", "version: 1\nrender:\n  mode: preview\n"},
		{"editor without layout", "version: 1\nrender:\n  mode: editor\n"},
		{"duplicate layouts", "version: 1\nlayouts:\n  - {id: a, exemplary: 100}\n  - {id: a, starts_with: 500, exemplary: 600}\n"},
		{"zero exemplary", "version: 1\nlayouts:\n  - {id: a, exemplary: 0}\n"},
		{"negative start", "version: 1\nlayouts:\n  - {id: a, starts_with: -1, exemplary: 10}\n"},
		{"layout without id", "version: 1\nlayouts:\n  - {exemplary: 10}\n"},
		{"empty layouts", "version: 1\nlayouts: []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
			t.Error("expected error for nonexistent file")
		}
	})
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {
		// Options are opaque, just test that we can pass them
	}

	cfg, err := LoadConfiguration("", option)
	if err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if !strings.Contains(string(data), "layouts:") {
		t.Errorf("Prepare() returned unexpected data:\n%s", data)
	}
	if _, err := unmarshalConfig(data, &Config{}, true); err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump(t *testing.T) {
	cfg := &Config{
		Version: 1,
		Render: RenderConfig{
			Mode:         common.RenderModeEditor,
			ActiveLayout: "a",
			OutputFormat: common.OutputFmtPage,
		},
		Layouts: []LayoutConfig{{ID: "a", Exemplary: 100}},
	}

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(string(data), "mode: editor") || !strings.Contains(string(data), "output_format: page") {
		t.Errorf("enums must be dumped by name:\n%s", data)
	}

	cfg2, err := unmarshalConfig(data, &Config{}, false)
	if err != nil {
		t.Fatalf("Dumped config cannot be loaded: %v", err)
	}
	if cfg2.Render != cfg.Render || len(cfg2.Layouts) != 1 || cfg2.Layouts[0] != cfg.Layouts[0] {
		t.Errorf("mismatch after dump/load: %+v", cfg2)
	}
}

func TestConfig_Breakpoints(t *testing.T) {
	cfg := &Config{Layouts: []LayoutConfig{
		{ID: "wide", Title: "Wide", StartsWith: 900, Exemplary: 1200},
		{ID: "narrow", StartsWith: 0, Exemplary: 320},
	}}

	bps := cfg.Breakpoints()
	if len(bps) != 2 {
		t.Fatalf("Breakpoints() = %+v", bps)
	}
	if bps[0].ID != "wide" || bps[0].Title != "Wide" || bps[0].ActivationWidth != 900 || bps[0].ExemplaryWidth != 1200 {
		t.Errorf("Breakpoints()[0] = %+v", bps[0])
	}
	if sorted := bps.Sorted(); sorted[0].ID != "narrow" {
		t.Errorf("configured order must be preserved until sorted, got %+v", sorted)
	}
}
