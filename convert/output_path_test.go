package convert

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"rtc/common"
	"rtc/config"
	"rtc/content"
	"rtc/richtext"
	"rtc/state"
)

func setupTestEnvForOutputPath(t *testing.T, noDirs bool, transliterate bool, template string) *state.LocalEnv {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Render.FileNameTransliterate = transliterate
	cfg.Render.OutputNameTemplate = template

	return &state.LocalEnv{
		Log:    logger,
		Cfg:    cfg,
		NoDirs: noDirs,
	}
}

func setupTestContent(t *testing.T, srcName, text string) *content.Content {
	t.Helper()
	doc := &content.Document{
		Text:   text,
		Blocks: []content.Block{{Start: 0, End: len([]rune(text)) - 1}},
	}
	return &content.Content{
		SrcName:   srcName,
		Doc:       doc,
		Namespace: "caption",
		Breakpoints: richtext.Breakpoints{
			{ID: "desktop", Title: "Desktop", ActivationWidth: 1024, ExemplaryWidth: 1440},
			{ID: "mobile", Title: "Mobile", ActivationWidth: 0, ExemplaryWidth: 375},
		},
	}
}

func TestBuildOutputPath(t *testing.T) {
	tests := []struct {
		name          string
		src           string
		noDirs        bool
		transliterate bool
		template      string
		format        common.OutputFmt
		want          string
	}{
		{"no dirs", "captions/home/hero.json", true, false, "", common.OutputFmtFragment, filepath.Join("/output", "hero.html")},
		{"with dirs", "captions/home/hero.json", false, false, "", common.OutputFmtFragment, filepath.Join("/output", "captions", "home", "hero.html")},
		{"page", "hero.md", true, false, "", common.OutputFmtPage, filepath.Join("/output", "hero.html")},
		{"split", "hero.yaml", true, false, "", common.OutputFmtSplit, filepath.Join("/output", "hero.html")},
		{"transliterate", "Заголовок.json", true, true, "", common.OutputFmtFragment, filepath.Join("/output", "zagolovok.html")},
		{"template", "hero.json", true, false, "{{ .Namespace }}-{{ .Format }}", common.OutputFmtPage, filepath.Join("/output", "caption-page.html")},
		{"template with dirs", "captions/hero.json", false, false, "{{ .Mode }}/{{ .SourceFile }}", common.OutputFmtFragment, filepath.Join("/output", "captions", "live", "hero.html")},
		{"broken template falls back", "hero.json", true, false, "{{ .Missing", common.OutputFmtFragment, filepath.Join("/output", "hero.html")},
		{"empty template result falls back", "hero.json", true, false, "{{ if false }}x{{ end }}", common.OutputFmtFragment, filepath.Join("/output", "hero.html")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := setupTestContent(t, tt.src, "Hello world\n")
			env := setupTestEnvForOutputPath(t, tt.noDirs, tt.transliterate, tt.template)

			if got := buildOutputPath(c, tt.src, "/output", tt.format, env); got != tt.want {
				t.Errorf("buildOutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStylesheetPath(t *testing.T) {
	got := stylesheetPath(filepath.Join("/output", "hero.v2.html"))
	if want := filepath.Join("/output", "hero.v2.css"); got != want {
		t.Errorf("stylesheetPath() = %q, want %q", got, want)
	}
}

func TestBuildPageTitle(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		template string
		want     string
	}{
		{"first line", "  Hello world  \nmore\n", "", "Hello world"},
		{"source name when no text", "\n", "", "hero"},
		{"template", "Hello\n", "{{ .FirstLine | upper }} ({{ len .Layouts }})", "HELLO (2)"},
		{"broken template", "Hello\n", "{{ .FirstLine", "Hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := setupTestContent(t, "dir/hero.json", tt.text)
			env := setupTestEnvForOutputPath(t, true, false, "")
			env.Cfg.Render.PageTitleTemplate = tt.template

			if got := buildPageTitle(c, common.OutputFmtPage, env); got != tt.want {
				t.Errorf("buildPageTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetermineOutputDir(t *testing.T) {
	env := setupTestEnvForOutputPath(t, true, false, "")
	if got := determineOutputDir("captions/home/hero.json", "/output", env); got != "/output" {
		t.Errorf("determineOutputDir() = %q, want %q", got, "/output")
	}

	env.NoDirs = false
	if got, want := determineOutputDir("captions/home/hero.json", "/output", env), filepath.Join("/output", "captions", "home"); got != want {
		t.Errorf("determineOutputDir() = %q, want %q", got, want)
	}
}

func TestSplitAndCleanPath(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"hero", []string{"hero"}},
		{filepath.Join("a", "b", "hero"), []string{"a", "b", "hero"}},
		{filepath.Join("a", "hero") + string(filepath.Separator), []string{"a", "hero"}},
		{"", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := splitAndCleanPath(tt.path)
			if len(got) != len(tt.want) {
				t.Fatalf("splitAndCleanPath() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("splitAndCleanPath()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCleanPathSegment(t *testing.T) {
	tests := []struct {
		name          string
		segment       string
		transliterate bool
		expected      string
	}{
		{"simple segment", "captions", false, "captions"},
		{"with spaces", "Hero caption", false, "Hero caption"},
		{"transliterate cyrillic", "Подпись", true, "podpis"},
		{"special chars", "hero:caption", false, "herocaption"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnvForOutputPath(t, true, tt.transliterate, "")

			if result := cleanPathSegment(tt.segment, env); result != tt.expected {
				t.Errorf("cleanPathSegment() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestAssemblePathWithSubdirs(t *testing.T) {
	env := setupTestEnvForOutputPath(t, true, true, "")

	got := assemblePathWithSubdirs("/output", filepath.Join("Подписи", "Текст"), common.OutputFmtPage, env)
	if want := filepath.Join("/output", "podpisi", "tekst.html"); got != want {
		t.Errorf("assemblePathWithSubdirs() = %q, want %q", got, want)
	}

	if got := assemblePathWithSubdirs("/output", "", common.OutputFmtPage, env); got != "/output" {
		t.Errorf("assemblePathWithSubdirs() with empty path = %q, want %q", got, "/output")
	}
}
