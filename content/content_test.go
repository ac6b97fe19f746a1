package content

import (
	"context"
	"errors"
	"os"
	"regexp"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
	"golang.org/x/text/encoding/charmap"

	"rtc/config"
	"rtc/richtext"
	"rtc/state"
)

func testContext(t *testing.T, modify func(*config.Config)) context.Context {
	t.Helper()

	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if modify != nil {
		modify(cfg)
	}
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Cfg = cfg
	env.Log = zaptest.NewLogger(t)
	return ctx
}

func TestNamespace(t *testing.T) {
	if ns, err := Namespace("My caption:1"); err != nil || ns != "Mycaption1" {
		t.Errorf("Namespace() = %q, %v", ns, err)
	}

	generated := regexp.MustCompile(`^[0-9a-f]{32}$`)
	a, err := Namespace("…")
	if err != nil {
		t.Fatalf("Namespace() error = %v", err)
	}
	b, _ := Namespace("")
	if !generated.MatchString(a) || !generated.MatchString(b) {
		t.Errorf("generated namespaces %q, %q", a, b)
	}
	if a == b {
		t.Error("generated namespaces must differ")
	}
}

func TestPrepare_Payload(t *testing.T) {
	ctx := testContext(t, nil)

	src := `{"text": "Hi\n", "blocks": [{"start": 0, "end": 2}], "layoutStyles": {"mobile": [{"start": 0, "end": 2, "style": "FONTSIZE", "value": "0.05"}]}}`
	c, err := Prepare(ctx, strings.NewReader(src), "dir/hero caption.json", zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	if c.Namespace != "herocaption" {
		t.Errorf("Namespace = %q", c.Namespace)
	}
	if len(c.Breakpoints) != 3 {
		t.Errorf("configured layouts expected, got %+v", c.Breakpoints)
	}
	if c.WorkDir == "" {
		t.Error("WorkDir not set")
	}
	if len(c.Input.Styles["mobile"]) != 1 || c.Input.Styles["mobile"][0].Style != richtext.StyleFontSize {
		t.Errorf("Input styles = %+v", c.Input.Styles)
	}

	dump := c.String()
	for _, want := range []string{`Content "dir/hero caption.json" namespace "herocaption"`, `Text: "Hi\n"`, `FONTSIZE["0.05"] range[0, 2)`} {
		if !strings.Contains(dump, want) {
			t.Errorf("dump has no %q:\n%s", want, dump)
		}
	}
}

func TestPrepare_DecoderByName(t *testing.T) {
	// flow style YAML is not JSON, only YAML files may be written this way
	src := `{text: "Hi\n", blocks: [{start: 0, end: 2}], layoutStyles: []}`

	tests := []struct {
		name    string
		wantErr bool
	}{
		{"caption.yml", false},
		{"caption.yaml", false},
		{"caption.json", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Prepare(testContext(t, nil), strings.NewReader(src), tt.name, zaptest.NewLogger(t))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Prepare() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			t.Cleanup(func() { os.RemoveAll(c.WorkDir) })
			if c.Doc.Text != "Hi\n" {
				t.Errorf("Text = %q", c.Doc.Text)
			}
		})
	}
}

func TestPrepare_Layouts(t *testing.T) {
	src := `{"text": "Hi\n", "blocks": [{"start": 0, "end": 2}], "layoutStyles": [], "layouts": [{"id": "only", "startsWith": 0, "exemplary": 500}]}`

	t.Run("document layouts preferred", func(t *testing.T) {
		c, err := Prepare(testContext(t, nil), strings.NewReader(src), "a.json", zaptest.NewLogger(t))
		if err != nil {
			t.Fatalf("Prepare() error = %v", err)
		}
		if len(c.Breakpoints) != 1 || c.Breakpoints[0].ID != "only" {
			t.Errorf("Breakpoints = %+v", c.Breakpoints)
		}
	})

	t.Run("configured layouts preferred", func(t *testing.T) {
		ctx := testContext(t, func(cfg *config.Config) { cfg.Render.PreferDocumentLayouts = false })
		c, err := Prepare(ctx, strings.NewReader(src), "a.json", zaptest.NewLogger(t))
		if err != nil {
			t.Fatalf("Prepare() error = %v", err)
		}
		if len(c.Breakpoints) != 3 {
			t.Errorf("Breakpoints = %+v", c.Breakpoints)
		}
	})
}

func TestPrepare_Markdown(t *testing.T) {
	ctx := testContext(t, func(cfg *config.Config) { cfg.Render.Namespace = "fixed" })

	c, err := Prepare(ctx, strings.NewReader("Hello *there*\n"), "note.MD", zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if c.Namespace != "fixed" {
		t.Errorf("Namespace = %q", c.Namespace)
	}
	if c.Doc.Text != "Hello there\n" {
		t.Errorf("Text = %q", c.Doc.Text)
	}
	for _, bp := range c.Breakpoints {
		if len(c.Input.Styles[bp.ID]) != 1 {
			t.Errorf("layout %q styles = %+v", bp.ID, c.Input.Styles[bp.ID])
		}
	}
}

func TestPrepare_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		srcName string
		wantErr error
	}{
		{"invalid range", `{"text": "a", "blocks": [{"start": 0, "end": 5}]}`, "a.json", ErrInvalidRange},
		{"not a document", `[1, 2]`, "a.yaml", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Prepare(testContext(t, nil), strings.NewReader(tt.src), tt.srcName, zaptest.NewLogger(t))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(testContext(t, nil))
		cancel()
		if _, err := Prepare(ctx, strings.NewReader("x"), "a.md", zaptest.NewLogger(t)); !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v", err)
		}
	})
}

func TestIsSupported(t *testing.T) {
	for name, want := range map[string]bool{
		"a.json": true, "a.YAML": true, "a.yml": true, "a.md": true, "a.markdown": true,
		"a.txt": false, "a.zip": false, "json": false,
	} {
		if got := IsSupported(name); got != want {
			t.Errorf("IsSupported(%q) = %v, want %v", name, got, want)
		}
	}
	if !IsMarkdown("x.Md") || IsMarkdown("x.json") {
		t.Error("IsMarkdown() misdetects")
	}
}

func TestPrepare_MarkdownCodePage(t *testing.T) {
	ctx := testContext(t, nil)
	state.EnvFromContext(ctx).TextCodePage = charmap.Windows1251

	// "Привет" in windows-1251
	src := string([]byte{0xcf, 0xf0, 0xe8, 0xe2, 0xe5, 0xf2, '\n'})
	c, err := Prepare(ctx, strings.NewReader(src), "ru.md", zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if c.Doc.Text != "Привет\n" {
		t.Errorf("Text = %q", c.Doc.Text)
	}

	// valid UTF-8 is never recoded
	c, err = Prepare(ctx, strings.NewReader("Привет\n"), "ru.md", zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if c.Doc.Text != "Привет\n" {
		t.Errorf("Text = %q", c.Doc.Text)
	}
}
