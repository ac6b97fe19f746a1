// Package content reads rich text documents and prepares them for rendering.
package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"rtc/misc"
	"rtc/richtext"
	"rtc/state"
)

var (
	markdownExts = []string{".md", ".markdown"}
	yamlExts     = []string{".yaml", ".yml"}
	payloadExts  = []string{".json", ".yaml", ".yml"}
)

// IsMarkdown reports whether file is markdown source judging by its name.
func IsMarkdown(name string) bool {
	return slices.Contains(markdownExts, strings.ToLower(filepath.Ext(name)))
}

// IsYAML reports whether file is payload in YAML form judging by its name.
func IsYAML(name string) bool {
	return slices.Contains(yamlExts, strings.ToLower(filepath.Ext(name)))
}

// IsSupported reports whether file could be prepared judging by its name.
func IsSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return slices.Contains(payloadExts, ext) || slices.Contains(markdownExts, ext)
}

// Content is validated document with everything necessary to render it.
type Content struct {
	SrcName     string
	Doc         *Document
	Input       richtext.Input
	Breakpoints richtext.Breakpoints
	Namespace   string
	WorkDir     string
}

// Prepare reads document from r, markdown or payload depending on source
// name, validates it and selects layouts and namespace to render it with.
func Prepare(ctx context.Context, r io.Reader, srcName string, log *zap.Logger) (*Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	env := state.EnvFromContext(ctx)

	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read document: %w", err)
	}

	var configured richtext.Breakpoints
	if env.Cfg != nil {
		configured = env.Cfg.Breakpoints()
	}

	var doc *Document
	if IsMarkdown(srcName) {
		text := src
		if !utf8.Valid(text) {
			if text, err = io.ReadAll(env.TextReader(bytes.NewReader(src))); err != nil {
				return nil, fmt.Errorf("unable to decode markdown: %w", err)
			}
		}
		if doc, err = FromMarkdown(text, configured); err != nil {
			return nil, fmt.Errorf("unable to import markdown: %w", err)
		}
	} else if IsYAML(srcName) {
		if doc, err = DecodeYAML(bytes.NewReader(src)); err != nil {
			return nil, err
		}
	} else if doc, err = Decode(bytes.NewReader(src)); err != nil {
		return nil, err
	}

	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}

	bps := configured
	if len(doc.Layouts) > 0 && (env.Cfg == nil || env.Cfg.Render.PreferDocumentLayouts || len(bps) == 0) {
		bps = doc.Breakpoints()
		log.Debug("Using document layouts", zap.Int("layouts", len(bps)))
	}
	if len(bps) == 0 {
		return nil, richtext.ErrNoBreakpoints
	}

	baseSrcName := filepath.Base(srcName)

	name := strings.TrimSuffix(baseSrcName, filepath.Ext(baseSrcName))
	if env.Cfg != nil && env.Cfg.Render.Namespace != "" {
		name = env.Cfg.Render.Namespace
	}
	ns, err := Namespace(name)
	if err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", misc.GetAppName()+"-")
	if err != nil {
		return nil, fmt.Errorf("unable to create temporary directory: %w", err)
	}
	// namespaces are not unique between documents, temporary names are
	env.Rpt.Store(filepath.Base(tmpDir), tmpDir)

	c := &Content{
		SrcName:     srcName,
		Doc:         doc,
		Input:       doc.Input(log),
		Breakpoints: bps,
		Namespace:   ns,
		WorkDir:     tmpDir,
	}

	// Save source and prepared document for debugging
	if env.Rpt != nil {
		if err := os.WriteFile(filepath.Join(tmpDir, baseSrcName), src, 0644); err != nil {
			return nil, fmt.Errorf("unable to write input doc for debugging: %w", err)
		}
		var buf bytes.Buffer
		if err := doc.Encode(&buf); err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(tmpDir, baseSrcName+"_document.yaml"), buf.Bytes(), 0644); err != nil {
			return nil, fmt.Errorf("unable to write decoded doc for debugging: %w", err)
		}
		if err := os.WriteFile(filepath.Join(tmpDir, baseSrcName+"_prepared"), []byte(c.String()), 0644); err != nil {
			return nil, fmt.Errorf("unable to write prepared doc for debugging: %w", err)
		}
	}
	return c, nil
}
