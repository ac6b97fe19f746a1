// Package state defines shared program state.
package state

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"rtc/config"
	"rtc/richtext"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// used by render subcommand
	NoDirs    bool
	Overwrite bool
	// CodePage is forced for non UTF-8 file names in archives
	CodePage encoding.Encoding
	// TextCodePage is used for markdown sources which are not valid UTF-8
	TextCodePage encoding.Encoding

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}

// TextReader wraps r decoding it from configured text code page to UTF-8.
func (e *LocalEnv) TextReader(r io.Reader) io.Reader {
	if e.TextCodePage == nil {
		return r
	}
	return transform.NewReader(r, e.TextCodePage.NewDecoder())
}

// RenderOptions returns converter options for given class namespace.
func (e *LocalEnv) RenderOptions(namespace string) richtext.Options {
	opts := richtext.Options{Namespace: namespace}
	if e.Cfg != nil {
		opts.Editing = e.Cfg.Render.Mode.Editing()
		if opts.Editing {
			opts.ActiveBreakpoint = e.Cfg.Render.ActiveLayout
		}
	}
	return opts
}
