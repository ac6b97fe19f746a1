package convert

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/language"

	"rtc/archive"
	"rtc/common"
	"rtc/content"
	"rtc/markup"
	"rtc/richtext"
	"rtc/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("render")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	format := env.Cfg.Render.OutputFormat
	if cmd.IsSet("to") {
		if format, err = common.ParseOutputFmt(cmd.String("to")); err != nil {
			log.Warn("Unknown output format requested, using configured one", zap.Error(err), zap.Stringer("format", env.Cfg.Render.OutputFormat))
			format = env.Cfg.Render.OutputFormat
		}
	}

	if err := applyRenderFlags(cmd, env); err != nil {
		return err
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	env.CodePage = codePage(cmd.String("force-zip-cp"), "Forcefully converting all non UTF-8 file names in archives", log)
	// markdown files without BOM which are not valid UTF-8
	env.TextCodePage = codePage(cmd.String("md-cp"), "Decoding non UTF-8 markdown sources", log)

	log.Info("Processing starting",
		zap.String("source", src), zap.String("destination", dst),
		zap.Stringer("format", format), zap.Stringer("mode", env.Cfg.Render.Mode))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, format, log)
}

// applyRenderFlags overrides configured render settings with command line.
func applyRenderFlags(cmd *cli.Command, env *state.LocalEnv) error {
	if cmd.Bool("editing") {
		env.Cfg.Render.Mode = common.RenderModeEditor
	}
	if cmd.IsSet("layout") {
		env.Cfg.Render.ActiveLayout = cmd.String("layout")
	}
	if cmd.IsSet("namespace") {
		env.Cfg.Render.Namespace = cmd.String("namespace")
	}
	if env.Cfg.Render.Mode.Editing() && env.Cfg.Render.ActiveLayout == "" {
		return errors.New("editor mode requires active layout, use --layout")
	}
	return nil
}

// codePage looks up IANA character set, unknown names are ignored.
func codePage(name, msg string, log *zap.Logger) encoding.Encoding {
	if len(name) == 0 {
		return nil
	}
	cp, err := ianaindex.IANA.Encoding(name)
	if err != nil || cp == nil {
		log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", name), zap.Error(err))
		return nil
	}
	n, _ := ianaindex.IANA.Name(cp)
	log.Debug(msg, zap.String("charset", n))
	return cp
}

// pageLanguage returns canonical form of BCP 47 tag, empty when tag could not
// be parsed.
func pageLanguage(tag string, log *zap.Logger) string {
	if len(tag) == 0 {
		return ""
	}
	lang, err := language.Parse(tag)
	if err != nil {
		log.Warn("Bad page language, ignoring", zap.String("language", tag), zap.Error(err))
		return ""
	}
	return lang.String()
}

// process handles the core conversion logic independently of CLI framework. It
// determines the input type (directory, archive, or single file) and processes
// accordingly.
func process(ctx context.Context, src, dst string, format common.OutputFmt, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, format, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		archive, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if archive {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, tail, "", dst, format, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		doc, enc, err := isContentFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if doc && len(tail) == 0 {
			// document cannot have tail, encoding is handled by selectReader
			if err := processFile(ctx, head, filepath.Base(head), enc, dst, format, log); err != nil {
				return fmt.Errorf("unable to process file: %w", err)
			}
			break
		}
		return fmt.Errorf("input was not recognized as rich text document (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

func processFile(ctx context.Context, path, src string, enc srcEncoding, dst string, format common.OutputFmt, log *zap.Logger) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return processDocument(ctx, selectReader(file, enc), src, dst, format, log)
}

// processDir walks directory tree finding documents and processes them.
// Failed documents are logged and skipped, returned error lists all of them.
func processDir(ctx context.Context, dir, dst string, format common.OutputFmt, log *zap.Logger) (err error) {
	count := 0
	var failed error
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
		err = multierr.Append(err, failed)
	}()

	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		archive, err := isArchiveFile(path)
		if err != nil {
			// checking format - but cannot open target file
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if archive {
			if err := processArchive(ctx, path, "", filepath.Dir(strings.TrimPrefix(path, dir)), dst, format, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
				failed = multierr.Append(failed, err)
			}
			return nil
		}

		doc, enc, err := isContentFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !doc {
			log.Debug("Skipping file, not recognized as document or archive", zap.String("file", path))
			return nil
		}

		count++

		src := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if err := processFile(ctx, path, src, enc, dst, format, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			failed = multierr.Append(failed, fmt.Errorf("%s: %w", src, err))
		}
		return nil
	})
	return err
}

// processArchive walks all files inside archive, finds documents under
// "pathIn" and processes them.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, format common.OutputFmt, log *zap.Logger) (err error) {
	count := 0
	var failed error
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
		err = multierr.Append(err, failed)
	}()

	err = archive.Walk(path, pathIn, func(archive string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		doc, enc, err := isContentInArchive(f)
		if err != nil {
			log.Warn("Skipping file in archive",
				zap.String("archive", archive), zap.String("path", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		if !doc {
			log.Debug("Skipping file, not recognized as document", zap.String("archive", archive), zap.String("file", f.FileHeader.Name))
			return nil
		}

		count++

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", archive), zap.String("file", f.FileHeader.Name), zap.Error(err))
			failed = multierr.Append(failed, err)
			return nil
		}
		defer r.Close()

		cp := state.EnvFromContext(ctx).CodePage

		pathInArchive := f.FileHeader.Name
		if cp != nil && f.FileHeader.NonUTF8 {
			// forcing zip file name encoding
			if n, err := cp.NewDecoder().String(pathInArchive); err == nil {
				pathInArchive = n
			} else {
				n, _ = ianaindex.IANA.Name(cp)
				log.Warn("Unable to convert archive name from specified encoding",
					zap.String("charset", n), zap.String("path", pathInArchive), zap.Error(err))
			}
		}
		if err := processDocument(ctx, selectReader(r, enc), filepath.Join(pathOut, pathInArchive), dst, format, log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", archive), zap.String("file", f.FileHeader.Name), zap.Error(err))
			failed = multierr.Append(failed, fmt.Errorf("%s: %w", pathInArchive, err))
		}
		return nil
	})
	return err
}

// processDocument renders single document. "src" is part of the source path
// (always including file name) relative to the original path. When actual file
// was specified it will be just base file name without a path. When looking
// inside archive or directory it will be relative path inside archive or
// directory (including base file name). "dst" is the destination directory
// where the rendered files should be written.
func processDocument(ctx context.Context, r io.Reader, src string, dst string, format common.OutputFmt, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var namespace, outputName string

	log.Info("Rendering starting", zap.String("from", src))
	defer func(start time.Time) {
		// one broken document should not stop processing of the rest
		if r := recover(); r != nil {
			log.Error("Rendering ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("rendering panic: %v", r)
		} else if rerr == nil {
			log.Info("Rendering completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.String("namespace", namespace))
		}
	}(time.Now())

	c, err := content.Prepare(ctx, r, src, log)
	if err != nil {
		return fmt.Errorf("unable to prepare document (%s): %w", src, err)
	}
	if env.Rpt == nil {
		// debug report takes care of working directory otherwise
		defer os.RemoveAll(c.WorkDir)
	}
	namespace = c.Namespace

	res, err := richtext.New(log).Convert(c.Input, c.Breakpoints, env.RenderOptions(c.Namespace))
	if err != nil {
		return fmt.Errorf("unable to render document (%s): %w", src, err)
	}

	if env.Rpt != nil {
		if err := os.WriteFile(filepath.Join(c.WorkDir, "rendered"), []byte(renderTree(res.Nodes)), 0644); err != nil {
			return fmt.Errorf("unable to write render tree for debugging: %w", err)
		}
	}

	// Determine output file name and path based on input and configuration.
	outputName = buildOutputPath(c, src, dst, format, env)

	outputs := []string{outputName}
	if format.SeparateStylesheet() {
		outputs = append(outputs, stylesheetPath(outputName))
	}
	for _, name := range outputs {
		if err := prepareDestination(name, env.Overwrite, log); err != nil {
			return err
		}
	}

	if err := writeOutput(c, res, outputName, format, env); err != nil {
		return fmt.Errorf("unable to generate output: %w", err)
	}

	// Store rendering results for debugging
	if env.Rpt != nil {
		for _, name := range outputs {
			rel, err := filepath.Rel(dst, name)
			if err != nil {
				rel = filepath.Base(name)
			}
			env.Rpt.Store("result/"+filepath.ToSlash(rel), name)
		}
	}
	return nil
}

// prepareDestination makes sure file could be written at name.
func prepareDestination(name string, overwrite bool, log *zap.Logger) error {
	if _, err := os.Stat(name); err == nil {
		if !overwrite {
			return fmt.Errorf("output file already exists: %s", name)
		}
		log.Warn("Overwriting existing file", zap.String("file", name))
		return os.Remove(name)
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	return nil
}

func writeOutput(c *content.Content, res *richtext.Result, outputName string, format common.OutputFmt, env *state.LocalEnv) error {
	switch format {
	case common.OutputFmtFragment:
		return writeFile(outputName, func(w io.Writer) error {
			return markup.WriteFragment(w, res)
		})

	case common.OutputFmtPage, common.OutputFmtSplit:
		opts := markup.PageOptions{
			Title: buildPageTitle(c, format, env),
			Lang:  pageLanguage(env.Cfg.Render.PageLanguage, env.Log),
		}
		if format.SeparateStylesheet() {
			cssName := stylesheetPath(outputName)
			opts.StylesheetHref = filepath.Base(cssName)
			if err := writeFile(cssName, func(w io.Writer) error {
				_, err := io.WriteString(w, res.StylesheetText())
				return err
			}); err != nil {
				return err
			}
		}
		return writeFile(outputName, func(w io.Writer) error {
			return markup.WritePage(w, res, opts)
		})

	default:
		// this should never happen
		return fmt.Errorf("unsupported output format %s", format)
	}
}

func writeFile(name string, fn func(w io.Writer) error) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	return fn(f)
}
