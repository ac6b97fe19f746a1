package convert

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"rtc/common"
	"rtc/config"
	"rtc/content"
	"rtc/state"
)

// stylesheet file extension for split output
const stylesheetExt = ".css"

// buildOutputPath returns constructed output file path/name based on various
// input parameters. It uses either default naming scheme or user-defined
// template and takes into account whether to preserve source directory
// structure on the output. It cleans up path and if requested transliterates
// it
func buildOutputPath(c *content.Content, src, dst string, format common.OutputFmt, env *state.LocalEnv) string {
	outDir := determineOutputDir(src, dst, env)
	defaultFile := buildDefaultFileName(src, format, env)

	if env.Cfg.Render.OutputNameTemplate == "" {
		return filepath.Join(outDir, defaultFile)
	}

	expandedName := expandOutputNameTemplate(c, format, env)
	if expandedName == "" {
		// fallback to default name if template expansion failed
		return filepath.Join(outDir, defaultFile)
	}

	return assemblePathWithSubdirs(outDir, expandedName, format, env)
}

// stylesheetPath returns name of the stylesheet file next to markup output.
func stylesheetPath(outputName string) string {
	return strings.TrimSuffix(outputName, filepath.Ext(outputName)) + stylesheetExt
}

func determineOutputDir(src, dst string, env *state.LocalEnv) string {
	if env.NoDirs {
		return dst
	}
	return filepath.Join(dst, filepath.Dir(src))
}

func buildDefaultFileName(src string, format common.OutputFmt, env *state.LocalEnv) string {
	baseName := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	if env.Cfg.Render.FileNameTransliterate {
		baseName = slug.Make(baseName)
	}
	return config.CleanFileName(baseName) + format.Ext()
}

func expandOutputNameTemplate(c *content.Content, format common.OutputFmt, env *state.LocalEnv) string {
	expandedName, err := expandTemplate(c, config.OutputNameTemplateFieldName, env.Cfg.Render.OutputNameTemplate, format, env.Cfg.Render.Mode)
	if err != nil {
		env.Log.Warn("Unable to prepare output filename", zap.Error(err))
		return ""
	}
	return filepath.FromSlash(strings.TrimSpace(expandedName))
}

// buildPageTitle returns title for standalone page. Without template first
// line of the document is used, source name when document has no text.
func buildPageTitle(c *content.Content, format common.OutputFmt, env *state.LocalEnv) string {
	if env.Cfg.Render.PageTitleTemplate != "" {
		title, err := expandTemplate(c, config.PageTitleTemplateFieldName, env.Cfg.Render.PageTitleTemplate, format, env.Cfg.Render.Mode)
		if err == nil {
			return strings.TrimSpace(title)
		}
		env.Log.Warn("Unable to prepare page title", zap.Error(err))
	}
	if line := firstLine(c); line != "" {
		return line
	}
	return strings.TrimSuffix(filepath.Base(c.SrcName), filepath.Ext(c.SrcName))
}

// assemblePathWithSubdirs takes an expanded template name (which may contain
// path separators for subdirectories) and assembles it into a full output path,
// cleaning and transliterating segments as needed
func assemblePathWithSubdirs(outDir, expandedName string, format common.OutputFmt, env *state.LocalEnv) string {
	pathSegments := splitAndCleanPath(expandedName)

	if len(pathSegments) == 0 {
		return outDir
	}

	fileName := cleanPathSegment(pathSegments[len(pathSegments)-1], env) + format.Ext()
	dirParts := make([]string, 0, len(pathSegments)+1)
	dirParts = append(dirParts, outDir)

	for _, segment := range pathSegments[:len(pathSegments)-1] {
		dirParts = append(dirParts, cleanPathSegment(segment, env))
	}

	dirParts = append(dirParts, fileName)
	return filepath.Join(dirParts...)
}

func splitAndCleanPath(path string) []string {
	path = strings.TrimSuffix(path, string(os.PathSeparator))
	segments := make([]string, 0, 8)

	for head, tail := filepath.Split(path); tail != ""; head, tail = filepath.Split(head) {
		segments = slices.Insert(segments, 0, tail)
		head = strings.TrimSuffix(head, string(os.PathSeparator))
		if head == "" {
			break
		}
	}

	return segments
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Render.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
