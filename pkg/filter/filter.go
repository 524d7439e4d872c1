package filter

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"repodoc/internal/models"
)

type FilterConfig struct {
	IncludeExtensions []string
	ExcludePatterns   []string
	MaxFileSize       int64
	MaxFiles          int
}

type Filter struct {
	config     FilterConfig
	extensions map[string]bool
	excludes   []*regexp.Regexp
	logger     *zap.Logger
}

func NewWithConfig(config FilterConfig, logger *zap.Logger) (*Filter, error) {
	if config.MaxFileSize == 0 {
		config.MaxFileSize = 102400
	}
	if config.MaxFiles == 0 {
		config.MaxFiles = 500
	}

	extensions := make(map[string]bool, len(config.IncludeExtensions))
	for _, ext := range config.IncludeExtensions {
		extensions[strings.ToLower(ext)] = true
	}

	excludes := make([]*regexp.Regexp, 0, len(config.ExcludePatterns))
	for _, pattern := range config.ExcludePatterns {
		re, err := compilePattern(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		excludes = append(excludes, re)
	}

	return &Filter{
		config:     config,
		extensions: extensions,
		excludes:   excludes,
		logger:     logger,
	}, nil
}

// Apply returns the ordered subset of files passing the extension,
// exclude-pattern, and size rules, truncated to MaxFiles. Truncation is a
// non-fatal warning surfaced in the processing report. The result is
// deterministic for a given input list and configuration.
func (f *Filter) Apply(files []models.FileRecord) ([]models.FileRecord, []string) {
	var kept []models.FileRecord
	var warnings []string
	excluded := 0

	for _, file := range files {
		if len(f.extensions) > 0 && !f.extensions[file.Extension] {
			excluded++
			continue
		}
		if f.matchesExclude(file.RelativePath) {
			f.logger.Debug("excluding file", zap.String("path", file.RelativePath))
			excluded++
			continue
		}
		if file.SizeBytes > f.config.MaxFileSize {
			warnings = append(warnings, fmt.Sprintf("skipping oversized file %s (%d bytes)", file.RelativePath, file.SizeBytes))
			excluded++
			continue
		}
		kept = append(kept, file)
	}

	if len(kept) > f.config.MaxFiles {
		warnings = append(warnings, fmt.Sprintf("file count %d exceeds limit %d, keeping the first %d", len(kept), f.config.MaxFiles, f.config.MaxFiles))
		f.logger.Warn("truncating file list",
			zap.Int("files", len(kept)),
			zap.Int("maxFiles", f.config.MaxFiles))
		kept = kept[:f.config.MaxFiles]
	}

	f.logger.Info("filter complete",
		zap.Int("kept", len(kept)),
		zap.Int("excluded", excluded))

	return kept, warnings
}

func (f *Filter) matchesExclude(relPath string) bool {
	for _, re := range f.excludes {
		if re.MatchString(relPath) {
			return true
		}
	}
	return false
}

// anyDirs stands in for a "/**/" segment while wildcards are rewritten.
const anyDirs = "\x00"

// compilePattern converts a gitignore-style glob into an anchored regexp
// matched against slash-separated relative paths. A pattern matches a path
// itself and everything beneath it, the way gitignore directory patterns do.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	p := strings.TrimSuffix(pattern, "/")

	rooted := strings.HasPrefix(p, "/")
	p = strings.TrimPrefix(p, "/")

	leading := strings.HasPrefix(p, "**/")
	p = strings.TrimPrefix(p, "**/")

	trailingAll := strings.HasSuffix(p, "/**")
	p = strings.TrimSuffix(p, "/**")

	p = strings.ReplaceAll(p, "/**/", "/"+anyDirs+"/")
	p = escapeSpecialChars(p)
	p = strings.ReplaceAll(p, "*", `[^/]*`)
	p = strings.ReplaceAll(p, "?", `[^/]`)
	p = strings.ReplaceAll(p, "/"+anyDirs+"/", `/(.+/)?`)

	var b strings.Builder
	b.WriteString("^")
	if leading || !rooted {
		b.WriteString(`(.*/)?`)
	}
	b.WriteString(p)
	if trailingAll {
		b.WriteString(`/.*`)
	} else {
		b.WriteString(`(/.*)?`)
	}
	b.WriteString("$")

	return regexp.Compile(b.String())
}

// escapeSpecialChars escapes regexp metacharacters except '*', '?', and '/'.
func escapeSpecialChars(pattern string) string {
	const specialChars = `.+()|^$[]{}\`
	var b strings.Builder
	for _, char := range pattern {
		if strings.ContainsRune(specialChars, char) {
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
