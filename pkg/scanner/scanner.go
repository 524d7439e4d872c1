package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"repodoc/internal/models"
	"repodoc/internal/types"
)

type ScannerConfig struct {
	// MaxFileSize bounds how much content is read into memory; files above
	// it are still enumerated (with size metadata) so the filter can record
	// the decision, but their content stays empty.
	MaxFileSize int64
}

type Scanner struct {
	config    ScannerConfig
	estimator types.Estimator
	logger    *zap.Logger
}

func NewWithConfig(config ScannerConfig, estimator types.Estimator, logger *zap.Logger) *Scanner {
	if config.MaxFileSize == 0 {
		config.MaxFileSize = 102400
	}
	return &Scanner{
		config:    config,
		estimator: estimator,
		logger:    logger,
	}
}

// Scan walks the repository tree and returns every regular file as a
// FileRecord, sorted lexicographically by relative path so that downstream
// chunk indices are reproducible. Unreadable or non-UTF-8 files are skipped
// with a warning; only a missing or non-directory root is an error.
func (s *Scanner) Scan(root string) ([]models.FileRecord, []string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, fmt.Errorf("repository path does not exist: %s", root)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("repository path is not a directory: %s", root)
	}

	var files []models.FileRecord
	var warnings []string

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("cannot access %s: %v", path, err))
			s.logger.Warn("error accessing path during scan", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			return nil
		}

		fileInfo, err := d.Info()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("cannot stat %s: %v", path, err))
			s.logger.Warn("failed to stat file during scan", zap.String("path", path), zap.Error(err))
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		record := models.FileRecord{
			Path:         path,
			RelativePath: relPath,
			Extension:    strings.ToLower(filepath.Ext(path)),
			SizeBytes:    fileInfo.Size(),
		}

		if fileInfo.Size() <= s.config.MaxFileSize {
			content, warning := s.readContent(path)
			if warning != "" {
				warnings = append(warnings, warning)
				return nil
			}
			record.Content = content
			record.TokenCount = s.estimator.Estimate(content)
		}

		files = append(files, record)
		return nil
	})
	if err != nil {
		return nil, warnings, fmt.Errorf("failed to walk repository: %w", err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelativePath < files[j].RelativePath
	})

	s.logger.Info("scan complete",
		zap.String("root", root),
		zap.Int("files", len(files)),
		zap.Int("warnings", len(warnings)))

	return files, warnings, nil
}

func (s *Scanner) readContent(path string) (string, string) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("failed to read file", zap.String("path", path), zap.Error(err))
		return "", fmt.Sprintf("cannot read %s: %v", path, err)
	}
	if !utf8.Valid(data) {
		s.logger.Debug("skipping non-UTF-8 file", zap.String("path", path))
		return "", fmt.Sprintf("skipping non-UTF-8 file: %s", path)
	}
	return string(data), ""
}
