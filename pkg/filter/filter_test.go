package filter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"repodoc/internal/models"
	"repodoc/pkg/filter"
)

func record(relPath string, ext string, size int64) models.FileRecord {
	return models.FileRecord{
		RelativePath: relPath,
		Extension:    ext,
		SizeBytes:    size,
	}
}

func TestApply_IncludeExtensions(t *testing.T) {
	f, err := filter.NewWithConfig(filter.FilterConfig{
		IncludeExtensions: []string{".go", ".py"},
	}, zap.NewNop())
	require.NoError(t, err)

	files := []models.FileRecord{
		record("main.go", ".go", 10),
		record("README.md", ".md", 10),
		record("app.py", ".py", 10),
		record("logo.png", ".png", 10),
	}

	kept, warnings := f.Apply(files)

	assert.Empty(t, warnings)
	assert.Equal(t, []string{"main.go", "app.py"}, relPaths(kept))
}

func TestApply_EmptyIncludeSetKeepsAllExtensions(t *testing.T) {
	f, err := filter.NewWithConfig(filter.FilterConfig{}, zap.NewNop())
	require.NoError(t, err)

	files := []models.FileRecord{
		record("main.go", ".go", 10),
		record("README.md", ".md", 10),
	}

	kept, _ := f.Apply(files)
	assert.Len(t, kept, 2)
}

func TestApply_ExcludePatterns(t *testing.T) {
	f, err := filter.NewWithConfig(filter.FilterConfig{
		ExcludePatterns: []string{
			"**/node_modules/**",
			"**/.git/**",
			"dist",
			"*.min.js",
			"/vendor/**",
		},
	}, zap.NewNop())
	require.NoError(t, err)

	files := []models.FileRecord{
		record("src/app.js", ".js", 10),
		record("node_modules/lodash/index.js", ".js", 10),
		record("web/node_modules/react/index.js", ".js", 10),
		record(".git/config", "", 10),
		record("dist/bundle.js", ".js", 10),
		record("assets/app.min.js", ".js", 10),
		record("vendor/lib.go", ".go", 10),
		record("pkg/vendor_test.go", ".go", 10),
	}

	kept, _ := f.Apply(files)

	assert.Equal(t, []string{"src/app.js", "pkg/vendor_test.go"}, relPaths(kept))
}

func TestApply_MaxFileSize(t *testing.T) {
	f, err := filter.NewWithConfig(filter.FilterConfig{
		MaxFileSize: 100,
	}, zap.NewNop())
	require.NoError(t, err)

	files := []models.FileRecord{
		record("small.go", ".go", 100),
		record("big.go", ".go", 101),
	}

	kept, warnings := f.Apply(files)

	assert.Equal(t, []string{"small.go"}, relPaths(kept))
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "big.go")
}

func TestApply_MaxFilesTruncation(t *testing.T) {
	f, err := filter.NewWithConfig(filter.FilterConfig{
		MaxFiles: 2,
	}, zap.NewNop())
	require.NoError(t, err)

	files := []models.FileRecord{
		record("a.go", ".go", 10),
		record("b.go", ".go", 10),
		record("c.go", ".go", 10),
	}

	kept, warnings := f.Apply(files)

	// Truncation keeps enumeration order and is a non-fatal warning.
	assert.Equal(t, []string{"a.go", "b.go"}, relPaths(kept))
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "limit 2")
}

func TestApply_Deterministic(t *testing.T) {
	f, err := filter.NewWithConfig(filter.FilterConfig{
		IncludeExtensions: []string{".go"},
		ExcludePatterns:   []string{"**/testdata/**"},
		MaxFiles:          3,
	}, zap.NewNop())
	require.NoError(t, err)

	files := []models.FileRecord{
		record("a.go", ".go", 10),
		record("b/testdata/x.go", ".go", 10),
		record("c.go", ".go", 10),
		record("d.go", ".go", 10),
		record("e.go", ".go", 10),
	}

	first, _ := f.Apply(files)
	second, _ := f.Apply(files)
	assert.Equal(t, relPaths(first), relPaths(second))
}

func TestApply_DotsInPatternsAreLiteral(t *testing.T) {
	f, err := filter.NewWithConfig(filter.FilterConfig{
		ExcludePatterns: []string{"a.go"},
	}, zap.NewNop())
	require.NoError(t, err)

	files := []models.FileRecord{
		record("a.go", ".go", 10),
		record("axgo", "", 10),
	}

	kept, _ := f.Apply(files)
	assert.Equal(t, []string{"axgo"}, relPaths(kept))
}

func relPaths(files []models.FileRecord) []string {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.RelativePath)
	}
	return paths
}
