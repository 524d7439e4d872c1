package scanner_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"repodoc/pkg/scanner"
	"repodoc/pkg/tokens"
)

func writeFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newScanner(maxFileSize int64) *scanner.Scanner {
	return scanner.NewWithConfig(scanner.ScannerConfig{
		MaxFileSize: maxFileSize,
	}, tokens.NewHeuristic(), zap.NewNop())
}

func TestScan_LexicographicOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "zeta.go", "package zeta")
	writeFile(t, root, "alpha.go", "package alpha")
	writeFile(t, root, "pkg/beta.go", "package beta")
	writeFile(t, root, "cmd/main.go", "package main")

	files, warnings, err := newScanner(0).Scan(root)

	require.NoError(t, err)
	assert.Empty(t, warnings)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.RelativePath)
	}
	assert.Equal(t, []string{"alpha.go", "cmd/main.go", "pkg/beta.go", "zeta.go"}, paths)
}

func TestScan_RecordMetadata(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/App.TSX", "export const App = () => null")

	files, _, err := newScanner(0).Scan(root)

	require.NoError(t, err)
	require.Len(t, files, 1)
	f := files[0]
	assert.Equal(t, "src/App.TSX", f.RelativePath)
	assert.Equal(t, ".tsx", f.Extension)
	assert.Equal(t, int64(29), f.SizeBytes)
	assert.Equal(t, "export const App = () => null", f.Content)
	assert.Equal(t, 29/3, f.TokenCount)
}

func TestScan_OversizedContentNotRead(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.go", "0123456789012345678901234567890123456789")

	files, _, err := newScanner(10).Scan(root)

	require.NoError(t, err)
	require.Len(t, files, 1)
	// The record is still enumerated with its size so the filter can log
	// the exclusion, but the content stays unread.
	assert.Equal(t, int64(40), files[0].SizeBytes)
	assert.Empty(t, files[0].Content)
}

func TestScan_SkipsNonUTF8WithWarning(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ok.go", "package ok")
	require.NoError(t, os.WriteFile(filepath.Join(root, "blob.go"), []byte{0xff, 0xfe, 0x00, 0x80}, 0o644))

	files, warnings, err := newScanner(0).Scan(root)

	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "ok.go", files[0].RelativePath)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "blob.go")
}

func TestScan_MissingRoot(t *testing.T) {
	_, _, err := newScanner(0).Scan(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestScan_RootIsFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "file.go", "package file")

	_, _, err := newScanner(0).Scan(filepath.Join(root, "file.go"))
	assert.Error(t, err)
}
