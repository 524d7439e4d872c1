package output_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"repodoc/internal/models"
	"repodoc/pkg/output"
)

func sampleState() *models.WorkflowState {
	state := models.NewWorkflowState("/tmp/repo")
	state.Status = models.StatusCompleted
	state.CurrentDocument = "# Requirements\n\nThe system does things.\n"
	state.FilteredFiles = []models.FileRecord{
		{RelativePath: "main.go", Extension: ".go"},
		{RelativePath: "util.go", Extension: ".go"},
		{RelativePath: "app.py", Extension: ".py"},
	}
	state.Chunks = []models.Chunk{
		{Index: 1, Files: state.FilteredFiles[:2], EstimatedTokens: 500},
		{Index: 2, Files: state.FilteredFiles[2:], EstimatedTokens: 200},
	}
	state.Warnings = []string{"file count 600 exceeds limit 500, keeping the first 500"}
	state.Stats = models.Stats{
		TotalFiles:      4,
		FilteredFiles:   3,
		TotalTokens:     700,
		TotalChunks:     2,
		ProcessedChunks: 2,
		Usage:           models.TokenUsage{PromptTokens: 900, CompletionTokens: 400},
		Status:          models.StatusCompleted,
	}
	return state
}

func newWriter(dir string, saveIntermediate bool) *output.Writer {
	return output.NewWithConfig(output.WriterConfig{
		OutputDir:        dir,
		Filename:         "requirements.md",
		SaveIntermediate: saveIntermediate,
		Model:            "gpt-4o",
		MaxInputTokens:   100000,
		ReservedTokens:   10000,
		MaxFileSize:      102400,
		MaxFiles:         500,
	}, zap.NewNop())
}

func TestWrite_AllArtifacts(t *testing.T) {
	dir := t.TempDir()
	w := newWriter(dir, false)

	documentWritten, err := w.Write(sampleState())

	require.NoError(t, err)
	assert.True(t, documentWritten)

	data, err := os.ReadFile(filepath.Join(dir, "requirements.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "The system does things.")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var haveBackup, haveReport, haveStats bool
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case name == "stats.json":
			haveStats = true
		case name == "requirements.md":
		case strings.HasSuffix(name, "_report.md"):
			haveReport = true
		case strings.HasSuffix(name, "_requirements.md"):
			haveBackup = true
		}
	}
	assert.True(t, haveBackup, "timestamped backup copy missing")
	assert.True(t, haveReport, "processing report missing")
	assert.True(t, haveStats, "statistics record missing")
}

func TestWrite_ReportContents(t *testing.T) {
	dir := t.TempDir()
	w := newWriter(dir, false)

	_, err := w.Write(sampleState())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var report string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, "_report.md") {
			data, err := os.ReadFile(filepath.Join(dir, name))
			require.NoError(t, err)
			report = string(data)
		}
	}
	require.NotEmpty(t, report)

	assert.Contains(t, report, "**Status**: completed")
	assert.Contains(t, report, "**Chunks**: 2")
	assert.Contains(t, report, "### Chunk 1")
	assert.Contains(t, report, "`main.go`")
	assert.Contains(t, report, "`.go`: 2 files")
	assert.Contains(t, report, "exceeds limit 500")
	assert.Contains(t, report, "**Model**: gpt-4o")
}

func TestWrite_StatsRecord(t *testing.T) {
	dir := t.TempDir()
	w := newWriter(dir, false)

	_, err := w.Write(sampleState())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "stats.json"))
	require.NoError(t, err)

	var stats models.Stats
	require.NoError(t, json.Unmarshal(data, &stats))
	assert.Equal(t, 3, stats.FilteredFiles)
	assert.Equal(t, 2, stats.TotalChunks)
	assert.Equal(t, 900, stats.Usage.PromptTokens)
	assert.Equal(t, models.StatusCompleted, stats.Status)
}

func TestWriteIntermediate(t *testing.T) {
	dir := t.TempDir()
	w := newWriter(dir, true)

	err := w.WriteIntermediate(models.DocumentVersion{
		Iteration: 3,
		Content:   "version three",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "intermediate", "chunk_3.md"))
	require.NoError(t, err)
	assert.Equal(t, "version three", string(data))
}

func TestWriteIntermediate_DisabledIsNoop(t *testing.T) {
	dir := t.TempDir()
	w := newWriter(dir, false)

	require.NoError(t, w.WriteIntermediate(models.DocumentVersion{Iteration: 1, Content: "x"}))

	_, err := os.Stat(filepath.Join(dir, "intermediate"))
	assert.True(t, os.IsNotExist(err))
}

func TestWrite_FailedRunStillPersistsPartialDocument(t *testing.T) {
	dir := t.TempDir()
	w := newWriter(dir, false)

	state := sampleState()
	state.Status = models.StatusFailed
	state.Error = "model call for chunk 2 failed: timeout"
	state.CurrentDocument = "partial document"

	documentWritten, err := w.Write(state)

	require.NoError(t, err)
	assert.True(t, documentWritten)

	data, err := os.ReadFile(filepath.Join(dir, "requirements.md"))
	require.NoError(t, err)
	assert.Equal(t, "partial document", string(data))
}
