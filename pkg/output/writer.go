package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"repodoc/internal/models"
)

const timestampLayout = "2006-01-02_15-04-05"

// WriterConfig represents the configuration for the output writer.
type WriterConfig struct {
	OutputDir        string
	Filename         string
	SaveIntermediate bool

	// Report context, echoed into the processing report.
	Model          string
	MaxInputTokens int
	ReservedTokens int
	MaxFileSize    int64
	MaxFiles       int
}

// Writer persists the run's artifacts. Writing is best-effort per
// artifact: one artifact failing never prevents the others from being
// written, and never masks a completed run whose document landed on disk.
type Writer struct {
	config WriterConfig
	logger *zap.Logger
}

func NewWithConfig(config WriterConfig, logger *zap.Logger) *Writer {
	if config.Filename == "" {
		config.Filename = "requirements.md"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./repodoc-output"
	}
	return &Writer{
		config: config,
		logger: logger,
	}
}

// WriteIntermediate persists one per-chunk snapshot, named by its
// iteration index in processing order.
func (w *Writer) WriteIntermediate(version models.DocumentVersion) error {
	if !w.config.SaveIntermediate {
		return nil
	}
	dir := filepath.Join(w.config.OutputDir, "intermediate")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create intermediate dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("chunk_%d.md", version.Iteration))
	if err := os.WriteFile(path, []byte(version.Content), 0o644); err != nil {
		return fmt.Errorf("failed to write intermediate snapshot: %w", err)
	}
	w.logger.Debug("intermediate snapshot written", zap.String("path", path))
	return nil
}

// Write persists the final document, a timestamped backup, the processing
// report, and the statistics record. It returns whether the document
// itself was written plus the joined errors of any artifacts that failed.
func (w *Writer) Write(state *models.WorkflowState) (bool, error) {
	var errs []error

	if err := os.MkdirAll(w.config.OutputDir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create output dir: %w", err)
	}

	timestamp := time.Now().Format(timestampLayout)
	documentWritten := false

	docPath := filepath.Join(w.config.OutputDir, w.config.Filename)
	if err := os.WriteFile(docPath, []byte(state.CurrentDocument), 0o644); err != nil {
		errs = append(errs, fmt.Errorf("failed to write document: %w", err))
		w.logger.Error("failed to write final document", zap.String("path", docPath), zap.Error(err))
	} else {
		documentWritten = true
		w.logger.Info("document written", zap.String("path", docPath))
	}

	backupPath := filepath.Join(w.config.OutputDir, timestamp+"_"+w.config.Filename)
	if err := os.WriteFile(backupPath, []byte(state.CurrentDocument), 0o644); err != nil {
		errs = append(errs, fmt.Errorf("failed to write backup: %w", err))
		w.logger.Warn("failed to write backup copy", zap.Error(err))
	}

	reportPath := filepath.Join(w.config.OutputDir, timestamp+"_report.md")
	if err := os.WriteFile(reportPath, []byte(w.renderReport(state)), 0o644); err != nil {
		errs = append(errs, fmt.Errorf("failed to write report: %w", err))
		w.logger.Warn("failed to write processing report", zap.Error(err))
	}

	statsPath := filepath.Join(w.config.OutputDir, "stats.json")
	if err := w.writeStats(statsPath, state); err != nil {
		errs = append(errs, err)
		w.logger.Warn("failed to write statistics record", zap.Error(err))
	}

	return documentWritten, errors.Join(errs...)
}

func (w *Writer) writeStats(path string, state *models.WorkflowState) error {
	data, err := json.MarshalIndent(state.Stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode statistics: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write statistics: %w", err)
	}
	return nil
}

// renderReport produces the human-readable processing report: counts,
// per-chunk token usage, file type distribution, filtering decisions.
func (w *Writer) renderReport(state *models.WorkflowState) string {
	var b strings.Builder

	b.WriteString("# Processing Report\n\n")
	fmt.Fprintf(&b, "**Generated**: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Repository**: %s\n", state.RepoPath)
	fmt.Fprintf(&b, "**Status**: %s\n\n", state.Status)
	if state.Error != "" {
		fmt.Fprintf(&b, "**Error**: %s\n\n", state.Error)
	}

	b.WriteString("## Statistics\n\n")
	fmt.Fprintf(&b, "- **Files scanned**: %d\n", state.Stats.TotalFiles)
	fmt.Fprintf(&b, "- **Files kept**: %d\n", state.Stats.FilteredFiles)
	fmt.Fprintf(&b, "- **Total tokens**: %d\n", state.Stats.TotalTokens)
	fmt.Fprintf(&b, "- **Chunks**: %d\n", state.Stats.TotalChunks)
	fmt.Fprintf(&b, "- **Chunks processed**: %d\n", state.Stats.ProcessedChunks)
	fmt.Fprintf(&b, "- **Prompt tokens**: %d\n", state.Stats.Usage.PromptTokens)
	fmt.Fprintf(&b, "- **Completion tokens**: %d\n", state.Stats.Usage.CompletionTokens)
	fmt.Fprintf(&b, "- **Duration**: %s\n\n", state.Stats.Duration.Round(time.Millisecond))

	if len(state.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, warning := range state.Warnings {
			fmt.Fprintf(&b, "- %s\n", warning)
		}
		b.WriteString("\n")
	}

	w.renderExtensions(&b, state)
	w.renderChunks(&b, state)

	b.WriteString("## Configuration\n\n")
	fmt.Fprintf(&b, "- **Model**: %s\n", w.config.Model)
	fmt.Fprintf(&b, "- **Max input tokens**: %d\n", w.config.MaxInputTokens)
	fmt.Fprintf(&b, "- **Reserved tokens**: %d\n", w.config.ReservedTokens)
	fmt.Fprintf(&b, "- **Max file size**: %d bytes\n", w.config.MaxFileSize)
	fmt.Fprintf(&b, "- **Max files**: %d\n", w.config.MaxFiles)

	return b.String()
}

func (w *Writer) renderExtensions(b *strings.Builder, state *models.WorkflowState) {
	if len(state.FilteredFiles) == 0 {
		return
	}

	counts := make(map[string]int)
	for _, file := range state.FilteredFiles {
		counts[file.Extension]++
	}

	exts := make([]string, 0, len(counts))
	for ext := range counts {
		exts = append(exts, ext)
	}
	sort.Slice(exts, func(i, j int) bool {
		if counts[exts[i]] != counts[exts[j]] {
			return counts[exts[i]] > counts[exts[j]]
		}
		return exts[i] < exts[j]
	})

	b.WriteString("## File Types\n\n")
	for _, ext := range exts {
		fmt.Fprintf(b, "- `%s`: %d files\n", ext, counts[ext])
	}
	b.WriteString("\n")
}

func (w *Writer) renderChunks(b *strings.Builder, state *models.WorkflowState) {
	if len(state.Chunks) == 0 {
		return
	}

	b.WriteString("## Chunks\n\n")
	for _, chunk := range state.Chunks {
		fmt.Fprintf(b, "### Chunk %d\n", chunk.Index)
		fmt.Fprintf(b, "- **Files**: %d\n", len(chunk.Files))
		fmt.Fprintf(b, "- **Estimated tokens**: %d\n", chunk.EstimatedTokens)
		for i, file := range chunk.Files {
			if i == 10 {
				fmt.Fprintf(b, "  - ... and %d more files\n", len(chunk.Files)-10)
				break
			}
			fmt.Fprintf(b, "  - `%s`\n", file.RelativePath)
		}
		b.WriteString("\n")
	}
}
