package workflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"repodoc/internal/models"
	"repodoc/internal/types"
	"repodoc/pkg/builder"
	"repodoc/pkg/chunker"
	"repodoc/pkg/config"
	"repodoc/pkg/filter"
	"repodoc/pkg/llm"
	"repodoc/pkg/output"
	"repodoc/pkg/scanner"
	"repodoc/pkg/tokens"
)

// Workflow drives the five stages over a single WorkflowState:
// scan -> filter -> chunk -> build -> write. Each stage reads its inputs
// from the state and writes its results back; stages never call each other.
type Workflow struct {
	Config    *config.Config
	Generator types.Generator
	Estimator types.Estimator
	Logger    *zap.Logger

	// OnChunk reports fold progress (completed, total) for UI callers.
	OnChunk func(completed, total int)
}

// New wires the default estimator and the OpenAI-backed generator from the
// configuration. Tests replace Generator and Estimator directly.
func New(cfg *config.Config, logger *zap.Logger) (*Workflow, error) {
	estimator := chooseEstimator(cfg, logger)

	generator, err := llm.NewWithConfig(llm.GeneratorConfig{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		RateLimit:   cfg.LLM.RateLimit,
		Timeout:     time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		Prompts: llm.PromptSet{
			System:      cfg.Prompts.System,
			FirstChunk:  cfg.Prompts.FirstChunk,
			Incremental: cfg.Prompts.Incremental,
			NextChunk:   cfg.Prompts.NextChunk,
		},
	}, estimator)
	if err != nil {
		return nil, err
	}

	return &Workflow{
		Config:    cfg,
		Generator: generator,
		Estimator: estimator,
		Logger:    logger,
	}, nil
}

func chooseEstimator(cfg *config.Config, logger *zap.Logger) types.Estimator {
	if cfg.LLM.Tokenizer == "tiktoken" {
		estimator, err := tokens.NewTiktoken()
		if err == nil {
			return estimator
		}
		logger.Warn("tiktoken unavailable, falling back to heuristic estimator", zap.Error(err))
	}
	return tokens.NewHeuristic()
}

// Run processes one repository and returns the terminal state. The state
// is always returned, failed or not, so the partial document and the
// recorded error stay available for inspection.
func (w *Workflow) Run(ctx context.Context, repoPath string) (*models.WorkflowState, error) {
	state := models.NewWorkflowState(repoPath)
	state.Status = models.StatusRunning

	// Stage constructors validate their configuration before any file I/O.
	fileChunker, err := chunker.NewWithConfig(w.Config.Budget(), w.Estimator, w.Logger)
	if err != nil {
		return w.fail(state, err), err
	}

	fileFilter, err := filter.NewWithConfig(filter.FilterConfig{
		IncludeExtensions: w.Config.FileFilter.IncludeExtensions,
		ExcludePatterns:   w.Config.FileFilter.ExcludePatterns,
		MaxFileSize:       w.Config.FileFilter.MaxFileSize,
		MaxFiles:          w.Config.FileFilter.MaxFiles,
	}, w.Logger)
	if err != nil {
		return w.fail(state, err), err
	}

	fileScanner := scanner.NewWithConfig(scanner.ScannerConfig{
		MaxFileSize: w.Config.FileFilter.MaxFileSize,
	}, w.Estimator, w.Logger)

	writer := output.NewWithConfig(output.WriterConfig{
		OutputDir:        w.Config.Output.OutputDir,
		Filename:         w.Config.Output.Filename,
		SaveIntermediate: w.Config.Output.SaveIntermediate,
		Model:            w.Config.LLM.Model,
		MaxInputTokens:   w.Config.LLM.MaxInputTokens,
		ReservedTokens:   w.Config.LLM.ReservedTokens,
		MaxFileSize:      w.Config.FileFilter.MaxFileSize,
		MaxFiles:         w.Config.FileFilter.MaxFiles,
	}, w.Logger)

	allFiles, scanWarnings, err := fileScanner.Scan(repoPath)
	if err != nil {
		return w.fail(state, err), err
	}
	state.AllFiles = allFiles
	state.Warnings = append(state.Warnings, scanWarnings...)
	state.Stats.TotalFiles = len(allFiles)

	filtered, filterWarnings := fileFilter.Apply(allFiles)
	state.FilteredFiles = filtered
	state.Warnings = append(state.Warnings, filterWarnings...)
	state.Stats.FilteredFiles = len(filtered)
	for _, file := range filtered {
		state.Stats.TotalTokens += file.TokenCount
	}

	state.Chunks = fileChunker.Chunk(filtered)
	state.Stats.TotalChunks = len(state.Chunks)

	// Scanned-but-filtered content is no longer needed; the chunks carry
	// their own copies.
	state.AllFiles = nil

	docBuilder, err := builder.NewWithConfig(builder.BuilderConfig{
		Generator: w.Generator,
		OnVersion: func(version models.DocumentVersion) error {
			if w.OnChunk != nil {
				w.OnChunk(version.Iteration, len(state.Chunks))
			}
			return writer.WriteIntermediate(version)
		},
	}, w.Logger)
	if err != nil {
		return w.fail(state, err), err
	}

	result := docBuilder.Build(ctx, state.Chunks, "")
	state.Status = result.Status
	state.CurrentDocument = result.Document
	state.Versions = result.Versions
	state.CurrentChunkIndex = result.Processed
	state.Stats.ProcessedChunks = result.Processed
	state.Stats.Usage = result.Usage
	if result.Err != nil {
		state.Error = result.Err.Error()
	}

	state.Stats.Duration = time.Since(state.StartedAt)
	state.Stats.Status = state.Status

	// Artifacts are written for failed runs too: the partial document is
	// never silently discarded.
	documentWritten, writeErr := writer.Write(state)
	if writeErr != nil {
		w.Logger.Warn("some output artifacts failed", zap.Error(writeErr))
	}

	if result.Err != nil {
		return state, result.Err
	}
	if !documentWritten {
		return state, fmt.Errorf("document generation completed but the document could not be written: %w", writeErr)
	}
	return state, nil
}

func (w *Workflow) fail(state *models.WorkflowState, err error) *models.WorkflowState {
	state.Status = models.StatusFailed
	state.Error = err.Error()
	state.Stats.Duration = time.Since(state.StartedAt)
	state.Stats.Status = state.Status
	w.Logger.Error("workflow failed", zap.Error(err))
	return state
}
