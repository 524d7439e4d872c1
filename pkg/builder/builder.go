package builder

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"repodoc/internal/models"
	"repodoc/internal/types"
)

// emptyDocument is the deliverable for a run whose filter produced no
// files: the workflow still completes instead of staying pending.
const emptyDocument = "# Requirements\n\nNo source files matched the configured filters.\n"

// BuilderConfig represents the configuration for the incremental builder.
type BuilderConfig struct {
	Generator types.Generator
	// OnVersion, when set, is called after each successful iteration with
	// the fresh document version (intermediate snapshot hook). A hook
	// failure is logged and does not stop the run.
	OnVersion func(models.DocumentVersion) error
}

// Result is the terminal outcome of one fold over the chunk sequence.
type Result struct {
	Status    models.Status
	Document  string
	Versions  []models.DocumentVersion
	Usage     models.TokenUsage
	Processed int
	Err       error
}

// Builder folds the chunk sequence into a single document, one model call
// per chunk, strictly in index order: iteration i always observes the
// document produced by iteration i-1. Processing is deliberately
// sequential so that later chunks can merge with earlier findings; no
// concurrent chunk processing exists here.
type Builder struct {
	config BuilderConfig
	logger *zap.Logger
}

func NewWithConfig(config BuilderConfig, logger *zap.Logger) (*Builder, error) {
	if config.Generator == nil {
		return nil, fmt.Errorf("builder requires a generator")
	}
	return &Builder{
		config: config,
		logger: logger,
	}, nil
}

// Build runs the fold starting from initialDocument (empty for a fresh
// run). The first model failure fails the whole run: no later chunk is
// invoked, no chunk is retried, and the document from the last successful
// iteration is preserved in the result. Cancellation is honored at chunk
// boundaries only; an in-flight model call is not preempted.
func (b *Builder) Build(ctx context.Context, chunks []models.Chunk, initialDocument string) Result {
	result := Result{
		Status:   models.StatusRunning,
		Document: initialDocument,
	}

	if len(chunks) == 0 {
		b.logger.Info("no chunks to process, emitting placeholder document")
		result.Status = models.StatusCompleted
		result.Document = emptyDocument
		return result
	}

	total := len(chunks)
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			result.Status = models.StatusFailed
			result.Err = fmt.Errorf("cancelled before chunk %d: %w", chunk.Index, err)
			return result
		}

		b.logger.Info("processing chunk",
			zap.Int("index", chunk.Index),
			zap.Int("total", total),
			zap.Int("files", len(chunk.Files)),
			zap.Int("estimatedTokens", chunk.EstimatedTokens))

		document, usage, err := b.config.Generator.Generate(ctx, result.Document, chunk, total)
		if err != nil {
			b.logger.Error("chunk failed, stopping run",
				zap.Int("index", chunk.Index),
				zap.Error(err))
			result.Status = models.StatusFailed
			result.Err = err
			return result
		}

		version := models.DocumentVersion{
			Iteration: chunk.Index,
			Content:   document,
			Usage:     usage,
		}

		result.Document = document
		result.Versions = append(result.Versions, version)
		result.Usage.Add(usage)
		result.Processed++

		if b.config.OnVersion != nil {
			if err := b.config.OnVersion(version); err != nil {
				b.logger.Warn("failed to persist intermediate snapshot",
					zap.Int("iteration", version.Iteration),
					zap.Error(err))
			}
		}

		b.logger.Info("chunk complete",
			zap.Int("index", chunk.Index),
			zap.Int("documentBytes", len(document)),
			zap.Int("promptTokens", usage.PromptTokens),
			zap.Int("completionTokens", usage.CompletionTokens))
	}

	result.Status = models.StatusCompleted
	return result
}
