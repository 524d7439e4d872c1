package chunker

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"repodoc/internal/models"
	"repodoc/internal/types"
)

const fileSeparator = "\n============================================================\n"

type Chunker struct {
	budget    models.TokenBudget
	estimator types.Estimator
	logger    *zap.Logger
}

func NewWithConfig(budget models.TokenBudget, estimator types.Estimator, logger *zap.Logger) (*Chunker, error) {
	if budget.MaxTokensPerChunk() <= 0 {
		return nil, fmt.Errorf("token budget leaves no headroom: max_input_tokens=%d reserved_tokens=%d",
			budget.MaxInputTokens, budget.ReservedTokens)
	}
	return &Chunker{
		budget:    budget,
		estimator: estimator,
		logger:    logger,
	}, nil
}

// Chunk partitions files into ordered, token-bounded chunks using a greedy
// first-fit-in-order single pass. Concatenating the chunks' file lists in
// index order reproduces the input exactly. Every chunk stays within the
// budget except a chunk holding a single file that alone exceeds it; such
// a file gets its own chunk and never shares it with a neighbor.
func (c *Chunker) Chunk(files []models.FileRecord) []models.Chunk {
	maxTokens := c.budget.MaxTokensPerChunk()

	var chunks []models.Chunk
	var current []models.FileRecord
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunk := models.Chunk{
			Index:           len(chunks) + 1,
			Files:           current,
			Combined:        combineFiles(current),
			EstimatedTokens: currentTokens,
		}
		chunks = append(chunks, chunk)
		c.logger.Debug("closed chunk",
			zap.Int("index", chunk.Index),
			zap.Int("files", len(chunk.Files)),
			zap.Int("tokens", chunk.EstimatedTokens))
		current = nil
		currentTokens = 0
	}

	for _, file := range files {
		fileTokens := c.fileTokens(file)

		if fileTokens > maxTokens {
			// Oversized file: close whatever is pending and emit the file
			// alone rather than splitting or dropping it.
			flush()
			c.logger.Warn("file alone exceeds the chunk budget",
				zap.String("path", file.RelativePath),
				zap.Int("tokens", fileTokens),
				zap.Int("maxTokens", maxTokens))
			current = []models.FileRecord{file}
			currentTokens = fileTokens
			flush()
			continue
		}

		if len(current) > 0 && currentTokens+fileTokens > maxTokens {
			flush()
		}

		current = append(current, file)
		currentTokens += fileTokens
	}
	flush()

	c.logger.Info("chunking complete",
		zap.Int("files", len(files)),
		zap.Int("chunks", len(chunks)),
		zap.Int("maxTokensPerChunk", maxTokens))

	return chunks
}

func (c *Chunker) fileTokens(file models.FileRecord) int {
	if file.TokenCount > 0 {
		return file.TokenCount
	}
	return c.estimator.Estimate(file.Content)
}

// combineFiles renders a chunk's files into the prompt-ready block the
// model receives: a path header and separators around each file body.
func combineFiles(files []models.FileRecord) string {
	parts := make([]string, 0, len(files))
	for _, file := range files {
		parts = append(parts, formatFile(file.RelativePath, file.Content))
	}
	return strings.Join(parts, fileSeparator)
}

func formatFile(relPath, content string) string {
	separator := strings.Repeat("-", 40)
	return fmt.Sprintf("File: %s\n%s\n%s\n%s", relPath, separator, content, separator)
}
