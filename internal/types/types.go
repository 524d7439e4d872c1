package types

import (
	"context"

	"repodoc/internal/models"
)

// Core interfaces

// Estimator approximates the token cost of a piece of text. Implementations
// must be deterministic and monotonic in content length so that chunk
// packing and budget headroom stay commensurable.
type Estimator interface {
	Estimate(text string) int
}

// Scanner enumerates candidate files under a repository root in stable
// lexicographic order by relative path.
type Scanner interface {
	Scan(root string) ([]models.FileRecord, []string, error)
}

// Filter applies include/exclude rules and caps to the scanner's output.
type Filter interface {
	Apply(files []models.FileRecord) ([]models.FileRecord, []string)
}

// Chunker partitions the filtered file list into token-bounded chunks.
type Chunker interface {
	Chunk(files []models.FileRecord) []models.Chunk
}

// Generator is the model collaborator: an opaque, possibly-slow,
// possibly-failing remote call that merges a chunk's findings into the
// previous document and returns the full replacement text.
type Generator interface {
	Generate(ctx context.Context, previousDocument string, chunk models.Chunk, totalChunks int) (string, models.TokenUsage, error)
}
