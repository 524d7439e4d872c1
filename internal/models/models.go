package models

import "time"

// Status is the workflow lifecycle state. Transitions are strictly forward:
// pending -> running -> (completed | failed).
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// FileRecord is one candidate source file. Immutable once read.
type FileRecord struct {
	Path         string
	RelativePath string
	Extension    string
	SizeBytes    int64
	Content      string
	TokenCount   int
}

// TokenBudget derives the per-chunk ceiling from the model context limit.
type TokenBudget struct {
	MaxInputTokens int
	ReservedTokens int
}

// MaxTokensPerChunk must be positive; a non-positive value is a
// configuration error caught before any file I/O.
func (b TokenBudget) MaxTokensPerChunk() int {
	return b.MaxInputTokens - b.ReservedTokens
}

// Chunk is a token-bounded, ordered group of files submitted to the model
// in one call. Indices are 1-based and contiguous.
type Chunk struct {
	Index           int
	Files           []FileRecord
	Combined        string
	EstimatedTokens int
}

// TokenUsage accumulates prompt/completion token counts across calls.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
}

// DocumentVersion is the document after folding in one chunk.
type DocumentVersion struct {
	Iteration int
	Content   string
	Usage     TokenUsage
}

// Stats is the aggregated counters written to the statistics record.
type Stats struct {
	TotalFiles      int           `json:"total_files"`
	FilteredFiles   int           `json:"filtered_files"`
	TotalTokens     int           `json:"total_tokens"`
	TotalChunks     int           `json:"total_chunks"`
	ProcessedChunks int           `json:"processed_chunks"`
	Usage           TokenUsage    `json:"token_usage"`
	Duration        time.Duration `json:"duration_ns"`
	Status          Status        `json:"status"`
}

// WorkflowState is the single mutable record threaded through every stage.
// Each stage reads the fields it needs and writes its results back; no
// component holds a back-reference to another.
type WorkflowState struct {
	RepoPath string
	Status   Status

	AllFiles      []FileRecord
	FilteredFiles []FileRecord

	Chunks            []Chunk
	CurrentChunkIndex int

	CurrentDocument string
	Versions        []DocumentVersion

	Warnings []string
	Error    string

	Stats     Stats
	StartedAt time.Time
}

func NewWorkflowState(repoPath string) *WorkflowState {
	return &WorkflowState{
		RepoPath:  repoPath,
		Status:    StatusPending,
		StartedAt: time.Now(),
	}
}
