package llm

import (
	"strconv"
	"strings"

	"repodoc/internal/models"
)

// PromptSet holds the four templates driving the incremental fold.
// Placeholders: {code_content}, {chunk_index}, {total_chunks},
// {previous_document}.
type PromptSet struct {
	System      string
	FirstChunk  string
	Incremental string
	NextChunk   string
}

const defaultSystemPrompt = `You are a senior software analyst. You read source code and write clear,
well-structured requirements documents in Markdown. Describe what the
software does from a product and functional perspective, not how the code
is written. Organize requirements by feature area with stable headings.`

const defaultFirstChunkPrompt = `Below is batch {chunk_index} of {total_chunks} from a source repository.
Write the first version of a requirements document covering every
functional requirement, data entity, and external interface you can infer
from this code. Output only the document.

{code_content}`

const defaultIncrementalPrompt = `You are updating an existing requirements document. Here is the current
version, built from earlier batches of the same repository:

{previous_document}

Merge the new findings from the next batch into this document. Keep all
previously recorded requirements, extend or refine sections where the new
code adds detail, and return the complete updated document.`

const defaultNextChunkPrompt = `Here is batch {chunk_index} of {total_chunks}:

{code_content}

Return the full updated requirements document. Output only the document.`

// withDefaults fills any empty template with the built-in one.
func (p PromptSet) withDefaults() PromptSet {
	if p.System == "" {
		p.System = defaultSystemPrompt
	}
	if p.FirstChunk == "" {
		p.FirstChunk = defaultFirstChunkPrompt
	}
	if p.Incremental == "" {
		p.Incremental = defaultIncrementalPrompt
	}
	if p.NextChunk == "" {
		p.NextChunk = defaultNextChunkPrompt
	}
	return p
}

func renderPrompt(template string, chunk models.Chunk, totalChunks int, previousDocument string) string {
	r := strings.NewReplacer(
		"{code_content}", chunk.Combined,
		"{chunk_index}", strconv.Itoa(chunk.Index),
		"{total_chunks}", strconv.Itoa(totalChunks),
		"{previous_document}", previousDocument,
	)
	return r.Replace(template)
}
