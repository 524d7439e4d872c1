package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"golang.org/x/time/rate"

	"repodoc/internal/models"
	"repodoc/internal/types"
)

// GeneratorConfig represents the configuration for the document generator.
type GeneratorConfig struct {
	Model       string
	Temperature float64
	APIKey      string
	BaseURL     string // optional API endpoint override
	RateLimit   float64
	Timeout     time.Duration
	Prompts     PromptSet
}

// Generator drives one model call per chunk. The semantic merge of prior
// knowledge with a chunk's new findings is delegated entirely to the model;
// the generator only checks that the returned document is non-empty. A
// merge that silently drops earlier requirements is an accepted limitation
// of that delegation.
type Generator struct {
	config    GeneratorConfig
	llm       llms.Model
	limiter   *rate.Limiter
	estimator types.Estimator
}

// NewWithConfig creates a new Generator with the given configuration.
func NewWithConfig(config GeneratorConfig, estimator types.Estimator) (*Generator, error) {
	if config.Model == "" {
		config.Model = "gpt-4o"
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 1.0
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Minute
	}
	config.Prompts = config.Prompts.withDefaults()

	opts := []openai.Option{openai.WithModel(config.Model)}
	if config.APIKey != "" {
		opts = append(opts, openai.WithToken(config.APIKey))
	}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &Generator{
		config:    config,
		llm:       llm,
		limiter:   rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		estimator: estimator,
	}, nil
}

// Generate submits (previousDocument, chunk) to the model and returns the
// full replacement document. The call is blocking, bounded by the
// configured timeout, and never retried; a timeout is a failure like any
// other model error.
func (g *Generator) Generate(ctx context.Context, previousDocument string, chunk models.Chunk, totalChunks int) (string, models.TokenUsage, error) {
	var usage models.TokenUsage

	if err := g.limiter.Wait(ctx); err != nil {
		return "", usage, fmt.Errorf("rate limiter wait: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	content := g.buildMessages(previousDocument, chunk, totalChunks)

	response, err := g.llm.GenerateContent(callCtx, content,
		llms.WithTemperature(g.config.Temperature))
	if err != nil {
		return "", usage, fmt.Errorf("model call for chunk %d failed: %w", chunk.Index, err)
	}
	if response == nil || len(response.Choices) == 0 {
		return "", usage, fmt.Errorf("model returned no choices for chunk %d", chunk.Index)
	}

	document := response.Choices[0].Content
	if document == "" {
		return "", usage, fmt.Errorf("model returned an empty document for chunk %d", chunk.Index)
	}

	usage = g.tokenUsage(response.Choices[0], content, document)
	return document, usage, nil
}

func (g *Generator) buildMessages(previousDocument string, chunk models.Chunk, totalChunks int) []llms.MessageContent {
	prompts := g.config.Prompts

	if previousDocument == "" {
		return []llms.MessageContent{
			llms.TextParts(schema.ChatMessageTypeSystem, prompts.System),
			llms.TextParts(schema.ChatMessageTypeHuman,
				renderPrompt(prompts.FirstChunk, chunk, totalChunks, "")),
		}
	}

	return []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem,
			renderPrompt(prompts.Incremental, chunk, totalChunks, previousDocument)),
		llms.TextParts(schema.ChatMessageTypeHuman,
			renderPrompt(prompts.NextChunk, chunk, totalChunks, previousDocument)),
	}
}

// tokenUsage reads the provider's generation info when present and falls
// back to the shared estimator otherwise.
func (g *Generator) tokenUsage(choice *llms.ContentChoice, content []llms.MessageContent, document string) models.TokenUsage {
	usage := models.TokenUsage{}

	if choice.GenerationInfo != nil {
		if v, ok := choice.GenerationInfo["PromptTokens"].(int); ok {
			usage.PromptTokens = v
		}
		if v, ok := choice.GenerationInfo["CompletionTokens"].(int); ok {
			usage.CompletionTokens = v
		}
	}

	if usage.PromptTokens == 0 {
		for _, msg := range content {
			for _, part := range msg.Parts {
				if text, ok := part.(llms.TextContent); ok {
					usage.PromptTokens += g.estimator.Estimate(text.Text)
				}
			}
		}
	}
	if usage.CompletionTokens == 0 {
		usage.CompletionTokens = g.estimator.Estimate(document)
	}

	return usage
}
