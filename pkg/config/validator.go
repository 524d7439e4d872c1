package config

import (
	"fmt"
	"net/url"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration before any file I/O happens. Any
// returned error is fatal to the run.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.LLM.MaxInputTokens < 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_input_tokens",
			Message: "max_input_tokens must be positive",
		})
	}

	if c.LLM.ReservedTokens < 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.reserved_tokens",
			Message: "reserved_tokens must be non-negative",
		})
	}

	if c.Budget().MaxTokensPerChunk() <= 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.reserved_tokens",
			Message: "reserved_tokens must leave headroom below max_input_tokens",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.LLM.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	if c.LLM.TimeoutSeconds < 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.timeout_seconds",
			Message: "timeout_seconds must be positive",
		})
	}

	if c.LLM.Tokenizer != "heuristic" && c.LLM.Tokenizer != "tiktoken" {
		errors = append(errors, ValidationError{
			Field:   "llm.tokenizer",
			Message: fmt.Sprintf("unknown tokenizer %q (want heuristic or tiktoken)", c.LLM.Tokenizer),
		})
	}

	if c.LLM.BaseURL != "" {
		if _, err := url.Parse(c.LLM.BaseURL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "llm.base_url",
				Message: "invalid base URL",
			})
		}
	}

	if c.FileFilter.MaxFileSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "file_filter.max_file_size",
			Message: "max_file_size must be positive",
		})
	}

	if c.FileFilter.MaxFiles < 1 {
		errors = append(errors, ValidationError{
			Field:   "file_filter.max_files",
			Message: "max_files must be positive",
		})
	}

	for _, ext := range c.FileFilter.IncludeExtensions {
		if !strings.HasPrefix(ext, ".") {
			errors = append(errors, ValidationError{
				Field:   "file_filter.include_extensions",
				Message: fmt.Sprintf("invalid extension format: %s", ext),
			})
		}
	}

	if c.Output.Filename == "" {
		errors = append(errors, ValidationError{
			Field:   "output.filename",
			Message: "filename is required",
		})
	}

	return errors
}
