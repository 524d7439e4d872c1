package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// defaultEncoding matches the GPT-4 family tokenizer.
const defaultEncoding = "cl100k_base"

// HeuristicEstimator approximates token cost from content length alone.
// It is pure, deterministic, and monotonic, which the chunker relies on.
// The ratio is conservative for mixed natural-language and CJK content.
type HeuristicEstimator struct {
	CharsPerToken int
}

func NewHeuristic() *HeuristicEstimator {
	return &HeuristicEstimator{CharsPerToken: 3}
}

func (e *HeuristicEstimator) Estimate(text string) int {
	if text == "" {
		return 0
	}
	return len(text) / e.CharsPerToken
}

// TiktokenEstimator counts tokens with the model's actual BPE encoding.
// Construction can fail (the encoding data may need to be fetched), so
// callers fall back to the heuristic estimator.
type TiktokenEstimator struct {
	enc *tiktoken.Tiktoken
}

func NewTiktoken() (*TiktokenEstimator, error) {
	enc, err := tiktoken.GetEncoding(defaultEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", defaultEncoding, err)
	}
	return &TiktokenEstimator{enc: enc}, nil
}

func (e *TiktokenEstimator) Estimate(text string) int {
	if text == "" {
		return 0
	}
	return len(e.enc.Encode(text, nil, nil))
}
