package llm

import (
	"context"
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const DefaultEncoding = "cl100k_base"

// TokenCounter estimates prompt sizes with a tiktoken encoding. Counts are an
// approximation for non-OpenAI models.
type TokenCounter struct {
	encoding string
	tke      *tiktoken.Tiktoken
}

// NewTokenCounter accepts an encoding or a model name. The encoding files are
// fetched on first use unless a local cache is configured.
func NewTokenCounter(encodingOrModel string) (*TokenCounter, error) {
	if encodingOrModel == "" {
		encodingOrModel = DefaultEncoding
	}
	if tke, err := tiktoken.GetEncoding(encodingOrModel); err == nil {
		return &TokenCounter{encoding: encodingOrModel, tke: tke}, nil
	}
	tke, err := tiktoken.EncodingForModel(encodingOrModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load token encoding %q: %w", encodingOrModel, err)
	}
	return &TokenCounter{encoding: encodingOrModel, tke: tke}, nil
}

func (tc *TokenCounter) Encoding() string { return tc.encoding }

func (tc *TokenCounter) CountTokens(_ context.Context, text string) (int, error) {
	if tc == nil || tc.tke == nil {
		return 0, fmt.Errorf("token encoder is not initialized")
	}
	return len(tc.tke.Encode(text, nil, nil)), nil
}
