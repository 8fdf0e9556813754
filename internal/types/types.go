package types

import (
	"context"
)

// Core interfaces

// Embedder produces dense vectors. langchaingo's embeddings.Embedder
// satisfies it, as does llm.Embedder.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}

// Extractor fills a schema from reduced document content using a generative model.
type Extractor interface {
	Extract(ctx context.Context, prompt ExtractionPrompt) (string, error)
}

type ExtractionPrompt struct {
	Label    string
	Schema   string
	Skeleton string
	Content  string
}
