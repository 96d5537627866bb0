package model

import (
	"context"

	"resumerag/config"
)

// Embedder maps a batch of strings to fixed-dimension vectors. The output
// order matches the input order; callers zip embeddings with their source
// chunks positionally.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// NewEmbedder selects the embedding backend from config at construction
// time.
func NewEmbedder(cfg *config.Config) Embedder {
	if cfg.EmbeddingProvider == "openai" {
		return NewOpenAIEmbedder(cfg.OpenAIKey, cfg.EmbeddingModel, cfg.EmbeddingDim)
	}
	return NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbeddingModel, cfg.EmbeddingDim)
}
