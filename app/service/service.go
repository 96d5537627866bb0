// Package service orchestrates the ingestion and retrieval pipelines:
// chunking, embedding, vector-store writes, and ranked search.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"resumerag/chunker"
	"resumerag/config"
	"resumerag/model"
	"resumerag/store"
	"resumerag/types"
)

const DefaultTopK = 5

type Service struct {
	logger   *slog.Logger
	store    store.VectorStore
	embedder model.Embedder

	chunkSize     int
	chunkOverlap  int
	chunkMaxBytes int
}

func New(storer store.VectorStore, embedder model.Embedder, cfg *config.Config) *Service {
	return &Service{
		logger:        slog.Default(),
		store:         storer,
		embedder:      embedder,
		chunkSize:     cfg.ChunkSize,
		chunkOverlap:  cfg.ChunkOverlap,
		chunkMaxBytes: cfg.ChunkMaxBytes,
	}
}

// Ingest chunks document text, embeds all chunks in one batch, and writes
// one record per chunk with the candidate label derived from sourceID.
// The chunk texts are returned for caller confirmation. Any embedding or
// insert failure aborts the document; records already written by the
// store stay put, so ingestion is at-least-once, not exactly-once.
func (s *Service) Ingest(ctx context.Context, text, sourceID string) ([]string, error) {
	ingestID := uuid.NewString()

	chunks, err := chunker.Split(text, s.chunkSize, s.chunkOverlap, s.chunkMaxBytes)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		s.logger.Info("nothing to ingest", "ingest_id", ingestID, "source", sourceID)
		return []string{}, nil
	}

	if err := s.store.EnsureReady(ctx); err != nil {
		return nil, err
	}

	embeddings, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d chunks", types.ErrEmbeddingFailure, len(embeddings), len(chunks))
	}

	// Embedding order matches chunk order, so records are zipped
	// positionally.
	candidate := CandidateName(sourceID)
	records := make([]types.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = types.Record{
			Embedding:     embeddings[i],
			TextChunk:     chunk,
			CandidateName: candidate,
			Skills:        []string{},
		}
	}

	if err := s.store.Insert(ctx, records); err != nil {
		return nil, err
	}
	if err := s.store.Flush(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("ingested document",
		"ingest_id", ingestID, "source", sourceID, "candidate", candidate, "chunks", len(chunks))
	return chunks, nil
}

// Retrieve embeds the query and returns the store's top-k hits as labeled
// matches in the store's native order. Scores are surfaced exactly as the
// backend returns them. A fresh deployment without a collection yields an
// empty result, not an error.
func (s *Service) Retrieve(ctx context.Context, query string, topK int) ([]types.Match, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	embeddings, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("%w: got %d embeddings for one query", types.ErrEmbeddingFailure, len(embeddings))
	}

	if err := s.store.EnsureReady(ctx); err != nil {
		return nil, err
	}

	hits, err := s.store.Search(ctx, embeddings[0], topK)
	if err != nil {
		return nil, err
	}

	matches := make([]types.Match, 0, len(hits))
	for _, hit := range hits {
		label := hit.CandidateName
		if label == "" {
			label = "Unknown"
		}
		matches = append(matches, types.Match{
			Text:  fmt.Sprintf("%s: %s", label, hit.TextChunk),
			Score: hit.Score,
		})
	}
	return matches, nil
}

// CandidateName derives the candidate label from a source identifier:
// the base filename without its extension.
func CandidateName(sourceID string) string {
	base := filepath.Base(sourceID)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
