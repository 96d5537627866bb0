// Package store persists chunk records in a vector database and serves
// nearest-neighbor searches over them.
package store

import (
	"context"
	"fmt"

	"resumerag/config"
	"resumerag/types"
)

// Schema byte caps for the resumes collection.
const (
	MaxTextChunkBytes     = 2048
	MaxCandidateNameBytes = 256
)

// HNSW build parameters; must be set before the collection is first
// loaded.
const (
	hnswM              = 48
	hnswEfConstruction = 200
	hnswSearchEf       = 64
)

// VectorStore is the contract between the pipelines and the vector
// database backend.
//
// EnsureReady is idempotent: it creates the collection and its similarity
// index when absent and leaves the collection query-ready. It is safe to
// call from concurrent initializers. Insert appends records; the records
// are only guaranteed visible to searches after a subsequent Flush.
// Search returns up to topK nearest records in the backend's native
// order, each with its raw distance value.
type VectorStore interface {
	EnsureReady(ctx context.Context) error
	Insert(ctx context.Context, records []types.Record) error
	Flush(ctx context.Context) error
	Search(ctx context.Context, queryEmbedding []float32, topK int) ([]types.Hit, error)
	Close() error
}

// NewVectorStore selects the store backend from config at construction
// time.
func NewVectorStore(ctx context.Context, cfg *config.Config) (VectorStore, error) {
	if cfg.StoreBackend == "pgvector" {
		connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.PgHost, cfg.PgPort, cfg.PgUser, cfg.PgPass, cfg.PgDBName)
		return NewPgVectorStore(ctx, connStr, cfg.Collection, cfg.EmbeddingDim)
	}
	return NewMilvusStore(ctx, MilvusConfig{
		Address:    cfg.MilvusAddr,
		Username:   cfg.MilvusUsername,
		Password:   cfg.MilvusPassword,
		APIKey:     cfg.MilvusAPIKey,
		Collection: cfg.Collection,
		Dim:        cfg.EmbeddingDim,
	})
}

// validateRecords enforces the collection schema before any write.
func validateRecords(dim int, records []types.Record) error {
	for i, rec := range records {
		if len(rec.Embedding) != dim {
			return fmt.Errorf("%w: record %d embedding has %d dimensions, collection declares %d",
				types.ErrSchemaViolation, i, len(rec.Embedding), dim)
		}
		if len(rec.TextChunk) > MaxTextChunkBytes {
			return fmt.Errorf("%w: record %d text_chunk is %d bytes, max is %d",
				types.ErrSchemaViolation, i, len(rec.TextChunk), MaxTextChunkBytes)
		}
		if len(rec.CandidateName) > MaxCandidateNameBytes {
			return fmt.Errorf("%w: record %d candidate_name is %d bytes, max is %d",
				types.ErrSchemaViolation, i, len(rec.CandidateName), MaxCandidateNameBytes)
		}
	}
	return nil
}
