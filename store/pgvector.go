package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"resumerag/types"
)

// PgVectorStore keeps chunk records in a Postgres table with a pgvector
// HNSW index. It implements the same contract as the Milvus backend;
// here `<=>` is cosine distance, so lower scores are better.
type PgVectorStore struct {
	pool  *pgxpool.Pool
	table string
	dim   int
	log   *slog.Logger
}

func NewPgVectorStore(ctx context.Context, connStr, table string, dim int) (*PgVectorStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to postgres: %v", types.ErrStoreUnavailable, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping postgres: %v", types.ErrStoreUnavailable, err)
	}

	return &PgVectorStore{
		pool:  pool,
		table: table,
		dim:   dim,
		log:   slog.Default(),
	}, nil
}

// EnsureReady creates the table and HNSW index when absent. The DDL is
// idempotent (IF NOT EXISTS), so concurrent initializers are handled by
// Postgres itself.
func (s *PgVectorStore) EnsureReady(ctx context.Context) error {
	query := fmt.Sprintf(`
    CREATE EXTENSION IF NOT EXISTS vector;

    CREATE TABLE IF NOT EXISTS %[1]s (
        id BIGSERIAL PRIMARY KEY,
        embedding vector(%[2]d) NOT NULL,
        text_chunk VARCHAR(%[3]d) NOT NULL,
        candidate_name VARCHAR(%[4]d) NOT NULL,
        skills JSONB NOT NULL DEFAULT '[]'
    );

    CREATE INDEX IF NOT EXISTS idx_%[1]s_embedding ON %[1]s
    USING hnsw (embedding vector_cosine_ops)
    WITH (m = %[5]d, ef_construction = %[6]d);
    `, s.table, s.dim, MaxTextChunkBytes, MaxCandidateNameBytes, hnswM, hnswEfConstruction)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("%w: create table: %v", types.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PgVectorStore) Insert(ctx context.Context, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := validateRecords(s.dim, records); err != nil {
		return err
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (embedding, text_chunk, candidate_name, skills) VALUES ($1, $2, $3, $4)`,
		s.table,
	)

	batch := &pgx.Batch{}
	for _, rec := range records {
		skills := rec.Skills
		if skills == nil {
			skills = []string{}
		}
		batch.Queue(query, pgvector.NewVector(rec.Embedding), rec.TextChunk, rec.CandidateName, skills)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("%w: insert: %v", types.ErrStoreUnavailable, err)
		}
	}
	return nil
}

// Flush is a no-op: Postgres commits are durable and visible as soon as
// Insert returns.
func (s *PgVectorStore) Flush(ctx context.Context) error {
	return nil
}

func (s *PgVectorStore) Search(ctx context.Context, queryEmbedding []float32, topK int) ([]types.Hit, error) {
	query := fmt.Sprintf(`
        SELECT text_chunk, candidate_name, embedding <=> $1 AS score
        FROM %s
        ORDER BY embedding <=> $1
        LIMIT $2`, s.table)

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(queryEmbedding), topK)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", types.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var hits []types.Hit
	for rows.Next() {
		var hit types.Hit
		if err := rows.Scan(&hit.TextChunk, &hit.CandidateName, &hit.Score); err != nil {
			return nil, fmt.Errorf("%w: scan hit: %v", types.ErrStoreUnavailable, err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read hits: %v", types.ErrStoreUnavailable, err)
	}
	return hits, nil
}

func (s *PgVectorStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
		s.log.Info("postgres connection pool closed")
	}
	return nil
}
