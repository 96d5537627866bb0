package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"resumerag/types"
)

// MilvusStore keeps chunk records in a Milvus collection with a COSINE
// HNSW index.
type MilvusStore struct {
	client     client.Client
	collection string
	dim        int
	logger     *slog.Logger

	// Milvus has no atomic check-and-create, so first-time
	// initialization is serialized in-process.
	mu sync.Mutex
}

type MilvusConfig struct {
	Address    string
	Username   string
	Password   string
	APIKey     string
	Collection string
	Dim        int
}

func NewMilvusStore(ctx context.Context, cfg MilvusConfig) (*MilvusStore, error) {
	c, err := client.NewClient(ctx, client.Config{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		APIKey:   cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connect to milvus: %v", types.ErrStoreUnavailable, err)
	}

	return &MilvusStore{
		client:     c,
		collection: cfg.Collection,
		dim:        cfg.Dim,
		logger:     slog.Default(),
	}, nil
}

func (s *MilvusStore) schema() *entity.Schema {
	return entity.NewSchema().
		WithName(s.collection).
		WithDescription("Resume embeddings").
		WithField(entity.NewField().
			WithName("id").
			WithDataType(entity.FieldTypeInt64).
			WithIsPrimaryKey(true).
			WithIsAutoID(true)).
		WithField(entity.NewField().
			WithName("embedding").
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(s.dim))).
		WithField(entity.NewField().
			WithName("text_chunk").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(MaxTextChunkBytes)).
		WithField(entity.NewField().
			WithName("candidate_name").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(MaxCandidateNameBytes)).
		WithField(entity.NewField().
			WithName("skills").
			WithDataType(entity.FieldTypeJSON))
}

// EnsureReady creates the collection and HNSW index when absent and
// leaves the collection loaded. A failed create leaves nothing behind to
// corrupt later retries: creation errors are re-checked against
// HasCollection so a concurrent winner's collection is reused.
func (s *MilvusStore) EnsureReady(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	has, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("%w: check collection: %v", types.ErrStoreUnavailable, err)
	}

	if !has {
		if err := s.client.CreateCollection(ctx, s.schema(), 1); err != nil {
			// Another process may have won the create race.
			if again, hasErr := s.client.HasCollection(ctx, s.collection); hasErr != nil || !again {
				return fmt.Errorf("%w: create collection: %v", types.ErrStoreUnavailable, err)
			}
		} else {
			s.logger.Info("created collection", "collection", s.collection, "dim", s.dim)
		}
	}

	if err := s.ensureIndex(ctx); err != nil {
		return err
	}

	if err := s.client.LoadCollection(ctx, s.collection, false); err != nil {
		return fmt.Errorf("%w: load collection: %v", types.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *MilvusStore) ensureIndex(ctx context.Context) error {
	indexes, err := s.client.DescribeIndex(ctx, s.collection, "embedding")
	if err == nil && len(indexes) > 0 {
		return nil
	}

	idx, err := entity.NewIndexHNSW(entity.COSINE, hnswM, hnswEfConstruction)
	if err != nil {
		return fmt.Errorf("%w: build index params: %v", types.ErrStoreUnavailable, err)
	}
	if err := s.client.CreateIndex(ctx, s.collection, "embedding", idx, false); err != nil {
		// Tolerate a concurrent creator; the index only has to exist.
		if again, descErr := s.client.DescribeIndex(ctx, s.collection, "embedding"); descErr != nil || len(again) == 0 {
			return fmt.Errorf("%w: create index: %v", types.ErrStoreUnavailable, err)
		}
	}
	return nil
}

func (s *MilvusStore) Insert(ctx context.Context, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := validateRecords(s.dim, records); err != nil {
		return err
	}

	embeddings := make([][]float32, len(records))
	texts := make([]string, len(records))
	names := make([]string, len(records))
	skills := make([][]byte, len(records))
	for i, rec := range records {
		embeddings[i] = rec.Embedding
		texts[i] = rec.TextChunk
		names[i] = rec.CandidateName

		recSkills := rec.Skills
		if recSkills == nil {
			recSkills = []string{}
		}
		data, err := json.Marshal(recSkills)
		if err != nil {
			return fmt.Errorf("%w: marshal skills: %v", types.ErrSchemaViolation, err)
		}
		skills[i] = data
	}

	_, err := s.client.Insert(ctx, s.collection, "",
		entity.NewColumnFloatVector("embedding", s.dim, embeddings),
		entity.NewColumnVarChar("text_chunk", texts),
		entity.NewColumnVarChar("candidate_name", names),
		entity.NewColumnJSONBytes("skills", skills),
	)
	if err != nil {
		return fmt.Errorf("%w: insert: %v", types.ErrStoreUnavailable, err)
	}
	return nil
}

// Flush commits inserted records; they are not guaranteed visible to
// searches before this returns.
func (s *MilvusStore) Flush(ctx context.Context) error {
	if err := s.client.Flush(ctx, s.collection, false); err != nil {
		return fmt.Errorf("%w: flush: %v", types.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *MilvusStore) Search(ctx context.Context, queryEmbedding []float32, topK int) ([]types.Hit, error) {
	sp, err := entity.NewIndexHNSWSearchParam(hnswSearchEf)
	if err != nil {
		return nil, fmt.Errorf("%w: build search params: %v", types.ErrStoreUnavailable, err)
	}

	results, err := s.client.Search(ctx, s.collection, nil, "",
		[]string{"text_chunk", "candidate_name"},
		[]entity.Vector{entity.FloatVector(queryEmbedding)},
		"embedding", entity.COSINE, topK, sp,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", types.ErrStoreUnavailable, err)
	}

	var hits []types.Hit
	for _, result := range results {
		textCol, ok := result.Fields.GetColumn("text_chunk").(*entity.ColumnVarChar)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected text_chunk column type", types.ErrStoreUnavailable)
		}
		nameCol, ok := result.Fields.GetColumn("candidate_name").(*entity.ColumnVarChar)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected candidate_name column type", types.ErrStoreUnavailable)
		}

		texts := textCol.Data()
		names := nameCol.Data()
		for i := 0; i < result.ResultCount && i < len(texts) && i < len(names); i++ {
			hits = append(hits, types.Hit{
				TextChunk:     texts[i],
				CandidateName: names[i],
				Score:         float64(result.Scores[i]),
			})
		}
	}
	return hits, nil
}

func (s *MilvusStore) Close() error {
	return s.client.Close()
}
