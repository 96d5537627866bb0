package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumerag/config"
	"resumerag/types"
)

// fakeEmbedder produces deterministic 4-dimensional vectors from rune
// counts, so identical texts always embed identically.
type fakeEmbedder struct {
	calls [][]string
}

func (f *fakeEmbedder) Dimension() int { return 4 }

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	out := make([][]float32, len(texts))
	for i, text := range texts {
		var length, vowels, consonants, spaces float32
		for _, r := range text {
			length++
			switch {
			case r == 'a' || r == 'e' || r == 'i' || r == 'o' || r == 'u':
				vowels++
			case r == ' ':
				spaces++
			default:
				consonants++
			}
		}
		out[i] = []float32{length, vowels, consonants, spaces}
	}
	return out, nil
}

type failingEmbedder struct{}

func (failingEmbedder) Dimension() int { return 4 }

func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, types.ErrEmbeddingFailure
}

// fakeStore is an in-memory VectorStore. Inserted records only become
// searchable after Flush, mirroring the real store's visibility rule.
type fakeStore struct {
	collections int
	readyCalls  int
	pending     []types.Record
	visible     []types.Record
	flushCalls  int
	insertErr   error
}

func (f *fakeStore) EnsureReady(context.Context) error {
	f.readyCalls++
	if f.collections == 0 {
		f.collections = 1
	}
	return nil
}

func (f *fakeStore) Insert(_ context.Context, records []types.Record) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.pending = append(f.pending, records...)
	return nil
}

func (f *fakeStore) Flush(context.Context) error {
	f.flushCalls++
	f.visible = append(f.visible, f.pending...)
	f.pending = nil
	return nil
}

func (f *fakeStore) Search(_ context.Context, query []float32, topK int) ([]types.Hit, error) {
	hits := make([]types.Hit, 0, len(f.visible))
	for _, rec := range f.visible {
		hits = append(hits, types.Hit{
			TextChunk:     rec.TextChunk,
			CandidateName: rec.CandidateName,
			Score:         cosine(query, rec.Embedding),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

func (f *fakeStore) Close() error { return nil }

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func newService(st *fakeStore, emb *fakeEmbedder) *Service {
	return New(st, emb, &config.Config{
		ChunkSize:     500,
		ChunkOverlap:  50,
		ChunkMaxBytes: 2048,
	})
}

func TestIngest_SingleChunkDocument(t *testing.T) {
	st := &fakeStore{}
	emb := &fakeEmbedder{}
	svc := newService(st, emb)

	chunks, err := svc.Ingest(context.Background(), "lorem ipsum dolor sit amet", "uploads/jane_doe.pdf")
	require.NoError(t, err)

	assert.Equal(t, []string{"lorem ipsum dolor sit amet"}, chunks)
	require.Len(t, st.visible, 1)
	assert.Equal(t, "jane_doe", st.visible[0].CandidateName)
	assert.Equal(t, []string{}, st.visible[0].Skills)
	assert.Equal(t, 1, st.flushCalls)
	// One batched embedding call, in chunk order.
	require.Len(t, emb.calls, 1)
	assert.Equal(t, chunks, emb.calls[0])
}

func TestIngest_EmptyDocument(t *testing.T) {
	st := &fakeStore{}
	svc := newService(st, &fakeEmbedder{})

	chunks, err := svc.Ingest(context.Background(), "   \n ", "empty.pdf")
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.Empty(t, st.visible)
	assert.Zero(t, st.flushCalls)
}

func TestIngest_EmbeddingFailureAbortsDocument(t *testing.T) {
	st := &fakeStore{}
	svc := New(st, failingEmbedder{}, &config.Config{ChunkSize: 500, ChunkOverlap: 50, ChunkMaxBytes: 2048})

	_, err := svc.Ingest(context.Background(), "some resume text", "r.pdf")
	require.ErrorIs(t, err, types.ErrEmbeddingFailure)
	assert.Empty(t, st.visible)
	assert.Empty(t, st.pending)
}

func TestIngest_InsertFailurePropagates(t *testing.T) {
	st := &fakeStore{insertErr: types.ErrStoreUnavailable}
	svc := newService(st, &fakeEmbedder{})

	_, err := svc.Ingest(context.Background(), "some resume text", "r.pdf")
	require.ErrorIs(t, err, types.ErrStoreUnavailable)
	assert.Zero(t, st.flushCalls)
}

func TestRetrieve_RoundTrip(t *testing.T) {
	st := &fakeStore{}
	emb := &fakeEmbedder{}
	svc := newService(st, emb)

	docs := map[string]string{
		"go_dev.pdf":   "golang grpc kubernetes",
		"web_dev.pdf":  "javascript react css",
		"data_eng.pdf": "python spark airflow",
	}
	for source, text := range docs {
		_, err := svc.Ingest(context.Background(), text, source)
		require.NoError(t, err)
	}

	matches, err := svc.Retrieve(context.Background(), "golang grpc kubernetes", 10)
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	// The exact chunk comes back as the best match with the store's raw
	// score untouched.
	assert.Equal(t, "go_dev: golang grpc kubernetes", matches[0].Text)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
}

func TestRetrieve_EmptyCollection(t *testing.T) {
	st := &fakeStore{}
	svc := newService(st, &fakeEmbedder{})

	matches, err := svc.Retrieve(context.Background(), "any query", 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
	// The collection is created rather than erroring on a fresh
	// deployment.
	assert.Equal(t, 1, st.collections)
}

func TestRetrieve_DefaultTopK(t *testing.T) {
	st := &fakeStore{}
	emb := &fakeEmbedder{}
	svc := newService(st, emb)

	for range 8 {
		_, err := svc.Ingest(context.Background(), "golang developer resume", "dup.pdf")
		require.NoError(t, err)
	}

	matches, err := svc.Retrieve(context.Background(), "golang developer resume", 0)
	require.NoError(t, err)
	assert.Len(t, matches, DefaultTopK)
}

func TestRetrieve_UnknownLabel(t *testing.T) {
	st := &fakeStore{
		visible: []types.Record{{
			Embedding: []float32{1, 0, 0, 0},
			TextChunk: "orphaned chunk",
		}},
		collections: 1,
	}
	svc := newService(st, &fakeEmbedder{})

	matches, err := svc.Retrieve(context.Background(), "q", 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Unknown: orphaned chunk", matches[0].Text)
}

func TestEnsureReady_IdempotentAcrossCalls(t *testing.T) {
	st := &fakeStore{}
	svc := newService(st, &fakeEmbedder{})

	_, err := svc.Retrieve(context.Background(), "q", 5)
	require.NoError(t, err)
	_, err = svc.Retrieve(context.Background(), "q", 5)
	require.NoError(t, err)

	assert.Equal(t, 2, st.readyCalls)
	assert.Equal(t, 1, st.collections)
}

func TestCandidateName(t *testing.T) {
	assert.Equal(t, "jane_doe", CandidateName("uploads/jane_doe.pdf"))
	assert.Equal(t, "resume", CandidateName("resume.pdf"))
	assert.Equal(t, "plain", CandidateName("plain"))
}

func TestIngest_ChunkErrorSurfacesUnmodified(t *testing.T) {
	st := &fakeStore{}
	svc := New(st, &fakeEmbedder{}, &config.Config{ChunkSize: 0})

	_, err := svc.Ingest(context.Background(), "text", "r.pdf")
	require.ErrorIs(t, err, types.ErrInvalidArgument)
	var wrapped interface{ Unwrap() error }
	require.True(t, errors.As(err, &wrapped))
}
