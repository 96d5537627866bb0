package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumerag/types"
)

type fakePipeline struct {
	ingestErr   error
	retrieveErr error
	lastSource  string
	matches     []types.Match
}

func (f *fakePipeline) Ingest(_ context.Context, text, sourceID string) ([]string, error) {
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	f.lastSource = sourceID
	return []string{text}, nil
}

func (f *fakePipeline) Retrieve(_ context.Context, query string, topK int) ([]types.Match, error) {
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	return f.matches, nil
}

type fakeExplainer struct {
	result map[string]any
	err    error
}

func (f *fakeExplainer) Explain(context.Context, string, string) (map[string]any, error) {
	return f.result, f.err
}

func newTestApp(pipeline *fakePipeline, explainer *fakeExplainer) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	h := NewMatchHandler(pipeline, explainer, "", time.Second)
	app.Post("/api/v1/ingest", h.HandleIngest)
	app.Post("/api/v1/search", h.HandleSearch)
	app.Post("/api/v1/match", h.HandleMatch)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) (int, []byte) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestHandleIngest(t *testing.T) {
	pipeline := &fakePipeline{}
	app := newTestApp(pipeline, &fakeExplainer{})

	status, body := postJSON(t, app, "/api/v1/ingest", types.IngestParams{
		SourceID: "jane_doe.pdf",
		Text:     "lorem ipsum dolor sit amet",
	})
	require.Equal(t, fiber.StatusOK, status)

	var resp types.IngestResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, []string{"lorem ipsum dolor sit amet"}, resp.Chunks)
	assert.Equal(t, "jane_doe.pdf", pipeline.lastSource)
}

func TestHandleIngest_ValidationError(t *testing.T) {
	app := newTestApp(&fakePipeline{}, &fakeExplainer{})

	status, body := postJSON(t, app, "/api/v1/ingest", map[string]string{"source_id": "x.pdf"})
	require.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, string(body), "Text")
}

func TestHandleSearch(t *testing.T) {
	pipeline := &fakePipeline{matches: []types.Match{
		{Text: "jane_doe: golang grpc", Score: 0.91},
	}}
	app := newTestApp(pipeline, &fakeExplainer{})

	status, body := postJSON(t, app, "/api/v1/search", types.SearchParams{Query: "go engineer"})
	require.Equal(t, fiber.StatusOK, status)

	var resp types.SearchResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "jane_doe: golang grpc", resp.Matches[0].Text)
	assert.InDelta(t, 0.91, resp.Matches[0].Score, 1e-9)
}

func TestHandleSearch_StoreUnavailable(t *testing.T) {
	pipeline := &fakePipeline{retrieveErr: types.ErrStoreUnavailable}
	app := newTestApp(pipeline, &fakeExplainer{})

	status, _ := postJSON(t, app, "/api/v1/search", types.SearchParams{Query: "go engineer"})
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
}

func TestHandleMatch_PassesJSONThrough(t *testing.T) {
	explainer := &fakeExplainer{result: map[string]any{
		"match_score":      float64(82),
		"chain_of_thought": "has Flask, implies Django capability",
		"green_flags":      []any{"Python"},
		"red_flags":        []any{},
		"extra_key":        "tolerated",
	}}
	app := newTestApp(&fakePipeline{}, explainer)

	status, body := postJSON(t, app, "/api/v1/match", types.MatchParams{
		CandidateProfile: "5 years Python, Flask",
		JobDescription:   "Django developer",
	})
	require.Equal(t, fiber.StatusOK, status)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, float64(82), resp["match_score"])
	assert.Equal(t, "tolerated", resp["extra_key"])
}

func TestHandleMatch_MalformedResponse(t *testing.T) {
	explainer := &fakeExplainer{err: types.ErrMalformedResponse}
	app := newTestApp(&fakePipeline{}, explainer)

	status, _ := postJSON(t, app, "/api/v1/match", types.MatchParams{
		CandidateProfile: "profile",
		JobDescription:   "job",
	})
	assert.Equal(t, fiber.StatusBadGateway, status)
}

func TestHandleIngest_InvalidBody(t *testing.T) {
	app := newTestApp(&fakePipeline{}, &fakeExplainer{})

	req := httptest.NewRequest("POST", "/api/v1/ingest", bytes.NewReader([]byte("{broken")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
