package api

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"

	"resumerag/loader"
	"resumerag/model"
	"resumerag/types"
)

// Pipeline is the ingestion/retrieval service surface the handlers call.
type Pipeline interface {
	Ingest(ctx context.Context, text, sourceID string) ([]string, error)
	Retrieve(ctx context.Context, query string, topK int) ([]types.Match, error)
}

type MatchHandler struct {
	pipeline  Pipeline
	explainer model.Explainer
	uploadDir string
	timeout   time.Duration
}

func NewMatchHandler(pipeline Pipeline, explainer model.Explainer, uploadDir string, timeout time.Duration) *MatchHandler {
	return &MatchHandler{
		pipeline:  pipeline,
		explainer: explainer,
		uploadDir: uploadDir,
		timeout:   timeout,
	}
}

func (h *MatchHandler) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), h.timeout)
}

// HandleIngest indexes a raw extracted document and confirms the chunks
// produced.
func (h *MatchHandler) HandleIngest(c *fiber.Ctx) error {
	var params types.IngestParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	chunks, err := h.pipeline.Ingest(ctx, params.Text, params.SourceID)
	if err != nil {
		return err
	}

	return c.JSON(types.IngestResponse{Chunks: chunks, Count: len(chunks)})
}

// HandleUploadResume accepts a resume PDF, extracts its text, and
// ingests it under the uploaded filename.
func (h *MatchHandler) HandleUploadResume(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrBadRequest()
	}

	path := filepath.Join(h.uploadDir, filepath.Base(fileHeader.Filename))
	if err := c.SaveFile(fileHeader, path); err != nil {
		return err
	}
	defer os.Remove(path)

	text, err := loader.ExtractText(path)
	if err != nil {
		return NewError(fiber.StatusUnprocessableEntity, "failed to extract text from PDF: "+err.Error())
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	chunks, err := h.pipeline.Ingest(ctx, text, fileHeader.Filename)
	if err != nil {
		return err
	}

	return c.JSON(types.IngestResponse{Chunks: chunks, Count: len(chunks)})
}

// HandleSearch runs a job-description query and returns ranked matches
// in the store's native order.
func (h *MatchHandler) HandleSearch(c *fiber.Ctx) error {
	var params types.SearchParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	matches, err := h.pipeline.Retrieve(ctx, params.Query, params.TopK)
	if err != nil {
		return err
	}

	return c.JSON(types.SearchResponse{Matches: matches})
}

// HandleMatch asks the LLM for a structured match analysis and passes
// its JSON object through untouched.
func (h *MatchHandler) HandleMatch(c *fiber.Ctx) error {
	var params types.MatchParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.explainer.Explain(ctx, params.CandidateProfile, params.JobDescription)
	if err != nil {
		return err
	}

	return c.JSON(result)
}
