package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumerag/types"
)

func record(dim int) types.Record {
	return types.Record{
		Embedding:     make([]float32, dim),
		TextChunk:     "worked on distributed systems",
		CandidateName: "jane_doe_resume",
	}
}

func TestValidateRecords_OK(t *testing.T) {
	require.NoError(t, validateRecords(384, []types.Record{record(384), record(384)}))
}

func TestValidateRecords_DimensionMismatch(t *testing.T) {
	err := validateRecords(384, []types.Record{record(384), record(16)})
	require.ErrorIs(t, err, types.ErrSchemaViolation)
	assert.Contains(t, err.Error(), "record 1")
}

func TestValidateRecords_TextChunkOverflow(t *testing.T) {
	rec := record(8)
	rec.TextChunk = strings.Repeat("x", MaxTextChunkBytes+1)
	err := validateRecords(8, []types.Record{rec})
	require.ErrorIs(t, err, types.ErrSchemaViolation)
	assert.Contains(t, err.Error(), "text_chunk")
}

func TestValidateRecords_CandidateNameOverflow(t *testing.T) {
	rec := record(8)
	rec.CandidateName = strings.Repeat("n", MaxCandidateNameBytes+1)
	err := validateRecords(8, []types.Record{rec})
	require.ErrorIs(t, err, types.ErrSchemaViolation)
	assert.Contains(t, err.Error(), "candidate_name")
}

func TestValidateRecords_Empty(t *testing.T) {
	require.NoError(t, validateRecords(384, nil))
}
