package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

type IngestParams struct {
	SourceID string `json:"source_id" validate:"required"`
	Text     string `json:"text" validate:"required"`
}

type SearchParams struct {
	Query string `json:"query" validate:"required"`
	TopK  int    `json:"top_k" validate:"gte=0"`
}

type MatchParams struct {
	CandidateProfile string `json:"candidate_profile" validate:"required"`
	JobDescription   string `json:"job_description" validate:"required"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *IngestParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *SearchParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *MatchParams) Validate() map[string]string {
	return validateStruct(params)
}

func validateStruct(s any) map[string]string {
	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}

type IngestResponse struct {
	Chunks []string `json:"chunks"`
	Count  int      `json:"count"`
}

type SearchResponse struct {
	Matches []Match `json:"matches"`
}
