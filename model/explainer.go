package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"resumerag/config"
	"resumerag/types"
)

// Explainer scores a candidate snippet against a job description via a
// hosted LLM and returns the decoded JSON object. The prompted-for shape
// is {match_score, chain_of_thought, green_flags, red_flags} but it is
// not schema-validated; callers must tolerate extra or missing keys.
type Explainer interface {
	Explain(ctx context.Context, candidateProfile, jobDescription string) (map[string]any, error)
}

const explainSystemPrompt = "Provide transparent reasoning and follow JSON instructions precisely."

const explainPromptTemplate = `You are an expert Technical Recruiter. Job Description: %s
Candidate Resume Snippet: %s

Task:
Assign a Match Score (0-100).
Provide a 'Chain of Thought' explanation: Why does this candidate fit? (e.g., 'Candidate lacks "Django" keyword but has "Flask" and 5 years Python, which implies capability').
Highlight 'Green Flags' (Strong semantic matches) and 'Red Flags' (Missing critical hard skills).
Return the response in strictly valid JSON format.`

// NewExplainer selects the LLM provider from config at construction time.
func NewExplainer(cfg *config.Config) (Explainer, error) {
	if cfg.LLMProvider == "gemini" {
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY is required when LLM_PROVIDER is gemini", types.ErrConfiguration)
		}
		return NewGeminiExplainer(cfg.GeminiURL, cfg.GeminiKey, cfg.GeminiModel), nil
	}

	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is required when LLM_PROVIDER is openai", types.ErrConfiguration)
	}
	return NewOpenAIExplainer(cfg.OpenAIKey, cfg.LLMModel), nil
}

func buildExplainPrompt(candidateProfile, jobDescription string) string {
	return fmt.Sprintf(explainPromptTemplate,
		strings.TrimSpace(jobDescription),
		strings.TrimSpace(candidateProfile),
	)
}

// countPromptTokens sizes a prompt before sending it to a hosted model.
func countPromptTokens(prompt string) (int, error) {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return 0, err
	}
	tokens := enc.Encode(prompt, nil, nil)
	return len(tokens), nil
}
