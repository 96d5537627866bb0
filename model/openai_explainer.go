package model

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"resumerag/types"
)

// OpenAIExplainer generates match analyses through the OpenAI chat
// completions API with JSON response format.
type OpenAIExplainer struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

func NewOpenAIExplainer(apiKey, model string) *OpenAIExplainer {
	return &OpenAIExplainer{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: slog.Default(),
	}
}

func (e *OpenAIExplainer) Explain(ctx context.Context, candidateProfile, jobDescription string) (map[string]any, error) {
	prompt := buildExplainPrompt(candidateProfile, jobDescription)

	if count, err := countPromptTokens(prompt); err == nil {
		e.logger.Info("sending match prompt", "provider", "openai", "model", e.model, "prompt_tokens", count)
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: explainSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", types.ErrMalformedResponse)
	}

	return ParseMatchJSON(resp.Choices[0].Message.Content)
}
