package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumerag/types"
)

// ExtractJSON returns the substring between the first '{' and the last
// '}' inclusive. Hosted LLMs sometimes wrap JSON in prose or markdown
// fences despite being told to return raw JSON.
func ExtractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")

	if start == -1 || end == -1 || end <= start {
		return s, fmt.Errorf("%w: no JSON object found", types.ErrMalformedResponse)
	}

	return s[start : end+1], nil
}

// ParseMatchJSON decodes raw LLM output as a JSON object, falling back to
// brace extraction when direct parsing fails.
func ParseMatchJSON(raw string) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty response", types.ErrMalformedResponse)
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(trimmed), &result); err == nil {
		return result, nil
	}

	extracted, err := ExtractJSON(trimmed)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(extracted), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedResponse, err)
	}
	return result, nil
}
