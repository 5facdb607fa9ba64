package iollm

import (
	"context"
	"net/http"
	"strings"
)

type openaiClient struct {
	client    *http.Client
	baseURL   string
	model     string
	apiKey    string
	userAgent string
}

func (c *openaiClient) Complete(
	ctx context.Context,
	systemPrompt, userContent string,
	schema map[string]any,
) (string, error) {
	url := strings.TrimRight(c.baseURL, "/") + "/v1/chat/completions"
	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userContent},
		},
		"temperature": 0,
	}
	if schema != nil {
		payload["response_format"] = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "response",
				"schema": schema,
				"strict": true,
			},
		}
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
		"User-Agent":    c.userAgent,
	}
	var reply struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	err := postJSON(ctx, c.client, url, headers, payload, &reply)
	if err != nil {
		return "", err
	}
	if len(reply.Choices) == 0 {
		return "", NewMissingFieldError(url, "choices")
	}
	return reply.Choices[0].Message.Content, nil
}
