package iollm

import (
	"context"
	"net/http"
	"strings"
)

type anthropicClient struct {
	client    *http.Client
	baseURL   string
	model     string
	apiKey    string
	userAgent string
}

func (c *anthropicClient) Complete(
	ctx context.Context,
	systemPrompt, userContent string,
	schema map[string]any,
) (string, error) {
	url := strings.TrimRight(c.baseURL, "/") + "/v1/messages"
	payload := map[string]any{
		"model":  c.model,
		"system": systemPrompt,
		"messages": []map[string]any{
			{"role": "user", "content": userContent},
		},
		"max_tokens": 1024,
	}
	if schema != nil {
		payload["response_format"] = map[string]any{
			"type":        "json_schema",
			"json_schema": schema,
		}
	}

	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
		"User-Agent":        c.userAgent,
	}
	var reply struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	err := postJSON(ctx, c.client, url, headers, payload, &reply)
	if err != nil {
		return "", err
	}
	if len(reply.Content) == 0 {
		return "", NewMissingFieldError(url, "content")
	}
	return reply.Content[0].Text, nil
}
