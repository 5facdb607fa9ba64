package iollm

import (
	"context"
	"net/http"
	"strings"
)

type ollamaClient struct {
	client    *http.Client
	baseURL   string
	model     string
	userAgent string
}

func (c *ollamaClient) Complete(
	ctx context.Context,
	systemPrompt, userContent string,
	schema map[string]any,
) (string, error) {
	url := strings.TrimRight(c.baseURL, "/") + "/api/generate"
	payload := map[string]any{
		"model":  c.model,
		"prompt": userContent,
		"system": systemPrompt,
		"stream": false,
	}
	// Ollama only supports a generic JSON mode, not a full schema
	if schema != nil {
		payload["format"] = "json"
	}

	headers := map[string]string{"User-Agent": c.userAgent}
	var reply struct {
		Response *string `json:"response"`
	}
	err := postJSON(ctx, c.client, url, headers, payload, &reply)
	if err != nil {
		return "", err
	}
	if reply.Response == nil {
		return "", NewMissingFieldError(url, "response")
	}
	return *reply.Response, nil
}
