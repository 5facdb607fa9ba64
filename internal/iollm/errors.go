package iollm

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/taxfinder/pkg/errcode"
)

func NewBadProviderError(provider string) error {
	return &gn.Error{
		Code: errcode.BadLlmProviderError,
		Msg: "Unknown LLM provider <em>%s</em>, " +
			"use 'ollama', 'openai' or 'anthropic'",
		Vars: []any{provider},
		Err:  fmt.Errorf("unknown LLM provider: %s", provider),
	}
}

func NewRequestError(url string, err error) error {
	return &gn.Error{
		Code: errcode.LlmRequestError,
		Msg:  "LLM request to <em>%s</em> failed",
		Vars: []any{url},
		Err:  fmt.Errorf("LLM request to %s failed: %w", url, err),
	}
}

func NewStatusError(url string, status int, body string) error {
	if len(body) > 200 {
		body = body[:200]
	}
	return &gn.Error{
		Code: errcode.LlmRequestError,
		Msg:  "LLM request to <em>%s</em> returned HTTP %d",
		Vars: []any{url, status},
		Err: fmt.Errorf(
			"LLM request to %s returned HTTP %d: %s", url, status, body,
		),
	}
}

func NewResponseError(url string, err error) error {
	return &gn.Error{
		Code: errcode.LlmResponseError,
		Msg:  "Cannot parse LLM response from <em>%s</em>",
		Vars: []any{url},
		Err:  fmt.Errorf("cannot parse LLM response from %s: %w", url, err),
	}
}

func NewMissingFieldError(url, field string) error {
	return &gn.Error{
		Code: errcode.LlmResponseError,
		Msg:  "LLM response from <em>%s</em> is missing <em>%s</em>",
		Vars: []any{url, field},
		Err: fmt.Errorf(
			"LLM response from %s is missing %s", url, field,
		),
	}
}

func NewRuntimeError(baseURL string, err error) error {
	return &gn.Error{
		Code: errcode.LlmRuntimeError,
		Msg:  "Cannot start Ollama at <em>%s</em>",
		Vars: []any{baseURL},
		Err:  fmt.Errorf("cannot start ollama at %s: %w", baseURL, err),
	}
}

func NewRuntimeStartError(baseURL string) error {
	return &gn.Error{
		Code: errcode.LlmRuntimeError,
		Msg:  "Ollama did not become ready at <em>%s</em>",
		Vars: []any{baseURL},
		Err:  fmt.Errorf("ollama did not become ready at %s", baseURL),
	}
}

func NewRuntimeUnreachableError(baseURL string) error {
	return &gn.Error{
		Code: errcode.LlmRuntimeError,
		Msg: "Ollama is not reachable at <em>%s</em>. " +
			"Start 'ollama serve' or set <em>auto_start: true</em>",
		Vars: []any{baseURL},
		Err:  fmt.Errorf("ollama is not reachable at %s", baseURL),
	}
}

func NewModelPullError(model string, err error) error {
	return &gn.Error{
		Code: errcode.LlmRuntimeError,
		Msg:  "Cannot pull Ollama model <em>%s</em>",
		Vars: []any{model},
		Err:  fmt.Errorf("cannot pull ollama model %s: %w", model, err),
	}
}

func NewModelMissingError(model string) error {
	return &gn.Error{
		Code: errcode.LlmRuntimeError,
		Msg:  "Ollama model <em>%s</em> is unavailable after pull",
		Vars: []any{model},
		Err:  fmt.Errorf("ollama model %s is unavailable after pull", model),
	}
}
