package iosearch

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/taxfinder/pkg/errcode"
)

func NewRequestError(url string, err error) error {
	return &gn.Error{
		Code: errcode.UpstreamRequestError,
		Msg:  "Request to <em>%s</em> failed",
		Vars: []any{url},
		Err:  fmt.Errorf("request to %s failed: %w", url, err),
	}
}

func NewStatusError(url string, status int) error {
	return &gn.Error{
		Code: errcode.UpstreamStatusError,
		Msg:  "Request to <em>%s</em> returned HTTP %d",
		Vars: []any{url, status},
		Err:  fmt.Errorf("request to %s returned HTTP %d", url, status),
	}
}

func NewRetriesError(url string, retries, status int) error {
	return &gn.Error{
		Code: errcode.UpstreamRetriesError,
		Msg:  "Request to <em>%s</em> failed after %d retries (HTTP %d)",
		Vars: []any{url, retries, status},
		Err: fmt.Errorf(
			"request to %s failed after %d retries (HTTP %d)",
			url, retries, status,
		),
	}
}

func NewParseError(err error) error {
	return &gn.Error{
		Code: errcode.UpstreamRequestError,
		Msg:  "Cannot parse upstream response",
		Err:  fmt.Errorf("cannot parse upstream response: %w", err),
	}
}
