package provider

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"

	"astrofeed/internal/domain/entity"
	"astrofeed/internal/resilience/retry"
)

// errEmptyResponse is returned by backends that answered 2xx with nothing usable.
var errEmptyResponse = errors.New("empty response")

// classify maps a raw backend error onto one of the three provider error kinds.
func classify(name string, err error) error {
	var pe *entity.ProviderError
	if errors.As(err, &pe) {
		return err
	}

	return entity.NewProviderError(name, kindOf(err), err)
}

func kindOf(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return entity.ErrProviderTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return entity.ErrProviderTimeout
	}

	if status, ok := statusCode(err); ok {
		return kindForStatus(status)
	}

	// network failures, cancellation, malformed or empty responses
	return entity.ErrProviderUnavailable
}

func statusCode(err error) (int, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return apiErr.HTTPStatusCode, true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return reqErr.HTTPStatusCode, true
	}
	var claudeErr *anthropic.Error
	if errors.As(err, &claudeErr) && claudeErr.StatusCode != 0 {
		return claudeErr.StatusCode, true
	}
	var httpErr *retry.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, true
	}
	return 0, false
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return entity.ErrProviderTimeout
	case status == http.StatusUnauthorized,
		status == http.StatusForbidden,
		status == http.StatusTooManyRequests,
		status >= 500:
		return entity.ErrProviderUnavailable
	case status >= 400:
		return entity.ErrProviderRejected
	default:
		return entity.ErrProviderUnavailable
	}
}
