package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tesfalem/quotewidget/internal/adapters/clients"
	"github.com/tesfalem/quotewidget/internal/domain"
)

// maxErrorBody bounds how much of an error body is read for context.
const maxErrorBody = 4 << 10

// ErrorResponse is the error body shape mock feeds commonly return.
// It supports both nested (error.message) and flat (message) forms.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	Message string      `json:"message,omitempty"`
}

// ErrorDetail is the nested error form.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GetMessage returns the message from either nested or flat format.
func (e *ErrorResponse) GetMessage() string {
	if e.Error.Message != "" {
		return e.Error.Message
	}

	return e.Message
}

// ParseErrorResponse attempts to parse an error response body.
// Returns nil if the body is empty, not JSON, or carries no message.
// jsonplaceholder answers unknown routes with "{}", which yields nil.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&errResp); err != nil {
		return nil
	}

	if errResp.GetMessage() == "" {
		return nil
	}

	return &errResp
}

// MapHTTPError maps a failed feed exchange to a domain error.
//
//   - transport and client-level errors → domain.ErrUnavailable
//   - 404 → domain.ErrNotFound
//   - 429 and 5xx → domain.ErrUnavailable
//   - any other non-2xx → domain.ErrRemoteFetch
//
// Returns nil for 2xx responses.
func MapHTTPError(resp *http.Response, clientErr error, serviceName, operation string) error {
	if clientErr != nil {
		return mapClientError(clientErr, serviceName, operation)
	}

	if resp == nil {
		return domain.NewUnavailableError(serviceName, "no response received")
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	message := fmt.Sprintf("%s failed with status %d", operation, resp.StatusCode)
	if resp.Body != nil {
		if errResp := ParseErrorResponse(resp.Body); errResp != nil {
			message = errResp.GetMessage()
		}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.NewNotFoundError(serviceName, requestPath(resp))

	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.NewUnavailableError(serviceName, "rate limit exceeded")

	case resp.StatusCode >= http.StatusInternalServerError:
		return domain.NewUnavailableError(serviceName, message)

	default:
		return domain.NewRemoteFetchError(serviceName, errors.New(message))
	}
}

func mapClientError(err error, serviceName, operation string) error {
	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(serviceName,
			fmt.Sprintf("circuit breaker open during %s", operation))

	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		return domain.NewUnavailableError(serviceName,
			fmt.Sprintf("%s: %v", operation, err))

	default:
		return domain.NewUnavailableError(serviceName,
			fmt.Sprintf("%s failed: %v", operation, err))
	}
}

func requestPath(resp *http.Response) string {
	if resp.Request == nil || resp.Request.URL == nil {
		return ""
	}

	return resp.Request.URL.Path
}
