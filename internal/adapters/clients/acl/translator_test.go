package acl

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesfalem/quotewidget/internal/adapters/clients"
	"github.com/tesfalem/quotewidget/internal/domain"
	"github.com/tesfalem/quotewidget/internal/platform/config"
)

func testConfig(baseURL string) *clients.Config {
	return &clients.Config{
		ServiceName: "quote-feed",
		BaseURL:     baseURL,
		Timeout:     5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     1,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 2,
		},
	}
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    &http.Request{URL: &url.URL{Path: "/posts"}},
	}
}

// --- Error Mapping Tests ---

func TestMapHTTPError_StatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		is     func(error) bool
		detail string
	}{
		{"not found", http.StatusNotFound, `{}`, domain.IsNotFound, "/posts"},
		{"rate limited", http.StatusTooManyRequests, `{}`, domain.IsUnavailable, "rate limit"},
		{"server error uses body message", http.StatusInternalServerError, `{"error":{"message":"db down"}}`, domain.IsUnavailable, "db down"},
		{"bad gateway", http.StatusBadGateway, ``, domain.IsUnavailable, "status 502"},
		{"bad request", http.StatusBadRequest, `{"message":"bad filter"}`, domain.IsRemoteFetch, "bad filter"},
		{"redirect", http.StatusMovedPermanently, ``, domain.IsRemoteFetch, "status 301"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapHTTPError(response(tt.status, tt.body), nil, "quote-feed", "fetch quotes")

			require.Error(t, err)
			assert.True(t, tt.is(err), "unexpected error class: %v", err)
			assert.Contains(t, err.Error(), tt.detail)
		})
	}
}

func TestMapHTTPError_NotFoundCarriesPath(t *testing.T) {
	err := MapHTTPError(response(http.StatusNotFound, `{}`), nil, "quote-feed", "fetch quotes")

	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "quote-feed", notFound.Entity)
	assert.Equal(t, "/posts", notFound.ID)
}

func TestMapHTTPError_ClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		detail string
	}{
		{"circuit open", clients.ErrCircuitOpen, "circuit breaker open"},
		{"retries exhausted", clients.ErrMaxRetriesExceeded, "max retries exceeded"},
		{"transport", errors.New("dial tcp: connection refused"), "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapHTTPError(nil, tt.err, "quote-feed", "fetch quotes")

			require.Error(t, err)
			assert.True(t, domain.IsUnavailable(err))
			assert.Contains(t, err.Error(), tt.detail)
		})
	}
}

func TestMapHTTPError_SuccessReturnsNil(t *testing.T) {
	assert.NoError(t, MapHTTPError(response(http.StatusOK, `[]`), nil, "quote-feed", "fetch quotes"))
}

func TestMapHTTPError_NilResponse(t *testing.T) {
	err := MapHTTPError(nil, nil, "quote-feed", "fetch quotes")

	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
	assert.Contains(t, err.Error(), "no response received")
}

func TestParseErrorResponse(t *testing.T) {
	tests := []struct {
		name string
		body io.Reader
		want string
	}{
		{"nested", strings.NewReader(`{"error":{"code":"X","message":"nested"}}`), "nested"},
		{"flat", strings.NewReader(`{"message":"flat"}`), "flat"},
		{"empty object", strings.NewReader(`{}`), ""},
		{"invalid json", strings.NewReader(`<html>`), ""},
		{"nil body", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseErrorResponse(tt.body)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}

			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.GetMessage())
		})
	}
}

// --- Translation Tests ---

func TestDecodeResponse(t *testing.T) {
	type item struct {
		Title string `json:"title"`
	}

	t.Run("success", func(t *testing.T) {
		got, err := DecodeResponse[[]item](io.NopCloser(strings.NewReader(`[{"title":"a"},{"title":"b"}]`)))
		require.NoError(t, err)
		assert.Equal(t, []item{{"a"}, {"b"}}, *got)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := DecodeResponse[[]item](io.NopCloser(strings.NewReader(`not json`)))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decoding response")
	})

	t.Run("nil body", func(t *testing.T) {
		_, err := DecodeResponse[[]item](nil)
		require.Error(t, err)
	})
}

func TestDecodeResponseForService_WrapsAsRemoteFetch(t *testing.T) {
	_, err := DecodeResponseForService[[]postDTO](io.NopCloser(strings.NewReader(`{"oops"`)), "quote-feed")

	require.Error(t, err)
	assert.True(t, domain.IsRemoteFetch(err))
	assert.Contains(t, err.Error(), "quote-feed")
}

func TestTranslateSlice(t *testing.T) {
	upper := func(s *string) (string, error) {
		switch *s {
		case "":
			return "", ErrSkipItem
		case "bad":
			return "", errors.New("boom")
		default:
			return strings.ToUpper(*s), nil
		}
	}

	t.Run("skips flagged items", func(t *testing.T) {
		got, err := TranslateSlice([]string{"a", "", "b"}, upper)
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, got)
	})

	t.Run("error aborts batch with index", func(t *testing.T) {
		got, err := TranslateSlice([]string{"a", "bad"}, upper)
		require.Error(t, err)
		assert.Nil(t, got)
		assert.Contains(t, err.Error(), "item 1")
	})

	t.Run("empty input", func(t *testing.T) {
		got, err := TranslateSlice([]string{}, upper)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestBaseAdapter_ServiceName(t *testing.T) {
	client, err := clients.New(testConfig("http://localhost"))
	require.NoError(t, err)

	adapter := NewBaseAdapter(client, "quote-feed")

	assert.Equal(t, "quote-feed", adapter.ServiceName())
	assert.Same(t, client, adapter.Client())
}
