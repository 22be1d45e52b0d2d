// Package clients provides the instrumented HTTP client used to reach the
// remote quote feed.
package clients

import "errors"

// Transport-level failures. The acl package translates them to domain errors
// before they reach the sync engine.
var (
	// ErrCircuitOpen is returned without touching the network while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last attempt's error once retries are exhausted.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
