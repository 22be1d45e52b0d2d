// Package acl is the anti-corruption layer between the remote quote feed and
// the domain.
//
// The feed speaks its own vocabulary (jsonplaceholder posts with userId, id,
// title and body). Nothing outside this package sees those DTOs: [FeedClient]
// decodes them, keeps the first batch, maps each title to a [domain.Quote]
// tagged with the feed category and drops items whose title is blank.
//
// Failures are translated the same way:
//   - transport errors, open circuit, 429 and 5xx → [domain.ErrUnavailable]
//   - 404 → [domain.ErrNotFound]
//   - other non-2xx and undecodable bodies → [domain.ErrRemoteFetch]
//
// Callers can therefore classify a failed sync with the domain.Is* helpers
// without importing net/http.
package acl
