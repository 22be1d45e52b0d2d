package dto

import (
	"time"

	"github.com/tesfalem/quotewidget/internal/domain"
)

// QuoteRequest is the body of POST /api/v1/quotes.
type QuoteRequest struct {
	Text     string `json:"text" validate:"required,notblank,max=1000"`
	Category string `json:"category" validate:"required,notblank,max=64"`
}

// Input converts the request to the domain input form.
func (r QuoteRequest) Input() domain.QuoteInput {
	return domain.QuoteInput{Text: r.Text, Category: r.Category}
}

// ListQuotesRequest holds the query parameters of GET /api/v1/quotes.
type ListQuotesRequest struct {
	PaginationRequest

	Category string `form:"category" validate:"max=64"`
}

// QuoteResponse is the wire form of one quote.
type QuoteResponse struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// NewQuoteResponse converts a domain quote.
func NewQuoteResponse(q domain.Quote) QuoteResponse {
	return QuoteResponse{Text: q.Text, Category: q.Category}
}

// NewQuoteResponses converts a collection.
func NewQuoteResponses(c domain.Collection) []QuoteResponse {
	out := make([]QuoteResponse, 0, len(c))
	for _, q := range c {
		out = append(out, NewQuoteResponse(q))
	}

	return out
}

// RandomQuoteResponse is returned by GET /api/v1/quotes/random.
// Quote is null and Message is set when the active filter matches nothing.
type RandomQuoteResponse struct {
	Quote    *QuoteResponse `json:"quote"`
	Category string         `json:"category"`
	Message  string         `json:"message,omitempty"`
}

// CategoriesResponse lists the categories and the active selection.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
	Active     string   `json:"active"`
}

// FilterRequest is the body of PUT /api/v1/filter.
// An empty category selects all.
type FilterRequest struct {
	Category string `json:"category" validate:"max=64"`
}

// FilterResponse reports the active selection and how many quotes it shows.
type FilterResponse struct {
	Category string `json:"category"`
	Visible  int    `json:"visible"`
}

// ImportResponse reports how many quotes replaced the collection.
type ImportResponse struct {
	Imported int `json:"imported"`
}

// ResetResponse reports the collection size after a reset.
type ResetResponse struct {
	Count int `json:"count"`
}

// SyncResponse is returned by POST /api/v1/sync.
// Started is false when a sync was already in flight.
type SyncResponse struct {
	Started bool `json:"started"`
}

// SyncStatusResponse is returned by GET /api/v1/sync/status.
type SyncStatusResponse struct {
	Status          string     `json:"status"`
	StatusLine      string     `json:"statusLine"`
	LastSync        *time.Time `json:"lastSync,omitempty"`
	LastLocalUpdate *time.Time `json:"lastLocalUpdate,omitempty"`
	LastError       string     `json:"lastError,omitempty"`
	Merged          int        `json:"merged"`
	InFlight        bool       `json:"inFlight"`
}

// NewSyncStatusResponse converts a sync record. Zero times are omitted.
func NewSyncStatusResponse(record domain.SyncRecord, line string, inFlight bool) SyncStatusResponse {
	return SyncStatusResponse{
		Status:          record.LastStatus,
		StatusLine:      line,
		LastSync:        optionalTime(record.LastSync),
		LastLocalUpdate: optionalTime(record.LastLocalUpdate),
		LastError:       record.LastError,
		Merged:          record.Merged,
		InFlight:        inFlight,
	}
}

// EventResponse is one entry of GET /api/v1/events.
type EventResponse struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload,omitempty"`
}

// EventsResponse lists recent events, oldest first.
type EventsResponse struct {
	Events []EventResponse `json:"events"`
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}

	return &t
}
