package domain

import (
	"errors"
	"strings"
	"time"
)

// AllCategories is the filter sentinel that selects every quote.
const AllCategories FilterSelection = "all"

// Quote is a short text tagged with a lowercase category.
// It has no identifier; two quotes are the same quote when both fields match.
type Quote struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// Key returns the structural identity of the quote.
func (q Quote) Key() string {
	return q.Category + "\x00" + q.Text
}

// QuoteInput is the raw, user-supplied form of a quote.
// Every entry point (HTTP, CLI, import, remote feed) goes through Normalize.
type QuoteInput struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// Normalize trims both fields and lowercases the category.
// Returns a ValidationError if either field ends up empty.
func (in QuoteInput) Normalize() (Quote, error) {
	text := strings.TrimSpace(in.Text)
	category := strings.ToLower(strings.TrimSpace(in.Category))

	if text == "" {
		return Quote{}, NewValidationError("text", "is required")
	}

	if category == "" {
		return Quote{}, NewValidationError("category", "is required")
	}

	return Quote{Text: text, Category: category}, nil
}

// Collection is the ordered list of quotes owned by the store.
type Collection []Quote

// Clone returns an independent copy of the collection.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}

	dup := make(Collection, len(c))
	copy(dup, c)

	return dup
}

// NormalizeCollection validates and normalizes every element of a batch.
// The whole batch is rejected on the first malformed element.
func NormalizeCollection(items []QuoteInput) (Collection, error) {
	out := make(Collection, 0, len(items))

	for i, item := range items {
		q, err := item.Normalize()
		if err != nil {
			field := ""

			var ve *ValidationError
			if errors.As(err, &ve) {
				field = ve.Field
			}

			return nil, NewItemValidationError(i, field, "is required")
		}

		out = append(out, q)
	}

	return out, nil
}

// ValidateCollection checks that every element already satisfies the Quote invariant.
func ValidateCollection(c Collection) error {
	for i, q := range c {
		if strings.TrimSpace(q.Text) == "" {
			return NewItemValidationError(i, "text", "is required")
		}

		if strings.TrimSpace(q.Category) == "" {
			return NewItemValidationError(i, "category", "is required")
		}
	}

	return nil
}

// DefaultSeed returns the three quotes used when nothing has been persisted yet.
func DefaultSeed() Collection {
	return Collection{
		{Text: "The only way to do great work is to love what you do.", Category: "inspiration"},
		{Text: "Innovation distinguishes between a leader and a follower.", Category: "leadership"},
		{Text: "Your time is limited, don't waste it living someone else's life.", Category: "life"},
	}
}

// FilterSelection is either AllCategories or one specific category.
type FilterSelection string

// NewFilterSelection normalizes raw input into a selection.
// Empty input and any casing of "all" select every quote.
func NewFilterSelection(raw string) FilterSelection {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" || value == string(AllCategories) {
		return AllCategories
	}

	return FilterSelection(value)
}

// IsAll reports whether the selection is the AllCategories sentinel.
func (f FilterSelection) IsAll() bool {
	return f == AllCategories
}

// String implements fmt.Stringer.
func (f FilterSelection) String() string {
	return string(f)
}

// Sync status values recorded in SyncRecord.LastStatus.
const (
	SyncStatusNever    = "never"
	SyncStatusMerged   = "merged"
	SyncStatusUpToDate = "up-to-date"
	SyncStatusFailed   = "failed"
)

// SyncRecord holds the coarse timestamps used by the staleness check.
type SyncRecord struct {
	LastLocalUpdate time.Time `json:"lastLocalUpdate"`
	LastSync        time.Time `json:"lastSync"`
	LastStatus      string    `json:"lastStatus"`
	LastError       string    `json:"lastError,omitempty"`
	Merged          int       `json:"merged"`
}
