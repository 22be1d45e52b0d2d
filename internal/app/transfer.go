package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tesfalem/quotewidget/internal/domain"
)

// MaxImportBytes bounds an import payload.
const MaxImportBytes = 1 << 20

// ExportFilename is the suggested name for exported collections.
const ExportFilename = "quotes.json"

// Export writes the full collection as a JSON array with two-space indentation.
func (w *Widget) Export(_ context.Context, out io.Writer) error {
	quotes := w.Store.Quotes()
	if quotes == nil {
		quotes = domain.Collection{}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if err := enc.Encode(quotes); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}

	return nil
}

// Import replaces the collection with the JSON array read from r.
// The whole batch is rejected if the payload is not an array or any element
// lacks text or category. Returns the number of imported quotes.
func (w *Widget) Import(ctx context.Context, r io.Reader) (int, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxImportBytes+1))
	if err != nil {
		return 0, domain.NewValidationError("file", "could not be read: "+err.Error())
	}

	return Execute(ctx, w.exec, w.importOperation(), raw)
}

func (w *Widget) importOperation() Operation[[]byte, []domain.QuoteInput, domain.Collection, int] {
	return Operation[[]byte, []domain.QuoteInput, domain.Collection, int]{
		Name: "import_quotes",

		Validate: func(_ context.Context, raw []byte) error {
			if len(raw) > MaxImportBytes {
				return domain.NewValidationError("file", "exceeds the import size limit")
			}

			trimmed := bytes.TrimSpace(raw)
			if len(trimmed) == 0 || trimmed[0] != '[' {
				return domain.NewValidationError("file", "must be a JSON array of quotes")
			}

			return nil
		},

		Perform: func(_ context.Context, raw []byte) ([]domain.QuoteInput, error) {
			return decodeQuoteInputs(raw)
		},

		Verify: func(_ context.Context, _ []byte, items []domain.QuoteInput) (domain.Collection, error) {
			return domain.NormalizeCollection(items)
		},

		Archive: func(ctx context.Context, _ []byte, quotes domain.Collection) error {
			return w.Store.ReplaceAll(ctx, quotes)
		},

		Respond: func(_ context.Context, _ []byte, quotes domain.Collection) (int, error) {
			return len(quotes), nil
		},
	}
}

// decodeQuoteInputs reads the array element by element so that only the
// exact "text" and "category" keys count. encoding/json would otherwise
// match keys case-insensitively.
func decodeQuoteInputs(raw []byte) ([]domain.QuoteInput, error) {
	var elems []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, domain.NewValidationError("file", "is not valid quote JSON: "+err.Error())
	}

	items := make([]domain.QuoteInput, len(elems))

	for i, elem := range elems {
		for _, field := range [...]string{"text", "category"} {
			value, ok := elem[field]
			if !ok {
				return nil, domain.NewItemValidationError(i, field, "is required")
			}

			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return nil, domain.NewItemValidationError(i, field, "must be a string")
			}

			if field == "text" {
				items[i].Text = s
			} else {
				items[i].Category = s
			}
		}
	}

	return items, nil
}
