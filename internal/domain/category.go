package domain

// DistinctCategories returns each category once, in order of first appearance.
// It is recomputed from the collection on every call and never cached.
func DistinctCategories(c Collection) []string {
	seen := make(map[string]struct{}, len(c))
	categories := make([]string, 0, len(c))

	for _, q := range c {
		if _, ok := seen[q.Category]; ok {
			continue
		}

		seen[q.Category] = struct{}{}
		categories = append(categories, q.Category)
	}

	return categories
}

// HasCategory reports whether any quote in c carries the category.
func HasCategory(c Collection, category string) bool {
	for _, q := range c {
		if q.Category == category {
			return true
		}
	}

	return false
}

// FilterByCategory returns the quotes visible under the selection.
// A category with no quotes yields an empty, non-nil result.
func FilterByCategory(c Collection, sel FilterSelection) Collection {
	if sel.IsAll() {
		return c.Clone()
	}

	out := make(Collection, 0)

	for _, q := range c {
		if q.Category == string(sel) {
			out = append(out, q)
		}
	}

	return out
}

// MissingFrom returns the quotes in incoming that are not already in c,
// comparing by text and category. Duplicates inside incoming are also dropped.
func MissingFrom(c Collection, incoming []Quote) []Quote {
	seen := make(map[string]struct{}, len(c)+len(incoming))
	for _, q := range c {
		seen[q.Key()] = struct{}{}
	}

	out := make([]Quote, 0, len(incoming))

	for _, q := range incoming {
		if _, ok := seen[q.Key()]; ok {
			continue
		}

		seen[q.Key()] = struct{}{}
		out = append(out, q)
	}

	return out
}
