package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistinctCategories_FirstAppearanceOrder(t *testing.T) {
	c := Collection{
		{Text: "A", Category: "x"},
		{Text: "B", Category: "y"},
		{Text: "C", Category: "x"},
		{Text: "D", Category: "server"},
	}

	assert.Equal(t, []string{"x", "y", "server"}, DistinctCategories(c))
	assert.Empty(t, DistinctCategories(nil))
}

func TestFilterByCategory(t *testing.T) {
	c := Collection{
		{Text: "A", Category: "x"},
		{Text: "B", Category: "y"},
		{Text: "C", Category: "x"},
	}

	t.Run("all returns everything", func(t *testing.T) {
		assert.Equal(t, c, FilterByCategory(c, AllCategories))
	})

	t.Run("every present category returns only matches", func(t *testing.T) {
		for _, category := range DistinctCategories(c) {
			got := FilterByCategory(c, FilterSelection(category))
			assert.NotEmpty(t, got)

			for _, q := range got {
				assert.Equal(t, category, q.Category)
			}
		}
	})

	t.Run("absent category is empty not nil", func(t *testing.T) {
		got := FilterByCategory(c, "nope")
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestHasCategory(t *testing.T) {
	c := Collection{{Text: "A", Category: "x"}}

	assert.True(t, HasCategory(c, "x"))
	assert.False(t, HasCategory(c, "y"))
}

func TestMissingFrom(t *testing.T) {
	local := Collection{{Text: "A", Category: "server"}}
	incoming := []Quote{
		{Text: "A", Category: "server"},
		{Text: "B", Category: "server"},
		{Text: "B", Category: "server"},
		{Text: "A", Category: "other"},
	}

	got := MissingFrom(local, incoming)

	assert.Equal(t, []Quote{
		{Text: "B", Category: "server"},
		{Text: "A", Category: "other"},
	}, got)
}
