package country

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewValidatesCode(t *testing.T) {
	_, err := New("U1", "NA", 0)
	assert.ErrorIs(t, err, ErrInvalidCode)

	c, err := New("US", "NA", 42)
	assert.NoError(t, err)
	assert.Equal(t, "US", c.CodeString())
	assert.Equal(t, "NA", c.ContinentString())
}

func TestSortAndSearch(t *testing.T) {
	a, _ := New("US", "NA", 0)
	b, _ := New("DE", "EU", 0)
	c, _ := New("FR", "EU", 0)
	table := []Country{a, b, c}
	SortTable(table)
	assert.Equal(t, []string{"DE", "FR", "US"}, codes(table))

	i, found := Search(table, "FR")
	assert.True(t, found)
	assert.Equal(t, 1, i)

	_, found = Search(table, "ZZ")
	assert.False(t, found)
}

func codes(table []Country) []string {
	out := make([]string, len(table))
	for i, c := range table {
		out[i] = c.CodeString()
	}
	return out
}
