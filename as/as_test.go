package as

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortTable(t *testing.T) {
	table := []AS{{Number: 30}, {Number: 10}, {Number: 20}}
	SortTable(table)
	assert.Equal(t, []uint32{10, 20, 30}, numbers(table))
}

func TestSearch(t *testing.T) {
	table := []AS{{Number: 10}, {Number: 20}, {Number: 30}}
	i, found := Search(table, 20)
	assert.True(t, found)
	assert.Equal(t, 1, i)

	_, found = Search(table, 25)
	assert.False(t, found)
}

func numbers(table []AS) []uint32 {
	out := make([]uint32, len(table))
	for i, a := range table {
		out[i] = a.Number
	}
	return out
}
