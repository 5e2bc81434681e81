/*
Package country implements the Country record: a two-letter ISO code, a
two-letter continent code, and the stringpool offset of the country's
name, ordered by code.
*/
package country

import (
	"errors"
	"sort"
)

// ErrInvalidCode is returned when a country or continent code is not two
// ASCII letters.
var ErrInvalidCode = errors.New("country: invalid code")

// Country is a two-letter country, its continent, and a name offset.
type Country struct {
	Code          [2]byte
	ContinentCode [2]byte
	NameOffset    uint32
}

// ValidCode reports whether code is exactly two ASCII letters.
func ValidCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	for _, c := range code {
		if !((c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')) {
			return false
		}
	}
	return true
}

// New validates code and continent and returns a Country with the given
// name offset.
func New(code, continent string, nameOffset uint32) (Country, error) {
	if !ValidCode(code) || (continent != "" && !ValidCode(continent)) {
		return Country{}, ErrInvalidCode
	}
	var c Country
	copy(c.Code[:], code)
	copy(c.ContinentCode[:], continent)
	c.NameOffset = nameOffset
	return c, nil
}

// CodeString renders the two-letter code as a string.
func (c Country) CodeString() string {
	return string(c.Code[:])
}

// ContinentString renders the two-letter continent code as a string.
func (c Country) ContinentString() string {
	return string(c.ContinentCode[:])
}

// Less orders Country records by Code, ASCII order.
func Less(a, b Country) bool {
	return string(a.Code[:]) < string(b.Code[:])
}

// SortTable sorts a slice of Country records in place by Code.
func SortTable(table []Country) {
	sort.Slice(table, func(i, j int) bool { return Less(table[i], table[j]) })
}

// Search returns the index of the Country with the given code in a table
// already sorted by SortTable, and whether it was found.
func Search(table []Country, code string) (int, bool) {
	i := sort.Search(len(table), func(i int) bool { return string(table[i].Code[:]) >= code })
	if i < len(table) && string(table[i].Code[:]) == code {
		return i, true
	}
	return i, false
}
