// Package pagination computes page windows and page metadata.
package pagination

import "math"

// Meta describes where a page sits in the full result set.
type Meta struct {
	PageNumber  int
	PageSize    int
	TotalItems  int
	PageCount   int
	HasPrevious bool
	HasNext     bool
}

// Offset returns the number of items that precede the given 1-based page.
// ok is false when that number does not fit in an int; such a page lies
// past the end of any result set.
func Offset(pageNumber, pageSize int) (offset int, ok bool) {
	if pageNumber < 1 || pageSize < 1 {
		return 0, true
	}
	if pageNumber-1 > math.MaxInt/pageSize {
		return 0, false
	}
	return (pageNumber - 1) * pageSize, true
}

// PageCount returns how many pages totalItems fill.
func PageCount(totalItems, pageSize int) int {
	if totalItems <= 0 || pageSize < 1 {
		return 0
	}
	return (totalItems + pageSize - 1) / pageSize
}

// NewMeta builds the metadata for pageNumber. Pages past the end are valid
// and simply have HasNext false.
func NewMeta(pageNumber, pageSize, totalItems int) Meta {
	count := PageCount(totalItems, pageSize)
	return Meta{
		PageNumber:  pageNumber,
		PageSize:    pageSize,
		TotalItems:  totalItems,
		PageCount:   count,
		HasPrevious: pageNumber > 1,
		HasNext:     pageNumber < count,
	}
}
