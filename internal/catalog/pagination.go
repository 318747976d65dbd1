package catalog

import (
	"strconv"
	"strings"
)

// PageSize is the number of hits OMDb returns per search page.
const PageSize = 10

// TotalPages converts the totalResults string of a search response into a
// page count. Unparseable input yields zero.
func TotalPages(totalResults string) int {
	n, err := strconv.Atoi(strings.TrimSpace(totalResults))
	if err != nil || n <= 0 {
		return 0
	}
	return (n + PageSize - 1) / PageSize
}

// PageWindow returns up to visible page numbers centred on current.
// It returns nil when there is at most one page.
func PageWindow(current, total, visible int) []int {
	if total <= 1 || visible <= 0 {
		return nil
	}
	start := max(1, current-visible/2)
	end := min(total, start+visible-1)
	if end-start+1 < visible {
		start = max(1, end-visible+1)
	}

	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}
