// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows in a paged list.
const PageSize = 50

// Page is an offset window over a newest-first list.
type Page struct {
	Start int // 1-based index of the first row
	Size  int
}

// Offset is the number of rows to skip.
func (p Page) Offset() int64 { return int64(p.Start - 1) }

// Limit is the number of rows to fetch.
func (p Page) Limit() int64 { return int64(p.Size) }

// Parse reads "start" (1-based) and "limit" from the query string.
// Missing or invalid values fall back to 1 and PageSize; limit is capped
// at max.
func Parse(r *http.Request, max int) Page {
	p := Page{Start: ParseStart(r), Size: PageSize}
	if s := query.Get(r, "limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			p.Size = n
		}
	}
	if max > 0 && p.Size > max {
		p.Size = max
	}
	return p
}

// ParseStart extracts the human-friendly "start" query parameter (1-based index).
// Returns 1 if not present or invalid.
func ParseStart(r *http.Request) int {
	s := query.Get(r, "start")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Range holds computed display range values for a paginated list.
type Range struct {
	Start     int   `json:"start"`      // 1-based start index (0 if no results)
	End       int   `json:"end"`        // 1-based end index (0 if no results)
	PrevStart int   `json:"prev_start"` // start value for the previous page
	NextStart int   `json:"next_start"` // start value for the next page; 0 when none
	Total     int64 `json:"total"`
}

// ComputeRange calculates the range shown by page given how many rows it
// returned and the total number of rows.
func ComputeRange(p Page, shown int, total int64) Range {
	if shown == 0 {
		return Range{PrevStart: 1, Total: total}
	}

	prevStart := p.Start - p.Size
	if prevStart < 1 {
		prevStart = 1
	}
	rg := Range{
		Start:     p.Start,
		End:       p.Start + shown - 1,
		PrevStart: prevStart,
		Total:     total,
	}
	if int64(rg.End) < total {
		rg.NextStart = rg.End + 1
	}
	return rg
}
