// Package listutil parses paging, sorting and search parameters for the table endpoints
// and pages through counted collections.
package listutil

import (
	"context"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Table defaults.
const (
	DefaultPerPage  = 10
	MaxSearchLength = 100 // bytes, before LIKE
)

// PerPageOptions are the page sizes the admin tables offer.
var PerPageOptions = []int{10, 25, 50, 100}

// PageParams is the requested page.
type PageParams struct {
	Page    int // 1-indexed
	PerPage int
}

// SortParams is the requested ordering. Sort is empty for the table default.
type SortParams struct {
	Sort string
	Dir  string // asc | desc
}

// ListParams is everything a table request can ask for.
type ListParams struct {
	PageParams
	SortParams
	Search string
}

// PageInfo describes the page actually served.
type PageInfo struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// ParseListParams reads page, per_page, sort, dir and q.
// Unknown or malformed values fall back to defaults instead of failing the request.
// POST: Page >= 1; PerPage in PerPageOptions; Sort empty or in sortable; Dir is asc or desc
func ParseListParams(q url.Values, sortable []string) ListParams {
	p := ListParams{
		PageParams: PageParams{Page: 1, PerPage: DefaultPerPage},
		SortParams: SortParams{Dir: "asc"},
		Search:     normalizeSearch(q.Get("q")),
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 1 {
		p.Page = n
	}
	if n, err := strconv.Atoi(q.Get("per_page")); err == nil && slices.Contains(PerPageOptions, n) {
		p.PerPage = n
	}
	if col := q.Get("sort"); slices.Contains(sortable, col) {
		p.Sort = col
	}
	if strings.EqualFold(q.Get("dir"), "desc") {
		p.Dir = "desc"
	}
	return p
}

// normalizeSearch trims, collapses inner whitespace and caps the term on a rune boundary.
func normalizeSearch(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > MaxSearchLength {
		s = strings.ToValidUTF8(s[:MaxSearchLength], "")
	}
	return s
}

// NewPageInfo clamps the requested page into the available range.
// PRE: total >= 0
// POST: 1 <= Page <= TotalPages; TotalPages >= 1 even for an empty table
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	pages := max(1, (total+perPage-1)/perPage)
	page = min(max(page, 1), pages)
	return PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
	}
}

// Offset is the SQL OFFSET of the page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Fetch counts the collection, clamps the page, then loads exactly that page.
func Fetch[T any](ctx context.Context, p PageParams,
	count func(context.Context) (int, error),
	load func(ctx context.Context, limit, offset int) ([]T, error),
) ([]T, PageInfo, error) {
	total, err := count(ctx)
	if err != nil {
		return nil, PageInfo{}, err
	}
	info := NewPageInfo(p.Page, p.PerPage, total)
	items, err := load(ctx, info.PerPage, info.Offset())
	if err != nil {
		return nil, PageInfo{}, err
	}
	return items, info, nil
}
