package content

import (
	"net/url"
	"strconv"
)

// PostsPerPage is the page size for paginated listings.
const PostsPerPage = 10

// Filter selects posts by type. FilterAll keeps everything.
type Filter string

const FilterAll Filter = "all"

// ParseFilter reads the "type" query parameter.
func ParseFilter(q url.Values) Filter {
	switch t := PostType(q.Get("type")); t {
	case Article, Note, Link:
		return Filter(t)
	}
	return FilterAll
}

// legacyTypes maps retired type names to their replacements.
var legacyTypes = map[string]PostType{
	"essay": Article,
	"brief": Note,
	"aside": Note,
}

// LegacyType returns the current name for a retired type filter value.
func LegacyType(v string) (PostType, bool) {
	t, ok := legacyTypes[v]
	return t, ok
}

// Apply returns the posts matching f.
func (f Filter) Apply(posts []Post) []Post {
	if f == FilterAll || f == "" {
		return posts
	}
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if Filter(p.Type) == f {
			out = append(out, p)
		}
	}
	return out
}

// PageNumber reads the "page" query parameter, defaulting to 1.
func PageNumber(q url.Values) int {
	v := q.Get("page")
	if v == "" {
		return 1
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Pagination describes one page of a listing.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	TotalItems  int
	HasNext     bool
	HasPrev     bool
}

// Paginate returns the items on page, clamping page into
// [1, max(1, totalPages)].
func Paginate[T any](items []T, page, perPage int) ([]T, Pagination) {
	total := len(items)
	totalPages := (total + perPage - 1) / perPage
	current := page
	if current > totalPages {
		current = totalPages
	}
	if current < 1 {
		current = 1
	}
	start := (current - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return items[start:end], Pagination{
		CurrentPage: current,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasNext:     current < totalPages,
		HasPrev:     current > 1,
	}
}
