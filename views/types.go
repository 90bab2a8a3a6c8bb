package views

import "github.com/sidsin/blog/content"

// Site holds site-wide settings shared by every page.
type Site struct {
	Name        string
	URL         string // canonical origin, no trailing slash
	Description string
	Author      string
}

// Meta carries per-page head metadata.
type Meta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	JSONLD      string
}

// Listing is one page of post cards.
type Listing struct {
	Posts      []content.Post
	Pagination content.Pagination
	BasePath   string
	Filter     content.Filter
}
