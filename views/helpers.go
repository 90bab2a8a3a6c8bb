package views

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/sidsin/blog/content"
)

// builder accumulates markup for one component.
type builder struct {
	strings.Builder
}

func (b *builder) raw(parts ...string) {
	for _, p := range parts {
		b.WriteString(p)
	}
}

func (b *builder) text(s string) {
	b.WriteString(templ.EscapeString(s))
}

func (b *builder) render(ctx context.Context, c templ.Component) error {
	if c == nil {
		return nil
	}
	return c.Render(ctx, &b.Builder)
}

// component adapts a builder function to templ.Component.
func component(fn func(ctx context.Context, b *builder) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b builder
		if err := fn(ctx, &b); err != nil {
			return err
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}

var esc = templ.EscapeString[string]

// buildURL joins path segments onto a base URL.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join("/", u.Path, path.Join(pathSegments...))
	return u.String()
}

// PostURL is the site path of a post.
func PostURL(slug string) string {
	return "/posts/" + url.PathEscape(slug)
}

// TagURL is the site path of a tag listing.
func TagURL(tag string) string {
	return "/tags/" + url.PathEscape(tag)
}

// listURL builds a listing link that keeps the type filter.
func listURL(basePath string, filter content.Filter, page int) string {
	q := url.Values{}
	if filter != "" && filter != content.FilterAll {
		q.Set("type", string(filter))
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if len(q) == 0 {
		return basePath
	}
	return basePath + "?" + q.Encode()
}

// ShortDate formats a post date as 2026.FEB.16.
func ShortDate(p content.Post) string {
	t, ok := p.Time()
	if !ok {
		return p.Date
	}
	return strings.ToUpper(t.Format("2006.Jan.02"))
}

// MonthDay formats a post date as FEB.16.
func MonthDay(p content.Post) string {
	t, ok := p.Time()
	if !ok {
		return p.Date
	}
	return strings.ToUpper(t.Format("Jan.02"))
}

// LongDate formats a post date as February 16, 2026.
func LongDate(p content.Post) string {
	t, ok := p.Time()
	if !ok {
		return p.Date
	}
	return t.Format("January 2, 2006")
}

func indicator(p content.Post) string {
	if p.Link != "" {
		return "↗ "
	}
	return ""
}

func describeFilter(f content.Filter) string {
	switch f {
	case content.Filter(content.Article):
		return "articles"
	case content.Filter(content.Note):
		return "notes"
	case content.Filter(content.Link):
		return "links"
	}
	return "posts"
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block.
func WebsiteJsonLD(site Site) string {
	data := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     site.Name,
		"url":      buildURL(site.URL),
	}
	if site.Description != "" {
		data["description"] = site.Description
	}
	if site.Author != "" {
		data["author"] = map[string]string{"@type": "Person", "name": site.Author}
	}
	return marshalJSONLD(data)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(site Site, post content.Post) string {
	postURL := buildURL(site.URL, "posts", post.Slug)
	data := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      post.Title,
		"description":   post.Description,
		"datePublished": post.Date,
		"url":           postURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if site.Author != "" {
		data["author"] = map[string]string{"@type": "Person", "name": site.Author}
	}
	if len(post.Tags) > 0 {
		data["keywords"] = strings.Join(post.Tags, ", ")
	}
	return marshalJSONLD(data)
}

func marshalJSONLD(data map[string]any) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
