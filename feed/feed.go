// Package feed renders posts as RSS 2.0 and Atom documents.
package feed

import (
	"bytes"
	"encoding/xml"
	"html"
	"strings"
	"time"

	"github.com/sidsin/blog/content"
)

// Options describe the feed itself.
type Options struct {
	Title       string
	Description string
	FeedURL     string
	SiteURL     string
}

// now is replaced in tests.
var now = time.Now

// Permalink returns the canonical URL of a post on the site.
func Permalink(siteURL, slug string) string {
	return strings.TrimRight(siteURL, "/") + "/posts/" + slug
}

func displayTitle(p content.Post) string {
	switch {
	case p.Link != "":
		return "↗ " + p.Title
	case p.Type == content.Note:
		return "💬 " + p.Title
	}
	return p.Title
}

func postTime(p content.Post) time.Time {
	if t, ok := p.Time(); ok {
		return t.UTC()
	}
	return now().UTC()
}

func anchor(href, text string) string {
	return `<p><a href="` + html.EscapeString(href) + `" target="_blank" rel="noopener noreferrer">` +
		html.EscapeString(text) + ` ↗</a></p>`
}

func encode(v any) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type cdata struct {
	Text string `xml:",cdata"`
}
