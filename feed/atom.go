package feed

import (
	"encoding/xml"
	"time"

	"github.com/sidsin/blog/content"
)

type atomFeed struct {
	XMLName  xml.Name    `xml:"feed"`
	XMLNS    string      `xml:"xmlns,attr"`
	ID       string      `xml:"id"`
	Title    string      `xml:"title"`
	Subtitle string      `xml:"subtitle,omitempty"`
	Updated  string      `xml:"updated"`
	Links    []atomLink  `xml:"link"`
	Entries  []atomEntry `xml:"entry"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr,omitempty"`
	Href string `xml:"href,attr"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

type atomContent struct {
	Type string `xml:"type,attr"`
	Body string `xml:",cdata"`
}

type atomEntry struct {
	Title      string         `xml:"title"`
	ID         string         `xml:"id"`
	Links      []atomLink     `xml:"link"`
	Published  string         `xml:"published"`
	Updated    string         `xml:"updated"`
	Summary    string         `xml:"summary,omitempty"`
	Categories []atomCategory `xml:"category"`
	Content    atomContent    `xml:"content"`
}

// Atom renders posts as an Atom 1.0 document.
func Atom(posts []content.Post, opts Options) (string, error) {
	updated := now().UTC()
	if len(posts) > 0 {
		updated = postTime(posts[0])
	}
	entries := make([]atomEntry, 0, len(posts))
	for _, p := range posts {
		permalink := Permalink(opts.SiteURL, p.Slug)
		links := []atomLink{{Rel: "alternate", Type: "text/html", Href: permalink}}
		body := p.HTML
		if p.Link != "" {
			links = append(links, atomLink{Rel: "related", Type: "text/html", Href: p.Link})
			body = anchor(p.Link, "Original link") + body
		}
		cats := make([]atomCategory, 0, len(p.Tags))
		for _, t := range p.Tags {
			cats = append(cats, atomCategory{Term: t})
		}
		ts := postTime(p).Format(time.RFC3339)
		entries = append(entries, atomEntry{
			Title:      displayTitle(p),
			ID:         permalink,
			Links:      links,
			Published:  ts,
			Updated:    ts,
			Summary:    p.Description,
			Categories: cats,
			Content:    atomContent{Type: "html", Body: body},
		})
	}
	return encode(atomFeed{
		XMLNS:    "http://www.w3.org/2005/Atom",
		ID:       opts.FeedURL,
		Title:    opts.Title,
		Subtitle: opts.Description,
		Updated:  updated.Format(time.RFC3339),
		Links: []atomLink{
			{Rel: "self", Type: "application/atom+xml", Href: opts.FeedURL},
			{Rel: "alternate", Type: "text/html", Href: opts.SiteURL},
		},
		Entries: entries,
	})
}
