package feed

import (
	"encoding/xml"

	"github.com/sidsin/blog/content"
)

// rssDate is RFC 1123 with the literal GMT zone RSS readers expect.
const rssDate = "Mon, 02 Jan 2006 15:04:05 GMT"

type rssXML struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	ContentNS string     `xml:"xmlns:content,attr"`
	AtomNS    string     `xml:"xmlns:atom,attr"`
	Channel   rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Self          rssLink   `xml:"atom:link"`
	Items         []rssItem `xml:"item"`
}

type rssLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        rssGUID  `xml:"guid"`
	PubDate     string   `xml:"pubDate"`
	Description string   `xml:"description"`
	Categories  []string `xml:"category"`
	Related     *rssLink `xml:"atom:link,omitempty"`
	Content     cdata    `xml:"content:encoded"`
}

// RSS renders posts as an RSS 2.0 document. Items link to the site
// permalink; a link post's external URL appears in its content and as a
// related link.
func RSS(posts []content.Post, opts Options) (string, error) {
	lastBuild := now().UTC()
	if len(posts) > 0 {
		lastBuild = postTime(posts[0])
	}
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		permalink := Permalink(opts.SiteURL, p.Slug)
		body := p.HTML
		var related *rssLink
		if p.Link != "" {
			body = anchor(p.Link, p.Title) + body
			related = &rssLink{Href: p.Link, Rel: "related", Type: "text/html"}
		}
		items = append(items, rssItem{
			Title:       displayTitle(p),
			Link:        permalink,
			GUID:        rssGUID{IsPermaLink: "true", Value: permalink},
			PubDate:     postTime(p).Format(rssDate),
			Description: p.Description,
			Categories:  p.Tags,
			Related:     related,
			Content:     cdata{Text: body},
		})
	}
	return encode(rssXML{
		Version:   "2.0",
		ContentNS: "http://purl.org/rss/1.0/modules/content/",
		AtomNS:    "http://www.w3.org/2005/Atom",
		Channel: rssChannel{
			Title:         opts.Title,
			Link:          opts.SiteURL,
			Description:   opts.Description,
			Language:      "en-us",
			LastBuildDate: lastBuild.Format(rssDate),
			Self:          rssLink{Href: opts.FeedURL, Rel: "self", Type: "application/rss+xml"},
			Items:         items,
		},
	})
}
