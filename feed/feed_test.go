package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidsin/blog/content"
)

var opts = Options{
	Title:       "Sid's blog",
	Description: "Notes & essays",
	SiteURL:     "https://sids.in/",
	FeedURL:     "https://sids.in/rss.xml",
}

func fixturePosts() []content.Post {
	return []content.Post{
		{
			Title: "Deep Blue", Slug: "deep-blue", Date: "2026-02-16", Type: content.Link,
			Link: "https://example.com/a?x=1&y=2", Description: "A link", Tags: []string{"ai"},
			HTML: "<p>Commentary</p>",
		},
		{
			Title: "Cognitive debt", Slug: "cognitive-debt", Date: "2026-02-10", Type: content.Note,
			HTML: "<p>Short note</p>",
		},
		{
			Title: "On tools", Slug: "on-tools", Date: "not-a-date", Type: content.Article,
			Description: "Tools", HTML: "<p>Long ]]> body</p>",
		},
	}
}

func TestPermalink(t *testing.T) {
	assert.Equal(t, "https://sids.in/posts/x", Permalink("https://sids.in/", "x"))
	assert.Equal(t, "https://sids.in/posts/x", Permalink("https://sids.in", "x"))
}

func TestRSS(t *testing.T) {
	now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })

	out, err := RSS(fixturePosts(), opts)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	assert.Contains(t, out, `<atom:link href="https://sids.in/rss.xml" rel="self" type="application/rss+xml"></atom:link>`)
	assert.Contains(t, out, `<language>en-us</language>`)
	assert.Contains(t, out, `<lastBuildDate>Mon, 16 Feb 2026 00:00:00 GMT</lastBuildDate>`)
	assert.Contains(t, out, `<description>Notes &amp; essays</description>`)

	assert.Contains(t, out, `<title>↗ Deep Blue</title>`)
	assert.Contains(t, out, `<title>💬 Cognitive debt</title>`)
	assert.Contains(t, out, `<title>On tools</title>`)
	assert.Contains(t, out, `<link>https://sids.in/posts/deep-blue</link>`)
	assert.Contains(t, out, `<guid isPermaLink="true">https://sids.in/posts/deep-blue</guid>`)
	assert.Contains(t, out, `<atom:link href="https://example.com/a?x=1&amp;y=2" rel="related" type="text/html"></atom:link>`)
	assert.Contains(t, out, `<category>ai</category>`)
	assert.Contains(t, out, `<a href="https://example.com/a?x=1&amp;y=2" target="_blank" rel="noopener noreferrer">Deep Blue ↗</a>`)
	// unparseable dates fall back to the current time
	assert.Contains(t, out, `<pubDate>Sun, 01 Mar 2026 12:00:00 GMT</pubDate>`)
	assert.Equal(t, 1, strings.Count(out, `rel="related"`))
}

func TestRSSEmpty(t *testing.T) {
	out, err := RSS(nil, opts)
	require.NoError(t, err)
	assert.NotContains(t, out, "<item>")
	assert.Contains(t, out, "<lastBuildDate>")
}

func TestAtom(t *testing.T) {
	out, err := Atom(fixturePosts(), Options{
		Title: opts.Title, SiteURL: opts.SiteURL, FeedURL: "https://sids.in/atom.xml",
	})
	require.NoError(t, err)

	assert.Contains(t, out, `<feed xmlns="http://www.w3.org/2005/Atom">`)
	assert.Contains(t, out, `<id>https://sids.in/atom.xml</id>`)
	assert.Contains(t, out, `<updated>2026-02-16T00:00:00Z</updated>`)
	assert.Contains(t, out, `<link rel="self" type="application/atom+xml" href="https://sids.in/atom.xml"></link>`)
	assert.NotContains(t, out, "<subtitle>")

	assert.Contains(t, out, `<id>https://sids.in/posts/deep-blue</id>`)
	assert.Contains(t, out, `<link rel="alternate" type="text/html" href="https://sids.in/posts/deep-blue"></link>`)
	assert.Contains(t, out, `<link rel="related" type="text/html" href="https://example.com/a?x=1&amp;y=2"></link>`)
	assert.Contains(t, out, `<published>2026-02-16T00:00:00Z</published>`)
	assert.Contains(t, out, `<summary>A link</summary>`)
	assert.Contains(t, out, `<category term="ai"></category>`)
	assert.Contains(t, out, `Original link ↗</a></p><p>Commentary</p>`)
	assert.Contains(t, out, `<title>💬 Cognitive debt</title>`)
	assert.Equal(t, 2, strings.Count(out, "<summary>"))
}
