package views

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidsin/blog/content"
)

var site = Site{Name: "Sid's Blog", URL: "https://sids.in", Description: "Notes", Author: "Sid"}

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, c.Render(context.Background(), &b))
	return b.String()
}

func TestDates(t *testing.T) {
	p := content.Post{Date: "2026-02-16"}
	assert.Equal(t, "2026.FEB.16", ShortDate(p))
	assert.Equal(t, "FEB.16", MonthDay(p))
	assert.Equal(t, "February 16, 2026", LongDate(p))

	bad := content.Post{Date: "someday"}
	assert.Equal(t, "someday", ShortDate(bad))
}

func TestListURL(t *testing.T) {
	assert.Equal(t, "/posts", listURL("/posts", content.FilterAll, 1))
	assert.Equal(t, "/posts?type=note", listURL("/posts", content.Filter(content.Note), 1))
	assert.Equal(t, "/posts?page=3&type=link", listURL("/posts", content.Filter(content.Link), 3))
	assert.Equal(t, "/tags/a%20b", TagURL("a b"))
}

func TestPartialHasOnlyTitleAndBody(t *testing.T) {
	out := render(t, Partial(site, Meta{Title: "About"}, Page(content.Page{Title: "About", HTML: "<p>Hi</p>"})))
	assert.True(t, strings.HasPrefix(out, "<title>About | Sid&#39;s Blog</title>\n"))
	assert.NotContains(t, out, "<html")
	assert.Contains(t, out, "<p>Hi</p>")
}

func TestLayoutHead(t *testing.T) {
	out := render(t, Layout(site, Meta{
		Title: "Post", Description: `A "quote"`, URL: "https://sids.in/posts/x", OGType: "article",
	}, NotFound()))
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, `<meta name="description" content="A &#34;quote&#34;">`)
	assert.Contains(t, out, `<link rel="canonical" href="https://sids.in/posts/x">`)
	assert.Contains(t, out, `<meta property="og:type" content="article">`)
	assert.Contains(t, out, `href="/posts/feed.atom"`)
	assert.Contains(t, out, "This page could not be found.")

	home := render(t, Layout(site, Meta{}, nil))
	assert.Contains(t, home, "<title>Sid&#39;s Blog</title>")
	assert.Contains(t, home, `<meta property="og:type" content="website">`)
}

func TestPostFilterMarksActive(t *testing.T) {
	out := render(t, PostFilter("/posts", content.Filter(content.Note), true))
	assert.Contains(t, out, `hx-swap-oob="true"`)
	assert.Contains(t, out, `<a href="/posts?type=note" hx-target="#posts-list" hx-swap="outerHTML show:none" hx-push-url="true" class="px-3 py-1.5 rounded-md text-sm no-underline transition-colors `+activeFilter+`">Notes</a>`)
	assert.Equal(t, 1, strings.Count(out, activeFilter))

	assert.NotContains(t, render(t, PostFilter("/", content.FilterAll, false)), "hx-swap-oob")
}

func TestTagFilter(t *testing.T) {
	assert.Empty(t, render(t, TagFilter("/posts/x", nil, "", false)))

	out := render(t, TagFilter("/posts/x", []string{"go", "a&b"}, "go", false))
	assert.Contains(t, out, `href="/posts/x?tag=a%26b"`)
	assert.Contains(t, out, ">a&amp;b</a>")
	assert.Contains(t, out, `href="/posts/x?tag=go" hx-target="#posts-list" hx-swap="outerHTML show:none" hx-push-url="true" class="px-3 py-1.5 rounded-md text-sm no-underline transition-colors `+activeFilter+`"`)
}

func TestPostCardsPagination(t *testing.T) {
	posts := []content.Post{
		{Title: "<One>", Slug: "one", Date: "2026-02-16", Type: content.Note, HTML: "<p>a</p><p>b</p><p>c</p>", Excerpt: "a b..."},
	}
	out := render(t, PostCards(Listing{
		Posts:      posts,
		BasePath:   "/posts",
		Filter:     content.Filter(content.Note),
		Pagination: content.Pagination{CurrentPage: 2, TotalPages: 3, HasNext: true, HasPrev: true},
	}))
	assert.True(t, strings.HasPrefix(out, `<div id="posts-list">`))
	assert.Contains(t, out, "&lt;One&gt;")
	assert.Contains(t, out, "<p>a</p>\n<p>b</p>")
	assert.NotContains(t, out, "<p>c</p>")
	assert.Contains(t, out, "Continue reading")
	assert.Contains(t, out, `href="/posts?type=note" class="font-mono text-sm text-secondary">&larr; Prev</a>`)
	assert.Contains(t, out, `href="/posts?page=3&amp;type=note" class="font-mono text-sm text-secondary">Next &rarr;</a>`)
	assert.Contains(t, out, `aria-current="page">2</span>`)

	empty := render(t, PostCards(Listing{Filter: content.Filter(content.Link)}))
	assert.Contains(t, empty, "No links found.")
}

func TestArchiveListGroupsByYear(t *testing.T) {
	out := render(t, ArchiveList([]content.Post{
		{Title: "B", Slug: "b", Date: "2026-01-02"},
		{Title: "A", Slug: "a", Date: "2025-12-31", Link: "https://x"},
	}, content.FilterAll))
	assert.Less(t, strings.Index(out, ">2026</h2>"), strings.Index(out, ">2025</h2>"))
	assert.Contains(t, out, "↗ <a href=\"/posts/a\"")
	assert.Contains(t, out, ">DEC.31</span>")
}

func TestPostView(t *testing.T) {
	post := content.Post{
		Title: "WIP", Slug: "wip", Date: "2026-02-17", Draft: true, Tags: []string{"ai"},
		Link: "javascript:alert(1)", HTML: "<p>Body</p>",
	}
	out := render(t, Post(post, nil, "", true))
	assert.Contains(t, out, ">Draft</p>")
	assert.Contains(t, out, `hx-post="/admin/api/publish"`)
	assert.Contains(t, out, `name="slug" value="wip"`)
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, "Recent Posts")

	assert.NotContains(t, render(t, Post(post, nil, "", false)), "hx-post")
}

func TestBlogPostingJsonLD(t *testing.T) {
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(BlogPostingJsonLD(site, content.Post{
		Title: "T", Slug: "t", Date: "2026-02-16", Tags: []string{"a", "b"},
	})), &got))
	assert.Equal(t, "BlogPosting", got["@type"])
	assert.Equal(t, "https://sids.in/posts/t", got["url"])
	assert.Equal(t, "a, b", got["keywords"])
	assert.Equal(t, map[string]any{"@type": "Person", "name": "Sid"}, got["author"])
}

func TestAdminDashboard(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := render(t, AdminDashboard("sid@example.com",
		[]content.Post{{Title: "WIP", Slug: "wip", Date: "2026-02-17", Draft: true}},
		[]Activity{{When: at, Action: "post.publish", Actor: "sid@example.com", Detail: "<wip>"}},
		"tok"))
	assert.Contains(t, out, "Signed in as sid@example.com")
	assert.Contains(t, out, `href="/posts/wip"`)
	assert.Contains(t, out, `id="activity"`)
	assert.Contains(t, out, "&lt;wip&gt;")
	assert.Contains(t, out, `value="tok"`)

	assert.NotContains(t, render(t, AdminDashboard("x", nil, nil, "tok")), `id="activity"`)
}

func TestAdminLoginFlash(t *testing.T) {
	out := render(t, AdminLogin("<bad>", "tok"))
	assert.Contains(t, out, `role="alert">&lt;bad&gt;</p>`)
	assert.NotContains(t, render(t, AdminLogin("", "tok")), "role=\"alert\"")
}
