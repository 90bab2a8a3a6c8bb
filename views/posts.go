package views

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/sidsin/blog/content"
	"github.com/sidsin/blog/markdown"
)

var filters = []struct {
	id    content.Filter
	label string
}{
	{content.FilterAll, "All Posts"},
	{content.Filter(content.Article), "Articles"},
	{content.Filter(content.Note), "Notes"},
	{content.Filter(content.Link), "Links"},
}

const (
	activeFilter   = "bg-accent/15 text-accent"
	inactiveFilter = "text-secondary hover:text-primary hover:bg-primary/5"
)

func filterNav(b *builder, label string, oob bool) {
	b.raw(`<nav id="post-filter" class="flex gap-1 mb-6 flex-wrap" role="navigation" aria-label="`, label, `"`)
	if oob {
		b.raw(` hx-swap-oob="true"`)
	}
	b.raw(">")
}

func filterLink(b *builder, href, label string, active bool) {
	class := inactiveFilter
	if active {
		class = activeFilter
	}
	b.raw(`<a href="`, esc(href), `" hx-target="#posts-list" hx-swap="outerHTML show:none" hx-push-url="true" class="px-3 py-1.5 rounded-md text-sm no-underline transition-colors `,
		class, `">`, label, `</a>`)
}

// PostFilter renders the type filter for a listing. With oob set it is
// marked for an out-of-band swap alongside a posts-list fragment.
func PostFilter(basePath string, current content.Filter, oob bool) templ.Component {
	return component(func(ctx context.Context, b *builder) error {
		filterNav(b, "Filter posts", oob)
		for _, f := range filters {
			filterLink(b, listURL(basePath, f.id, 1), f.label, f.id == current)
		}
		b.raw("</nav>\n")
		return nil
	})
}

// TagFilter renders the recent-posts tag filter on a post page.
func TagFilter(basePath string, tags []string, current string, oob bool) templ.Component {
	return component(func(ctx context.Context, b *builder) error {
		if len(tags) == 0 {
			return nil
		}
		filterNav(b, "Filter posts by tag", oob)
		filterLink(b, basePath, "All&nbsp;Posts", current == "" || current == "all")
		for _, tag := range tags {
			filterLink(b, basePath+"?tag="+url.QueryEscape(tag), esc(tag), tag == current)
		}
		b.raw("</nav>\n")
		return nil
	})
}

var reParagraph = regexp.MustCompile(`(?s)<p>.*?</p>`)

func preview(html string) string {
	paras := reParagraph.FindAllString(html, 2)
	return strings.Join(paras, "\n")
}

func tagPills(b *builder, tags []string) {
	if len(tags) == 0 {
		return
	}
	b.raw(`<div class="mt-4 flex gap-2 flex-wrap">`)
	for _, t := range tags {
		b.raw(`<a href="`, esc(TagURL(t)), `" class="tag-pill">`, esc(t), `</a>`)
	}
	b.raw(`</div>`)
}

func postCard(b *builder, p content.Post) {
	b.raw(`<article class="py-8 first:pt-0" data-post-type="`, string(p.Type), `">`,
		`<time class="date-mono block mb-2">`, esc(ShortDate(p)), `</time>`,
		`<a href="`, esc(PostURL(p.Slug)), `" class="group"><h2 class="font-mono text-xl font-medium mb-2 text-primary group-hover:text-accent">`,
		indicator(p), esc(p.Title), `</h2></a>`,
		`<div class="leading-relaxed prose-sm text-secondary">`, preview(p.HTML), `</div>`)
	if strings.HasSuffix(p.Excerpt, "...") {
		b.raw(`<a href="`, esc(PostURL(p.Slug)), `" class="link-animated inline-block mt-2">Continue reading →</a>`)
	}
	tagPills(b, p.Tags)
	b.raw("</article>")
}

func emptyList(b *builder, msg string) {
	b.raw(`<div id="posts-list">`, "\n", `<p class="text-secondary">`, esc(msg), "</p>\n</div>\n")
}

func emptyMessage(f content.Filter, all string) string {
	if f == "" || f == content.FilterAll {
		return all
	}
	return "No " + describeFilter(f) + " found."
}

// PostCards renders a paginated list of full post cards.
func PostCards(l Listing) templ.Component {
	return component(func(ctx context.Context, b *builder) error {
		if len(l.Posts) == 0 {
			emptyList(b, emptyMessage(l.Filter, "No posts yet."))
			return nil
		}
		b.raw(`<div id="posts-list">`, "\n", `<div class="divide-y">`)
		for _, p := range l.Posts {
			postCard(b, p)
		}
		b.raw("</div>\n")
		pagination(b, l)
		b.raw("</div>\n")
		return nil
	})
}

func pagination(b *builder, l Listing) {
	info := l.Pagination
	if info.TotalPages <= 1 {
		return
	}
	b.raw(`<nav class="flex items-center justify-center gap-6 mt-12 pt-8 border-t border-border" aria-label="Pagination">`)
	if info.HasPrev {
		b.raw(`<a href="`, esc(listURL(l.BasePath, l.Filter, info.CurrentPage-1)), `" class="font-mono text-sm text-secondary">&larr; Prev</a>`)
	} else {
		b.raw(`<span class="font-mono text-sm text-secondary" style="opacity: 0.3">&larr; Prev</span>`)
	}
	b.raw(`<div class="flex gap-4">`)
	for i := 1; i <= info.TotalPages; i++ {
		n := strconv.Itoa(i)
		if i == info.CurrentPage {
			b.raw(`<span class="font-mono text-sm text-accent" aria-current="page">`, n, `</span>`)
			continue
		}
		b.raw(`<a href="`, esc(listURL(l.BasePath, l.Filter, i)), `" class="link-accent font-mono text-sm">`, n, `</a>`)
	}
	b.raw(`</div>`)
	if info.HasNext {
		b.raw(`<a href="`, esc(listURL(l.BasePath, l.Filter, info.CurrentPage+1)), `" class="font-mono text-sm text-secondary">Next &rarr;</a>`)
	} else {
		b.raw(`<span class="font-mono text-sm text-secondary" style="opacity: 0.3">Next &rarr;</span>`)
	}
	b.raw("</nav>\n")
}

// CompactList renders one line per post, as on the home page.
func CompactList(posts []content.Post, filter content.Filter) templ.Component {
	return component(func(ctx context.Context, b *builder) error {
		if len(posts) == 0 {
			emptyList(b, emptyMessage(filter, ""))
			return nil
		}
		b.raw(`<div id="posts-list">`, "\n<ul>")
		for _, p := range posts {
			compactItem(b, p, ShortDate(p), "w-24")
		}
		b.raw("</ul>\n</div>\n")
		return nil
	})
}

func compactItem(b *builder, p content.Post, date, width string) {
	b.raw(`<li class="flex gap-6 py-2 group" data-post-type="`, string(p.Type), `">`,
		`<span class="font-mono text-sm `, width, ` shrink-0 text-secondary">`, esc(date), `</span>`,
		`<span>`, indicator(p), `<a href="`, esc(PostURL(p.Slug)), `" class="text-primary">`, esc(p.Title), `</a></span></li>`)
}

// ArchiveList renders posts grouped by year, newest year first.
func ArchiveList(posts []content.Post, filter content.Filter) templ.Component {
	return component(func(ctx context.Context, b *builder) error {
		if len(posts) == 0 {
			emptyList(b, emptyMessage(filter, "No posts yet."))
			return nil
		}
		b.raw(`<div id="posts-list">`, "\n")
		year := ""
		for _, p := range posts {
			y := "Undated"
			if t, ok := p.Time(); ok {
				y = strconv.Itoa(t.Year())
			}
			if y != year {
				if year != "" {
					b.raw("</ul></section>\n")
				}
				year = y
				b.raw(`<section class="mb-12"><h2 class="font-mono text-2xl font-medium mb-4 text-primary">`, y, `</h2><ul>`)
			}
			compactItem(b, p, MonthDay(p), "w-12")
		}
		b.raw("</ul></section>\n</div>\n")
		return nil
	})
}

// TagCloud renders every tag with its post count.
func TagCloud(tags []content.TagCount) templ.Component {
	return component(func(ctx context.Context, b *builder) error {
		if len(tags) == 0 {
			return nil
		}
		b.raw(`<section class="mt-12"><h2 class="font-mono text-2xl font-medium mb-4">Tags</h2><div class="flex gap-2 flex-wrap">`)
		for _, t := range tags {
			b.raw(`<a href="`, esc(TagURL(t.Tag)), `" class="tag-pill">`, esc(t.Tag),
				` <span class="text-secondary">`, strconv.Itoa(t.Count), `</span></a>`)
		}
		b.raw("</div></section>\n")
		return nil
	})
}

// Body renders trusted HTML such as a rendered post.
func Body(html string) templ.Component {
	return markdown.HTML(html)
}
