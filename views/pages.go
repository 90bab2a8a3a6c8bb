package views

import (
	"context"

	"github.com/a-h/templ"

	"github.com/sidsin/blog/content"
	"github.com/sidsin/blog/markdown"
)

// Home renders the home page body: the "home" page content followed by the
// recent posts.
func Home(page content.Page, recent []content.Post, filter content.Filter) templ.Component {
	return component(func(ctx context.Context, b *builder) error {
		b.raw(`<article class="post-content">`, "\n", page.HTML, "\n</article>\n")
		b.raw(`<section class="mt-12">`, `<h2 class="font-mono text-2xl font-medium mb-4"><a href="/posts" class="link-accent">Recent Posts</a></h2>`, "\n")
		if err := b.render(ctx, PostFilter("/", filter, false)); err != nil {
			return err
		}
		if err := b.render(ctx, CompactList(recent, filter)); err != nil {
			return err
		}
		b.raw(`<p class="mt-6 text-primary">Browse the <a href="/archive" class="link-accent">archive</a> or subscribe to the <a href="/posts/feed.xml" class="link-accent">RSS feed</a>.</p>`,
			"\n</section>\n")
		return nil
	})
}

// Posts renders the paginated /posts listing.
func Posts(l Listing) templ.Component {
	return component(func(ctx context.Context, b *builder) error {
		b.raw(`<h1 class="font-mono text-3xl font-medium mb-6">Posts</h1>`, "\n")
		if err := b.render(ctx, PostFilter(l.BasePath, l.Filter, false)); err != nil {
			return err
		}
		return b.render(ctx, PostCards(l))
	})
}

// Archive renders every post grouped by year, followed by the tag cloud.
func Archive(posts []content.Post, tags []content.TagCount, filter content.Filter) templ.Component {
	return component(func(ctx context.Context, b *builder) error {
		b.raw(`<h1 class="font-mono text-3xl font-medium mb-6">Archive</h1>`, "\n")
		if err := b.render(ctx, PostFilter("/archive", filter, false)); err != nil {
			return err
		}
		if err := b.render(ctx, ArchiveList(posts, filter)); err != nil {
			return err
		}
		return b.render(ctx, TagCloud(tags))
	})
}

// Tag renders the paginated listing for one tag.
func Tag(tag string, l Listing) templ.Component {
	return component(func(ctx context.Context, b *builder) error {
		b.raw(`<h1 class="font-mono text-3xl font-medium mb-6">Posts tagged <span class="text-accent">`, esc(tag), `</span></h1>`, "\n",
			`<p class="mb-6"><a href="`, esc(TagURL(tag)), `/feed.xml" class="link-accent">RSS</a> · <a href="`, esc(TagURL(tag)), `/feed.atom" class="link-accent">Atom</a></p>`, "\n")
		if err := b.render(ctx, PostFilter(l.BasePath, l.Filter, false)); err != nil {
			return err
		}
		return b.render(ctx, PostCards(l))
	})
}

// Post renders a single post with its recent-posts aside. canPublish adds
// the publish button to drafts.
func Post(post content.Post, recent []content.Post, currentTag string, canPublish bool) templ.Component {
	return component(func(ctx context.Context, b *builder) error {
		b.raw(`<article data-post-type="`, string(post.Type), `">`, "\n", `<header class="mb-8">`)
		if post.Draft {
			b.raw(`<p class="font-mono text-xs uppercase text-accent mb-2">Draft</p>`)
		}
		b.raw(`<h1 class="font-mono text-3xl font-medium mb-2">`, indicator(post), esc(post.Title), `</h1>`,
			`<time class="date-mono">`, esc(LongDate(post)), `</time>`)
		tagPills(b, post.Tags)
		b.raw("</header>\n")
		if post.Link != "" {
			if href := markdown.SafeURL(post.Link); href != "" {
				b.raw(`<p class="mb-6"><a href="`, href, `" target="_blank" rel="noopener noreferrer" class="link-accent">`, esc(post.Title), ` ↗</a></p>`, "\n")
			}
		}
		b.raw(`<div class="post-content">`, "\n", post.HTML, "\n</div>\n")
		if post.Draft && canPublish {
			b.raw(`<form class="mt-8" hx-post="/admin/api/publish" hx-vals='{"wait":"true"}' hx-target="#publish-status" hx-swap="innerHTML">`,
				`<input type="hidden" name="slug" value="`, esc(post.Slug), `">`,
				`<button type="submit" class="btn-primary">Publish draft</button>`,
				`<span id="publish-status" class="ml-4 text-secondary"></span></form>`, "\n")
		}
		b.raw("</article>\n")
		return b.render(ctx, RecentPosts(post, recent, currentTag))
	})
}

// RecentPosts renders the aside listing other recent posts on a post page.
func RecentPosts(post content.Post, recent []content.Post, currentTag string) templ.Component {
	return component(func(ctx context.Context, b *builder) error {
		b.raw(`<aside class="mt-12" aria-labelledby="recent-posts-title" role="complementary">`,
			`<h2 id="recent-posts-title" class="font-mono text-2xl font-medium mb-4">Recent Posts</h2>`, "\n")
		if err := b.render(ctx, TagFilter(PostURL(post.Slug), post.Tags, currentTag, false)); err != nil {
			return err
		}
		if err := b.render(ctx, CompactList(recent, content.FilterAll)); err != nil {
			return err
		}
		b.raw("</aside>\n")
		return nil
	})
}

// Page renders a static page.
func Page(page content.Page) templ.Component {
	return component(func(ctx context.Context, b *builder) error {
		b.raw(`<article class="post-content">`, "\n", `<h1 class="font-mono text-3xl font-medium mb-6">`, esc(page.Title), "</h1>\n",
			page.HTML, "\n</article>\n")
		return nil
	})
}

// NotFound renders the 404 body.
func NotFound() templ.Component {
	return component(func(ctx context.Context, b *builder) error {
		b.raw(`<div class="text-center py-24"><h1 class="font-mono text-4xl font-medium mb-4">404</h1>`,
			`<p class="text-secondary mb-8">This page could not be found.</p>`,
			`<a href="/" class="link-accent">Go home</a></div>`, "\n")
		return nil
	})
}

// ServerError renders the 500 body. It never includes error details.
func ServerError() templ.Component {
	return component(func(ctx context.Context, b *builder) error {
		b.raw(`<div class="text-center py-24"><h1 class="font-mono text-4xl font-medium mb-4">500</h1>`,
			`<p class="text-secondary mb-8">Something went wrong. Please try again later.</p>`,
			`<a href="/" class="link-accent">Go home</a></div>`, "\n")
		return nil
	})
}
