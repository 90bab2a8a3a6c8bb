package views

import (
	"context"
	"strconv"
	"time"

	"github.com/a-h/templ"
)

const themeScript = `(function(){var s=localStorage.getItem('theme');` +
	`if(s==='dark'||(!s&&window.matchMedia('(prefers-color-scheme: dark)').matches)){document.documentElement.classList.add('dark');}})();`

const toggleScript = `function toggleTheme(){var d=document.documentElement.classList.toggle('dark');localStorage.setItem('theme',d?'dark':'light');}`

func pageTitle(site Site, meta Meta) string {
	if meta.Title == "" {
		return site.Name
	}
	return meta.Title + " | " + site.Name
}

func head(b *builder, site Site, meta Meta) {
	b.raw(`<title>`, esc(pageTitle(site, meta)), `</title>`, "\n")
	if meta.Description != "" {
		b.raw(`<meta name="description" content="`, esc(meta.Description), `">`, "\n")
		b.raw(`<meta property="og:description" content="`, esc(meta.Description), `">`, "\n")
	}
	if meta.Title != "" {
		b.raw(`<meta property="og:title" content="`, esc(meta.Title), `">`, "\n")
	}
	if meta.URL != "" {
		b.raw(`<link rel="canonical" href="`, esc(meta.URL), `">`, "\n")
		b.raw(`<meta property="og:url" content="`, esc(meta.URL), `">`, "\n")
	}
	ogType := meta.OGType
	if ogType == "" {
		ogType = "website"
	}
	b.raw(`<meta property="og:type" content="`, ogType, `">`, "\n")
	if meta.JSONLD != "" {
		b.raw(`<script type="application/ld+json">`, meta.JSONLD, `</script>`, "\n")
	}
}

// Layout wraps body in the full HTML document.
func Layout(site Site, meta Meta, body templ.Component) templ.Component {
	return component(func(ctx context.Context, b *builder) error {
		b.raw(`<!DOCTYPE html>`, "\n", `<html lang="en">`, "\n<head>\n",
			`<meta charset="UTF-8">`, "\n",
			`<meta name="viewport" content="width=device-width, initial-scale=1.0">`, "\n")
		head(b, site, meta)
		b.raw(`<link rel="icon" type="image/png" href="/images/s.png">`, "\n",
			`<link rel="stylesheet" href="/css/styles.css">`, "\n",
			`<link rel="alternate" type="application/rss+xml" title="RSS" href="/posts/feed.xml">`, "\n",
			`<link rel="alternate" type="application/atom+xml" title="Atom" href="/posts/feed.atom">`, "\n",
			`<script>`, themeScript, `</script>`, "\n",
			`<script src="https://unpkg.com/htmx.org@2.0.4"></script>`, "\n",
			`<script src="https://unpkg.com/htmx-ext-head-support@2.0.2/head-support.js"></script>`, "\n",
			"</head>\n",
			`<body hx-ext="head-support" hx-boost="true" hx-target="#content" hx-swap="innerHTML" class="min-h-screen">`, "\n")
		b.raw(`<header class="border-b border-border"><nav class="content-width py-8 flex justify-between">`,
			`<a href="/" class="font-mono text-sm tracking-widest uppercase">`, esc(site.Name), `</a>`,
			`<div class="flex items-center gap-2 font-mono text-sm">`,
			`<a href="/posts" class="nav-link">Posts</a><span class="text-secondary">·</span>`,
			`<a href="/archive" class="nav-link">Archive</a></div></nav></header>`, "\n")
		b.raw(`<main id="content" class="content-width py-12">`, "\n")
		if err := b.render(ctx, body); err != nil {
			return err
		}
		b.raw("\n</main>\n")
		b.raw(`<footer class="border-t border-border mt-24"><div class="content-width py-8 flex justify-between">`,
			`<button onclick="toggleTheme()" class="theme-switch" aria-label="Toggle theme">☀</button>`,
			`<span class="font-mono text-xs text-secondary">&copy; 2024&ndash;`, strconv.Itoa(time.Now().Year()), ` `, esc(site.Author), `</span>`,
			`</div></footer>`, "\n",
			`<script>`, toggleScript, `</script>`, "\n</body>\n</html>\n")
		return nil
	})
}

// Partial is the HTMX swap body: a title element for head-support followed
// by the page content.
func Partial(site Site, meta Meta, body templ.Component) templ.Component {
	return component(func(ctx context.Context, b *builder) error {
		b.raw(`<title>`, esc(pageTitle(site, meta)), `</title>`, "\n")
		return b.render(ctx, body)
	})
}
