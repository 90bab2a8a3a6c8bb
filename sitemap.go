package blog

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sidsin/blog/views"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// sitemap lists every public URL. Drafts are never included.
func (a *App) sitemap() sitemapURLSet {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: base + "/", ChangeFreq: "daily", Priority: "1.0"},
	}
	for _, slug := range a.Content.Pages() {
		if slug == "home" {
			continue
		}
		urls = append(urls, sitemapURL{Loc: base + "/" + slug, ChangeFreq: "monthly", Priority: "0.8"})
	}
	urls = append(urls,
		sitemapURL{Loc: base + "/posts", ChangeFreq: "daily", Priority: "0.9"},
		sitemapURL{Loc: base + "/archive", ChangeFreq: "daily", Priority: "0.9"},
	)
	for _, p := range a.Content.Posts() {
		u := sitemapURL{Loc: base + views.PostURL(p.Slug), ChangeFreq: "monthly", Priority: "0.7"}
		if t, ok := p.Time(); ok {
			u.LastMod = t.UTC().Format("2006-01-02")
		}
		urls = append(urls, u)
	}
	for _, t := range a.Content.Tags() {
		urls = append(urls, sitemapURL{Loc: base + views.TagURL(t.Tag), ChangeFreq: "weekly", Priority: "0.6"})
	}
	return sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
}

func (a *App) handleSitemap(c echo.Context) error {
	c.Set(routeKey, "sitemap")
	out, err := xml.MarshalIndent(a.sitemap(), "", "  ")
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), out...))
}
