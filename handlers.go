package blog

import (
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sidsin/blog/content"
	"github.com/sidsin/blog/feed"
	"github.com/sidsin/blog/session"
	"github.com/sidsin/blog/views"
)

const recentPostsOnPost = 5

var (
	reTagFeed   = regexp.MustCompile(`(?i)^/tags/([a-z0-9-]+)/feed\.xml$`)
	reTagAtom   = regexp.MustCompile(`(?i)^/tags/([a-z0-9-]+)/feed\.atom$`)
	rePost      = regexp.MustCompile(`^/posts/([a-z0-9-]+)$`)
	reTag       = regexp.MustCompile(`(?i)^/tags/([a-z0-9-]+)$`)
	reStaticURL = regexp.MustCompile(`^/([a-z0-9-]+)$`)
)

// pageRoute serves a path when it recognises it. Returning false passes the
// request to the next route.
type pageRoute struct {
	name  string
	serve func(c echo.Context, path string) (bool, error)
}

func (a *App) pageRoutes() []pageRoute {
	return []pageRoute{
		{"feed_rss", a.serveMainRSS},
		{"feed_atom", a.serveMainAtom},
		{"tag_feed_rss", a.serveTagRSS},
		{"tag_feed_atom", a.serveTagAtom},
		{"home", a.serveHome},
		{"posts", a.servePosts},
		{"post", a.servePost},
		{"archive", a.serveArchive},
		{"tag", a.serveTag},
		{"page", a.serveStaticPage},
	}
}

// handlePages runs the public route table. The first route that serves
// the path wins; nothing matching is a 404.
func (a *App) handlePages(c echo.Context) error {
	path := c.Request().URL.Path
	if target, ok := legacyFilterRedirect(c); ok {
		return c.Redirect(http.StatusMovedPermanently, target)
	}
	for _, r := range a.pages {
		served, err := r.serve(c, path)
		if served || err != nil {
			c.Set(routeKey, r.name)
			return err
		}
	}
	c.Set(routeKey, "not_found")
	return echo.ErrNotFound
}

// legacyFilterRedirect rewrites retired ?type= values on filterable
// listings. The other query parameters keep their order and encoding.
func legacyFilterRedirect(c echo.Context) (string, bool) {
	q := c.QueryParams()
	typ, ok := content.LegacyType(q.Get("type"))
	if !ok {
		return "", false
	}
	path := c.Request().URL.Path
	if path != "/" && path != "/posts" && path != "/archive" && !reTag.MatchString(path) {
		return "", false
	}
	return path + "?" + replaceQueryParam(c.Request().URL.RawQuery, "type", string(typ)), true
}

// replaceQueryParam sets the first key parameter in raw to value in place
// and drops any later repeats of key.
func replaceQueryParam(raw, key, value string) string {
	parts := strings.Split(raw, "&")
	out := parts[:0]
	replaced := false
	for _, part := range parts {
		k, _, _ := strings.Cut(part, "=")
		if name, err := url.QueryUnescape(k); err == nil && name == key {
			if replaced {
				continue
			}
			part = k + "=" + url.QueryEscape(value)
			replaced = true
		}
		out = append(out, part)
	}
	return strings.Join(out, "&")
}

func (a *App) feedOptions(title, description, feedPath string) feed.Options {
	return feed.Options{
		Title:       title,
		Description: description,
		FeedURL:     a.Config.URL + feedPath,
		SiteURL:     a.Config.URL,
	}
}

func (a *App) serveRSS(c echo.Context, posts []content.Post, opts feed.Options) error {
	out, err := feed.RSS(posts, opts)
	if err != nil {
		return err
	}
	return a.serveCached(c, http.StatusOK, reprRSS, mimeRSS, []byte(out))
}

func (a *App) serveAtom(c echo.Context, posts []content.Post, opts feed.Options) error {
	out, err := feed.Atom(posts, opts)
	if err != nil {
		return err
	}
	return a.serveCached(c, http.StatusOK, reprAtom, mimeAtom, []byte(out))
}

func (a *App) serveMainRSS(c echo.Context, path string) (bool, error) {
	if path != "/posts/feed.xml" {
		return false, nil
	}
	return true, a.serveRSS(c, a.Content.Posts(), a.feedOptions(a.Config.Name, a.Config.Description, path))
}

func (a *App) serveMainAtom(c echo.Context, path string) (bool, error) {
	if path != "/posts/feed.atom" {
		return false, nil
	}
	return true, a.serveAtom(c, a.Content.Posts(), a.feedOptions(a.Config.Name, a.Config.Description, path))
}

func (a *App) tagFeed(re *regexp.Regexp, path string) (string, []content.Post, bool) {
	m := re.FindStringSubmatch(path)
	if m == nil {
		return "", nil, false
	}
	posts := a.Content.Tagged(m[1])
	return m[1], posts, len(posts) > 0
}

func (a *App) serveTagRSS(c echo.Context, path string) (bool, error) {
	tag, posts, ok := a.tagFeed(reTagFeed, path)
	if !ok {
		return false, nil
	}
	opts := a.feedOptions(a.Config.Name+" - "+tag, "Posts tagged "+tag, path)
	return true, a.serveRSS(c, posts, opts)
}

func (a *App) serveTagAtom(c echo.Context, path string) (bool, error) {
	tag, posts, ok := a.tagFeed(reTagAtom, path)
	if !ok {
		return false, nil
	}
	opts := a.feedOptions(a.Config.Name+" - "+tag, "Posts tagged "+tag, path)
	return true, a.serveAtom(c, posts, opts)
}

func (a *App) serveHome(c echo.Context, path string) (bool, error) {
	if path != "/" {
		return false, nil
	}
	page, ok := a.Content.Page("home")
	if !ok {
		return false, nil
	}
	filter := content.ParseFilter(c.QueryParams())
	recent := filter.Apply(a.Content.Posts())
	if len(recent) > content.PostsPerPage {
		recent = recent[:content.PostsPerPage]
	}
	if wantsList(c) {
		return true, a.renderList(c, views.CompactList(recent, filter), views.PostFilter("/", filter, true))
	}
	meta := views.Meta{
		Title:       page.Title,
		Description: page.Description,
		URL:         a.Config.URL + "/",
		JSONLD:      views.WebsiteJsonLD(a.site()),
	}
	return true, a.renderPage(c, http.StatusOK, meta, views.Home(page, recent, filter))
}

func (a *App) listing(c echo.Context, basePath string, posts []content.Post) views.Listing {
	filter := content.ParseFilter(c.QueryParams())
	items, pg := content.Paginate(filter.Apply(posts), content.PageNumber(c.QueryParams()), content.PostsPerPage)
	return views.Listing{Posts: items, Pagination: pg, BasePath: basePath, Filter: filter}
}

func (a *App) servePosts(c echo.Context, path string) (bool, error) {
	if path != "/posts" {
		return false, nil
	}
	l := a.listing(c, path, a.Content.Posts())
	if wantsList(c) {
		return true, a.renderList(c, views.PostCards(l), views.PostFilter(path, l.Filter, true))
	}
	meta := views.Meta{Title: "Posts", Description: "All blog posts", URL: a.Config.URL + path}
	return true, a.renderPage(c, http.StatusOK, meta, views.Posts(l))
}

func (a *App) servePost(c echo.Context, path string) (bool, error) {
	m := rePost.FindStringSubmatch(path)
	if m == nil {
		return false, nil
	}
	post, ok := a.Content.Post(m[1])
	if !ok {
		return false, nil
	}

	currentTag := c.QueryParam("tag")
	pool := a.Content.Posts()
	if currentTag != "" && post.HasTag(currentTag) {
		pool = a.Content.Tagged(currentTag)
	} else {
		currentTag = ""
	}
	recent := make([]content.Post, 0, recentPostsOnPost)
	for _, p := range pool {
		if p.Slug == post.Slug {
			continue
		}
		recent = append(recent, p)
		if len(recent) == recentPostsOnPost {
			break
		}
	}

	if wantsList(c) {
		return true, a.renderList(c,
			views.CompactList(recent, content.FilterAll),
			views.TagFilter(views.PostURL(post.Slug), post.Tags, currentTag, true))
	}
	canPublish := post.Draft && session.HasLoginFlag(c.Request())
	if post.Draft {
		c.Set(loginVariantKey, canPublish)
	}
	meta := views.Meta{
		Title:       post.Title,
		Description: post.Description,
		URL:         a.Config.URL + views.PostURL(post.Slug),
		OGType:      "article",
		JSONLD:      views.BlogPostingJsonLD(a.site(), post),
	}
	return true, a.renderPage(c, http.StatusOK, meta, views.Post(post, recent, currentTag, canPublish))
}

func (a *App) serveArchive(c echo.Context, path string) (bool, error) {
	if path != "/archive" {
		return false, nil
	}
	filter := content.ParseFilter(c.QueryParams())
	posts := filter.Apply(a.Content.Posts())
	if wantsList(c) {
		return true, a.renderList(c, views.ArchiveList(posts, filter), views.PostFilter(path, filter, true))
	}
	meta := views.Meta{Title: "Archive", Description: "All posts by date", URL: a.Config.URL + path}
	return true, a.renderPage(c, http.StatusOK, meta, views.Archive(posts, a.Content.Tags(), filter))
}

func (a *App) serveTag(c echo.Context, path string) (bool, error) {
	m := reTag.FindStringSubmatch(path)
	if m == nil {
		return false, nil
	}
	tag := m[1]
	tagged := a.Content.Tagged(tag)
	if len(tagged) == 0 {
		return false, nil
	}
	l := a.listing(c, views.TagURL(tag), tagged)
	if wantsList(c) {
		return true, a.renderList(c, views.PostCards(l), views.PostFilter(l.BasePath, l.Filter, true))
	}
	meta := views.Meta{Title: "Tag: " + tag, Description: "Posts tagged " + tag, URL: a.Config.URL + l.BasePath}
	return true, a.renderPage(c, http.StatusOK, meta, views.Tag(tag, l))
}

func (a *App) serveStaticPage(c echo.Context, path string) (bool, error) {
	m := reStaticURL.FindStringSubmatch(path)
	if m == nil || m[1] == "home" {
		return false, nil
	}
	page, ok := a.Content.Page(m[1])
	if !ok {
		return false, nil
	}
	meta := views.Meta{Title: page.Title, Description: page.Description, URL: a.Config.URL + path}
	return true, a.renderPage(c, http.StatusOK, meta, views.Page(page))
}

type postStatus struct {
	Slug    string `json:"slug"`
	Draft   bool   `json:"draft"`
	Version string `json:"version"`
}

// handlePostStatus reports whether the deployed content has a post and
// whether it is still a draft.
func (a *App) handlePostStatus(c echo.Context) error {
	post, ok := a.Content.Post(c.Param("slug"))
	if !ok {
		return c.JSON(http.StatusNotFound, errorBody("not found"))
	}
	return c.JSON(http.StatusOK, postStatus{Slug: post.Slug, Draft: post.Draft, Version: a.version})
}

func legacyRedirect(target string) echo.HandlerFunc {
	return func(c echo.Context) error {
		if q := c.QueryString(); q != "" {
			return c.Redirect(http.StatusPermanentRedirect, target+"?"+q)
		}
		return c.Redirect(http.StatusPermanentRedirect, target)
	}
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}
	path := c.Request().URL.Path

	switch {
	case code == http.StatusNotFound && !strings.HasPrefix(path, "/admin/api/") && !strings.HasPrefix(path, "/api/"):
		meta := views.Meta{Title: "404"}
		if strings.HasPrefix(path, "/admin") {
			_ = RenderStatus(c, code, a.document(c, meta, views.NotFound()))
			return
		}
		if rerr := a.renderPage(c, code, meta, views.NotFound()); rerr != nil {
			zerolog.Ctx(c.Request().Context()).Error().Err(rerr).Msg("render 404")
		}
	case code >= http.StatusInternalServerError:
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Str("path", path).Msg("server error")
		c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
		c.Response().Header().Del("ETag")
		if strings.HasPrefix(path, "/admin/api/") {
			_ = c.JSON(code, errorBody("Internal server error"))
			return
		}
		_ = RenderStatus(c, code, a.document(c, views.Meta{Title: "Error"}, views.ServerError()))
	default:
		a.Echo.DefaultHTTPErrorHandler(err, c)
	}
}
