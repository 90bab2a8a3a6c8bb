package blog

import (
	"bytes"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/sidsin/blog/views"
)

const (
	publicCacheControl  = "public, max-age=0, s-maxage=86400, must-revalidate"
	privateCacheControl = "private, no-cache"
	htmlVary            = "HX-Request, HX-History-Restore-Request, HX-Target"

	mimeRSS  = "application/rss+xml; charset=utf-8"
	mimeAtom = "application/atom+xml; charset=utf-8"
)

// Representations of a URL. Each gets its own ETag so a cache never serves
// a fragment for a full page load.
const (
	reprHTML    = "html"
	reprPartial = "partial"
	reprList    = "list"
	reprRSS     = "rss"
	reprAtom    = "atom"
)

// loginVariantKey is set on pages whose body depends on the admin login
// flag cookie. The value reports whether the admin variant was rendered.
const loginVariantKey = "loginVariant"

// etag returns the strong validator for repr, or "" when no content version
// is known.
func (a *App) etag(repr string) string {
	if a.version == "" {
		return ""
	}
	return `"` + a.version + "-" + repr + `"`
}

// serveCached writes body with the shared cache headers. A 200 whose ETag
// exactly matches If-None-Match becomes a bodiless 304 with the same
// headers. The admin variant of a page is private and has its own ETag.
func (a *App) serveCached(c echo.Context, status int, repr, contentType string, body []byte) error {
	h := c.Response().Header()
	h.Set(echo.HeaderCacheControl, publicCacheControl)
	vary := htmlVary
	admin, loginVariant := c.Get(loginVariantKey).(bool)
	if loginVariant {
		vary += ", Cookie"
	}
	switch repr {
	case reprHTML, reprPartial, reprList:
		h.Set(echo.HeaderVary, vary)
	}
	if admin {
		h.Set(echo.HeaderCacheControl, privateCacheControl)
		repr += "-admin"
	}
	if status == http.StatusOK {
		if tag := a.etag(repr); tag != "" {
			h.Set("ETag", tag)
			if c.Request().Header.Get("If-None-Match") == tag {
				return c.NoContent(http.StatusNotModified)
			}
		}
	}
	return c.Blob(status, contentType, body)
}

func renderBytes(c echo.Context, cmp templ.Component) ([]byte, error) {
	var buf bytes.Buffer
	if err := cmp.Render(c.Request().Context(), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderPage serves a full page or, for HTMX swaps, its partial.
func (a *App) renderPage(c echo.Context, status int, meta views.Meta, body templ.Component) error {
	repr := reprHTML
	if isPartial(c.Request()) {
		repr = reprPartial
	}
	out, err := renderBytes(c, a.document(c, meta, body))
	if err != nil {
		return err
	}
	return a.serveCached(c, status, repr, echo.MIMETextHTMLCharsetUTF8, out)
}

// renderList serves the posts-list fragment and its out-of-band filter.
func (a *App) renderList(c echo.Context, list, filter templ.Component) error {
	out, err := renderBytes(c, templ.Join(list, filter))
	if err != nil {
		return err
	}
	return a.serveCached(c, http.StatusOK, reprList, echo.MIMETextHTMLCharsetUTF8, out)
}

// wantsList reports whether the request targets only the posts list.
func wantsList(c echo.Context) bool {
	return c.Request().Header.Get("HX-Target") == "posts-list"
}
