package blog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sidsin/blog/contentrepo"
	"github.com/sidsin/blog/views"
)

const dashboardActivity = 20

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func (a *App) handleDashboard(c echo.Context) error {
	var activity []views.Activity
	if a.Store != nil {
		events, err := a.Store.RecentEvents(c.Request().Context(), dashboardActivity)
		if err != nil {
			zerolog.Ctx(c.Request().Context()).Warn().Err(err).Msg("load audit events")
		}
		for _, ev := range events {
			activity = append(activity, views.Activity{When: ev.At, Action: ev.Action, Actor: ev.Actor, Detail: ev.Detail})
		}
	}
	body := views.AdminDashboard(AdminEmail(c), a.Content.Drafts(), activity, CsrfToken(c))
	return Render(c, a.document(c, views.Meta{Title: "Admin", Description: "Admin dashboard"}, body))
}

func (a *App) handleNotePage(c echo.Context) error {
	meta := views.Meta{Title: "New Note", Description: "Create a new note"}
	return Render(c, a.document(c, meta, views.AdminNote(a.Content.Tags())))
}

func (a *App) handleLinkLogPage(c echo.Context) error {
	meta := views.Meta{Title: "New Link Log", Description: "Create a link log entry"}
	return Render(c, a.document(c, meta, views.AdminLinkLog(a.Content.Tags())))
}

// postPayload is the JSON body accepted by the note and link log APIs.
type postPayload struct {
	URL         string           `json:"url"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Tags        contentrepo.Tags `json:"tags"`
	Content     string           `json:"content"`
	Draft       bool             `json:"draft"`
}

type createdPost struct {
	Path string `json:"path"`
	Slug string `json:"slug"`
	Date string `json:"date"`
}

func (a *App) handleCreateNote(c echo.Context) error {
	return a.createPost(c, "note", func(p postPayload) string {
		if strings.TrimSpace(p.Title) == "" {
			return "Missing title"
		}
		return ""
	})
}

func (a *App) handleCreateLinkLog(c echo.Context) error {
	return a.createPost(c, "link_log", func(p postPayload) string {
		if strings.TrimSpace(p.URL) == "" || strings.TrimSpace(p.Title) == "" {
			return "Missing url or title"
		}
		return ""
	})
}

// createPost commits a new post built from the request body. validate
// returns the client error message for an unusable payload.
func (a *App) createPost(c echo.Context, kind string, validate func(postPayload) string) error {
	ctx := c.Request().Context()
	if !a.Repo.Configured() {
		return c.JSON(http.StatusInternalServerError, errorBody("Missing GitHub configuration"))
	}

	var p postPayload
	if err := c.Echo().JSONSerializer.Deserialize(c, &p); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid JSON body"))
	}
	if msg := validate(p); msg != "" {
		return c.JSON(http.StatusBadRequest, errorBody(msg))
	}
	title := strings.TrimSpace(p.Title)
	slug := contentrepo.Slugify(title)
	if slug == "" {
		return c.JSON(http.StatusBadRequest, errorBody("Title has no usable characters"))
	}

	now := a.now().UTC()
	date := now.Format("2006-01-02")
	doc := contentrepo.BuildPostMarkdown(contentrepo.NewPost{
		Title:       title,
		Slug:        slug,
		Date:        date,
		Description: strings.TrimSpace(p.Description),
		Tags:        p.Tags,
		Link:        strings.TrimSpace(p.URL),
		Content:     p.Content,
		Draft:       p.Draft,
	})

	message, committer := "Add note: "+title, contentrepo.AdminCommitter
	if kind == "link_log" {
		message, committer = "Add link log: "+title, contentrepo.LinkLogCommitter
	}
	path, err := a.Repo.CreateFile(ctx, contentrepo.PostPath(now, slug), doc, message, committer)
	a.metrics.commit(kind, err)
	if err != nil {
		if errors.Is(err, contentrepo.ErrNotConfigured) {
			return c.JSON(http.StatusInternalServerError, errorBody("Missing GitHub configuration"))
		}
		return c.JSON(http.StatusBadGateway, errorBody("Failed to create post"))
	}

	a.audit(c, ActionCreatePost, AdminEmail(c), path)
	zerolog.Ctx(ctx).Info().Str("kind", kind).Str("path", path).Msg("post created")
	return c.JSON(http.StatusOK, createdPost{Path: path, Slug: slug, Date: date})
}

func (a *App) handleLinkLogMetadata(c echo.Context) error {
	target := c.QueryParam("url")
	if target == "" {
		return c.JSON(http.StatusBadRequest, errorBody("Missing url parameter"))
	}
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid url parameter"))
	}
	page, err := a.fetchPage(c.Request().Context(), u.String())
	if err != nil {
		zerolog.Ctx(c.Request().Context()).Warn().Err(err).Str("url", target).Msg("fetch link metadata")
		return c.JSON(http.StatusBadGateway, errorBody("Failed to fetch URL"))
	}
	var title *string
	if t, ok := extractTitle(page); ok {
		title = &t
	}
	return c.JSON(http.StatusOK, map[string]*string{"title": title})
}

// flexBool accepts true, "true", "1" and "on" from JSON bodies and forms.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = flexBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("wait must be a boolean")
	}
	return b.UnmarshalParam(s)
}

func (b *flexBool) UnmarshalParam(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on":
		*b = true
		return nil
	case "":
		*b = false
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("wait must be a boolean")
	}
	*b = flexBool(v)
	return nil
}

type publishRequest struct {
	Slug string   `json:"slug" form:"slug"`
	Wait flexBool `json:"wait" form:"wait"`
}

type publishResult struct {
	Slug      string `json:"slug"`
	Published bool   `json:"published"`
	Live      *bool  `json:"live,omitempty"`
	Message   string `json:"message,omitempty"`
}

func (a *App) lookupDraft(slug string) (contentrepo.Draft, bool) {
	p, ok := a.Content.Post(slug)
	if !ok {
		return contentrepo.Draft{}, false
	}
	return contentrepo.Draft{Slug: p.Slug, Title: p.Title, Draft: p.Draft, SourcePath: p.SourcePath}, true
}

// handlePublish flips a draft to published in the content repository and,
// when asked to wait, polls the live site until the post is served.
func (a *App) handlePublish(c echo.Context) error {
	ctx := c.Request().Context()
	var req publishRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid request body"))
	}
	req.Slug = strings.TrimSpace(req.Slug)
	if req.Slug == "" {
		return c.JSON(http.StatusBadRequest, errorBody("Missing slug"))
	}

	err := a.Repo.PublishDraft(ctx, a.lookupDraft, req.Slug)
	a.metrics.commit("publish", err)
	switch {
	case err == nil:
	case errors.Is(err, contentrepo.ErrDraftNotFound):
		return c.JSON(http.StatusNotFound, errorBody("draft not found"))
	case errors.Is(err, contentrepo.ErrDraftFlagNotFound):
		return c.JSON(http.StatusUnprocessableEntity, errorBody("draft flag not found"))
	case errors.Is(err, contentrepo.ErrConflict):
		return c.JSON(http.StatusConflict, errorBody("draft changed upstream, reload and retry"))
	case errors.Is(err, contentrepo.ErrNotConfigured):
		return c.JSON(http.StatusInternalServerError, errorBody("Missing GitHub configuration"))
	default:
		zerolog.Ctx(ctx).Error().Err(err).Str("slug", req.Slug).Msg("publish")
		return c.JSON(http.StatusBadGateway, errorBody("Failed to publish draft"))
	}
	a.audit(c, ActionPublish, AdminEmail(c), req.Slug)

	res := publishResult{Slug: req.Slug, Published: true}
	if req.Wait {
		live := true
		res.Message = "Post is live"
		err := contentrepo.WaitForLive(ctx, a.liveCheck(req.Slug), a.Config.PublishPollInterval, a.Config.PublishPollCeiling)
		if err != nil {
			live = false
			res.Message = "Published, but the site is not serving it yet"
			zerolog.Ctx(ctx).Warn().Err(err).Str("slug", req.Slug).Msg("wait for live")
		}
		res.Live = &live
	}
	return c.JSON(http.StatusOK, res)
}

// liveCheck asks the deployed site whether slug is served as published.
func (a *App) liveCheck(slug string) contentrepo.LiveCheck {
	statusURL := a.Config.URL + "/api/posts/" + url.PathEscape(slug) + "/status"
	return func(ctx context.Context) (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
		if err != nil {
			return false, err
		}
		req.Header.Set("Cache-Control", "no-cache")
		resp, err := a.httpClient.Do(req)
		if err != nil {
			return false, err
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		if resp.StatusCode != http.StatusOK {
			return false, fmt.Errorf("status check: %s", resp.Status)
		}
		var st postStatus
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			return false, err
		}
		return !st.Draft, nil
	}
}
