// Package blog serves a personal blog from an in-memory Markdown index and
// provides an admin area, gated by Sign in with Apple, that commits new
// posts and draft publications to the content repository on GitHub.
package blog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sidsin/blog/appleid"
	"github.com/sidsin/blog/content"
	"github.com/sidsin/blog/contentrepo"
)

// contentRepoPrefix is where the content directory lives in the repository.
const contentRepoPrefix = "content"

// App is the site application. It wires together the content index, the
// content repository, the identity provider, handlers and middleware.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Content *content.Index
	Repo    *contentrepo.Client
	Store   *Store
	Log     zerolog.Logger

	identity   IdentityProvider
	keys       TokenVerifier
	httpClient *http.Client
	limiter    *LoginLimiter
	metrics    *Metrics
	pages      []pageRoute
	version    string
	versionSet bool
	now        func() time.Time
}

// Option configures additional App behavior.
type Option func(*App)

// WithContent serves idx instead of loading Config.ContentDir.
func WithContent(idx *content.Index) Option {
	return func(a *App) { a.Content = idx }
}

// WithRepository sets the content repository client.
func WithRepository(repo *contentrepo.Client) Option {
	return func(a *App) { a.Repo = repo }
}

// WithIdentityProvider replaces the Apple client and key set.
func WithIdentityProvider(p IdentityProvider, v TokenVerifier) Option {
	return func(a *App) {
		a.identity = p
		a.keys = v
	}
}

// WithHTTPClient sets the client used for link metadata and readiness
// checks.
func WithHTTPClient(c *http.Client) Option {
	return func(a *App) { a.httpClient = c }
}

// WithLogger sets the application logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *App) { a.Log = l }
}

// WithStore sets the audit store.
func WithStore(s *Store) Option {
	return func(a *App) { a.Store = s }
}

// WithVersion pins the content version used for ETags. An empty version
// disables ETags.
func WithVersion(v string) Option {
	return func(a *App) {
		a.version = v
		a.versionSet = true
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// New validates cfg, loads content and builds the HTTP handler.
func New(cfg SiteConfig, opts ...Option) (*App, error) {
	cfg.setDefaults()
	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.Config.Validate(); err != nil {
		return nil, fmt.Errorf("blog: %w", err)
	}

	if a.Content == nil {
		idx, err := content.Load(os.DirFS(a.Config.ContentDir), contentRepoPrefix)
		if err != nil {
			return nil, fmt.Errorf("blog: load content: %w", err)
		}
		a.Content = idx
	}
	if !a.versionSet {
		a.version = a.Config.ContentVersion
		if a.version == "" {
			a.version = content.Version()
		}
	}
	if a.Repo == nil {
		gh := a.Config.GitHub
		a.Repo = contentrepo.NewClient(gh.Owner, gh.Repo, gh.Branch, gh.Token)
	}
	if a.identity == nil {
		a.identity = appleid.NewClient(a.Config.Apple, nil)
	}
	if a.keys == nil {
		a.keys = appleid.NewKeySet(appleid.KeysURL, nil)
	}
	if a.httpClient == nil {
		a.httpClient = newFetchClient()
	}
	if a.Store == nil && a.Config.AuditDB != "" {
		store, err := NewStore(a.Config.AuditDB)
		if err != nil {
			return nil, fmt.Errorf("blog: init audit store: %w", err)
		}
		a.Store = store
	}

	a.limiter = NewLoginLimiter(a.Config.LoginAttempts, a.Config.LoginWindow)
	a.metrics = NewMetrics()
	a.pages = a.pageRoutes()
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	a.setupMiddleware()
	a.setupRoutes()

	a.Log.Info().
		Int("posts", len(a.Content.Posts())).
		Int("drafts", len(a.Content.Drafts())).
		Str("version", a.version).
		Msg("content loaded")
	return a, nil
}

// Handler returns the application as an http.Handler.
func (a *App) Handler() http.Handler {
	return a.Echo
}

// Start serves on Config.Addr until ctx is done, then shuts down gracefully.
func (a *App) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Echo,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      3 * time.Minute, // publish with wait polls for up to two minutes
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    16 * 1024,
	}
	errc := make(chan error, 1)
	go func() {
		a.Log.Info().Str("addr", a.Config.Addr).Msg("starting server")
		errc <- a.Echo.StartServer(srv)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.Log.Info().Msg("shutting down")
	return a.Echo.Shutdown(shutdownCtx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/metrics", echo.WrapHandler(a.metrics.Handler()))
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/api/posts/:slug/status", a.handlePostStatus)

	e.Any("/link-log", legacyRedirect("/admin/link-log"))
	e.Any("/api/link-log", legacyRedirect("/admin/api/link-log"))
	e.Any("/api/link-log/metadata", legacyRedirect("/admin/api/link-log/metadata"))

	admin := e.Group("/admin")
	admin.GET("/login", a.handleLoginPage)
	admin.POST("/login", a.handleLogin)
	admin.POST("/callback", a.handleCallback)
	admin.POST("/logout", a.handleLogout)

	protected := admin.Group("", a.requireAdmin)
	protected.GET("", a.handleDashboard)
	protected.GET("/note", a.handleNotePage)
	protected.GET("/link-log", a.handleLinkLogPage)

	api := protected.Group("/api", crossOriginProtection())
	api.POST("/note", a.handleCreateNote)
	api.POST("/link-log", a.handleCreateLinkLog)
	api.GET("/link-log/metadata", a.handleLinkLogMetadata)
	api.POST("/publish", a.handlePublish)

	e.GET("/*", a.handlePages)
	e.HEAD("/*", a.handlePages)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
