package blog

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sidsin/blog/appleid"
	"github.com/sidsin/blog/session"
	"github.com/sidsin/blog/views"
)

// adminEmailKey holds the authenticated admin email in the echo context.
const adminEmailKey = "adminEmail"

const loginPath = "/admin/login"

// AdminEmail returns the authenticated admin for c, or "".
func AdminEmail(c echo.Context) string {
	email, _ := c.Get(adminEmailKey).(string)
	return email
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (a *App) isAdminEmail(email string) bool {
	return email != "" && strings.EqualFold(email, a.Config.AdminEmail)
}

// requireAdmin gates the protected admin routes.
func (a *App) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		r := c.Request()

		if a.Config.BasicAuthPassword != "" && strings.HasPrefix(r.Header.Get(echo.HeaderAuthorization), "Basic ") {
			user, pass, ok := r.BasicAuth()
			if ok && constantTimeEqual(user, a.Config.BasicAuthUser) && constantTimeEqual(pass, a.Config.BasicAuthPassword) {
				c.Set(adminEmailKey, a.Config.AdminEmail)
				return next(c)
			}
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Basic realm="Admin"`)
			return c.String(http.StatusUnauthorized, "Unauthorized")
		}

		s, ok := session.FromRequest(r, a.Config.SessionSecret, a.now())
		if !ok {
			if r.Header.Get("HX-Request") == "true" {
				c.Response().Header().Set("HX-Location", loginPath)
				return c.NoContent(http.StatusOK)
			}
			return c.Redirect(http.StatusFound, loginPath)
		}
		if !a.isAdminEmail(s.Email) {
			zerolog.Ctx(r.Context()).Warn().Str("email", s.Email).Msg("session for non-admin account")
			return c.String(http.StatusForbidden, "Forbidden")
		}
		c.Set(adminEmailKey, s.Email)
		return next(c)
	}
}

func (a *App) handleLoginPage(c echo.Context) error {
	flash := popFlash(c)
	return Render(c, a.document(c, views.Meta{Title: "Sign in"}, views.AdminLogin(flash, CsrfToken(c))))
}

// handleLogin starts the Apple authorization flow with a fresh state.
func (a *App) handleLogin(c echo.Context) error {
	if !a.limiter.Allow(c.RealIP()) {
		a.metrics.login("throttled")
		a.audit(c, ActionLoginFailure, "", "rate limited")
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	state := session.NewState()
	c.SetCookie(session.StateCookie(session.StateValue(a.Config.SessionSecret, state)))
	return c.Redirect(http.StatusFound, a.identity.AuthorizationURL(state))
}

// loginFailed sends the browser back to the login page with msg.
func (a *App) loginFailed(c echo.Context, msg, reason string) error {
	a.metrics.login("failed")
	a.audit(c, ActionLoginFailure, "", reason)
	setFlash(c, msg)
	return c.Redirect(http.StatusFound, loginPath)
}

// handleCallback completes sign-in. Apple posts the authorization result
// here as a form.
func (a *App) handleCallback(c echo.Context) error {
	ctx := c.Request().Context()
	log := zerolog.Ctx(ctx)
	c.SetCookie(session.ClearStateCookie())

	if e := c.FormValue("error"); e != "" {
		return a.loginFailed(c, "Sign in was cancelled", "provider error: "+e)
	}

	stored, err := c.Cookie(session.StateCookieName)
	if err != nil || !session.VerifyState(a.Config.SessionSecret, stored.Value, c.FormValue("state")) {
		return a.loginFailed(c, "Invalid login state", "state mismatch")
	}

	code := c.FormValue("code")
	if code == "" {
		return a.loginFailed(c, "Missing authorization code", "missing code")
	}
	tok, err := a.identity.Exchange(ctx, code)
	if err != nil {
		log.Error().Err(err).Msg("token exchange")
		return a.loginFailed(c, "Sign in failed", "token exchange failed")
	}
	if tok.IDToken == "" {
		return a.loginFailed(c, "Sign in failed", "no id token")
	}

	if err := a.keys.Verify(ctx, tok.IDToken); err != nil {
		log.Warn().Err(err).Msg("identity token signature")
		return a.loginFailed(c, "Invalid identity token", "bad signature")
	}
	claims, err := appleid.ParseIdentityClaims(tok.IDToken, a.Config.Apple.ClientID, a.now())
	if err != nil {
		log.Warn().Err(err).Msg("identity token claims")
		return a.loginFailed(c, "Invalid identity token", err.Error())
	}
	email, ok := appleid.ExtractVerifiedEmail(claims)
	if !ok {
		return a.loginFailed(c, "Email not verified", "unverified email")
	}

	if !a.isAdminEmail(email) {
		a.metrics.login("forbidden")
		a.audit(c, ActionLoginFailure, email, "not the admin account")
		return c.String(http.StatusForbidden, "Forbidden")
	}

	token, err := session.Encode(a.Config.SessionSecret, session.New(email, a.now()))
	if err != nil {
		return err
	}
	c.SetCookie(session.Cookie(token))
	c.SetCookie(session.LoginFlagCookie())
	a.metrics.login("success")
	a.audit(c, ActionLoginSuccess, email, "")
	log.Info().Str("email", email).Msg("admin signed in")
	return c.Redirect(http.StatusFound, "/admin")
}

// handleLogout clears every auth cookie. It never fails.
func (a *App) handleLogout(c echo.Context) error {
	actor := ""
	if s, ok := session.FromRequest(c.Request(), a.Config.SessionSecret, a.now()); ok {
		actor = s.Email
	}
	c.SetCookie(session.ClearCookie())
	c.SetCookie(session.ClearStateCookie())
	c.SetCookie(session.ClearLoginFlagCookie())
	a.audit(c, ActionLogout, actor, "")
	return c.Redirect(http.StatusFound, "/")
}

// audit records an admin event. Failures are logged and never block the
// request.
func (a *App) audit(c echo.Context, action, actor, detail string) {
	if a.Store == nil {
		return
	}
	_, err := a.Store.Record(c.Request().Context(), AuditEvent{
		At:     a.now(),
		Action: action,
		Actor:  actor,
		IP:     c.RealIP(),
		Detail: detail,
	})
	if err != nil {
		zerolog.Ctx(c.Request().Context()).Warn().Err(err).Str("action", action).Msg("audit")
	}
}
