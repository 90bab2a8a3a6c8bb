package session

import (
	"crypto/rand"
	"encoding/json"
	"net/http"
	"time"
)

const (
	// CookieName holds the signed admin session.
	CookieName = "__session"
	// StateCookieName holds the signed OAuth state for one login attempt.
	StateCookieName = "__oauth_state"
	// LoginFlagCookieName marks a browser that has logged in. It grants nothing.
	LoginFlagCookieName = "__admin_login"

	// Path scopes the session and state cookies.
	Path = "/admin"

	MaxAge      = 7 * 24 * time.Hour
	StateMaxAge = 10 * time.Minute
)

// Session is the payload of the session cookie.
type Session struct {
	Email     string `json:"email"`
	ExpiresAt int64  `json:"exp"`
}

// New returns a session for email that expires MaxAge after now.
func New(email string, now time.Time) Session {
	return Session{Email: email, ExpiresAt: now.Add(MaxAge).Unix()}
}

// Encode serializes and signs s.
func Encode(secret string, s Session) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return MakeToken(secret, string(b)), nil
}

// Decode verifies token and returns the session it carries. The session must
// have a non-empty email and must not have expired at now.
func Decode(secret, token string, now time.Time) (Session, bool) {
	payload, ok := VerifyToken(secret, token)
	if !ok {
		return Session{}, false
	}
	var raw struct {
		Email any   `json:"email"`
		Exp   int64 `json:"exp"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return Session{}, false
	}
	email, _ := raw.Email.(string)
	if email == "" || raw.Exp <= now.Unix() {
		return Session{}, false
	}
	return Session{Email: email, ExpiresAt: raw.Exp}, true
}

// FromRequest reads and verifies the session cookie on r.
func FromRequest(r *http.Request, secret string, now time.Time) (Session, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return Session{}, false
	}
	return Decode(secret, c.Value, now)
}

// NewState returns a random 32 byte state value, base64url encoded.
func NewState() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return b64.EncodeToString(buf)
}

// StateValue returns the cookie value that binds state to this server.
func StateValue(secret, state string) string {
	return state + "." + Sign(secret, state)
}

// VerifyState reports whether cookieValue is a validly signed state equal to
// returned, the value echoed back by the identity provider.
func VerifyState(secret, cookieValue, returned string) bool {
	stored, sig, ok := splitToken(cookieValue)
	if !ok || returned == "" {
		return false
	}
	if !equal(Sign(secret, stored), sig) {
		return false
	}
	return equal(stored, returned)
}

// Cookie returns the session cookie for value.
func Cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     Path,
		MaxAge:   int(MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires the session cookie.
func ClearCookie() *http.Cookie {
	c := Cookie("")
	c.MaxAge = -1
	return c
}

// StateCookie returns the OAuth state cookie. SameSite=None lets the
// provider's cross-site form post carry it back.
func StateCookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     StateCookieName,
		Value:    value,
		Path:     Path,
		MaxAge:   int(StateMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

// ClearStateCookie expires the OAuth state cookie.
func ClearStateCookie() *http.Cookie {
	c := StateCookie("")
	c.MaxAge = -1
	return c
}

// LoginFlagCookie is readable site-wide so public pages can offer admin
// affordances such as publishing a draft.
func LoginFlagCookie() *http.Cookie {
	return &http.Cookie{
		Name:     LoginFlagCookieName,
		Value:    "1",
		Path:     "/",
		MaxAge:   int(MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearLoginFlagCookie expires the login flag.
func ClearLoginFlagCookie() *http.Cookie {
	c := LoginFlagCookie()
	c.Value = ""
	c.MaxAge = -1
	return c
}

// HasLoginFlag reports whether r carries the login flag cookie.
func HasLoginFlag(r *http.Request) bool {
	c, err := r.Cookie(LoginFlagCookieName)
	return err == nil && c.Value == "1"
}
