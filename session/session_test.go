package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-value"

func TestTokenRoundTrip(t *testing.T) {
	for _, payload := range []string{"", "x", `{"email":"a@b.c","exp":1}`, "üñï©ødé"} {
		got, ok := VerifyToken(secret, MakeToken(secret, payload))
		require.True(t, ok, payload)
		assert.Equal(t, payload, got)
	}
}

func TestTokenMutationFails(t *testing.T) {
	token := MakeToken(secret, `{"email":"admin@example.com","exp":4102444800}`)
	alphabet := "ABCabc012-_"
	for i := range token {
		if token[i] == '.' {
			continue
		}
		for _, r := range alphabet {
			if byte(r) == token[i] {
				continue
			}
			mutated := token[:i] + string(r) + token[i+1:]
			_, ok := VerifyToken(secret, mutated)
			assert.False(t, ok, "mutation at %d to %q verified", i, r)
			break
		}
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token := MakeToken(secret, "payload")
	_, ok := VerifyToken("another-secret", token)
	assert.False(t, ok)
}

func TestVerifyTokenMalformed(t *testing.T) {
	cases := []string{
		"",
		"nodot",
		"a.b.c",
		".sig",
		"payload.",
		"!!!." + Sign(secret, "!!!"),
	}
	for _, tc := range cases {
		_, ok := VerifyToken(secret, tc)
		assert.False(t, ok, tc)
	}
}

func TestSessionDecode(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	token, err := Encode(secret, New("admin@example.com", now))
	require.NoError(t, err)

	s, ok := Decode(secret, token, now)
	require.True(t, ok)
	assert.Equal(t, "admin@example.com", s.Email)
	assert.Equal(t, now.Add(MaxAge).Unix(), s.ExpiresAt)

	_, ok = Decode(secret, token, now.Add(MaxAge))
	assert.False(t, ok, "session at exact expiry must be rejected")

	_, ok = Decode("wrong", token, now)
	assert.False(t, ok)
}

func TestSessionDecodeRejectsBadPayloads(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cases := map[string]string{
		"not json":       "hello",
		"empty email":    `{"email":"","exp":4102444800}`,
		"numeric email":  `{"email":42,"exp":4102444800}`,
		"missing email":  `{"exp":4102444800}`,
		"expired":        `{"email":"a@b.c","exp":1}`,
		"missing expiry": `{"email":"a@b.c"}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := Decode(secret, MakeToken(secret, payload), now)
			assert.False(t, ok)
		})
	}
}

func TestVerifyState(t *testing.T) {
	state := NewState()
	value := StateValue(secret, state)

	assert.True(t, VerifyState(secret, value, state))
	assert.False(t, VerifyState(secret, value, NewState()), "different state")
	assert.False(t, VerifyState("wrong", value, state), "wrong secret")
	assert.False(t, VerifyState(secret, value, ""), "missing returned state")
	assert.False(t, VerifyState(secret, "", state), "missing cookie")
	assert.False(t, VerifyState(secret, state+".bad", state), "bad signature")
}

func TestNewStateIsRandom(t *testing.T) {
	a, b := NewState(), NewState()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
	assert.NotContains(t, a, "=")
}

func TestCookieAttributes(t *testing.T) {
	rec := httptest.NewRecorder()
	http.SetCookie(rec, Cookie("v"))
	http.SetCookie(rec, StateCookie("s"))
	http.SetCookie(rec, ClearCookie())
	http.SetCookie(rec, ClearStateCookie())

	headers := rec.Header().Values("Set-Cookie")
	require.Len(t, headers, 4)
	assert.Equal(t, "__session=v; Path=/admin; Max-Age=604800; HttpOnly; Secure; SameSite=Lax", headers[0])
	assert.Equal(t, "__oauth_state=s; Path=/admin; Max-Age=600; HttpOnly; Secure; SameSite=None", headers[1])
	assert.True(t, strings.HasPrefix(headers[2], "__session=; Path=/admin; Max-Age=0"))
	assert.True(t, strings.HasPrefix(headers[3], "__oauth_state=; Path=/admin; Max-Age=0"))
}

func TestFromRequest(t *testing.T) {
	now := time.Now()
	token, err := Encode(secret, New("admin@example.com", now))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	s, ok := FromRequest(req, secret, now)
	require.True(t, ok)
	assert.Equal(t, "admin@example.com", s.Email)

	_, ok = FromRequest(httptest.NewRequest(http.MethodGet, "/admin", nil), secret, now)
	assert.False(t, ok)
}
