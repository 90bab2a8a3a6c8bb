package appleid

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) (Config, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	return Config{
		ClientID:    "in.sids.web",
		TeamID:      "TEAM123",
		KeyID:       "KEY123",
		PrivateKey:  string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})),
		RedirectURI: "https://sids.in/admin/callback",
	}, key
}

func TestAuthorizationURL(t *testing.T) {
	cfg, _ := testConfig(t)
	raw := AuthorizationURL(cfg, "state-value")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "appleid.apple.com", u.Host)
	assert.Equal(t, "/auth/authorize", u.Path)

	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "form_post", q.Get("response_mode"))
	assert.Equal(t, "email", q.Get("scope"))
	assert.Equal(t, "in.sids.web", q.Get("client_id"))
	assert.Equal(t, "https://sids.in/admin/callback", q.Get("redirect_uri"))
	assert.Equal(t, "state-value", q.Get("state"))
}

func TestClientSecret(t *testing.T) {
	cfg, key := testConfig(t)
	now := time.Unix(1_700_000_000, 0)

	signed, err := ClientSecret(cfg, now)
	require.NoError(t, err)

	tok, err := jwt.Parse(signed, func(*jwt.Token) (any, error) { return &key.PublicKey, nil },
		jwt.WithValidMethods([]string{"ES256"}), jwt.WithoutClaimsValidation())
	require.NoError(t, err)
	assert.Equal(t, "KEY123", tok.Header["kid"])
	assert.Equal(t, "ES256", tok.Header["alg"])

	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, "TEAM123", claims["iss"])
	assert.Equal(t, "in.sids.web", claims["sub"])
	assert.Equal(t, "https://appleid.apple.com", claims["aud"])
	assert.EqualValues(t, now.Unix(), claims["iat"])
	assert.EqualValues(t, now.Unix()+15777000, claims["exp"])
}

func TestClientSecretAcceptsBareBase64Key(t *testing.T) {
	cfg, _ := testConfig(t)
	block, _ := pem.Decode([]byte(cfg.PrivateKey))
	cfg.PrivateKey = base64.StdEncoding.EncodeToString(block.Bytes)

	_, err := ClientSecret(cfg, time.Now())
	require.NoError(t, err)
}

func TestClientSecretInvalidKey(t *testing.T) {
	cfg, _ := testConfig(t)
	cfg.PrivateKey = "not a key"
	_, err := ClientSecret(cfg, time.Now())
	assert.ErrorIs(t, err, ErrInvalidPrivateKey)
}

func TestExchange(t *testing.T) {
	cfg, _ := testConfig(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "in.sids.web", r.PostForm.Get("client_id"))
		assert.Equal(t, "https://sids.in/admin/callback", r.PostForm.Get("redirect_uri"))
		assert.NotEmpty(t, r.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     "a.b.c",
		})
	}))
	defer srv.Close()

	cfg.TokenURL = srv.URL
	tok, err := NewClient(cfg, srv.Client()).Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", tok.IDToken)
	assert.Equal(t, "at", tok.AccessToken)
}

func TestExchangeUpstreamError(t *testing.T) {
	cfg, _ := testConfig(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	cfg.TokenURL = srv.URL
	_, err := NewClient(cfg, srv.Client()).Exchange(context.Background(), "bad")
	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusBadRequest, ue.Status)
	assert.Contains(t, ue.Body, "invalid_grant")
}

func idToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	s, err := tok.SignedString(key)
	require.NoError(t, err)
	return s
}

func TestParseIdentityClaims(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	now := time.Unix(1_700_000_000, 0)
	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"iss":            Issuer,
			"aud":            "in.sids.web",
			"exp":            now.Add(time.Minute).Unix(),
			"sub":            "000123.abc",
			"email":          "admin@example.com",
			"email_verified": true,
		}
	}

	claims, err := ParseIdentityClaims(idToken(t, key, "k1", base()), "in.sids.web", now)
	require.NoError(t, err)
	assert.Equal(t, "000123.abc", claims.Subject)

	tests := []struct {
		name   string
		token  string
		expect error
	}{
		{"two segments", "a.b", ErrInvalidFormat},
		{"four segments", "a.b.c.d", ErrInvalidFormat},
		{"garbage payload", "a.!!!.c", ErrInvalidFormat},
	}
	wrongIss := base()
	wrongIss["iss"] = "https://evil.example"
	tests = append(tests, struct {
		name   string
		token  string
		expect error
	}{"issuer", idToken(t, key, "k1", wrongIss), ErrInvalidIssuer})
	wrongAud := base()
	wrongAud["aud"] = "someone.else"
	tests = append(tests, struct {
		name   string
		token  string
		expect error
	}{"audience", idToken(t, key, "k1", wrongAud), ErrInvalidAudience})
	expired := base()
	expired["exp"] = now.Unix()
	tests = append(tests, struct {
		name   string
		token  string
		expect error
	}{"expired", idToken(t, key, "k1", expired), ErrExpired})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseIdentityClaims(tt.token, "in.sids.web", now)
			assert.ErrorIs(t, err, tt.expect)
		})
	}
}

func TestExtractVerifiedEmail(t *testing.T) {
	tests := []struct {
		verified any
		ok       bool
	}{
		{true, true},
		{"true", true},
		{false, false},
		{"false", false},
		{nil, false},
		{1, false},
	}
	for _, tt := range tests {
		email, ok := ExtractVerifiedEmail(&Claims{Email: "a@b.c", EmailVerified: tt.verified})
		assert.Equal(t, tt.ok, ok, "%v", tt.verified)
		if ok {
			assert.Equal(t, "a@b.c", email)
		}
	}
	_, ok := ExtractVerifiedEmail(&Claims{EmailVerified: true})
	assert.False(t, ok)
}

func jwksHandler(kid string, pub *rsa.PublicKey) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": kid,
				"alg": "RS256",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			}},
		})
	}
}

func jwksServer(t *testing.T, kid string, pub *rsa.PublicKey) *httptest.Server {
	t.Helper()
	return httptest.NewServer(jwksHandler(kid, pub))
}

func TestKeySetVerify(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	srv := jwksServer(t, "k1", &key.PublicKey)
	defer srv.Close()
	ks := NewKeySet(srv.URL, srv.Client())

	claims := jwt.MapClaims{"iss": Issuer, "aud": "x", "exp": time.Now().Add(time.Hour).Unix()}
	assert.NoError(t, ks.Verify(context.Background(), idToken(t, key, "k1", claims)))
	assert.ErrorIs(t, ks.Verify(context.Background(), idToken(t, other, "k1", claims)), ErrInvalidSignature)
	assert.ErrorIs(t, ks.Verify(context.Background(), idToken(t, key, "unknown", claims)), ErrInvalidSignature)
	assert.ErrorIs(t, ks.Verify(context.Background(), "a.b.c"), ErrInvalidSignature)
}

func TestKeySetConcurrentMissesShareOneFetch(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var hits atomic.Int32
	serve := jwksHandler("k1", &key.PublicKey)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(200 * time.Millisecond)
		serve(w, r)
	}))
	defer srv.Close()
	ks := NewKeySet(srv.URL, srv.Client())

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := ks.key(context.Background(), "k1")
			if assert.NoError(t, err) {
				assert.Equal(t, key.PublicKey.N, got.N)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), hits.Load())
}

func TestKeySetCachedLookupDuringRefresh(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	serve := jwksHandler("k1", &key.PublicKey)
	var calls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) > 1 {
			<-release
		}
		serve(w, r)
	}))
	defer srv.Close()
	ks := NewKeySet(srv.URL, srv.Client())

	_, err = ks.key(context.Background(), "k1")
	require.NoError(t, err)

	// An unknown kid triggers a refresh that hangs until released.
	refreshed := make(chan error, 1)
	go func() {
		_, err := ks.key(context.Background(), "rotated")
		refreshed <- err
	}()
	require.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := ks.key(context.Background(), "k1")
		assert.NoError(t, err)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("cached lookup blocked behind the JWKS refresh")
	}
	close(release)
	assert.Error(t, <-refreshed)
}
