// Package appleid drives the Sign in with Apple authorization-code flow.
//
// Apple requires the client secret to be a short ES256 JWT signed with the
// developer's private key, and returns an identity token whose claims name
// the signed-in account.
package appleid

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const (
	Issuer   = "https://appleid.apple.com"
	AuthURL  = "https://appleid.apple.com/auth/authorize"
	TokenURL = "https://appleid.apple.com/auth/token"
	KeysURL  = "https://appleid.apple.com/auth/keys"

	// clientSecretTTL is close to the six month maximum Apple accepts.
	clientSecretTTL = 15777000 * time.Second
)

// ErrInvalidPrivateKey is returned when the configured key is not a PKCS8
// encoded P-256 key.
var ErrInvalidPrivateKey = errors.New("appleid: invalid private key")

// Config identifies this application to Apple.
type Config struct {
	ClientID    string
	TeamID      string
	KeyID       string
	PrivateKey  string // PKCS8, PEM or bare base64
	RedirectURI string

	// AuthURL and TokenURL default to Apple's endpoints.
	AuthURL  string
	TokenURL string
}

func (c Config) authURL() string {
	if c.AuthURL != "" {
		return c.AuthURL
	}
	return AuthURL
}

func (c Config) tokenURL() string {
	if c.TokenURL != "" {
		return c.TokenURL
	}
	return TokenURL
}

func (c Config) oauth2(clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: clientSecret,
		RedirectURL:  c.RedirectURI,
		Scopes:       []string{"email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.authURL(),
			TokenURL:  c.tokenURL(),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthorizationURL returns the URL that starts a login bound to state.
func AuthorizationURL(cfg Config, state string) string {
	return cfg.oauth2("").AuthCodeURL(state, oauth2.SetAuthURLParam("response_mode", "form_post"))
}

// ClientSecret mints the ES256 client assertion Apple expects in place of a
// static secret.
func ClientSecret(cfg Config, now time.Time) (string, error) {
	key, err := parsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return "", err
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": cfg.TeamID,
		"iat": now.Unix(),
		"exp": now.Add(clientSecretTTL).Unix(),
		"aud": Issuer,
		"sub": cfg.ClientID,
	})
	token.Header["kid"] = cfg.KeyID
	return token.SignedString(key)
}

func parsePrivateKey(s string) (*ecdsa.PrivateKey, error) {
	var der []byte
	if block, _ := pem.Decode([]byte(s)); block != nil {
		der = block.Bytes
	} else {
		raw, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(s), ""))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
		}
		der = raw
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an ECDSA key", ErrInvalidPrivateKey)
	}
	return key, nil
}

// UpstreamError reports a non-2xx reply from Apple's token endpoint.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("appleid: token endpoint returned %d: %s", e.Status, e.Body)
}

// TokenResponse holds the tokens returned by a successful code exchange.
type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
}

// Client exchanges authorization codes for tokens.
type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

// NewClient returns a Client that uses httpClient for the token request.
// A nil httpClient uses one with a 10 second timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{cfg: cfg, http: httpClient, now: time.Now}
}

// Config returns the client configuration.
func (c *Client) Config() Config { return c.cfg }

// AuthorizationURL returns the URL that starts sign-in for state.
func (c *Client) AuthorizationURL(state string) string {
	return AuthorizationURL(c.cfg, state)
}

// Exchange trades code for tokens. Any non-2xx reply is returned as an
// *UpstreamError.
func (c *Client) Exchange(ctx context.Context, code string) (TokenResponse, error) {
	secret, err := ClientSecret(c.cfg, c.now())
	if err != nil {
		return TokenResponse{}, err
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	tok, err := c.cfg.oauth2(secret).Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return TokenResponse{}, &UpstreamError{Status: re.Response.StatusCode, Body: string(re.Body)}
		}
		return TokenResponse{}, fmt.Errorf("appleid: exchange code: %w", err)
	}
	idToken, _ := tok.Extra("id_token").(string)
	return TokenResponse{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		IDToken:      idToken,
	}, nil
}
