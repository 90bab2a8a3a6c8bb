package appleid

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidFormat is returned for identity tokens that are not three
	// dot-separated segments with a decodable payload.
	ErrInvalidFormat = errors.New("appleid: invalid ID token format")
	// ErrInvalidIssuer is returned when iss is not Apple.
	ErrInvalidIssuer = errors.New("appleid: invalid issuer")
	// ErrInvalidAudience is returned when aud is not this client.
	ErrInvalidAudience = errors.New("appleid: invalid audience")
	// ErrExpired is returned when exp is not in the future.
	ErrExpired = errors.New("appleid: ID token has expired")
)

// Claims are the identity token claims used for login.
type Claims struct {
	jwt.RegisteredClaims
	Email         string `json:"email,omitempty"`
	EmailVerified any    `json:"email_verified,omitempty"`
}

// ParseIdentityClaims decodes idToken and checks issuer, audience and expiry.
// It does not verify the signature; see KeySet.Verify.
func ParseIdentityClaims(idToken, clientID string, now time.Time) (*Claims, error) {
	if len(strings.Split(idToken, ".")) != 3 {
		return nil, ErrInvalidFormat
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, ErrInvalidFormat
	}
	if claims.Issuer != Issuer {
		return nil, ErrInvalidIssuer
	}
	if len(claims.Audience) != 1 || claims.Audience[0] != clientID {
		return nil, ErrInvalidAudience
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(now) {
		return nil, ErrExpired
	}
	return claims, nil
}

// ExtractVerifiedEmail returns the email claim when Apple marked it
// verified, either as a boolean or as the string "true".
func ExtractVerifiedEmail(c *Claims) (string, bool) {
	if c == nil || c.Email == "" {
		return "", false
	}
	switch v := c.EmailVerified.(type) {
	case bool:
		if v {
			return c.Email, true
		}
	case string:
		if v == "true" {
			return c.Email, true
		}
	}
	return "", false
}
