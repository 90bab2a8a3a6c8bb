package blog

import (
	"context"

	"github.com/sidsin/blog/appleid"
)

// IdentityProvider runs the authorization-code flow against Apple.
type IdentityProvider interface {
	AuthorizationURL(state string) string
	Exchange(ctx context.Context, code string) (appleid.TokenResponse, error)
}

// TokenVerifier checks an identity token's signature.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) error
}

var (
	_ IdentityProvider = (*appleid.Client)(nil)
	_ TokenVerifier    = (*appleid.KeySet)(nil)
)
