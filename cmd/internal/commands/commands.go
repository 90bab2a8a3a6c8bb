// Package commands holds the kong commands shared by the site binaries.
package commands

import (
	"context"
	"fmt"

	"github.com/sidsin/blog"
	"github.com/sidsin/blog/appleid"
	"github.com/sidsin/blog/secret"
)

type Globals struct {
	Dev     bool
	Version string
}

// SiteFlags maps the site configuration onto flags and environment
// variables.
type SiteFlags struct {
	SiteName        string `help:"site name" env:"SITE_NAME"`
	SiteURL         string `help:"canonical site origin" default:"http://localhost:3000" env:"SITE_URL"`
	SiteDescription string `help:"site description for feeds and meta tags" env:"SITE_DESCRIPTION"`
	SiteAuthor      string `help:"author name" env:"SITE_AUTHOR"`
	ContentDir      string `help:"directory holding posts/ and pages/" default:"content" env:"CONTENT_DIR"`
	ContentVersion  string `help:"content version used for ETags, defaults to the build revision" env:"CONTENT_VERSION"`
	AuditDB         string `help:"SQLite file for the admin audit log" env:"AUDIT_DB"`

	AdminEmail    string `help:"the admin account email" env:"ADMIN_EMAIL"`
	SessionSecret string `help:"HMAC key for session cookies" env:"SESSION_SECRET"`

	AppleClientID    string `help:"Sign in with Apple services ID" env:"APPLE_CLIENT_ID"`
	AppleTeamID      string `help:"Apple developer team ID" env:"APPLE_TEAM_ID"`
	AppleKeyID       string `help:"Apple signing key ID" env:"APPLE_KEY_ID"`
	ApplePrivateKey  string `help:"Apple signing key (PKCS8 PEM or base64)" env:"APPLE_PRIVATE_KEY"`
	AppleRedirectURI string `help:"registered callback URL" env:"APPLE_REDIRECT_URI"`

	GitHubOwner  string `name:"github-owner" help:"content repository owner" env:"GITHUB_OWNER"`
	GitHubRepo   string `name:"github-repo" help:"content repository name" env:"GITHUB_REPO"`
	GitHubBranch string `name:"github-branch" help:"content repository branch" default:"main" env:"GITHUB_BRANCH"`
	GitHubToken  string `name:"github-token" help:"token with contents write access" env:"GITHUB_TOKEN"`

	BasicAuthUser     string `help:"legacy basic auth user" default:"sid" env:"BASIC_AUTH_USER"`
	BasicAuthPassword string `help:"legacy basic auth password, empty disables basic auth" env:"BASIC_AUTH_PASSWORD"`

	SecretsPrefix string `help:"SSM parameter path holding secrets, empty reads secrets from the environment only" env:"SECRETS_PREFIX"`
}

// resolver picks where unset secrets come from.
func (f *SiteFlags) resolver(ctx context.Context) (secret.Resolver, error) {
	if f.SecretsPrefix == "" {
		return secret.NewEnvResolver(), nil
	}
	return secret.NewSSMResolverFromEnv(ctx, f.SecretsPrefix)
}

// Config resolves secrets and returns the site configuration.
func (f *SiteFlags) Config(ctx context.Context, dev bool) (blog.SiteConfig, error) {
	r, err := f.resolver(ctx)
	if err != nil {
		return blog.SiteConfig{}, err
	}
	return f.config(ctx, r, dev)
}

func (f *SiteFlags) config(ctx context.Context, r secret.Resolver, dev bool) (blog.SiteConfig, error) {
	err := secret.Fill(ctx, r, map[string]*string{
		"session-secret":      &f.SessionSecret,
		"apple-private-key":   &f.ApplePrivateKey,
		"github-token":        &f.GitHubToken,
		"basic-auth-password": &f.BasicAuthPassword,
	})
	if err != nil {
		return blog.SiteConfig{}, fmt.Errorf("resolve secrets: %w", err)
	}
	return blog.SiteConfig{
		Name:           f.SiteName,
		URL:            f.SiteURL,
		Description:    f.SiteDescription,
		Author:         f.SiteAuthor,
		ContentDir:     f.ContentDir,
		ContentVersion: f.ContentVersion,
		AuditDB:        f.AuditDB,
		AdminEmail:     f.AdminEmail,
		SessionSecret:  f.SessionSecret,
		Apple: appleid.Config{
			ClientID:    f.AppleClientID,
			TeamID:      f.AppleTeamID,
			KeyID:       f.AppleKeyID,
			PrivateKey:  f.ApplePrivateKey,
			RedirectURI: f.AppleRedirectURI,
		},
		GitHub: blog.GitHubConfig{
			Owner:  f.GitHubOwner,
			Repo:   f.GitHubRepo,
			Branch: f.GitHubBranch,
			Token:  f.GitHubToken,
		},
		BasicAuthUser:     f.BasicAuthUser,
		BasicAuthPassword: f.BasicAuthPassword,
		Dev:               dev,
	}, nil
}
