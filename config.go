package blog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sidsin/blog/appleid"
)

// GitHubConfig names the repository that stores site content.
type GitHubConfig struct {
	Owner  string
	Repo   string
	Branch string
	Token  string
}

// SiteConfig holds all configuration for the site.
type SiteConfig struct {
	Name        string // Site name (default "Sid's Blog")
	URL         string // Canonical origin (default "http://localhost:3000")
	Description string // Feed and meta description
	Author      string

	Addr       string // Listen address (default ":3000")
	ContentDir string // Directory holding posts/ and pages/ (default "content")
	AuditDB    string // SQLite path for the audit log; empty disables it

	AdminEmail    string // The one account allowed into /admin
	SessionSecret string // HMAC key for session and state cookies
	Apple         appleid.Config
	GitHub        GitHubConfig

	// Legacy Basic auth, enabled when BasicAuthPassword is set.
	BasicAuthUser     string // default "sid"
	BasicAuthPassword string

	ContentVersion string // ETag seed; defaults to the build revision
	Dev            bool

	LoginAttempts int           // per IP per LoginWindow (default 10)
	LoginWindow   time.Duration // default 1 minute

	PublishPollInterval time.Duration // default 5s
	PublishPollCeiling  time.Duration // default 2m
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Sid's Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimRight(c.URL, "/")
	if c.Description == "" {
		c.Description = "Posts from " + c.Name
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.ContentDir == "" {
		c.ContentDir = "content"
	}
	if c.BasicAuthUser == "" {
		c.BasicAuthUser = "sid"
	}
	if c.LoginAttempts == 0 {
		c.LoginAttempts = 10
	}
	if c.LoginWindow == 0 {
		c.LoginWindow = time.Minute
	}
	if c.PublishPollInterval == 0 {
		c.PublishPollInterval = 5 * time.Second
	}
	if c.PublishPollCeiling == 0 {
		c.PublishPollCeiling = 2 * time.Minute
	}
}

// ErrMissingConfig is returned by Validate.
var ErrMissingConfig = errors.New("missing required configuration")

// Validate reports the required auth settings that are unset.
func (c SiteConfig) Validate() error {
	required := []struct{ name, value string }{
		{"ADMIN_EMAIL", c.AdminEmail},
		{"SESSION_SECRET", c.SessionSecret},
		{"APPLE_CLIENT_ID", c.Apple.ClientID},
		{"APPLE_TEAM_ID", c.Apple.TeamID},
		{"APPLE_KEY_ID", c.Apple.KeyID},
		{"APPLE_PRIVATE_KEY", c.Apple.PrivateKey},
		{"APPLE_REDIRECT_URI", c.Apple.RedirectURI},
	}
	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}
