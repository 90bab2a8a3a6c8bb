// Package contentrepo writes posts to the GitHub repository that is the
// system of record for site content.
package contentrepo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "https://api.github.com"
	DefaultBranch  = "main"
	userAgent      = "sids.in admin bot"
)

var (
	// ErrCreateFailed is returned when the repository rejects a new file.
	ErrCreateFailed = errors.New("failed to create post")
	// ErrConflict is returned when a write is based on a stale revision.
	ErrConflict = errors.New("content changed upstream")
	// ErrNotFound is returned when a file does not exist in the repository.
	ErrNotFound = errors.New("file not found")
	// ErrNotConfigured is returned when owner, repo or token is missing.
	ErrNotConfigured = errors.New("missing GitHub configuration")
)

// Committer is the identity recorded on commits.
type Committer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

var (
	LinkLogCommitter = Committer{Name: "Link Log Bot", Email: "link-log@users.noreply.github.com"}
	AdminCommitter   = Committer{Name: "Admin Bot", Email: "admin@users.noreply.github.com"}
)

// File is a repository file with the blob SHA that identifies its revision.
type File struct {
	Path    string
	Content string
	SHA     string
}

// Client talks to the GitHub contents API for one repository branch.
type Client struct {
	Owner   string
	Repo    string
	Branch  string
	Token   string
	BaseURL string
	HTTP    *http.Client
}

// NewClient returns a Client with defaults applied.
func NewClient(owner, repo, branch, token string) *Client {
	return &Client{
		Owner:  owner,
		Repo:   repo,
		Branch: branch,
		Token:  token,
	}
}

// Configured reports whether the client can make requests.
func (c *Client) Configured() bool {
	return c != nil && c.Owner != "" && c.Repo != "" && c.Token != ""
}

func (c *Client) branch() string {
	if c.Branch == "" {
		return DefaultBranch
	}
	return c.Branch
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return &http.Client{Timeout: 15 * time.Second}
	}
	return c.HTTP
}

// api returns a go-github client bound to this repository's credentials.
func (c *Client) api() (*github.Client, error) {
	gh := github.NewClient(c.httpClient()).WithAuthToken(c.Token)
	gh.UserAgent = userAgent
	if c.BaseURL != "" && c.BaseURL != DefaultBaseURL {
		u, err := url.Parse(strings.TrimRight(c.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github: base url: %w", err)
		}
		gh.BaseURL = u
	}
	return gh, nil
}

func (c *Client) fileOptions(content, sha, message string, committer Committer) *github.RepositoryContentFileOptions {
	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(message),
		Content: []byte(content),
		Branch:  github.Ptr(c.branch()),
		Committer: &github.CommitAuthor{
			Name:  github.Ptr(committer.Name),
			Email: github.Ptr(committer.Email),
		},
	}
	if sha != "" {
		opts.SHA = github.Ptr(sha)
	}
	return opts
}

// statusOf returns the HTTP status of a failed API call, or 0.
func statusOf(err error) int {
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return er.Response.StatusCode
	}
	return 0
}

// CreateFile commits a new file and returns its committed path. Provider
// errors are logged and reported as ErrCreateFailed.
func (c *Client) CreateFile(ctx context.Context, path, content, message string, committer Committer) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	gh, err := c.api()
	if err != nil {
		return "", err
	}
	res, _, err := gh.Repositories.CreateFile(ctx, c.Owner, c.Repo, path, c.fileOptions(content, "", message, committer))
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("path", path).Msg("create file")
		return "", fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}
	if p := res.GetContent().GetPath(); p != "" {
		return p, nil
	}
	return path, nil
}

// GetFile reads a file and its revision SHA from the configured branch.
func (c *Client) GetFile(ctx context.Context, path string) (File, error) {
	if !c.Configured() {
		return File{}, ErrNotConfigured
	}
	gh, err := c.api()
	if err != nil {
		return File{}, err
	}
	fc, _, _, err := gh.Repositories.GetContents(ctx, c.Owner, c.Repo, path,
		&github.RepositoryContentGetOptions{Ref: c.branch()})
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return File{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return File{}, fmt.Errorf("github: get %s: %w", path, err)
	}
	if fc == nil {
		return File{}, fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}
	raw, err := fc.GetContent()
	if err != nil {
		return File{}, fmt.Errorf("github: decode %s: %w", path, err)
	}
	return File{Path: path, Content: raw, SHA: fc.GetSHA()}, nil
}

// UpdateFile replaces a file. sha must be the revision that was read; a
// stale sha yields ErrConflict and nothing is retried.
func (c *Client) UpdateFile(ctx context.Context, path, content, sha, message string, committer Committer) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	gh, err := c.api()
	if err != nil {
		return err
	}
	_, _, err = gh.Repositories.UpdateFile(ctx, c.Owner, c.Repo, path, c.fileOptions(content, sha, message, committer))
	switch statusOf(err) {
	case http.StatusConflict, http.StatusPreconditionFailed:
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	if err != nil {
		return fmt.Errorf("github: update %s: %w", path, err)
	}
	return nil
}
