package contentrepo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
)

var (
	// ErrDraftNotFound is returned when the slug is not a known draft with a
	// source path.
	ErrDraftNotFound = errors.New("draft not found")
	// ErrDraftFlagNotFound is returned when the file has no "draft: true" line.
	ErrDraftFlagNotFound = errors.New("draft flag not found")
	// ErrNotLive is returned when a published post did not go live in time.
	ErrNotLive = errors.New("post is not live yet")
)

var (
	reDraftLine = regexp.MustCompile(`(?m)^draft: true$`)
	reDelimiter = regexp.MustCompile(`(?m)^---\r?$`)
)

// Draft is the stored metadata needed to publish a post.
type Draft struct {
	Slug       string
	Title      string
	Draft      bool
	SourcePath string
}

// DraftLookup finds the stored metadata for slug.
type DraftLookup func(slug string) (Draft, bool)

// PublishDraftFlag flips the draft line in a post file's front matter.
// Only the first "draft: true" line between the delimiters changes; the
// rest of the file is returned byte for byte.
func PublishDraftFlag(src string) (string, error) {
	delims := reDelimiter.FindAllStringIndex(src, 2)
	if len(delims) < 2 || delims[0][0] != 0 {
		return "", ErrDraftFlagNotFound
	}
	loc := reDraftLine.FindStringIndex(src[:delims[1][0]])
	if loc == nil {
		return "", ErrDraftFlagNotFound
	}
	return src[:loc[0]] + "draft: false" + src[loc[1]:], nil
}

// PublishDraft marks the draft identified by slug as published. The write
// carries the revision that was read, so a concurrent edit fails the
// publish with ErrConflict.
func (c *Client) PublishDraft(ctx context.Context, lookup DraftLookup, slug string) error {
	d, ok := lookup(slug)
	if !ok || !d.Draft || d.SourcePath == "" {
		return ErrDraftNotFound
	}
	f, err := c.GetFile(ctx, d.SourcePath)
	if err != nil {
		return fmt.Errorf("read draft %s: %w", slug, err)
	}
	updated, err := PublishDraftFlag(f.Content)
	if err != nil {
		return err
	}
	title := d.Title
	if title == "" {
		title = slug
	}
	if err := c.UpdateFile(ctx, d.SourcePath, updated, f.SHA, "Publish draft: "+title, AdminCommitter); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("slug", slug).Msg("publish draft")
		return err
	}
	return nil
}

// LiveCheck reports whether a published post is being served.
type LiveCheck func(ctx context.Context) (bool, error)

// WaitForLive polls check every interval until it reports true or ceiling
// elapses. Giving up returns ErrNotLive.
func WaitForLive(ctx context.Context, check LiveCheck, interval, ceiling time.Duration) error {
	_, err := backoff.Retry(ctx, func() (bool, error) {
		live, err := check(ctx)
		if err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Msg("readiness check")
			return false, err
		}
		if !live {
			return false, ErrNotLive
		}
		return true, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(interval)),
		backoff.WithMaxElapsedTime(ceiling),
	)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrNotLive, err)
	}
	return nil
}
