package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sidsin/blog/content"
	"github.com/sidsin/blog/contentrepo"
)

// NewPostCmd writes a new post file in the content repository layout.
type NewPostCmd struct {
	Title       string   `arg:"" help:"post title"`
	Slug        string   `help:"slug, derived from the title when empty"`
	Date        string   `help:"publication date (YYYY-MM-DD), defaults to today"`
	Description string   `help:"post description"`
	Tags        []string `help:"comma separated tags"`
	Link        string   `help:"external URL for a link post"`
	Draft       bool     `help:"mark the post as a draft" default:"true" negatable:""`
	Root        string   `help:"repository root the post path is relative to, or - for stdout" default:"."`

	out io.Writer `kong:"-"`
}

// ErrPostExists is returned instead of overwriting an existing post.
var ErrPostExists = errors.New("post already exists")

func (n *NewPostCmd) Run(ctx context.Context, globals *Globals) error {
	slug := n.Slug
	if slug == "" {
		slug = contentrepo.Slugify(n.Title)
	}
	if slug == "" {
		return fmt.Errorf("cannot derive a slug from %q", n.Title)
	}
	date := time.Now().UTC()
	if n.Date != "" {
		d, ok := content.ParseDate(n.Date)
		if !ok {
			return fmt.Errorf("invalid date %q", n.Date)
		}
		date = d
	}

	doc := contentrepo.BuildPostMarkdown(contentrepo.NewPost{
		Title:       strings.TrimSpace(n.Title),
		Slug:        slug,
		Date:        date.Format("2006-01-02"),
		Description: n.Description,
		Tags:        contentrepo.NormalizeTags(n.Tags),
		Link:        n.Link,
		Draft:       n.Draft,
	})

	if n.Root == "-" {
		out := n.out
		if out == nil {
			out = os.Stdout
		}
		_, err := io.WriteString(out, doc)
		return err
	}

	path := filepath.Join(n.Root, filepath.FromSlash(contentrepo.PostPath(date, slug)))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", ErrPostExists, path)
	}
	if err != nil {
		return err
	}
	if _, err := io.WriteString(f, doc); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "created", path)
	return nil
}
