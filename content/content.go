// Package content parses the Markdown corpus of posts and pages and holds it
// in an immutable in-memory index.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sidsin/blog/markdown"
)

// PostType classifies a post for filtering and display.
type PostType string

const (
	Article PostType = "article"
	Note    PostType = "note"
	Link    PostType = "link"
)

const (
	excerptLength     = 150
	descriptionLength = 300
)

// ErrNoFrontMatter is returned for files that do not open with a "---" block.
var ErrNoFrontMatter = errors.New("content: missing front matter")

// Post is a parsed blog post.
type Post struct {
	Title       string
	Slug        string
	Date        string
	Description string
	Tags        []string
	Draft       bool
	Link        string
	Type        PostType
	// SourcePath is the repository path of the Markdown file.
	SourcePath string

	Body    string
	HTML    string
	Excerpt string
}

// Time parses the post date. Unparseable dates report ok == false.
func (p Post) Time() (t time.Time, ok bool) {
	return ParseDate(p.Date)
}

// HasTag reports whether the post carries tag.
func (p Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Page is a standalone page such as "about".
type Page struct {
	Slug        string
	Title       string
	Description string
	HTML        string
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate accepts the date formats used in front matter.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// rawString keeps the literal text of a scalar so unquoted dates are not
// turned into timestamps.
type rawString string

func (r *rawString) UnmarshalYAML(n *yaml.Node) error {
	*r = rawString(n.Value)
	return nil
}

type frontMatter struct {
	Title       string    `yaml:"title"`
	Slug        string    `yaml:"slug"`
	Date        rawString `yaml:"date"`
	Description string    `yaml:"description"`
	Tags        []string  `yaml:"tags"`
	Draft       bool      `yaml:"draft"`
	Link        string    `yaml:"link"`
}

// SplitFrontMatter separates the YAML block from the body.
func SplitFrontMatter(src []byte) (meta []byte, body string, err error) {
	src = bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(src, []byte("---\n")) {
		return nil, "", ErrNoFrontMatter
	}
	rest := src[len("---\n"):]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return nil, "", ErrNoFrontMatter
	}
	meta = rest[:end]
	after := rest[end+len("\n---"):]
	if i := bytes.IndexByte(after, '\n'); i >= 0 {
		after = after[i+1:]
	} else {
		after = nil
	}
	return meta, strings.TrimLeft(string(after), "\n"), nil
}

// ParsePost parses a post file. Only Article is taken from typ, since it
// follows from the file's location; other posts are Link when they carry a
// link and Note otherwise.
func ParsePost(src []byte, typ PostType) (Post, error) {
	meta, body, err := SplitFrontMatter(src)
	if err != nil {
		return Post{}, err
	}
	var fm frontMatter
	if err := yaml.Unmarshal(meta, &fm); err != nil {
		return Post{}, fmt.Errorf("content: parse front matter: %w", err)
	}
	rendered, err := markdown.Render(body)
	if err != nil {
		return Post{}, fmt.Errorf("content: render %q: %w", fm.Slug, err)
	}
	if typ != Article {
		typ = Note
		if fm.Link != "" {
			typ = Link
		}
	}
	desc := fm.Description
	if desc == "" {
		desc = markdown.DescriptionFromBody(body, descriptionLength)
	}
	tags := fm.Tags
	if tags == nil {
		tags = []string{}
	}
	return Post{
		Title:       fm.Title,
		Slug:        fm.Slug,
		Date:        string(fm.Date),
		Description: desc,
		Tags:        tags,
		Draft:       fm.Draft,
		Link:        fm.Link,
		Type:        typ,
		Body:        body,
		HTML:        rendered,
		Excerpt:     markdown.Excerpt(rendered, excerptLength),
	}, nil
}

// ParsePage parses a page file.
func ParsePage(src []byte, slug string) (Page, error) {
	meta, body, err := SplitFrontMatter(src)
	if err != nil {
		return Page{}, err
	}
	var fm frontMatter
	if err := yaml.Unmarshal(meta, &fm); err != nil {
		return Page{}, fmt.Errorf("content: parse front matter: %w", err)
	}
	rendered, err := markdown.Render(body)
	if err != nil {
		return Page{}, fmt.Errorf("content: render page %q: %w", slug, err)
	}
	return Page{
		Slug:        slug,
		Title:       fm.Title,
		Description: fm.Description,
		HTML:        rendered,
	}, nil
}
