package contentrepo

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var reNonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases title and joins its alphanumeric runs with hyphens.
func Slugify(title string) string {
	return strings.Trim(reNonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

// PostPath returns the repository path for a post published on date.
func PostPath(date time.Time, slug string) string {
	d := date.UTC()
	return fmt.Sprintf("content/posts/%04d/%02d-%02d-%s.md", d.Year(), int(d.Month()), d.Day(), slug)
}

// Tags accepts either a JSON list or a comma separated string.
type Tags []string

func (t *Tags) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*t = NormalizeTags(list)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("tags must be a string or list of strings")
	}
	*t = NormalizeTags(strings.Split(s, ","))
	return nil
}

// NormalizeTags trims tags and drops empty ones.
func NormalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, tag := range in {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// NewPost is the input for a post created from the admin area.
type NewPost struct {
	Title       string
	Slug        string
	Date        string // YYYY-MM-DD
	Description string
	Tags        []string
	Link        string
	Content     string
	Draft       bool
}

func escapeYAML(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// BuildPostMarkdown renders p as a Markdown file with front matter. Keys
// are written in a fixed order and the draft line is always "draft: true"
// or "draft: false" on its own line.
func BuildPostMarkdown(p NewPost) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: \"%s\"\n", escapeYAML(p.Title))
	fmt.Fprintf(&b, "slug: \"%s\"\n", escapeYAML(p.Slug))
	fmt.Fprintf(&b, "date: \"%s\"\n", p.Date)
	if p.Description != "" {
		fmt.Fprintf(&b, "description: \"%s\"\n", escapeYAML(p.Description))
	}
	if len(p.Tags) == 0 {
		b.WriteString("tags: []\n")
	} else {
		quoted := make([]string, len(p.Tags))
		for i, t := range p.Tags {
			quoted[i] = `"` + escapeYAML(t) + `"`
		}
		fmt.Fprintf(&b, "tags: [%s]\n", strings.Join(quoted, ", "))
	}
	if p.Link != "" {
		fmt.Fprintf(&b, "link: \"%s\"\n", escapeYAML(p.Link))
	}
	fmt.Fprintf(&b, "draft: %t\n", p.Draft)
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimSpace(p.Content))
	b.WriteString("\n")
	return b.String()
}
