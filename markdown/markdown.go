// Package markdown renders post and page bodies to HTML and derives the
// plain-text excerpts and descriptions shown in listings and feeds.
package markdown

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/a-h/templ"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
			highlighting.WithFormatOptions(
				chromahtml.WithClasses(true),
			),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		// Content is authored in the site repository, so embedded HTML is trusted.
		gmhtml.WithUnsafe(),
	),
)

// Render converts Markdown source to HTML.
func Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// HTML returns a templ.Component that writes pre-rendered, trusted HTML.
func HTML(rendered string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, rendered)
		return err
	})
}

// Markdown returns a templ.Component that renders content as HTML.
func Markdown(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out, err := Render(content)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	})
}

var (
	reTag        = regexp.MustCompile(`<[^>]+>`)
	reSpace      = regexp.MustCompile(`\s+`)
	reFence      = regexp.MustCompile("(?s)```.*?```")
	reInlineCode = regexp.MustCompile("`([^`]+)`")
	reImage      = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	reHeading    = regexp.MustCompile(`(?m)^#+\s+`)
	reBlankRuns  = regexp.MustCompile(`\n{3,}`)
)

// Excerpt strips tags from rendered HTML and truncates the text to at most
// max characters at a word boundary, appending "..." when cut.
func Excerpt(rendered string, max int) string {
	text := reTag.ReplaceAllString(rendered, "")
	text = strings.TrimSpace(reSpace.ReplaceAllString(html.UnescapeString(text), " "))
	return truncate(text, max, " ")
}

// DescriptionFromBody derives a description from raw Markdown when the
// front matter has none. Code, images and heading markers are dropped;
// paragraph breaks survive.
func DescriptionFromBody(body string, max int) string {
	text := reFence.ReplaceAllString(body, "")
	text = reInlineCode.ReplaceAllString(text, "$1")
	text = reImage.ReplaceAllString(text, "")
	text = reHeading.ReplaceAllString(text, "")
	text = reBlankRuns.ReplaceAllString(text, "\n\n")
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	text = strings.TrimSpace(strings.Join(lines, "\n"))
	out := truncate(text, max, " \n")
	if strings.HasSuffix(out, "...") {
		out = strings.TrimSpace(strings.TrimSuffix(out, "...")) + "..."
	}
	return out
}

func truncate(text string, max int, breaks string) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	cut := string(runes[:max])
	if i := strings.LastIndexAny(cut, breaks); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

// SafeURL validates and sanitizes a URL for use in HTML attributes.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
