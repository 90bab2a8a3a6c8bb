package markdown

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestRenderHeadings(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"# Heading 1", `<h1 id="heading-1">Heading 1</h1>`},
		{"## Heading 2", `<h2 id="heading-2">Heading 2</h2>`},
		{"### Heading 3", `<h3 id="heading-3">Heading 3</h3>`},
	}
	for _, tt := range tests {
		got, err := Render(tt.input)
		if err != nil {
			t.Fatalf("Render(%q) error: %v", tt.input, err)
		}
		if strings.TrimSpace(got) != tt.expected {
			t.Errorf("Render(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestRenderInline(t *testing.T) {
	tests := []struct {
		input    string
		contains string
	}{
		{"**bold**", "<strong>bold</strong>"},
		{"*italic*", "<em>italic</em>"},
		{"~~gone~~", "<del>gone</del>"},
		{"`code`", "<code>code</code>"},
		{"[link](https://example.com)", `<a href="https://example.com">link</a>`},
	}
	for _, tt := range tests {
		got, err := Render(tt.input)
		if err != nil {
			t.Fatalf("Render(%q) error: %v", tt.input, err)
		}
		if !strings.Contains(got, tt.contains) {
			t.Errorf("Render(%q) = %q, want it to contain %q", tt.input, got, tt.contains)
		}
	}
}

func TestRenderCodeBlockHighlighted(t *testing.T) {
	got, err := Render("```go\nfmt.Println(\"hello\")\n```")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, `class="chroma"`) {
		t.Errorf("code block should use chroma classes: %q", got)
	}
	if !strings.Contains(got, "Println") {
		t.Errorf("code block missing content: %q", got)
	}
}

func TestRenderTable(t *testing.T) {
	got, err := Render("| a | b |\n|---|---|\n| 1 | 2 |")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "<table>") || !strings.Contains(got, "<td>1</td>") {
		t.Errorf("GFM table not rendered: %q", got)
	}
}

func TestMarkdownComponent(t *testing.T) {
	var buf bytes.Buffer
	if err := Markdown("hello *world*").Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "<p>hello <em>world</em></p>" {
		t.Errorf("Markdown component = %q", got)
	}
}

func TestExcerpt(t *testing.T) {
	if got := Excerpt("<p>Short <em>text</em></p>", 150); got != "Short text" {
		t.Errorf("Excerpt short = %q", got)
	}
	long := "<p>" + strings.Repeat("word ", 40) + "</p>"
	got := Excerpt(long, 22)
	if got != "word word word word..." {
		t.Errorf("Excerpt long = %q", got)
	}
}

func TestDescriptionFromBody(t *testing.T) {
	body := "# Title\n\nIntro with `code` here.\n\n```go\nignored()\n```\n\n![img](a.png)\n\n\n\nSecond paragraph."
	got := DescriptionFromBody(body, 300)
	want := "Title\n\nIntro with code here.\n\nSecond paragraph."
	if got != want {
		t.Errorf("DescriptionFromBody = %q, want %q", got, want)
	}

	long := strings.Repeat("abc ", 100)
	got = DescriptionFromBody(long, 10)
	if got != "abc abc..." {
		t.Errorf("DescriptionFromBody truncated = %q", got)
	}
}

func TestSafeURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://example.com/a?b=1&c=2", "https://example.com/a?b=1&amp;c=2"},
		{"/posts/x", "/posts/x"},
		{"#top", "#top"},
		{"javascript:alert(1)", ""},
		{"relative/path", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SafeURL(tt.input); got != tt.expected {
			t.Errorf("SafeURL(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
