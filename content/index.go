package content

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// Index is the immutable, load-once view of the content corpus.
type Index struct {
	posts    []Post           // published, newest first
	bySlug   map[string]Post  // includes drafts
	tagIndex map[string][]string
	tags     []TagCount
	pages    map[string]Page
}

// TagCount is a tag with the number of published posts carrying it.
type TagCount struct {
	Tag   string
	Count int
}

// articleDirs are the top-level post directories holding long-form articles.
var articleDirs = map[string]bool{"articles": true, "essays": true}

// Load reads posts/**/*.md and pages/*.md from fsys. repoPrefix is prepended
// to each post's path to form its SourcePath in the content repository.
func Load(fsys fs.FS, repoPrefix string) (*Index, error) {
	var posts []Post
	err := fs.WalkDir(fsys, "posts", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".md") {
			return nil
		}
		src, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(p, "posts/")
		typ := Note
		if top, _, found := strings.Cut(rel, "/"); found && articleDirs[top] {
			typ = Article
		}
		post, err := ParsePost(src, typ)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		if post.Slug == "" {
			return nil
		}
		post.SourcePath = path.Join(repoPrefix, p)
		posts = append(posts, post)
		return nil
	})
	if err != nil && !isNotExist(err) {
		return nil, err
	}

	pages := make(map[string]Page)
	entries, err := fs.ReadDir(fsys, "pages")
	if err != nil && !isNotExist(err) {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		src, err := fs.ReadFile(fsys, path.Join("pages", e.Name()))
		if err != nil {
			return nil, err
		}
		slug := strings.TrimSuffix(e.Name(), ".md")
		page, err := ParsePage(src, slug)
		if err != nil {
			return nil, fmt.Errorf("pages/%s: %w", e.Name(), err)
		}
		pages[slug] = page
	}

	return NewIndex(posts, pages), nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// NewIndex builds an index from already parsed posts and pages.
func NewIndex(all []Post, pages map[string]Page) *Index {
	idx := &Index{
		bySlug:   make(map[string]Post, len(all)),
		tagIndex: make(map[string][]string),
		pages:    pages,
	}
	if idx.pages == nil {
		idx.pages = make(map[string]Page)
	}
	for _, p := range all {
		idx.bySlug[p.Slug] = p
		if !p.Draft {
			idx.posts = append(idx.posts, p)
		}
	}
	SortByDate(idx.posts)

	for _, p := range idx.posts {
		for _, tag := range p.Tags {
			idx.tagIndex[tag] = append(idx.tagIndex[tag], p.Slug)
		}
	}
	for tag, slugs := range idx.tagIndex {
		idx.tags = append(idx.tags, TagCount{Tag: tag, Count: len(slugs)})
	}
	sort.Slice(idx.tags, func(i, j int) bool {
		if idx.tags[i].Count != idx.tags[j].Count {
			return idx.tags[i].Count > idx.tags[j].Count
		}
		return idx.tags[i].Tag < idx.tags[j].Tag
	})
	return idx
}

// SortByDate orders posts newest first. Posts with unparseable dates sort last.
func SortByDate(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		ti, iok := posts[i].Time()
		tj, jok := posts[j].Time()
		switch {
		case iok && jok:
			return ti.After(tj)
		case iok != jok:
			return iok
		default:
			return posts[i].Date > posts[j].Date
		}
	})
}

// Posts returns published posts, newest first.
func (x *Index) Posts() []Post { return x.posts }

// Post returns any post by slug, drafts included.
func (x *Index) Post(slug string) (Post, bool) {
	p, ok := x.bySlug[slug]
	return p, ok
}

// Drafts returns unpublished posts, newest first. Drafts sharing a date are
// ordered by slug.
func (x *Index) Drafts() []Post {
	var drafts []Post
	for _, p := range x.bySlug {
		if p.Draft {
			drafts = append(drafts, p)
		}
	}
	sort.Slice(drafts, func(i, j int) bool { return drafts[i].Slug < drafts[j].Slug })
	SortByDate(drafts)
	return drafts
}

// Tagged returns published posts carrying tag, newest first.
func (x *Index) Tagged(tag string) []Post {
	slugs := x.tagIndex[tag]
	out := make([]Post, 0, len(slugs))
	for _, s := range slugs {
		out = append(out, x.bySlug[s])
	}
	return out
}

// Tags returns all tags ordered by post count, then name.
func (x *Index) Tags() []TagCount { return x.tags }

// Page returns a page by slug.
func (x *Index) Page(slug string) (Page, bool) {
	p, ok := x.pages[slug]
	return p, ok
}

// Pages returns page slugs in lexical order.
func (x *Index) Pages() []string {
	slugs := make([]string, 0, len(x.pages))
	for s := range x.pages {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)
	return slugs
}
