package blog

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gregjones/httpcache"
)

const (
	linkLogUserAgent = "sids.in link log bot"
	maxPageBytes     = 2 << 20
)

var (
	reOGTitle = regexp.MustCompile(`(?i)<meta[^>]+property=["']og:title["'][^>]+content=["']([^"']+)["'][^>]*>`)
	reTitle   = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)
)

// newFetchClient returns the outbound client for link metadata and
// readiness checks. Responses are cached in memory per their cache headers.
func newFetchClient() *http.Client {
	return &http.Client{
		Transport: httpcache.NewTransport(httpcache.NewMemoryCache()),
		Timeout:   10 * time.Second,
	}
}

// fetchPage GETs an external page and returns at most maxPageBytes of it.
func (a *App) fetchPage(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", linkLogUserAgent)
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: %s", target, resp.Status)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// extractTitle prefers og:title over <title>. HTML entities are decoded.
func extractTitle(page string) (string, bool) {
	for _, re := range []*regexp.Regexp{reOGTitle, reTitle} {
		if m := re.FindStringSubmatch(page); m != nil {
			if t := strings.TrimSpace(html.UnescapeString(m[1])); t != "" {
				return t, true
			}
		}
	}
	return "", false
}
