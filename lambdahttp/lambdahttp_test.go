package lambdahttp

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(method, rawPath, query string) events.APIGatewayV2HTTPRequest {
	ev := events.APIGatewayV2HTTPRequest{
		Version:        "2.0",
		RawPath:        rawPath,
		RawQueryString: query,
		Headers:        map[string]string{"host": "sids.in", "hx-request": "true"},
	}
	ev.RequestContext.HTTP.Method = method
	ev.RequestContext.HTTP.Path = rawPath
	ev.RequestContext.HTTP.SourceIP = "203.0.113.9"
	ev.RequestContext.DomainName = "sids.in"
	return ev
}

func TestHandlerRequest(t *testing.T) {
	var (
		got  *http.Request
		body []byte
	)
	h := Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))

	ev := event(http.MethodPost, "/admin/api/note", "a=1&b=2")
	ev.Cookies = []string{"sid_session=x", "_csrf=y"}
	ev.Body = base64.StdEncoding.EncodeToString([]byte(`{"title":"hi"}`))
	ev.IsBase64Encoded = true

	res, err := h(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/admin/api/note", got.URL.Path)
	assert.Equal(t, "2", got.URL.Query().Get("b"))
	assert.Equal(t, "true", got.Header.Get("HX-Request"))

	c, err := got.Cookie("_csrf")
	require.NoError(t, err)
	assert.Equal(t, "y", c.Value)
	assert.JSONEq(t, `{"title":"hi"}`, string(body))
}

func TestHandlerBadBody(t *testing.T) {
	called := false
	h := Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	ev := event(http.MethodPost, "/", "")
	ev.Body = "%%%"
	ev.IsBase64Encoded = true
	res, err := h(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
	assert.False(t, called)
}

func TestHandlerText(t *testing.T) {
	h := Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "a", Value: "1"})
		http.SetCookie(w, &http.Cookie{Name: "b", Value: "2"})
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "<p>missing</p>")
	}))

	res, err := h(context.Background(), event(http.MethodGet, "/nope", ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "<p>missing</p>", res.Body)
	assert.False(t, res.IsBase64Encoded)
	assert.ElementsMatch(t, []string{"a=1", "b=2"}, res.Cookies)
	assert.NotContains(t, res.Headers, "Set-Cookie")
}

func TestHandlerBinary(t *testing.T) {
	gz := []byte{0x1f, 0x8b, 0x08, 0x00, 0xff}
	h := Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(gz)
	}))

	res, err := h(context.Background(), event(http.MethodGet, "/", ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, res.IsBase64Encoded)
	raw, err := base64.StdEncoding.DecodeString(res.Body)
	require.NoError(t, err)
	assert.Equal(t, gz, raw)
}

func TestHandlerNotModified(t *testing.T) {
	h := Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v-html"`)
		w.WriteHeader(http.StatusNotModified)
	}))
	res, err := h(context.Background(), event(http.MethodGet, "/", ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotModified, res.StatusCode)
	assert.Empty(t, res.Body)
	assert.Equal(t, `"v-html"`, res.Headers["Etag"])
}
