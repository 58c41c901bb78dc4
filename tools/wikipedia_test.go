package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopwork-ai/mcpd/mcp"
)

func wikipediaHandler(t *testing.T, upstream http.HandlerFunc) mcp.ToolHandler {
	t.Helper()
	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	definition := Wikipedia(
		WithHTTPClient(server.Client()),
		WithEndpoint(func(language string) string {
			return server.URL + "/" + language + "/w/api.php"
		}),
	)
	return definition.Handler
}

func TestWikipedia(t *testing.T) {
	var gotPath string
	var gotQuery url.Values
	handler := wikipediaHandler(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		fmt.Fprint(w, `{"query":{"pages":[{"pageid":9228,"title":"Earth","extract":"Earth is a planet."}]}}`)
	})

	result, err := handler(context.Background(), map[string]any{"title": "Earth"})
	require.NoError(t, err)

	assert.Equal(t, "/en/w/api.php", gotPath)
	assert.Equal(t, "query", gotQuery.Get("action"))
	assert.Equal(t, "extracts", gotQuery.Get("prop"))
	assert.Equal(t, "Earth", gotQuery.Get("titles"))
	assert.Equal(t, "1", gotQuery.Get("explaintext"))
	assert.Equal(t, "1", gotQuery.Get("redirects"))
	assert.Equal(t, "json", gotQuery.Get("format"))
	assert.Equal(t, "2", gotQuery.Get("formatversion"))

	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)
	assert.JSONEq(t, `[{"pageid":9228,"title":"Earth","extract":"Earth is a planet."}]`, result.Content[0].Text)

	structured, ok := result.StructuredContent.(map[string]any)
	require.True(t, ok)
	pages, ok := structured["pages"].([]any)
	require.True(t, ok)
	require.Len(t, pages, 1)
	assert.Equal(t, "Earth", pages[0].(map[string]any)["title"])
}

func TestWikipediaLanguage(t *testing.T) {
	var gotPath string
	handler := wikipediaHandler(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"query":{"pages":[]}}`)
	})

	ctx := context.Background()

	t.Run("explicit language", func(t *testing.T) {
		_, err := handler(ctx, map[string]any{"title": "Jorden", "language": "da"})
		require.NoError(t, err)
		assert.Equal(t, "/da/w/api.php", gotPath)
	})

	t.Run("language normalized to lowercase", func(t *testing.T) {
		_, err := handler(ctx, map[string]any{"title": "Erde", "language": " DE "})
		require.NoError(t, err)
		assert.Equal(t, "/de/w/api.php", gotPath)
	})

	t.Run("empty language defaults to en", func(t *testing.T) {
		_, err := handler(ctx, map[string]any{"title": "Earth", "language": ""})
		require.NoError(t, err)
		assert.Equal(t, "/en/w/api.php", gotPath)
	})

	t.Run("invalid language rejected", func(t *testing.T) {
		_, err := handler(ctx, map[string]any{"title": "Earth", "language": "en.wikipedia.org/evil"})
		assert.ErrorIs(t, err, mcp.ErrInvalidArgument)
	})
}

func TestWikipediaMissingTitle(t *testing.T) {
	handler := wikipediaHandler(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be called")
	})

	for _, args := range []map[string]any{
		{},
		{"title": ""},
		{"title": "   "},
		{"title": 42},
	} {
		_, err := handler(context.Background(), args)
		assert.ErrorIs(t, err, mcp.ErrInvalidArgument)
	}
}

func TestWikipediaUpstreamFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("non-2xx status", func(t *testing.T) {
		handler := wikipediaHandler(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		_, err := handler(ctx, map[string]any{"title": "Earth"})
		require.ErrorIs(t, err, mcp.ErrUpstream)
		assert.Contains(t, err.Error(), "HTTP 404")
	})

	t.Run("invalid JSON body", func(t *testing.T) {
		handler := wikipediaHandler(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<!doctype html>`)
		})
		_, err := handler(ctx, map[string]any{"title": "Earth"})
		assert.ErrorIs(t, err, mcp.ErrUpstream)
	})

	t.Run("missing pages payload", func(t *testing.T) {
		handler := wikipediaHandler(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"batchcomplete":true}`)
		})
		_, err := handler(ctx, map[string]any{"title": "Earth"})
		require.ErrorIs(t, err, mcp.ErrUpstream)
		assert.Contains(t, err.Error(), "query.pages")
	})

	t.Run("pages in legacy object form", func(t *testing.T) {
		handler := wikipediaHandler(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"query":{"pages":{"9228":{"title":"Earth"}}}}`)
		})
		_, err := handler(ctx, map[string]any{"title": "Earth"})
		assert.ErrorIs(t, err, mcp.ErrUpstream)
	})
}

func TestWikipediaDefinition(t *testing.T) {
	definition := Wikipedia()
	assert.Equal(t, "get_wikipedia_pages_json", definition.Name)
	assert.NotEmpty(t, definition.Description)
	require.NotNil(t, definition.InputSchema)
	assert.Equal(t, []string{"title"}, definition.InputSchema.Required)
}
