package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/loopwork-ai/mcpd/internal"
	"github.com/loopwork-ai/mcpd/mcp"
)

// wikipediaTimeout bounds a single article fetch end to end
const wikipediaTimeout = 20 * time.Second

var languagePattern = regexp.MustCompile(`^[a-z-]+$`)

// wikipedia holds the collaborators for the get_wikipedia_pages_json tool
type wikipedia struct {
	client   *http.Client
	endpoint func(language string) string
}

// WikipediaOption configures the Wikipedia tool
type WikipediaOption func(*wikipedia)

// WithHTTPClient sets the HTTP client used for Wikipedia API calls
func WithHTTPClient(client *http.Client) WikipediaOption {
	return func(t *wikipedia) { t.client = client }
}

// WithEndpoint overrides the per-language MediaWiki API endpoint
func WithEndpoint(endpoint func(language string) string) WikipediaOption {
	return func(t *wikipedia) { t.endpoint = endpoint }
}

// Wikipedia returns the get_wikipedia_pages_json tool definition
func Wikipedia(opts ...WikipediaOption) mcp.ToolDefinition {
	tool := &wikipedia{
		client: defaultWikipediaClient(),
		endpoint: func(language string) string {
			return fmt.Sprintf("https://%s.wikipedia.org/w/api.php", language)
		},
	}
	for _, opt := range opts {
		opt(tool)
	}

	return mcp.ToolDefinition{
		Name:        "get_wikipedia_pages_json",
		Description: "Fetch plain-text article content from Wikipedia and return only the API `query.pages` JSON payload.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"title": {
					Type:        "string",
					Description: "Wikipedia article title, e.g. 'Earth'.",
				},
				"language": {
					Type:        "string",
					Description: "Wikipedia language code, e.g. 'en'. Defaults to 'en'.",
				},
			},
			Required:             []string{"title"},
			AdditionalProperties: falseSchema(),
		},
		Handler: tool.handle,
	}
}

func defaultWikipediaClient() *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.Logger = nil
	retryClient.HTTPClient.Timeout = wikipediaTimeout
	retryClient.HTTPClient.Transport = &internal.HeaderTransport{
		Headers: http.Header{"User-Agent": []string{"mcpd/0.1"}},
	}
	return retryClient.StandardClient()
}

func (t *wikipedia) handle(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	title, _ := args["title"].(string)
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: `title` is required and must be a non-empty string", mcp.ErrInvalidArgument)
	}

	language, err := resolveLanguage(args["language"])
	if err != nil {
		return nil, err
	}

	query := url.Values{
		"action":        {"query"},
		"prop":          {"extracts"},
		"titles":        {title},
		"explaintext":   {"1"},
		"redirects":     {"1"},
		"format":        {"json"},
		"formatversion": {"2"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint(language)+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mcp.ErrUpstream, err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mcp.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: wikipedia returned HTTP %d", mcp.ErrUpstream, resp.StatusCode)
	}

	var payload struct {
		Query struct {
			Pages json.RawMessage `json:"pages"`
		} `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: wikipedia response was not valid JSON", mcp.ErrUpstream)
	}

	// formatversion=2 renders pages as an array
	var pages []any
	if err := json.Unmarshal(payload.Query.Pages, &pages); err != nil {
		return nil, fmt.Errorf("%w: wikipedia response did not include a valid `query.pages` payload", mcp.ErrUpstream)
	}

	text, err := json.Marshal(pages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mcp.ErrUpstream, err)
	}

	return mcp.NewToolResult(string(text), map[string]any{"pages": pages}), nil
}

// resolveLanguage normalizes an optional Wikipedia language code,
// defaulting to "en"
func resolveLanguage(value any) (string, error) {
	language, _ := value.(string)
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		return "en", nil
	}
	if !languagePattern.MatchString(language) {
		return "", fmt.Errorf("%w: `language` must be a valid Wikipedia language code, e.g. 'en'", mcp.ErrInvalidArgument)
	}
	return language, nil
}
