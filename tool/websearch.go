package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	duckDuckGoEndpoint = "https://api.duckduckgo.com/"

	defaultSearchMaxResults = 5
	defaultSearchRegion     = "us-en"
)

// duckDuckGoResponse is the subset of the DuckDuckGo Instant Answer API
// payload this tool reads.
type duckDuckGoResponse struct {
	Heading       string `json:"Heading"`
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	Answer        string `json:"Answer"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
		Topics   []struct {
			Text     string `json:"Text"`
			FirstURL string `json:"FirstURL"`
		} `json:"Topics"`
	} `json:"RelatedTopics"`
}

// WebSearchTool queries the DuckDuckGo Instant Answer API and returns a plain
// text digest of the top results.
type WebSearchTool struct {
	client     *resty.Client
	maxResults int
	region     string
}

// WebSearchOption customizes a WebSearchTool.
type WebSearchOption func(*WebSearchTool)

// WithMaxResults caps the number of results included in the digest.
func WithMaxResults(n int) WebSearchOption {
	return func(t *WebSearchTool) {
		if n > 0 {
			t.maxResults = n
		}
	}
}

// WithRegion sets the DuckDuckGo region code (e.g. "us-en").
func WithRegion(region string) WebSearchOption {
	return func(t *WebSearchTool) {
		if region != "" {
			t.region = region
		}
	}
}

// WithHTTPClient replaces the underlying resty client, mainly for tests.
func WithHTTPClient(client *resty.Client) WebSearchOption {
	return func(t *WebSearchTool) { t.client = client }
}

// NewWebSearchTool creates a web search tool with sane defaults
// (5 results, us-en region, 15s request timeout).
func NewWebSearchTool(optFns ...WebSearchOption) *WebSearchTool {
	t := &WebSearchTool{
		client:     resty.New().SetTimeout(15 * time.Second),
		maxResults: defaultSearchMaxResults,
		region:     defaultSearchRegion,
	}
	for _, fn := range optFns {
		fn(t)
	}
	return t
}

func (t *WebSearchTool) Name() string { return "web_search" }

func (t *WebSearchTool) Description() string {
	return "Search the web for current information about a topic."
}

func (t *WebSearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query",
			},
		},
		"required": []string{"query"},
	}
}

// Call performs the search and returns a newline separated result digest.
func (t *WebSearchTool) Call(ctx context.Context, args map[string]any) (any, error) {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, NewToolError(t.Name(), "query must be a non-empty string", "VALIDATION_ERROR")
	}

	var result duckDuckGoResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":       query,
			"format":  "json",
			"no_html": "1",
			"kl":      t.region,
		}).
		SetResult(&result).
		Get(duckDuckGoEndpoint)
	if err != nil {
		return nil, &ToolError{
			Tool:    t.Name(),
			Message: fmt.Sprintf("search request failed: %v", err),
			Code:    "EXECUTION_ERROR",
		}
	}
	if resp.IsError() {
		return nil, &ToolError{
			Tool:    t.Name(),
			Message: fmt.Sprintf("search returned status %d", resp.StatusCode()),
			Code:    "EXECUTION_ERROR",
		}
	}

	digest := t.formatResults(result)
	if digest == "" {
		return "No search results found.", nil
	}
	return digest, nil
}

// formatResults flattens the instant answer payload into at most maxResults
// "title: snippet (url)" lines, abstract and direct answer first.
func (t *WebSearchTool) formatResults(r duckDuckGoResponse) string {
	var lines []string

	if r.Answer != "" {
		lines = append(lines, r.Answer)
	}
	if r.AbstractText != "" {
		line := r.AbstractText
		if r.AbstractURL != "" {
			line = fmt.Sprintf("%s (%s)", line, r.AbstractURL)
		}
		if r.Heading != "" {
			line = fmt.Sprintf("%s: %s", r.Heading, line)
		}
		lines = append(lines, line)
	}

	for _, topic := range r.RelatedTopics {
		if topic.Text != "" {
			lines = append(lines, formatTopic(topic.Text, topic.FirstURL))
		}
		for _, sub := range topic.Topics {
			if sub.Text != "" {
				lines = append(lines, formatTopic(sub.Text, sub.FirstURL))
			}
		}
	}

	if len(lines) > t.maxResults {
		lines = lines[:t.maxResults]
	}
	return strings.Join(lines, "\n")
}

func formatTopic(text, url string) string {
	if url == "" {
		return text
	}
	return fmt.Sprintf("%s (%s)", text, url)
}

var _ Tool = (*WebSearchTool)(nil)
