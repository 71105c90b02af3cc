// internal/common/websearch/client.go
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/RaDu88253/LocalCommerceAi/internal/common/errors"
)

// Result is one web search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Searcher is the web-search interface the pipeline depends on.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
	SearchSite(ctx context.Context, domain, query string) ([]Result, error)
}

// Client wraps a Tavily-style search API.
type Client struct {
	baseURL    string
	apiKey     string
	maxResults int
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, maxResults int, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		maxResults: maxResults,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// Search runs a general web search.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	reqBody := searchRequest{
		Query:      query,
		MaxResults: c.maxResults,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, apperrors.NewWebSearchUnavailableError(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, apperrors.NewWebSearchUnavailableError(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewWebSearchUnavailableError(fmt.Errorf("failed to call search API: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewWebSearchUnavailableError(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewWebSearchUnavailableError(fmt.Errorf("search API status %d: %s", resp.StatusCode, string(body)))
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, apperrors.NewWebSearchUnavailableError(fmt.Errorf("failed to parse response: %w", err))
	}

	return searchResp.Results, nil
}

// SearchSite searches within a single domain using the site: operator.
func (c *Client) SearchSite(ctx context.Context, domain, query string) ([]Result, error) {
	return c.Search(ctx, fmt.Sprintf("site:%s %s", domain, query))
}
