// Package github implements the search provider backed by the GitHub
// repository search API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"voxsearch/internal/search"
)

// Client handles communication with the GitHub search API.
type Client struct {
	baseURL    string
	token      string
	maxResults int
	httpClient *http.Client
}

// NewClient creates a new GitHub search client. token may be empty for
// unauthenticated (rate-limited) access.
func NewClient(baseURL, token string, maxResults int, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		maxResults: maxResults,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// repoSearchResponse is the GitHub repository search payload.
type repoSearchResponse struct {
	TotalCount int    `json:"total_count"`
	Items      []repo `json:"items"`
}

type repo struct {
	FullName    string  `json:"full_name"`
	Description string  `json:"description"`
	HTMLURL     string  `json:"html_url"`
	Language    string  `json:"language"`
	Stars       int     `json:"stargazers_count"`
	PushedAt    string  `json:"pushed_at"`
	Score       float64 `json:"score"`
}

// Search performs a repository search and maps the items onto the
// orchestration result shape. Implements search.Provider.
func (c *Client) Search(ctx context.Context, text string) ([]search.Result, error) {
	params := url.Values{}
	params.Add("q", text)
	params.Add("per_page", strconv.Itoa(c.maxResults))

	fullURL := fmt.Sprintf("%s/search/repositories?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "voxsearch/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == 403:
		return nil, fmt.Errorf("GitHub rate limit exceeded, try again later or set a token")
	case resp.StatusCode == 422:
		return nil, fmt.Errorf("GitHub rejected the query %q as unprocessable", text)
	case resp.StatusCode != 200:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GitHub returned status %d: %s", resp.StatusCode, string(body))
	}

	var searchResp repoSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	return mapResults(searchResp.Items), nil
}

// mapResults converts repositories to results. GitHub's score field is
// unbounded, so relevance falls back to rank position when scores are
// missing or flat.
func mapResults(items []repo) []search.Result {
	results := make([]search.Result, 0, len(items))

	maxScore := 0.0
	for _, it := range items {
		if it.Score > maxScore {
			maxScore = it.Score
		}
	}

	for i, it := range items {
		relevance := rankRelevance(i, len(items))
		if maxScore > 0 {
			relevance = it.Score / maxScore
		}

		publishedAt, _ := time.Parse(time.RFC3339, it.PushedAt)

		content := it.Description
		if it.Language != "" {
			content = fmt.Sprintf("%s (%s, %d stars)", content, it.Language, it.Stars)
		}

		results = append(results, search.Result{
			ID:          fmt.Sprintf("gh-%d-%s", i, it.FullName),
			Title:       it.FullName,
			Content:     content,
			URL:         it.HTMLURL,
			Source:      "github",
			PublishedAt: publishedAt,
			Kind:        search.KindWeb,
			Relevance:   relevance,
		})
	}

	return results
}

// rankRelevance maps a list position to a score in (0,1].
func rankRelevance(i, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(total-i) / float64(total)
}

// HealthCheck verifies that the GitHub API is reachable.
func (c *Client) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/rate_limit", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	req.Header.Set("User-Agent", "voxsearch/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GitHub is unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 401 {
		return fmt.Errorf("GitHub rejected the configured token")
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("GitHub returned server error: %d", resp.StatusCode)
	}

	return nil
}
