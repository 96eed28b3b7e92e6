// Package preview fetches result pages and extracts a short readable
// excerpt for display next to search results.
package preview

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Preview is the extracted summary of one result page.
type Preview struct {
	URL      string
	Title    string
	Excerpt  string
	Error    error
	Duration time.Duration
}

// Fetcher retrieves and summarizes result pages.
type Fetcher struct {
	httpClient *http.Client
	maxSize    int64
	userAgent  string
	maxWorkers int
}

// NewFetcher creates a fetcher. maxSize caps how much of a page body is
// read; maxWorkers bounds concurrent prefetches.
func NewFetcher(timeout time.Duration, maxWorkers int, maxSize int64, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		maxSize:    maxSize,
		userAgent:  userAgent,
		maxWorkers: maxWorkers,
	}
}

// FetchAll previews multiple URLs in parallel. Results are keyed by URL
// because worker completion order is not deterministic.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) map[string]Preview {
	out := make(map[string]Preview, len(urls))
	if len(urls) == 0 {
		return out
	}

	jobs := make(chan string, len(urls))
	results := make(chan Preview, len(urls))

	numWorkers := f.maxWorkers
	if len(urls) < numWorkers {
		numWorkers = len(urls)
	}

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				results <- f.Fetch(ctx, u)
			}
		}()
	}

	for _, u := range urls {
		jobs <- u
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	for p := range results {
		out[p.URL] = p
	}
	return out
}

// Fetch previews a single URL.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) Preview {
	start := time.Now()
	p := Preview{URL: urlStr}

	req, err := http.NewRequestWithContext(ctx, "GET", urlStr, nil)
	if err != nil {
		p.Error = fmt.Errorf("failed to create request: %w", err)
		p.Duration = time.Since(start)
		return p
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		p.Error = fmt.Errorf("request failed: %w", err)
		p.Duration = time.Since(start)
		return p
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		p.Error = fmt.Errorf("HTTP %d", resp.StatusCode)
		p.Duration = time.Since(start)
		return p
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(strings.ToLower(contentType), "text/html") &&
		!strings.Contains(strings.ToLower(contentType), "application/xhtml") {
		p.Error = fmt.Errorf("non-HTML content type: %s", contentType)
		p.Duration = time.Since(start)
		return p
	}

	body, err := readLimited(resp.Body, f.maxSize)
	if err != nil {
		p.Error = fmt.Errorf("failed to read body: %w", err)
		p.Duration = time.Since(start)
		return p
	}

	title, excerpt, err := extract(body)
	if err != nil {
		p.Error = fmt.Errorf("failed to extract text: %w", err)
		p.Duration = time.Since(start)
		return p
	}

	p.Title = title
	p.Excerpt = excerpt
	p.Duration = time.Since(start)
	return p
}
