// Package mock provides a deterministic synthetic search provider used
// when no real search backend is reachable.
package mock

import (
	"context"
	"fmt"
	"time"

	"voxsearch/internal/search"
)

// shapes are the fixed result templates. Relevance and timestamps vary
// per position so result lists look plausible but stay deterministic.
var shapes = []struct {
	title   string
	content string
	kind    search.ResultKind
	source  string
}{
	{"%s - overview and key concepts", "An introduction to %s covering the fundamentals, common terminology and where to learn more.", search.KindWeb, "example.org"},
	{"Latest developments around %s", "Recent news and announcements related to %s from the past weeks.", search.KindNews, "news.example.org"},
	{"%s in practice: a walkthrough", "A hands-on walkthrough applying %s to a realistic problem, with pitfalls to avoid.", search.KindWeb, "blog.example.org"},
	{"Video guide: getting started with %s", "A recorded session introducing %s step by step.", search.KindVideo, "video.example.org"},
	{"%s reference material", "Curated reference links and documentation for %s.", search.KindWeb, "docs.example.org"},
}

// Provider generates synthetic results. Implements search.Provider.
type Provider struct {
	// Now is the clock used for timestamps; defaults to time.Now.
	Now func() time.Time
}

// NewProvider creates a synthetic provider.
func NewProvider() *Provider {
	return &Provider{Now: time.Now}
}

// Search returns the fixed shape set instantiated for the query text.
func (p *Provider) Search(ctx context.Context, text string) ([]search.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}

	results := make([]search.Result, 0, len(shapes))
	for i, s := range shapes {
		results = append(results, search.Result{
			ID:          fmt.Sprintf("mock-%d", i),
			Title:       fmt.Sprintf(s.title, text),
			Content:     fmt.Sprintf(s.content, text),
			URL:         fmt.Sprintf("https://%s/%d", s.source, i),
			Source:      s.source,
			PublishedAt: now.Add(-time.Duration(i) * 24 * time.Hour),
			Kind:        s.kind,
			Relevance:   1 - float64(i)*0.15,
		})
	}

	return results, nil
}
