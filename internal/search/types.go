// Package search coordinates query submission and result retrieval.
package search

import (
	"context"
	"time"
)

// ResultKind categorizes a search result.
type ResultKind string

const (
	KindWeb   ResultKind = "web"
	KindNews  ResultKind = "news"
	KindImage ResultKind = "image"
	KindVideo ResultKind = "video"
)

// Result is a single search result. Immutable once produced.
type Result struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	URL         string     `json:"url,omitempty"`
	Source      string     `json:"source,omitempty"`
	PublishedAt time.Time  `json:"published_at"`
	Kind        ResultKind `json:"kind"`
	Relevance   float64    `json:"relevance"` // 0..1
}

// Query is one submitted search with its lifecycle state. A query starts
// loading and ends either with results or with a user-facing error string.
type Query struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Results   []Result  `json:"results"`
	Loading   bool      `json:"loading"`
	Error     string    `json:"error,omitempty"`
}

// Provider performs the actual search.
type Provider interface {
	Search(ctx context.Context, text string) ([]Result, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, text string) ([]Result, error)

// Search implements Provider.
func (f ProviderFunc) Search(ctx context.Context, text string) ([]Result, error) {
	return f(ctx, text)
}
