// Package suggest derives ranked search suggestions from partial input
// and past queries. Suggest is a pure function over the engine's static
// tables, so it is callable synchronously from tests and the UI alike.
package suggest

import (
	"fmt"
	"strings"
)

// Kind classifies a suggestion.
type Kind string

const (
	KindHeader   Kind = "header"
	KindHistory  Kind = "history"
	KindTrending Kind = "trending"
	KindSmart    Kind = "smart"
	KindRelated  Kind = "related"
)

// Item is a single suggestion. Items are recomputed on every call and
// never persisted.
type Item struct {
	ID    string
	Text  string
	Kind  Kind
	Count int
}

const (
	maxTotal          = 8
	maxHistoryEmpty   = 5
	maxTrending       = 5
	maxHistoryMatches = 3
	maxSmart          = 4
	maxRelated        = 4
)

// Engine holds the static suggestion tables.
type Engine struct {
	trending []Item
	smart    []smartRule
	related  []relatedRule
	fallback []string
}

// smartRule expands input into templated suggestions when one of its
// keywords appears in the input.
type smartRule struct {
	keywords  []string
	templates []string
}

// relatedRule maps a keyword to curated related terms.
type relatedRule struct {
	keywords []string
	terms    []string
}

// Suggest returns the suggestion list for the given input and history.
// History must be ordered newest first.
func (e *Engine) Suggest(input string, history []string) []Item {
	input = strings.TrimSpace(input)
	if input == "" {
		return e.browseList(history)
	}
	return e.matchList(input, history)
}

// browseList is the empty-input listing: recent history then trending,
// each section capped and preceded by a header.
func (e *Engine) browseList(history []string) []Item {
	items := []Item{}

	if len(history) > 0 {
		items = append(items, Item{ID: "header-history", Text: "Recent searches", Kind: KindHeader})
		for i, h := range history {
			if i >= maxHistoryEmpty {
				break
			}
			items = append(items, Item{
				ID:   fmt.Sprintf("history-%d", i),
				Text: h,
				Kind: KindHistory,
			})
		}
	}

	items = append(items, Item{ID: "header-trending", Text: "Trending", Kind: KindHeader})
	for i, t := range e.trending {
		if i >= maxTrending {
			break
		}
		items = append(items, t)
	}

	return items
}

// matchList is the non-empty-input listing: history substring matches,
// then smart template expansions, then related terms. A text already in
// the list is never repeated by a later section. Capped at 8 total.
func (e *Engine) matchList(input string, history []string) []Item {
	items := []Item{}
	seen := map[string]bool{}
	lower := strings.ToLower(input)

	matched := 0
	for _, h := range history {
		if !strings.Contains(strings.ToLower(h), lower) || seen[h] {
			continue
		}
		seen[h] = true
		items = append(items, Item{
			ID:   fmt.Sprintf("history-%d", matched),
			Text: h,
			Kind: KindHistory,
		})
		matched++
		if matched >= maxHistoryMatches {
			break
		}
	}

	smart := 0
	for _, tpl := range e.templatesFor(lower) {
		text := fmt.Sprintf(tpl, input)
		if seen[text] {
			continue
		}
		seen[text] = true
		items = append(items, Item{
			ID:   fmt.Sprintf("smart-%d", smart),
			Text: text,
			Kind: KindSmart,
		})
		smart++
		if smart >= maxSmart {
			break
		}
	}

	related := 0
	for _, term := range e.relatedFor(lower) {
		if seen[term] {
			continue
		}
		seen[term] = true
		items = append(items, Item{
			ID:   fmt.Sprintf("related-%d", related),
			Text: term,
			Kind: KindRelated,
		})
		related++
		if related >= maxRelated {
			break
		}
	}

	if len(items) > maxTotal {
		items = items[:maxTotal]
	}
	return items
}

// templatesFor returns the templates of the first smart rule whose
// keyword appears in the input, or the generic fallback pair.
func (e *Engine) templatesFor(lower string) []string {
	for _, rule := range e.smart {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.templates
			}
		}
	}
	return e.fallback
}

// relatedFor returns the related terms of the first matching keyword.
// Only one rule's terms are ever used.
func (e *Engine) relatedFor(lower string) []string {
	for _, rule := range e.related {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.terms
			}
		}
	}
	return nil
}
