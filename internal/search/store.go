package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// genericFailure is shown when a provider error carries no message.
const genericFailure = "search failed, please retry"

// Store is the single source of truth for submitted queries. Submissions
// insert a loading record synchronously; the provider call completes on a
// background goroutine and updates only its own record by id, so
// overlapping searches cannot corrupt each other.
//
// The global loading flag tracks the most recently completed call, not
// all in-flight ones; per-query Loading is the authoritative signal.
type Store struct {
	mu        sync.RWMutex
	provider  Provider
	queries   []Query // newest first
	currentID string
	loading   bool
	onChange  func()
	wg        sync.WaitGroup
}

// NewStore creates a store backed by the given provider.
func NewStore(provider Provider) *Store {
	return &Store{provider: provider}
}

// SetProvider swaps the search provider for subsequent submissions.
func (s *Store) SetProvider(p Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider = p
}

// SetOnChange registers a callback invoked after every state change.
func (s *Store) SetOnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// AddQuery submits text for searching and returns the new query id.
// The record is inserted immediately with Loading set; results or an
// error string arrive asynchronously.
func (s *Store) AddQuery(ctx context.Context, text string) string {
	id := uuid.New().String()
	q := Query{
		ID:        id,
		Text:      text,
		CreatedAt: time.Now(),
		Results:   []Result{},
		Loading:   true,
	}

	s.mu.Lock()
	s.queries = append([]Query{q}, s.queries...)
	s.currentID = id
	s.loading = true
	provider := s.provider
	s.mu.Unlock()
	s.notify()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		results, err := provider.Search(ctx, text)
		if err != nil {
			s.finish(id, nil, errMessage(err))
			return
		}
		s.finish(id, results, "")
	}()

	return id
}

// Update describes a partial change to a query record. Nil fields are
// left untouched.
type Update struct {
	Results []Result
	Error   *string
	Loading *bool
}

// UpdateQuery applies a partial update to the query with the given id.
// Returns false when no such query exists.
func (s *Store) UpdateQuery(id string, upd Update) bool {
	s.mu.Lock()
	found := false
	for i := range s.queries {
		if s.queries[i].ID != id {
			continue
		}
		found = true
		if upd.Results != nil {
			s.queries[i].Results = upd.Results
		}
		if upd.Error != nil {
			s.queries[i].Error = *upd.Error
		}
		if upd.Loading != nil {
			s.queries[i].Loading = *upd.Loading
		}
		break
	}
	s.mu.Unlock()

	if found {
		s.notify()
	}
	return found
}

// ClearQueries removes all query records.
func (s *Store) ClearQueries() {
	s.mu.Lock()
	s.queries = nil
	s.currentID = ""
	s.loading = false
	s.mu.Unlock()
	s.notify()
}

// SetCurrent moves the current-query pointer. Returns false when the id
// is unknown.
func (s *Store) SetCurrent(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.queries {
		if s.queries[i].ID == id {
			s.currentID = id
			return true
		}
	}
	return false
}

// Current returns the current query, if any.
func (s *Store) Current() (Query, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(s.currentID)
}

// Get returns the query with the given id.
func (s *Store) Get(id string) (Query, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(id)
}

// Queries returns a copy of all query records, newest first.
func (s *Store) Queries() []Query {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Query, len(s.queries))
	copy(out, s.queries)
	return out
}

// Loading reports the advisory global loading flag.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Wait blocks until all in-flight provider calls complete. Used for
// graceful shutdown and in tests.
func (s *Store) Wait() {
	s.wg.Wait()
}

// finish records the outcome of one provider call and clears the global
// loading flag.
func (s *Store) finish(id string, results []Result, errMsg string) {
	s.mu.Lock()
	for i := range s.queries {
		if s.queries[i].ID != id {
			continue
		}
		s.queries[i].Loading = false
		s.queries[i].Error = errMsg
		if errMsg == "" {
			s.queries[i].Results = results
		}
		break
	}
	s.loading = false
	s.mu.Unlock()
	s.notify()
}

func (s *Store) getLocked(id string) (Query, bool) {
	if id == "" {
		return Query{}, false
	}
	for i := range s.queries {
		if s.queries[i].ID == id {
			return s.queries[i], true
		}
	}
	return Query{}, false
}

func (s *Store) notify() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// errMessage derives a user-facing message from a provider error.
func errMessage(err error) string {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return genericFailure
	}
	return msg
}
