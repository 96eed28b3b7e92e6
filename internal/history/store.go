// Package history persists a bounded list of past query strings.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store handles query history persistence. Newest entries come first.
type Store struct {
	filePath   string
	mu         sync.RWMutex
	entries    []string
	maxEntries int
}

// NewStore creates a new history store backed by the given file.
func NewStore(filePath string, maxEntries int) *Store {
	return &Store{
		filePath:   filePath,
		entries:    []string{},
		maxEntries: maxEntries,
	}
}

// Load loads history from disk.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Create directory if it doesn't exist
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	// Check if file exists
	if _, err := os.Stat(s.filePath); os.IsNotExist(err) {
		s.entries = []string{}
		return nil
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to read history file: %w", err)
	}

	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		// Corrupted file - back it up and start fresh
		backupPath := s.filePath + ".backup"
		os.Rename(s.filePath, backupPath)
		s.entries = []string{}
		return nil
	}

	if len(entries) > s.maxEntries {
		entries = entries[:s.maxEntries]
	}
	s.entries = entries

	return nil
}

// Record inserts text at the front, removing any prior occurrence of the
// exact same text and truncating to the retained maximum. The updated
// list is persisted; a persistence failure is returned so the caller can
// warn, the in-memory list is updated regardless.
func (s *Store) Record(text string) error {
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := make([]string, 0, len(s.entries)+1)
	filtered = append(filtered, text)
	for _, e := range s.entries {
		if e != text {
			filtered = append(filtered, e)
		}
	}
	if len(filtered) > s.maxEntries {
		filtered = filtered[:s.maxEntries]
	}
	s.entries = filtered

	return s.saveUnlocked()
}

// Clear empties the list and removes the persisted file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = []string{}

	if err := os.Remove(s.filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove history file: %w", err)
	}
	return nil
}

// Entries returns a copy of the history, newest first.
func (s *Store) Entries() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of retained entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// saveUnlocked saves without acquiring the lock (must be called with lock held)
func (s *Store) saveUnlocked() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	// Write to temp file, then atomic rename
	tempPath := s.filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempPath, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
