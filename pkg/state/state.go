// Package state remembers the last successful sync of each todo file.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/harrisonrobin/todosync/pkg/writer"
)

const FileName = "state.json"

// Run summarizes one finished sync.
type Run struct {
	RunID     string    `json:"run_id"`
	Source    string    `json:"source"`
	Path      string    `json:"path"`
	At        time.Time `json:"at"`
	Fetched   int       `json:"fetched"`
	Created   int       `json:"created"`
	Completed int       `json:"completed"`
	Reopened  int       `json:"reopened"`
	Warnings  int       `json:"warnings"`
}

// Key identifies the pair a run synced.
func Key(source, path string) string {
	return source + ":" + path
}

type Store struct {
	Runs map[string]Run `json:"runs"`
	Path string         `json:"-"`

	mu    sync.RWMutex
	dirty bool
}

// Open loads the store at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{Runs: make(map[string]Run), Path: path}

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("failed to decode state %s: %w", path, err)
	}
	if s.Runs == nil {
		s.Runs = make(map[string]Run)
	}
	return s, nil
}

func (s *Store) Get(key string) (Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.Runs[key]
	return r, ok
}

func (s *Store) Set(r Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Runs[Key(r.Source, r.Path)] = r
	s.dirty = true
}

// List returns the runs ordered by key.
func (s *Store) List() []Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.Runs))
	for k := range s.Runs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Run, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.Runs[k])
	}
	return out
}

// Save writes the store if it changed since it was opened.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := writer.WriteFileMode(s.Path, append(b, '\n'), 0o600); err != nil {
		return err
	}
	s.dirty = false
	return nil
}
