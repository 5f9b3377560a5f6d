// Package history keeps a file-based record of past filter runs so that a
// user can find the export of an earlier run and compare match counts
// across captures.
//
// Records live in a single index.json under the store directory, rewritten
// atomically on every change.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/trafficsieve/trafficsieve/pkg/jsonutil"
)

// ErrNotFound is returned when no record has the requested ID.
var ErrNotFound = errors.New("history: run not found")

// Store manages run records using JSON file storage.
// It is safe for concurrent use within one process.
type Store struct {
	mu       sync.RWMutex
	basePath string
	index    *storeIndex
}

type storeIndex struct {
	Runs map[string]*RunRecord `json:"runs"`
}

// RunRecord is one completed run.
type RunRecord struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Input       string    `json:"input"`
	URLKeyword  string    `json:"url_keyword"`
	ContentType string    `json:"content_type,omitempty"`
	MatchMode   string    `json:"match_mode,omitempty"`
	Scanner     string    `json:"scanner,omitempty"`

	// Mode is the export mode: "context" or "json".
	Mode       string `json:"mode"`
	OutputPath string `json:"output_path"`

	Matched    int   `json:"matched"`
	Entries    int   `json:"entries"`
	Candidates int   `json:"candidates"`
	Repaired   int   `json:"repaired"`
	DurationMs int64 `json:"duration_ms"`

	Version string   `json:"version"`
	Tags    []string `json:"tags,omitempty"`
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	// Keyword matches records whose URLKeyword contains it, ignoring case.
	Keyword string
	Since   time.Time
	Limit   int
}

// Stats summarises the store.
type Stats struct {
	TotalRuns        int       `json:"total_runs"`
	TotalMatched     int       `json:"total_matched"`
	OldestRun        time.Time `json:"oldest_run"`
	NewestRun        time.Time `json:"newest_run"`
	StorageSizeBytes int64     `json:"storage_size_bytes"`
}

// NewStore opens (creating if needed) the store at basePath.
func NewStore(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, err
	}
	s := &Store{
		basePath: basePath,
		index:    &storeIndex{Runs: make(map[string]*RunRecord)},
	}
	if err := s.loadIndex(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("history: load index: %w", err)
	}
	return s, nil
}

func (s *Store) indexPath() string {
	return filepath.Join(s.basePath, "index.json")
}

func (s *Store) loadIndex() error {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		return err
	}
	if err := jsonutil.Unmarshal(data, s.index); err != nil {
		return err
	}
	if s.index.Runs == nil {
		s.index.Runs = make(map[string]*RunRecord)
	}
	return nil
}

// saveIndex writes a temporary file in the same directory and renames it
// over the index, so readers never see a partial index.
func (s *Store) saveIndex() error {
	data, err := jsonutil.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.basePath, "index-*.json.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, s.indexPath()); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// Save stores record, replacing any record with the same ID.
func (s *Store) Save(record *RunRecord) error {
	if record == nil || record.ID == "" {
		return errors.New("history: record needs an ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index.Runs[record.ID] = copyRecord(record)
	return s.saveIndex()
}

func copyRecord(r *RunRecord) *RunRecord {
	c := *r
	if r.Tags != nil {
		c.Tags = append([]string(nil), r.Tags...)
	}
	return &c
}

// Get retrieves a record by ID.
func (s *Store) Get(id string) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.index.Runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return copyRecord(r), nil
}

// List returns matching records, newest first.
func (s *Store) List(f Filter) []*RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kw := strings.ToLower(f.Keyword)
	var out []*RunRecord
	for _, r := range s.index.Runs {
		if kw != "" && !strings.Contains(strings.ToLower(r.URLKeyword), kw) {
			continue
		}
		if r.Timestamp.Before(f.Since) {
			continue
		}
		out = append(out, copyRecord(r))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// Latest returns the newest record, or ErrNotFound on an empty store.
func (s *Store) Latest() (*RunRecord, error) {
	recs := s.List(Filter{Limit: 1})
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs[0], nil
}

// Delete removes a record.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index.Runs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.index.Runs, id)
	return s.saveIndex()
}

// Prune removes records older than olderThan and returns how many went.
func (s *Store) Prune(olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	count := 0
	for id, r := range s.index.Runs {
		if r.Timestamp.Before(cutoff) {
			delete(s.index.Runs, id)
			count++
		}
	}
	if count > 0 {
		if err := s.saveIndex(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// Stats returns storage statistics.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{TotalRuns: len(s.index.Runs)}
	for _, r := range s.index.Runs {
		st.TotalMatched += r.Matched
		if st.OldestRun.IsZero() || r.Timestamp.Before(st.OldestRun) {
			st.OldestRun = r.Timestamp
		}
		if r.Timestamp.After(st.NewestRun) {
			st.NewestRun = r.Timestamp
		}
	}
	if info, err := os.Stat(s.indexPath()); err == nil {
		st.StorageSizeBytes = info.Size()
	}
	return st
}
