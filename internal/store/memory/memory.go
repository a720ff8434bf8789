package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"trainerworkload/internal/core"
)

type entry struct {
	mu  sync.Mutex
	rec core.TrainerRecord
}

// Store keeps trainer records in memory. The map is guarded by mu; each
// record by its own entry lock.
type Store struct {
	mu       sync.RWMutex
	trainers map[string]*entry
}

func New() *Store {
	return &Store{trainers: make(map[string]*entry)}
}

// NewFromFile returns a store seeded from a JSON array of trainer records.
// A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var records []core.TrainerRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	if err := s.Seed(records...); err != nil {
		return nil, err
	}
	return s, nil
}

// Seed inserts records that are not present yet. Existing records are kept.
// Status is upper-cased and defaults to ACTIVE. Every record is validated
// before any is inserted, so a failed Seed leaves the store unchanged.
func (s *Store) Seed(records ...core.TrainerRecord) error {
	prepared := make([]core.TrainerRecord, 0, len(records))
	for _, r := range records {
		rec := r.Clone()
		rec.Status = core.TrainerStatus(strings.ToUpper(strings.TrimSpace(string(rec.Status))))
		if rec.Status == "" {
			rec.Status = core.StatusActive
		}
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("seed trainer: %w", err)
		}
		prepared = append(prepared, rec)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range prepared {
		if _, ok := s.trainers[rec.Username]; ok {
			continue
		}
		s.trainers[rec.Username] = &entry{rec: rec}
	}
	return nil
}

// Get returns a snapshot of the record.
func (s *Store) Get(_ context.Context, username string) (core.TrainerRecord, bool) {
	s.mu.RLock()
	e, ok := s.trainers[username]
	s.mu.RUnlock()
	if !ok {
		return core.TrainerRecord{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec.Clone(), true
}

func (s *Store) GetOrCreate(_ context.Context, username string, seed core.TrainerSeed) core.TrainerRecord {
	e := s.entry(username, seed)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec.Clone()
}

func (s *Store) Update(_ context.Context, username string, seed core.TrainerSeed, fn func(*core.TrainerRecord)) core.TrainerRecord {
	e := s.entry(username, seed)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.rec)
	return e.rec.Clone()
}

// Len returns the number of known trainers.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trainers)
}

func (s *Store) entry(username string, seed core.TrainerSeed) *entry {
	s.mu.RLock()
	e, ok := s.trainers[username]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.trainers[username]; ok {
		return e
	}
	e = &entry{rec: core.NewTrainerRecord(username, seed)}
	s.trainers[username] = e
	return e
}
