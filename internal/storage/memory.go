package storage

import (
	"context"
	"sync"

	"expensetracker/internal/core"
)

// MemoryStore holds the ledger in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu      sync.Mutex
	items   []core.Expense
	saved   bool
	saves   int
	saveErr error
}

func NewMemoryStore(seed ...core.Expense) *MemoryStore {
	s := &MemoryStore{}
	if len(seed) > 0 {
		s.items = append([]core.Expense(nil), seed...)
		s.saved = true
	}
	return s
}

func (s *MemoryStore) Load(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return nil, ErrNotFound
	}
	return append([]core.Expense(nil), s.items...), nil
}

func (s *MemoryStore) Save(_ context.Context, expenses []core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.items = append([]core.Expense(nil), expenses...)
	s.saved = true
	return nil
}

// FailSaves makes subsequent saves return err; nil restores normal behavior.
func (s *MemoryStore) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// Saves reports how many times Save was called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
