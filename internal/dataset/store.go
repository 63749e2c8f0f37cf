// Package dataset owns the current dashboard snapshot. One Store instance
// is wired through the application; there is no package-level state.
package dataset

import (
	"sync"

	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/pkg/contracts/domain"
)

// Store holds the active snapshot behind a read/write lock. Readers get the
// snapshot pointer and keep using it even while a reload swaps in a newer
// one; snapshots themselves are immutable.
type Store struct {
	mu      sync.RWMutex
	current *domain.Snapshot
}

// NewStore creates an empty store. Current returns nil until the first Swap.
func NewStore() *Store {
	return &Store{}
}

// Current returns the active snapshot, nil before the first successful load.
func (s *Store) Current() *domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Swap installs next as the active snapshot and returns the one it replaced.
// A failed load cycle never calls Swap, so the previous snapshot stays
// visible to readers.
func (s *Store) Swap(next *domain.Snapshot) *domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current
	s.current = next
	return prev
}

// Loaded reports whether a snapshot has been installed.
func (s *Store) Loaded() bool {
	return s.Current() != nil
}
