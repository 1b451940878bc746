package history

import (
	"sync"
	"time"

	"github.com/tokenpulse/oracle/internal/domain"
)

// DefaultCapacity bounds snapshot and consensus retention per asset.
// At a 5-minute window this covers roughly two days per asset.
const DefaultCapacity = 576

// Store is an in-memory, append-only ledger of window snapshots and
// consensus results, bounded per asset by a ring buffer (oldest evicted
// first). It is injected into the trend and consensus paths as a
// dependency, never reached as global state.
type Store struct {
	mu        sync.RWMutex
	capacity  int
	snapshots map[string]*ring[domain.WindowSnapshot]
	consensus map[string]*ring[domain.ConsensusResult]
}

func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity:  capacity,
		snapshots: make(map[string]*ring[domain.WindowSnapshot]),
		consensus: make(map[string]*ring[domain.ConsensusResult]),
	}
}

func (s *Store) AppendSnapshot(snap domain.WindowSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.snapshots[snap.AssetID]
	if !exists {
		r = newRing[domain.WindowSnapshot](s.capacity)
		s.snapshots[snap.AssetID] = r
	}
	r.push(snap)
}

func (s *Store) AppendConsensus(result domain.ConsensusResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.consensus[result.AssetID]
	if !exists {
		r = newRing[domain.ConsensusResult](s.capacity)
		s.consensus[result.AssetID] = r
	}
	r.push(result)
}

func (s *Store) LatestSnapshot(assetID string) (domain.WindowSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.snapshots[assetID]
	if !exists || r.size == 0 {
		return domain.WindowSnapshot{}, false
	}
	return r.last(), true
}

// RecentSnapshots returns up to n snapshots in chronological order.
func (s *Store) RecentSnapshots(assetID string, n int) []domain.WindowSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.snapshots[assetID]
	if !exists {
		return nil
	}
	return r.lastN(n)
}

// SnapshotsSince returns all retained snapshots whose window ended at or
// after since, in chronological order.
func (s *Store) SnapshotsSince(assetID string, since time.Time) []domain.WindowSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.snapshots[assetID]
	if !exists {
		return nil
	}

	all := r.lastN(r.size)
	var filtered []domain.WindowSnapshot
	for _, snap := range all {
		if !snap.WindowEnd.Before(since) {
			filtered = append(filtered, snap)
		}
	}
	return filtered
}

func (s *Store) LatestConsensus(assetID string) (domain.ConsensusResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.consensus[assetID]
	if !exists || r.size == 0 {
		return domain.ConsensusResult{}, false
	}
	return r.last(), true
}

func (s *Store) RecentConsensus(assetID string, n int) []domain.ConsensusResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.consensus[assetID]
	if !exists {
		return nil
	}
	return r.lastN(n)
}

// Assets lists every asset with at least one retained snapshot.
func (s *Store) Assets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assets := make([]string, 0, len(s.snapshots))
	for asset := range s.snapshots {
		assets = append(assets, asset)
	}
	return assets
}

// --- Ring buffer ---

type ring[T any] struct {
	buf   []T
	start int
	size  int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) push(v T) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = v
		r.size++
		return
	}
	// Full: overwrite the oldest slot.
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

func (r *ring[T]) last() T {
	return r.buf[(r.start+r.size-1)%len(r.buf)]
}

func (r *ring[T]) lastN(n int) []T {
	if n > r.size {
		n = r.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = r.buf[(r.start+r.size-n+i)%len(r.buf)]
	}
	return out
}
