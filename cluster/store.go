// File: store.go
// Role: Cluster lifecycle (create, hit moves, delete, merge-and-delete).
//
// Determinism:
//   - List() and Select() return clusters in creation order.
//
// Concurrency:
//   - The catalog, creation order and hit ownership are guarded by mu.
package cluster

import (
	"fmt"
	"sync"

	"github.com/larreco/larmerge/detector"
)

// StoreOption configures a Store before use.
type StoreOption func(s *Store)

// WithMaxClusters caps the number of live clusters; Create fails with ErrCapacity beyond it.
// Non-positive values disable the cap.
func WithMaxClusters(n int) StoreOption {
	return func(s *Store) { s.maxClusters = n }
}

// CreateOption configures a single cluster at creation.
type CreateOption func(c *Cluster)

// WithAvailable sets the initial availability (default true).
func WithAvailable(available bool) CreateOption {
	return func(c *Cluster) { c.available = available }
}

// Store owns the clusters of one event.
type Store struct {
	mu sync.RWMutex

	maxClusters int

	nextID   ID
	clusters map[ID]*Cluster
	order    []ID
	owner    map[*detector.Hit]ID
}

// NewStore creates an empty Store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		nextID:   1,
		clusters: make(map[ID]*Cluster),
		owner:    make(map[*detector.Hit]ID),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create registers a new cluster holding hits.
//
// Implementation:
//   - Stage 1: Reject nil hits and hits owned by a live cluster (also duplicates within hits).
//   - Stage 2: Enforce the WithMaxClusters cap.
//   - Stage 3: Allocate the next ID, cache derived quantities, record ownership.
//
// Errors:
//   - ErrNilHit, ErrHitOwned, ErrCapacity.
//
// Complexity:
//   - Time O(n), Space O(n) for n hits.
func (s *Store) Create(hits []*detector.Hit, opts ...CreateOption) (*Cluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. Validate hits before touching any state
	seen := make(map[*detector.Hit]struct{}, len(hits))
	for _, h := range hits {
		if h == nil {
			return nil, ErrNilHit
		}
		if _, dup := seen[h]; dup {
			return nil, fmt.Errorf("%w: hit %d listed twice", ErrHitOwned, h.ID)
		}
		seen[h] = struct{}{}
		if owner, ok := s.owner[h]; ok {
			return nil, fmt.Errorf("%w: hit %d belongs to cluster %d", ErrHitOwned, h.ID, owner)
		}
	}

	// 2. Capacity
	if s.maxClusters > 0 && len(s.clusters) >= s.maxClusters {
		return nil, ErrCapacity
	}

	// 3. Register
	c := &Cluster{id: s.nextID, available: true}
	for _, opt := range opts {
		opt(c)
	}
	c.hits = append(make([]*detector.Hit, 0, len(hits)), hits...)
	c.refresh()

	s.nextID++
	s.clusters[c.id] = c
	s.order = append(s.order, c.id)
	for _, h := range hits {
		s.owner[h] = c.id
	}

	return c, nil
}

// Get returns the live cluster for id.
func (s *Store) Get(id ID) (*Cluster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clusters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrClusterNotFound, id)
	}

	return c, nil
}

// Has reports whether id names a live cluster.
func (s *Store) Has(id ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.clusters[id]

	return ok
}

// Len returns the number of live clusters.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.clusters)
}

// NHits returns the number of hits held by live clusters.
func (s *Store) NHits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.owner)
}

// Owner returns the live cluster holding h, if any.
func (s *Store) Owner(h *detector.Hit) (ID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.owner[h]

	return id, ok
}

// List returns the live clusters in creation order.
func (s *Store) List() []*Cluster {
	return s.Select(nil)
}

// Select returns the live clusters accepted by keep, in creation order.
// A nil keep accepts every cluster.
func (s *Store) Select(keep func(*Cluster) bool) []*Cluster {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Cluster, 0, len(s.order))
	for _, id := range s.order {
		c := s.clusters[id]
		if keep == nil || keep(c) {
			out = append(out, c)
		}
	}

	return out
}

// SetAvailable changes the availability flag of a live cluster.
func (s *Store) SetAvailable(id ID, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clusters[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrClusterNotFound, id)
	}
	c.available = available

	return nil
}

// AddHits appends unowned hits to a live cluster.
func (s *Store) AddHits(id ID, hits []*detector.Hit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clusters[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrClusterNotFound, id)
	}
	seen := make(map[*detector.Hit]struct{}, len(hits))
	for _, h := range hits {
		if h == nil {
			return ErrNilHit
		}
		if _, dup := seen[h]; dup {
			return fmt.Errorf("%w: hit %d listed twice", ErrHitOwned, h.ID)
		}
		seen[h] = struct{}{}
		if owner, owned := s.owner[h]; owned {
			return fmt.Errorf("%w: hit %d belongs to cluster %d", ErrHitOwned, h.ID, owner)
		}
	}

	c.hits = append(c.hits, hits...)
	for _, h := range hits {
		s.owner[h] = id
	}
	c.refresh()

	return nil
}

// RemoveHits detaches hits from a live cluster. The cluster stays registered even if it
// becomes empty; callers decide whether to Delete it.
func (s *Store) RemoveHits(id ID, hits []*detector.Hit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clusters[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrClusterNotFound, id)
	}
	drop := make(map[*detector.Hit]struct{}, len(hits))
	for _, h := range hits {
		if owner, owned := s.owner[h]; !owned || owner != id {
			return fmt.Errorf("%w: cluster %d", ErrHitNotInCluster, id)
		}
		drop[h] = struct{}{}
	}

	kept := c.hits[:0:0]
	for _, h := range c.hits {
		if _, gone := drop[h]; gone {
			delete(s.owner, h)
			continue
		}
		kept = append(kept, h)
	}
	c.hits = kept
	c.refresh()

	return nil
}

// Delete retires a live cluster and releases its hits.
func (s *Store) Delete(id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clusters[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrClusterNotFound, id)
	}
	for _, h := range c.hits {
		delete(s.owner, h)
	}
	s.retireLocked(c)

	return nil
}

// MergeAndDelete moves every hit of member onto seed and retires member.
//
// Implementation:
//   - Stage 1: Validate both handles (ErrClusterNotFound), identity (ErrSelfMerge)
//     and member availability (ErrUnavailable) before mutating anything.
//   - Stage 2: Append member hits to seed, transfer ownership, refresh seed caches.
//   - Stage 3: Retire member.
//
// Behavior highlights:
//   - All-or-nothing: a failed call leaves the store unchanged.
//   - The seed keeps its availability.
//
// Complexity:
//   - Time O(h + n) for h member hits and n live clusters (creation-order bookkeeping).
func (s *Store) MergeAndDelete(seed, member ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. Validate
	if seed == member {
		return fmt.Errorf("%w: %d", ErrSelfMerge, seed)
	}
	sc, ok := s.clusters[seed]
	if !ok {
		return fmt.Errorf("%w: seed %d", ErrClusterNotFound, seed)
	}
	mc, ok := s.clusters[member]
	if !ok {
		return fmt.Errorf("%w: member %d", ErrClusterNotFound, member)
	}
	if !mc.available {
		return fmt.Errorf("%w: member %d", ErrUnavailable, member)
	}

	// 2. Reparent hits
	sc.hits = append(sc.hits, mc.hits...)
	for _, h := range mc.hits {
		s.owner[h] = seed
	}
	sc.refresh()

	// 3. Retire member
	s.retireLocked(mc)

	return nil
}

// retireLocked removes c from the catalog. Caller holds mu.
func (s *Store) retireLocked(c *Cluster) {
	c.retired = true
	delete(s.clusters, c.id)
	for i, id := range s.order {
		if id == c.id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
