package pfo

import (
	"errors"
	"fmt"
	"sync"

	"github.com/larreco/larmerge/cluster"
	"github.com/larreco/larmerge/detector"
)

var (
	// ErrNilClusters is returned by NewStore when no cluster.Store is given.
	ErrNilClusters = errors.New("pfo: cluster store is nil")

	// ErrPfoNotFound indicates an unknown or deleted PFO handle.
	ErrPfoNotFound = errors.New("pfo: pfo not found")

	// ErrSelfMerge indicates MergeAndDelete was asked to fold a PFO into itself.
	ErrSelfMerge = errors.New("pfo: cannot merge a pfo into itself")

	// ErrSelfRelation indicates a PFO was made its own parent.
	ErrSelfRelation = errors.New("pfo: pfo cannot be its own parent")

	// ErrClusterOwned indicates a cluster already belongs to a PFO.
	ErrClusterOwned = errors.New("pfo: cluster already belongs to a pfo")
)

// ID is the stable handle of a PFO. Zero is never assigned.
type ID uint64

// Vertex is an interaction point attached to a PFO.
type Vertex struct {
	Position detector.Vector `yaml:"position"`
}

// Pfo is one particle-flow object. Fields are read through the accessors; all mutation
// goes through the Store.
type Pfo struct {
	id        ID
	clusters  []cluster.ID
	parent    ID
	daughters []ID
	vertices  []Vertex
	retired   bool
}

// ID returns the handle.
func (p *Pfo) ID() ID { return p.id }

// Clusters returns a copy of the cluster handles in insertion order.
func (p *Pfo) Clusters() []cluster.ID { return append([]cluster.ID(nil), p.clusters...) }

// Parent returns the parent handle, if any.
func (p *Pfo) Parent() (ID, bool) { return p.parent, p.parent != 0 }

// Daughters returns a copy of the daughter handles.
func (p *Pfo) Daughters() []ID { return append([]ID(nil), p.daughters...) }

// Vertices returns a copy of the vertices.
func (p *Pfo) Vertices() []Vertex { return append([]Vertex(nil), p.vertices...) }

// Retired reports whether the PFO was deleted.
func (p *Pfo) Retired() bool { return p.retired }

// Store owns the PFOs of one event.
type Store struct {
	mu sync.RWMutex

	clusters *cluster.Store
	nextID   ID
	pfos     map[ID]*Pfo
	order    []ID
	owner    map[cluster.ID]ID
}

// NewStore returns an empty Store over clusters.
func NewStore(clusters *cluster.Store) (*Store, error) {
	if clusters == nil {
		return nil, ErrNilClusters
	}

	return &Store{
		clusters: clusters,
		nextID:   1,
		pfos:     make(map[ID]*Pfo),
		owner:    make(map[cluster.ID]ID),
	}, nil
}

// Clusters returns the wrapped cluster store.
func (s *Store) Clusters() *cluster.Store { return s.clusters }

// Create registers a PFO made of the given live, unowned clusters.
func (s *Store) Create(ids ...cluster.ID) (*Pfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkFreeLocked(ids...); err != nil {
		return nil, err
	}
	p := &Pfo{id: s.nextID, clusters: append([]cluster.ID(nil), ids...)}
	s.nextID++
	s.pfos[p.id] = p
	s.order = append(s.order, p.id)
	for _, cid := range ids {
		s.owner[cid] = p.id
	}

	return p, nil
}

// checkFreeLocked verifies that every id is a live cluster owned by no PFO.
func (s *Store) checkFreeLocked(ids ...cluster.ID) error {
	seen := make(map[cluster.ID]struct{}, len(ids))
	for _, cid := range ids {
		if !s.clusters.Has(cid) {
			return fmt.Errorf("%w: %d", cluster.ErrClusterNotFound, cid)
		}
		if _, dup := seen[cid]; dup {
			return fmt.Errorf("%w: cluster %d listed twice", ErrClusterOwned, cid)
		}
		seen[cid] = struct{}{}
		if owner, ok := s.owner[cid]; ok {
			return fmt.Errorf("%w: cluster %d belongs to pfo %d", ErrClusterOwned, cid, owner)
		}
	}

	return nil
}

// Get returns the live PFO for id.
func (s *Store) Get(id ID) (*Pfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getLocked(id)
}

func (s *Store) getLocked(id ID) (*Pfo, error) {
	p, ok := s.pfos[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrPfoNotFound, id)
	}

	return p, nil
}

// Len returns the number of live PFOs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.pfos)
}

// List returns the live PFOs in creation order.
func (s *Store) List() []*Pfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Pfo, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.pfos[id])
	}

	return out
}

// Owner returns the PFO a cluster belongs to.
func (s *Store) Owner(cid cluster.ID) (ID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.owner[cid]

	return id, ok
}

// AddCluster attaches a live, unowned cluster to a PFO.
func (s *Store) AddCluster(id ID, cid cluster.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.getLocked(id)
	if err != nil {
		return err
	}
	if err := s.checkFreeLocked(cid); err != nil {
		return err
	}
	p.clusters = append(p.clusters, cid)
	s.owner[cid] = id

	return nil
}

// SetParentDaughter makes parent the parent of daughter, replacing any earlier parent.
func (s *Store) SetParentDaughter(parent, daughter ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if parent == daughter {
		return fmt.Errorf("%w: %d", ErrSelfRelation, parent)
	}
	pp, err := s.getLocked(parent)
	if err != nil {
		return err
	}
	dp, err := s.getLocked(daughter)
	if err != nil {
		return err
	}
	s.linkLocked(pp, dp)

	return nil
}

// linkLocked records the relation pp → dp, detaching dp from its previous parent.
func (s *Store) linkLocked(pp, dp *Pfo) {
	if old, ok := s.pfos[dp.parent]; ok {
		old.daughters = without(old.daughters, dp.id)
	}
	dp.parent = pp.id
	pp.daughters = append(pp.daughters, dp.id)
}

// AddVertex attaches v to a PFO.
func (s *Store) AddVertex(id ID, v Vertex) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.getLocked(id)
	if err != nil {
		return err
	}
	p.vertices = append(p.vertices, v)

	return nil
}

// Delete retires a PFO. Its clusters stay in the cluster store, released from the PFO;
// its daughters lose their parent and its parent forgets it.
func (s *Store) Delete(id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.getLocked(id)
	if err != nil {
		return err
	}
	s.deleteLocked(p)

	return nil
}

func (s *Store) deleteLocked(p *Pfo) {
	if parent, ok := s.pfos[p.parent]; ok {
		parent.daughters = without(parent.daughters, p.id)
	}
	for _, did := range p.daughters {
		if d, ok := s.pfos[did]; ok {
			d.parent = 0
		}
	}
	for _, cid := range p.clusters {
		delete(s.owner, cid)
	}
	p.retired = true
	delete(s.pfos, p.id)
	for i, id := range s.order {
		if id == p.id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// ClusterList returns the live clusters of a PFO in insertion order.
func (s *Store) ClusterList(id ID) ([]*cluster.Cluster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.getLocked(id)
	if err != nil {
		return nil, err
	}

	return s.resolveLocked(p)
}

// ThreeDClusters returns the clusters of a PFO whose view is detector.View3D.
func (s *Store) ThreeDClusters(id ID) ([]*cluster.Cluster, error) {
	cs, err := s.ClusterList(id)
	if err != nil {
		return nil, err
	}
	out := cs[:0]
	for _, c := range cs {
		if c.View() == detector.View3D {
			out = append(out, c)
		}
	}

	return out, nil
}

func (s *Store) resolveLocked(p *Pfo) ([]*cluster.Cluster, error) {
	out := make([]*cluster.Cluster, 0, len(p.clusters))
	for _, cid := range p.clusters {
		c, err := s.clusters.Get(cid)
		if err != nil {
			return nil, fmt.Errorf("pfo %d: %w", p.id, err)
		}
		out = append(out, c)
	}

	return out, nil
}

// ParentCluster returns the cluster of the given view with the most hits, or nil.
// On equal hit counts the earlier cluster wins.
func ParentCluster(clusters []*cluster.Cluster, view detector.View) *cluster.Cluster {
	var best *cluster.Cluster
	for _, c := range clusters {
		if c.View() != view {
			continue
		}
		if best == nil || c.NHits() > best.NHits() {
			best = c
		}
	}

	return best
}

// MergeAndDelete folds remove into enlarge (see the package documentation).
//
// Errors:
//   - ErrSelfMerge, ErrPfoNotFound.
//   - cluster.ErrClusterNotFound / cluster.ErrUnavailable when a cluster of remove cannot be merged.
func (s *Store) MergeAndDelete(enlarge, remove ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. Validate
	if enlarge == remove {
		return fmt.Errorf("%w: %d", ErrSelfMerge, enlarge)
	}
	ep, err := s.getLocked(enlarge)
	if err != nil {
		return err
	}
	rp, err := s.getLocked(remove)
	if err != nil {
		return err
	}
	targets, err := s.resolveLocked(ep)
	if err != nil {
		return err
	}
	moved, err := s.resolveLocked(rp)
	if err != nil {
		return err
	}
	views := make(map[detector.View]struct{}, len(targets))
	for _, c := range targets {
		views[c.View()] = struct{}{}
	}
	for _, c := range moved {
		if _, merges := views[c.View()]; merges && !c.Available() {
			return fmt.Errorf("pfo %d: %w: %d", remove, cluster.ErrUnavailable, c.ID())
		}
		views[c.View()] = struct{}{}
	}

	// 2. Delete remove and hand its daughters over
	daughters := rp.daughters
	rp.daughters = nil
	s.deleteLocked(rp)
	for _, did := range daughters {
		d, ok := s.pfos[did]
		if !ok {
			continue
		}
		if d == ep {
			d.parent = 0
			continue
		}
		s.linkLocked(ep, d)
	}

	// 3. Vertices of remove are dropped with it; fold its clusters
	for _, c := range moved {
		if parent := ParentCluster(targets, c.View()); parent != nil {
			if err := s.clusters.MergeAndDelete(parent.ID(), c.ID()); err != nil {
				return fmt.Errorf("pfo %d into %d: %w", remove, enlarge, err)
			}
			continue
		}
		ep.clusters = append(ep.clusters, c.ID())
		s.owner[c.ID()] = ep.id
		targets = append(targets, c)
	}

	return nil
}

func without(ids []ID, id ID) []ID {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}

	return out
}
