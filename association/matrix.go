// File: matrix.go
// Role: Association matrix storage and deterministic accessors.
//
// Determinism:
//   - Sources(), Targets() and Edges() sort by cluster.Compare; insertion order is irrelevant.
package association

import (
	"errors"
	"fmt"

	"github.com/larreco/larmerge/cluster"
)

var (
	// ErrNilCluster indicates a nil *cluster.Cluster was passed to Add.
	ErrNilCluster = errors.New("association: nil cluster")

	// ErrSelfAssociation indicates an edge from a cluster to itself.
	ErrSelfAssociation = errors.New("association: cluster cannot associate with itself")
)

// Edge is a directed association From→To.
type Edge struct {
	From *cluster.Cluster
	To   *cluster.Cluster
}

// Matrix maps each source cluster to the set of clusters it is associated with.
// A source may stay registered with an empty target set (see volume.WithSymmetric).
type Matrix struct {
	nodes map[cluster.ID]*cluster.Cluster

	// adj[from][to] = struct{}{}
	adj map[cluster.ID]map[cluster.ID]struct{}
}

// NewMatrix creates an empty Matrix.
func NewMatrix() *Matrix {
	return &Matrix{
		nodes: make(map[cluster.ID]*cluster.Cluster),
		adj:   make(map[cluster.ID]map[cluster.ID]struct{}),
	}
}

// Add inserts the edge from→to (idempotent).
func (m *Matrix) Add(from, to *cluster.Cluster) error {
	if from == nil || to == nil {
		return ErrNilCluster
	}
	if from.ID() == to.ID() {
		return fmt.Errorf("%w: %d", ErrSelfAssociation, from.ID())
	}

	m.nodes[from.ID()] = from
	m.nodes[to.ID()] = to
	targets, ok := m.adj[from.ID()]
	if !ok {
		targets = make(map[cluster.ID]struct{})
		m.adj[from.ID()] = targets
	}
	targets[to.ID()] = struct{}{}

	return nil
}

// Remove deletes the edge from→to if present. The source entry stays, possibly empty.
func (m *Matrix) Remove(from, to cluster.ID) {
	if targets, ok := m.adj[from]; ok {
		delete(targets, to)
	}
}

// RemoveNode drops the source entry of id together with its outgoing edges.
// Incoming edges are untouched.
func (m *Matrix) RemoveNode(id cluster.ID) {
	delete(m.adj, id)
	if m.InDegree(id) == 0 {
		delete(m.nodes, id)
	}
}

// Has reports whether the edge from→to exists.
func (m *Matrix) Has(from, to cluster.ID) bool {
	_, ok := m.adj[from][to]

	return ok
}

// HasSource reports whether id has a source entry (possibly with no targets).
func (m *Matrix) HasSource(id cluster.ID) bool {
	_, ok := m.adj[id]

	return ok
}

// Cluster returns the cluster registered under id.
func (m *Matrix) Cluster(id cluster.ID) (*cluster.Cluster, bool) {
	c, ok := m.nodes[id]

	return c, ok
}

// Sources returns every cluster with a source entry, sorted by cluster.Compare.
func (m *Matrix) Sources() []*cluster.Cluster {
	out := make([]*cluster.Cluster, 0, len(m.adj))
	for id := range m.adj {
		out = append(out, m.nodes[id])
	}
	cluster.Sort(out)

	return out
}

// Targets returns the clusters associated with id, sorted by cluster.Compare.
func (m *Matrix) Targets(id cluster.ID) []*cluster.Cluster {
	targets := m.adj[id]
	out := make([]*cluster.Cluster, 0, len(targets))
	for t := range targets {
		out = append(out, m.nodes[t])
	}
	cluster.Sort(out)

	return out
}

// Edges returns all edges ordered by source, then target, both by cluster.Compare.
func (m *Matrix) Edges() []Edge {
	var out []Edge
	for _, from := range m.Sources() {
		for _, to := range m.Targets(from.ID()) {
			out = append(out, Edge{From: from, To: to})
		}
	}

	return out
}

// OutDegree returns the number of targets of id.
func (m *Matrix) OutDegree(id cluster.ID) int { return len(m.adj[id]) }

// InDegree returns the number of sources pointing at id.
func (m *Matrix) InDegree(id cluster.ID) int {
	n := 0
	for _, targets := range m.adj {
		if _, ok := targets[id]; ok {
			n++
		}
	}

	return n
}

// Len returns the number of source entries.
func (m *Matrix) Len() int { return len(m.adj) }

// EdgeCount returns the number of edges.
func (m *Matrix) EdgeCount() int {
	n := 0
	for _, targets := range m.adj {
		n += len(targets)
	}

	return n
}

// Empty reports whether the matrix holds no edges.
func (m *Matrix) Empty() bool { return m.EdgeCount() == 0 }

// Clone returns an independent copy. Cluster pointers are shared.
func (m *Matrix) Clone() *Matrix {
	c := NewMatrix()
	for id, n := range m.nodes {
		c.nodes[id] = n
	}
	for from, targets := range m.adj {
		cp := make(map[cluster.ID]struct{}, len(targets))
		for to := range targets {
			cp[to] = struct{}{}
		}
		c.adj[from] = cp
	}

	return c
}

// Equal reports whether m and o hold the same source entries and edges.
func (m *Matrix) Equal(o *Matrix) bool {
	if len(m.adj) != len(o.adj) {
		return false
	}
	for from, targets := range m.adj {
		other, ok := o.adj[from]
		if !ok || len(other) != len(targets) {
			return false
		}
		for to := range targets {
			if _, ok := other[to]; !ok {
				return false
			}
		}
	}

	return true
}

// Pairs returns the edges as ID pairs in Edges() order; handy for logs and test diffs.
func (m *Matrix) Pairs() [][2]cluster.ID {
	edges := m.Edges()
	out := make([][2]cluster.ID, len(edges))
	for i, e := range edges {
		out[i] = [2]cluster.ID{e.From.ID(), e.To.ID()}
	}

	return out
}
