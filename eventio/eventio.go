package eventio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/larreco/larmerge/cluster"
	"github.com/larreco/larmerge/detector"
	"github.com/larreco/larmerge/pfo"
)

var (
	// ErrParse indicates a malformed fixture document.
	ErrParse = errors.New("eventio: cannot parse event")

	// ErrUnknownHit indicates a cluster lists a hit ID the event does not define.
	ErrUnknownHit = errors.New("eventio: unknown hit")

	// ErrUnknownLabel indicates a reference to an undefined cluster or PFO label.
	ErrUnknownLabel = errors.New("eventio: unknown label")

	// ErrDuplicate indicates a hit ID or label defined twice.
	ErrDuplicate = errors.New("eventio: duplicate definition")
)

// HitSpec is the fixture form of a detector.Hit.
type HitSpec struct {
	ID       uint64             `yaml:"id"`
	Position detector.Vector    `yaml:"position"`
	Energy   float64            `yaml:"energy"`
	View     string             `yaml:"view"`
	Volume   *detector.VolumeID `yaml:"volume,omitempty"`
}

// ClusterSpec is the fixture form of a cluster.
type ClusterSpec struct {
	Label     string   `yaml:"label"`
	Hits      []uint64 `yaml:"hits"`
	Available *bool    `yaml:"available,omitempty"`
}

// PfoSpec is the fixture form of a PFO.
type PfoSpec struct {
	Label    string       `yaml:"label"`
	Clusters []string     `yaml:"clusters"`
	Parent   string       `yaml:"parent,omitempty"`
	Vertices []pfo.Vertex `yaml:"vertices,omitempty"`
}

// EventSpec is one fixture document.
type EventSpec struct {
	EventID  string        `yaml:"event_id"`
	Hits     []HitSpec     `yaml:"hits"`
	Clusters []ClusterSpec `yaml:"clusters"`
	Pfos     []PfoSpec     `yaml:"pfos"`
}

// Decode reads every YAML document of r. Unknown keys are rejected.
func Decode(r io.Reader) ([]EventSpec, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var out []EventSpec
	for {
		var spec EventSpec
		err := dec.Decode(&spec)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: document %d: %v", ErrParse, len(out)+1, err)
		}
		out = append(out, spec)
	}
}

// ReadFile decodes the fixture file at path.
func ReadFile(path string) ([]EventSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("eventio: %w", err)
	}

	return Decode(bytes.NewReader(data))
}

// Event is a built event: its stores and the labels needed to report results.
type Event struct {
	ID       string
	Clusters *cluster.Store
	Pfos     *pfo.Store

	clusterLabels map[cluster.ID]string
	pfoLabels     map[pfo.ID]string
}

// ClusterLabel returns the fixture label of a cluster.
func (e *Event) ClusterLabel(id cluster.ID) string { return e.clusterLabels[id] }

// PfoLabel returns the fixture label of a PFO.
func (e *Event) PfoLabel(id pfo.ID) string { return e.pfoLabels[id] }

// Build creates the stores described by spec.
//
// Implementation:
//   - Stage 1: Hits, keyed by ID; views parsed, volume tags resolved.
//   - Stage 2: Clusters in fixture order.
//   - Stage 3: PFOs in fixture order, then parent links and vertices.
func (spec EventSpec) Build(opts ...cluster.StoreOption) (*Event, error) {
	id := spec.EventID
	if id == "" {
		id = uuid.NewString()
	}
	cs := cluster.NewStore(opts...)
	ps, err := pfo.NewStore(cs)
	if err != nil {
		return nil, err
	}
	ev := &Event{
		ID:            id,
		Clusters:      cs,
		Pfos:          ps,
		clusterLabels: make(map[cluster.ID]string),
		pfoLabels:     make(map[pfo.ID]string),
	}

	// 1. Hits
	hits := make(map[uint64]*detector.Hit, len(spec.Hits))
	for _, h := range spec.Hits {
		if _, dup := hits[h.ID]; dup {
			return nil, fmt.Errorf("%w: event %s: hit %d", ErrDuplicate, id, h.ID)
		}
		view := detector.ViewUnknown
		if h.View != "" {
			if view, err = detector.ParseView(h.View); err != nil {
				return nil, fmt.Errorf("event %s: hit %d: %w", id, h.ID, err)
			}
		}
		hit := &detector.Hit{ID: h.ID, Position: h.Position, Energy: h.Energy, View: view}
		if h.Volume != nil {
			hit.Volume, hit.Tagged = *h.Volume, true
		}
		hits[h.ID] = hit
	}

	// 2. Clusters
	clusterByLabel := make(map[string]cluster.ID, len(spec.Clusters))
	for i, c := range spec.Clusters {
		label := c.Label
		if label == "" {
			label = fmt.Sprintf("c%d", i+1)
		}
		if _, dup := clusterByLabel[label]; dup {
			return nil, fmt.Errorf("%w: event %s: cluster %q", ErrDuplicate, id, label)
		}
		members := make([]*detector.Hit, 0, len(c.Hits))
		for _, hid := range c.Hits {
			h, ok := hits[hid]
			if !ok {
				return nil, fmt.Errorf("%w: event %s: cluster %q: hit %d", ErrUnknownHit, id, label, hid)
			}
			members = append(members, h)
		}
		var copts []cluster.CreateOption
		if c.Available != nil {
			copts = append(copts, cluster.WithAvailable(*c.Available))
		}
		made, err := cs.Create(members, copts...)
		if err != nil {
			return nil, fmt.Errorf("event %s: cluster %q: %w", id, label, err)
		}
		clusterByLabel[label] = made.ID()
		ev.clusterLabels[made.ID()] = label
	}

	// 3. PFOs
	pfoByLabel := make(map[string]pfo.ID, len(spec.Pfos))
	created := make([]pfo.ID, len(spec.Pfos))
	for i, p := range spec.Pfos {
		label := p.Label
		if label == "" {
			label = fmt.Sprintf("p%d", i+1)
		}
		if _, dup := pfoByLabel[label]; dup {
			return nil, fmt.Errorf("%w: event %s: pfo %q", ErrDuplicate, id, label)
		}
		ids := make([]cluster.ID, 0, len(p.Clusters))
		for _, cl := range p.Clusters {
			cid, ok := clusterByLabel[cl]
			if !ok {
				return nil, fmt.Errorf("%w: event %s: pfo %q: cluster %q", ErrUnknownLabel, id, label, cl)
			}
			ids = append(ids, cid)
		}
		made, err := ps.Create(ids...)
		if err != nil {
			return nil, fmt.Errorf("event %s: pfo %q: %w", id, label, err)
		}
		created[i] = made.ID()
		pfoByLabel[label] = made.ID()
		ev.pfoLabels[made.ID()] = label
	}
	for i, p := range spec.Pfos {
		self := created[i]
		for _, v := range p.Vertices {
			if err := ps.AddVertex(self, v); err != nil {
				return nil, err
			}
		}
		if p.Parent == "" {
			continue
		}
		parent, ok := pfoByLabel[p.Parent]
		if !ok {
			return nil, fmt.Errorf("%w: event %s: pfo %q: parent %q", ErrUnknownLabel, id, ev.pfoLabels[self], p.Parent)
		}
		if err := ps.SetParentDaughter(parent, self); err != nil {
			return nil, fmt.Errorf("event %s: pfo %q: %w", id, ev.pfoLabels[self], err)
		}
	}

	return ev, nil
}

// ClusterResult is the output form of a surviving cluster.
type ClusterResult struct {
	Label     string   `yaml:"label"`
	Hits      []uint64 `yaml:"hits"`
	Available bool     `yaml:"available"`
}

// PfoResult is the output form of a surviving PFO.
type PfoResult struct {
	Label     string   `yaml:"label"`
	Clusters  []string `yaml:"clusters"`
	Parent    string   `yaml:"parent,omitempty"`
	Daughters []string `yaml:"daughters,omitempty"`
}

// Result is the output document of one event.
type Result struct {
	EventID   string            `yaml:"event_id"`
	Error     string            `yaml:"error,omitempty"`
	Abandoned bool              `yaml:"abandoned,omitempty"`
	Stages    map[string]string `yaml:"stages,omitempty"`
	Clusters  []ClusterResult   `yaml:"clusters"`
	Pfos      []PfoResult       `yaml:"pfos,omitempty"`
}

// Snapshot describes the current content of the event stores. Hit IDs are sorted.
func (e *Event) Snapshot() Result {
	res := Result{EventID: e.ID, Clusters: []ClusterResult{}}
	for _, c := range e.Clusters.List() {
		ids := make([]uint64, 0, c.NHits())
		for _, h := range c.Hits() {
			ids = append(ids, h.ID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		res.Clusters = append(res.Clusters, ClusterResult{
			Label:     e.clusterLabels[c.ID()],
			Hits:      ids,
			Available: c.Available(),
		})
	}
	for _, p := range e.Pfos.List() {
		pr := PfoResult{Label: e.pfoLabels[p.ID()]}
		for _, cid := range p.Clusters() {
			pr.Clusters = append(pr.Clusters, e.clusterLabels[cid])
		}
		if parent, ok := p.Parent(); ok {
			pr.Parent = e.pfoLabels[parent]
		}
		for _, d := range p.Daughters() {
			pr.Daughters = append(pr.Daughters, e.pfoLabels[d])
		}
		res.Pfos = append(res.Pfos, pr)
	}

	return res
}

// Encode writes results to w, one YAML document each.
func Encode(w io.Writer, results []Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("eventio: encode %s: %w", r.EventID, err)
		}
	}

	return enc.Close()
}

// DecodeResults reads result documents written by Encode.
func DecodeResults(r io.Reader) ([]Result, error) {
	dec := yaml.NewDecoder(r)

	var out []Result
	for {
		var res Result
		err := dec.Decode(&res)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: result %d: %v", ErrParse, len(out)+1, err)
		}
		out = append(out, res)
	}
}

// ReadResults decodes the result file at path.
func ReadResults(path string) ([]Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("eventio: %w", err)
	}

	return DecodeResults(bytes.NewReader(data))
}
