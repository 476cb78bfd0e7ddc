// Package topology maintains the node to link adjacency of a network.
//
// A Topology is a derived index: it is built from the link collection of a
// model and never edited independently of it. Parallel links between the same
// pair of nodes are allowed.
package topology

import (
	"slices"
)

// Endpoints are the connection ids of one link
type Endpoints struct {
	LinkID uint32
	Start  uint32
	End    uint32
}

// Topology is a node/link multigraph keyed by asset id
type Topology struct {
	// node id -> incident link ids, in insertion order
	nodeLinks map[uint32][]uint32
	links     map[uint32]Endpoints
}

// New creates an empty topology
func New() *Topology {
	return &Topology{
		nodeLinks: make(map[uint32][]uint32),
		links:     make(map[uint32]Endpoints),
	}
}

// Build indexes links in order. When nodeExists is non-nil, adjacency to an
// endpoint it rejects is omitted; the link itself is still recorded.
func Build(links []Endpoints, nodeExists func(id uint32) bool) *Topology {
	t := &Topology{
		nodeLinks: make(map[uint32][]uint32, len(links)),
		links:     make(map[uint32]Endpoints, len(links)),
	}
	for _, l := range links {
		t.addLink(l, nodeExists)
	}
	return t
}

// AddLink records a link between start and end. Adding a known link id is a no-op.
func (t *Topology) AddLink(linkID, start, end uint32) {
	t.addLink(Endpoints{LinkID: linkID, Start: start, End: end}, nil)
}

// AddLinkWhere records a link like AddLink but only indexes the endpoints
// for which nodeExists holds, matching Build.
func (t *Topology) AddLinkWhere(linkID, start, end uint32, nodeExists func(uint32) bool) {
	t.addLink(Endpoints{LinkID: linkID, Start: start, End: end}, nodeExists)
}

func (t *Topology) addLink(l Endpoints, nodeExists func(uint32) bool) {
	if _, ok := t.links[l.LinkID]; ok {
		return
	}
	t.links[l.LinkID] = l
	for _, n := range [2]uint32{l.Start, l.End} {
		if nodeExists != nil && !nodeExists(n) {
			continue
		}
		if !slices.Contains(t.nodeLinks[n], l.LinkID) {
			t.nodeLinks[n] = append(t.nodeLinks[n], l.LinkID)
		}
	}
}

// RemoveLink drops a link and its adjacency entries
func (t *Topology) RemoveLink(linkID uint32) {
	l, ok := t.links[linkID]
	if !ok {
		return
	}
	delete(t.links, linkID)
	for _, n := range [2]uint32{l.Start, l.End} {
		ids := t.nodeLinks[n]
		if i := slices.Index(ids, linkID); i >= 0 {
			ids = slices.Delete(ids, i, i+1)
		}
		if len(ids) == 0 {
			delete(t.nodeLinks, n)
		} else {
			t.nodeLinks[n] = ids
		}
	}
}

// RemoveNode drops a node together with every link touching it
func (t *Topology) RemoveNode(nodeID uint32) {
	for _, linkID := range slices.Clone(t.nodeLinks[nodeID]) {
		t.RemoveLink(linkID)
	}
	delete(t.nodeLinks, nodeID)
}

// HasLink reports whether the link is indexed
func (t *Topology) HasLink(linkID uint32) bool {
	_, ok := t.links[linkID]
	return ok
}

// HasNode reports whether any link touches the node
func (t *Topology) HasNode(nodeID uint32) bool {
	return len(t.nodeLinks[nodeID]) > 0
}

// GetLinks returns the ids of links incident to nodeID. Unknown nodes yield
// an empty slice. The result is owned by the caller.
func (t *Topology) GetLinks(nodeID uint32) []uint32 {
	ids := t.nodeLinks[nodeID]
	if len(ids) == 0 {
		return []uint32{}
	}
	return slices.Clone(ids)
}

// GetNodes returns the start and end node of a link
func (t *Topology) GetNodes(linkID uint32) (start, end uint32, ok bool) {
	l, ok := t.links[linkID]
	return l.Start, l.End, ok
}

// NodesShareLink reports whether some link connects a and b in either direction
func (t *Topology) NodesShareLink(a, b uint32) bool {
	for _, linkID := range t.nodeLinks[a] {
		l := t.links[linkID]
		if (l.Start == a && l.End == b) || (l.Start == b && l.End == a) {
			return true
		}
	}
	return false
}

// LinkCount returns the number of indexed links
func (t *Topology) LinkCount() int {
	return len(t.links)
}

// Degree returns the number of distinct links touching nodeID
func (t *Topology) Degree(nodeID uint32) int {
	return len(t.nodeLinks[nodeID])
}

// Copy returns an independent topology
func (t *Topology) Copy() *Topology {
	out := &Topology{
		nodeLinks: make(map[uint32][]uint32, len(t.nodeLinks)),
		links:     make(map[uint32]Endpoints, len(t.links)),
	}
	for n, ids := range t.nodeLinks {
		out.nodeLinks[n] = slices.Clone(ids)
	}
	for id, l := range t.links {
		out.links[id] = l
	}
	return out
}
