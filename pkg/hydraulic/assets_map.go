package hydraulic

import (
	"cmp"
	"iter"
	"slices"
)

// orderedMap keeps insertion order. Overwriting a key keeps its position.
// Deleted slots are tombstoned and compacted once they dominate.
type orderedMap[K cmp.Ordered, V any] struct {
	items   map[K]V
	pos     map[K]int
	order   []K
	live    []bool
	deleted int
}

func newOrderedMap[K cmp.Ordered, V any](capacity int) orderedMap[K, V] {
	return orderedMap[K, V]{
		items: make(map[K]V, capacity),
		pos:   make(map[K]int, capacity),
		order: make([]K, 0, capacity),
		live:  make([]bool, 0, capacity),
	}
}

func (m *orderedMap[K, V]) get(k K) (V, bool) {
	v, ok := m.items[k]
	return v, ok
}

func (m *orderedMap[K, V]) set(k K, v V) {
	if _, ok := m.items[k]; !ok {
		m.pos[k] = len(m.order)
		m.order = append(m.order, k)
		m.live = append(m.live, true)
	}
	m.items[k] = v
}

func (m *orderedMap[K, V]) delete(k K) bool {
	i, ok := m.pos[k]
	if !ok {
		return false
	}
	delete(m.items, k)
	delete(m.pos, k)
	m.live[i] = false
	m.deleted++
	if m.deleted > len(m.order)/2 {
		m.compact()
	}
	return true
}

func (m *orderedMap[K, V]) compact() {
	order := make([]K, 0, len(m.items))
	for i, k := range m.order {
		if m.live[i] {
			m.pos[k] = len(order)
			order = append(order, k)
		}
	}
	m.order = order
	m.live = make([]bool, len(order))
	for i := range m.live {
		m.live[i] = true
	}
	m.deleted = 0
}

func (m *orderedMap[K, V]) all() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i, k := range m.order {
			if !m.live[i] {
				continue
			}
			if !yield(k, m.items[k]) {
				return
			}
		}
	}
}

func (m *orderedMap[K, V]) len() int { return len(m.items) }

func (m *orderedMap[K, V]) clone() orderedMap[K, V] {
	out := newOrderedMap[K, V](len(m.items))
	for k, v := range m.all() {
		out.set(k, v)
	}
	return out
}

// sortedBy returns a copy whose iteration order follows less
func (m *orderedMap[K, V]) sortedBy(less func(a, b K) int) orderedMap[K, V] {
	keys := make([]K, 0, len(m.items))
	for k := range m.all() {
		keys = append(keys, k)
	}
	slices.SortStableFunc(keys, less)
	out := newOrderedMap[K, V](len(keys))
	for _, k := range keys {
		out.set(k, m.items[k])
	}
	return out
}

// AssetsMap is the insertion-ordered asset collection of a snapshot. Its
// order drives deterministic tie-breaking in queries and encodings.
type AssetsMap struct {
	m orderedMap[AssetID, Asset]
}

// NewAssetsMap returns a map holding assets in the given order
func NewAssetsMap(assets ...Asset) *AssetsMap {
	am := &AssetsMap{m: newOrderedMap[AssetID, Asset](len(assets))}
	for _, a := range assets {
		am.Set(a)
	}
	return am
}

func (am *AssetsMap) Get(id AssetID) (Asset, bool) { return am.m.get(id) }

func (am *AssetsMap) Has(id AssetID) bool {
	_, ok := am.m.get(id)
	return ok
}

// Set inserts or replaces the asset under its id
func (am *AssetsMap) Set(a Asset) { am.m.set(a.ID(), a) }

func (am *AssetsMap) Delete(id AssetID) bool { return am.m.delete(id) }

func (am *AssetsMap) Len() int { return am.m.len() }

// All iterates in insertion order
func (am *AssetsMap) All() iter.Seq2[AssetID, Asset] { return am.m.all() }

// Values returns the assets in insertion order
func (am *AssetsMap) Values() []Asset {
	out := make([]Asset, 0, am.m.len())
	for _, a := range am.m.all() {
		out = append(out, a)
	}
	return out
}

// Copy returns a new map referencing the same assets
func (am *AssetsMap) Copy() *AssetsMap {
	return &AssetsMap{m: am.m.clone()}
}

// SortedByID returns a copy ordered by ascending id
func (am *AssetsMap) SortedByID() *AssetsMap {
	return &AssetsMap{m: am.m.sortedBy(cmp.Compare[AssetID])}
}

// GetPipe returns the asset id as a pipe, or nil
func (am *AssetsMap) GetPipe(id AssetID) *Pipe {
	a, _ := am.m.get(id)
	p, _ := a.(*Pipe)
	return p
}

// GetLink returns the asset id as a link, or nil
func (am *AssetsMap) GetLink(id AssetID) Link {
	a, _ := am.m.get(id)
	l, _ := a.(Link)
	return l
}

// GetNode returns the asset id as a node, or nil
func (am *AssetsMap) GetNode(id AssetID) Node {
	a, _ := am.m.get(id)
	n, _ := a.(Node)
	return n
}

// GetJunction returns the asset id as a junction, or nil
func (am *AssetsMap) GetJunction(id AssetID) *Junction {
	a, _ := am.m.get(id)
	j, _ := a.(*Junction)
	return j
}

// LinkNodes resolves both endpoints of l. Missing endpoints are nil.
func (am *AssetsMap) LinkNodes(l Link) (start, end Node) {
	c := l.Connections()
	return am.GetNode(c[0]), am.GetNode(c[1])
}

// Filter returns the subset of ids present in the map, in ids order
func (am *AssetsMap) Filter(ids []AssetID) *AssetsMap {
	out := NewAssetsMap()
	for _, id := range ids {
		if a, ok := am.Get(id); ok {
			out.Set(a)
		}
	}
	return out
}

// CustomerPoints is the insertion-ordered customer point collection
type CustomerPoints struct {
	m orderedMap[CustomerPointID, *CustomerPoint]
}

// NewCustomerPoints returns a collection holding points in the given order
func NewCustomerPoints(points ...*CustomerPoint) *CustomerPoints {
	cps := &CustomerPoints{m: newOrderedMap[CustomerPointID, *CustomerPoint](len(points))}
	for _, cp := range points {
		cps.Set(cp)
	}
	return cps
}

func (c *CustomerPoints) Get(id CustomerPointID) (*CustomerPoint, bool) { return c.m.get(id) }
func (c *CustomerPoints) Set(cp *CustomerPoint)                         { c.m.set(cp.ID, cp) }
func (c *CustomerPoints) Delete(id CustomerPointID) bool                { return c.m.delete(id) }
func (c *CustomerPoints) Len() int                                      { return c.m.len() }

func (c *CustomerPoints) All() iter.Seq2[CustomerPointID, *CustomerPoint] { return c.m.all() }

// Values returns the points in insertion order
func (c *CustomerPoints) Values() []*CustomerPoint {
	out := make([]*CustomerPoint, 0, c.m.len())
	for _, cp := range c.m.all() {
		out = append(out, cp)
	}
	return out
}

func (c *CustomerPoints) Copy() *CustomerPoints {
	return &CustomerPoints{m: c.m.clone()}
}

// MaxID returns the highest point id, or 0 when empty
func (c *CustomerPoints) MaxID() CustomerPointID {
	var highest CustomerPointID
	for id := range c.m.all() {
		if id > highest {
			highest = id
		}
	}
	return highest
}
