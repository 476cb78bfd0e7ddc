package hydraulic

import "sync/atomic"

// IDGenerator hands out asset ids
type IDGenerator interface {
	NewID() AssetID
	TotalGenerated() AssetID
}

// ConsecutiveIDGenerator returns 1, 2, 3, ... It is safe for concurrent use.
type ConsecutiveIDGenerator struct {
	last atomic.Uint32
}

// NewConsecutiveIDGenerator creates a generator whose next id is after+1
func NewConsecutiveIDGenerator(after AssetID) *ConsecutiveIDGenerator {
	g := &ConsecutiveIDGenerator{}
	g.last.Store(after)
	return g
}

func (g *ConsecutiveIDGenerator) NewID() AssetID {
	return g.last.Add(1)
}

// TotalGenerated is the highest id handed out or seeded so far
func (g *ConsecutiveIDGenerator) TotalGenerated() AssetID {
	return g.last.Load()
}

// Advance makes sure future ids are greater than id
func (g *ConsecutiveIDGenerator) Advance(id AssetID) {
	for {
		cur := g.last.Load()
		if id <= cur || g.last.CompareAndSwap(cur, id) {
			return
		}
	}
}
