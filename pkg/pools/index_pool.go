package pools

import (
	"sync"
)

// IndexPool pools uint32 slices holding dense indices of query matches.
type IndexPool struct {
	small  sync.Pool // <= 256 elements
	medium sync.Pool // <= 4096 elements
	large  sync.Pool // <= 65536 elements
}

// NewIndexPool creates a new index slice pool.
func NewIndexPool() *IndexPool {
	mk := func(n int) func() any {
		return func() any {
			s := make([]uint32, 0, n)
			return &s
		}
	}
	return &IndexPool{
		small:  sync.Pool{New: mk(256)},
		medium: sync.Pool{New: mk(4096)},
		large:  sync.Pool{New: mk(65536)},
	}
}

func (p *IndexPool) poolFor(n int) *sync.Pool {
	switch {
	case n <= 256:
		return &p.small
	case n <= 4096:
		return &p.medium
	case n <= 65536:
		return &p.large
	default:
		return nil
	}
}

// Get returns a uint32 slice with at least the requested capacity.
func (p *IndexPool) Get(size int) []uint32 {
	pool := p.poolFor(size)
	if pool == nil {
		return make([]uint32, 0, size)
	}
	sp, ok := pool.Get().(*[]uint32)
	if !ok || cap(*sp) < size {
		return make([]uint32, 0, size)
	}
	return (*sp)[:0]
}

// Put returns a slice to the pool. Slices are filed by capacity.
func (p *IndexPool) Put(s []uint32) {
	c := cap(s)
	var pool *sync.Pool
	switch {
	case c >= 65536 && c <= 1<<20:
		pool = &p.large
	case c >= 4096 && c < 65536:
		pool = &p.medium
	case c >= 256 && c < 4096:
		pool = &p.small
	default:
		return
	}
	s = s[:0]
	pool.Put(&s)
}

// Default global index pool
var defaultIndexPool = NewIndexPool()

// GetIndices returns a uint32 slice from the default pool.
func GetIndices(size int) []uint32 {
	return defaultIndexPool.Get(size)
}

// PutIndices returns a uint32 slice to the default pool.
func PutIndices(s []uint32) {
	defaultIndexPool.Put(s)
}
