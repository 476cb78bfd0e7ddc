package pools

import (
	"sync"
)

// Buffer size classes. Geo buffers scale with network size, so the classes
// are wider than typical record pools.
const (
	SmallSize  = 1 << 10 // headers, tiny networks
	MediumSize = 1 << 14 // a few hundred assets
	LargeSize  = 1 << 18 // district networks
	HugeSize   = 1 << 22 // city networks
	MaxPool    = 1 << 24 // Don't pool buffers larger than this
)

var sizeClasses = [...]int{SmallSize, MediumSize, LargeSize, HugeSize}

// BytePool provides size-class based pooling for byte slices.
type BytePool struct {
	classes [len(sizeClasses)]sync.Pool
}

// NewBytePool creates a new byte pool.
func NewBytePool() *BytePool {
	p := &BytePool{}
	for i, size := range sizeClasses {
		p.classes[i].New = func() any {
			b := make([]byte, 0, size)
			return &b
		}
	}
	return p
}

// class returns the index of the smallest class holding size, or -1
func class(size int) int {
	for i, c := range sizeClasses {
		if size <= c {
			return i
		}
	}
	return -1
}

// Get returns a byte slice with length 0 and at least the requested capacity.
func (p *BytePool) Get(size int) []byte {
	i := class(size)
	if i < 0 {
		// Too large to pool, allocate directly
		return make([]byte, 0, size)
	}

	bp, ok := p.classes[i].Get().(*[]byte)
	if !ok || cap(*bp) < size {
		return make([]byte, 0, size)
	}
	return (*bp)[:0]
}

// GetSized returns a zeroed byte slice with exactly the requested length.
func (p *BytePool) GetSized(size int) []byte {
	b := p.Get(size)[:size]
	clear(b)
	return b
}

// Put returns a byte slice to the pool for reuse. Slices are filed under the
// largest class their capacity can serve.
func (p *BytePool) Put(b []byte) {
	c := cap(b)
	if c > MaxPool || c < SmallSize {
		return
	}
	b = b[:0]

	i := len(sizeClasses) - 1
	for i > 0 && sizeClasses[i] > c {
		i--
	}
	p.classes[i].Put(&b)
}

// Default global byte pool
var defaultBytePool = NewBytePool()
