package pools

import (
	"encoding/binary"
	"math"
)

// BufferBuilder is the growable carrier: an append-only little-endian
// buffer drawn from the default pool.
type BufferBuilder struct {
	buf  []byte
	pool *BytePool
}

// NewBufferBuilder creates a new buffer builder with the given initial capacity.
func NewBufferBuilder(initialCap int) *BufferBuilder {
	return &BufferBuilder{
		buf:  defaultBytePool.Get(initialCap),
		pool: defaultBytePool,
	}
}

// Write appends bytes to the buffer.
func (b *BufferBuilder) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// WriteByte appends a single byte.
func (b *BufferBuilder) WriteByte(c byte) error {
	b.buf = append(b.buf, c)
	return nil
}

// WriteUint32 appends v in little-endian order.
func (b *BufferBuilder) WriteUint32(v uint32) error {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, v)
	return nil
}

// WriteFloat64 appends the IEEE 754 bits of v in little-endian order.
func (b *BufferBuilder) WriteFloat64(v float64) error {
	b.buf = binary.LittleEndian.AppendUint64(b.buf, math.Float64bits(v))
	return nil
}

// Bytes returns the built buffer. After calling Bytes, the builder should not be used.
func (b *BufferBuilder) Bytes() []byte {
	return b.buf
}

// Len returns the current length of the buffer.
func (b *BufferBuilder) Len() int {
	return len(b.buf)
}

// Kind reports Growable
func (b *BufferBuilder) Kind() CarrierKind { return Growable }

// Reset resets the buffer for reuse.
func (b *BufferBuilder) Reset() {
	b.buf = b.buf[:0]
}

// Release returns the buffer to the pool. After Release, the builder should not be used.
func (b *BufferBuilder) Release() {
	if b.pool != nil && b.buf != nil {
		b.pool.Put(b.buf)
	}
	b.buf = nil
}
