package pools

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrCarrierFull is returned when a write does not fit a FixedBuffer
var ErrCarrierFull = errors.New("fixed carrier capacity exceeded")

// FixedBuffer is the transferable carrier: a buffer whose size is decided
// up front. Once filled it may be handed to another goroutine and read there
// without further coordination.
type FixedBuffer struct {
	buf  []byte
	off  int
	pool *BytePool
}

// NewFixedBuffer returns a zeroed carrier of exactly size bytes
func NewFixedBuffer(size int) *FixedBuffer {
	return &FixedBuffer{buf: defaultBytePool.GetSized(size), pool: defaultBytePool}
}

func (f *FixedBuffer) reserve(n int) ([]byte, error) {
	if f.off+n > len(f.buf) {
		return nil, ErrCarrierFull
	}
	out := f.buf[f.off : f.off+n]
	f.off += n
	return out, nil
}

func (f *FixedBuffer) Write(p []byte) (int, error) {
	dst, err := f.reserve(len(p))
	if err != nil {
		return 0, err
	}
	return copy(dst, p), nil
}

func (f *FixedBuffer) WriteByte(c byte) error {
	dst, err := f.reserve(1)
	if err != nil {
		return err
	}
	dst[0] = c
	return nil
}

func (f *FixedBuffer) WriteUint32(v uint32) error {
	dst, err := f.reserve(4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(dst, v)
	return nil
}

func (f *FixedBuffer) WriteFloat64(v float64) error {
	dst, err := f.reserve(8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
	return nil
}

// Bytes returns the whole buffer, including unwritten zero bytes
func (f *FixedBuffer) Bytes() []byte { return f.buf }

// Len returns the number of bytes written so far
func (f *FixedBuffer) Len() int { return f.off }

// Cap returns the fixed size
func (f *FixedBuffer) Cap() int { return len(f.buf) }

func (f *FixedBuffer) Kind() CarrierKind { return Fixed }

func (f *FixedBuffer) Reset() {
	clear(f.buf)
	f.off = 0
}

func (f *FixedBuffer) Release() {
	if f.pool != nil && f.buf != nil {
		f.pool.Put(f.buf)
	}
	f.buf = nil
	f.off = 0
}
