// Package buffers implements flat little-endian record buffers: a fixed-size
// layout (count header, optional custom header, fixed-stride records) and a
// variable-size layout (data buffer plus a uint32 offset index).
//
// Builders write through a pools.Carrier, so the same encoding code produces
// either a growable in-process buffer or a pre-sized transferable one.
package buffers

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/constraints"

	"github.com/dd0wney/cluso-waternet/pkg/pools"
)

// Field sizes in bytes
const (
	TypeSize    = 1
	NumberSize  = 4
	DecimalSize = 8
)

var (
	ErrOutOfRange    = errors.New("record index out of range")
	ErrShortBuffer   = errors.New("buffer shorter than its header declares")
	ErrCountMismatch = errors.New("record count does not match the declared count")
	ErrRecordSize    = errors.New("encoder wrote an unexpected number of bytes")
	ErrHeaderConfig  = errors.New("custom header size and writer must be set together")
)

// Encoder appends one record to the carrier
type Encoder[T any] func(rec T, c pools.Carrier) error

// Decoder reads one record starting at off
type Decoder[T any] func(b []byte, off int) T

// HeaderWriter appends a custom header right after the count
type HeaderWriter func(c pools.Carrier) error

// WriteType appends v as a single byte
func WriteType[T constraints.Unsigned](c pools.Carrier, v T) error {
	return c.WriteByte(byte(v))
}

// WriteNumber appends v as a little-endian uint32
func WriteNumber[T constraints.Unsigned](c pools.Carrier, v T) error {
	return c.WriteUint32(uint32(v))
}

// WriteDecimal appends v as a little-endian float64
func WriteDecimal[T constraints.Float](c pools.Carrier, v T) error {
	return c.WriteFloat64(float64(v))
}

func Type[T constraints.Unsigned](b []byte, off int) T {
	return T(b[off])
}

func Number[T constraints.Unsigned](b []byte, off int) T {
	return T(binary.LittleEndian.Uint32(b[off:]))
}

func Decimal[T constraints.Float](b []byte, off int) T {
	return T(math.Float64frombits(binary.LittleEndian.Uint64(b[off:])))
}

// Count reads the record count header
func Count(b []byte) (int, error) {
	if len(b) < NumberSize {
		return 0, fmt.Errorf("%w: %d bytes", ErrShortBuffer, len(b))
	}
	return int(Number[uint32](b, 0)), nil
}

func outOfRange(id, count int) error {
	return fmt.Errorf("%w: index %d is out of bounds (valid range: 0-%d)", ErrOutOfRange, id, count-1)
}

// writeChecked runs encode and verifies it wrote exactly want bytes
func writeChecked[T any](c pools.Carrier, encode Encoder[T], rec T, want int) error {
	before := c.Len()
	if err := encode(rec, c); err != nil {
		return err
	}
	if got := c.Len() - before; got != want {
		return fmt.Errorf("%w: %d, want %d", ErrRecordSize, got, want)
	}
	return nil
}

// IDsSize is the encoded size of a length-prefixed uint32 list
func IDsSize(ids []uint32) int {
	return NumberSize + len(ids)*NumberSize
}

// WriteIDs appends a length-prefixed uint32 list
func WriteIDs(ids []uint32, c pools.Carrier) error {
	if err := c.WriteUint32(uint32(len(ids))); err != nil {
		return err
	}
	for _, id := range ids {
		if err := c.WriteUint32(id); err != nil {
			return err
		}
	}
	return nil
}

// ReadIDs decodes a list written by WriteIDs
func ReadIDs(b []byte, off int) []uint32 {
	n := int(Number[uint32](b, off))
	ids := make([]uint32, n)
	for i := range ids {
		ids[i] = Number[uint32](b, off+NumberSize+i*NumberSize)
	}
	return ids
}
