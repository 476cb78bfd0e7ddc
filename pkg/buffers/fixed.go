package buffers

import (
	"fmt"
	"iter"

	"github.com/dd0wney/cluso-waternet/pkg/pools"
)

// FixedSizeOptions configures a FixedSizeBuilder
type FixedSizeOptions struct {
	Kind        pools.CarrierKind
	HeaderSize  int
	WriteHeader HeaderWriter
}

// FixedSizeBuilder writes count records of recordSize bytes each.
//
// Layout: uint32 count | custom header | records
type FixedSizeBuilder[T any] struct {
	carrier    pools.Carrier
	encode     Encoder[T]
	recordSize int
	count      int
	added      int
}

// NewFixedSizeBuilder sizes the carrier for the whole buffer and writes the
// headers.
func NewFixedSizeBuilder[T any](recordSize, count int, encode Encoder[T], opts FixedSizeOptions) (*FixedSizeBuilder[T], error) {
	if (opts.HeaderSize != 0) != (opts.WriteHeader != nil) {
		return nil, ErrHeaderConfig
	}
	total := NumberSize + opts.HeaderSize + count*recordSize
	c := pools.NewCarrier(opts.Kind, total)
	if err := c.WriteUint32(uint32(count)); err != nil {
		c.Release()
		return nil, err
	}
	if opts.WriteHeader != nil {
		before := c.Len()
		if err := opts.WriteHeader(c); err != nil {
			c.Release()
			return nil, err
		}
		if got := c.Len() - before; got != opts.HeaderSize {
			c.Release()
			return nil, fmt.Errorf("%w: header %d, want %d", ErrRecordSize, got, opts.HeaderSize)
		}
	}
	return &FixedSizeBuilder[T]{
		carrier:    c,
		encode:     encode,
		recordSize: recordSize,
		count:      count,
	}, nil
}

// Add appends the next record
func (b *FixedSizeBuilder[T]) Add(rec T) error {
	if b.added >= b.count {
		return fmt.Errorf("%w: builder holds %d records", ErrCountMismatch, b.count)
	}
	if err := writeChecked(b.carrier, b.encode, rec, b.recordSize); err != nil {
		return err
	}
	b.added++
	return nil
}

// Finalize returns the encoded buffer. Every declared record must have been
// added. The bytes stay owned by the carrier until Release.
func (b *FixedSizeBuilder[T]) Finalize() ([]byte, error) {
	if b.added != b.count {
		return nil, fmt.Errorf("%w: added %d of %d", ErrCountMismatch, b.added, b.count)
	}
	return b.carrier.Bytes(), nil
}

// Release returns the carrier to its pool
func (b *FixedSizeBuilder[T]) Release() { b.carrier.Release() }

// FixedSizeView decodes records from a buffer written by FixedSizeBuilder
type FixedSizeView[T any] struct {
	data       []byte
	decode     Decoder[T]
	recordSize int
	headerSize int
	count      int
}

func NewFixedSizeView[T any](data []byte, recordSize int, decode Decoder[T], headerSize int) (*FixedSizeView[T], error) {
	count, err := Count(data)
	if err != nil {
		return nil, err
	}
	if need := NumberSize + headerSize + count*recordSize; len(data) < need {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrShortBuffer, len(data), need)
	}
	return &FixedSizeView[T]{
		data:       data,
		decode:     decode,
		recordSize: recordSize,
		headerSize: headerSize,
		count:      count,
	}, nil
}

func (v *FixedSizeView[T]) Count() int { return v.count }

// Header returns the custom header bytes
func (v *FixedSizeView[T]) Header() []byte {
	return v.data[NumberSize : NumberSize+v.headerSize]
}

func (v *FixedSizeView[T]) GetByID(id int) (T, error) {
	if id < 0 || id >= v.count {
		var zero T
		return zero, outOfRange(id, v.count)
	}
	return v.at(id), nil
}

func (v *FixedSizeView[T]) at(id int) T {
	return v.decode(v.data, NumberSize+v.headerSize+id*v.recordSize)
}

// All yields every record with its dense index
func (v *FixedSizeView[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < v.count; i++ {
			if !yield(i, v.at(i)) {
				return
			}
		}
	}
}
