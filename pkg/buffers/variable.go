package buffers

import (
	"fmt"
	"iter"

	"github.com/dd0wney/cluso-waternet/pkg/pools"
)

// WithIndex pairs a variable-size data buffer with its offset index
type WithIndex struct {
	Data  []byte
	Index []byte
}

// VariableSizeBuilder writes count records of varying size. The data buffer
// starts with the uint32 count; the index holds one uint32 offset per record.
type VariableSizeBuilder[T any] struct {
	data   pools.Carrier
	index  pools.Carrier
	encode Encoder[T]
	size   func(T) int
	count  int
	added  int
}

// NewVariableSizeBuilder sizes both carriers. totalDataSize is the sum of
// size(rec) over every record that will be added.
func NewVariableSizeBuilder[T any](count, totalDataSize int, encode Encoder[T], size func(T) int, kind pools.CarrierKind) (*VariableSizeBuilder[T], error) {
	data := pools.NewCarrier(kind, NumberSize+totalDataSize)
	if err := data.WriteUint32(uint32(count)); err != nil {
		data.Release()
		return nil, err
	}
	return &VariableSizeBuilder[T]{
		data:   data,
		index:  pools.NewCarrier(kind, count*NumberSize),
		encode: encode,
		size:   size,
		count:  count,
	}, nil
}

func (b *VariableSizeBuilder[T]) Add(rec T) error {
	if b.added >= b.count {
		return fmt.Errorf("%w: builder holds %d records", ErrCountMismatch, b.count)
	}
	offset := b.data.Len()
	if err := writeChecked(b.data, b.encode, rec, b.size(rec)); err != nil {
		return err
	}
	if err := b.index.WriteUint32(uint32(offset)); err != nil {
		return err
	}
	b.added++
	return nil
}

func (b *VariableSizeBuilder[T]) Finalize() (WithIndex, error) {
	if b.added != b.count {
		return WithIndex{}, fmt.Errorf("%w: added %d of %d", ErrCountMismatch, b.added, b.count)
	}
	return WithIndex{Data: b.data.Bytes(), Index: b.index.Bytes()}, nil
}

func (b *VariableSizeBuilder[T]) Release() {
	b.data.Release()
	b.index.Release()
}

// VariableSizeView decodes records through the offset index
type VariableSizeView[T any] struct {
	buf    WithIndex
	decode Decoder[T]
	count  int
}

func NewVariableSizeView[T any](buf WithIndex, decode Decoder[T]) (*VariableSizeView[T], error) {
	count, err := Count(buf.Data)
	if err != nil {
		return nil, err
	}
	if len(buf.Index) < count*NumberSize {
		return nil, fmt.Errorf("%w: index %d bytes for %d records", ErrShortBuffer, len(buf.Index), count)
	}
	return &VariableSizeView[T]{buf: buf, decode: decode, count: count}, nil
}

func (v *VariableSizeView[T]) Count() int { return v.count }

func (v *VariableSizeView[T]) GetByID(id int) (T, error) {
	if id < 0 || id >= v.count {
		var zero T
		return zero, outOfRange(id, v.count)
	}
	return v.at(id), nil
}

func (v *VariableSizeView[T]) at(id int) T {
	offset := Number[uint32](v.buf.Index, id*NumberSize)
	return v.decode(v.buf.Data, int(offset))
}

func (v *VariableSizeView[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < v.count; i++ {
			if !yield(i, v.at(i)) {
				return
			}
		}
	}
}
