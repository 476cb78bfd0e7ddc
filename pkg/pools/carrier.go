package pools

import "fmt"

// CarrierKind selects the byte carrier behind an encoded buffer
type CarrierKind string

const (
	// Growable appends into a pooled slice and is meant for in-process use
	Growable CarrierKind = "growable"
	// Fixed is pre-sized and safe to transfer to a background executor
	Fixed CarrierKind = "fixed"
)

// ParseCarrierKind maps a configuration value to a CarrierKind
func ParseCarrierKind(s string) (CarrierKind, error) {
	switch CarrierKind(s) {
	case Growable, "":
		return Growable, nil
	case Fixed:
		return Fixed, nil
	default:
		return "", fmt.Errorf("unknown carrier kind %q", s)
	}
}

// Carrier is a little-endian byte sink shared by both carrier kinds.
type Carrier interface {
	Write(p []byte) (int, error)
	WriteByte(c byte) error
	WriteUint32(v uint32) error
	WriteFloat64(v float64) error
	Bytes() []byte
	Len() int
	Kind() CarrierKind
	Reset()
	Release()
}

// NewCarrier returns a carrier of the given kind able to hold size bytes.
// For Growable, size is only the initial capacity.
func NewCarrier(kind CarrierKind, size int) Carrier {
	if kind == Fixed {
		return NewFixedBuffer(size)
	}
	return NewBufferBuilder(size)
}
