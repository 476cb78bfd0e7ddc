package geoindex

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/golang/snappy"

	"github.com/dd0wney/cluso-waternet/pkg/buffers"
	"github.com/dd0wney/cluso-waternet/pkg/pools"
)

// Envelope layout:
//
//	magic "WNGX" | flags u8 | carrier u8 | section count u32 | section lengths u32... | payload
//
// The payload is the sections concatenated, snappy-compressed when
// flagCompressed is set.
var envelopeMagic = []byte("WNGX")

const (
	flagCompressed byte = 1 << 0

	carrierGrowable byte = 0
	carrierFixed    byte = 1

	sectionCount = 12
	headerSize   = 4 + 1 + 1 + buffers.NumberSize + sectionCount*buffers.NumberSize
)

var ErrBadEnvelope = errors.New("malformed geo index envelope")

// Envelope is the single transferable form of an Encoded bundle
type Envelope struct {
	carrier pools.Carrier
}

// Bytes returns the envelope. The slice is owned by the envelope.
func (v *Envelope) Bytes() []byte { return v.carrier.Bytes() }

func (v *Envelope) Len() int { return len(v.carrier.Bytes()) }

// Release hands the carrier back to its pool
func (v *Envelope) Release() { v.carrier.Release() }

// Marshal packs every section into one envelope on the encoding's carrier
// kind. With compress the payload is snappy-encoded.
func Marshal(e *Encoded, compress bool) (*Envelope, error) {
	sections := e.sections()
	payload := bytes.Join(sections, nil)

	var flags byte
	if compress {
		payload = snappy.Encode(nil, payload)
		flags |= flagCompressed
	}

	c := pools.NewCarrier(e.Kind, headerSize+len(payload))
	carrier := carrierGrowable
	if e.Kind == pools.Fixed {
		carrier = carrierFixed
	}
	write := func() error {
		if _, err := c.Write(envelopeMagic); err != nil {
			return err
		}
		if err := c.WriteByte(flags); err != nil {
			return err
		}
		if err := c.WriteByte(carrier); err != nil {
			return err
		}
		if err := buffers.WriteNumber(c, uint32(len(sections))); err != nil {
			return err
		}
		for _, s := range sections {
			if err := buffers.WriteNumber(c, uint32(len(s))); err != nil {
				return err
			}
		}
		_, err := c.Write(payload)
		return err
	}
	if err := write(); err != nil {
		c.Release()
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return &Envelope{carrier: c}, nil
}

// Unmarshal splits an envelope back into sections. Uncompressed sections
// alias data.
func Unmarshal(data []byte) (*Encoded, error) {
	if len(data) < headerSize || !bytes.Equal(data[:4], envelopeMagic) {
		return nil, fmt.Errorf("%w: bad header", ErrBadEnvelope)
	}
	flags, carrier := data[4], data[5]
	if n := buffers.Number[uint32](data, 6); n != sectionCount {
		return nil, fmt.Errorf("%w: %d sections, want %d", ErrBadEnvelope, n, sectionCount)
	}
	lengths := make([]int, sectionCount)
	total := 0
	for i := range lengths {
		lengths[i] = int(buffers.Number[uint32](data, 10+i*buffers.NumberSize))
		total += lengths[i]
	}

	payload := data[headerSize:]
	if flags&flagCompressed != 0 {
		decoded, err := snappy.Decode(nil, payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
		}
		payload = decoded
	}
	if len(payload) < total {
		return nil, fmt.Errorf("%w: payload %d bytes, sections need %d", ErrBadEnvelope, len(payload), total)
	}

	s := make([][]byte, sectionCount)
	off := 0
	for i, n := range lengths {
		s[i] = payload[off : off+n : off+n]
		off += n
	}
	kind := pools.Growable
	if carrier == carrierFixed {
		kind = pools.Fixed
	}
	return &Encoded{
		Kind:            kind,
		NodeIDs:         s[0],
		NodeTypes:       s[1],
		NodePositions:   s[2],
		NodeLinks:       buffers.WithIndex{Data: s[3], Index: s[4]},
		LinkIDs:         s[5],
		LinkTypes:       s[6],
		LinkConnections: s[7],
		LinkBounds:      s[8],
		LinkVertices:    buffers.WithIndex{Data: s[9], Index: s[10]},
		AssetIndex:      s[11],
	}, nil
}
