package areaquery

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/dd0wney/cluso-waternet/pkg/buffers"
	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/pools"
)

// Wire forms used by executors that move a job across a boundary.
//
//	polygon: count u32 | (x f64, y f64)...
//	request: deadline f64 (unix seconds, 0 for none) | polygon length u32 | polygon | envelope
//	reply:   status u8 | match, or status u8 | error text
const (
	replyOK    byte = 0
	replyError byte = 1
)

var ErrBadMessage = errors.New("malformed area query message")

func encodePolygon(polygon []geometry.Position) ([]byte, error) {
	c := pools.NewBufferBuilder(buffers.NumberSize + len(polygon)*2*buffers.DecimalSize)
	defer c.Release()
	if err := buffers.WriteNumber(c, uint32(len(polygon))); err != nil {
		return nil, err
	}
	for _, p := range polygon {
		if err := buffers.WriteDecimal(c, p[0]); err != nil {
			return nil, err
		}
		if err := buffers.WriteDecimal(c, p[1]); err != nil {
			return nil, err
		}
	}
	return bytes.Clone(c.Bytes()), nil
}

func decodePolygon(b []byte) ([]geometry.Position, error) {
	if len(b) < buffers.NumberSize {
		return nil, fmt.Errorf("%w: polygon header", ErrBadMessage)
	}
	n := buffers.Number[uint32](b, 0)
	const stride = 2 * buffers.DecimalSize
	if uint64(len(b)-buffers.NumberSize) != uint64(n)*stride {
		return nil, fmt.Errorf("%w: %d polygon points in %d bytes", ErrBadMessage, n, len(b))
	}
	out := make([]geometry.Position, n)
	for i := range out {
		off := buffers.NumberSize + i*stride
		out[i] = geometry.Position{
			buffers.Decimal[float64](b, off),
			buffers.Decimal[float64](b, off+buffers.DecimalSize),
		}
	}
	return out, nil
}

// request is a decoded socket job. A zero deadline means none.
type request struct {
	deadline time.Time
	polygon  []byte
	envelope []byte
}

const requestHeaderSize = buffers.DecimalSize + buffers.NumberSize

func encodeRequest(polygon []geometry.Position, envelope []byte, deadline time.Time) ([]byte, error) {
	p, err := encodePolygon(polygon)
	if err != nil {
		return nil, err
	}
	var secs float64
	if !deadline.IsZero() {
		secs = float64(deadline.UnixNano()) / 1e9
	}
	c := pools.NewBufferBuilder(requestHeaderSize + len(p) + len(envelope))
	defer c.Release()
	if err := buffers.WriteDecimal(c, secs); err != nil {
		return nil, err
	}
	if err := buffers.WriteNumber(c, uint32(len(p))); err != nil {
		return nil, err
	}
	if _, err := c.Write(p); err != nil {
		return nil, err
	}
	if _, err := c.Write(envelope); err != nil {
		return nil, err
	}
	return bytes.Clone(c.Bytes()), nil
}

func decodeRequest(b []byte) (request, error) {
	if len(b) < requestHeaderSize {
		return request{}, fmt.Errorf("%w: request header", ErrBadMessage)
	}
	var r request
	if secs := buffers.Decimal[float64](b, 0); secs != 0 {
		r.deadline = time.Unix(0, int64(secs*1e9))
	}
	n := int(buffers.Number[uint32](b, buffers.DecimalSize))
	rest := b[requestHeaderSize:]
	if len(rest) < n {
		return request{}, fmt.Errorf("%w: polygon of %d bytes in a %d byte request", ErrBadMessage, n, len(b))
	}
	r.polygon, r.envelope = rest[:n], rest[n:]
	return r, nil
}

func encodeReply(res poolResult) []byte {
	if res.err != nil {
		return append([]byte{replyError}, res.err.Error()...)
	}
	return append([]byte{replyOK}, res.match...)
}

func decodeReply(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty reply", ErrBadMessage)
	}
	switch b[0] {
	case replyOK:
		return b[1:], nil
	case replyError:
		return nil, fmt.Errorf("area query worker: %s", b[1:])
	default:
		return nil, fmt.Errorf("%w: reply status %d", ErrBadMessage, b[0])
	}
}
