// Package pools provides pooled byte carriers for the geo buffer encoding.
//
//   - BytePool: size-class based byte slice pooling
//   - IndexPool: pooling for dense index result lists
//   - BufferBuilder: growable little-endian carrier, in-process only
//   - FixedBuffer: pre-sized carrier that can be handed to another goroutine
//
// NewCarrier selects between BufferBuilder and FixedBuffer by CarrierKind.
package pools
