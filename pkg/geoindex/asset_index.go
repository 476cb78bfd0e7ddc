// Package geoindex encodes a hydraulic model into flat little-endian buffers
// that can cross a goroutine or process boundary, and answers spatial
// questions (containment, nearest node) against the decoded views without
// touching the asset objects.
package geoindex

import (
	"fmt"

	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
)

// Type codes stored in the node and link type buffers
const (
	NodeJunction  uint8 = 1
	NodeTank      uint8 = 2
	NodeReservoir uint8 = 3

	LinkPipe  uint8 = 1
	LinkValve uint8 = 2
	LinkPump  uint8 = 3
)

// Kind separates the node and link index spaces
type Kind uint8

const (
	KindLink Kind = 0
	KindNode Kind = 1
)

func (k Kind) String() string {
	if k == KindNode {
		return "node"
	}
	return "link"
}

// An asset index entry packs the kind into the top bit and dense+1 into the
// rest, so that 0 means absent.
const (
	kindShift = 31
	denseMask = 1<<kindShift - 1
)

func packEntry(kind Kind, dense int) uint32 {
	return uint32(kind)<<kindShift | uint32(dense+1)&denseMask
}

func unpackEntry(e uint32) (Kind, int, bool) {
	if e == 0 {
		return 0, 0, false
	}
	return Kind(e >> kindShift), int(e&denseMask) - 1, true
}

func nodeTypeCode(t hydraulic.AssetType) (uint8, error) {
	switch t {
	case hydraulic.TypeJunction:
		return NodeJunction, nil
	case hydraulic.TypeTank:
		return NodeTank, nil
	case hydraulic.TypeReservoir:
		return NodeReservoir, nil
	}
	return 0, fmt.Errorf("%w: %q is not a node", hydraulic.ErrInvalidAssetType, t)
}

func linkTypeCode(t hydraulic.AssetType) (uint8, error) {
	switch t {
	case hydraulic.TypePipe:
		return LinkPipe, nil
	case hydraulic.TypeValve:
		return LinkValve, nil
	case hydraulic.TypePump:
		return LinkPump, nil
	}
	return 0, fmt.Errorf("%w: %q is not a link", hydraulic.ErrInvalidAssetType, t)
}

// NodeType maps a node type code back to the asset type
func NodeType(code uint8) (hydraulic.AssetType, bool) {
	switch code {
	case NodeJunction:
		return hydraulic.TypeJunction, true
	case NodeTank:
		return hydraulic.TypeTank, true
	case NodeReservoir:
		return hydraulic.TypeReservoir, true
	}
	return "", false
}

// LinkType maps a link type code back to the asset type
func LinkType(code uint8) (hydraulic.AssetType, bool) {
	switch code {
	case LinkPipe:
		return hydraulic.TypePipe, true
	case LinkValve:
		return hydraulic.TypeValve, true
	case LinkPump:
		return hydraulic.TypePump, true
	}
	return "", false
}

// denseIndex is the first encoding pass: a contiguous zero-based index per
// node and per link, in asset insertion order.
type denseIndex struct {
	nodes     []hydraulic.Node
	links     []hydraulic.Link
	nodeDense map[hydraulic.AssetID]int
	linkDense map[hydraulic.AssetID]int
	maxID     hydraulic.AssetID
}

func buildDenseIndex(assets *hydraulic.AssetsMap) *denseIndex {
	idx := &denseIndex{
		nodeDense: make(map[hydraulic.AssetID]int),
		linkDense: make(map[hydraulic.AssetID]int),
	}
	for id, a := range assets.All() {
		idx.maxID = max(idx.maxID, id)
		switch v := a.(type) {
		case hydraulic.Node:
			idx.nodeDense[id] = len(idx.nodes)
			idx.nodes = append(idx.nodes, v)
		case hydraulic.Link:
			idx.linkDense[id] = len(idx.links)
			idx.links = append(idx.links, v)
		}
	}
	return idx
}
