// Package operations computes edits to a hydraulic model.
//
// Every operation reads one snapshot and returns a hydraulic.Diff. The
// snapshot is never mutated: assets that change are copied first and the
// copies are what the diff carries. Diffs must be applied in the order their
// slices list them.
package operations

import (
	"fmt"
	"time"

	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
	"github.com/dd0wney/cluso-waternet/pkg/metrics"
	"github.com/dd0wney/cluso-waternet/pkg/validation"
)

// Operation names used in errors and metrics
const (
	OpChangeProperty   = "changeProperty"
	OpMoveNode         = "moveNode"
	OpSplitPipe        = "splitPipe"
	OpMergeNodes       = "mergeNodes"
	OpConnectCustomers = "connectCustomers"
	OpDisconnect       = "disconnectCustomers"
	OpActivate         = "activateAssets"
	OpDeactivate       = "deactivateAssets"
	OpReverseLink      = "reverseLink"
	OpReplaceNode      = "replaceNode"
	OpReplaceLink      = "replaceLink"
	OpAddNode          = "addNode"
	OpAddLink          = "addLink"
	OpDeleteAssets     = "deleteAssets"
	OpChangePumpCurve  = "changePumpCurve"
)

// Func is the shape shared by every operation
type Func[I any] func(m *hydraulic.HydraulicModel, in I) (hydraulic.Diff, error)

// Instrument wraps op so each call is counted and timed under name
func Instrument[I any](reg *metrics.Registry, name string, op Func[I]) Func[I] {
	return func(m *hydraulic.HydraulicModel, in I) (hydraulic.Diff, error) {
		start := time.Now()
		diff, err := op(m, in)
		reg.RecordOperation(name, err, time.Since(start), len(diff.PutAssets)+len(diff.DeleteAssets))
		return diff, err
	}
}

func validateInput(op string, in any) error {
	if err := validation.Struct(in); err != nil {
		return hydraulic.NewError(op).Cause(fmt.Errorf("%w: %v", hydraulic.ErrInvalidInput, err)).Err()
	}
	return nil
}

func invalidInput(op, format string, args ...any) error {
	return hydraulic.NewError(op).Cause(fmt.Errorf("%w: "+format, append([]any{hydraulic.ErrInvalidInput}, args...)...)).Err()
}

func copyNode(n hydraulic.Node) hydraulic.Node { return n.Copy().(hydraulic.Node) }
func copyLink(l hydraulic.Link) hydraulic.Link { return l.Copy().(hydraulic.Link) }

// pointsOrNil returns the collected points in insertion order
func pointsOrNil(points *hydraulic.CustomerPoints) []*hydraulic.CustomerPoint {
	if points.Len() == 0 {
		return nil
	}
	return points.Values()
}

// copyProperties copies each property both assets declare, except identity
// and geometry. It is permissive: properties the target does not accept are
// ignored.
func copyProperties(from, to hydraulic.Asset) {
	for _, name := range from.ListProperties() {
		switch name {
		case "type", "label", "isActive", "length":
			continue
		}
		if !to.HasProperty(name) {
			continue
		}
		if v, ok := from.GetProperty(name); ok {
			to.SetProperty(name, v)
		}
	}
}

// buildNode builds a fresh node of typ with a generated label
func buildNode(m *hydraulic.HydraulicModel, op string, typ hydraulic.AssetType, at geometry.Position, elevation float64) (hydraulic.Node, error) {
	n, err := m.Builder.BuildNode(typ, "", at, elevation)
	if err != nil {
		return nil, hydraulic.NewError(op).Context(string(typ)).Cause(hydraulic.ErrInvalidAssetType).Err()
	}
	return n, nil
}
