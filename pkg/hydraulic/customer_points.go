package hydraulic

import (
	"slices"

	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/quantity"
)

// CustomerPointID identifies a customer point
type CustomerPointID = uint32

// MaxCustomerPointLabelLength bounds imported customer point labels
const MaxCustomerPointLabelLength = 50

// coordinatePrecision is the number of decimals kept on customer point
// coordinates
const coordinatePrecision = 6

// Connection attaches a customer point to a pipe and one of its junctions
type Connection struct {
	PipeID     AssetID
	SnapPoint  geometry.Position
	JunctionID AssetID
}

// CustomerPoint is a point demand. It is never modified once it belongs to
// a snapshot; spatial edits produce a disconnected copy and reconnect it.
type CustomerPoint struct {
	ID          CustomerPointID
	Label       string
	Coordinates geometry.Position
	BaseDemand  float64
	Connection  *Connection
}

// BuildCustomerPoint creates a disconnected customer point with rounded
// coordinates.
func BuildCustomerPoint(id CustomerPointID, label string, coordinates geometry.Position, baseDemand float64) *CustomerPoint {
	return &CustomerPoint{
		ID:    id,
		Label: label,
		Coordinates: geometry.Position{
			quantity.Round(coordinates[0], coordinatePrecision),
			quantity.Round(coordinates[1], coordinatePrecision),
		},
		BaseDemand: baseDemand,
	}
}

// Connect sets the connection of a point that is not yet part of a snapshot
func (c *CustomerPoint) Connect(conn Connection) {
	c.Connection = &conn
}

// IsConnected reports whether the point has a connection
func (c *CustomerPoint) IsConnected() bool {
	return c.Connection != nil
}

// CopyDisconnected returns a copy without connection
func (c *CustomerPoint) CopyDisconnected() *CustomerPoint {
	return &CustomerPoint{
		ID:          c.ID,
		Label:       c.Label,
		Coordinates: c.Coordinates,
		BaseDemand:  c.BaseDemand,
	}
}

// Copy returns a copy that keeps the connection
func (c *CustomerPoint) Copy() *CustomerPoint {
	cp := c.CopyDisconnected()
	if c.Connection != nil {
		conn := *c.Connection
		cp.Connection = &conn
	}
	return cp
}

// AllocationRule bounds automatic customer point allocation
type AllocationRule struct {
	MaxDistance float64 `yaml:"maxDistance" validate:"gt=0"`
	MaxDiameter float64 `yaml:"maxDiameter" validate:"gt=0"`
}

// DefaultAllocationRules returns the default rule for a units table
func DefaultAllocationRules(units quantity.UnitsSpec) []AllocationRule {
	rule := AllocationRule{MaxDistance: 100, MaxDiameter: 300}
	if units.Get(quantity.Diameter) == quantity.Inch {
		rule.MaxDiameter = 12
	}
	if units.Get(quantity.Length) == quantity.Foot {
		rule.MaxDistance = 320
	}
	return []AllocationRule{rule}
}

// CustomerPointsLookup indexes connected customer points by the pipe and the
// junction they are attached to.
type CustomerPointsLookup struct {
	byAsset map[AssetID][]*CustomerPoint
}

// NewCustomerPointsLookup creates an empty lookup
func NewCustomerPointsLookup() *CustomerPointsLookup {
	return &CustomerPointsLookup{byAsset: make(map[AssetID][]*CustomerPoint)}
}

// AddConnection indexes cp under its pipe and junction. Disconnected points
// are ignored.
func (l *CustomerPointsLookup) AddConnection(cp *CustomerPoint) {
	if cp.Connection == nil {
		return
	}
	for _, id := range [2]AssetID{cp.Connection.JunctionID, cp.Connection.PipeID} {
		if id == NoAssetID {
			continue
		}
		l.byAsset[id] = upsertPoint(l.byAsset[id], cp)
	}
}

func upsertPoint(points []*CustomerPoint, cp *CustomerPoint) []*CustomerPoint {
	for i, p := range points {
		if p.ID == cp.ID {
			points[i] = cp
			return points
		}
	}
	return append(points, cp)
}

// RemoveConnection drops cp from the entries of its pipe and junction
func (l *CustomerPointsLookup) RemoveConnection(cp *CustomerPoint) {
	if cp.Connection == nil {
		return
	}
	for _, id := range [2]AssetID{cp.Connection.JunctionID, cp.Connection.PipeID} {
		points := l.byAsset[id]
		i := slices.IndexFunc(points, func(p *CustomerPoint) bool { return p.ID == cp.ID })
		if i < 0 {
			continue
		}
		points = slices.Delete(points, i, i+1)
		if len(points) == 0 {
			delete(l.byAsset, id)
		} else {
			l.byAsset[id] = points
		}
	}
}

// GetCustomerPoints returns the points attached to asset id, in insertion order
func (l *CustomerPointsLookup) GetCustomerPoints(id AssetID) []*CustomerPoint {
	return slices.Clone(l.byAsset[id])
}

// HasConnections reports whether any point is attached to asset id
func (l *CustomerPointsLookup) HasConnections(id AssetID) bool {
	return len(l.byAsset[id]) > 0
}

// Clear empties the lookup
func (l *CustomerPointsLookup) Clear() {
	l.byAsset = make(map[AssetID][]*CustomerPoint)
}

// Copy returns an independent lookup referencing the same points
func (l *CustomerPointsLookup) Copy() *CustomerPointsLookup {
	out := &CustomerPointsLookup{byAsset: make(map[AssetID][]*CustomerPoint, len(l.byAsset))}
	for id, points := range l.byAsset {
		out.byAsset[id] = slices.Clone(points)
	}
	return out
}

// ActiveCustomerPoints returns the connected points on asset id whose pipe is
// active. A pipe missing from assets counts as active.
func ActiveCustomerPoints(lookup *CustomerPointsLookup, assets *AssetsMap, id AssetID) []*CustomerPoint {
	var out []*CustomerPoint
	for _, cp := range lookup.GetCustomerPoints(id) {
		if cp.Connection == nil {
			continue
		}
		if pipe, ok := assets.Get(cp.Connection.PipeID); ok && !pipe.IsActive() {
			continue
		}
		out = append(out, cp)
	}
	return out
}
