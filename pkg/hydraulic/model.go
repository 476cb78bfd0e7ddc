package hydraulic

import (
	"github.com/google/uuid"

	"github.com/dd0wney/cluso-waternet/pkg/quantity"
	"github.com/dd0wney/cluso-waternet/pkg/topology"
)

// HeadlossFormula selects the friction model used by the solver
type HeadlossFormula string

const (
	HazenWilliams HeadlossFormula = "H-W"
	DarcyWeisbach HeadlossFormula = "D-W"
	ChezyManning  HeadlossFormula = "C-M"
)

// Demands scales every junction demand
type Demands struct {
	Multiplier float64 `yaml:"multiplier"`
}

// EPSTiming holds extended period simulation timing, in seconds. Zero
// fields are unset.
type EPSTiming struct {
	Duration        int64 `yaml:"duration,omitempty"`
	HydraulicStep   int64 `yaml:"hydraulicStep,omitempty"`
	ReportStep      int64 `yaml:"reportStep,omitempty"`
	PatternStep     int64 `yaml:"patternStep,omitempty"`
	ReportStart     int64 `yaml:"reportStart,omitempty"`
	PatternStart    int64 `yaml:"patternStart,omitempty"`
	StartClockTime  int64 `yaml:"startClockTime,omitempty"`
	QualityTimestep int64 `yaml:"qualityTimestep,omitempty"`
}

// HydraulicModel is one immutable snapshot of a network. Readers must not
// mutate it; ApplyDiff and the Update/Attach helpers return a new snapshot.
//
// IDs, LabelManager and the builder are session allocators shared by all
// snapshots derived from the same InitializeHydraulicModel call.
type HydraulicModel struct {
	Version              string
	Assets               *AssetsMap
	CustomerPoints       *CustomerPoints
	CustomerPointsLookup *CustomerPointsLookup
	Topology             *topology.Topology
	Builder              *AssetBuilder
	LabelManager         *LabelManager
	IDs                  *ConsecutiveIDGenerator
	Units                quantity.UnitsSpec
	Defaults             quantity.Defaults
	HeadlossFormula      HeadlossFormula
	Demands              Demands
	Curves               Curves
	EPSTiming            EPSTiming
}

// ModelConfig parameterises InitializeHydraulicModel
type ModelConfig struct {
	Units    quantity.UnitsSpec
	Defaults quantity.Defaults
	// HeadlossFormula defaults to HazenWilliams
	HeadlossFormula HeadlossFormula
	// Demands defaults to a multiplier of 1
	Demands   *Demands
	EPSTiming EPSTiming
}

// InitializeHydraulicModel returns an empty model
func InitializeHydraulicModel(cfg ModelConfig) *HydraulicModel {
	formula := cfg.HeadlossFormula
	if formula == "" {
		formula = HazenWilliams
	}
	demands := Demands{Multiplier: 1}
	if cfg.Demands != nil {
		demands = *cfg.Demands
	}
	labels := NewLabelManager()
	ids := NewConsecutiveIDGenerator(0)
	return &HydraulicModel{
		Version:              uuid.NewString(),
		Assets:               NewAssetsMap(),
		CustomerPoints:       NewCustomerPoints(),
		CustomerPointsLookup: NewCustomerPointsLookup(),
		Topology:             topology.New(),
		Builder:              NewAssetBuilder(cfg.Units, cfg.Defaults, ids, labels),
		LabelManager:         labels,
		IDs:                  ids,
		Units:                cfg.Units,
		Defaults:             cfg.Defaults,
		HeadlossFormula:      formula,
		Demands:              demands,
		Curves:               Curves{},
		EPSTiming:            cfg.EPSTiming,
	}
}

// ForPreset initialises an empty model with a unit preset
func ForPreset(p quantity.Preset) *HydraulicModel {
	return InitializeHydraulicModel(ModelConfig{Units: p.Units, Defaults: p.Defaults.Copy()})
}

func (m *HydraulicModel) clone() *HydraulicModel {
	cp := *m
	cp.Version = uuid.NewString()
	return &cp
}

// BuildTopology derives the adjacency of every link in assets. Endpoints
// that do not resolve to a node are left out.
func BuildTopology(assets *AssetsMap) *topology.Topology {
	links := make([]topology.Endpoints, 0, assets.Len())
	for _, a := range assets.All() {
		l, ok := a.(Link)
		if !ok {
			continue
		}
		c := l.Connections()
		links = append(links, topology.Endpoints{LinkID: l.ID(), Start: c[0], End: c[1]})
	}
	return topology.Build(links, func(id uint32) bool {
		return assets.GetNode(id) != nil
	})
}

// UpdateHydraulicModelAssets installs assets, or re-sorts the current
// assets by id when assets is nil. The topology and the label registry are
// rebuilt and the id generator is advanced past every id present.
func UpdateHydraulicModelAssets(m *HydraulicModel, assets *AssetsMap) *HydraulicModel {
	if assets == nil {
		assets = m.Assets.SortedByID()
	}
	next := m.clone()
	next.Assets = assets
	next.Topology = BuildTopology(assets)

	labels := NewLabelManager()
	for _, a := range assets.All() {
		labels.Register(a.Label(), a.Type(), a.ID())
		m.IDs.Advance(a.ID())
	}
	next.LabelManager = labels
	next.Builder = NewAssetBuilder(m.Units, m.Defaults, m.IDs, labels)
	next.Builder.points = m.Builder.points
	next.Builder.points.Advance(next.CustomerPoints.MaxID())
	return next
}

// AttachSimulation returns a snapshot whose assets carry the reader's
// overlays. The assets map is always a new reference.
func AttachSimulation(m *HydraulicModel, reader ResultsReader) *HydraulicModel {
	assets := NewAssetsMap()
	for _, a := range m.Assets.All() {
		if reader == nil {
			cp := a.Copy()
			cp.ClearSimulation()
			assets.Set(cp)
			continue
		}
		assets.Set(attachResults(a, reader))
	}
	next := m.clone()
	next.Assets = assets
	return next
}

// AddCustomerPointsOptions tunes AddCustomerPoints
type AddCustomerPointsOptions struct {
	// ClearJunctionDemands zeroes the base demand of every junction that
	// receives a point, once.
	ClearJunctionDemands bool
	// ReplaceExisting drops the current points first
	ReplaceExisting bool
}

// AddCustomerPoints returns a snapshot holding points and the
// corresponding lookup entries.
func AddCustomerPoints(m *HydraulicModel, points []*CustomerPoint, opts AddCustomerPointsOptions) *HydraulicModel {
	next := m.clone()
	if opts.ReplaceExisting {
		next.CustomerPoints = NewCustomerPoints()
		next.CustomerPointsLookup = NewCustomerPointsLookup()
	} else {
		next.CustomerPoints = m.CustomerPoints.Copy()
		next.CustomerPointsLookup = m.CustomerPointsLookup.Copy()
	}
	var assets *AssetsMap
	cleared := make(map[AssetID]bool)

	for _, cp := range points {
		if prev, ok := next.CustomerPoints.Get(cp.ID); ok {
			next.CustomerPointsLookup.RemoveConnection(prev)
		}
		next.CustomerPoints.Set(cp)
		next.CustomerPointsLookup.AddConnection(cp)
		m.Builder.points.Advance(cp.ID)

		if !opts.ClearJunctionDemands || cp.Connection == nil || cleared[cp.Connection.JunctionID] {
			continue
		}
		j := m.Assets.GetJunction(cp.Connection.JunctionID)
		if j == nil {
			continue
		}
		if assets == nil {
			assets = m.Assets.Copy()
		}
		updated := j.Copy().(*Junction)
		updated.SetBaseDemand(0)
		assets.Set(updated)
		cleared[j.ID()] = true
	}
	if assets != nil {
		next.Assets = assets
	}
	return next
}

// TotalDemand is the base demand of every active junction plus its
// active customer points, scaled by the demand multiplier.
func (m *HydraulicModel) TotalDemand() float64 {
	var total float64
	for _, a := range m.Assets.All() {
		j, ok := a.(*Junction)
		if !ok || !j.IsActive() {
			continue
		}
		total += j.BaseDemand()
		for _, cp := range ActiveCustomerPoints(m.CustomerPointsLookup, m.Assets, j.ID()) {
			if cp.Connection.JunctionID == j.ID() {
				total += cp.BaseDemand
			}
		}
	}
	return total * m.Demands.Multiplier
}

// MaxAssetID returns the highest asset id present
func (m *HydraulicModel) MaxAssetID() AssetID {
	var highest AssetID
	for id := range m.Assets.All() {
		highest = max(highest, id)
	}
	return highest
}
