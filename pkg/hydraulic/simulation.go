package hydraulic

// Solver result overlays. They are read-only once attached; a new solver run
// replaces them as a whole.

type PumpStatusWarning string

const (
	PumpCannotDeliverFlow PumpStatusWarning = "cannot-deliver-flow"
	PumpCannotDeliverHead PumpStatusWarning = "cannot-deliver-head"
)

type ValveStatusWarning string

const (
	ValveCannotDeliverFlow     ValveStatusWarning = "cannot-deliver-flow"
	ValveCannotDeliverPressure ValveStatusWarning = "cannot-deliver-pressure"
)

type PipeSimulation struct {
	Flow         float64
	Velocity     float64
	Headloss     float64
	UnitHeadloss float64
	Status       PipeStatus
}

type PumpSimulation struct {
	Flow          float64
	Headloss      float64
	Status        PumpStatus
	StatusWarning PumpStatusWarning
}

type ValveSimulation struct {
	Flow          float64
	Velocity      float64
	Headloss      float64
	Status        ValveStatus
	StatusWarning ValveStatusWarning
}

type JunctionSimulation struct {
	Pressure float64
	Head     float64
	Demand   float64
}

type TankSimulation struct {
	Pressure float64
	Head     float64
	Level    float64
	Volume   float64
}

// ResultsReader exposes solver results per asset. A nil result means the
// solver reported nothing for that asset.
type ResultsReader interface {
	Pipe(id AssetID) *PipeSimulation
	Pump(id AssetID) *PumpSimulation
	Valve(id AssetID) *ValveSimulation
	Junction(id AssetID) *JunctionSimulation
	Tank(id AssetID) *TankSimulation
}

// attachResults returns a copy of a carrying the reader's overlay for it
func attachResults(a Asset, reader ResultsReader) Asset {
	switch v := a.(type) {
	case *Pipe:
		cp := v.Copy().(*Pipe)
		cp.SetSimulation(reader.Pipe(v.id))
		return cp
	case *Pump:
		cp := v.Copy().(*Pump)
		cp.SetSimulation(reader.Pump(v.id))
		return cp
	case *Valve:
		cp := v.Copy().(*Valve)
		cp.SetSimulation(reader.Valve(v.id))
		return cp
	case *Junction:
		cp := v.Copy().(*Junction)
		cp.SetSimulation(reader.Junction(v.id))
		return cp
	case *Tank:
		cp := v.Copy().(*Tank)
		cp.SetSimulation(reader.Tank(v.id))
		return cp
	default:
		return a
	}
}

// StaticResults is an in-memory ResultsReader
type StaticResults struct {
	Pipes     map[AssetID]*PipeSimulation
	Pumps     map[AssetID]*PumpSimulation
	Valves    map[AssetID]*ValveSimulation
	Junctions map[AssetID]*JunctionSimulation
	Tanks     map[AssetID]*TankSimulation
}

func (r *StaticResults) Pipe(id AssetID) *PipeSimulation         { return r.Pipes[id] }
func (r *StaticResults) Pump(id AssetID) *PumpSimulation         { return r.Pumps[id] }
func (r *StaticResults) Valve(id AssetID) *ValveSimulation       { return r.Valves[id] }
func (r *StaticResults) Junction(id AssetID) *JunctionSimulation { return r.Junctions[id] }
func (r *StaticResults) Tank(id AssetID) *TankSimulation         { return r.Tanks[id] }
