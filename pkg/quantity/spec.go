package quantity

// Property names that carry a configurable unit
const (
	Diameter             = "diameter"
	Length               = "length"
	Roughness            = "roughness"
	MinorLoss            = "minorLoss"
	Flow                 = "flow"
	Velocity             = "velocity"
	Elevation            = "elevation"
	BaseDemand           = "baseDemand"
	ActualDemand         = "actualDemand"
	CustomerDemand       = "customerDemand"
	CustomerDemandPerDay = "customerDemandPerDay"
	Pressure             = "pressure"
	Headloss             = "headloss"
	UnitHeadloss         = "unitHeadloss"
	Head                 = "head"
	Power                = "power"
	Speed                = "speed"
	TCVSetting           = "tcvSetting"
	InitialLevel         = "initialLevel"
	MinLevel             = "minLevel"
	MaxLevel             = "maxLevel"
	MinVolume            = "minVolume"
	Level                = "level"
	Volume               = "volume"
	TankDiameter         = "tankDiameter"
)

// UnitsSpec maps a property name to the unit its values are stored in
type UnitsSpec map[string]Unit

// Get returns the unit for property, or None if it is dimensionless or unknown.
func (u UnitsSpec) Get(property string) Unit {
	return u[property]
}

// Defaults holds per asset type default magnitudes, already in the units of
// the owning UnitsSpec.
type Defaults struct {
	Pipe      map[string]float64
	Junction  map[string]float64
	Reservoir map[string]float64
	Tank      map[string]float64
	Pump      map[string]float64
	Valve     map[string]float64
}

// Copy returns a deep copy
func (d Defaults) Copy() Defaults {
	cp := func(m map[string]float64) map[string]float64 {
		out := make(map[string]float64, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out
	}
	return Defaults{
		Pipe:      cp(d.Pipe),
		Junction:  cp(d.Junction),
		Reservoir: cp(d.Reservoir),
		Tank:      cp(d.Tank),
		Pump:      cp(d.Pump),
		Valve:     cp(d.Valve),
	}
}

// Preset bundles a named unit system with its decimals and defaults
type Preset struct {
	ID       string
	Units    UnitsSpec
	Decimals map[string]int
	Defaults Defaults
}

// DecimalsFor returns the display precision for property
func (p Preset) DecimalsFor(property string) int {
	if d, ok := p.Decimals[property]; ok {
		return d
	}
	return 3
}

func flowUnits(spec UnitsSpec, u Unit) {
	spec[Flow] = u
	spec[BaseDemand] = u
	spec[ActualDemand] = u
}

func levelUnits(spec UnitsSpec, u Unit) {
	spec[InitialLevel] = u
	spec[MinLevel] = u
	spec[MaxLevel] = u
}

// Metric returns the SI preset
func Metric() Preset {
	units := UnitsSpec{
		Diameter:             Millimeter,
		Length:               Meter,
		Roughness:            None,
		MinorLoss:            None,
		Velocity:             MetersPerSecond,
		Elevation:            Meter,
		Pressure:             MetersWaterColumn,
		Head:                 Meter,
		Headloss:             Meter,
		UnitHeadloss:         MetersPerKilometer,
		Power:                Kilowatt,
		Speed:                None,
		TCVSetting:           None,
		MinVolume:            CubicMeter,
		Level:                Meter,
		Volume:               CubicMeter,
		TankDiameter:         Meter,
		CustomerDemand:       LitersPerSecond,
		CustomerDemandPerDay: LitersPerDay,
	}
	levelUnits(units, Meter)
	flowUnits(units, LitersPerSecond)

	return Preset{
		ID:       "metric",
		Units:    units,
		Decimals: map[string]int{},
		Defaults: Defaults{
			Pipe:      map[string]float64{Diameter: 300, Length: 1000, Roughness: 130},
			Junction:  map[string]float64{},
			Reservoir: map[string]float64{"relativeHead": 10},
			Tank: map[string]float64{
				Diameter: 10, InitialLevel: 10, MinLevel: 0, MaxLevel: 35, MinVolume: 0,
			},
			Pump:  map[string]float64{"designHead": 1, "designFlow": 1, Power: 20},
			Valve: map[string]float64{Diameter: 300},
		},
	}
}

// USCustomary returns the US customary preset
func USCustomary() Preset {
	units := UnitsSpec{
		Diameter:             Inch,
		Length:               Foot,
		Roughness:            None,
		MinorLoss:            None,
		Velocity:             FeetPerSecond,
		Elevation:            Foot,
		Pressure:             PoundsPerSquareInch,
		Head:                 Foot,
		Headloss:             Foot,
		UnitHeadloss:         FeetPerKiloFoot,
		Power:                Horsepower,
		Speed:                None,
		TCVSetting:           None,
		MinVolume:            CubicFoot,
		Level:                Foot,
		Volume:               CubicFoot,
		TankDiameter:         Foot,
		CustomerDemand:       GallonsPerMinute,
		CustomerDemandPerDay: GallonsPerDay,
	}
	levelUnits(units, Foot)
	flowUnits(units, GallonsPerMinute)

	return Preset{
		ID:       "us-customary",
		Units:    units,
		Decimals: map[string]int{Elevation: 1},
		Defaults: Defaults{
			Pipe:      map[string]float64{Diameter: 12, Length: 1000, Roughness: 130},
			Junction:  map[string]float64{},
			Reservoir: map[string]float64{"relativeHead": 32},
			Tank: map[string]float64{
				Diameter: 120, InitialLevel: 10, MinLevel: 0, MaxLevel: 30, MinVolume: 0,
			},
			Pump:  map[string]float64{"designHead": 1, "designFlow": 1, Power: 20},
			Valve: map[string]float64{Diameter: 12},
		},
	}
}

// PresetByID resolves a preset name as used in configuration files
func PresetByID(id string) (Preset, bool) {
	switch id {
	case "metric", "si", "":
		return Metric(), true
	case "us-customary", "us", "gpm":
		return USCustomary(), true
	default:
		return Preset{}, false
	}
}
