// Package quantity converts physical magnitudes between the units used by
// water network models.
package quantity

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats/scalar"
)

// Unit is a unit symbol. The empty unit marks a dimensionless magnitude.
type Unit string

const (
	None Unit = ""

	Meter      Unit = "m"
	Millimeter Unit = "mm"
	Inch       Unit = "in"
	Foot       Unit = "ft"
	Kilometer  Unit = "km"

	LitersPerSecond     Unit = "l/s"
	LitersPerMinute     Unit = "l/min"
	LitersPerHour       Unit = "l/h"
	LitersPerDay        Unit = "l/d"
	GallonsPerMinute    Unit = "gal/min"
	GallonsPerDay       Unit = "gal/d"
	CubicFeetPerSecond  Unit = "ft^3/s"
	CubicFeetPerDay     Unit = "ft^3/d"
	CubicMetersPerHour  Unit = "m^3/h"
	CubicMetersPerDay   Unit = "m^3/d"
	MegagallonsPerDay   Unit = "Mgal/d"
	ImperialMgalPerDay  Unit = "IMgal/d"
	MegalitersPerDay    Unit = "Ml/d"
	AcreFeetPerDay      Unit = "acft/d"
	MetersPerKilometer  Unit = "m/km"
	FeetPerKiloFoot     Unit = "ft/kft"
	MetersWaterColumn   Unit = "mwc"
	PoundsPerSquareInch Unit = "psi"
	MetersPerSecond     Unit = "m/s"
	FeetPerSecond       Unit = "ft/s"
	CubicMeter          Unit = "m^3"
	CubicFoot           Unit = "ft^3"
	Kilowatt            Unit = "kW"
	Horsepower          Unit = "hp"
)

type dimension int

const (
	dimLength dimension = iota + 1
	dimFlow
	dimSlope
	dimPressure
	dimVelocity
	dimVolume
	dimPower
)

type unitDef struct {
	dim    dimension
	toBase float64
}

const (
	usGallon = 0.003785411784
	cubicFt  = 0.028316846592
	day      = 86400.0
)

// factors relative to SI base units of each dimension
var units = map[Unit]unitDef{
	Meter:      {dimLength, 1},
	Millimeter: {dimLength, 0.001},
	Inch:       {dimLength, 0.0254},
	Foot:       {dimLength, 0.3048},
	Kilometer:  {dimLength, 1000},

	LitersPerSecond:    {dimFlow, 0.001},
	LitersPerMinute:    {dimFlow, 0.001 / 60},
	LitersPerHour:      {dimFlow, 0.001 / 3600},
	LitersPerDay:       {dimFlow, 0.001 / day},
	GallonsPerMinute:   {dimFlow, usGallon / 60},
	GallonsPerDay:      {dimFlow, usGallon / day},
	CubicFeetPerSecond: {dimFlow, cubicFt},
	CubicFeetPerDay:    {dimFlow, cubicFt / day},
	CubicMetersPerHour: {dimFlow, 1.0 / 3600},
	CubicMetersPerDay:  {dimFlow, 1.0 / day},
	MegagallonsPerDay:  {dimFlow, usGallon * 1e6 / day},
	ImperialMgalPerDay: {dimFlow, 4546.09 / day},
	MegalitersPerDay:   {dimFlow, 1000 / day},
	AcreFeetPerDay:     {dimFlow, 1233.48183754752 / day},

	MetersPerKilometer: {dimSlope, 0.001},
	FeetPerKiloFoot:    {dimSlope, 0.001},

	MetersWaterColumn:   {dimPressure, 9806.65},
	PoundsPerSquareInch: {dimPressure, 6894.757293168361},

	MetersPerSecond: {dimVelocity, 1},
	FeetPerSecond:   {dimVelocity, 0.3048},

	CubicMeter: {dimVolume, 1},
	CubicFoot:  {dimVolume, cubicFt},

	Kilowatt:   {dimPower, 1000},
	Horsepower: {dimPower, 745.6998715822702},
}

var (
	ErrUnknownUnit       = errors.New("unknown unit")
	ErrIncompatibleUnits = errors.New("incompatible units")
)

// Quantity is a magnitude tagged with its unit
type Quantity struct {
	Value float64 `yaml:"value" json:"value"`
	Unit  Unit    `yaml:"unit" json:"unit"`
}

// Known reports whether u is a unit this package can convert.
func Known(u Unit) bool {
	if u == None {
		return true
	}
	_, ok := units[u]
	return ok
}

// Convert returns q expressed in target. A dimensionless source or target
// leaves the value untouched.
func Convert(q Quantity, target Unit) (float64, error) {
	if q.Unit == None || target == None || q.Unit == target {
		return q.Value, nil
	}
	from, ok := units[q.Unit]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, q.Unit)
	}
	to, ok := units[target]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, target)
	}
	if from.dim != to.dim {
		return 0, fmt.Errorf("%w: %s to %s", ErrIncompatibleUnits, q.Unit, target)
	}
	return q.Value * from.toBase / to.toBase, nil
}

// ConvertTo is Convert for unit pairs fixed at compile time. It panics when
// the units cannot be converted into each other.
func ConvertTo(q Quantity, target Unit) float64 {
	v, err := Convert(q, target)
	if err != nil {
		panic(err)
	}
	return v
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	return scalar.Round(v, decimals)
}
