// Package hydraulic holds the water network asset model: typed nodes and
// links, customer points, the asset builder and the HydraulicModel snapshot
// that edit operations read from.
//
// Assets are copy-on-write. A snapshot never shares a mutable asset with a
// diff computed from it: operations Copy() an asset before changing it.
package hydraulic

import (
	"slices"

	"github.com/dd0wney/cluso-waternet/pkg/quantity"
)

// AssetID identifies an asset for the lifetime of a model
type AssetID = uint32

// NoAssetID marks an absent asset reference
const NoAssetID AssetID = 0

// AssetType names the concrete asset variant
type AssetType string

const (
	TypeJunction  AssetType = "junction"
	TypeReservoir AssetType = "reservoir"
	TypeTank      AssetType = "tank"
	TypePipe      AssetType = "pipe"
	TypePump      AssetType = "pump"
	TypeValve     AssetType = "valve"
)

// IsNode reports whether the type is a node variant
func (t AssetType) IsNode() bool {
	return t == TypeJunction || t == TypeReservoir || t == TypeTank
}

// IsLink reports whether the type is a link variant
func (t AssetType) IsLink() bool {
	return t == TypePipe || t == TypePump || t == TypeValve
}

// Asset is the behaviour shared by every network element.
type Asset interface {
	ID() AssetID
	Type() AssetType
	Label() string
	SetLabel(label string)
	IsActive() bool
	SetActive(active bool)
	IsNode() bool
	IsLink() bool

	// HasProperty, GetProperty and SetProperty address the closed set of
	// property names declared by the asset's type. Unknown names read as
	// absent and SetProperty reports false.
	HasProperty(name string) bool
	GetProperty(name string) (any, bool)
	SetProperty(name string, value any) bool
	ListProperties() []string

	HasSimulation() bool
	ClearSimulation()

	// Copy returns an owned clone preserving id and units
	Copy() Asset

	base() *assetBase
}

type assetBase struct {
	id       AssetID
	label    string
	isActive bool
	units    quantity.UnitsSpec
}

func (a *assetBase) ID() AssetID               { return a.id }
func (a *assetBase) Label() string             { return a.label }
func (a *assetBase) SetLabel(label string)     { a.label = label }
func (a *assetBase) IsActive() bool            { return a.isActive }
func (a *assetBase) SetActive(active bool)     { a.isActive = active }
func (a *assetBase) Units() quantity.UnitsSpec { return a.units }
func (a *assetBase) base() *assetBase          { return a }

// property is a typed accessor for one named property of T
type property[T any] struct {
	get func(*T) any
	set func(*T, any) bool
}

type propertyTable[T any] map[string]property[T]

func (pt propertyTable[T]) has(name string) bool {
	_, ok := pt[name]
	return ok
}

func (pt propertyTable[T]) get(a *T, name string) (any, bool) {
	p, ok := pt[name]
	if !ok {
		return nil, false
	}
	return p.get(a), true
}

func (pt propertyTable[T]) set(a *T, name string, v any) bool {
	p, ok := pt[name]
	if !ok || p.set == nil {
		return false
	}
	return p.set(a, v)
}

func (pt propertyTable[T]) names() []string {
	names := make([]string, 0, len(pt))
	for name := range pt {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// withCommon adds label, isActive and type to a per-type table
func withCommon[T any](typ AssetType, base func(*T) *assetBase, pt propertyTable[T]) propertyTable[T] {
	pt["type"] = property[T]{get: func(*T) any { return string(typ) }}
	pt["label"] = property[T]{
		get: func(a *T) any { return base(a).label },
		set: func(a *T, v any) bool {
			s, ok := v.(string)
			if ok {
				base(a).label = s
			}
			return ok
		},
	}
	pt["isActive"] = property[T]{
		get: func(a *T) any { return base(a).isActive },
		set: func(a *T, v any) bool {
			b, ok := v.(bool)
			if ok {
				base(a).isActive = b
			}
			return ok
		},
	}
	return pt
}

// floatProp builds an accessor backed by a float64 field
func floatProp[T any](field func(*T) *float64) property[T] {
	return property[T]{
		get: func(a *T) any { return *field(a) },
		set: func(a *T, v any) bool {
			f, ok := asFloat(v)
			if ok {
				*field(a) = f
			}
			return ok
		},
	}
}

// enumProp builds an accessor for a string-backed enum restricted to allowed
func enumProp[T any, E ~string](field func(*T) *E, allowed ...E) property[T] {
	return property[T]{
		get: func(a *T) any { return string(*field(a)) },
		set: func(a *T, v any) bool {
			var s E
			switch x := v.(type) {
			case string:
				s = E(x)
			case E:
				s = x
			default:
				return false
			}
			if !slices.Contains(allowed, s) {
				return false
			}
			*field(a) = s
			return true
		},
	}
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}
