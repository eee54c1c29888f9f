package system

import (
	"maps"
	"math"
)

// Attribute names used by the CHP plant.
const (
	AttrMinStayingTime = "min_staying_time"
	AttrMaxStayingTime = "max_staying_time"
)

// NoAction asks a system to carry on without choosing an action: batteries
// idle, CHP plants keep their current mode.
const NoAction = math.MinInt

// Attributes holds system specific extras of an action or interaction.
type Attributes map[string]any

func (a Attributes) float(name string) (float64, bool) {
	switch v := a[name].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Action is a single discrete control choice of a system.
// Powers are in kW: positive means the system consumes, negative means it
// releases power.
type Action struct {
	Idx     int
	ElPower float64
	ThPower float64

	attrs Attributes
}

// NewAction creates an action. The attributes are copied so the action
// cannot be changed after creation.
func NewAction(idx int, elPower, thPower float64, attrs Attributes) Action {
	return Action{
		Idx:     idx,
		ElPower: elPower,
		ThPower: thPower,
		attrs:   maps.Clone(attrs),
	}
}

// Attr returns the named extra attribute.
func (a Action) Attr(name string) (any, bool) {
	v, ok := a.attrs[name]
	return v, ok
}

// FloatAttr returns the named extra attribute as a float. It reports false if
// the attribute is missing or not numeric.
func (a Action) FloatAttr(name string) (float64, bool) {
	return a.attrs.float(name)
}

// Attrs returns a copy of all extra attributes.
func (a Action) Attrs() Attributes {
	return maps.Clone(a.attrs)
}

// Interaction describes the average power a system exchanged with its
// environment during one tick, in kW.
type Interaction struct {
	ElPower    float64
	ThPower    float64
	Attributes Attributes
}

// Scale returns a copy with both powers multiplied by k.
func (i Interaction) Scale(k float64) Interaction {
	return Interaction{
		ElPower:    i.ElPower * k,
		ThPower:    i.ThPower * k,
		Attributes: maps.Clone(i.Attributes),
	}
}

// Add returns the sum of both interactions. Attributes of o win on conflicts.
func (i Interaction) Add(o Interaction) Interaction {
	var attrs Attributes
	if len(i.Attributes) > 0 || len(o.Attributes) > 0 {
		attrs = make(Attributes, len(i.Attributes)+len(o.Attributes))
		maps.Copy(attrs, i.Attributes)
		maps.Copy(attrs, o.Attributes)
	}
	return Interaction{
		ElPower:    i.ElPower + o.ElPower,
		ThPower:    i.ThPower + o.ThPower,
		Attributes: attrs,
	}
}
