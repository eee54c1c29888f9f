package system

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// WsPerKWH converts kWh into watt-seconds.
const WsPerKWH = 1000 * 60 * 60

// bandTolerance absorbs floating point noise when comparing a power against
// the edge of a feasible band.
const bandTolerance = 1e-9

// store is the charge model shared by batteries and heat storages. Energies
// are in watt-seconds.
//
// Losses are applied half before and half after the charge delta so there is
// no loss on losses:
//
//	c(t+1) = [c(t)(1 - r/2) + delta(t) - a] / [1 + r/2]
type store struct {
	capacity              float64
	charge                float64
	chargingEfficiency    float64
	dischargingEfficiency float64
	relativeLoss          float64
	absoluteLoss          float64
}

func (s *store) retained() float64 {
	return s.charge * (1 - s.relativeLoss/2)
}

// deltaBounds returns the range of stored energy change over one tick that
// keeps the charge within [0, capacity].
func (s *store) deltaBounds() (lo, hi float64) {
	lo = 0 - s.retained() + s.absoluteLoss
	hi = s.capacity*(1+s.relativeLoss/2) - s.retained() + s.absoluteLoss
	return lo, hi
}

// external converts a change of stored energy into the energy exchanged at
// the terminals.
func (s *store) external(delta float64) float64 {
	if delta > 0 {
		return delta / s.chargingEfficiency
	}
	return delta * s.dischargingEfficiency
}

// stored converts energy exchanged at the terminals into a change of stored
// energy.
func (s *store) stored(energy float64) float64 {
	switch {
	case energy > 0:
		return energy * s.chargingEfficiency
	case energy < 0:
		return energy / s.dischargingEfficiency
	default:
		return 0
	}
}

// energyBand returns the terminal energy range for one tick.
func (s *store) energyBand() (minEnergy, maxEnergy float64) {
	lo, hi := s.deltaBounds()
	return s.external(lo), s.external(hi)
}

// powerBand returns the terminal power range in W for a tick of deltaTime
// seconds.
func (s *store) powerBand(deltaTime float64) (minPower, maxPower float64) {
	minEnergy, maxEnergy := s.energyBand()
	return minEnergy / deltaTime, maxEnergy / deltaTime
}

// next returns the charge after exchanging energy at the terminals during one
// tick. Leakage cannot drain the store below empty.
func (s *store) next(energy float64) float64 {
	c := (s.stored(energy) + s.retained() - s.absoluteLoss) / (1 + s.relativeLoss/2)
	return min(max(c, 0), s.capacity)
}

func (s *store) setChargeKWH(chargeKWH float64) error {
	charge := chargeKWH * WsPerKWH
	if math.IsNaN(charge) || charge < 0 || charge > s.capacity {
		return fmt.Errorf("%w: charge %g kWh outside [0, %g]", ErrInvalidArgument, chargeKWH, s.capacity/WsPerKWH)
	}
	s.charge = charge
	return nil
}

func (s *store) stateOfCharge() float64 {
	return s.charge / s.capacity
}

func newStore(capacityKWH, chargingEfficiency, dischargingEfficiency, relativeLoss, absoluteLossWs float64) store {
	return store{
		capacity:              capacityKWH * WsPerKWH,
		chargingEfficiency:    chargingEfficiency,
		dischargingEfficiency: dischargingEfficiency,
		relativeLoss:          relativeLoss,
		absoluteLoss:          absoluteLossWs,
	}
}

func withinBand(power, minPower, maxPower float64) bool {
	if power >= minPower && power <= maxPower {
		return true
	}
	return scalar.EqualWithinAbsOrRel(power, minPower, bandTolerance, bandTolerance) ||
		scalar.EqualWithinAbsOrRel(power, maxPower, bandTolerance, bandTolerance)
}

func checkDeltaTime(deltaTime float64) error {
	if !(deltaTime > 0) || math.IsInf(deltaTime, 1) {
		return fmt.Errorf("%w: delta time must be > 0, got %g", ErrInvalidArgument, deltaTime)
	}
	return nil
}
