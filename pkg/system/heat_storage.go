package system

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/raterudder/assetsim/pkg/log"
	"github.com/raterudder/assetsim/pkg/types"
)

const (
	// KWhPerKJ converts kJ into kWh.
	KWhPerKJ = 0.000277778
	// WaterDensity in kg/m^3.
	WaterDensity = 1000
	// WaterHeatCapacity in kWh/(kg K).
	WaterHeatCapacity = 4.190 * KWhPerKJ
)

// TankCapacity returns the capacity in kWh of a tank holding volume m^3 of a
// medium with the given density (kg/m^3) and heat capacity (kWh/(kg K))
// between minTemp and maxTemp (K or °C).
func TankCapacity(maxTemp, minTemp, volume, density, heatCapacity float64) float64 {
	return (maxTemp - minTemp) * volume * density * heatCapacity
}

// HeatStorage is a passive thermal buffer. It has no actions of its own; it
// absorbs or supplies the heat other systems push into it and filters their
// actions against its own state of charge.
type HeatStorage struct {
	store
}

// NewHeatStorage creates a heat storage. A configured tank is converted into
// a capacity using the properties of water.
func NewHeatStorage(cfg types.HeatStorageConfig) (*HeatStorage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: heat storage: %w", ErrInvalidArgument, err)
	}
	capacity := cfg.CapacityKWH
	if capacity == 0 {
		capacity = TankCapacity(cfg.Tank.MaxTempC, cfg.Tank.MinTempC, cfg.Tank.VolumeM3, WaterDensity, WaterHeatCapacity)
	}

	s := &HeatStorage{
		store: newStore(capacity, cfg.ChargingEfficiency, cfg.DischargingEfficiency, cfg.RelativeLoss, cfg.AbsoluteLossWs),
	}
	if err := s.SetState(types.HeatStorageState{ChargeKWH: cfg.InitialChargeKWH}); err != nil {
		return nil, err
	}
	return s, nil
}

// AddAction always fails since a heat storage does not choose actions.
func (s *HeatStorage) AddAction(a Action) error {
	return fmt.Errorf("%w: heat storage is passive, cannot register action %d", ErrInvalidArgument, a.Idx)
}

// Actions returns an empty map.
func (s *HeatStorage) Actions() map[int]Action {
	return map[int]Action{}
}

// ActionsByIdxs fails for any index since there are no actions.
func (s *HeatStorage) ActionsByIdxs(idxs []int) (map[int]Action, error) {
	if len(idxs) > 0 {
		return nil, fmt.Errorf("%w: %d", ErrActionNotFound, idxs[0])
	}
	return map[int]Action{}, nil
}

// FeasibleActionIdxs returns an empty set.
func (s *HeatStorage) FeasibleActionIdxs(_ context.Context, deltaTime float64) ([]int, error) {
	if err := checkDeltaTime(deltaTime); err != nil {
		return nil, err
	}
	return []int{}, nil
}

// StateTransition stores or supplies the heat described by env and returns
// the part it could not handle. env is seen from the combined system, so
// negative thermal power is heat offered to the storage. actionIdx is
// ignored.
func (s *HeatStorage) StateTransition(ctx context.Context, deltaTime float64, _ int, env Interaction) (Interaction, error) {
	if err := checkDeltaTime(deltaTime); err != nil {
		return Interaction{}, err
	}

	energy := -env.ThPower * deltaTime * 1000 // kW -> Ws
	minEnergy, maxEnergy := s.energyBand()

	// a storage that is already leaking below empty cannot supply anything
	var flow float64
	switch {
	case energy > 0:
		flow = min(energy, max(maxEnergy, 0))
	case energy < 0:
		flow = max(energy, min(minEnergy, 0))
	}
	remainder := energy - flow

	prev := s.charge
	s.charge = s.next(flow)
	log.Ctx(ctx).DebugContext(
		ctx,
		"heat storage transition",
		slog.Float64("requestedWs", energy),
		slog.Float64("flowWs", flow),
		slog.Float64("remainderWs", remainder),
		slog.Float64("prevChargeWs", prev),
		slog.Float64("chargeWs", s.charge),
	)

	return Interaction{
		ElPower:    env.ElPower,
		ThPower:    -remainder / 1000 / deltaTime, // Ws -> kW, sign of env
		Attributes: maps.Clone(env.Attributes),
	}, nil
}

// FilterActions removes actions whose projected thermal power would push the
// storage outside [opts.MinSoC, opts.MaxSoC] or beyond what it can physically
// absorb or supply during the tick. Positive projected power charges the
// storage. The storage state is not changed.
func (s *HeatStorage) FilterActions(ctx context.Context, project ThermalProjector, actions map[int]Action, deltaTime float64, opts FilterOptions) (map[int]Action, error) {
	if err := checkDeltaTime(deltaTime); err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("%w: projector is required", ErrInvalidArgument)
	}
	if opts.MinSoC < 0 || opts.MaxSoC > 1 || opts.MinSoC > opts.MaxSoC {
		return nil, fmt.Errorf("%w: soc bounds [%g, %g]", ErrInvalidArgument, opts.MinSoC, opts.MaxSoC)
	}

	minCharge := s.capacity * opts.MinSoC
	maxCharge := s.capacity * opts.MaxSoC
	minPower, maxPower := s.powerBand(deltaTime)

	filtered := make(map[int]Action, len(actions))
	for idx, a := range actions {
		thermalPower := project(a)

		switch {
		case s.charge < minCharge && thermalPower <= 0:
			// below the floor even idling drains further
			continue
		case s.charge == minCharge && thermalPower < 0:
			continue
		case s.charge >= maxCharge && thermalPower > 0:
			continue
		}

		if withinBand(thermalPower*1000, minPower, maxPower) {
			filtered[idx] = a
		}
	}

	log.Ctx(ctx).DebugContext(
		ctx,
		"heat storage filtered actions",
		slog.Float64("minPowerW", minPower),
		slog.Float64("maxPowerW", maxPower),
		slog.Int("candidates", len(actions)),
		slog.Int("kept", len(filtered)),
	)
	return filtered, nil
}

// SetState sets the charge from a types.HeatStorageState.
func (s *HeatStorage) SetState(state types.SystemState) error {
	st, ok := state.(types.HeatStorageState)
	if !ok {
		return fmt.Errorf("%w: heat storage expects types.HeatStorageState, got %T", ErrInvalidArgument, state)
	}
	return s.setChargeKWH(st.ChargeKWH)
}

// Charge returns the current charge in kWh.
func (s *HeatStorage) Charge() float64 {
	return s.charge / WsPerKWH
}

// Capacity returns the capacity in kWh.
func (s *HeatStorage) Capacity() float64 {
	return s.capacity / WsPerKWH
}

// StateOfCharge returns the charge as a fraction of the capacity.
func (s *HeatStorage) StateOfCharge() float64 {
	return s.stateOfCharge()
}
