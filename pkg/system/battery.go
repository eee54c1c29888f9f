package system

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/raterudder/assetsim/pkg/log"
	"github.com/raterudder/assetsim/pkg/types"
)

// Battery simulates an electrical storage with conversion losses and leakage.
type Battery struct {
	Catalog
	store
}

// NewBattery creates a battery with 2g+1 actions spread evenly over
// [-MaxPowerKW, MaxPowerKW] where g is the configured granularity.
func NewBattery(cfg types.BatteryConfig) (*Battery, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: battery: %w", ErrInvalidArgument, err)
	}

	b := &Battery{
		store: newStore(cfg.CapacityKWH, cfg.ChargingEfficiency, cfg.DischargingEfficiency, cfg.RelativeLoss, cfg.AbsoluteLossWs),
	}

	g := cfg.Granularity
	// enough decimals to tell neighbouring actions apart
	decimals := max(0, int(math.Ceil(math.Log10(float64(g))-math.Log10(cfg.MaxPowerKW))))
	actions := []Action{NewAction(g, 0, 0, nil)}
	for i := 0; i < g; i++ {
		discharge := cfg.MaxPowerKW * (float64(i)/float64(g) - 1)
		charge := cfg.MaxPowerKW * float64(i+1) / float64(g)
		actions = append(actions,
			NewAction(i, scalar.RoundEven(discharge, decimals), 0, nil),
			NewAction(g+1+i, scalar.RoundEven(charge, decimals), 0, nil),
		)
	}
	for _, a := range actions {
		if err := b.AddAction(a); err != nil {
			return nil, err
		}
	}

	if err := b.SetState(types.BatteryState{ChargeKWH: cfg.InitialChargeKWH}); err != nil {
		return nil, err
	}
	return b, nil
}

// FeasibleActionIdxs returns the actions whose electrical power keeps the
// charge within [0, capacity] after a tick of deltaTime seconds.
func (b *Battery) FeasibleActionIdxs(ctx context.Context, deltaTime float64) ([]int, error) {
	if err := checkDeltaTime(deltaTime); err != nil {
		return nil, err
	}
	minPower, maxPower := b.powerBand(deltaTime)
	log.Ctx(ctx).DebugContext(
		ctx,
		"battery power band",
		slog.Float64("minPowerW", minPower),
		slog.Float64("maxPowerW", maxPower),
		slog.Float64("chargeWs", b.charge),
	)

	idxs := make([]int, 0, b.Len())
	for _, idx := range b.Idxs() {
		if withinBand(b.actions[idx].ElPower*1000, minPower, maxPower) {
			idxs = append(idxs, idx)
		}
	}
	return idxs, nil
}

// StateTransition charges or discharges with the power of the given action.
// NoAction idles so only leakage applies. The returned interaction carries
// the nominal action power.
func (b *Battery) StateTransition(ctx context.Context, deltaTime float64, actionIdx int, _ Interaction) (Interaction, error) {
	if err := checkDeltaTime(deltaTime); err != nil {
		return Interaction{}, err
	}

	var action Action
	if actionIdx != NoAction {
		a, err := b.Action(actionIdx)
		if err != nil {
			return Interaction{}, err
		}
		minPower, maxPower := b.powerBand(deltaTime)
		if !withinBand(a.ElPower*1000, minPower, maxPower) {
			return Interaction{}, fmt.Errorf(
				"%w: battery action %d (%g kW) outside [%g, %g] W",
				ErrInfeasibleAction, actionIdx, a.ElPower, minPower, maxPower,
			)
		}
		action = a
	}

	power := action.ElPower * 1000 // W
	prev := b.charge
	b.charge = b.next(power * deltaTime)
	log.Ctx(ctx).DebugContext(
		ctx,
		"battery transition",
		slog.Int("action", actionIdx),
		slog.Float64("powerW", power),
		slog.Float64("prevChargeWs", prev),
		slog.Float64("chargeWs", b.charge),
	)

	return Interaction{ElPower: action.ElPower, ThPower: action.ThPower}, nil
}

// SetState sets the charge from a types.BatteryState.
func (b *Battery) SetState(state types.SystemState) error {
	s, ok := state.(types.BatteryState)
	if !ok {
		return fmt.Errorf("%w: battery expects types.BatteryState, got %T", ErrInvalidArgument, state)
	}
	return b.setChargeKWH(s.ChargeKWH)
}

// Charge returns the current charge in kWh.
func (b *Battery) Charge() float64 {
	return b.charge / WsPerKWH
}

// Capacity returns the capacity in kWh.
func (b *Battery) Capacity() float64 {
	return b.capacity / WsPerKWH
}

// StateOfCharge returns the charge as a fraction of the capacity.
func (b *Battery) StateOfCharge() float64 {
	return b.stateOfCharge()
}
