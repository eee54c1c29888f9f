package system

import (
	"context"

	"github.com/raterudder/assetsim/pkg/types"
)

// System defines the contract of a simulated energy system.
//
// Energy flow signs are seen from the system: positive power is consumed,
// negative power is released. A driver queries FeasibleActionIdxs, picks one
// of the returned indexes and passes it to StateTransition. Systems are not
// safe for concurrent use; a single caller drives each instance tick by tick.
type System interface {
	// AddAction registers an action in the system's catalog.
	AddAction(a Action) error

	// Actions returns every registered action keyed by index.
	Actions() map[int]Action

	// ActionsByIdxs returns the registered actions for the given indexes.
	ActionsByIdxs(idxs []int) (map[int]Action, error)

	// FeasibleActionIdxs returns, in ascending order, the indexes of actions
	// that keep the system within its physical bounds over the next tick of
	// deltaTime seconds.
	FeasibleActionIdxs(ctx context.Context, deltaTime float64) ([]int, error)

	// StateTransition advances the system by deltaTime seconds performing
	// the action actionIdx (or NoAction). env is the sum of all interactions
	// the system faces; passive systems use it to determine their own flow.
	// It returns what the system actually exchanged with its environment.
	// On error the state is left unchanged.
	StateTransition(ctx context.Context, deltaTime float64, actionIdx int, env Interaction) (Interaction, error)

	// SetState forces a state snapshot onto the system.
	SetState(state types.SystemState) error

	// FilterActions lets passive systems declare actions of another system
	// infeasible. Systems that do not restrict others return actions as is.
	FilterActions(ctx context.Context, project ThermalProjector, actions map[int]Action, deltaTime float64, opts FilterOptions) (map[int]Action, error)
}

// ThermalProjector maps an action of another system onto the thermal power
// in kW it would push into the filtering system.
type ThermalProjector func(Action) float64

// FilterOptions bounds the state of charge a filtering storage may reach.
type FilterOptions struct {
	MinSoC float64
	MaxSoC float64
}

// DefaultFilterOptions allows the whole state of charge range.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{MinSoC: 0, MaxSoC: 1}
}
