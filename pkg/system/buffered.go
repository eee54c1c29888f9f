package system

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/raterudder/assetsim/pkg/types"
)

// BufferedSystem couples a choosing system with a heat storage. Heat the
// producer releases is routed into the storage together with the thermal
// demand of the environment, and the producer's actions are filtered by the
// storage.
type BufferedSystem struct {
	producer System
	storage  *HeatStorage
	opts     FilterOptions
}

// NewBufferedSystem couples producer and storage.
func NewBufferedSystem(producer System, storage *HeatStorage, opts FilterOptions) (*BufferedSystem, error) {
	if producer == nil || storage == nil {
		return nil, fmt.Errorf("%w: producer and storage are required", ErrInvalidArgument)
	}
	if opts.MinSoC < 0 || opts.MaxSoC > 1 || opts.MinSoC > opts.MaxSoC {
		return nil, fmt.Errorf("%w: soc bounds [%g, %g]", ErrInvalidArgument, opts.MinSoC, opts.MaxSoC)
	}
	return &BufferedSystem{
		producer: producer,
		storage:  storage,
		opts:     opts,
	}, nil
}

// releasedHeat projects a producer action onto the heat it pushes into the
// storage.
func releasedHeat(a Action) float64 {
	return -a.ThPower
}

// AddAction registers an action with the producer.
func (b *BufferedSystem) AddAction(a Action) error {
	return b.producer.AddAction(a)
}

// Actions returns the producer's actions.
func (b *BufferedSystem) Actions() map[int]Action {
	return b.producer.Actions()
}

// ActionsByIdxs returns the producer's actions for the given indexes.
func (b *BufferedSystem) ActionsByIdxs(idxs []int) (map[int]Action, error) {
	return b.producer.ActionsByIdxs(idxs)
}

// FeasibleActionIdxs returns the producer's feasible actions that the
// storage can buffer.
func (b *BufferedSystem) FeasibleActionIdxs(ctx context.Context, deltaTime float64) ([]int, error) {
	idxs, err := b.producer.FeasibleActionIdxs(ctx, deltaTime)
	if err != nil {
		return nil, err
	}
	actions, err := b.producer.ActionsByIdxs(idxs)
	if err != nil {
		return nil, err
	}
	filtered, err := b.storage.FilterActions(ctx, releasedHeat, actions, deltaTime, b.opts)
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(filtered)), nil
}

// StateTransition advances the producer, then routes its interaction plus
// env into the storage. It returns the net exchange with the outside: the
// electrical power and whatever heat the storage could not buffer.
func (b *BufferedSystem) StateTransition(ctx context.Context, deltaTime float64, actionIdx int, env Interaction) (Interaction, error) {
	if actionIdx != NoAction {
		feasible, err := b.FeasibleActionIdxs(ctx, deltaTime)
		if err != nil {
			return Interaction{}, err
		}
		if !slices.Contains(feasible, actionIdx) {
			if _, err := b.producer.ActionsByIdxs([]int{actionIdx}); err != nil {
				return Interaction{}, err
			}
			return Interaction{}, fmt.Errorf("%w: action %d cannot be buffered (feasible: %v)", ErrInfeasibleAction, actionIdx, feasible)
		}
	} else if err := checkDeltaTime(deltaTime); err != nil {
		return Interaction{}, err
	}

	produced, err := b.producer.StateTransition(ctx, deltaTime, actionIdx, env)
	if err != nil {
		return Interaction{}, err
	}
	return b.storage.StateTransition(ctx, deltaTime, NoAction, produced.Add(env))
}

// SetState forwards heat storage snapshots to the storage and everything
// else to the producer.
func (b *BufferedSystem) SetState(state types.SystemState) error {
	if _, ok := state.(types.HeatStorageState); ok {
		return b.storage.SetState(state)
	}
	return b.producer.SetState(state)
}

// FilterActions filters with the storage's limits.
func (b *BufferedSystem) FilterActions(ctx context.Context, project ThermalProjector, actions map[int]Action, deltaTime float64, opts FilterOptions) (map[int]Action, error) {
	return b.storage.FilterActions(ctx, project, actions, deltaTime, opts)
}

// Producer returns the choosing system.
func (b *BufferedSystem) Producer() System {
	return b.producer
}

// Storage returns the buffering heat storage.
func (b *BufferedSystem) Storage() *HeatStorage {
	return b.storage
}
