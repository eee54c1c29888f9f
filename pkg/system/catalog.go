package system

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

// Catalog is the action registry shared by all systems.
type Catalog struct {
	actions map[int]Action
}

// AddAction registers an action. It fails if the index is already taken.
func (c *Catalog) AddAction(a Action) error {
	if _, ok := c.actions[a.Idx]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateAction, a.Idx)
	}
	if c.actions == nil {
		c.actions = make(map[int]Action)
	}
	c.actions[a.Idx] = a
	return nil
}

// Actions returns all registered actions keyed by index.
func (c *Catalog) Actions() map[int]Action {
	return maps.Clone(c.actions)
}

// ActionsByIdxs returns the registered actions for the given indexes.
func (c *Catalog) ActionsByIdxs(idxs []int) (map[int]Action, error) {
	res := make(map[int]Action, len(idxs))
	for _, idx := range idxs {
		a, err := c.Action(idx)
		if err != nil {
			return nil, err
		}
		res[idx] = a
	}
	return res, nil
}

// Action returns a single registered action.
func (c *Catalog) Action(idx int) (Action, error) {
	a, ok := c.actions[idx]
	if !ok {
		return Action{}, fmt.Errorf("%w: %d", ErrActionNotFound, idx)
	}
	return a, nil
}

// Idxs returns all registered indexes in ascending order.
func (c *Catalog) Idxs() []int {
	return slices.Sorted(maps.Keys(c.actions))
}

// Len returns the number of registered actions.
func (c *Catalog) Len() int {
	return len(c.actions)
}

// FilterActions is the default filter of systems that do not restrict other
// systems. It returns a copy of actions.
func (c *Catalog) FilterActions(_ context.Context, _ ThermalProjector, actions map[int]Action, _ float64, _ FilterOptions) (map[int]Action, error) {
	return maps.Clone(actions), nil
}
