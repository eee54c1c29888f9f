package system

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/raterudder/assetsim/pkg/types"
)

// Map manages the named systems of a simulation. The map itself is safe for
// concurrent use, the systems it returns are not.
type Map struct {
	mu      sync.Mutex
	systems map[string]System
}

// NewMap creates a new system Map.
func NewMap() *Map {
	return &Map{
		systems: make(map[string]System),
	}
}

// System returns the system registered under name.
func (m *Map) System(name string) (System, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sys, ok := m.systems[name]; ok {
		return sys, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrSystemNotFound, name)
}

// Set registers sys under name, replacing any previous system.
func (m *Map) Set(name string, sys System) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.systems[name] = sys
}

// Names returns the registered names in ascending order.
func (m *Map) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.systems))
}

// Load builds every system described by cfg and registers it. Nothing is
// registered if any system fails to build.
func (m *Map) Load(cfg types.SystemsConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	built := make(map[string]System)
	for name, c := range cfg.Batteries {
		b, err := NewBattery(c)
		if err != nil {
			return fmt.Errorf("battery %s: %w", name, err)
		}
		built[name] = b
	}
	for name, c := range cfg.CHPPlants {
		p, err := NewCHPPlant(c)
		if err != nil {
			return fmt.Errorf("chp plant %s: %w", name, err)
		}
		built[name] = p
	}
	storages := make(map[string]*HeatStorage)
	for name, c := range cfg.HeatStorages {
		s, err := NewHeatStorage(c)
		if err != nil {
			return fmt.Errorf("heat storage %s: %w", name, err)
		}
		storages[name] = s
		built[name] = s
	}
	for name, c := range cfg.Buffered {
		// the producer and the storage are shared with their stand-alone
		// entries, driving both in the same tick is the caller's problem
		b, err := NewBufferedSystem(built[c.Producer], storages[c.Storage], FilterOptions{
			MinSoC: c.MinSoC,
			MaxSoC: c.MaxSoC,
		})
		if err != nil {
			return fmt.Errorf("buffered system %s: %w", name, err)
		}
		built[name] = b
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	maps.Copy(m.systems, built)
	return nil
}
