package system

import (
	"fmt"

	"github.com/levenlabs/go-lflag"

	"github.com/raterudder/assetsim/pkg/types"
)

// Configured sets up the system Map from the YAML file passed with
// --systems-config. Without the flag the map starts empty.
func Configured() *Map {
	path := lflag.String("systems-config", "", "Path to a YAML file describing the simulated systems")

	m := NewMap()

	lflag.Do(func() {
		if *path == "" {
			return
		}
		cfg, err := types.LoadSystemsConfig(*path)
		if err != nil {
			panic(fmt.Sprintf("systems config invalid: %v", err))
		}
		if err := m.Load(cfg); err != nil {
			panic(fmt.Sprintf("systems init failed: %v", err))
		}
	})

	return m
}
