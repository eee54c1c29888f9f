package system

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raterudder/assetsim/pkg/types"
)

const testSystemsYAML = `
batteries:
  home:
    capacityKWH: 10
    maxPowerKW: 5
    granularity: 1
    initialChargeKWH: 5
    chargingEfficiency: 1
    dischargingEfficiency: 1
chpPlants:
  chp:
    modes:
      - idx: 0
        elPowerKW: 0
        thPowerKW: 0
        minStayingTime: 0
      - idx: 1
        elPowerKW: -10
        thPowerKW: -20
        minStayingTime: 600
        maxStayingTime: 3600
    initialMode: 0
    elRampUpRate: 1
    elRampDownRate: 1
    thRampUpRate: 1
    thRampDownRate: 1
heatStorages:
  tank:
    tank:
      maxTempC: 60
      minTempC: 20
      volumeM3: 1
    initialChargeKWH: 10
    chargingEfficiency: 1
    dischargingEfficiency: 1
buffered:
  chp-tank:
    producer: chp
    storage: tank
    minSoC: 0.1
    maxSoC: 0.9
`

func TestMap(t *testing.T) {
	cfg, err := types.ParseSystemsConfig([]byte(testSystemsYAML))
	require.NoError(t, err)

	t.Run("Load", func(t *testing.T) {
		m := NewMap()
		require.NoError(t, m.Load(cfg))
		assert.Equal(t, []string{"chp", "chp-tank", "home", "tank"}, m.Names())

		home, err := m.System("home")
		require.NoError(t, err)
		assert.IsType(t, &Battery{}, home)

		chp, err := m.System("chp")
		require.NoError(t, err)
		require.IsType(t, &CHPPlant{}, chp)
		a, err := chp.(*CHPPlant).Action(1)
		require.NoError(t, err)
		v, _ := a.FloatAttr(AttrMaxStayingTime)
		assert.Equal(t, 3600.0, v)
		a, err = chp.(*CHPPlant).Action(0)
		require.NoError(t, err)
		v, _ = a.FloatAttr(AttrMaxStayingTime)
		assert.True(t, math.IsInf(v, 1))

		tank, err := m.System("tank")
		require.NoError(t, err)
		require.IsType(t, &HeatStorage{}, tank)
		assert.InDelta(t, 46.5556, tank.(*HeatStorage).Capacity(), 1e-3)

		buffered, err := m.System("chp-tank")
		require.NoError(t, err)
		require.IsType(t, &BufferedSystem{}, buffered)
		assert.Same(t, tank, buffered.(*BufferedSystem).Storage())
		assert.Equal(t, chp, buffered.(*BufferedSystem).Producer())
	})

	t.Run("Unknown System", func(t *testing.T) {
		m := NewMap()
		_, err := m.System("nope")
		assert.ErrorIs(t, err, ErrSystemNotFound)
	})

	t.Run("Invalid Config Registers Nothing", func(t *testing.T) {
		m := NewMap()
		bad := cfg
		bad.Batteries = map[string]types.BatteryConfig{"tank": cfg.Batteries["home"]}
		err := m.Load(bad)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Empty(t, m.Names())
	})

	t.Run("Set", func(t *testing.T) {
		m := NewMap()
		require.NoError(t, m.Load(cfg))
		b, err := NewBattery(cfg.Batteries["home"])
		require.NoError(t, err)
		m.Set("home", b)
		got, err := m.System("home")
		require.NoError(t, err)
		assert.Same(t, b, got)
	})
}
