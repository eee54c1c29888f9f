package system

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raterudder/assetsim/pkg/types"
)

func testCHPConfig() types.CHPConfig {
	return types.CHPConfig{
		Modes: []types.CHPModeConfig{
			{Idx: 0, ElPowerKW: 0, ThPowerKW: 0},
			{Idx: 1, ElPowerKW: 10, ThPowerKW: 20, MinStayingTime: 600},
		},
		InitialMode:    0,
		ElRampUpRate:   1,
		ElRampDownRate: 1,
		ThRampUpRate:   1,
		ThRampDownRate: 1,
	}
}

func TestNewCHPPlant(t *testing.T) {
	t.Run("Modes Become Actions", func(t *testing.T) {
		maxStay := 3600.0
		cfg := testCHPConfig()
		cfg.Modes[1].MaxStayingTime = &maxStay
		p, err := NewCHPPlant(cfg)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, p.Idxs())

		a, err := p.Action(1)
		require.NoError(t, err)
		assert.Equal(t, 10.0, a.ElPower)
		assert.Equal(t, 20.0, a.ThPower)
		v, ok := a.FloatAttr(AttrMinStayingTime)
		require.True(t, ok)
		assert.Equal(t, 600.0, v)
		v, ok = a.FloatAttr(AttrMaxStayingTime)
		require.True(t, ok)
		assert.Equal(t, 3600.0, v)

		a, err = p.Action(0)
		require.NoError(t, err)
		v, _ = a.FloatAttr(AttrMaxStayingTime)
		assert.True(t, math.IsInf(v, 1))

		assert.Equal(t, 0, p.Mode())
		assert.Equal(t, 0.0, p.StayingTime())
		assert.Equal(t, 0.0, p.ElPower())
	})

	t.Run("Invalid", func(t *testing.T) {
		for name, mutate := range map[string]func(*types.CHPConfig){
			"no modes":         func(c *types.CHPConfig) { c.Modes = nil },
			"unknown initial":  func(c *types.CHPConfig) { c.InitialMode = 5 },
			"zero ramp":        func(c *types.CHPConfig) { c.ThRampDownRate = 0 },
			"negative staying": func(c *types.CHPConfig) { c.InitialStayingTime = -1 },
			"max below min": func(c *types.CHPConfig) {
				v := 10.0
				c.Modes[1].MaxStayingTime = &v
			},
			"duplicate mode": func(c *types.CHPConfig) { c.Modes[1].Idx = 0 },
		} {
			t.Run(name, func(t *testing.T) {
				cfg := testCHPConfig()
				mutate(&cfg)
				_, err := NewCHPPlant(cfg)
				assert.Error(t, err)
			})
		}
	})

	t.Run("AddAction Requires Staying Times", func(t *testing.T) {
		p, err := NewCHPPlant(testCHPConfig())
		require.NoError(t, err)

		err = p.AddAction(NewAction(2, 5, 10, Attributes{AttrMinStayingTime: 0.0}))
		assert.ErrorIs(t, err, ErrInvalidArgument)
		err = p.AddAction(NewAction(2, 5, 10, Attributes{AttrMaxStayingTime: math.Inf(1)}))
		assert.ErrorIs(t, err, ErrInvalidArgument)

		require.NoError(t, p.AddAction(NewAction(2, 5, 10, Attributes{
			AttrMinStayingTime: 0,
			AttrMaxStayingTime: math.Inf(1),
		})))
		idxs, err := p.FeasibleActionIdxs(context.Background(), 60)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2}, idxs)
	})
}

func TestCHPFeasibleActionIdxs(t *testing.T) {
	ctx := context.Background()

	t.Run("Minimum Staying Time", func(t *testing.T) {
		p, err := NewCHPPlant(testCHPConfig())
		require.NoError(t, err)

		require.NoError(t, p.SetState(types.CHPState{Mode: 1, StayingTime: 599}))
		idxs, err := p.FeasibleActionIdxs(ctx, 60)
		require.NoError(t, err)
		assert.Equal(t, []int{1}, idxs)

		require.NoError(t, p.SetState(types.CHPState{Mode: 1, StayingTime: 600}))
		idxs, err = p.FeasibleActionIdxs(ctx, 60)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, idxs)
	})

	t.Run("Maximum Staying Time", func(t *testing.T) {
		maxStay := 10.0
		cfg := testCHPConfig()
		cfg.Modes[0].MaxStayingTime = &maxStay
		p, err := NewCHPPlant(cfg)
		require.NoError(t, err)

		require.NoError(t, p.SetState(types.CHPState{Mode: 0, StayingTime: 5}))
		idxs, err := p.FeasibleActionIdxs(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, idxs)

		require.NoError(t, p.SetState(types.CHPState{Mode: 0, StayingTime: 8}))
		idxs, err = p.FeasibleActionIdxs(ctx, 5)
		require.NoError(t, err)
		// the minimum staying time of mode 1 does not block entering it
		assert.Equal(t, []int{1}, idxs)
	})

	t.Run("Invalid Delta Time", func(t *testing.T) {
		p, err := NewCHPPlant(testCHPConfig())
		require.NoError(t, err)
		_, err = p.FeasibleActionIdxs(ctx, -5)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestCHPStateTransition(t *testing.T) {
	ctx := context.Background()

	t.Run("Ramp Averages", func(t *testing.T) {
		cfg := testCHPConfig()
		cfg.Modes[1] = types.CHPModeConfig{Idx: 1, ElPowerKW: 5, ThPowerKW: 5, MinStayingTime: 600}
		p, err := NewCHPPlant(cfg)
		require.NoError(t, err)

		res, err := p.StateTransition(ctx, 5, 1, Interaction{})
		require.NoError(t, err)
		assert.InDelta(t, 2.5, res.ElPower, 1e-9)
		assert.InDelta(t, 2.5, res.ThPower, 1e-9)
		assert.Equal(t, 1, p.Mode())
		assert.Equal(t, 5.0, p.StayingTime())
		assert.InDelta(t, 5.0, p.ElPower(), 1e-9)
		assert.InDelta(t, 5.0, p.ThPower(), 1e-9)

		// reached, flat from now on
		res, err = p.StateTransition(ctx, 5, 1, Interaction{})
		require.NoError(t, err)
		assert.InDelta(t, 5.0, res.ElPower, 1e-9)
		assert.InDelta(t, 5.0, res.ThPower, 1e-9)
		assert.Equal(t, 10.0, p.StayingTime())
	})

	t.Run("Partial Ramp Then Flat", func(t *testing.T) {
		p, err := NewCHPPlant(testCHPConfig())
		require.NoError(t, err)

		res, err := p.StateTransition(ctx, 5, 1, Interaction{})
		require.NoError(t, err)
		assert.InDelta(t, 2.5, res.ElPower, 1e-9)
		assert.InDelta(t, 2.5, res.ThPower, 1e-9)

		// el reaches 10 after 5s, th keeps ramping
		res, err = p.StateTransition(ctx, 5, 1, Interaction{})
		require.NoError(t, err)
		assert.InDelta(t, 7.5, res.ElPower, 1e-9)
		assert.InDelta(t, 7.5, res.ThPower, 1e-9)

		res, err = p.StateTransition(ctx, 5, 1, Interaction{})
		require.NoError(t, err)
		assert.InDelta(t, 10.0, res.ElPower, 1e-9)
		assert.InDelta(t, 12.5, res.ThPower, 1e-9)
		assert.InDelta(t, 15.0, p.ThPower(), 1e-9)

		// th reaches 20 after 5s of a 7.5s tick
		res, err = p.StateTransition(ctx, 7.5, 1, Interaction{})
		require.NoError(t, err)
		// (5*(15+20)/2 + 2.5*20) / 7.5
		assert.InDelta(t, (87.5+50)/7.5, res.ThPower, 1e-9)
		assert.InDelta(t, 20.0, p.ThPower(), 1e-9)
	})

	t.Run("Ramp Towards Release", func(t *testing.T) {
		cfg := types.CHPConfig{
			Modes: []types.CHPModeConfig{
				{Idx: 0},
				{Idx: 1, ElPowerKW: -10, ThPowerKW: -20},
			},
			ElRampUpRate:   2,
			ElRampDownRate: 1,
			ThRampUpRate:   4,
			ThRampDownRate: 1,
		}
		p, err := NewCHPPlant(cfg)
		require.NoError(t, err)

		res, err := p.StateTransition(ctx, 2, 1, Interaction{})
		require.NoError(t, err)
		assert.InDelta(t, -2.0, res.ElPower, 1e-9)
		assert.InDelta(t, -4.0, res.ThPower, 1e-9)
		assert.InDelta(t, -4.0, p.ElPower(), 1e-9)
		assert.InDelta(t, -8.0, p.ThPower(), 1e-9)

		// back to off with the slower down rate
		res, err = p.StateTransition(ctx, 2, 0, Interaction{})
		require.NoError(t, err)
		assert.InDelta(t, -3.0, res.ElPower, 1e-9)
		assert.InDelta(t, -7.0, res.ThPower, 1e-9)
		assert.InDelta(t, -2.0, p.ElPower(), 1e-9)
		assert.InDelta(t, -6.0, p.ThPower(), 1e-9)
		assert.Equal(t, 0, p.Mode())
		assert.Equal(t, 2.0, p.StayingTime())
	})

	t.Run("Converges Monotonically", func(t *testing.T) {
		cfg := testCHPConfig()
		cfg.ElRampDownRate = 2
		cfg.ThRampDownRate = 3
		p, err := NewCHPPlant(cfg)
		require.NoError(t, err)

		const dt = 1.5
		// ceil(10/(2*1.5)) and ceil(20/(3*1.5))
		elTicks, thTicks := 4, 5
		prevEl, prevTh := p.ElPower(), p.ThPower()
		for i := 1; i <= 6; i++ {
			_, err := p.StateTransition(ctx, dt, 1, Interaction{})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, p.ElPower(), prevEl)
			assert.GreaterOrEqual(t, p.ThPower(), prevTh)
			assert.LessOrEqual(t, p.ElPower(), 10.0)
			assert.LessOrEqual(t, p.ThPower(), 20.0)
			if i >= elTicks {
				assert.Equal(t, 10.0, p.ElPower(), "tick %d", i)
			} else {
				assert.Less(t, p.ElPower(), 10.0, "tick %d", i)
			}
			if i >= thTicks {
				assert.Equal(t, 20.0, p.ThPower(), "tick %d", i)
			} else {
				assert.Less(t, p.ThPower(), 20.0, "tick %d", i)
			}
			prevEl, prevTh = p.ElPower(), p.ThPower()
		}
	})

	t.Run("NoAction Keeps Mode", func(t *testing.T) {
		p, err := NewCHPPlant(testCHPConfig())
		require.NoError(t, err)
		require.NoError(t, p.SetState(types.CHPState{Mode: 1, StayingTime: 30}))

		res, err := p.StateTransition(ctx, 60, NoAction, Interaction{})
		require.NoError(t, err)
		assert.Equal(t, 1, p.Mode())
		assert.Equal(t, 90.0, p.StayingTime())
		assert.Equal(t, 10.0, res.ElPower)
		assert.Equal(t, 20.0, res.ThPower)
	})

	t.Run("Infeasible Leaves State", func(t *testing.T) {
		p, err := NewCHPPlant(testCHPConfig())
		require.NoError(t, err)
		_, err = p.StateTransition(ctx, 5, 1, Interaction{})
		require.NoError(t, err)

		_, err = p.StateTransition(ctx, 5, 0, Interaction{})
		assert.ErrorIs(t, err, ErrInfeasibleAction)
		assert.Equal(t, 1, p.Mode())
		assert.Equal(t, 5.0, p.StayingTime())
		assert.InDelta(t, 5.0, p.ElPower(), 1e-9)
	})

	t.Run("Unknown Mode", func(t *testing.T) {
		p, err := NewCHPPlant(testCHPConfig())
		require.NoError(t, err)
		_, err = p.StateTransition(ctx, 5, 7, Interaction{})
		assert.ErrorIs(t, err, ErrActionNotFound)
		assert.Equal(t, 0, p.Mode())
	})
}

func TestCHPSetState(t *testing.T) {
	p, err := NewCHPPlant(testCHPConfig())
	require.NoError(t, err)

	require.NoError(t, p.SetState(types.CHPState{Mode: 1, StayingTime: 42}))
	assert.Equal(t, 1, p.Mode())
	assert.Equal(t, 42.0, p.StayingTime())
	assert.Equal(t, 10.0, p.ElPower())
	assert.Equal(t, 20.0, p.ThPower())

	assert.ErrorIs(t, p.SetState(types.CHPState{Mode: 3}), ErrInvalidArgument)
	assert.ErrorIs(t, p.SetState(types.CHPState{Mode: 0, StayingTime: -1}), ErrInvalidArgument)
	assert.ErrorIs(t, p.SetState(types.BatteryState{}), ErrInvalidArgument)
	assert.Equal(t, 1, p.Mode())
	assert.Equal(t, 42.0, p.StayingTime())
}
