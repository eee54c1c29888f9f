package system

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/raterudder/assetsim/pkg/log"
	"github.com/raterudder/assetsim/pkg/types"
)

// CHPPlant simulates a combined heat and power plant with discrete operating
// modes. Every mode has a minimum and maximum staying time and the delivered
// power follows the nominal power of the mode at a limited ramp rate.
type CHPPlant struct {
	Catalog

	mode        int
	stayingTime float64 // seconds
	elPower     float64 // kW actually delivered
	thPower     float64 // kW actually delivered

	// ramp rates in kW/s, up rates are negative since ramping up means
	// releasing more power
	elRampUpRate   float64
	elRampDownRate float64
	thRampUpRate   float64
	thRampDownRate float64
}

// NewCHPPlant creates a CHP plant whose modes are its actions.
func NewCHPPlant(cfg types.CHPConfig) (*CHPPlant, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: chp plant: %w", ErrInvalidArgument, err)
	}

	p := &CHPPlant{
		elRampUpRate:   -cfg.ElRampUpRate,
		elRampDownRate: cfg.ElRampDownRate,
		thRampUpRate:   -cfg.ThRampUpRate,
		thRampDownRate: cfg.ThRampDownRate,
	}
	for _, m := range cfg.Modes {
		a := NewAction(m.Idx, m.ElPowerKW, m.ThPowerKW, Attributes{
			AttrMinStayingTime: m.MinStayingTime,
			AttrMaxStayingTime: m.MaxStaying(),
		})
		if err := p.AddAction(a); err != nil {
			return nil, err
		}
	}

	if err := p.SetState(types.CHPState{Mode: cfg.InitialMode, StayingTime: cfg.InitialStayingTime}); err != nil {
		return nil, err
	}
	return p, nil
}

// AddAction registers a mode. The action must carry the min_staying_time and
// max_staying_time attributes.
func (p *CHPPlant) AddAction(a Action) error {
	if _, _, err := stayingLimits(a); err != nil {
		return err
	}
	return p.Catalog.AddAction(a)
}

func stayingLimits(a Action) (minStay, maxStay float64, err error) {
	minStay, ok := a.FloatAttr(AttrMinStayingTime)
	if !ok {
		return 0, 0, fmt.Errorf("%w: action %d is missing numeric %s", ErrInvalidArgument, a.Idx, AttrMinStayingTime)
	}
	maxStay, ok = a.FloatAttr(AttrMaxStayingTime)
	if !ok {
		return 0, 0, fmt.Errorf("%w: action %d is missing numeric %s", ErrInvalidArgument, a.Idx, AttrMaxStayingTime)
	}
	return minStay, maxStay, nil
}

// FeasibleActionIdxs returns only the current mode until its minimum staying
// time is reached. Afterwards every mode is feasible, except staying in the
// current mode beyond its maximum staying time.
func (p *CHPPlant) FeasibleActionIdxs(ctx context.Context, deltaTime float64) ([]int, error) {
	if err := checkDeltaTime(deltaTime); err != nil {
		return nil, err
	}
	// the current mode is always registered, SetState makes sure of that
	minStay, maxStay, _ := stayingLimits(p.actions[p.mode])

	if p.stayingTime < minStay {
		log.Ctx(ctx).DebugContext(
			ctx,
			"chp minimum staying time not reached",
			slog.Int("mode", p.mode),
			slog.Float64("stayingTime", p.stayingTime),
			slog.Float64("minStayingTime", minStay),
		)
		return []int{p.mode}, nil
	}

	idxs := make([]int, 0, p.Len())
	for _, idx := range p.Idxs() {
		// limits only apply to the mode being left, not the one entered
		if idx == p.mode && p.stayingTime+deltaTime > maxStay {
			continue
		}
		idxs = append(idxs, idx)
	}
	return idxs, nil
}

// StateTransition switches to the given mode and ramps the delivered power
// towards the mode's nominal power. NoAction keeps the current mode. The
// returned interaction holds the average power over the tick.
func (p *CHPPlant) StateTransition(ctx context.Context, deltaTime float64, actionIdx int, _ Interaction) (Interaction, error) {
	if actionIdx == NoAction {
		actionIdx = p.mode
	}
	target, err := p.Action(actionIdx)
	if err != nil {
		return Interaction{}, err
	}
	feasible, err := p.FeasibleActionIdxs(ctx, deltaTime)
	if err != nil {
		return Interaction{}, err
	}
	if !slices.Contains(feasible, actionIdx) {
		return Interaction{}, fmt.Errorf(
			"%w: chp mode %d after %gs in mode %d (feasible: %v)",
			ErrInfeasibleAction, actionIdx, p.stayingTime, p.mode, feasible,
		)
	}

	// the new mode is effective immediately, ramping starts from the
	// previously delivered power
	if actionIdx != p.mode {
		p.mode = actionIdx
		p.stayingTime = 0
	}

	var res Interaction
	p.elPower, res.ElPower = ramp(p.elPower, target.ElPower, p.elRampUpRate, p.elRampDownRate, deltaTime)
	p.thPower, res.ThPower = ramp(p.thPower, target.ThPower, p.thRampUpRate, p.thRampDownRate, deltaTime)
	p.stayingTime += deltaTime

	log.Ctx(ctx).DebugContext(
		ctx,
		"chp transition",
		slog.Int("mode", p.mode),
		slog.Float64("stayingTime", p.stayingTime),
		slog.Float64("elPowerKW", p.elPower),
		slog.Float64("thPowerKW", p.thPower),
		slog.Float64("avgElPowerKW", res.ElPower),
		slog.Float64("avgThPowerKW", res.ThPower),
	)
	return res, nil
}

// ramp moves power towards target for deltaTime seconds. upRate (<0) is used
// when moving towards release, downRate (>0) towards consumption. It returns
// the power at the end of the tick and the average power over the tick.
func ramp(power, target, upRate, downRate, deltaTime float64) (end, avg float64) {
	remaining := target - power
	var rate float64
	switch {
	case remaining < 0:
		rate = upRate
		end = max(target, power+rate*deltaTime)
	case remaining > 0:
		rate = downRate
		end = min(target, power+rate*deltaTime)
	default:
		return power, power
	}

	// trapezoid while ramping, flat once the target is reached
	rampTime := remaining / rate
	energy := min(deltaTime, rampTime)*(power+end)/2 + max(0, deltaTime-rampTime)*end
	return end, energy / deltaTime
}

// SetState sets mode and staying time from a types.CHPState. The delivered
// power jumps to the nominal power of the mode.
func (p *CHPPlant) SetState(state types.SystemState) error {
	s, ok := state.(types.CHPState)
	if !ok {
		return fmt.Errorf("%w: chp plant expects types.CHPState, got %T", ErrInvalidArgument, state)
	}
	a, ok := p.actions[s.Mode]
	if !ok {
		return fmt.Errorf("%w: unknown chp mode %d", ErrInvalidArgument, s.Mode)
	}
	if !(s.StayingTime >= 0) {
		return fmt.Errorf("%w: staying time must be >= 0, got %g", ErrInvalidArgument, s.StayingTime)
	}
	p.mode = s.Mode
	p.stayingTime = s.StayingTime
	p.elPower = a.ElPower
	p.thPower = a.ThPower
	return nil
}

// Mode returns the current mode.
func (p *CHPPlant) Mode() int {
	return p.mode
}

// StayingTime returns the seconds spent in the current mode.
func (p *CHPPlant) StayingTime() float64 {
	return p.stayingTime
}

// ElPower returns the electrical power currently delivered in kW.
func (p *CHPPlant) ElPower() float64 {
	return p.elPower
}

// ThPower returns the thermal power currently delivered in kW.
func (p *CHPPlant) ThPower() float64 {
	return p.thPower
}
