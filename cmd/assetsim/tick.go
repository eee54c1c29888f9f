package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/raterudder/assetsim/pkg/log"
	"github.com/raterudder/assetsim/pkg/system"
	"github.com/raterudder/assetsim/pkg/types"
)

// stateOverride holds optional snapshots forced onto the system before the
// tick.
type stateOverride struct {
	Battery     *types.BatteryState     `json:"battery,omitempty"`
	CHP         *types.CHPState         `json:"chp,omitempty"`
	HeatStorage *types.HeatStorageState `json:"heatStorage,omitempty"`
}

func (o stateOverride) snapshots() []types.SystemState {
	var res []types.SystemState
	if o.Battery != nil {
		res = append(res, *o.Battery)
	}
	if o.CHP != nil {
		res = append(res, *o.CHP)
	}
	if o.HeatStorage != nil {
		res = append(res, *o.HeatStorage)
	}
	return res
}

// environment is the JSON form of the interaction a system faces.
type environment struct {
	ElPowerKW float64 `json:"elPowerKW"`
	ThPowerKW float64 `json:"thPowerKW"`
}

type tick struct {
	name      string
	deltaTime time.Duration
	action    string
	state     stateOverride
	env       environment
}

func parseAction(s string) (int, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "idle") {
		return system.NoAction, nil
	}
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: action must be an index or \"idle\": %q", system.ErrInvalidArgument, s)
	}
	return idx, nil
}

func runTick(ctx context.Context, systems *system.Map, t tick) error {
	sys, err := systems.System(t.name)
	if err != nil {
		return err
	}
	// correlates the feasibility and transition records of one tick
	ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("tick", uuid.NewString())))
	for _, s := range t.state.snapshots() {
		if err := sys.SetState(s); err != nil {
			return fmt.Errorf("failed to set state: %w", err)
		}
	}
	if t.deltaTime <= 0 {
		return errors.New("delta-time must be > 0")
	}
	dt := t.deltaTime.Seconds()

	idxs, err := sys.FeasibleActionIdxs(ctx, dt)
	if err != nil {
		return fmt.Errorf("failed to get feasible actions: %w", err)
	}
	feasible, err := sys.ActionsByIdxs(idxs)
	if err != nil {
		return err
	}
	attrs := make([]any, 0, len(idxs))
	for _, idx := range idxs {
		a := feasible[idx]
		attrs = append(attrs, slog.Group(
			strconv.Itoa(idx),
			slog.Float64("elPowerKW", a.ElPower),
			slog.Float64("thPowerKW", a.ThPower),
		))
	}
	log.Ctx(ctx).InfoContext(
		ctx,
		"feasible actions",
		slog.Float64("deltaTime", dt),
		slog.Any("idxs", idxs),
		slog.Group("actions", attrs...),
	)

	if t.action == "" {
		return nil
	}
	idx, err := parseAction(t.action)
	if err != nil {
		return err
	}
	res, err := sys.StateTransition(ctx, dt, idx, system.Interaction{
		ElPower: t.env.ElPowerKW,
		ThPower: t.env.ThPowerKW,
	})
	if err != nil {
		return fmt.Errorf("failed to perform action %s: %w", t.action, err)
	}
	log.Ctx(ctx).InfoContext(
		ctx,
		"state transition",
		slog.Float64("elPowerKW", res.ElPower),
		slog.Float64("thPowerKW", res.ThPower),
		stateAttr(sys),
	)
	return nil
}

func stateAttr(sys system.System) slog.Attr {
	switch s := sys.(type) {
	case *system.Battery:
		return slog.Group("state",
			slog.Float64("chargeKWH", s.Charge()),
			slog.Float64("soc", s.StateOfCharge()),
		)
	case *system.HeatStorage:
		return slog.Group("state",
			slog.Float64("chargeKWH", s.Charge()),
			slog.Float64("soc", s.StateOfCharge()),
		)
	case *system.CHPPlant:
		return slog.Group("state",
			slog.Int("mode", s.Mode()),
			slog.Float64("stayingTime", s.StayingTime()),
			slog.Float64("elPowerKW", s.ElPower()),
			slog.Float64("thPowerKW", s.ThPower()),
		)
	case *system.BufferedSystem:
		return slog.Group("state",
			stateAttr(s.Producer()),
			slog.Float64("storageChargeKWH", s.Storage().Charge()),
		)
	default:
		return slog.String("state", fmt.Sprintf("%T", sys))
	}
}
