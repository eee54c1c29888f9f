package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/raterudder/assetsim/pkg/log"
	"github.com/raterudder/assetsim/pkg/system"
)

func main() {
	// init packages
	systems := system.Configured()

	name := lflag.RequiredString("system", "Name of the system to drive for one tick")
	deltaTime := lflag.Duration("delta-time", 15*time.Minute, "Length of the simulated tick")
	action := lflag.String("action", "", "Index of the action to perform, \"idle\" for no action, empty to only list feasible actions")
	var state stateOverride
	lflag.JSON(&state, "state", state, "JSON state override, e.g. {\"battery\":{\"chargeKWH\":5}}")
	var env environment
	lflag.JSON(&env, "environment", env, "JSON interaction the system faces, e.g. {\"thPowerKW\":-3}")

	// parse flags
	lflag.Configure()

	// lflag automatically sets llog's level, but we need to set the slog level
	level, err := log.LevelFromLLog()
	if err != nil {
		panic(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	log.SetDefaultLogLevel(level)

	ctx := log.WithSystem(log.With(context.Background(), logger), *name)
	log.Ctx(ctx).DebugContext(ctx, "logger configured", slog.String("level", level.String()))

	err = runTick(ctx, systems, tick{
		name:      *name,
		deltaTime: *deltaTime,
		action:    *action,
		state:     state,
		env:       env,
	})
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "tick failed", "error", err)
		os.Exit(1)
	}
}
