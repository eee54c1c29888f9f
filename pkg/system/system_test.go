package system

import (
	"log/slog"

	"github.com/raterudder/assetsim/pkg/log"
)

func init() {
	log.SetDefaultLogLevel(slog.LevelError)
}
