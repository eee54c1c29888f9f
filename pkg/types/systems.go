package types

import (
	"errors"
	"fmt"
	"math"
)

// BatteryConfig holds the physical parameters of a simulated battery.
// Powers are in kW, energies in kWh unless the name says otherwise.
type BatteryConfig struct {
	CapacityKWH float64 `json:"capacityKWH" yaml:"capacityKWH"`
	MaxPowerKW  float64 `json:"maxPowerKW" yaml:"maxPowerKW"`
	// Granularity g produces 2g+1 actions evenly spread over
	// [-MaxPowerKW, MaxPowerKW], the idle action has index g.
	Granularity           int     `json:"granularity" yaml:"granularity"`
	InitialChargeKWH      float64 `json:"initialChargeKWH" yaml:"initialChargeKWH"`
	ChargingEfficiency    float64 `json:"chargingEfficiency" yaml:"chargingEfficiency"`
	DischargingEfficiency float64 `json:"dischargingEfficiency" yaml:"dischargingEfficiency"`
	// RelativeLoss is the share of the charge lost per tick.
	RelativeLoss float64 `json:"relativeLoss" yaml:"relativeLoss"`
	// AbsoluteLossWs is the fixed energy lost per tick in watt-seconds.
	AbsoluteLossWs float64 `json:"absoluteLossWs" yaml:"absoluteLossWs"`
}

// Validate checks the battery parameters.
func (c BatteryConfig) Validate() error {
	if !(c.CapacityKWH > 0) || math.IsInf(c.CapacityKWH, 0) {
		return errors.New("capacityKWH must be > 0")
	}
	if !(c.MaxPowerKW > 0) || math.IsInf(c.MaxPowerKW, 0) {
		return errors.New("maxPowerKW must be > 0")
	}
	if c.Granularity < 1 {
		return errors.New("granularity must be >= 1")
	}
	if c.InitialChargeKWH < 0 || c.InitialChargeKWH > c.CapacityKWH {
		return fmt.Errorf("initialChargeKWH must be within [0, %g]", c.CapacityKWH)
	}
	return validateStorage(c.ChargingEfficiency, c.DischargingEfficiency, c.RelativeLoss, c.AbsoluteLossWs)
}

// TankConfig describes a water tank whose usable temperature span defines a
// heat storage capacity.
type TankConfig struct {
	MaxTempC float64 `json:"maxTempC" yaml:"maxTempC"`
	MinTempC float64 `json:"minTempC" yaml:"minTempC"`
	VolumeM3 float64 `json:"volumeM3" yaml:"volumeM3"`
}

// HeatStorageConfig holds the physical parameters of a thermal storage.
// Either CapacityKWH or Tank must be set; CapacityKWH wins if both are.
type HeatStorageConfig struct {
	CapacityKWH           float64     `json:"capacityKWH,omitempty" yaml:"capacityKWH,omitempty"`
	Tank                  *TankConfig `json:"tank,omitempty" yaml:"tank,omitempty"`
	InitialChargeKWH      float64     `json:"initialChargeKWH" yaml:"initialChargeKWH"`
	ChargingEfficiency    float64     `json:"chargingEfficiency" yaml:"chargingEfficiency"`
	DischargingEfficiency float64     `json:"dischargingEfficiency" yaml:"dischargingEfficiency"`
	RelativeLoss          float64     `json:"relativeLoss" yaml:"relativeLoss"`
	AbsoluteLossWs        float64     `json:"absoluteLossWs" yaml:"absoluteLossWs"`
}

// Validate checks the heat storage parameters. The initial charge is checked
// against the capacity once the tank capacity is known.
func (c HeatStorageConfig) Validate() error {
	switch {
	case c.CapacityKWH > 0:
	case c.CapacityKWH < 0:
		return errors.New("capacityKWH must be > 0")
	case c.Tank == nil:
		return errors.New("either capacityKWH or tank must be set")
	case c.Tank.VolumeM3 <= 0:
		return errors.New("tank volumeM3 must be > 0")
	case c.Tank.MaxTempC <= c.Tank.MinTempC:
		return errors.New("tank maxTempC must be above minTempC")
	}
	if c.InitialChargeKWH < 0 {
		return errors.New("initialChargeKWH must be >= 0")
	}
	return validateStorage(c.ChargingEfficiency, c.DischargingEfficiency, c.RelativeLoss, c.AbsoluteLossWs)
}

func validateStorage(charging, discharging, relativeLoss, absoluteLoss float64) error {
	if !(charging > 0) || charging > 1 {
		return errors.New("chargingEfficiency must be in (0, 1]")
	}
	if !(discharging > 0) || discharging > 1 {
		return errors.New("dischargingEfficiency must be in (0, 1]")
	}
	if !(relativeLoss >= 0) || relativeLoss >= 1 {
		return errors.New("relativeLoss must be in [0, 1)")
	}
	if !(absoluteLoss >= 0) {
		return errors.New("absoluteLossWs must be >= 0")
	}
	return nil
}

// CHPModeConfig describes one operating mode of a CHP plant.
type CHPModeConfig struct {
	Idx       int     `json:"idx" yaml:"idx"`
	ElPowerKW float64 `json:"elPowerKW" yaml:"elPowerKW"`
	ThPowerKW float64 `json:"thPowerKW" yaml:"thPowerKW"`
	// MinStayingTime is the time in seconds the plant has to stay in this
	// mode before it may leave it.
	MinStayingTime float64 `json:"minStayingTime" yaml:"minStayingTime"`
	// MaxStayingTime is the time in seconds after which the plant has to
	// leave this mode. Nil means unbounded.
	MaxStayingTime *float64 `json:"maxStayingTime,omitempty" yaml:"maxStayingTime,omitempty"`
}

// MaxStaying returns the maximum staying time, +Inf when unbounded.
func (m CHPModeConfig) MaxStaying() float64 {
	if m.MaxStayingTime == nil {
		return math.Inf(1)
	}
	return *m.MaxStayingTime
}

// CHPConfig holds the parameters of a combined heat and power plant.
// Ramp rates are positive magnitudes in kW/s.
type CHPConfig struct {
	Modes              []CHPModeConfig `json:"modes" yaml:"modes"`
	InitialMode        int             `json:"initialMode" yaml:"initialMode"`
	InitialStayingTime float64         `json:"initialStayingTime" yaml:"initialStayingTime"`
	ElRampUpRate       float64         `json:"elRampUpRate" yaml:"elRampUpRate"`
	ElRampDownRate     float64         `json:"elRampDownRate" yaml:"elRampDownRate"`
	ThRampUpRate       float64         `json:"thRampUpRate" yaml:"thRampUpRate"`
	ThRampDownRate     float64         `json:"thRampDownRate" yaml:"thRampDownRate"`
}

// Validate checks the CHP parameters.
func (c CHPConfig) Validate() error {
	if len(c.Modes) == 0 {
		return errors.New("at least one mode is required")
	}
	var initialFound bool
	for _, m := range c.Modes {
		if m.MinStayingTime < 0 {
			return fmt.Errorf("mode %d: minStayingTime must be >= 0", m.Idx)
		}
		if m.MaxStaying() < m.MinStayingTime {
			return fmt.Errorf("mode %d: maxStayingTime must be >= minStayingTime", m.Idx)
		}
		if m.Idx == c.InitialMode {
			initialFound = true
		}
	}
	if !initialFound {
		return fmt.Errorf("initialMode %d is not a configured mode", c.InitialMode)
	}
	if c.InitialStayingTime < 0 {
		return errors.New("initialStayingTime must be >= 0")
	}
	for name, rate := range map[string]float64{
		"elRampUpRate":   c.ElRampUpRate,
		"elRampDownRate": c.ElRampDownRate,
		"thRampUpRate":   c.ThRampUpRate,
		"thRampDownRate": c.ThRampDownRate,
	} {
		if !(rate > 0) {
			return fmt.Errorf("%s must be > 0", name)
		}
	}
	return nil
}

// BufferedConfig couples a choosing system with a heat storage by name.
type BufferedConfig struct {
	Producer string  `json:"producer" yaml:"producer"`
	Storage  string  `json:"storage" yaml:"storage"`
	MinSoC   float64 `json:"minSoC" yaml:"minSoC"`
	MaxSoC   float64 `json:"maxSoC" yaml:"maxSoC"`
}

// Validate checks the coupling parameters.
func (c BufferedConfig) Validate() error {
	if c.Producer == "" || c.Storage == "" {
		return errors.New("producer and storage are required")
	}
	if c.MinSoC < 0 || c.MaxSoC > 1 || c.MinSoC > c.MaxSoC {
		return errors.New("minSoC/maxSoC must satisfy 0<=minSoC<=maxSoC<=1")
	}
	return nil
}
