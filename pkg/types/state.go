package types

// SystemState is a snapshot that can be forced onto a system with SetState.
// The concrete type has to match the system it is applied to.
type SystemState interface {
	systemState()
}

// BatteryState overrides the charge of a battery.
type BatteryState struct {
	ChargeKWH float64 `json:"chargeKWH"`
}

// CHPState overrides the operating mode of a CHP plant. The actual power
// jumps to the nominal power of Mode.
type CHPState struct {
	Mode        int     `json:"mode"`
	StayingTime float64 `json:"stayingTime"`
}

// HeatStorageState overrides the charge of a heat storage.
type HeatStorageState struct {
	ChargeKWH float64 `json:"chargeKWH"`
}

func (BatteryState) systemState()     {}
func (CHPState) systemState()         {}
func (HeatStorageState) systemState() {}
