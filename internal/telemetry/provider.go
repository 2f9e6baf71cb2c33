package telemetry

// Provider answers the "last known location" pull query
type Provider interface {
	LastKnown() (Fix, bool)
}

// BatteryMeter reports the device battery charge in percent
type BatteryMeter interface {
	Level() (percent int, ok bool)
}
