package api

import (
	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/akita/v4/sim"
)

// DriverBuilder creates a new instance of Driver.
type DriverBuilder struct {
	engine  sim.Engine
	freq    sim.Freq
	monitor *monitoring.Monitor
}

// WithEngine sets the engine.
func (b DriverBuilder) WithEngine(engine sim.Engine) DriverBuilder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the driver.
func (b DriverBuilder) WithFreq(freq sim.Freq) DriverBuilder {
	b.freq = freq
	return b
}

// WithMonitor registers the driver with a monitor.
func (b DriverBuilder) WithMonitor(monitor *monitoring.Monitor) DriverBuilder {
	b.monitor = monitor
	return b
}

// Build create a driver.
func (b DriverBuilder) Build(name string) Driver {
	d := &driverImpl{}

	d.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, d)

	if b.monitor != nil {
		b.monitor.RegisterComponent(d)
	}

	return d
}
