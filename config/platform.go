package config

import (
	"io"
	"os"

	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/bfemu/api"
	"github.com/sarchlab/bfemu/core"
	"github.com/sarchlab/bfemu/program"
)

// A Platform is everything one run needs: a core and, when simulating, the
// engine and driver that tick it.
type Platform struct {
	Config  Config
	Core    *core.Core
	Engine  sim.Engine
	Driver  api.Driver
	Monitor *monitoring.Monitor
}

// PlatformBuilder can build platforms.
type PlatformBuilder struct {
	cfg Config
	in  io.Reader
	out io.Writer
}

// NewPlatformBuilder returns a builder using Default, os.Stdin and os.Stdout.
func NewPlatformBuilder() PlatformBuilder {
	return PlatformBuilder{
		cfg: Default(),
		in:  os.Stdin,
		out: os.Stdout,
	}
}

// WithConfig sets the configuration.
func (b PlatformBuilder) WithConfig(cfg Config) PlatformBuilder {
	b.cfg = cfg
	return b
}

// WithInput sets the program's input stream.
func (b PlatformBuilder) WithInput(in io.Reader) PlatformBuilder {
	b.in = in
	return b
}

// WithOutput sets the program's output stream.
func (b PlatformBuilder) WithOutput(out io.Writer) PlatformBuilder {
	b.out = out
	return b
}

// Build creates a platform.
func (b PlatformBuilder) Build(name string) *Platform {
	p := &Platform{Config: b.cfg}

	p.Core = b.cfg.CoreBuilder().
		WithInput(b.in).
		WithOutput(b.out).
		Build(name + ".Core")

	if !b.cfg.Simulated() {
		return p
	}

	p.Engine = sim.NewSerialEngine()

	if b.cfg.Monitor {
		p.Monitor = monitoring.NewMonitor()
		p.Monitor.RegisterEngine(p.Engine)
	}

	p.Driver = api.DriverBuilder{}.
		WithEngine(p.Engine).
		WithFreq(b.cfg.Freq()).
		WithMonitor(p.Monitor).
		Build(name + ".Driver")
	p.Driver.MapCore(p.Core)

	return p
}

// Load parses source under the configured parse mode and maps it to the
// core.
func (p *Platform) Load(src []byte) error {
	insts, err := program.ParseWith(p.Config.Mode(), src)
	if err != nil {
		return err
	}

	p.Core.MapProgram(insts)
	return nil
}

// LoadImage maps a compiled program to the core.
func (p *Platform) LoadImage(img *program.Image) {
	p.Core.MapImage(img)
}

// Run runs the loaded program, through the driver when simulating.
func (p *Platform) Run() error {
	if p.Driver != nil {
		return p.Driver.Run()
	}
	return p.Core.Run()
}

// Cycles returns the simulated cycle count, or the step count when the
// platform does not simulate.
func (p *Platform) Cycles() uint64 {
	if p.Driver != nil {
		return p.Driver.Cycles()
	}
	return p.Core.Steps()
}
