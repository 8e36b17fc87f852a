// Package api defines the driver API that runs a core on the akita
// simulation engine, one instruction per cycle.
package api

import (
	"errors"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/bfemu/core"
)

// ErrNoCore is returned by Run when no core has been mapped.
var ErrNoCore = errors.New("no core mapped to driver")

// Driver provides the interface to run a core cycle by cycle.
type Driver interface {
	// MapCore sets the core that the driver runs.
	MapCore(c *core.Core)

	// Run prepares the core, then ticks the engine until the core halts or
	// an instruction fails. Buffered output is flushed before Run returns.
	Run() error

	// Cycles returns the number of ticks that executed an instruction.
	Cycles() uint64

	// Err returns the error that stopped the core, if any.
	Err() error
}

type driverImpl struct {
	*sim.TickingComponent

	core   *core.Core
	cycles uint64
	err    error
}

// Tick runs one instruction of the mapped core.
func (d *driverImpl) Tick() (madeProgress bool) {
	if d.core == nil || d.err != nil || d.core.Halted() {
		return false
	}

	if core.TraceEnabled() {
		d.traceInst()
	}

	if _, err := d.core.Step(); err != nil {
		d.err = err
		core.Trace("Fault",
			"Core", d.core.Name(),
			"PC", d.core.PC(),
			"Error", err.Error(),
		)
		return false
	}

	d.cycles++

	return true
}

func (d *driverImpl) traceInst() {
	inst, _ := d.core.Current()
	core.Trace("Inst",
		"Time", float64(d.Engine.CurrentTime()*1e9),
		"Core", d.core.Name(),
		"PC", d.core.PC(),
		"Inst", inst.String(),
		"TP", d.core.TapePointer(),
		"Cell", d.core.Cell(d.core.TapePointer()),
	)
}

// MapCore sets the core that the driver runs.
func (d *driverImpl) MapCore(c *core.Core) {
	d.core = c
	d.cycles = 0
	d.err = nil
}

// Cycles returns the number of ticks that executed an instruction.
func (d *driverImpl) Cycles() uint64 {
	return d.cycles
}

// Err returns the error that stopped the core, if any.
func (d *driverImpl) Err() error {
	return d.err
}

// Run runs the mapped core to completion.
func (d *driverImpl) Run() error {
	if d.core == nil {
		return ErrNoCore
	}

	if err := d.core.Prepare(); err != nil {
		return err
	}

	d.TickNow()
	if err := d.Engine.Run(); err != nil {
		return err
	}

	core.LogState(d.core)

	return d.core.Finish(d.err)
}
