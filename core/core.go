// Package core implements the execution engine of the tape machine.
package core

import (
	"errors"

	"github.com/sarchlab/bfemu/instr"
	"github.com/sarchlab/bfemu/program"
)

// Core runs one program against a 30,000-cell wrapping tape.
type Core struct {
	name     string
	optimize bool
	prepared bool

	state coreState
	emu   instEmulator
}

// Name returns the name given to the builder.
func (c *Core) Name() string {
	return c.name
}

// MapProgram sets the program that the core needs to run. The sequence is
// copied and must not be linked yet; Prepare fuses and links it.
func (c *Core) MapProgram(insts []instr.Inst) {
	c.state.Code = append([]instr.Inst(nil), insts...)
	c.state.PC = 0
	c.state.Steps = 0
	c.prepared = false
}

// MapImage sets an already compiled program. Images are linked, so Prepare
// leaves them alone.
func (c *Core) MapImage(img *program.Image) {
	c.MapProgram(img.Insts)
	c.prepared = true
}

// Prepare fuses the program when optimization is enabled and links its
// loops. A bracket error leaves the core unrunnable; no instruction has
// executed and no I/O has happened.
func (c *Core) Prepare() error {
	if c.prepared {
		return nil
	}

	if c.optimize {
		c.state.Code = program.Fuse(c.state.Code)
	}

	if err := program.Link(c.state.Code); err != nil {
		return err
	}

	c.prepared = true
	return nil
}

// Step executes the instruction at the PC. It returns done once the PC has
// run off the end of the program. The core must have been prepared.
func (c *Core) Step() (done bool, err error) {
	if c.Halted() {
		return true, nil
	}

	inst := c.state.Code[c.state.PC]
	if err := c.emu.RunInst(inst, &c.state); err != nil {
		return true, err
	}

	return c.Halted(), nil
}

// Run prepares the program and executes it until the PC reaches the end of
// the program or an instruction fails. Buffered output is flushed before Run
// returns, also on failure.
func (c *Core) Run() error {
	if err := c.Prepare(); err != nil {
		return err
	}

	for !c.Halted() {
		if _, err := c.Step(); err != nil {
			return c.Finish(err)
		}
	}

	return c.Finish(nil)
}

// Flush writes any buffered output.
func (c *Core) Flush() error {
	return c.Finish(nil)
}

// Finish flushes buffered output after a run that ended with err. A flush
// failure is joined to err unless err already reports it.
func (c *Core) Finish(err error) error {
	flushErr := c.emu.out.Flush()

	switch {
	case flushErr == nil:
		return err
	case err == nil:
		return &IOError{Op: "write", Err: flushErr}
	case errors.Is(err, flushErr):
		return err
	default:
		return errors.Join(err, &IOError{Op: "write", Err: flushErr})
	}
}

// Halted reports whether the PC is past the last instruction.
func (c *Core) Halted() bool {
	return c.state.PC >= len(c.state.Code)
}

// Prepared reports whether the program is linked and ready to step.
func (c *Core) Prepared() bool {
	return c.prepared
}

// PC returns the instruction pointer.
func (c *Core) PC() int {
	return c.state.PC
}

// TapePointer returns the index of the current cell.
func (c *Core) TapePointer() int {
	return c.state.TP
}

// Cell returns the value of cell i, wrapped onto the tape.
func (c *Core) Cell(i int) uint8 {
	return c.state.Tape[wrap(i, TapeSize)]
}

// Tape returns a copy of the tape.
func (c *Core) Tape() []uint8 {
	tape := make([]uint8, TapeSize)
	copy(tape, c.state.Tape[:])
	return tape
}

// Steps returns the number of instructions executed.
func (c *Core) Steps() uint64 {
	return c.state.Steps
}

// Code returns a copy of the instruction sequence as the core runs it.
func (c *Core) Code() []instr.Inst {
	return append([]instr.Inst(nil), c.state.Code...)
}

// Current returns the instruction at the PC. ok is false once halted.
func (c *Core) Current() (inst instr.Inst, ok bool) {
	if c.Halted() {
		return instr.Inst{}, false
	}
	return c.state.Code[c.state.PC], true
}
