package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/bfemu/instr"
)

// TapeSize is the number of cells on the tape.
const TapeSize = 30000

// Encoding selects how an Output instruction writes a cell.
type Encoding int

const (
	// UTF8 writes the cell as the Unicode code point 0-255.
	UTF8 Encoding = iota
	// Raw writes the cell as a single byte.
	Raw
)

func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "utf8"
	case Raw:
		return "raw"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// EncodingFromString maps a configuration value to an Encoding.
func EncodingFromString(s string) (Encoding, error) {
	switch s {
	case "", "utf8":
		return UTF8, nil
	case "raw":
		return Raw, nil
	}
	return UTF8, fmt.Errorf("unknown output encoding %q", s)
}

// IOError reports a failed read or write. Op is "read" or "write".
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

type coreState struct {
	PC    int
	TP    int
	Tape  [TapeSize]uint8
	Code  []instr.Inst
	Steps uint64
}

type instEmulator struct {
	in       io.Reader
	out      *bufio.Writer
	encoding Encoding
	buf      [1]byte
}

// RunInst executes one instruction and advances the PC. A taken jump lands
// on the partner bracket and the increment steps over it.
func (i *instEmulator) RunInst(inst instr.Inst, state *coreState) error {
	switch inst.Kind {
	case instr.Move:
		i.runMove(inst, state)
	case instr.Add:
		i.runAdd(inst, state)
	case instr.Output:
		if err := i.runOutput(state); err != nil {
			return err
		}
	case instr.Input:
		if err := i.runInput(state); err != nil {
			return err
		}
	case instr.LoopStart:
		i.runLoopStart(inst, state)
	case instr.LoopEnd:
		i.runLoopEnd(inst, state)
	default:
		panic(fmt.Sprintf("unknown instruction %v at PC %d", inst, state.PC))
	}

	state.PC++
	state.Steps++

	return nil
}

func (i *instEmulator) runMove(inst instr.Inst, state *coreState) {
	state.TP = wrap(state.TP+inst.Amount, TapeSize)
}

func (i *instEmulator) runAdd(inst instr.Inst, state *coreState) {
	state.Tape[state.TP] += uint8(inst.Amount)
}

func (i *instEmulator) runOutput(state *coreState) error {
	var err error

	cell := state.Tape[state.TP]
	if i.encoding == Raw {
		err = i.out.WriteByte(cell)
	} else {
		_, err = i.out.WriteRune(rune(cell))
	}

	if err != nil {
		return &IOError{Op: "write", Err: err}
	}
	return nil
}

// runInput flushes pending output before blocking, so a prompt is visible
// while the program waits.
func (i *instEmulator) runInput(state *coreState) error {
	if err := i.out.Flush(); err != nil {
		return &IOError{Op: "write", Err: err}
	}

	_, err := io.ReadFull(i.in, i.buf[:])
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return &IOError{Op: "read", Err: err}
	}

	state.Tape[state.TP] = i.buf[0]
	return nil
}

func (i *instEmulator) runLoopStart(inst instr.Inst, state *coreState) {
	if inst.Target == instr.Unresolved {
		return
	}
	if state.Tape[state.TP] == 0 {
		state.PC = inst.Target
	}
}

func (i *instEmulator) runLoopEnd(inst instr.Inst, state *coreState) {
	if inst.Target == instr.Unresolved {
		return
	}
	if state.Tape[state.TP] != 0 {
		state.PC = inst.Target
	}
}

// wrap returns x modulo n in [0, n), also for negative x.
func wrap(x, n int) int {
	x %= n
	if x < 0 {
		x += n
	}
	return x
}
