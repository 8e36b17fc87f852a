// Package instr defines the instruction vocabulary of the tape machine and
// the mapping between source bytes and instructions.
package instr

import (
	"fmt"
	"strings"
)

// Kind identifies the operation an instruction performs.
type Kind uint8

const (
	// Move shifts the tape pointer by Amount cells.
	Move Kind = iota
	// Add adds Amount to the current cell.
	Add
	// Output writes the current cell.
	Output
	// Input reads one byte into the current cell.
	Input
	// LoopStart jumps to Target when the current cell is zero.
	LoopStart
	// LoopEnd jumps to Target when the current cell is not zero.
	LoopEnd
)

// Unresolved is the jump target of a loop bracket that has not been linked.
const Unresolved = -1

func (k Kind) String() string {
	switch k {
	case Move:
		return "MOVE"
	case Add:
		return "ADD"
	case Output:
		return "OUT"
	case Input:
		return "IN"
	case LoopStart:
		return "JZ"
	case LoopEnd:
		return "JNZ"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Inst is a single instruction.
//
// Amount is meaningful for Move and Add and may be any signed value once
// runs of the same kind have been fused. Target is meaningful for the loop
// kinds and holds the index of the partner bracket, or Unresolved.
type Inst struct {
	Kind   Kind `cbor:"1,keyasint"`
	Amount int  `cbor:"2,keyasint,omitempty"`
	Target int  `cbor:"3,keyasint,omitempty"`
}

// InvalidInstructionError reports a byte outside the instruction set.
type InvalidInstructionError struct {
	Byte byte
}

func (e *InvalidInstructionError) Error() string {
	return fmt.Sprintf("invalid instruction: %c", rune(e.Byte))
}

// FromByte maps a source byte to its primitive instruction.
func FromByte(b byte) (Inst, error) {
	switch b {
	case '>':
		return Inst{Kind: Move, Amount: 1}, nil
	case '<':
		return Inst{Kind: Move, Amount: -1}, nil
	case '+':
		return Inst{Kind: Add, Amount: 1}, nil
	case '-':
		return Inst{Kind: Add, Amount: -1}, nil
	case '.':
		return Inst{Kind: Output}, nil
	case ',':
		return Inst{Kind: Input}, nil
	case '[':
		return Inst{Kind: LoopStart, Target: Unresolved}, nil
	case ']':
		return Inst{Kind: LoopEnd, Target: Unresolved}, nil
	default:
		return Inst{}, &InvalidInstructionError{Byte: b}
	}
}

// IsInstruction reports whether b belongs to the instruction set.
func IsInstruction(b byte) bool {
	switch b {
	case '>', '<', '+', '-', '.', ',', '[', ']':
		return true
	}
	return false
}

// IsLoop reports whether the instruction is a loop bracket.
func (i Inst) IsLoop() bool {
	return i.Kind == LoopStart || i.Kind == LoopEnd
}

// Resolved reports whether a loop bracket carries a jump target. Non-loop
// instructions are always resolved.
func (i Inst) Resolved() bool {
	if !i.IsLoop() {
		return true
	}
	return i.Target != Unresolved
}

// Byte returns the source byte of the instruction. A fused Move or Add maps
// to the byte of its sign.
func (i Inst) Byte() byte {
	switch i.Kind {
	case Move:
		if i.Amount < 0 {
			return '<'
		}
		return '>'
	case Add:
		if i.Amount < 0 {
			return '-'
		}
		return '+'
	case Output:
		return '.'
	case Input:
		return ','
	case LoopStart:
		return '['
	case LoopEnd:
		return ']'
	}
	panic(fmt.Sprintf("invalid instruction kind %d", i.Kind))
}

func (i Inst) String() string {
	switch i.Kind {
	case Move, Add:
		return fmt.Sprintf("%s %+d", i.Kind, i.Amount)
	case LoopStart, LoopEnd:
		if i.Target == Unresolved {
			return i.Kind.String() + " ?"
		}
		return fmt.Sprintf("%s %d", i.Kind, i.Target)
	default:
		return i.Kind.String()
	}
}

// Format writes a sequence back as source text. Fused instructions expand
// to a run of their byte, so a net-zero Move or Add disappears.
func Format(insts []Inst) string {
	var sb strings.Builder
	for _, inst := range insts {
		switch inst.Kind {
		case Move, Add:
			n := inst.Amount
			if n < 0 {
				n = -n
			}
			for j := 0; j < n; j++ {
				sb.WriteByte(inst.Byte())
			}
		default:
			sb.WriteByte(inst.Byte())
		}
	}
	return sb.String()
}
