// Package program turns source bytes into a linked instruction sequence.
//
// A sequence goes through up to three passes, always in this order:
//
//	Parse / ParseStrict   source bytes -> primitive instructions
//	Fuse (optional)       runs of Move/Add -> one weighted instruction
//	Link                  loop brackets -> mutual jump targets
//
// Fuse changes instruction indices, so it must run before Link.
package program

import (
	"fmt"

	"github.com/sarchlab/bfemu/instr"
)

// ParseMode selects what happens to bytes outside the instruction set.
type ParseMode int

const (
	// Permissive drops unrecognized bytes; they are comments.
	Permissive ParseMode = iota
	// Strict fails on the first unrecognized byte.
	Strict
)

func (m ParseMode) String() string {
	switch m {
	case Permissive:
		return "permissive"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("ParseMode(%d)", int(m))
	}
}

// ParseModeFromString maps a configuration value to a ParseMode.
func ParseModeFromString(s string) (ParseMode, error) {
	switch s {
	case "", "permissive":
		return Permissive, nil
	case "strict":
		return Strict, nil
	}
	return Permissive, fmt.Errorf("unknown parse mode %q", s)
}

// Parse converts source bytes into instructions in source order, silently
// skipping every byte that is not an instruction. Loop targets are left
// unresolved.
func Parse(src []byte) []instr.Inst {
	insts := make([]instr.Inst, 0, len(src))
	for _, b := range src {
		inst, err := instr.FromByte(b)
		if err != nil {
			continue
		}
		insts = append(insts, inst)
	}
	return insts
}

// ParseStrict is Parse, except that any unrecognized byte is an error.
func ParseStrict(src []byte) ([]instr.Inst, error) {
	insts := make([]instr.Inst, 0, len(src))
	for _, b := range src {
		inst, err := instr.FromByte(b)
		if err != nil {
			return nil, err
		}
		insts = append(insts, inst)
	}
	return insts, nil
}

// ParseWith parses src under the given mode.
func ParseWith(mode ParseMode, src []byte) ([]instr.Inst, error) {
	if mode == Strict {
		return ParseStrict(src)
	}
	return Parse(src), nil
}
