package program

import (
	"fmt"

	"github.com/sarchlab/bfemu/instr"
)

// UnexpectedBracketError reports a loop bracket without a partner. Index is
// the position of the offending bracket in the instruction sequence.
type UnexpectedBracketError struct {
	Index int
}

func (e *UnexpectedBracketError) Error() string {
	return fmt.Sprintf("unexpected bracket at char %d", e.Index)
}

// Link pairs every LoopStart with its matching LoopEnd, in place, so that
// each carries the index of the other. A LoopEnd with nothing open fails at
// its own index; a LoopStart still open at the end fails at the index of the
// innermost one.
func Link(insts []instr.Inst) error {
	var stack []int

	for i := range insts {
		switch insts[i].Kind {
		case instr.LoopStart:
			stack = append(stack, i)
		case instr.LoopEnd:
			if len(stack) == 0 {
				return &UnexpectedBracketError{Index: i}
			}

			start := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			insts[start] = instr.Inst{Kind: instr.LoopStart, Target: i}
			insts[i] = instr.Inst{Kind: instr.LoopEnd, Target: start}
		}
	}

	if len(stack) > 0 {
		return &UnexpectedBracketError{Index: stack[len(stack)-1]}
	}

	return nil
}

// Linked reports whether insts is already linked: brackets are balanced and
// every pair carries the index of its partner.
func Linked(insts []instr.Inst) bool {
	var stack []int

	for i, inst := range insts {
		switch inst.Kind {
		case instr.LoopStart:
			stack = append(stack, i)
		case instr.LoopEnd:
			if len(stack) == 0 {
				return false
			}

			start := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if inst.Target != start || insts[start].Target != i {
				return false
			}
		}
	}

	return len(stack) == 0
}
