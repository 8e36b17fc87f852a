package program

import "github.com/sarchlab/bfemu/instr"

// Fuse merges runs of adjacent Move instructions and runs of adjacent Add
// instructions into single instructions carrying the sum of their amounts.
// Everything else is copied through in order. A run that sums to zero is
// kept as a zero-amount instruction.
//
// Fuse must run before Link: the result is generally shorter than the
// input and loop targets would point at the wrong indices.
func Fuse(insts []instr.Inst) []instr.Inst {
	out := make([]instr.Inst, 0, len(insts))

	var pending instr.Inst
	hasPending := false

	for _, next := range insts {
		if !hasPending {
			pending = next
			hasPending = true
			continue
		}

		if fusable(pending, next) {
			pending.Amount += next.Amount
			continue
		}

		out = append(out, pending)
		pending = next
	}

	if hasPending {
		out = append(out, pending)
	}

	return out
}

func fusable(a, b instr.Inst) bool {
	if a.Kind != b.Kind {
		return false
	}
	return a.Kind == instr.Move || a.Kind == instr.Add
}
