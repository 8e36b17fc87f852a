package verify

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/sarchlab/bfemu/core"
	"github.com/sarchlab/bfemu/instr"
	"github.com/sarchlab/bfemu/program"
)

// Outcome is the verdict of one fusion check.
type Outcome int

const (
	Equivalent Outcome = iota
	Diverged
	Inconclusive
)

func (o Outcome) String() string {
	switch o {
	case Equivalent:
		return "EQUIVALENT"
	case Diverged:
		return "DIVERGED"
	case Inconclusive:
		return "INCONCLUSIVE"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Run is the observable result of one bounded execution.
type Run struct {
	Halted bool
	Steps  uint64
	Output []byte
	Tape   []uint8
	TP     int
	Err    error
}

// Comparison holds both runs of one program and the verdict.
type Comparison struct {
	Source  []byte
	Input   []byte
	Outcome Outcome
	Plain   Run
	Fused   Run
	Detail  string
}

// CheckFusion runs src once as parsed and once fused against the same
// input and compares what both runs leave behind. Fusion never adds
// steps, so only the plain run is bounded by maxSteps; when it does not
// halt in time the comparison is inconclusive.
func CheckFusion(src, input []byte, maxSteps int) Comparison {
	cmp := Comparison{
		Source: src,
		Input:  input,
	}

	insts := program.Parse(src)

	cmp.Plain = runBounded(insts, input, false, maxSteps)
	if !cmp.Plain.Halted {
		cmp.Outcome = Inconclusive
		cmp.Detail = fmt.Sprintf("no halt within %d steps", maxSteps)
		return cmp
	}

	cmp.Fused = runBounded(insts, input, true, maxSteps)
	cmp.Detail = compareRuns(cmp.Plain, cmp.Fused)
	if cmp.Detail != "" {
		cmp.Outcome = Diverged
	}

	return cmp
}

func runBounded(insts []instr.Inst, input []byte, optimize bool, maxSteps int) Run {
	out := &bytes.Buffer{}

	c := core.NewBuilder().
		WithOptimization(optimize).
		WithInput(bytes.NewReader(input)).
		WithOutput(out).
		WithEncoding(core.Raw).
		Build("Checker")
	c.MapProgram(insts)

	r := Run{}

	if err := c.Prepare(); err != nil {
		r.Halted = true
		r.Err = err
		r.Tape = c.Tape()
		return r
	}

	for i := 0; i < maxSteps && !c.Halted(); i++ {
		if _, err := c.Step(); err != nil {
			r.Err = err
			break
		}
	}

	if err := c.Flush(); err != nil && r.Err == nil {
		r.Err = err
	}

	r.Halted = c.Halted() || r.Err != nil
	r.Steps = c.Steps()
	r.Output = out.Bytes()
	r.Tape = c.Tape()
	r.TP = c.TapePointer()

	return r
}

// compareRuns returns an empty string when both runs agree, or a
// description of the first difference otherwise.
func compareRuns(plain, fused Run) string {
	if !fused.Halted {
		return "fused run did not halt"
	}

	if kind(plain.Err) != kind(fused.Err) {
		return fmt.Sprintf("failure differs: plain %q, fused %q",
			kind(plain.Err), kind(fused.Err))
	}

	if !bytes.Equal(plain.Output, fused.Output) {
		return fmt.Sprintf("output differs: plain %q, fused %q",
			plain.Output, fused.Output)
	}

	if plain.TP != fused.TP {
		return fmt.Sprintf("tape pointer differs: plain %d, fused %d",
			plain.TP, fused.TP)
	}

	for i := range plain.Tape {
		if plain.Tape[i] != fused.Tape[i] {
			return fmt.Sprintf("cell %d differs: plain %d, fused %d",
				i, plain.Tape[i], fused.Tape[i])
		}
	}

	if fused.Steps > plain.Steps {
		return fmt.Sprintf("fused run took more steps: plain %d, fused %d",
			plain.Steps, fused.Steps)
	}

	return ""
}

// kind classifies a run failure. Bracket indices shift under fusion, so
// errors are compared by class rather than by message.
func kind(err error) string {
	var (
		bracketErr *program.UnexpectedBracketError
		ioErr      *core.IOError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &bracketErr):
		return "bracket"
	case errors.As(err, &ioErr):
		return ioErr.Op
	default:
		return "other"
	}
}
