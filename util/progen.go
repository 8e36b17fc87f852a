// Package util holds closure-based generators of random programs and inputs.
package util

import (
	"math/rand"

	"github.com/sarchlab/bfemu/instr"
)

var straightLine = []byte("+-<>.,")

// MakeProgramGen returns a generator of random programs with balanced
// brackets. Each program holds roughly length instructions and nests loops
// at most maxDepth deep. Loop bodies usually end with a decrement so that a
// good share of the programs terminate.
func MakeProgramGen(seed int64, length, maxDepth int) func() []byte {
	r := rand.New(rand.NewSource(seed))

	var gen func(budget, depth int) []byte
	gen = func(budget, depth int) []byte {
		var out []byte
		for budget > 0 {
			if depth < maxDepth && budget > 3 && r.Intn(8) == 0 {
				inner := 1 + r.Intn(budget-2)
				out = append(out, '[')
				out = append(out, gen(inner, depth+1)...)
				if r.Intn(4) != 0 {
					out = append(out, '-')
				}
				out = append(out, ']')
				budget -= inner + 2
				continue
			}

			out = append(out, straightLine[r.Intn(len(straightLine))])
			budget--
		}
		return out
	}

	return func() []byte {
		return gen(1+r.Intn(length), 0)
	}
}

// MakeInputGen returns a generator of random input streams of up to n bytes.
func MakeInputGen(seed int64, n int) func() []byte {
	r := rand.New(rand.NewSource(seed))
	return func() []byte {
		in := make([]byte, r.Intn(n+1))
		r.Read(in)
		return in
	}
}

// WithComments interleaves random non-instruction bytes into src. The
// result parses to the same instruction sequence as src.
func WithComments(src []byte, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))

	comment := func() byte {
		for {
			b := byte(r.Intn(256))
			if !instr.IsInstruction(b) {
				return b
			}
		}
	}

	out := make([]byte, 0, 2*len(src))
	for _, b := range src {
		for n := r.Intn(3); n > 0; n-- {
			out = append(out, comment())
		}
		out = append(out, b)
	}
	return append(out, comment())
}
