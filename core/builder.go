package core

import (
	"bufio"
	"io"
	"os"
)

// Builder can create new cores.
type Builder struct {
	optimize bool
	in       io.Reader
	out      io.Writer
	encoding Encoding
}

// NewBuilder returns a builder reading os.Stdin and writing os.Stdout, with
// fusion disabled and UTF-8 output.
func NewBuilder() Builder {
	return Builder{
		in:       os.Stdin,
		out:      os.Stdout,
		encoding: UTF8,
	}
}

// WithOptimization enables fusing Move/Add runs before linking.
func (b Builder) WithOptimization(optimize bool) Builder {
	b.optimize = optimize
	return b
}

// WithInput sets the stream Input instructions read from.
func (b Builder) WithInput(in io.Reader) Builder {
	b.in = in
	return b
}

// WithOutput sets the stream Output instructions write to.
func (b Builder) WithOutput(out io.Writer) Builder {
	b.out = out
	return b
}

// WithEncoding sets how Output writes a cell.
func (b Builder) WithEncoding(encoding Encoding) Builder {
	b.encoding = encoding
	return b
}

// Build creates a core.
func (b Builder) Build(name string) *Core {
	c := &Core{
		name:     name,
		optimize: b.optimize,
	}

	c.emu = instEmulator{
		in:       b.in,
		out:      bufio.NewWriter(b.out),
		encoding: b.encoding,
	}

	return c
}
