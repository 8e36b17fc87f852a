package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
)

const (
	LevelTrace slog.Level = slog.LevelInfo + 1

	dumpColumns = 10
)

func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}

// TraceEnabled reports whether the default logger records trace messages.
func TraceEnabled() bool {
	return slog.Default().Enabled(context.Background(), LevelTrace)
}

// PrintTape renders n cells starting at from as a table, ten cells per row.
// The current cell is shown in brackets.
func PrintTape(w io.Writer, c *Core, from, n int) {
	if n <= 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("%s: PC=%d TP=%d steps=%d",
		c.Name(), c.PC(), c.TapePointer(), c.Steps())

	header := table.Row{"Addr"}
	for col := 0; col < dumpColumns; col++ {
		header = append(header, fmt.Sprintf("+%d", col))
	}
	t.AppendHeader(header)

	for rowStart := 0; rowStart < n; rowStart += dumpColumns {
		addr := wrap(from+rowStart, TapeSize)
		row := table.Row{addr}
		for col := 0; col < dumpColumns && rowStart+col < n; col++ {
			idx := wrap(addr+col, TapeSize)
			if idx == c.TapePointer() {
				row = append(row, fmt.Sprintf("[%d]", c.Cell(idx)))
			} else {
				row = append(row, c.Cell(idx))
			}
		}
		t.AppendRow(row)
	}

	t.Render()
}

// PrintCode renders the instruction sequence as a table.
func PrintCode(w io.Writer, c *Core) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("%s: %d instructions", c.Name(), len(c.state.Code))
	t.AppendHeader(table.Row{"#", "Inst", "Src"})

	for i, inst := range c.state.Code {
		t.AppendRow(table.Row{i, inst.String(), string(inst.Byte())})
	}

	t.Render()
}

func LogState(c *Core) {
	slog.Debug("StateCheckpoint",
		"Core", c.Name(),
		"PC", c.state.PC,
		"TP", c.state.TP,
		"Cell", c.state.Tape[c.state.TP],
		"Steps", c.state.Steps,
		"Halted", c.Halted(),
	)
}
