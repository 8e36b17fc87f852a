package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/bfemu/api"
	"github.com/sarchlab/bfemu/core"
	"github.com/sarchlab/bfemu/program"
)

//go:embed hello.b
var helloKernel []byte

func main() {
	monitor := monitoring.NewMonitor()

	engine := sim.NewSerialEngine()
	monitor.RegisterEngine(engine)

	driver := api.DriverBuilder{}.
		WithEngine(engine).
		WithFreq(1 * sim.GHz).
		WithMonitor(monitor).
		Build("Driver")

	c := core.NewBuilder().
		WithOptimization(true).
		Build("Core")
	c.MapProgram(program.Parse(helloKernel))

	driver.MapCore(c)

	if err := driver.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	fmt.Printf("%d cycles\n", driver.Cycles())
	core.PrintTape(os.Stdout, c, 0, 10)

	atexit.Exit(0)
}
