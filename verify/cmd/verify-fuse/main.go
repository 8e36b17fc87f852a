// Command verify-fuse checks Move/Add fusion against plain execution over
// randomly generated programs.
package main

import (
	"fmt"
	"os"

	"github.com/tebeka/atexit"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/sarchlab/bfemu/util"
	"github.com/sarchlab/bfemu/verify"
)

func main() {
	seed := kingpin.Flag("seed", "Random seed.").Default("1").Int64()
	count := kingpin.Flag("count", "Number of programs.").Short('n').Default("1000").Int()
	length := kingpin.Flag("len", "Maximum program length.").Default("200").Int()
	depth := kingpin.Flag("depth", "Maximum loop nesting.").Default("4").Int()
	maxSteps := kingpin.Flag("steps", "Step bound for the unfused run.").Default("100000").Int()
	out := kingpin.Flag("out", "Also save the report to this file.").Short('o').String()
	kingpin.Parse()

	progGen := util.MakeProgramGen(*seed, *length, *depth)
	inputGen := util.MakeInputGen(*seed, 32)

	fmt.Printf("Checking %d programs (seed %d)\n\n", *count, *seed)

	comparisons := make([]verify.Comparison, 0, *count)
	for i := 0; i < *count; i++ {
		src := util.WithComments(progGen(), *seed+int64(i))
		comparisons = append(comparisons, verify.CheckFusion(src, inputGen(), *maxSteps))
	}

	report := verify.GenerateReport(nil, comparisons)
	report.WriteReport(os.Stdout)

	if *out != "" {
		if err := report.SaveReportToFile(*out); err != nil {
			fmt.Fprintln(os.Stderr, err)
			atexit.Exit(1)
		}
	}

	if !report.Passed() {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
