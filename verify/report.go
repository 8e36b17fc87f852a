package verify

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/bfemu/instr"
	"github.com/sarchlab/bfemu/program"
)

// VerificationReport represents a complete verification report
type VerificationReport struct {
	LintIssues   []Issue
	StructIssues []Issue
	LoopIssues   []Issue
	SyntaxIssues []Issue

	Comparisons  []Comparison
	Equivalent   int
	Diverged     int
	Inconclusive int

	PlainSteps uint64
	FusedSteps uint64
}

// GenerateReport categorizes lint issues and tallies fusion comparisons.
func GenerateReport(issues []Issue, comparisons []Comparison) *VerificationReport {
	report := &VerificationReport{
		LintIssues:  issues,
		Comparisons: comparisons,
	}

	for _, issue := range issues {
		switch issue.Type {
		case IssueStruct:
			report.StructIssues = append(report.StructIssues, issue)
		case IssueLoop:
			report.LoopIssues = append(report.LoopIssues, issue)
		case IssueSyntax:
			report.SyntaxIssues = append(report.SyntaxIssues, issue)
		}
	}

	for _, cmp := range comparisons {
		switch cmp.Outcome {
		case Equivalent:
			report.Equivalent++
			report.PlainSteps += cmp.Plain.Steps
			report.FusedSteps += cmp.Fused.Steps
		case Diverged:
			report.Diverged++
		case Inconclusive:
			report.Inconclusive++
		}
	}

	return report
}

// Passed reports whether nothing diverged and the program can be linked.
func (r *VerificationReport) Passed() bool {
	return r.Diverged == 0 && len(r.StructIssues) == 0
}

// WriteReport writes a formatted report to a writer
func (r *VerificationReport) WriteReport(w io.Writer) {
	separator := strings.Repeat("=", 60)

	fmt.Fprintln(w, separator)
	fmt.Fprintln(w, "PROGRAM VERIFICATION REPORT")
	fmt.Fprintln(w, separator)

	// STAGE 1: LINT
	fmt.Fprintln(w, "\nSTAGE 1: LINT")
	if len(r.LintIssues) == 0 {
		fmt.Fprintln(w, "✓ No lint issues")
	} else {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetTitle("%d issues (%d STRUCT, %d LOOP, %d SYNTAX)",
			len(r.LintIssues), len(r.StructIssues),
			len(r.LoopIssues), len(r.SyntaxIssues))
		t.AppendHeader(table.Row{"Type", "Offset", "Inst", "Message"})
		for _, issue := range r.LintIssues {
			index := "-"
			if issue.Index >= 0 {
				index = fmt.Sprint(issue.Index)
			}
			t.AppendRow(table.Row{issue.Type, issue.Offset, index, issue.Message})
		}
		t.Render()
	}

	// STAGE 2: FUSION
	if len(r.Comparisons) > 0 {
		fmt.Fprintln(w, "\nSTAGE 2: FUSION CHECK")

		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"Programs", "Equivalent", "Diverged", "Inconclusive", "Steps saved"})
		t.AppendRow(table.Row{
			len(r.Comparisons), r.Equivalent, r.Diverged, r.Inconclusive,
			r.stepsSaved(),
		})
		t.Render()

		for i, cmp := range r.Comparisons {
			if cmp.Outcome != Diverged {
				continue
			}
			fmt.Fprintf(w, "  Divergence %d: %s\n", i+1, cmp.Detail)
			fmt.Fprintf(w, "    Source: %s\n", instr.Format(program.Parse(cmp.Source)))
			fmt.Fprintf(w, "    Input:  %q\n", cmp.Input)
		}
	}

	fmt.Fprintln(w, "\n"+separator)
	if r.Passed() {
		fmt.Fprintln(w, "✓ PASSED")
	} else {
		fmt.Fprintln(w, "⚠ FAILED")
	}
	fmt.Fprintln(w, separator)
}

func (r *VerificationReport) stepsSaved() string {
	if r.PlainSteps == 0 {
		return "-"
	}
	saved := float64(r.PlainSteps-r.FusedSteps) / float64(r.PlainSteps)
	return fmt.Sprintf("%.1f%%", saved*100)
}

// SaveReportToFile saves the report to a file.
func (r *VerificationReport) SaveReportToFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	r.WriteReport(file)
	return nil
}
