package verify

import (
	"fmt"
	"sort"

	"github.com/sarchlab/bfemu/instr"
	"github.com/sarchlab/bfemu/program"
)

// IssueType groups lint findings.
type IssueType string

const (
	// IssueStruct marks a program that cannot be linked.
	IssueStruct IssueType = "STRUCT"
	// IssueLoop marks a loop that runs never or forever.
	IssueLoop IssueType = "LOOP"
	// IssueSyntax marks a byte rejected by strict parsing.
	IssueSyntax IssueType = "SYNTAX"
)

// Issue is one lint finding.
type Issue struct {
	Type    IssueType
	Offset  int
	Index   int
	Message string
}

type openBracket struct {
	offset int
	index  int
}

// RunLint checks src and returns every issue found, ordered by offset.
// Unlike Link, it does not stop at the first unmatched bracket.
func RunLint(src []byte, mode program.ParseMode) []Issue {
	var (
		issues []Issue
		stack  []openBracket
		closed []Issue
	)

	index := 0
	prev := -1 // offset of the previous instruction byte

	for offset, b := range src {
		if !instr.IsInstruction(b) {
			if mode == program.Strict {
				issues = append(issues, Issue{
					Type:    IssueSyntax,
					Offset:  offset,
					Index:   -1,
					Message: fmt.Sprintf("invalid instruction %q", b),
				})
			}
			continue
		}

		switch b {
		case '[':
			if index == 0 {
				issues = append(issues, Issue{
					Type:    IssueLoop,
					Offset:  offset,
					Index:   index,
					Message: "loop at program start never runs",
				})
			}
			stack = append(stack, openBracket{offset: offset, index: index})
		case ']':
			if len(stack) == 0 {
				issues = append(issues, Issue{
					Type:    IssueStruct,
					Offset:  offset,
					Index:   index,
					Message: "unmatched ']'",
				})
				break
			}

			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if prev == open.offset {
				closed = append(closed, Issue{
					Type:    IssueLoop,
					Offset:  open.offset,
					Index:   open.index,
					Message: "empty loop never ends once entered",
				})
			}
		}

		prev = offset
		index++
	}

	for _, open := range stack {
		issues = append(issues, Issue{
			Type:    IssueStruct,
			Offset:  open.offset,
			Index:   open.index,
			Message: "unmatched '['",
		})
	}

	issues = append(issues, closed...)
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Offset < issues[j].Offset
	})

	return issues
}

// HasStructIssues reports whether any issue prevents the program from
// being linked.
func HasStructIssues(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Type == IssueStruct {
			return true
		}
	}
	return false
}
