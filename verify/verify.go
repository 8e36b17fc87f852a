// Package verify provides debugging tools for tape machine programs.
//
// This package implements two complementary checks:
//
// 1. Static Lint (lint.go): structural checks on the source text
//   - STRUCT checks: unmatched brackets, reported by source offset
//   - LOOP checks: empty loops and leading comment loops
//   - SYNTAX checks: bytes that strict parsing rejects
//
// 2. Fusion Checker (fusion.go): differential execution of one program
//   - Runs the program once as parsed and once with Move/Add runs fused
//   - Compares output, final tape, tape pointer and failure
//   - Useful for isolating optimizer bugs from engine bugs
//
// # Offsets
//
// Lint issues point into the source text, not into the instruction
// sequence. Offset is the byte position of the offending byte; Index is
// the position of the instruction it parses to, or -1 when the byte is not
// an instruction.
//
// # Usage Example
//
//	issues := verify.RunLint(src, program.Permissive)
//	cmp := verify.CheckFusion(src, input, 1_000_000)
//	report := verify.GenerateReport(issues, []verify.Comparison{cmp})
//	report.WriteReport(os.Stdout)
package verify
