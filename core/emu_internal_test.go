package core

import (
	"bufio"
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bfemu/instr"
)

var _ = Describe("InstEmulator", func() {
	var (
		ie  instEmulator
		s   coreState
		out *bytes.Buffer
	)

	BeforeEach(func() {
		out = &bytes.Buffer{}
		ie = instEmulator{
			in:  strings.NewReader("z"),
			out: bufio.NewWriter(out),
		}
		s = coreState{}
	})

	It("should wrap with a true modulo", func() {
		Expect(wrap(-1, TapeSize)).To(Equal(TapeSize - 1))
		Expect(wrap(TapeSize, TapeSize)).To(Equal(0))
		Expect(wrap(-3*TapeSize-5, TapeSize)).To(Equal(TapeSize - 5))
		Expect(wrap(7, TapeSize)).To(Equal(7))
	})

	Describe("MOVE", func() {
		It("should move by the fused amount and advance the PC", func() {
			Expect(ie.RunInst(instr.Inst{Kind: instr.Move, Amount: 5}, &s)).To(Succeed())
			Expect(s.TP).To(Equal(5))
			Expect(s.PC).To(Equal(1))

			Expect(ie.RunInst(instr.Inst{Kind: instr.Move, Amount: -6}, &s)).To(Succeed())
			Expect(s.TP).To(Equal(TapeSize - 1))
			Expect(s.Steps).To(Equal(uint64(2)))
		})
	})

	Describe("ADD", func() {
		It("should add with 8-bit wraparound in both directions", func() {
			s.Tape[0] = 255
			Expect(ie.RunInst(instr.Inst{Kind: instr.Add, Amount: 1}, &s)).To(Succeed())
			Expect(s.Tape[0]).To(Equal(uint8(0)))

			Expect(ie.RunInst(instr.Inst{Kind: instr.Add, Amount: -1}, &s)).To(Succeed())
			Expect(s.Tape[0]).To(Equal(uint8(255)))

			Expect(ie.RunInst(instr.Inst{Kind: instr.Add, Amount: -513}, &s)).To(Succeed())
			Expect(s.Tape[0]).To(Equal(uint8(254)))
		})

		It("should leave the cell alone for a zero amount", func() {
			s.Tape[0] = 9
			Expect(ie.RunInst(instr.Inst{Kind: instr.Add}, &s)).To(Succeed())
			Expect(s.Tape[0]).To(Equal(uint8(9)))
			Expect(s.PC).To(Equal(1))
		})
	})

	Describe("IN/OUT", func() {
		It("should read into and write from the current cell", func() {
			s.TP = 3
			Expect(ie.RunInst(instr.Inst{Kind: instr.Input}, &s)).To(Succeed())
			Expect(s.Tape[3]).To(Equal(uint8('z')))

			Expect(ie.RunInst(instr.Inst{Kind: instr.Output}, &s)).To(Succeed())
			Expect(ie.out.Flush()).To(Succeed())
			Expect(out.String()).To(Equal("z"))
		})
	})

	Describe("JZ/JNZ", func() {
		It("should jump past the loop on a zero cell", func() {
			s.PC = 2
			Expect(ie.RunInst(instr.Inst{Kind: instr.LoopStart, Target: 6}, &s)).To(Succeed())
			Expect(s.PC).To(Equal(7))
		})

		It("should enter the loop on a nonzero cell", func() {
			s.PC = 2
			s.Tape[0] = 1
			Expect(ie.RunInst(instr.Inst{Kind: instr.LoopStart, Target: 6}, &s)).To(Succeed())
			Expect(s.PC).To(Equal(3))
		})

		It("should jump back to the body on a nonzero cell", func() {
			s.PC = 6
			s.Tape[0] = 1
			Expect(ie.RunInst(instr.Inst{Kind: instr.LoopEnd, Target: 2}, &s)).To(Succeed())
			Expect(s.PC).To(Equal(3))
		})

		It("should fall out of the loop on a zero cell", func() {
			s.PC = 6
			Expect(ie.RunInst(instr.Inst{Kind: instr.LoopEnd, Target: 2}, &s)).To(Succeed())
			Expect(s.PC).To(Equal(7))
		})

		It("should treat unresolved brackets as no-ops", func() {
			s.PC = 4
			Expect(ie.RunInst(instr.Inst{Kind: instr.LoopStart, Target: instr.Unresolved}, &s)).To(Succeed())
			Expect(s.PC).To(Equal(5))

			s.Tape[0] = 1
			Expect(ie.RunInst(instr.Inst{Kind: instr.LoopEnd, Target: instr.Unresolved}, &s)).To(Succeed())
			Expect(s.PC).To(Equal(6))
		})
	})

	It("should panic on an unknown instruction kind", func() {
		Expect(func() {
			_ = ie.RunInst(instr.Inst{Kind: instr.Kind(42)}, &s)
		}).To(Panic())
	})
})
