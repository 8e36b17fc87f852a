package program_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bfemu/instr"
	"github.com/sarchlab/bfemu/program"
)

var _ = Describe("Image", func() {
	It("should compile, store and restore a linked program", func() {
		img, err := program.Compile([]byte("++[>+++<-]>."), program.Permissive, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(img.Optimized).To(BeTrue())
		Expect(program.Linked(img.Insts)).To(BeTrue())

		data, err := program.MarshalImage(img)
		Expect(err).NotTo(HaveOccurred())

		restored, err := program.UnmarshalImage(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(restored).To(Equal(img))
	})

	It("should keep primitive instructions when not optimizing", func() {
		img, err := program.Compile([]byte("++."), program.Permissive, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(img.Insts).To(HaveLen(3))
	})

	It("should refuse to compile unbalanced programs", func() {
		_, err := program.Compile([]byte("[["), program.Permissive, false)

		var bracketErr *program.UnexpectedBracketError
		Expect(errors.As(err, &bracketErr)).To(BeTrue())
	})

	It("should honour the strict parse mode", func() {
		_, err := program.Compile([]byte("+ +"), program.Strict, false)
		Expect(err).To(MatchError("invalid instruction:  "))
	})

	It("should reject images with unlinked brackets", func() {
		data, err := program.MarshalImage(&program.Image{
			Version: program.ImageVersion,
			Insts: []instr.Inst{
				{Kind: instr.LoopStart, Target: instr.Unresolved},
				{Kind: instr.LoopEnd, Target: instr.Unresolved},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = program.UnmarshalImage(data)
		Expect(errors.Is(err, program.ErrCorruptImage)).To(BeTrue())
	})

	It("should reject unknown versions", func() {
		data, err := program.MarshalImage(&program.Image{Version: 99})
		Expect(err).NotTo(HaveOccurred())

		_, err = program.UnmarshalImage(data)
		Expect(errors.Is(err, program.ErrCorruptImage)).To(BeTrue())
	})

	It("should reject bytes that are not CBOR", func() {
		_, err := program.UnmarshalImage([]byte{0xff, 0x00})
		Expect(errors.Is(err, program.ErrCorruptImage)).To(BeTrue())
	})
})
