package core_test

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bfemu/core"
	"github.com/sarchlab/bfemu/program"
	"github.com/sarchlab/bfemu/util"
)

const helloWorld = "++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]>>.>---.+++++++..+++.>>.<-.<.+++.------.--------.>>+.>++."

func newCore(src, input string, out io.Writer, optimize bool) *core.Core {
	c := core.NewBuilder().
		WithOptimization(optimize).
		WithInput(strings.NewReader(input)).
		WithOutput(out).
		Build("Core")
	c.MapProgram(program.Parse([]byte(src)))
	return c
}

// runBounded runs c for at most maxSteps instructions and reports whether
// it halted.
func runBounded(c *core.Core, maxSteps int) (halted bool, err error) {
	if err := c.Prepare(); err != nil {
		return false, err
	}
	for i := 0; i < maxSteps && !c.Halted(); i++ {
		if _, err := c.Step(); err != nil {
			return true, err
		}
	}
	return c.Halted(), c.Flush()
}

var _ = Describe("Core", func() {
	var (
		mockCtrl *gomock.Controller
		out      *bytes.Buffer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	for _, optimize := range []bool{false, true} {
		optimize := optimize

		Context("scenarios", func() {
			It("should print the cell after two increments", func() {
				c := newCore("++.", "", out, optimize)

				Expect(c.Run()).To(Succeed())
				Expect(out.Bytes()).To(Equal([]byte{2}))
				Expect(c.Cell(0)).To(Equal(uint8(2)))
				Expect(c.Halted()).To(BeTrue())
			})

			It("should echo an input byte", func() {
				c := newCore(",.", "A", out, optimize)

				Expect(c.Run()).To(Succeed())
				Expect(out.String()).To(Equal("A"))
				Expect(c.Cell(0)).To(Equal(uint8(65)))
			})

			It("should run a clearing loop once", func() {
				c := newCore("+[-]", "", out, optimize)

				Expect(c.Run()).To(Succeed())
				Expect(out.Len()).To(BeZero())
				Expect(c.Cell(0)).To(BeZero())
				Expect(c.Steps()).To(Equal(uint64(4)))
			})

			It("should skip a loop entered on a zero cell", func() {
				c := newCore("[+++.]>+", "", out, optimize)

				Expect(c.Run()).To(Succeed())
				Expect(out.Len()).To(BeZero())
				Expect(c.Cell(0)).To(BeZero())
				Expect(c.Cell(1)).To(Equal(uint8(1)))
			})

			It("should print hello world", func() {
				c := newCore(helloWorld, "", out, optimize)

				Expect(c.Run()).To(Succeed())
				Expect(out.String()).To(Equal("Hello World!\n"))
			})

			It("should ignore comment bytes", func() {
				commented := &bytes.Buffer{}
				src := string(util.WithComments([]byte(helloWorld), 17))

				Expect(newCore(helloWorld, "", out, optimize).Run()).To(Succeed())
				Expect(newCore(src, "", commented, optimize).Run()).To(Succeed())
				Expect(commented.String()).To(Equal(out.String()))
			})
		})
	}

	It("should not start a program with an unmatched bracket", func() {
		reader := NewMockReader(mockCtrl)
		writer := NewMockWriter(mockCtrl)

		c := core.NewBuilder().
			WithInput(reader).
			WithOutput(writer).
			Build("Core")
		c.MapProgram(program.Parse([]byte(",.[")))

		err := c.Run()

		var bracketErr *program.UnexpectedBracketError
		Expect(errors.As(err, &bracketErr)).To(BeTrue())
		Expect(bracketErr.Index).To(Equal(2))
		Expect(c.Steps()).To(BeZero())
	})

	It("should report the index of a lone closing bracket", func() {
		err := newCore("]", "", out, false).Run()

		var bracketErr *program.UnexpectedBracketError
		Expect(errors.As(err, &bracketErr)).To(BeTrue())
		Expect(bracketErr.Index).To(BeZero())
	})

	Context("tape", func() {
		It("should wrap the pointer left from zero", func() {
			c := newCore("<", "", out, false)

			Expect(c.Run()).To(Succeed())
			Expect(c.TapePointer()).To(Equal(core.TapeSize - 1))
		})

		It("should wrap the pointer right from the last cell", func() {
			c := newCore("<>", "", out, false)
			Expect(c.Prepare()).To(Succeed())

			_, err := c.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(c.TapePointer()).To(Equal(29999))

			done, err := c.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(done).To(BeTrue())
			Expect(c.TapePointer()).To(Equal(0))
		})

		It("should wrap fused moves larger than the tape", func() {
			c := newCore(strings.Repeat("<", core.TapeSize+2), "", out, true)

			Expect(c.Run()).To(Succeed())
			Expect(c.Code()).To(HaveLen(1))
			Expect(c.TapePointer()).To(Equal(core.TapeSize - 2))
		})

		It("should wrap cells at 8 bits", func() {
			c := newCore("-", "", out, false)
			Expect(c.Run()).To(Succeed())
			Expect(c.Cell(0)).To(Equal(uint8(255)))

			c = newCore(strings.Repeat("+", 256), "", out, false)
			Expect(c.Run()).To(Succeed())
			Expect(c.Cell(0)).To(BeZero())

			c = newCore(strings.Repeat("-", 257), "", out, true)
			Expect(c.Run()).To(Succeed())
			Expect(c.Cell(0)).To(Equal(uint8(255)))
		})

		It("should hand out a copy of the tape", func() {
			c := newCore("+", "", out, false)
			Expect(c.Run()).To(Succeed())

			tape := c.Tape()
			Expect(tape).To(HaveLen(core.TapeSize))
			tape[0] = 42
			Expect(c.Cell(0)).To(Equal(uint8(1)))
		})
	})

	Context("I/O", func() {
		It("should fail when input runs out", func() {
			c := newCore("+.,.", "", out, false)

			err := c.Run()

			var ioErr *core.IOError
			Expect(errors.As(err, &ioErr)).To(BeTrue())
			Expect(ioErr.Op).To(Equal("read"))
			Expect(errors.Is(err, io.ErrUnexpectedEOF)).To(BeTrue())
			Expect(out.Bytes()).To(Equal([]byte{1}))
			Expect(c.PC()).To(Equal(2))
		})

		It("should fail when the reader fails", func() {
			reader := NewMockReader(mockCtrl)
			reader.EXPECT().Read(gomock.Any()).Return(0, errors.New("broken pipe"))

			c := core.NewBuilder().
				WithInput(reader).
				WithOutput(out).
				Build("Core")
			c.MapProgram(program.Parse([]byte(",")))

			Expect(c.Run()).To(MatchError("failed to read: broken pipe"))
		})

		It("should flush output before blocking on input", func() {
			reader := NewMockReader(mockCtrl)
			writer := NewMockWriter(mockCtrl)

			gomock.InOrder(
				writer.EXPECT().Write([]byte("?")).Return(1, nil),
				reader.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
					p[0] = 'x'
					return 1, nil
				}),
				writer.EXPECT().Write([]byte("x")).Return(1, nil),
			)

			c := core.NewBuilder().
				WithInput(reader).
				WithOutput(writer).
				Build("Core")
			c.MapProgram(program.Parse([]byte(strings.Repeat("+", '?') + ".,.")))

			Expect(c.Run()).To(Succeed())
		})

		It("should surface write failures", func() {
			writer := NewMockWriter(mockCtrl)
			writer.EXPECT().Write(gomock.Any()).Return(0, errors.New("disk full"))

			c := core.NewBuilder().
				WithOutput(writer).
				Build("Core")
			c.MapProgram(program.Parse([]byte("+.")))

			err := c.Run()

			var ioErr *core.IOError
			Expect(errors.As(err, &ioErr)).To(BeTrue())
			Expect(ioErr.Op).To(Equal("write"))
		})

		It("should keep a flush failure after a failed step", func() {
			writer := NewMockWriter(mockCtrl)
			writer.EXPECT().Write(gomock.Any()).Return(0, errors.New("disk full"))

			c := core.NewBuilder().
				WithOutput(writer).
				Build("Core")
			c.MapProgram(program.Parse([]byte("+.")))
			Expect(c.Prepare()).To(Succeed())

			for !c.Halted() {
				_, err := c.Step()
				Expect(err).NotTo(HaveOccurred())
			}

			stepErr := errors.New("step failed")
			err := c.Finish(stepErr)

			var ioErr *core.IOError
			Expect(errors.Is(err, stepErr)).To(BeTrue())
			Expect(errors.As(err, &ioErr)).To(BeTrue())
			Expect(ioErr.Op).To(Equal("write"))
			Expect(err.Error()).To(ContainSubstring("disk full"))
		})

		It("should report a write failure from a step only once", func() {
			writer := NewMockWriter(mockCtrl)
			writer.EXPECT().Write(gomock.Any()).Return(0, errors.New("disk full"))

			c := core.NewBuilder().
				WithOutput(writer).
				Build("Core")
			c.MapProgram(program.Parse([]byte("+" + strings.Repeat(".", 5000))))

			err := c.Run()

			Expect(err).To(MatchError("failed to write: disk full"))
			Expect(c.Halted()).To(BeFalse())
		})

		It("should pass a step error through when output flushes", func() {
			c := newCore("+.", "", out, false)
			Expect(c.Prepare()).To(Succeed())

			stepErr := errors.New("step failed")
			Expect(c.Finish(stepErr)).To(Equal(stepErr))
			Expect(c.Finish(nil)).To(Succeed())
		})

		It("should write cells as code points by default", func() {
			c := newCore(strings.Repeat("+", 200)+".", "", out, true)

			Expect(c.Run()).To(Succeed())
			Expect(out.String()).To(Equal("È"))
			Expect(out.Len()).To(Equal(2))
		})

		It("should write raw bytes when asked to", func() {
			c := core.NewBuilder().
				WithOptimization(true).
				WithOutput(out).
				WithEncoding(core.Raw).
				Build("Core")
			c.MapProgram(program.Parse([]byte(strings.Repeat("+", 200) + ".")))

			Expect(c.Run()).To(Succeed())
			Expect(out.Bytes()).To(Equal([]byte{200}))
		})
	})

	It("should run a compiled image without relinking", func() {
		img, err := program.Compile([]byte(helloWorld), program.Permissive, true)
		Expect(err).NotTo(HaveOccurred())

		c := core.NewBuilder().WithOutput(out).Build("Core")
		c.MapImage(img)

		Expect(c.Prepared()).To(BeTrue())
		Expect(c.Run()).To(Succeed())
		Expect(out.String()).To(Equal("Hello World!\n"))
	})

	It("should produce the same output and tape with and without fusion", func() {
		progGen := util.MakeProgramGen(7, 120, 4)
		inputGen := util.MakeInputGen(7, 16)

		compared := 0
		for i := 0; i < 300; i++ {
			src := string(progGen())
			input := string(inputGen())

			plainOut := &bytes.Buffer{}
			plain := newCore(src, input, plainOut, false)
			halted, plainErr := runBounded(plain, 20000)
			if !halted {
				continue
			}

			fusedOut := &bytes.Buffer{}
			fused := newCore(src, input, fusedOut, true)
			halted, fusedErr := runBounded(fused, 20000)
			Expect(halted).To(BeTrue(), src)

			Expect(fusedErr == nil).To(Equal(plainErr == nil), src)
			Expect(fusedOut.Bytes()).To(Equal(plainOut.Bytes()), src)
			Expect(fused.Tape()).To(Equal(plain.Tape()), src)
			Expect(fused.TapePointer()).To(Equal(plain.TapePointer()), src)
			Expect(fused.Steps()).To(BeNumerically("<=", plain.Steps()))
			compared++
		}

		Expect(compared).To(BeNumerically(">", 30))
	})
})
