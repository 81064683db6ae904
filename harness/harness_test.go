package harness_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/asm"
	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/harness"
	"github.com/sarchlab/mipsim/mem"
)

func newMachine() (*emu.Emulator, mem.Memory) {
	ram := mem.NewRAM(4096, 4)
	return emu.NewEmulator(ram), ram
}

func loadSource(e *emu.Emulator, m mem.Memory, source string) {
	prog, err := asm.Assemble(source)
	Expect(err).NotTo(HaveOccurred())
	Expect(prog.Install(m)).To(Succeed())
	Expect(e.SetPC(prog.Origin)).To(Succeed())
}

var _ = Describe("Runner", func() {
	var (
		e *emu.Emulator
		m mem.Memory
	)

	BeforeEach(func() {
		e, m = newMachine()
	})

	It("should run until the program jumps to itself", func() {
		loadSource(e, m, `
			addiu $a0, $zero, 5
			jal   double
		done:
			j     done
		double:
			addu  $v0, $a0, $a0
			jr    $ra`)

		res := (&harness.Runner{Emulator: e, MaxSteps: 100}).Run()

		Expect(res.Err).NotTo(HaveOccurred())
		Expect(res.Halted).To(BeTrue())
		Expect(res.Steps).To(Equal(uint64(5)))
		Expect(e.Register(2)).To(Equal(uint32(10)))
	})

	It("should stop at the step budget", func() {
		loadSource(e, m, "loop: addiu $1, $1, 1\nj loop")

		res := (&harness.Runner{Emulator: e, MaxSteps: 7}).Run()

		Expect(res.Err).To(MatchError(harness.ErrStepLimit))
		Expect(res.Halted).To(BeFalse())
		Expect(res.Steps).To(Equal(uint64(7)))
		Expect(e.Register(1)).To(Equal(uint32(4)))
	})

	It("should stop at the first fault", func() {
		loadSource(e, m, "addiu $1, $0, 1\n.word 0xffffffff")

		res := (&harness.Runner{Emulator: e}).Run()

		Expect(res.Err).To(MatchError(emu.ErrInvalidInstruction))
		Expect(res.Steps).To(Equal(uint64(1)))
	})

	It("should report a closed emulator", func() {
		Expect(e.Close()).To(Succeed())

		res := (&harness.Runner{Emulator: e}).Run()

		Expect(res.Err).To(MatchError(emu.ErrInvalidHandle))
	})
})

var _ = Describe("DumpRegisters", func() {
	It("should print every register and the control state", func() {
		e, _ := newMachine()
		Expect(e.SetRegister(29, 0xFFC)).To(Succeed())
		Expect(e.SetHI(0xAB)).To(Succeed())

		var out bytes.Buffer
		Expect(harness.DumpRegisters(&out, e)).To(Succeed())

		text := out.String()
		Expect(strings.Count(text, "\n")).To(Equal(9))
		Expect(text).To(ContainSubstring("$29/sp    0x00000ffc"))
		Expect(text).To(ContainSubstring("npc       0x00000004"))
		Expect(text).To(ContainSubstring("hi        0x000000ab"))
	})

	It("should refuse a closed emulator", func() {
		e, _ := newMachine()
		Expect(e.Close()).To(Succeed())

		Expect(harness.DumpRegisters(&bytes.Buffer{}, e)).To(MatchError(emu.ErrInvalidHandle))
	})
})

var _ = Describe("Suite", func() {
	It("should record results in completion order", func() {
		s := &harness.Suite{}

		first := s.BeginTest("add")
		second := s.BeginTest("sub")
		Expect(s.EndTest(second, false, "wrong sign")).To(Succeed())
		Expect(s.EndTest(first, true, "ignored")).To(Succeed())

		Expect(s.Results()).To(Equal([]harness.TestResult{
			{ID: 1, Name: "sub", Passed: false, Message: "wrong sign"},
			{ID: 0, Name: "add", Passed: true},
		}))

		var out bytes.Buffer
		Expect(s.Summary(&out)).To(Succeed())
		Expect(out.String()).To(Equal("1, sub, Fail, wrong sign\n0, add, Pass\n1 passed, 1 failed\n"))
	})

	It("should reject ending an unknown test", func() {
		s := &harness.Suite{}
		Expect(s.EndTest(3, true, "")).To(HaveOccurred())
	})
})

var _ = Describe("SelfTest", func() {
	It("should pass every built-in vector", func() {
		s := &harness.Suite{}

		failures := harness.SelfTest(s, newMachine)

		var out bytes.Buffer
		Expect(s.Summary(&out)).To(Succeed())
		Expect(failures).To(BeZero(), out.String())

		passed, failed := s.Counts()
		Expect(failed).To(BeZero())
		Expect(passed).To(BeNumerically(">=", 20))
	})

	It("should count failures from a broken machine", func() {
		s := &harness.Suite{}

		failures := harness.SelfTest(s, func() (*emu.Emulator, mem.Memory) {
			return emu.NewEmulator(mem.NewRAM(16, 4)), mem.NewRAM(16, 4)
		})

		Expect(failures).To(BeNumerically(">", 0))
	})
})
