package emu_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
	"github.com/sarchlab/mipsim/mem"
)

type recordingTracer struct {
	steps  []emu.StepEvent
	faults []emu.FaultEvent
}

func (t *recordingTracer) Trace(ev emu.StepEvent)  { t.steps = append(t.steps, ev) }
func (t *recordingTracer) Fault(ev emu.FaultEvent) { t.faults = append(t.faults, ev) }

var _ = Describe("Tracing", func() {
	var (
		ram      *mem.RAM
		recorder *recordingTracer
		sink     *bytes.Buffer
	)

	BeforeEach(func() {
		ram = mem.NewRAM(4096, 4)
		recorder = &recordingTracer{}
		sink = &bytes.Buffer{}
	})

	It("should report committed steps", func() {
		e := emu.NewEmulator(ram, emu.WithTracer(recorder), emu.WithDebugSink(sink))
		Expect(e.SetRegister(1, 0x100)).To(Succeed())
		Expect(e.SetRegister(2, 0xAB)).To(Succeed())

		Expect(execAt(e, ram, insts.EncodeI(insts.OpADDIU, 3, 0, 7))).To(Succeed())
		Expect(execAt(e, ram, insts.EncodeI(insts.OpSW, 2, 1, 0))).To(Succeed())

		Expect(recorder.steps).To(HaveLen(2))

		first := recorder.steps[0]
		Expect(first.PC).To(BeZero())
		Expect(first.NextPC).To(Equal(uint32(4)))
		Expect(first.Inst.Op).To(Equal(insts.OpADDIU))
		Expect(first.WroteReg).To(BeTrue())
		Expect(first.Reg).To(Equal(uint8(3)))
		Expect(first.Value).To(Equal(uint32(7)))
		Expect(first.Count).To(Equal(uint64(1)))

		second := recorder.steps[1]
		Expect(second.WroteReg).To(BeFalse())
		Expect(second.Stored).To(BeTrue())
		Expect(second.Store).To(Equal(emu.PendingStore{Addr: 0x100, Value: 0xAB}))

		Expect(sink.Len()).To(BeZero())
	})

	It("should report faults", func() {
		e := emu.NewEmulator(ram, emu.WithTracer(recorder), emu.WithDebugSink(sink))

		Expect(execAt(e, ram, 0xFC000000)).NotTo(Succeed())

		Expect(recorder.steps).To(BeEmpty())
		Expect(recorder.faults).To(HaveLen(1))
		Expect(recorder.faults[0].Fault.Err).To(MatchError(emu.ErrInvalidInstruction))
	})

	It("should log faults but not steps at level 1", func() {
		e := emu.NewEmulator(ram, emu.WithDebugLevel(1), emu.WithDebugSink(sink))

		Expect(execAt(e, ram, insts.EncodeI(insts.OpADDIU, 3, 0, 7))).To(Succeed())
		Expect(sink.String()).To(BeEmpty())

		Expect(execAt(e, ram, 0xFC000000)).NotTo(Succeed())
		Expect(sink.String()).To(ContainSubstring("msg=fault"))
		Expect(sink.String()).To(ContainSubstring("level=info"))
	})

	It("should log every step at level 2", func() {
		e := emu.NewEmulator(ram, emu.WithDebugLevel(2), emu.WithDebugSink(sink))

		Expect(execAt(e, ram, insts.EncodeI(insts.OpADDIU, 3, 0, 7))).To(Succeed())

		Expect(sink.String()).To(ContainSubstring("msg=step"))
		Expect(sink.String()).To(ContainSubstring("addiu $3, $0, 7"))
		Expect(sink.String()).NotTo(ContainSubstring("msg=retired"))
	})

	It("should change verbosity at runtime", func() {
		e := emu.NewEmulator(ram, emu.WithDebugSink(&bytes.Buffer{}))

		Expect(e.SetDebugLevel(3, sink)).To(Succeed())
		Expect(e.DebugLevel()).To(Equal(uint(3)))
		Expect(execAt(e, ram, insts.EncodeI(insts.OpADDIU, 3, 0, 7))).To(Succeed())

		Expect(sink.String()).To(ContainSubstring("msg=step"))
		Expect(sink.String()).To(ContainSubstring("msg=retired"))
	})
})
