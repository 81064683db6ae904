package emu

import (
	"io"
	"os"

	"github.com/sarchlab/mipsim/insts"
	"github.com/sarchlab/mipsim/mem"
)

// Emulator executes MIPS-I instructions functionally, one per Step.
type Emulator struct {
	regFile *RegFile
	memory  mem.Memory
	decoder *insts.Decoder

	// Execution units
	alu        *ALU
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit

	// Observability
	tracers    []Tracer
	debug      *LogTracer
	debugLevel uint
	debugSink  io.Writer

	unalignedPartialWord bool

	instructionCount uint64
	closed           bool
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithDebugLevel sets the verbosity of the built-in log tracer.
func WithDebugLevel(level uint) EmulatorOption {
	return func(e *Emulator) {
		e.debugLevel = level
	}
}

// WithDebugSink sets where the built-in log tracer writes. The default is
// os.Stderr.
func WithDebugSink(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.debugSink = w
	}
}

// WithTracer adds a tracer that is notified of every step and fault.
func WithTracer(t Tracer) EmulatorOption {
	return func(e *Emulator) {
		e.tracers = append(e.tracers, t)
	}
}

// WithUnalignedPartialWord lets LWL and LWR use any byte address.
func WithUnalignedPartialWord() EmulatorOption {
	return func(e *Emulator) {
		e.unalignedPartialWord = true
	}
}

// WithEntryPoint sets the initial PC.
func WithEntryPoint(pc uint32) EmulatorOption {
	return func(e *Emulator) {
		e.regFile.SetPC(pc)
	}
}

// NewEmulator creates an emulator bound to memory. All registers start at
// zero with PC = 0 and NPC = 4.
func NewEmulator(memory mem.Memory, opts ...EmulatorOption) *Emulator {
	regFile := &RegFile{}
	regFile.Reset()

	e := &Emulator{
		regFile:   regFile,
		memory:    memory,
		decoder:   insts.NewDecoder(),
		debugSink: os.Stderr,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.alu = NewALU(regFile)
	e.lsu = NewLoadStoreUnit(regFile, memory)
	e.lsu.unalignedPartialWord = e.unalignedPartialWord
	e.branchUnit = NewBranchUnit(regFile)
	e.debug = NewLogTracer(e.debugLevel, e.debugSink)

	return e
}

func (e *Emulator) valid() bool {
	return e != nil && !e.closed
}

// Close releases the emulator. Every later call returns ErrInvalidHandle.
func (e *Emulator) Close() error {
	if !e.valid() {
		return ErrInvalidHandle
	}

	e.closed = true
	e.tracers = nil
	e.debug = nil

	return nil
}

// Reset zeroes all registers, HI and LO, and sets PC = 0, NPC = 4. Memory is
// left untouched.
func (e *Emulator) Reset() error {
	if !e.valid() {
		return ErrInvalidHandle
	}

	e.regFile.Reset()
	e.instructionCount = 0

	return nil
}

// SetDebugLevel replaces the built-in log tracer. A nil sink keeps the
// current one.
func (e *Emulator) SetDebugLevel(level uint, sink io.Writer) error {
	if !e.valid() {
		return ErrInvalidHandle
	}

	if sink != nil {
		e.debugSink = sink
	}
	e.debugLevel = level
	e.debug = NewLogTracer(level, e.debugSink)

	return nil
}

// DebugLevel returns the verbosity of the built-in log tracer.
func (e *Emulator) DebugLevel() uint {
	if !e.valid() {
		return 0
	}
	return e.debugLevel
}

// Register returns general-purpose register index.
func (e *Emulator) Register(index uint) (uint32, error) {
	if !e.valid() {
		return 0, ErrInvalidHandle
	}
	if index >= 32 {
		return 0, ErrInvalidArgument
	}
	return e.regFile.ReadReg(uint8(index)), nil
}

// SetRegister sets general-purpose register index. Writes to register 0 are
// discarded.
func (e *Emulator) SetRegister(index uint, value uint32) error {
	if !e.valid() {
		return ErrInvalidHandle
	}
	if index >= 32 {
		return ErrInvalidArgument
	}
	e.regFile.WriteReg(uint8(index), value)
	return nil
}

// PC returns the address of the next instruction to execute.
func (e *Emulator) PC() (uint32, error) {
	if !e.valid() {
		return 0, ErrInvalidHandle
	}
	return e.regFile.PC, nil
}

// SetPC sets PC and resets NPC to PC + 4.
func (e *Emulator) SetPC(value uint32) error {
	if !e.valid() {
		return ErrInvalidHandle
	}
	e.regFile.SetPC(value)
	return nil
}

// NPC returns the address that becomes PC after the next step.
func (e *Emulator) NPC() (uint32, error) {
	if !e.valid() {
		return 0, ErrInvalidHandle
	}
	return e.regFile.NPC, nil
}

// SetNPC sets NPC alone.
func (e *Emulator) SetNPC(value uint32) error {
	if !e.valid() {
		return ErrInvalidHandle
	}
	e.regFile.NPC = value
	return nil
}

// HI returns the high half of the last multiply, or the last remainder.
func (e *Emulator) HI() (uint32, error) {
	if !e.valid() {
		return 0, ErrInvalidHandle
	}
	return e.regFile.HI, nil
}

// SetHI sets HI.
func (e *Emulator) SetHI(value uint32) error {
	if !e.valid() {
		return ErrInvalidHandle
	}
	e.regFile.HI = value
	return nil
}

// LO returns the low half of the last multiply, or the last quotient.
func (e *Emulator) LO() (uint32, error) {
	if !e.valid() {
		return 0, ErrInvalidHandle
	}
	return e.regFile.LO, nil
}

// SetLO sets LO.
func (e *Emulator) SetLO(value uint32) error {
	if !e.valid() {
		return ErrInvalidHandle
	}
	e.regFile.LO = value
	return nil
}

// RegFile returns a copy of the processor state.
func (e *Emulator) RegFile() RegFile {
	if !e.valid() {
		return RegFile{}
	}
	return *e.regFile
}

// Memory returns the memory the emulator is bound to.
func (e *Emulator) Memory() mem.Memory {
	if !e.valid() {
		return nil
	}
	return e.memory
}

// InstructionCount returns the number of committed steps since construction
// or the last Reset.
func (e *Emulator) InstructionCount() uint64 {
	if !e.valid() {
		return 0
	}
	return e.instructionCount
}

// effect is the pending outcome of one instruction.
type effect struct {
	npc uint32

	writeReg bool
	reg      uint8
	value    uint32

	writeHI bool
	hi      uint32
	writeLO bool
	lo      uint32

	store *PendingStore
}

func (eff *effect) setReg(reg uint8, value uint32) {
	eff.writeReg = true
	eff.reg = reg
	eff.value = value
}

func (eff *effect) setHILO(hi, lo uint32) {
	eff.writeHI, eff.hi = true, hi
	eff.writeLO, eff.lo = true, lo
}

// Step executes the instruction at PC. On error nothing changes: not the
// registers, not PC/NPC, not memory. The error is a *Fault.
func (e *Emulator) Step() error {
	if !e.valid() {
		return ErrInvalidHandle
	}

	pc := e.regFile.PC

	// 1. Fetch
	if pc%4 != 0 {
		return e.fault(pc, nil, ErrInvalidAddress)
	}

	word, err := mem.ReadWord(e.memory, pc)
	if err != nil {
		return e.fault(pc, nil, err)
	}

	// 2. Decode
	inst := e.decoder.Decode(word)

	// 3. Execute
	eff, err := e.execute(inst)
	if err != nil {
		return e.fault(pc, inst, err)
	}

	// 4. Commit
	if eff.store != nil {
		if err := mem.WriteWord(e.memory, eff.store.Addr, eff.store.Value); err != nil {
			return e.fault(pc, inst, err)
		}
	}

	if eff.writeReg {
		e.regFile.WriteReg(eff.reg, eff.value)
	}
	if eff.writeHI {
		e.regFile.HI = eff.hi
	}
	if eff.writeLO {
		e.regFile.LO = eff.lo
	}
	e.regFile.R[0] = 0

	// 5. Advance
	e.regFile.SetPC(eff.npc)
	e.instructionCount++

	e.trace(pc, inst, &eff)

	return nil
}

func (e *Emulator) fault(pc uint32, inst *insts.Instruction, err error) error {
	flt := &Fault{PC: pc, Inst: inst, Err: err}

	ev := FaultEvent{Fault: flt, Count: e.instructionCount}
	for _, t := range e.tracers {
		t.Fault(ev)
	}
	e.debug.Fault(ev)

	return flt
}

func (e *Emulator) trace(pc uint32, inst *insts.Instruction, eff *effect) {
	ev := StepEvent{
		PC:       pc,
		Inst:     inst,
		NextPC:   e.regFile.PC,
		WroteReg: eff.writeReg && eff.reg != 0,
		Reg:      eff.reg,
		Value:    eff.value,
		Count:    e.instructionCount,
	}
	if eff.store != nil {
		ev.Stored = true
		ev.Store = *eff.store
	}

	for _, t := range e.tracers {
		t.Trace(ev)
	}
	e.debug.Trace(ev)
}

// execute dispatches a decoded instruction to its execution unit and returns
// the effect without applying it.
func (e *Emulator) execute(inst *insts.Instruction) (effect, error) {
	eff := effect{npc: e.regFile.NPC}

	var err error

	switch inst.Format {
	case insts.FormatR:
		err = e.executeR(inst, &eff)
	case insts.FormatRegImm:
		e.executeRegImm(inst, &eff)
	case insts.FormatI:
		err = e.executeI(inst, &eff)
	case insts.FormatJ:
		e.executeJ(inst, &eff)
	default:
		err = ErrInvalidInstruction
	}

	return eff, err
}

func (e *Emulator) executeR(inst *insts.Instruction, eff *effect) error {
	switch inst.Op {
	case insts.OpADD, insts.OpADDU, insts.OpSUB, insts.OpSUBU,
		insts.OpAND, insts.OpOR, insts.OpXOR, insts.OpSLT, insts.OpSLTU:
		return e.executeRegALU(inst, eff)
	case insts.OpSLL, insts.OpSRL, insts.OpSRA,
		insts.OpSLLV, insts.OpSRLV, insts.OpSRAV:
		return e.executeShift(inst, eff)
	case insts.OpMULT, insts.OpMULTU, insts.OpDIV, insts.OpDIVU:
		return e.executeMulDiv(inst, eff)
	case insts.OpMFHI:
		eff.setReg(inst.Rd, e.regFile.HI)
	case insts.OpMFLO:
		eff.setReg(inst.Rd, e.regFile.LO)
	case insts.OpMTHI:
		eff.writeHI, eff.hi = true, e.regFile.ReadReg(inst.Rs)
	case insts.OpMTLO:
		eff.writeLO, eff.lo = true, e.regFile.ReadReg(inst.Rs)
	case insts.OpJR:
		eff.npc = e.branchUnit.RegisterTarget(inst.Rs)
	case insts.OpJALR:
		eff.npc = e.branchUnit.RegisterTarget(inst.Rs)
		eff.setReg(inst.Rd, e.branchUnit.ReturnAddress())
	default:
		return ErrInvalidInstruction
	}

	return nil
}

func (e *Emulator) executeRegALU(inst *insts.Instruction, eff *effect) error {
	if inst.Shamt != 0 {
		return ErrInvalidInstruction
	}

	var (
		result uint32
		err    error
	)

	switch inst.Op {
	case insts.OpADD:
		result, err = e.alu.ADD(inst.Rs, inst.Rt)
	case insts.OpADDU:
		result = e.alu.ADDU(inst.Rs, inst.Rt)
	case insts.OpSUB:
		result, err = e.alu.SUB(inst.Rs, inst.Rt)
	case insts.OpSUBU:
		result = e.alu.SUBU(inst.Rs, inst.Rt)
	case insts.OpAND:
		result = e.alu.AND(inst.Rs, inst.Rt)
	case insts.OpOR:
		result = e.alu.OR(inst.Rs, inst.Rt)
	case insts.OpXOR:
		result = e.alu.XOR(inst.Rs, inst.Rt)
	case insts.OpSLT:
		result = e.alu.SLT(inst.Rs, inst.Rt)
	case insts.OpSLTU:
		result = e.alu.SLTU(inst.Rs, inst.Rt)
	}

	if err != nil {
		return err
	}

	eff.setReg(inst.Rd, result)

	return nil
}

func (e *Emulator) executeShift(inst *insts.Instruction, eff *effect) error {
	amount := uint32(inst.Shamt)
	if inst.Op == insts.OpSLLV || inst.Op == insts.OpSRLV || inst.Op == insts.OpSRAV {
		amount = e.alu.ShiftAmount(inst.Rs)
	}

	var (
		result uint32
		err    error
	)

	switch inst.Op {
	case insts.OpSLL, insts.OpSLLV:
		result, err = e.alu.SLL(inst.Rt, amount)
	case insts.OpSRL, insts.OpSRLV:
		result, err = e.alu.SRL(inst.Rt, amount)
	default:
		result, err = e.alu.SRA(inst.Rt, amount)
	}

	if err != nil {
		return err
	}

	eff.setReg(inst.Rd, result)

	return nil
}

func (e *Emulator) executeMulDiv(inst *insts.Instruction, eff *effect) error {
	var (
		hi, lo uint32
		err    error
	)

	switch inst.Op {
	case insts.OpMULT:
		hi, lo = e.alu.MULT(inst.Rs, inst.Rt)
	case insts.OpMULTU:
		hi, lo = e.alu.MULTU(inst.Rs, inst.Rt)
	case insts.OpDIV:
		hi, lo, err = e.alu.DIV(inst.Rs, inst.Rt)
	default:
		hi, lo, err = e.alu.DIVU(inst.Rs, inst.Rt)
	}

	if err != nil {
		return err
	}

	eff.setHILO(hi, lo)

	return nil
}

func (e *Emulator) executeRegImm(inst *insts.Instruction, eff *effect) {
	if !e.branchUnit.Taken(inst.Op, inst.Rs, 0) {
		return
	}

	if inst.Op == insts.OpBLTZAL || inst.Op == insts.OpBGEZAL {
		eff.setReg(31, e.branchUnit.ReturnAddress())
	}

	eff.npc = e.branchUnit.BranchTarget(inst.BranchOffset())
}

func (e *Emulator) executeI(inst *insts.Instruction, eff *effect) error {
	var (
		result uint32
		err    error
	)

	switch inst.Op {
	case insts.OpADDI:
		result, err = e.alu.ADDI(inst.Rs, inst.SignExtImm())
	case insts.OpADDIU:
		result = e.alu.ADDIU(inst.Rs, inst.SignExtImm())
	case insts.OpSLTI:
		result = e.alu.SLTI(inst.Rs, inst.SignExtImm())
	case insts.OpSLTIU:
		result = e.alu.SLTIU(inst.Rs, inst.SignExtImm())
	case insts.OpANDI:
		result = e.alu.ANDI(inst.Rs, inst.ZeroExtImm())
	case insts.OpORI:
		result = e.alu.ORI(inst.Rs, inst.ZeroExtImm())
	case insts.OpXORI:
		result = e.alu.XORI(inst.Rs, inst.ZeroExtImm())
	case insts.OpLUI:
		result = e.alu.LUI(inst.Imm)
	case insts.OpBEQ, insts.OpBNE, insts.OpBLEZ, insts.OpBGTZ:
		if e.branchUnit.Taken(inst.Op, inst.Rs, inst.Rt) {
			eff.npc = e.branchUnit.BranchTarget(inst.BranchOffset())
		}
		return nil
	case insts.OpLB, insts.OpLBU, insts.OpLH, insts.OpLHU,
		insts.OpLW, insts.OpLWL, insts.OpLWR:
		result, err = e.lsu.Load(inst.Op, inst.Rs, inst.Rt, inst.Imm)
	case insts.OpSB, insts.OpSH, insts.OpSW:
		store, err := e.lsu.Store(inst.Op, inst.Rs, inst.Rt, inst.Imm)
		if err != nil {
			return err
		}
		eff.store = &store
		return nil
	default:
		return ErrInvalidInstruction
	}

	if err != nil {
		return err
	}

	eff.setReg(inst.Rt, result)

	return nil
}

func (e *Emulator) executeJ(inst *insts.Instruction, eff *effect) {
	if inst.Op == insts.OpJAL {
		eff.setReg(31, e.branchUnit.ReturnAddress())
	}

	eff.npc = e.branchUnit.JumpTarget(inst.Target)
}
