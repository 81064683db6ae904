package harness

import (
	"errors"
	"fmt"

	"github.com/sarchlab/mipsim/asm"
	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/mem"
)

// Factory returns a fresh emulator and the memory it is bound to.
type Factory func() (*emu.Emulator, mem.Memory)

// machine is what a self-test case runs against.
type machine struct {
	e *emu.Emulator
	m mem.Memory
}

// load assembles source, installs it and points PC at it.
func (mc *machine) load(source string) error {
	prog, err := asm.Assemble(source)
	if err != nil {
		return err
	}
	if err := prog.Install(mc.m); err != nil {
		return err
	}
	return mc.e.SetPC(prog.Origin)
}

func (mc *machine) set(regs map[uint]uint32) error {
	for r, v := range regs {
		if err := mc.e.SetRegister(r, v); err != nil {
			return err
		}
	}
	return nil
}

func (mc *machine) reg(i uint) uint32 {
	v, _ := mc.e.Register(i)
	return v
}

// expectReg is the common shape of a self-test: set registers, run one
// instruction, compare one register.
func (mc *machine) expectReg(source string, regs map[uint]uint32, target uint, want uint32) error {
	if err := mc.load(source); err != nil {
		return err
	}
	if err := mc.set(regs); err != nil {
		return err
	}
	if err := mc.e.Step(); err != nil {
		return err
	}
	if got := mc.reg(target); got != want {
		return fmt.Errorf("$%d = 0x%08x, want 0x%08x", target, got, want)
	}
	return nil
}

// expectFault runs one instruction that must fail with want and leave PC,
// NPC and the destination register alone.
func (mc *machine) expectFault(source string, regs map[uint]uint32, target uint, want error) error {
	if err := mc.load(source); err != nil {
		return err
	}
	if err := mc.set(regs); err != nil {
		return err
	}

	before := mc.e.RegFile()

	err := mc.e.Step()
	if !errors.Is(err, want) {
		return fmt.Errorf("got %v, want %v", err, want)
	}

	after := mc.e.RegFile()
	if after.PC != before.PC || after.NPC != before.NPC {
		return fmt.Errorf("pc moved from 0x%08x to 0x%08x", before.PC, after.PC)
	}
	if after.R[target] != before.R[target] {
		return fmt.Errorf("$%d changed to 0x%08x", target, after.R[target])
	}
	if after.HI != before.HI || after.LO != before.LO {
		return fmt.Errorf("hi/lo changed")
	}
	return nil
}

type selfTest struct {
	name string
	run  func(mc *machine) error
}

var selfTests = []selfTest{
	{"add", func(mc *machine) error {
		return mc.expectReg("add $6, $4, $5", map[uint]uint32{4: 40, 5: 50}, 6, 90)
	}},
	{"add", func(mc *machine) error {
		return mc.expectReg("add $6, $4, $5",
			map[uint]uint32{4: uint32(0xFFFFFFD8), 5: uint32(0xFFFFFFCE)}, 6, 0xFFFFFFA6)
	}},
	{"add", func(mc *machine) error {
		return mc.expectFault("add $6, $4, $5",
			map[uint]uint32{4: 0x7FFFFFFF, 5: 0x7FFFFFFF, 6: 0x1234}, 6, emu.ErrArithmeticOverflow)
	}},
	{"addi", func(mc *machine) error {
		return mc.expectFault("addi $6, $4, 1", map[uint]uint32{4: 0x7FFFFFFF}, 6, emu.ErrArithmeticOverflow)
	}},
	{"addu", func(mc *machine) error {
		return mc.expectReg("addu $6, $4, $5", map[uint]uint32{4: 0x7FFFFFFF, 5: 0x7FFFFFFF}, 6, 0xFFFFFFFE)
	}},
	{"addiu", func(mc *machine) error {
		return mc.expectReg("addiu $6, $4, -1", map[uint]uint32{4: 0}, 6, 0xFFFFFFFF)
	}},
	{"sub", func(mc *machine) error {
		return mc.expectFault("sub $6, $4, $5", map[uint]uint32{4: 0x80000000, 5: 1}, 6, emu.ErrArithmeticOverflow)
	}},
	{"r0", func(mc *machine) error {
		return mc.expectReg("addiu $0, $0, 5", nil, 0, 0)
	}},
	{"sltu", func(mc *machine) error {
		return mc.expectReg("sltu $3, $1, $2", map[uint]uint32{1: 1, 2: 0xFFFFFFFF}, 3, 1)
	}},
	{"sra", func(mc *machine) error {
		return mc.expectReg("sra $3, $2, 4", map[uint]uint32{2: 0x80000000}, 3, 0xF8000000)
	}},
	{"lui", func(mc *machine) error {
		return mc.expectReg("lui $3, 0xabcd", nil, 3, 0xABCD0000)
	}},
	{"sw", func(mc *machine) error {
		if err := mc.expectReg("sw $5, 0x100($0)\nlw $6, 0x100($0)", map[uint]uint32{5: 0xCAFEF00D}, 6, 0); err != nil {
			return err
		}
		if err := mc.e.Step(); err != nil {
			return err
		}
		if got := mc.reg(6); got != 0xCAFEF00D {
			return fmt.Errorf("loaded 0x%08x", got)
		}
		return nil
	}},
	{"lw", func(mc *machine) error {
		return mc.expectFault("lw $6, 0x102($0)", nil, 6, emu.ErrInvalidAddress)
	}},
	{"sh", func(mc *machine) error {
		return mc.expectFault("sh $6, 0x101($0)", nil, 6, emu.ErrInvalidAddress)
	}},
	{"lb", func(mc *machine) error {
		if err := mem.WriteWord(mc.m, 0x100, 0x00F00000); err != nil {
			return err
		}
		return mc.expectReg("lb $6, 0x101($0)", nil, 6, 0xFFFFFFF0)
	}},
	{"div", func(mc *machine) error {
		if err := mc.e.SetHI(1); err != nil {
			return err
		}
		if err := mc.e.SetLO(2); err != nil {
			return err
		}
		return mc.expectFault("div $4, $5", map[uint]uint32{4: 10}, 0, emu.ErrInvalidInstruction)
	}},
	{"divu", func(mc *machine) error {
		if err := mc.load("divu $4, $5\nmfhi $6"); err != nil {
			return err
		}
		if err := mc.set(map[uint]uint32{4: 17, 5: 5}); err != nil {
			return err
		}
		if err := mc.e.Step(); err != nil {
			return err
		}
		if err := mc.e.Step(); err != nil {
			return err
		}
		lo, _ := mc.e.LO()
		if lo != 3 || mc.reg(6) != 2 {
			return fmt.Errorf("17/5 gave lo=%d hi=%d", lo, mc.reg(6))
		}
		return nil
	}},
	{"undefined", func(mc *machine) error {
		return mc.expectFault(".word 0xfc000000", map[uint]uint32{1: 7}, 1, emu.ErrInvalidInstruction)
	}},
	{"beq", func(mc *machine) error {
		if err := mc.load(".org 0x40\nbeq $1, $2, 3"); err != nil {
			return err
		}
		if err := mc.set(map[uint]uint32{1: 9, 2: 9}); err != nil {
			return err
		}
		if err := mc.e.Step(); err != nil {
			return err
		}
		if pc, _ := mc.e.PC(); pc != 0x44+12 {
			return fmt.Errorf("pc 0x%08x", pc)
		}
		return nil
	}},
	{"bne", func(mc *machine) error {
		if err := mc.load(".org 0x40\nbne $1, $2, 3"); err != nil {
			return err
		}
		if err := mc.set(map[uint]uint32{1: 9, 2: 9}); err != nil {
			return err
		}
		if err := mc.e.Step(); err != nil {
			return err
		}
		if pc, _ := mc.e.PC(); pc != 0x44 {
			return fmt.Errorf("pc 0x%08x", pc)
		}
		return nil
	}},
	{"jal", func(mc *machine) error {
		if err := mc.expectReg(".org 0x40\njal 0x80", nil, 31, 0x44); err != nil {
			return err
		}
		if pc, _ := mc.e.PC(); pc != 0x80 {
			return fmt.Errorf("pc 0x%08x", pc)
		}
		return nil
	}},
	{"reset", func(mc *machine) error {
		if err := mc.set(map[uint]uint32{1: 1, 31: 31}); err != nil {
			return err
		}
		if err := mc.e.SetPC(0x40); err != nil {
			return err
		}
		if err := mc.e.Reset(); err != nil {
			return err
		}
		rf := mc.e.RegFile()
		if rf != (emu.RegFile{NPC: 4}) {
			return fmt.Errorf("state not cleared")
		}
		return nil
	}},
	{"program", func(mc *machine) error {
		err := mc.load(`
			addiu $t0, $zero, 10
			addu  $v0, $zero, $zero
		loop:
			addu  $v0, $v0, $t0
			addiu $t0, $t0, -1
			bgtz  $t0, loop
		done:
			j     done`)
		if err != nil {
			return err
		}
		res := (&Runner{Emulator: mc.e, MaxSteps: 1000}).Run()
		if res.Err != nil || !res.Halted {
			return fmt.Errorf("run ended with %v", res.Err)
		}
		if got := mc.reg(2); got != 55 {
			return fmt.Errorf("sum = %d", got)
		}
		return nil
	}},
}

// SelfTest runs the built-in vectors, each against a fresh machine from
// factory, and records them in suite. It returns the number of failures.
func SelfTest(suite *Suite, factory Factory) int {
	failures := 0

	for _, st := range selfTests {
		id := suite.BeginTest(st.name)

		e, m := factory()
		err := st.run(&machine{e: e, m: m})
		_ = e.Close()

		msg := ""
		if err != nil {
			msg = err.Error()
			failures++
		}
		_ = suite.EndTest(id, err == nil, msg)
	}

	return failures
}
