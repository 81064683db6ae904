package emu

import (
	"errors"

	"github.com/sarchlab/mipsim/insts"
	"github.com/sarchlab/mipsim/translate"
)

var f = translate.From

// Status errors. Exactly one is reported per failed call.
var (
	// ErrInvalidHandle is returned by every method of a nil or closed Emulator.
	ErrInvalidHandle = errors.New(f("invalid handle"))
	// ErrInvalidArgument is returned for out-of-range accessor arguments.
	ErrInvalidArgument = errors.New(f("invalid argument"))
	// ErrInvalidInstruction covers undecodable words, disallowed shift
	// amounts and division by zero.
	ErrInvalidInstruction = errors.New(f("invalid instruction"))
	// ErrInvalidAddress is returned for misaligned memory accesses.
	ErrInvalidAddress = errors.New(f("invalid address"))
	// ErrArithmeticOverflow is returned by ADD, ADDI and SUB on signed
	// overflow.
	ErrArithmeticOverflow = errors.New(f("arithmetic overflow"))
)

// Fault describes a step that did not commit. Err is one of the status
// errors above or the unchanged error of the memory device.
type Fault struct {
	PC   uint32
	Inst *insts.Instruction // nil when the fetch itself failed
	Err  error
}

func (flt *Fault) Error() string {
	if flt.Inst == nil {
		return f("pc 0x%08x: %v", flt.PC, flt.Err)
	}
	return f("pc 0x%08x '%v': %v", flt.PC, flt.Inst, flt.Err)
}

func (flt *Fault) Unwrap() error {
	return flt.Err
}
