package asm

import (
	"errors"

	"github.com/sarchlab/mipsim/translate"
)

var f = translate.From

var (
	ErrOpcodeInvalid    = errors.New(f("opcode invalid"))
	ErrOperandCount     = errors.New(f("wrong number of operands"))
	ErrRegisterInvalid  = errors.New(f("register invalid"))
	ErrMemoryOperand    = errors.New(f("memory operand must be offset(register)"))
	ErrLabelDuplicate   = errors.New(f("label duplicated"))
	ErrLabelInvalid     = errors.New(f("label invalid"))
	ErrDirectiveInvalid = errors.New(f("directive invalid"))
	ErrOrgBackwards     = errors.New(f(".org moves backwards"))
	ErrImmediateRange   = errors.New(f("immediate out of range"))
	ErrShiftRange       = errors.New(f("shift amount out of range"))
	ErrBranchRange      = errors.New(f("branch target out of range"))
	ErrTargetAlignment  = errors.New(f("target not word aligned"))
	ErrJumpRegion       = errors.New(f("jump target outside the current 256MB region"))
)

// ErrParseExpression reports an operand that does not evaluate to an
// integer.
type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("'%v' is not a valid expression", string(err))
}

// SyntaxError locates an assembly error in the source.
type SyntaxError struct {
	LineNo int
	Line   string
	Err    error
}

func (err *SyntaxError) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *SyntaxError) Unwrap() error {
	return err.Err
}
