package emu

// ALU implements MIPS arithmetic, logic, shift, multiply and divide
// operations. Operands are read from the register file; results are returned
// to the caller instead of being written back, so a faulting instruction
// leaves no trace.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// addOverflows reports signed overflow of a + b = result.
func addOverflows(a, b, result uint32) bool {
	return (a^result)&(b^result)&0x80000000 != 0
}

// subOverflows reports signed overflow of a - b = result.
func subOverflows(a, b, result uint32) bool {
	return (a^b)&(a^result)&0x80000000 != 0
}

// ADD computes rs + rt, trapping on signed overflow.
func (a *ALU) ADD(rs, rt uint8) (uint32, error) {
	return a.add(a.regFile.ReadReg(rs), a.regFile.ReadReg(rt))
}

// ADDU computes rs + rt modulo 2^32.
func (a *ALU) ADDU(rs, rt uint8) uint32 {
	return a.regFile.ReadReg(rs) + a.regFile.ReadReg(rt)
}

// SUB computes rs - rt, trapping on signed overflow.
func (a *ALU) SUB(rs, rt uint8) (uint32, error) {
	op1 := a.regFile.ReadReg(rs)
	op2 := a.regFile.ReadReg(rt)
	result := op1 - op2

	if subOverflows(op1, op2, result) {
		return 0, ErrArithmeticOverflow
	}

	return result, nil
}

// SUBU computes rs - rt modulo 2^32.
func (a *ALU) SUBU(rs, rt uint8) uint32 {
	return a.regFile.ReadReg(rs) - a.regFile.ReadReg(rt)
}

// AND computes rs & rt.
func (a *ALU) AND(rs, rt uint8) uint32 {
	return a.regFile.ReadReg(rs) & a.regFile.ReadReg(rt)
}

// OR computes rs | rt.
func (a *ALU) OR(rs, rt uint8) uint32 {
	return a.regFile.ReadReg(rs) | a.regFile.ReadReg(rt)
}

// XOR computes rs ^ rt.
func (a *ALU) XOR(rs, rt uint8) uint32 {
	return a.regFile.ReadReg(rs) ^ a.regFile.ReadReg(rt)
}

// SLT yields 1 if rs < rt as signed values.
func (a *ALU) SLT(rs, rt uint8) uint32 {
	return boolToWord(int32(a.regFile.ReadReg(rs)) < int32(a.regFile.ReadReg(rt)))
}

// SLTU yields 1 if rs < rt as unsigned values.
func (a *ALU) SLTU(rs, rt uint8) uint32 {
	return boolToWord(a.regFile.ReadReg(rs) < a.regFile.ReadReg(rt))
}

// SLL shifts rt left by amount.
func (a *ALU) SLL(rt uint8, amount uint32) (uint32, error) {
	if amount >= 32 {
		return 0, ErrInvalidInstruction
	}
	return a.regFile.ReadReg(rt) << amount, nil
}

// SRL shifts rt right by amount, filling with zeros.
func (a *ALU) SRL(rt uint8, amount uint32) (uint32, error) {
	if amount >= 32 {
		return 0, ErrInvalidInstruction
	}
	return a.regFile.ReadReg(rt) >> amount, nil
}

// SRA shifts rt right by amount, replicating the sign bit.
func (a *ALU) SRA(rt uint8, amount uint32) (uint32, error) {
	if amount >= 32 {
		return 0, ErrInvalidInstruction
	}
	return uint32(int32(a.regFile.ReadReg(rt)) >> amount), nil
}

// ShiftAmount returns the low five bits of rs, as used by the variable
// shifts.
func (a *ALU) ShiftAmount(rs uint8) uint32 {
	return a.regFile.ReadReg(rs) & 31
}

// MULT returns the signed 64-bit product of rs and rt split into HI and LO.
func (a *ALU) MULT(rs, rt uint8) (hi, lo uint32) {
	product := int64(int32(a.regFile.ReadReg(rs))) * int64(int32(a.regFile.ReadReg(rt)))
	return uint32(uint64(product) >> 32), uint32(product)
}

// MULTU returns the unsigned 64-bit product of rs and rt split into HI and LO.
func (a *ALU) MULTU(rs, rt uint8) (hi, lo uint32) {
	product := uint64(a.regFile.ReadReg(rs)) * uint64(a.regFile.ReadReg(rt))
	return uint32(product >> 32), uint32(product)
}

// DIV returns the signed remainder in hi and quotient in lo.
// The most negative dividend divided by -1 wraps to itself.
func (a *ALU) DIV(rs, rt uint8) (hi, lo uint32, err error) {
	dividend := int32(a.regFile.ReadReg(rs))
	divisor := int32(a.regFile.ReadReg(rt))

	if divisor == 0 {
		return 0, 0, ErrInvalidInstruction
	}

	return uint32(dividend % divisor), uint32(dividend / divisor), nil
}

// DIVU returns the unsigned remainder in hi and quotient in lo.
func (a *ALU) DIVU(rs, rt uint8) (hi, lo uint32, err error) {
	dividend := a.regFile.ReadReg(rs)
	divisor := a.regFile.ReadReg(rt)

	if divisor == 0 {
		return 0, 0, ErrInvalidInstruction
	}

	return dividend % divisor, dividend / divisor, nil
}

// ADDI computes rs + imm, trapping on signed overflow.
func (a *ALU) ADDI(rs uint8, imm uint32) (uint32, error) {
	return a.add(a.regFile.ReadReg(rs), imm)
}

// ADDIU computes rs + imm modulo 2^32.
func (a *ALU) ADDIU(rs uint8, imm uint32) uint32 {
	return a.regFile.ReadReg(rs) + imm
}

// SLTI yields 1 if rs < imm as signed values.
func (a *ALU) SLTI(rs uint8, imm uint32) uint32 {
	return boolToWord(int32(a.regFile.ReadReg(rs)) < int32(imm))
}

// SLTIU yields 1 if rs < imm as unsigned values. The immediate has already
// been sign-extended by the caller.
func (a *ALU) SLTIU(rs uint8, imm uint32) uint32 {
	return boolToWord(a.regFile.ReadReg(rs) < imm)
}

// ANDI computes rs & imm.
func (a *ALU) ANDI(rs uint8, imm uint32) uint32 {
	return a.regFile.ReadReg(rs) & imm
}

// ORI computes rs | imm.
func (a *ALU) ORI(rs uint8, imm uint32) uint32 {
	return a.regFile.ReadReg(rs) | imm
}

// XORI computes rs ^ imm.
func (a *ALU) XORI(rs uint8, imm uint32) uint32 {
	return a.regFile.ReadReg(rs) ^ imm
}

// LUI places imm in the upper half of the word.
func (a *ALU) LUI(imm uint16) uint32 {
	return uint32(imm) << 16
}

func (a *ALU) add(op1, op2 uint32) (uint32, error) {
	result := op1 + op2
	if addOverflows(op1, op2, result) {
		return 0, ErrArithmeticOverflow
	}
	return result, nil
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
