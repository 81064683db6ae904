package insts

import "fmt"

// Field accessors. Each masks a fixed bit range of the instruction word.

// Opcode returns bits [31:26].
func Opcode(word uint32) uint8 { return uint8((word >> 26) & 0x3F) }

// Rs returns bits [25:21].
func Rs(word uint32) uint8 { return uint8((word >> 21) & 0x1F) }

// Rt returns bits [20:16].
func Rt(word uint32) uint8 { return uint8((word >> 16) & 0x1F) }

// Rd returns bits [15:11].
func Rd(word uint32) uint8 { return uint8((word >> 11) & 0x1F) }

// Shamt returns bits [10:6].
func Shamt(word uint32) uint8 { return uint8((word >> 6) & 0x1F) }

// Funct returns bits [5:0].
func Funct(word uint32) uint8 { return uint8(word & 0x3F) }

// BranchFunc returns the opcode 1 sub-function, which shares bits [20:16]
// with rt.
func BranchFunc(word uint32) uint8 { return uint8((word >> 16) & 0x1F) }

// Imm returns the 16-bit immediate or offset in bits [15:0].
func Imm(word uint32) uint16 { return uint16(word & 0xFFFF) }

// Target returns the 26-bit jump target in bits [25:0].
func Target(word uint32) uint32 { return word & 0x03FFFFFF }

// Instruction represents a decoded MIPS instruction.
type Instruction struct {
	Word   uint32 // Raw instruction word
	Op     Op     // Operation
	Format Format // Encoding format

	Rs    uint8 // First source register
	Rt    uint8 // Second source / immediate destination register
	Rd    uint8 // Register-type destination register
	Shamt uint8 // Shift amount
	Funct uint8 // Function code (opcode 0)

	Imm    uint16 // Immediate or branch offset
	Target uint32 // Jump target (26 bits)
}

// SignExtImm returns the immediate sign-extended to 32 bits.
func (inst *Instruction) SignExtImm() uint32 {
	return uint32(int32(int16(inst.Imm)))
}

// ZeroExtImm returns the immediate zero-extended to 32 bits.
func (inst *Instruction) ZeroExtImm() uint32 {
	return uint32(inst.Imm)
}

// BranchOffset returns the signed byte displacement of a branch:
// sign_extend(imm) << 2.
func (inst *Instruction) BranchOffset() int32 {
	return int32(int16(inst.Imm)) << 2
}

// String renders the instruction in assembler syntax.
func (inst *Instruction) String() string {
	name := inst.Op.String()

	switch inst.Op.Syntax() {
	case SyntaxRdRsRt:
		return fmt.Sprintf("%s $%d, $%d, $%d", name, inst.Rd, inst.Rs, inst.Rt)
	case SyntaxRdRtSa:
		return fmt.Sprintf("%s $%d, $%d, %d", name, inst.Rd, inst.Rt, inst.Shamt)
	case SyntaxRdRtRs:
		return fmt.Sprintf("%s $%d, $%d, $%d", name, inst.Rd, inst.Rt, inst.Rs)
	case SyntaxRsRt:
		return fmt.Sprintf("%s $%d, $%d", name, inst.Rs, inst.Rt)
	case SyntaxRd:
		return fmt.Sprintf("%s $%d", name, inst.Rd)
	case SyntaxRs:
		return fmt.Sprintf("%s $%d", name, inst.Rs)
	case SyntaxRdRs:
		return fmt.Sprintf("%s $%d, $%d", name, inst.Rd, inst.Rs)
	case SyntaxRsOffset:
		return fmt.Sprintf("%s $%d, %d", name, inst.Rs, int16(inst.Imm))
	case SyntaxRsRtOffset:
		return fmt.Sprintf("%s $%d, $%d, %d", name, inst.Rs, inst.Rt, int16(inst.Imm))
	case SyntaxRtRsImm:
		if inst.Op == OpANDI || inst.Op == OpORI || inst.Op == OpXORI {
			return fmt.Sprintf("%s $%d, $%d, 0x%x", name, inst.Rt, inst.Rs, inst.Imm)
		}
		return fmt.Sprintf("%s $%d, $%d, %d", name, inst.Rt, inst.Rs, int16(inst.Imm))
	case SyntaxRtImm:
		return fmt.Sprintf("%s $%d, 0x%x", name, inst.Rt, inst.Imm)
	case SyntaxRtMem:
		return fmt.Sprintf("%s $%d, %d($%d)", name, inst.Rt, int16(inst.Imm), inst.Rs)
	case SyntaxTarget:
		return fmt.Sprintf("%s 0x%07x", name, inst.Target<<2)
	}

	return fmt.Sprintf(".word 0x%08x", inst.Word)
}

// Decoder decodes MIPS machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new MIPS instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit MIPS instruction word. Every field is always
// extracted; Op is OpUnknown when the opcode/funct pair has no mapping.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{
		Word:   word,
		Rs:     Rs(word),
		Rt:     Rt(word),
		Rd:     Rd(word),
		Shamt:  Shamt(word),
		Funct:  Funct(word),
		Imm:    Imm(word),
		Target: Target(word),
	}

	switch opcode := Opcode(word); opcode {
	case OpcodeSpecial:
		inst.Op = specialOps[inst.Funct]
	case OpcodeRegImm:
		inst.Op = regImmOps[BranchFunc(word)]
	default:
		inst.Op = primaryOps[opcode]
	}

	inst.Format = inst.Op.Format()

	return inst
}
