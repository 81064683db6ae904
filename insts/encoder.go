package insts

// Field encoders. Each masks its value to the field width before shifting
// it into place, so an out-of-range value cannot spill into a neighbour.

// FieldOpcode places v in bits [31:26].
func FieldOpcode(v uint32) uint32 { return (v & 0x3F) << 26 }

// FieldRs places v in bits [25:21].
func FieldRs(v uint32) uint32 { return (v & 0x1F) << 21 }

// FieldRt places v in bits [20:16].
func FieldRt(v uint32) uint32 { return (v & 0x1F) << 16 }

// FieldRd places v in bits [15:11].
func FieldRd(v uint32) uint32 { return (v & 0x1F) << 11 }

// FieldShamt places v in bits [10:6].
func FieldShamt(v uint32) uint32 { return (v & 0x1F) << 6 }

// FieldFunct places v in bits [5:0].
func FieldFunct(v uint32) uint32 { return v & 0x3F }

// FieldBranchFunc places v in bits [20:16].
func FieldBranchFunc(v uint32) uint32 { return (v & 0x1F) << 16 }

// FieldImm places v in bits [15:0].
func FieldImm(v uint32) uint32 { return v & 0xFFFF }

// FieldTarget places v in bits [25:0].
func FieldTarget(v uint32) uint32 { return v & 0x03FFFFFF }

// EncodeR encodes a register-type operation.
func EncodeR(op Op, rd, rs, rt, shamt uint8) uint32 {
	return FieldOpcode(OpcodeSpecial) |
		FieldRs(uint32(rs)) |
		FieldRt(uint32(rt)) |
		FieldRd(uint32(rd)) |
		FieldShamt(uint32(shamt)) |
		FieldFunct(uint32(op.Code()))
}

// EncodeRegImm encodes an opcode 1 branch.
func EncodeRegImm(op Op, rs uint8, offset int16) uint32 {
	return FieldOpcode(OpcodeRegImm) |
		FieldRs(uint32(rs)) |
		FieldBranchFunc(uint32(op.Code())) |
		FieldImm(uint32(uint16(offset)))
}

// EncodeI encodes an immediate-type operation. For loads and stores rs is the
// base register; for branches imm is the word offset.
func EncodeI(op Op, rt, rs uint8, imm uint16) uint32 {
	return FieldOpcode(uint32(op.Code())) |
		FieldRs(uint32(rs)) |
		FieldRt(uint32(rt)) |
		FieldImm(uint32(imm))
}

// EncodeJ encodes a jump with a 26-bit word target.
func EncodeJ(op Op, target uint32) uint32 {
	return FieldOpcode(uint32(op.Code())) | FieldTarget(target)
}

// Encode re-encodes a decoded instruction from its fields. Unknown
// instructions are returned as their raw word.
func Encode(inst *Instruction) uint32 {
	switch inst.Op.Format() {
	case FormatR:
		return EncodeR(inst.Op, inst.Rd, inst.Rs, inst.Rt, inst.Shamt)
	case FormatRegImm:
		return EncodeRegImm(inst.Op, inst.Rs, int16(inst.Imm))
	case FormatI:
		return EncodeI(inst.Op, inst.Rt, inst.Rs, inst.Imm)
	case FormatJ:
		return EncodeJ(inst.Op, inst.Target)
	}
	return inst.Word
}
