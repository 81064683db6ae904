package emu

import "github.com/sarchlab/mipsim/insts"

// BranchUnit evaluates branch conditions and computes control-flow targets.
// Targets are relative to the register file's NPC at the start of the step;
// there is no delay slot.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// Taken reports whether a conditional branch is taken. All comparisons
// against zero are signed.
func (b *BranchUnit) Taken(op insts.Op, rs, rt uint8) bool {
	v := int32(b.regFile.ReadReg(rs))

	switch op {
	case insts.OpBEQ:
		return b.regFile.ReadReg(rs) == b.regFile.ReadReg(rt)
	case insts.OpBNE:
		return b.regFile.ReadReg(rs) != b.regFile.ReadReg(rt)
	case insts.OpBLEZ:
		return v <= 0
	case insts.OpBGTZ:
		return v > 0
	case insts.OpBLTZ, insts.OpBLTZAL:
		return v < 0
	case insts.OpBGEZ, insts.OpBGEZAL:
		return v >= 0
	default:
		return false
	}
}

// BranchTarget returns NPC + offset, where offset is already in bytes.
func (b *BranchUnit) BranchTarget(offset int32) uint32 {
	return b.regFile.NPC + uint32(offset)
}

// JumpTarget returns the region-relative target of J and JAL: the upper
// four bits of PC joined with target*4.
func (b *BranchUnit) JumpTarget(target uint32) uint32 {
	return b.regFile.PC&0xF0000000 | (target&0x03FFFFFF)<<2
}

// RegisterTarget returns the target of JR and JALR.
func (b *BranchUnit) RegisterTarget(rs uint8) uint32 {
	return b.regFile.ReadReg(rs)
}

// ReturnAddress returns the link value written by JAL, JALR and the
// linking branches.
func (b *BranchUnit) ReturnAddress() uint32 {
	return b.regFile.NPC
}
