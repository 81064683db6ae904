// Package emu provides functional MIPS-I emulation.
package emu

// RegFile represents the MIPS architectural state.
type RegFile struct {
	// R holds the general-purpose registers. R[0] always reads as 0.
	R [32]uint32

	// PC is the address of the instruction being executed.
	PC uint32

	// NPC is the address that becomes PC when the current step commits.
	// Branches and jumps redirect NPC, never PC.
	NPC uint32

	// HI and LO hold multiply/divide results.
	HI uint32
	LO uint32
}

// ReadReg reads a register value. Register 0 and out-of-range indices read 0.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	if reg == 0 || reg >= 32 {
		return 0
	}
	return r.R[reg]
}

// WriteReg writes a value to a register. Writes to register 0 and
// out-of-range indices are discarded.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	if reg == 0 || reg >= 32 {
		return
	}
	r.R[reg] = value
}

// SetPC moves execution to pc and resets NPC to the following word.
func (r *RegFile) SetPC(pc uint32) {
	r.PC = pc
	r.NPC = pc + 4
}

// Reset zeroes every register, HI, LO and PC.
func (r *RegFile) Reset() {
	*r = RegFile{}
	r.SetPC(0)
}
