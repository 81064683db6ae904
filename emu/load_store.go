package emu

import (
	"github.com/sarchlab/mipsim/insts"
	"github.com/sarchlab/mipsim/mem"
)

// LoadStoreUnit implements MIPS load and store operations. Every access
// touches the whole aligned word containing the effective address; sub-word
// values are extracted from or injected into that big-endian word.
type LoadStoreUnit struct {
	regFile *RegFile
	memory  mem.Memory

	// unalignedPartialWord lifts the alignment check for LWL and LWR.
	unalignedPartialWord bool
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and memory.
func NewLoadStoreUnit(regFile *RegFile, memory mem.Memory) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		memory:  memory,
	}
}

// PendingStore is a word write that has been computed but not yet issued.
type PendingStore struct {
	Addr  uint32 // aligned word address
	Value uint32
}

// EffectiveAddress returns rs + sign_extend(imm).
func (lsu *LoadStoreUnit) EffectiveAddress(rs uint8, imm uint16) uint32 {
	return lsu.regFile.ReadReg(rs) + uint32(int32(int16(imm)))
}

func (lsu *LoadStoreUnit) alignment(op insts.Op) uint32 {
	switch op {
	case insts.OpLH, insts.OpLHU, insts.OpSH:
		return 2
	case insts.OpLW, insts.OpSW:
		return 4
	case insts.OpLWL, insts.OpLWR:
		if lsu.unalignedPartialWord {
			return 1
		}
		return 4
	default:
		return 1
	}
}

func (lsu *LoadStoreUnit) readWord(op insts.Op, addr uint32) (uint32, error) {
	if addr%lsu.alignment(op) != 0 {
		return 0, ErrInvalidAddress
	}
	return mem.ReadWord(lsu.memory, addr&^3)
}

// byteShift is the right shift that moves byte lane addr%4 of a big-endian
// word into the low byte.
func byteShift(addr uint32) uint32 {
	return 24 - 8*(addr&3)
}

// Load returns the value a load of kind op at rs+imm places in rt. The
// current rt value only matters to LWL and LWR.
func (lsu *LoadStoreUnit) Load(op insts.Op, rs, rt uint8, imm uint16) (uint32, error) {
	addr := lsu.EffectiveAddress(rs, imm)

	word, err := lsu.readWord(op, addr)
	if err != nil {
		return 0, err
	}

	shift := byteShift(addr)

	switch op {
	case insts.OpLB:
		return uint32(int32(int8(word >> shift))), nil
	case insts.OpLBU:
		return uint32(uint8(word >> shift)), nil
	case insts.OpLH:
		return uint32(int32(int16(word >> (shift - 8)))), nil
	case insts.OpLHU:
		return uint32(uint16(word >> (shift - 8))), nil
	case insts.OpLW:
		return word, nil
	case insts.OpLWL:
		return mergeLeft(word, lsu.regFile.ReadReg(rt), addr&3), nil
	case insts.OpLWR:
		return mergeRight(word, lsu.regFile.ReadReg(rt), addr&3), nil
	default:
		return 0, ErrInvalidInstruction
	}
}

// mergeLeft fills rt from its most significant byte with the memory bytes
// starting at lane.
func mergeLeft(word, rt, lane uint32) uint32 {
	keep := uint32(1)<<(8*lane) - 1
	return word<<(8*lane) | rt&keep
}

// mergeRight fills rt from its least significant byte with the memory bytes
// ending at lane.
func mergeRight(word, rt, lane uint32) uint32 {
	shift := 8 * (3 - lane)
	keep := ^(uint32(0xFFFFFFFF) >> shift)
	return word>>shift | rt&keep
}

// Store computes the word that a store of kind op at rs+imm writes. Memory
// is read but not modified; the caller issues the write.
func (lsu *LoadStoreUnit) Store(op insts.Op, rs, rt uint8, imm uint16) (PendingStore, error) {
	addr := lsu.EffectiveAddress(rs, imm)
	value := lsu.regFile.ReadReg(rt)

	word, err := lsu.readWord(op, addr)
	if err != nil {
		return PendingStore{}, err
	}

	shift := byteShift(addr)

	switch op {
	case insts.OpSB:
		word = word&^(0xFF<<shift) | (value&0xFF)<<shift
	case insts.OpSH:
		word = word&^(0xFFFF<<(shift-8)) | (value&0xFFFF)<<(shift-8)
	case insts.OpSW:
		word = value
	default:
		return PendingStore{}, ErrInvalidInstruction
	}

	return PendingStore{Addr: addr &^ 3, Value: word}, nil
}
