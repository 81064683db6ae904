// Package insts provides MIPS-I instruction definitions and decoding.
//
// This package implements decoding of 32-bit MIPS machine words into
// structured instruction representations. It supports:
//   - Register-type (opcode 0): ALU, shift, multiply/divide, HI/LO moves, JR, JALR
//   - Register-immediate branches (opcode 1): BLTZ, BGEZ, BLTZAL, BGEZAL
//   - Immediate-type: ALU immediates, LUI, branches, loads and stores
//   - Jump-type: J, JAL
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x00853020) // ADD $6, $4, $5
//	fmt.Printf("Op: %v, Rd: %d, Rs: %d, Rt: %d\n", inst.Op, inst.Rd, inst.Rs, inst.Rt)
//
// The Encode* helpers build instruction words from fields and are the inverse
// of the decoder for in-range field values.
package insts
