package insts

import "strings"

// Op represents a MIPS-I operation, one variant per mnemonic.
type Op uint8

// MIPS operations.
const (
	OpUnknown Op = iota

	// Register-type, opcode 0, selected by funct.
	OpADD
	OpADDU
	OpSUB
	OpSUBU
	OpAND
	OpOR
	OpXOR
	OpSLT
	OpSLTU
	OpSLL
	OpSRL
	OpSRA
	OpSLLV
	OpSRLV
	OpSRAV
	OpMULT
	OpMULTU
	OpDIV
	OpDIVU
	OpMFHI
	OpMFLO
	OpMTHI
	OpMTLO
	OpJR
	OpJALR

	// Register-immediate branches, opcode 1, selected by bits [20:16].
	OpBLTZ
	OpBGEZ
	OpBLTZAL
	OpBGEZAL

	// Immediate-type, selected by opcode.
	OpADDI
	OpADDIU
	OpSLTI
	OpSLTIU
	OpANDI
	OpORI
	OpXORI
	OpLUI
	OpBEQ
	OpBNE
	OpBLEZ
	OpBGTZ
	OpLB
	OpLBU
	OpLH
	OpLHU
	OpLW
	OpLWL
	OpLWR
	OpSB
	OpSH
	OpSW

	// Jump-type.
	OpJ
	OpJAL

	numOps
)

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR              // opcode 0, funct selects the operation
	FormatRegImm         // opcode 1, rt field selects the branch
	FormatI              // 16-bit immediate
	FormatJ              // 26-bit jump target
)

// Syntax describes the assembler operand layout of an operation.
type Syntax uint8

// Operand layouts.
const (
	SyntaxNone     Syntax = iota
	SyntaxRdRsRt          // add $rd, $rs, $rt
	SyntaxRdRtSa          // sll $rd, $rt, sa
	SyntaxRdRtRs          // sllv $rd, $rt, $rs
	SyntaxRsRt            // mult $rs, $rt
	SyntaxRd              // mfhi $rd
	SyntaxRs              // mthi $rs / jr $rs
	SyntaxRdRs            // jalr $rd, $rs
	SyntaxRsOffset        // bltz $rs, offset
	SyntaxRsRtOffset      // beq $rs, $rt, offset
	SyntaxRtRsImm         // addi $rt, $rs, imm
	SyntaxRtImm           // lui $rt, imm
	SyntaxRtMem           // lw $rt, imm($rs)
	SyntaxTarget          // j target
)

// Opcodes (bits [31:26]).
const (
	OpcodeSpecial = 0x00
	OpcodeRegImm  = 0x01
	OpcodeJ       = 0x02
	OpcodeJAL     = 0x03
	OpcodeBEQ     = 0x04
	OpcodeBNE     = 0x05
	OpcodeBLEZ    = 0x06
	OpcodeBGTZ    = 0x07
	OpcodeADDI    = 0x08
	OpcodeADDIU   = 0x09
	OpcodeSLTI    = 0x0A
	OpcodeSLTIU   = 0x0B
	OpcodeANDI    = 0x0C
	OpcodeORI     = 0x0D
	OpcodeXORI    = 0x0E
	OpcodeLUI     = 0x0F
	OpcodeLB      = 0x20
	OpcodeLH      = 0x21
	OpcodeLWL     = 0x22
	OpcodeLW      = 0x23
	OpcodeLBU     = 0x24
	OpcodeLHU     = 0x25
	OpcodeLWR     = 0x26
	OpcodeSB      = 0x28
	OpcodeSH      = 0x29
	OpcodeSW      = 0x2B
)

// Function codes (bits [5:0]) for opcode 0.
const (
	FunctSLL   = 0x00
	FunctSRL   = 0x02
	FunctSRA   = 0x03
	FunctSLLV  = 0x04
	FunctSRLV  = 0x06
	FunctSRAV  = 0x07
	FunctJR    = 0x08
	FunctJALR  = 0x09
	FunctMFHI  = 0x10
	FunctMTHI  = 0x11
	FunctMFLO  = 0x12
	FunctMTLO  = 0x13
	FunctMULT  = 0x18
	FunctMULTU = 0x19
	FunctDIV   = 0x1A
	FunctDIVU  = 0x1B
	FunctADD   = 0x20
	FunctADDU  = 0x21
	FunctSUB   = 0x22
	FunctSUBU  = 0x23
	FunctAND   = 0x24
	FunctOR    = 0x25
	FunctXOR   = 0x26
	FunctSLT   = 0x2A
	FunctSLTU  = 0x2B
)

// Branch sub-functions (bits [20:16]) for opcode 1.
const (
	BranchBLTZ   = 0x00
	BranchBGEZ   = 0x01
	BranchBLTZAL = 0x10
	BranchBGEZAL = 0x11
)

type opInfo struct {
	name   string
	format Format
	code   uint8 // opcode, funct or branch sub-function depending on format
	syntax Syntax
}

var opTable = [numOps]opInfo{
	OpUnknown: {"unknown", FormatUnknown, 0, SyntaxNone},

	OpADD:   {"add", FormatR, FunctADD, SyntaxRdRsRt},
	OpADDU:  {"addu", FormatR, FunctADDU, SyntaxRdRsRt},
	OpSUB:   {"sub", FormatR, FunctSUB, SyntaxRdRsRt},
	OpSUBU:  {"subu", FormatR, FunctSUBU, SyntaxRdRsRt},
	OpAND:   {"and", FormatR, FunctAND, SyntaxRdRsRt},
	OpOR:    {"or", FormatR, FunctOR, SyntaxRdRsRt},
	OpXOR:   {"xor", FormatR, FunctXOR, SyntaxRdRsRt},
	OpSLT:   {"slt", FormatR, FunctSLT, SyntaxRdRsRt},
	OpSLTU:  {"sltu", FormatR, FunctSLTU, SyntaxRdRsRt},
	OpSLL:   {"sll", FormatR, FunctSLL, SyntaxRdRtSa},
	OpSRL:   {"srl", FormatR, FunctSRL, SyntaxRdRtSa},
	OpSRA:   {"sra", FormatR, FunctSRA, SyntaxRdRtSa},
	OpSLLV:  {"sllv", FormatR, FunctSLLV, SyntaxRdRtRs},
	OpSRLV:  {"srlv", FormatR, FunctSRLV, SyntaxRdRtRs},
	OpSRAV:  {"srav", FormatR, FunctSRAV, SyntaxRdRtRs},
	OpMULT:  {"mult", FormatR, FunctMULT, SyntaxRsRt},
	OpMULTU: {"multu", FormatR, FunctMULTU, SyntaxRsRt},
	OpDIV:   {"div", FormatR, FunctDIV, SyntaxRsRt},
	OpDIVU:  {"divu", FormatR, FunctDIVU, SyntaxRsRt},
	OpMFHI:  {"mfhi", FormatR, FunctMFHI, SyntaxRd},
	OpMFLO:  {"mflo", FormatR, FunctMFLO, SyntaxRd},
	OpMTHI:  {"mthi", FormatR, FunctMTHI, SyntaxRs},
	OpMTLO:  {"mtlo", FormatR, FunctMTLO, SyntaxRs},
	OpJR:    {"jr", FormatR, FunctJR, SyntaxRs},
	OpJALR:  {"jalr", FormatR, FunctJALR, SyntaxRdRs},

	OpBLTZ:   {"bltz", FormatRegImm, BranchBLTZ, SyntaxRsOffset},
	OpBGEZ:   {"bgez", FormatRegImm, BranchBGEZ, SyntaxRsOffset},
	OpBLTZAL: {"bltzal", FormatRegImm, BranchBLTZAL, SyntaxRsOffset},
	OpBGEZAL: {"bgezal", FormatRegImm, BranchBGEZAL, SyntaxRsOffset},

	OpADDI:  {"addi", FormatI, OpcodeADDI, SyntaxRtRsImm},
	OpADDIU: {"addiu", FormatI, OpcodeADDIU, SyntaxRtRsImm},
	OpSLTI:  {"slti", FormatI, OpcodeSLTI, SyntaxRtRsImm},
	OpSLTIU: {"sltiu", FormatI, OpcodeSLTIU, SyntaxRtRsImm},
	OpANDI:  {"andi", FormatI, OpcodeANDI, SyntaxRtRsImm},
	OpORI:   {"ori", FormatI, OpcodeORI, SyntaxRtRsImm},
	OpXORI:  {"xori", FormatI, OpcodeXORI, SyntaxRtRsImm},
	OpLUI:   {"lui", FormatI, OpcodeLUI, SyntaxRtImm},
	OpBEQ:   {"beq", FormatI, OpcodeBEQ, SyntaxRsRtOffset},
	OpBNE:   {"bne", FormatI, OpcodeBNE, SyntaxRsRtOffset},
	OpBLEZ:  {"blez", FormatI, OpcodeBLEZ, SyntaxRsOffset},
	OpBGTZ:  {"bgtz", FormatI, OpcodeBGTZ, SyntaxRsOffset},
	OpLB:    {"lb", FormatI, OpcodeLB, SyntaxRtMem},
	OpLBU:   {"lbu", FormatI, OpcodeLBU, SyntaxRtMem},
	OpLH:    {"lh", FormatI, OpcodeLH, SyntaxRtMem},
	OpLHU:   {"lhu", FormatI, OpcodeLHU, SyntaxRtMem},
	OpLW:    {"lw", FormatI, OpcodeLW, SyntaxRtMem},
	OpLWL:   {"lwl", FormatI, OpcodeLWL, SyntaxRtMem},
	OpLWR:   {"lwr", FormatI, OpcodeLWR, SyntaxRtMem},
	OpSB:    {"sb", FormatI, OpcodeSB, SyntaxRtMem},
	OpSH:    {"sh", FormatI, OpcodeSH, SyntaxRtMem},
	OpSW:    {"sw", FormatI, OpcodeSW, SyntaxRtMem},

	OpJ:   {"j", FormatJ, OpcodeJ, SyntaxTarget},
	OpJAL: {"jal", FormatJ, OpcodeJAL, SyntaxTarget},
}

// Dispatch tables, built once from opTable. Unlisted slots stay OpUnknown.
var (
	specialOps [64]Op
	regImmOps  [32]Op
	primaryOps [64]Op
	opByName   = map[string]Op{}
)

func init() {
	for op := OpUnknown + 1; op < numOps; op++ {
		info := opTable[op]
		switch info.format {
		case FormatR:
			specialOps[info.code] = op
		case FormatRegImm:
			regImmOps[info.code] = op
		case FormatI, FormatJ:
			primaryOps[info.code] = op
		}
		opByName[info.name] = op
	}
}

// String returns the lower-case mnemonic.
func (op Op) String() string {
	if op >= numOps {
		return opTable[OpUnknown].name
	}
	return opTable[op].name
}

// Format returns the encoding format of the operation.
func (op Op) Format() Format {
	if op >= numOps {
		return FormatUnknown
	}
	return opTable[op].format
}

// Syntax returns the assembler operand layout of the operation.
func (op Op) Syntax() Syntax {
	if op >= numOps {
		return SyntaxNone
	}
	return opTable[op].syntax
}

// Code returns the opcode, funct or branch sub-function that selects op.
func (op Op) Code() uint8 {
	if op >= numOps {
		return 0
	}
	return opTable[op].code
}

// IsBranch reports whether op is a conditional PC-relative branch.
func (op Op) IsBranch() bool {
	s := op.Syntax()
	return s == SyntaxRsOffset || s == SyntaxRsRtOffset
}

// IsLoad reports whether op reads data memory.
func (op Op) IsLoad() bool {
	switch op {
	case OpLB, OpLBU, OpLH, OpLHU, OpLW, OpLWL, OpLWR:
		return true
	}
	return false
}

// IsStore reports whether op writes data memory.
func (op Op) IsStore() bool {
	switch op {
	case OpSB, OpSH, OpSW:
		return true
	}
	return false
}

// Ops returns every defined operation in declaration order.
func Ops() []Op {
	ops := make([]Op, 0, numOps-1)
	for op := OpUnknown + 1; op < numOps; op++ {
		ops = append(ops, op)
	}
	return ops
}

// LookupOp returns the operation for a mnemonic, case-insensitively.
func LookupOp(name string) (Op, bool) {
	op, ok := opByName[strings.ToLower(name)]
	return op, ok
}
