// Package asm assembles MIPS-I source text into instruction words.
//
// The syntax is the conventional one: one statement per line, "#" starts a
// comment, labels end in ":", registers are written $0-$31 or by ABI name
// ($zero, $t0, $sp, ...). Immediate operands are Starlark expressions over
// the labels, so "LOOP - 4" and "4*8" work. Branch operands are either a
// label expression or a literal word offset.
package asm

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"regexp"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/sarchlab/mipsim/insts"
)

// statement is one instruction or .word directive after pass 1.
type statement struct {
	lineNo   int
	line     string
	addr     uint32
	mnemonic string
	operands []string
}

// Assembler is a two-pass assembler. The zero value is ready to use.
type Assembler struct {
	Verbose bool // If set, logs every statement as it is placed.

	predefine map[string]uint32
	labels    map[string]uint32
}

// Predefine makes name available to every expression.
func (a *Assembler) Predefine(name string, value uint32) {
	if a.predefine == nil {
		a.predefine = map[string]uint32{}
	}
	a.predefine[name] = value
}

// Assemble is a shorthand for (&Assembler{}).Parse on a string.
func Assemble(source string) (*Program, error) {
	return (&Assembler{}).Parse(strings.NewReader(source))
}

var labelRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Parse assembles the whole input.
func (a *Assembler) Parse(input io.Reader) (*Program, error) {
	stmts, origin, err := a.layout(input)
	if err != nil {
		return nil, err
	}

	prog := &Program{
		Origin: origin,
		Labels: maps.Clone(a.labels),
	}

	for _, st := range stmts {
		words, err := a.encode(st)
		if err != nil {
			return nil, &SyntaxError{LineNo: st.lineNo, Line: st.line, Err: err}
		}

		index := int((st.addr - origin) / 4)
		for len(prog.Words) < index {
			prog.Words = append(prog.Words, 0)
		}
		prog.Words = append(prog.Words, words...)
	}

	return prog, nil
}

// layout is pass 1: it assigns addresses to statements and labels.
func (a *Assembler) layout(input io.Reader) (stmts []statement, origin uint32, err error) {
	scanner := bufio.NewScanner(input)

	a.labels = map[string]uint32{}

	var (
		line   string
		lineNo int
		pc     uint32
		placed bool
	)

	defer func() {
		if err != nil {
			err = &SyntaxError{LineNo: lineNo, Line: line, Err: err}
		}
	}()

	for scanner.Scan() {
		lineNo++
		line = strings.TrimSpace(scanner.Text())

		text, _, _ := strings.Cut(line, "#")
		text = strings.TrimSpace(text)

		for {
			label, rest, found := strings.Cut(text, ":")
			if !found {
				break
			}
			label = strings.TrimSpace(label)
			if !labelRe.MatchString(label) {
				return nil, 0, ErrLabelInvalid
			}
			if _, dup := a.labels[label]; dup {
				return nil, 0, ErrLabelDuplicate
			}
			a.labels[label] = pc
			text = strings.TrimSpace(rest)
		}

		if text == "" {
			continue
		}

		mnemonic, args := text, ""
		if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
			mnemonic, args = text[:i], text[i+1:]
		}
		mnemonic = strings.ToLower(mnemonic)
		operands := splitOperands(args)

		switch mnemonic {
		case ".org":
			if len(operands) != 1 {
				return nil, 0, ErrOperandCount
			}
			var target uint32
			target, err = a.eval(operands[0], pc)
			if err != nil {
				return nil, 0, err
			}
			if target%4 != 0 {
				return nil, 0, ErrTargetAlignment
			}
			if placed && target < pc {
				return nil, 0, ErrOrgBackwards
			}
			if !placed {
				origin = target
			}
			pc = target
			continue
		case ".word":
			if len(operands) == 0 {
				return nil, 0, ErrOperandCount
			}
		default:
			if strings.HasPrefix(mnemonic, ".") {
				return nil, 0, ErrDirectiveInvalid
			}
		}

		if a.Verbose {
			logrus.WithFields(logrus.Fields{
				"line": lineNo,
				"addr": fmt.Sprintf("0x%08x", pc),
			}).Info(text)
		}

		stmts = append(stmts, statement{
			lineNo:   lineNo,
			line:     line,
			addr:     pc,
			mnemonic: mnemonic,
			operands: operands,
		})
		placed = true

		if mnemonic == ".word" {
			pc += 4 * uint32(len(operands))
		} else {
			pc += 4
		}
	}

	if err = scanner.Err(); err != nil {
		return nil, 0, err
	}

	return stmts, origin, nil
}

// splitOperands splits on commas outside parentheses.
func splitOperands(args string) []string {
	var (
		out   []string
		depth int
		start int
	)

	for i, c := range args {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(args[start:i]))
				start = i + 1
			}
		}
	}

	if last := strings.TrimSpace(args[start:]); last != "" || len(out) > 0 {
		out = append(out, last)
	}

	return out
}

// eval evaluates a Starlark integer expression. PC is bound to the address
// of the current statement.
func (a *Assembler) eval(expr string, pc uint32) (uint32, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, ErrParseExpression(expr)
	}

	pred := starlark.StringDict{"PC": starlark.MakeUint(uint(pc))}
	for name, v := range a.predefine {
		pred[name] = starlark.MakeUint(uint(v))
	}
	for name, v := range a.labels {
		pred[name] = starlark.MakeUint(uint(v))
	}

	thread := starlark.Thread{Name: "asm"}
	opts := syntax.FileOptions{}

	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", "rc = "+expr+"\n", pred)
	if err != nil {
		return 0, ErrParseExpression(expr)
	}

	rc, ok := dict["rc"].(starlark.Int)
	if !ok {
		return 0, ErrParseExpression(expr)
	}

	v, ok := rc.Int64()
	if !ok || v < -(1<<31) || v > 0xFFFFFFFF {
		return 0, ErrImmediateRange
	}

	return uint32(v), nil
}

// immediate evaluates a 16-bit field. Both the signed and unsigned readings
// of the field are accepted.
func (a *Assembler) immediate(expr string, pc uint32) (uint16, error) {
	v, err := a.eval(expr, pc)
	if err != nil {
		return 0, err
	}
	if int32(v) < -0x8000 || (int32(v) >= 0 && v > 0xFFFF) {
		return 0, ErrImmediateRange
	}
	return uint16(v), nil
}

var wordOffsetRe = regexp.MustCompile(`^[-+]?(0[xX][0-9a-fA-F]+|[0-9]+)$`)

// branchOffset resolves a branch operand to a word offset from pc+4. A bare
// number is already a word offset; anything else is a target address.
func (a *Assembler) branchOffset(expr string, pc uint32) (uint16, error) {
	expr = strings.TrimSpace(expr)

	v, err := a.eval(expr, pc)
	if err != nil {
		return 0, err
	}

	offset := int64(int32(v))
	if !wordOffsetRe.MatchString(expr) {
		if v%4 != 0 {
			return 0, ErrTargetAlignment
		}
		offset = (int64(v) - int64(pc) - 4) / 4
	}

	if offset < -0x8000 || offset > 0x7FFF {
		return 0, ErrBranchRange
	}

	return uint16(int16(offset)), nil
}

// jumpTarget resolves a J/JAL operand to its 26-bit field.
func (a *Assembler) jumpTarget(expr string, pc uint32) (uint32, error) {
	v, err := a.eval(expr, pc)
	if err != nil {
		return 0, err
	}
	if v%4 != 0 {
		return 0, ErrTargetAlignment
	}
	if v&0xF0000000 != pc&0xF0000000 {
		return 0, ErrJumpRegion
	}
	return (v >> 2) & 0x03FFFFFF, nil
}

// memoryOperand parses "offset(register)".
func (a *Assembler) memoryOperand(operand string, pc uint32) (uint16, uint8, error) {
	open := strings.LastIndex(operand, "(")
	if open < 0 || !strings.HasSuffix(operand, ")") {
		return 0, 0, ErrMemoryOperand
	}

	base, err := parseRegister(operand[open+1 : len(operand)-1])
	if err != nil {
		return 0, 0, err
	}

	offsetExpr := strings.TrimSpace(operand[:open])
	if offsetExpr == "" {
		return 0, base, nil
	}

	offset, err := a.immediate(offsetExpr, pc)
	if err != nil {
		return 0, 0, err
	}

	return offset, base, nil
}

// registers parses every operand as a register.
func registers(operands []string) ([]uint8, error) {
	regs := make([]uint8, len(operands))
	for i, op := range operands {
		r, err := parseRegister(op)
		if err != nil {
			return nil, err
		}
		regs[i] = r
	}
	return regs, nil
}

// operandCounts is the number of operands each syntax takes.
var operandCounts = map[insts.Syntax]int{
	insts.SyntaxNone:       0,
	insts.SyntaxRdRsRt:     3,
	insts.SyntaxRdRtSa:     3,
	insts.SyntaxRdRtRs:     3,
	insts.SyntaxRsRt:       2,
	insts.SyntaxRd:         1,
	insts.SyntaxRs:         1,
	insts.SyntaxRdRs:       2,
	insts.SyntaxRsOffset:   2,
	insts.SyntaxRsRtOffset: 3,
	insts.SyntaxRtRsImm:    3,
	insts.SyntaxRtImm:      2,
	insts.SyntaxRtMem:      2,
	insts.SyntaxTarget:     1,
}

// encode is pass 2: it turns a statement into words.
func (a *Assembler) encode(st statement) ([]uint32, error) {
	if st.mnemonic == ".word" {
		words := make([]uint32, len(st.operands))
		for i, expr := range st.operands {
			v, err := a.eval(expr, st.addr+uint32(i)*4)
			if err != nil {
				return nil, err
			}
			words[i] = v
		}
		return words, nil
	}

	op, ok := insts.LookupOp(st.mnemonic)
	if !ok {
		return nil, ErrOpcodeInvalid
	}

	operands := st.operands
	syn := op.Syntax()

	// "jalr $rs" links through $ra.
	if op == insts.OpJALR && len(operands) == 1 {
		operands = []string{"$ra", operands[0]}
	}

	if len(operands) != operandCounts[syn] {
		return nil, ErrOperandCount
	}

	word, err := a.encodeOperands(op, syn, operands, st.addr)
	if err != nil {
		return nil, err
	}

	return []uint32{word}, nil
}

func (a *Assembler) encodeOperands(op insts.Op, syn insts.Syntax, operands []string, pc uint32) (uint32, error) {
	switch syn {
	case insts.SyntaxRdRsRt:
		regs, err := registers(operands)
		if err != nil {
			return 0, err
		}
		return insts.EncodeR(op, regs[0], regs[1], regs[2], 0), nil

	case insts.SyntaxRdRtSa:
		regs, err := registers(operands[:2])
		if err != nil {
			return 0, err
		}
		sa, err := a.eval(operands[2], pc)
		if err != nil {
			return 0, err
		}
		if sa > 31 {
			return 0, ErrShiftRange
		}
		return insts.EncodeR(op, regs[0], 0, regs[1], uint8(sa)), nil

	case insts.SyntaxRdRtRs:
		regs, err := registers(operands)
		if err != nil {
			return 0, err
		}
		return insts.EncodeR(op, regs[0], regs[2], regs[1], 0), nil

	case insts.SyntaxRsRt:
		regs, err := registers(operands)
		if err != nil {
			return 0, err
		}
		return insts.EncodeR(op, 0, regs[0], regs[1], 0), nil

	case insts.SyntaxRd:
		regs, err := registers(operands)
		if err != nil {
			return 0, err
		}
		return insts.EncodeR(op, regs[0], 0, 0, 0), nil

	case insts.SyntaxRs:
		regs, err := registers(operands)
		if err != nil {
			return 0, err
		}
		return insts.EncodeR(op, 0, regs[0], 0, 0), nil

	case insts.SyntaxRdRs:
		regs, err := registers(operands)
		if err != nil {
			return 0, err
		}
		return insts.EncodeR(op, regs[0], regs[1], 0, 0), nil

	case insts.SyntaxRsOffset:
		rs, err := parseRegister(operands[0])
		if err != nil {
			return 0, err
		}
		offset, err := a.branchOffset(operands[1], pc)
		if err != nil {
			return 0, err
		}
		if op.Format() == insts.FormatRegImm {
			return insts.EncodeRegImm(op, rs, int16(offset)), nil
		}
		return insts.EncodeI(op, 0, rs, offset), nil

	case insts.SyntaxRsRtOffset:
		regs, err := registers(operands[:2])
		if err != nil {
			return 0, err
		}
		offset, err := a.branchOffset(operands[2], pc)
		if err != nil {
			return 0, err
		}
		return insts.EncodeI(op, regs[1], regs[0], offset), nil

	case insts.SyntaxRtRsImm:
		regs, err := registers(operands[:2])
		if err != nil {
			return 0, err
		}
		imm, err := a.immediate(operands[2], pc)
		if err != nil {
			return 0, err
		}
		return insts.EncodeI(op, regs[0], regs[1], imm), nil

	case insts.SyntaxRtImm:
		rt, err := parseRegister(operands[0])
		if err != nil {
			return 0, err
		}
		imm, err := a.immediate(operands[1], pc)
		if err != nil {
			return 0, err
		}
		return insts.EncodeI(op, rt, 0, imm), nil

	case insts.SyntaxRtMem:
		rt, err := parseRegister(operands[0])
		if err != nil {
			return 0, err
		}
		offset, base, err := a.memoryOperand(operands[1], pc)
		if err != nil {
			return 0, err
		}
		return insts.EncodeI(op, rt, base, offset), nil

	case insts.SyntaxTarget:
		target, err := a.jumpTarget(operands[0], pc)
		if err != nil {
			return 0, err
		}
		return insts.EncodeJ(op, target), nil
	}

	return 0, ErrOpcodeInvalid
}
