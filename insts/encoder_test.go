package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/insts"
)

var _ = Describe("Encoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("Field round trip", func() {
		type field struct {
			width  uint
			encode func(uint32) uint32
			decode func(uint32) uint32
		}

		fields := map[string]field{
			"opcode": {6, insts.FieldOpcode, func(w uint32) uint32 { return uint32(insts.Opcode(w)) }},
			"rs":     {5, insts.FieldRs, func(w uint32) uint32 { return uint32(insts.Rs(w)) }},
			"rt":     {5, insts.FieldRt, func(w uint32) uint32 { return uint32(insts.Rt(w)) }},
			"rd":     {5, insts.FieldRd, func(w uint32) uint32 { return uint32(insts.Rd(w)) }},
			"shamt":  {5, insts.FieldShamt, func(w uint32) uint32 { return uint32(insts.Shamt(w)) }},
			"funct":  {6, insts.FieldFunct, func(w uint32) uint32 { return uint32(insts.Funct(w)) }},
			"branch": {5, insts.FieldBranchFunc, func(w uint32) uint32 { return uint32(insts.BranchFunc(w)) }},
			"imm":    {16, insts.FieldImm, func(w uint32) uint32 { return uint32(insts.Imm(w)) }},
			"target": {26, insts.FieldTarget, insts.Target},
		}

		It("should decode every in-range value it encodes", func() {
			for name, f := range fields {
				limit := uint32(1) << f.width
				step := uint32(1)
				if f.width > 8 {
					step = limit / 256
				}
				for v := uint32(0); v < limit; v += step {
					Expect(f.decode(f.encode(v))).To(Equal(v), "%s %d", name, v)
				}
				Expect(f.decode(f.encode(limit - 1))).To(Equal(limit-1), name)
			}
		})

		It("should not let out-of-range values corrupt neighbouring fields", func() {
			word := insts.FieldRs(0xFF) | insts.FieldRt(0)
			Expect(insts.Rs(word)).To(Equal(uint8(0x1F)))
			Expect(insts.Rt(word)).To(Equal(uint8(0)))
			Expect(insts.Opcode(word)).To(Equal(uint8(0)))
		})
	})

	Describe("Instruction round trip", func() {
		It("should re-encode every operation to the same word", func() {
			for _, op := range insts.Ops() {
				var word uint32
				switch op.Format() {
				case insts.FormatR:
					word = insts.EncodeR(op, 3, 4, 5, 0)
				case insts.FormatRegImm:
					word = insts.EncodeRegImm(op, 6, -7)
				case insts.FormatI:
					word = insts.EncodeI(op, 8, 9, 0x8001)
				case insts.FormatJ:
					word = insts.EncodeJ(op, 0x0123456)
				}

				inst := decoder.Decode(word)
				Expect(inst.Op).To(Equal(op), op.String())
				Expect(insts.Encode(inst)).To(Equal(word), op.String())
			}
		})

		It("should encode the examples from the reference table", func() {
			Expect(insts.EncodeR(insts.OpADD, 6, 4, 5, 0)).To(Equal(uint32(0x00853020)))
			Expect(insts.EncodeI(insts.OpLW, 8, 29, 16)).To(Equal(uint32(0x8FA80010)))
			Expect(insts.EncodeI(insts.OpBEQ, 2, 1, 0xFFFC)).To(Equal(uint32(0x1022FFFC)))
			Expect(insts.EncodeRegImm(insts.OpBGEZAL, 0, -2)).To(Equal(uint32(0x0411FFFE)))
			Expect(insts.EncodeJ(insts.OpJAL, 0x100)).To(Equal(uint32(0x0C000100)))
		})

		It("should return the raw word for unknown instructions", func() {
			inst := decoder.Decode(0xFC001234)
			Expect(insts.Encode(inst)).To(Equal(uint32(0xFC001234)))
		})
	})
})
