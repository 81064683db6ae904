package mem_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/mem"
)

var _ = Describe("RAM", func() {
	DescribeTable("access checks",
		func(blockSize, addr uint32, length int, want error) {
			ram := mem.NewRAM(4096, blockSize)
			buf := make([]byte, length)

			if want == nil {
				Expect(ram.Read(addr, buf)).To(Succeed())
				Expect(ram.Write(addr, buf)).To(Succeed())
				return
			}
			Expect(ram.Read(addr, buf)).To(MatchError(want))
			Expect(ram.Write(addr, buf)).To(MatchError(want))
		},
		Entry("aligned word", uint32(4), uint32(0x10), 4, nil),
		Entry("last word", uint32(4), uint32(4092), 4, nil),
		Entry("two words", uint32(4), uint32(0x20), 8, nil),
		Entry("unaligned address", uint32(4), uint32(0x12), 4, mem.ErrUnaligned),
		Entry("unaligned length", uint32(4), uint32(0x10), 2, mem.ErrUnaligned),
		Entry("past the end", uint32(4), uint32(4096), 4, mem.ErrOutOfRange),
		Entry("straddles the end", uint32(4), uint32(4092), 8, mem.ErrOutOfRange),
		Entry("wraps the address space", uint32(4), uint32(0xFFFFFFFC), 8, mem.ErrOutOfRange),
		Entry("empty", uint32(4), uint32(0), 0, mem.ErrInvalidArgument),
		Entry("byte granular", uint32(1), uint32(0x13), 1, nil),
	)

	Describe("word helpers", func() {
		var ram *mem.RAM

		BeforeEach(func() {
			ram = mem.NewRAM(64, 4)
			Expect(mem.LoadWords(ram, 8, 0x01020304, 0xA0B0C0D0)).To(Succeed())
		})

		It("should store words big-endian", func() {
			buf := make([]byte, 8)
			Expect(ram.Read(8, buf)).To(Succeed())
			Expect(buf).To(Equal([]byte{0x01, 0x02, 0x03, 0x04, 0xA0, 0xB0, 0xC0, 0xD0}))
		})

		It("should read a word back", func() {
			Expect(mem.ReadWord(ram, 12)).To(Equal(uint32(0xA0B0C0D0)))
		})

		It("should reject a word past the end", func() {
			_, err := mem.ReadWord(ram, 64)
			Expect(err).To(MatchError(mem.ErrOutOfRange))
		})

		It("should zero memory on Clear", func() {
			ram.Clear()
			Expect(mem.ReadWord(ram, 8)).To(BeZero())
			Expect(ram.Size()).To(Equal(uint32(64)))
			Expect(ram.BlockSize()).To(Equal(uint32(4)))
		})
	})
})
