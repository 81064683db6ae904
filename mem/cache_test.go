package mem_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/mem"
)

var _ = Describe("Cache", func() {
	var (
		c   *mem.Cache
		ram *mem.RAM
	)

	BeforeEach(func() {
		ram = mem.NewRAM(64*1024, 4)
		// 256B, 2-way, 32B lines: 4 sets, addresses 128 bytes apart share a set
		c = mem.NewCache(mem.CacheConfig{
			Size:          256,
			Associativity: 2,
			BlockSize:     32,
		}, ram)
	})

	Describe("Read operations", func() {
		It("should miss on a cold cache", func() {
			Expect(mem.WriteWord(ram, 0x1000, 0xDEADBEEF)).To(Succeed())

			w, err := mem.ReadWord(c, 0x1000)
			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(Equal(uint32(0xDEADBEEF)))

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(0)))
		})

		It("should hit on a different word of the same line", func() {
			Expect(mem.LoadWords(ram, 0x1000, 0x11111111, 0x22222222)).To(Succeed())

			_, err := mem.ReadWord(c, 0x1000)
			Expect(err).NotTo(HaveOccurred())

			w, err := mem.ReadWord(c, 0x1004)
			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(Equal(uint32(0x22222222)))
			Expect(c.Stats().Hits).To(Equal(uint64(1)))
		})

		It("should split requests that cross a line boundary", func() {
			Expect(mem.LoadWords(ram, 0x101C, 0xAAAAAAAA, 0xBBBBBBBB)).To(Succeed())

			buf := make([]byte, 8)
			Expect(c.Read(0x101C, buf)).To(Succeed())
			Expect(buf).To(Equal([]byte{0xAA, 0xAA, 0xAA, 0xAA, 0xBB, 0xBB, 0xBB, 0xBB}))
			Expect(c.Stats().Misses).To(Equal(uint64(2)))
		})

		It("should propagate backing errors", func() {
			_, err := mem.ReadWord(c, 0x20000)
			Expect(err).To(MatchError(mem.ErrOutOfRange))
		})

		It("should reject empty requests", func() {
			Expect(c.Read(0, nil)).To(MatchError(mem.ErrInvalidArgument))
			Expect(c.Write(0, nil)).To(MatchError(mem.ErrInvalidArgument))
		})
	})

	Describe("Write operations", func() {
		It("should keep writes in the cache until flushed", func() {
			Expect(mem.WriteWord(c, 0x2000, 0xCAFEBABE)).To(Succeed())

			w, err := mem.ReadWord(ram, 0x2000)
			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(BeZero())

			w, err = mem.ReadWord(c, 0x2000)
			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(Equal(uint32(0xCAFEBABE)))

			Expect(c.Flush()).To(Succeed())
			w, err = mem.ReadWord(ram, 0x2000)
			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(Equal(uint32(0xCAFEBABE)))
			Expect(c.Stats().Writebacks).To(Equal(uint64(1)))
		})

		It("should write back a dirty victim on eviction", func() {
			Expect(mem.WriteWord(c, 0x000, 0x12345678)).To(Succeed())
			_, err := mem.ReadWord(c, 0x080)
			Expect(err).NotTo(HaveOccurred())
			_, err = mem.ReadWord(c, 0x100)
			Expect(err).NotTo(HaveOccurred())

			stats := c.Stats()
			Expect(stats.Evictions).To(Equal(uint64(1)))
			Expect(stats.Writebacks).To(Equal(uint64(1)))

			w, err := mem.ReadWord(ram, 0x000)
			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(Equal(uint32(0x12345678)))
		})

		It("should drop dirty data on invalidate", func() {
			Expect(mem.WriteWord(c, 0x40, 0x1)).To(Succeed())
			c.Invalidate(0x40)

			w, err := mem.ReadWord(c, 0x40)
			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(BeZero())
		})
	})

	Describe("Reset", func() {
		It("should clear lines and statistics", func() {
			Expect(mem.WriteWord(c, 0x40, 0x1)).To(Succeed())
			c.Reset()

			Expect(c.Stats()).To(Equal(mem.CacheStats{}))
			w, err := mem.ReadWord(c, 0x40)
			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(BeZero())
			Expect(c.Config().BlockSize).To(Equal(32))
		})
	})
})
