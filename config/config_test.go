package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/config"
	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
	"github.com/sarchlab/mipsim/mem"
)

var _ = Describe("Config", func() {
	Describe("Validate", func() {
		var c *config.Config

		BeforeEach(func() {
			c = config.Default()
		})

		It("should accept the defaults", func() {
			Expect(c.Validate()).To(Succeed())
		})

		It("should accept a default cache", func() {
			c.Cache.Enabled = true
			Expect(c.Validate()).To(Succeed())
		})

		It("should reject an empty memory", func() {
			c.MemorySize = 0
			Expect(c.Validate()).To(HaveOccurred())
		})

		It("should reject a memory size that is not word sized", func() {
			c.MemorySize = 1022
			Expect(c.Validate()).To(HaveOccurred())
		})

		It("should reject an unsupported block size", func() {
			c.MemoryBlockSize = 3
			Expect(c.Validate()).To(HaveOccurred())
		})

		It("should reject a misaligned entry point", func() {
			c.EntryPC = 0x102
			Expect(c.Validate()).To(HaveOccurred())
		})

		It("should reject an entry point outside memory", func() {
			c.EntryPC = c.MemorySize
			Expect(c.Validate()).To(HaveOccurred())
		})

		It("should reject inconsistent cache geometry", func() {
			c.Cache.Enabled = true
			c.Cache.Associativity = 3
			Expect(c.Validate()).To(HaveOccurred())

			c.Cache.Associativity = 4
			c.Cache.BlockSize = 2
			Expect(c.Validate()).To(HaveOccurred())

			c.Cache.BlockSize = 32
			c.Cache.Size = 64
			Expect(c.Validate()).To(HaveOccurred())
		})

		It("should reject a memory that ends inside a cache line", func() {
			c.MemorySize = 100
			Expect(c.Validate()).To(Succeed())

			c.Cache.Enabled = true
			Expect(c.Validate()).To(MatchError(ContainSubstring("cache.block_size")))

			c.MemorySize = 128
			Expect(c.Validate()).To(Succeed())
		})

		It("should ignore cache geometry when the cache is off", func() {
			c.Cache.Size = 3
			Expect(c.Validate()).To(Succeed())
		})
	})

	Describe("Clone", func() {
		It("should create an independent copy", func() {
			original := config.Default()
			clone := original.Clone()

			clone.Cache.Size = 8192

			Expect(original.Cache.Size).To(Equal(4096))
		})
	})

	Describe("File Operations", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "mipsim-config")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should save and load a config", func() {
			original := config.Default()
			original.MaxSteps = 42
			original.Cache.Enabled = true

			path := filepath.Join(tempDir, "machine.json")
			Expect(original.Save(path)).To(Succeed())

			loaded, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(original))
		})

		It("should keep defaults for missing keys", func() {
			path := filepath.Join(tempDir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"max_steps": 7}`), 0644)).To(Succeed())

			loaded, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.MaxSteps).To(Equal(uint64(7)))
			Expect(loaded.MemorySize).To(Equal(uint32(64 * 1024)))
			Expect(loaded.StrictPartialWord).To(BeTrue())
		})

		It("should return an error for a non-existent file", func() {
			_, err := config.Load("/nonexistent/path/machine.json")
			Expect(err).To(HaveOccurred())
		})

		It("should return an error for invalid JSON", func() {
			path := filepath.Join(tempDir, "invalid.json")
			Expect(os.WriteFile(path, []byte("not valid json"), 0644)).To(Succeed())

			_, err := config.Load(path)
			Expect(err).To(HaveOccurred())
		})

		It("should return an error for an invalid machine", func() {
			path := filepath.Join(tempDir, "bad.json")
			Expect(os.WriteFile(path, []byte(`{"memory_block_size": 8}`), 0644)).To(Succeed())

			_, err := config.Load(path)
			Expect(err).To(MatchError(ContainSubstring("memory_block_size")))
		})
	})

	Describe("Machine construction", func() {
		It("should build a bare RAM by default", func() {
			c := config.Default()

			top, ram, cache := c.NewMemory()

			Expect(cache).To(BeNil())
			Expect(top).To(BeIdenticalTo(mem.Memory(ram)))
			Expect(ram.Size()).To(Equal(uint32(64 * 1024)))
		})

		It("should put a cache in front of RAM when enabled", func() {
			c := config.Default()
			c.Cache.Enabled = true

			top, ram, cache := c.NewMemory()

			Expect(cache).NotTo(BeNil())
			Expect(mem.WriteWord(top, 0x40, 0x1234)).To(Succeed())
			Expect(cache.Flush()).To(Succeed())
			Expect(mem.ReadWord(ram, 0x40)).To(Equal(uint32(0x1234)))
		})

		It("should execute the last word of memory through the cache", func() {
			c := config.Default()
			c.MemorySize = 128
			c.Cache.Enabled = true
			Expect(c.Validate()).To(Succeed())

			top, _, _ := c.NewMemory()
			Expect(mem.WriteWord(top, 124, insts.EncodeI(insts.OpADDIU, 2, 0, 7))).To(Succeed())

			e := emu.NewEmulator(top, c.EmulatorOptions()...)
			Expect(e.SetPC(124)).To(Succeed())
			Expect(e.Step()).To(Succeed())
			Expect(e.Register(2)).To(Equal(uint32(7)))
		})

		It("should configure the emulator", func() {
			c := config.Default()
			c.EntryPC = 0x100
			c.StrictPartialWord = false

			top, _, _ := c.NewMemory()
			Expect(mem.WriteWord(top, 0x200, 0x11223344)).To(Succeed())
			Expect(mem.WriteWord(top, 0x100, insts.EncodeI(insts.OpLWL, 2, 0, 0x201))).To(Succeed())

			e := emu.NewEmulator(top, c.EmulatorOptions()...)
			Expect(e.PC()).To(Equal(uint32(0x100)))
			Expect(e.Step()).To(Succeed())
			Expect(e.Register(2)).To(Equal(uint32(0x22334400)))
		})
	})
})
