package loader_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/loader"
	"github.com/sarchlab/mipsim/mem"
)

var _ = Describe("Raw Loader", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "raw-loader-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	It("should load an image at the origin", func() {
		path := filepath.Join(tempDir, "prog.bin")
		Expect(os.WriteFile(path, []byte{0x24, 0x02, 0x00, 0x2A, 0x01}, 0644)).To(Succeed())

		prog, err := loader.LoadRaw(path, 0x100)
		Expect(err).NotTo(HaveOccurred())
		Expect(prog.EntryPoint).To(Equal(uint32(0x100)))
		Expect(prog.Segments).To(HaveLen(1))
		Expect(prog.Segments[0].Data).To(HaveLen(8))

		ram := mem.NewRAM(1024, 4)
		Expect(prog.Install(ram)).To(Succeed())
		Expect(mem.ReadWord(ram, 0x100)).To(Equal(uint32(0x2402002A)))
		Expect(mem.ReadWord(ram, 0x104)).To(Equal(uint32(0x01000000)))
	})

	It("should reject a misaligned origin", func() {
		_, err := loader.LoadRaw(filepath.Join(tempDir, "x.bin"), 2)
		Expect(err).To(MatchError(ContainSubstring("not word aligned")))
	})

	It("should reject a missing file", func() {
		_, err := loader.LoadRaw(filepath.Join(tempDir, "missing.bin"), 0)
		Expect(err).To(MatchError(ContainSubstring("failed to read")))
	})

	It("should reject an empty file", func() {
		path := filepath.Join(tempDir, "empty.bin")
		Expect(os.WriteFile(path, nil, 0644)).To(Succeed())

		_, err := loader.LoadRaw(path, 0)
		Expect(err).To(HaveOccurred())
	})
})
