package loader

import (
	"fmt"

	"github.com/sarchlab/mipsim/mem"
)

// Install copies every segment into m and zero-fills the remainder of each
// segment's memory size. Writes are widened to whole aligned words so the
// image can be installed into word-granular memories.
func (p *Program) Install(m mem.Memory) error {
	for _, seg := range p.Segments {
		if seg.MemSize == 0 {
			continue
		}

		start := seg.VirtAddr &^ 3
		end := uint64(seg.VirtAddr) + uint64(seg.MemSize)
		end = (end + 3) &^ 3

		buf := make([]byte, end-uint64(start))
		if err := m.Read(start, buf); err != nil {
			return fmt.Errorf("failed to install segment at 0x%x: %w", seg.VirtAddr, err)
		}

		offset := seg.VirtAddr - start
		body := buf[offset : offset+seg.MemSize]
		n := copy(body, seg.Data)
		clear(body[n:])

		if err := m.Write(start, buf); err != nil {
			return fmt.Errorf("failed to install segment at 0x%x: %w", seg.VirtAddr, err)
		}
	}

	return nil
}
