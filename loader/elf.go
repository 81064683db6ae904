// Package loader provides program image loading for big-endian MIPS
// executables.
package loader

import (
	"debug/elf"
	"fmt"
	"io"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// String renders the flags as "rwx" with "-" for a missing permission.
func (f SegmentFlags) String() string {
	perm := []byte("---")
	if f&SegmentFlagRead != 0 {
		perm[0] = 'r'
	}
	if f&SegmentFlagWrite != 0 {
		perm[1] = 'w'
	}
	if f&SegmentFlagExecute != 0 {
		perm[2] = 'x'
	}
	return string(perm)
}

// Segment represents a loadable segment of a program image.
type Segment struct {
	// VirtAddr is the address where this segment should be loaded.
	VirtAddr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Program represents a loaded program ready for execution.
type Program struct {
	// EntryPoint is the address where execution should begin.
	EntryPoint uint32
	// Segments contains all loadable segments of the image.
	Segments []Segment
}

// Load parses a 32-bit big-endian MIPS ELF executable and returns a Program
// ready to be installed into memory.
func Load(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("not a 32-bit ELF file")
	}

	if f.Data != elf.ELFDATA2MSB {
		return nil, fmt.Errorf("not a big-endian ELF file")
	}

	if f.Machine != elf.EM_MIPS {
		return nil, fmt.Errorf("not a MIPS ELF file (machine type: %v)", f.Machine)
	}

	prog := &Program{
		EntryPoint: uint32(f.Entry),
	}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		if phdr.Filesz > phdr.Memsz {
			return nil, fmt.Errorf("segment at 0x%x has file size %d beyond memory size %d",
				phdr.Vaddr, phdr.Filesz, phdr.Memsz)
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: uint32(phdr.Vaddr),
			Data:     data,
			MemSize:  uint32(phdr.Memsz),
			Flags:    segmentFlags(phdr.Flags),
		})
	}

	return prog, nil
}

func segmentFlags(pf elf.ProgFlag) SegmentFlags {
	var flags SegmentFlags
	if pf&elf.PF_X != 0 {
		flags |= SegmentFlagExecute
	}
	if pf&elf.PF_W != 0 {
		flags |= SegmentFlagWrite
	}
	if pf&elf.PF_R != 0 {
		flags |= SegmentFlagRead
	}
	return flags
}
