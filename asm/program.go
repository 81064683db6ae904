package asm

import (
	"encoding/binary"

	"github.com/sarchlab/mipsim/mem"
)

// Program is an assembled image: consecutive words starting at Origin.
type Program struct {
	Origin uint32
	Words  []uint32

	// Labels maps every label to its address.
	Labels map[string]uint32
}

// Size returns the image size in bytes.
func (p *Program) Size() uint32 {
	return uint32(len(p.Words)) * 4
}

// Bytes returns the big-endian image.
func (p *Program) Bytes() []byte {
	out := make([]byte, 0, p.Size())
	for _, w := range p.Words {
		out = binary.BigEndian.AppendUint32(out, w)
	}
	return out
}

// Install writes the image into m at Origin.
func (p *Program) Install(m mem.Memory) error {
	return mem.LoadWords(m, p.Origin, p.Words...)
}
