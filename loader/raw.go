package loader

import (
	"fmt"
	"os"
)

// LoadRaw reads a flat big-endian image that starts executing at origin.
// The image is padded with zeros to a whole number of words.
func LoadRaw(path string, origin uint32) (*Program, error) {
	if origin%4 != 0 {
		return nil, fmt.Errorf("origin 0x%x is not word aligned", origin)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw image: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("raw image %s is empty", path)
	}

	return FromBytes(origin, data), nil
}

// FromBytes wraps an in-memory image as a single read/write/execute segment.
func FromBytes(origin uint32, data []byte) *Program {
	if pad := len(data) % 4; pad != 0 {
		data = append(data, make([]byte, 4-pad)...)
	}

	return &Program{
		EntryPoint: origin,
		Segments: []Segment{{
			VirtAddr: origin,
			Data:     data,
			MemSize:  uint32(len(data)),
			Flags:    SegmentFlagRead | SegmentFlagWrite | SegmentFlagExecute,
		}},
	}
}
