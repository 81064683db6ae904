package mem

// RAM is a fixed-size memory. Every access must start on, and span a whole
// number of, blockSize-byte blocks.
type RAM struct {
	data      []byte
	blockSize uint32
}

// NewRAM creates a zero-filled RAM of size bytes. A blockSize of 0 is
// treated as 1.
func NewRAM(size, blockSize uint32) *RAM {
	if blockSize == 0 {
		blockSize = 1
	}
	return &RAM{
		data:      make([]byte, size),
		blockSize: blockSize,
	}
}

// Size returns the capacity in bytes.
func (r *RAM) Size() uint32 {
	return uint32(len(r.data))
}

// BlockSize returns the access granularity in bytes.
func (r *RAM) BlockSize() uint32 {
	return r.blockSize
}

func (r *RAM) check(addr uint32, n int) error {
	if n == 0 {
		return ErrInvalidArgument
	}
	if uint64(addr)+uint64(n) > uint64(len(r.data)) {
		return ErrOutOfRange
	}
	if addr%r.blockSize != 0 || uint32(n)%r.blockSize != 0 {
		return ErrUnaligned
	}
	return nil
}

// Read implements Memory.
func (r *RAM) Read(addr uint32, buf []byte) error {
	if err := r.check(addr, len(buf)); err != nil {
		return err
	}
	copy(buf, r.data[addr:])
	return nil
}

// Write implements Memory.
func (r *RAM) Write(addr uint32, buf []byte) error {
	if err := r.check(addr, len(buf)); err != nil {
		return err
	}
	copy(r.data[addr:], buf)
	return nil
}

// Clear zeroes the whole RAM.
func (r *RAM) Clear() {
	clear(r.data)
}
