// Package mem provides byte-addressable memory devices for the emulator.
//
// The emulator consumes memory only through the Memory interface. RAM is a
// fixed-size backing store; Cache is a write-back cache that can sit in front
// of any Memory.
package mem

import (
	"encoding/binary"
	"errors"

	"github.com/sarchlab/mipsim/translate"
)

var f = translate.From

var (
	// ErrOutOfRange is returned for accesses past the end of a device.
	ErrOutOfRange = errors.New(f("address out of range"))
	// ErrUnaligned is returned when an address or length is not a multiple
	// of the device block size.
	ErrUnaligned = errors.New(f("unaligned access"))
	// ErrInvalidArgument is returned for empty or malformed requests.
	ErrInvalidArgument = errors.New(f("invalid argument"))
)

// Memory is a byte-addressable store.
type Memory interface {
	// Read fills buf with len(buf) bytes starting at addr.
	Read(addr uint32, buf []byte) error
	// Write stores buf starting at addr.
	Write(addr uint32, buf []byte) error
}

// ReadWord reads the big-endian word at addr.
func ReadWord(m Memory, addr uint32) (uint32, error) {
	var buf [4]byte
	if err := m.Read(addr, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// WriteWord stores value as a big-endian word at addr.
func WriteWord(m Memory, addr uint32, value uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], value)
	return m.Write(addr, buf[:])
}

// LoadWords stores consecutive big-endian words starting at addr.
func LoadWords(m Memory, addr uint32, words ...uint32) error {
	for i, w := range words {
		if err := WriteWord(m, addr+uint32(i)*4, w); err != nil {
			return err
		}
	}
	return nil
}
