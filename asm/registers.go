package asm

import (
	"strconv"
	"strings"
)

var abiNames = map[string]uint8{
	"zero": 0, "at": 1,
	"v0": 2, "v1": 3,
	"a0": 4, "a1": 5, "a2": 6, "a3": 7,
	"t0": 8, "t1": 9, "t2": 10, "t3": 11, "t4": 12, "t5": 13, "t6": 14, "t7": 15,
	"s0": 16, "s1": 17, "s2": 18, "s3": 19, "s4": 20, "s5": 21, "s6": 22, "s7": 23,
	"t8": 24, "t9": 25,
	"k0": 26, "k1": 27,
	"gp": 28, "sp": 29, "fp": 30, "s8": 30, "ra": 31,
}

// RegisterName returns the ABI name of register r.
func RegisterName(r uint8) string {
	for name, n := range abiNames {
		if n == r && name != "s8" {
			return name
		}
	}
	return strconv.Itoa(int(r))
}

// parseRegister accepts $0-$31 and the ABI names with a leading $.
func parseRegister(word string) (uint8, error) {
	word = strings.TrimSpace(word)
	if len(word) < 2 || word[0] != '$' {
		return 0, ErrRegisterInvalid
	}

	name := strings.ToLower(word[1:])
	if n, ok := abiNames[name]; ok {
		return n, nil
	}

	n, err := strconv.ParseUint(name, 10, 8)
	if err != nil || n > 31 {
		return 0, ErrRegisterInvalid
	}

	return uint8(n), nil
}
