// Package main provides the entry point for mipsim.
// mipsim is a functional MIPS-I emulator that executes one instruction per
// step against a pluggable memory.
//
// For the full CLI, use: go run ./cmd/mipsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("mipsim - MIPS-I Functional Emulator")
	fmt.Println("")
	fmt.Println("Usage: mipsim [options] [-asm|-bin|-elf] <program>")
	fmt.Println("       mipsim -selftest")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to machine configuration JSON file")
	fmt.Println("  -steps     Step budget")
	fmt.Println("  -v         Trace verbosity (0-3)")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/mipsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/mipsim' instead.")
	}
}
