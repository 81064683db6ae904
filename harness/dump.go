package harness

import (
	"fmt"
	"io"

	"github.com/sarchlab/mipsim/asm"
	"github.com/sarchlab/mipsim/emu"
)

// DumpRegisters prints the general-purpose registers four to a line,
// followed by PC, NPC, HI and LO.
func DumpRegisters(w io.Writer, e *emu.Emulator) error {
	if _, err := e.PC(); err != nil {
		return err
	}

	rf := e.RegFile()

	for i := 0; i < 32; i++ {
		sep := "  "
		if i%4 == 3 {
			sep = "\n"
		}
		name := fmt.Sprintf("$%d/%s", i, asm.RegisterName(uint8(i)))
		if _, err := fmt.Fprintf(w, "%-9s 0x%08x%s", name, rf.R[i], sep); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "pc        0x%08x  npc       0x%08x  hi        0x%08x  lo        0x%08x\n",
		rf.PC, rf.NPC, rf.HI, rf.LO)

	return err
}
