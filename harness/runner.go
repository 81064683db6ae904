// Package harness drives an emulator from the outside: it runs programs to
// completion, prints machine state and reports self-test results.
package harness

import (
	"errors"

	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/translate"
)

var f = translate.From

// ErrStepLimit is reported when a run exhausts its step budget.
var ErrStepLimit = errors.New(f("step limit reached"))

// Result summarizes a run.
type Result struct {
	// Steps is the number of committed instructions.
	Steps uint64
	// Halted is set when the program reached a jump to itself.
	Halted bool
	// Err is the fault that stopped the run, or ErrStepLimit.
	Err error
}

// Runner steps an emulator until it halts, faults or runs out of budget.
type Runner struct {
	Emulator *emu.Emulator

	// MaxSteps bounds the run. 0 means no limit.
	MaxSteps uint64
}

// Run executes from the current PC. A step that leaves PC unchanged is the
// halt idiom ("done: j done") and ends the run successfully.
func (r *Runner) Run() Result {
	var res Result

	for r.MaxSteps == 0 || res.Steps < r.MaxSteps {
		pc, err := r.Emulator.PC()
		if err != nil {
			res.Err = err
			return res
		}

		if err := r.Emulator.Step(); err != nil {
			res.Err = err
			return res
		}
		res.Steps++

		next, _ := r.Emulator.PC()
		if next == pc {
			res.Halted = true
			return res
		}
	}

	res.Err = ErrStepLimit

	return res
}
