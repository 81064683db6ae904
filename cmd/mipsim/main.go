// Package main provides the mipsim command: it loads a big-endian MIPS-I
// program into RAM, runs it on the functional emulator and prints the final
// machine state.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/mipsim/asm"
	"github.com/sarchlab/mipsim/config"
	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/harness"
	"github.com/sarchlab/mipsim/loader"
	"github.com/sarchlab/mipsim/mem"
)

var (
	configPath  = flag.String("config", "", "Path to machine configuration JSON file")
	writeConfig = flag.String("write-config", "", "Write the effective configuration to this path and exit")
	maxSteps    = flag.Uint64("steps", 0, "Step budget (overrides the configuration; 0 keeps it)")
	debugLevel  = flag.Uint("v", 0, "Trace verbosity: 1 faults, 2 every step, 3 retire counts")
	asAsm       = flag.Bool("asm", false, "Program is assembler source")
	asBin       = flag.Bool("bin", false, "Program is a raw big-endian image")
	asELF       = flag.Bool("elf", false, "Program is a MIPS ELF32 executable (default)")
	origin      = flag.Uint("origin", 0, "Load address of -bin images (default: the configured entry_pc)")
	selfTest    = flag.Bool("selftest", false, "Run the built-in instruction tests")
)

// passed holds the names of the flags given on the command line.
var passed = map[string]bool{}


func main() {
	flag.Parse()
	flag.Visit(func(fl *flag.Flag) { passed[fl.Name] = true })

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *writeConfig != "" {
		if err := cfg.Save(*writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *selfTest {
		os.Exit(runSelfTest(cfg))
	}

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: mipsim [options] [-asm|-bin|-elf] <program>\n")
		fmt.Fprintf(os.Stderr, "       mipsim -selftest\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	os.Exit(run(cfg, flag.Arg(0)))
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			return nil, err
		}
	}

	if passed["steps"] {
		cfg.MaxSteps = *maxSteps
	}
	if passed["v"] {
		cfg.DebugLevel = *debugLevel
	}

	return cfg, cfg.Validate()
}

// loadProgram reads the program in the format selected on the command line.
// Raw images load at -origin, or at the configured entry PC without it.
func loadProgram(cfg *config.Config, path string) (*loader.Program, error) {
	switch {
	case *asAsm:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open source: %w", err)
		}
		defer func() { _ = f.Close() }()

		prog, err := (&asm.Assembler{Verbose: cfg.DebugLevel >= 2}).Parse(f)
		if err != nil {
			return nil, err
		}
		return loader.FromBytes(prog.Origin, prog.Bytes()), nil
	case *asBin:
		at := cfg.EntryPC
		if passed["origin"] {
			at = uint32(*origin)
		}
		return loader.LoadRaw(path, at)
	default:
		return loader.Load(path)
	}
}

func run(cfg *config.Config, path string) int {
	if *asAsm && *asBin || *asAsm && *asELF || *asBin && *asELF {
		fmt.Fprintf(os.Stderr, "Only one of -asm, -bin and -elf may be given\n")
		return 1
	}

	prog, err := loadProgram(cfg, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		return 1
	}

	top, _, cache := cfg.NewMemory()
	if err := prog.Install(top); err != nil {
		fmt.Fprintf(os.Stderr, "Error installing program: %v\n", err)
		return 1
	}

	e := emu.NewEmulator(top, cfg.EmulatorOptions()...)
	defer func() { _ = e.Close() }()

	if err := e.SetPC(prog.EntryPoint); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if cfg.DebugLevel > 0 {
		fmt.Printf("Loaded: %s\n", path)
		fmt.Printf("Entry point: 0x%08X\n", prog.EntryPoint)
		fmt.Printf("Segments: %d\n", len(prog.Segments))
		for _, seg := range prog.Segments {
			fmt.Printf("  0x%08X %8d bytes %s\n", seg.VirtAddr, seg.MemSize, seg.Flags)
		}
	}

	res := (&harness.Runner{Emulator: e, MaxSteps: cfg.MaxSteps}).Run()

	if cache != nil {
		if err := cache.Flush(); err != nil {
			logrus.WithError(err).Warn("cache flush failed")
		}
	}

	fmt.Printf("Instructions executed: %d\n", res.Steps)
	_ = harness.DumpRegisters(os.Stdout, e)

	if cache != nil {
		printCacheStats(cache)
	}

	switch {
	case res.Err == nil:
		return 0
	case errors.Is(res.Err, harness.ErrStepLimit):
		fmt.Fprintf(os.Stderr, "Stopped: %v after %d steps\n", res.Err, res.Steps)
		return 2
	default:
		logrus.WithField("steps", res.Steps).WithError(res.Err).Error("emulation fault")
		return 1
	}
}

func printCacheStats(cache *mem.Cache) {
	stats := cache.Stats()
	fmt.Printf("Cache: %d reads, %d writes, %d hits, %d misses, %d evictions, %d writebacks\n",
		stats.Reads, stats.Writes, stats.Hits, stats.Misses, stats.Evictions, stats.Writebacks)
}

func runSelfTest(cfg *config.Config) int {
	suite := &harness.Suite{}

	failures := harness.SelfTest(suite, func() (*emu.Emulator, mem.Memory) {
		top, _, _ := cfg.NewMemory()
		return emu.NewEmulator(top, cfg.EmulatorOptions()...), top
	})

	_ = suite.Summary(os.Stdout)

	if failures > 0 {
		return 1
	}
	return 0
}
