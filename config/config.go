// Package config describes the machine an emulator runs on: memory size,
// cache geometry, entry point, step budget and diagnostics.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/mem"
)

// CacheConfig describes the optional data cache in front of RAM.
type CacheConfig struct {
	// Enabled places a write-back cache between the core and RAM.
	Enabled bool `json:"enabled"`

	// Size is the total capacity in bytes. Default: 4096.
	Size int `json:"size"`

	// Associativity is the number of ways per set. Default: 4.
	Associativity int `json:"associativity"`

	// BlockSize is the line size in bytes. Default: 32.
	BlockSize int `json:"block_size"`
}

// Config holds the machine configuration.
type Config struct {
	// MemorySize is the RAM size in bytes. Default: 64 KiB.
	MemorySize uint32 `json:"memory_size"`

	// MemoryBlockSize is the access granularity of the RAM. Default: 4.
	MemoryBlockSize uint32 `json:"memory_block_size"`

	// EntryPC is the initial PC of a new emulator and the load address of
	// raw images given without -origin.
	EntryPC uint32 `json:"entry_pc"`

	// MaxSteps bounds a run. 0 means no limit. Default: 100000.
	MaxSteps uint64 `json:"max_steps"`

	// DebugLevel selects the verbosity of the step tracer. Default: 0.
	DebugLevel uint `json:"debug_level"`

	// StrictPartialWord requires LWL/LWR addresses to be word aligned.
	// Default: true.
	StrictPartialWord bool `json:"strict_partial_word"`

	Cache CacheConfig `json:"cache"`
}

// Default returns a Config with the default values.
func Default() *Config {
	return &Config{
		MemorySize:        64 * 1024,
		MemoryBlockSize:   4,
		EntryPC:           0,
		MaxSteps:          100000,
		DebugLevel:        0,
		StrictPartialWord: true,
		Cache: CacheConfig{
			Enabled:       false,
			Size:          4096,
			Associativity: 4,
			BlockSize:     32,
		},
	}
}

// Load loads a Config from a JSON file. Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return config, nil
}

// Save writes the Config to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func isPowerOfTwo(v int) bool {
	return v > 0 && v&(v-1) == 0
}

// Validate checks that the memory and cache geometry are usable.
func (c *Config) Validate() error {
	if c.MemorySize == 0 || c.MemorySize%4 != 0 {
		return fmt.Errorf("memory_size must be a positive multiple of 4")
	}
	switch c.MemoryBlockSize {
	case 1, 2, 4:
	default:
		return fmt.Errorf("memory_block_size must be 1, 2 or 4")
	}
	if c.EntryPC%4 != 0 {
		return fmt.Errorf("entry_pc must be word aligned")
	}
	if c.EntryPC >= c.MemorySize {
		return fmt.Errorf("entry_pc must be inside memory")
	}

	if !c.Cache.Enabled {
		return nil
	}

	if !isPowerOfTwo(c.Cache.Size) {
		return fmt.Errorf("cache.size must be a power of two")
	}
	if !isPowerOfTwo(c.Cache.Associativity) {
		return fmt.Errorf("cache.associativity must be a power of two")
	}
	if !isPowerOfTwo(c.Cache.BlockSize) || c.Cache.BlockSize < 4 {
		return fmt.Errorf("cache.block_size must be a power of two >= 4")
	}
	if c.Cache.Size%(c.Cache.Associativity*c.Cache.BlockSize) != 0 {
		return fmt.Errorf("cache.size must be divisible by associativity * block_size")
	}
	if c.MemorySize%uint32(c.Cache.BlockSize) != 0 {
		return fmt.Errorf("memory_size must be a multiple of cache.block_size")
	}

	return nil
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// NewMemory builds the memory system described by the Config. The RAM is
// always returned so callers can bypass the cache; cache is nil when
// disabled.
func (c *Config) NewMemory() (top mem.Memory, ram *mem.RAM, cache *mem.Cache) {
	ram = mem.NewRAM(c.MemorySize, c.MemoryBlockSize)
	if !c.Cache.Enabled {
		return ram, ram, nil
	}

	cache = mem.NewCache(mem.CacheConfig{
		Size:          c.Cache.Size,
		Associativity: c.Cache.Associativity,
		BlockSize:     c.Cache.BlockSize,
	}, ram)

	return cache, ram, cache
}

// EmulatorOptions returns the emulator options implied by the Config.
func (c *Config) EmulatorOptions() []emu.EmulatorOption {
	opts := []emu.EmulatorOption{
		emu.WithDebugLevel(c.DebugLevel),
		emu.WithEntryPoint(c.EntryPC),
	}
	if !c.StrictPartialWord {
		opts = append(opts, emu.WithUnalignedPartialWord())
	}
	return opts
}
