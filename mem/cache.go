package mem

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// CacheConfig holds cache geometry.
type CacheConfig struct {
	// Size in bytes
	Size int
	// Associativity (number of ways)
	Associativity int
	// BlockSize in bytes (cache line size)
	BlockSize int
}

// DefaultCacheConfig returns a small 4KB, 4-way cache with 32B lines.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Size:          4 * 1024,
		Associativity: 4,
		BlockSize:     32,
	}
}

// CacheStats holds cache statistics.
type CacheStats struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// Cache is a write-back, write-allocate set-associative cache in front of a
// backing Memory. Tag and LRU state live in an Akita cache directory.
type Cache struct {
	config CacheConfig

	directory *akitacache.DirectoryImpl

	// Data storage - indexed by (setID * associativity + wayID)
	dataStore [][]byte

	stats   CacheStats
	backing Memory
}

// NewCache creates a cache with the given configuration over backing.
func NewCache(config CacheConfig, backing Memory) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() CacheConfig {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() CacheStats {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = CacheStats{}
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) blockAddr(addr uint64) uint64 {
	bs := uint64(c.config.BlockSize)
	return (addr / bs) * bs
}

// Read implements Memory. Requests may span several lines.
func (c *Cache) Read(addr uint32, buf []byte) error {
	if len(buf) == 0 {
		return ErrInvalidArgument
	}
	c.stats.Reads++

	return c.each(uint64(addr), len(buf), func(line []byte, offset, done, n int) {
		copy(buf[done:done+n], line[offset:offset+n])
	}, false)
}

// Write implements Memory. A miss fetches the line before writing into it.
func (c *Cache) Write(addr uint32, buf []byte) error {
	if len(buf) == 0 {
		return ErrInvalidArgument
	}
	c.stats.Writes++

	return c.each(uint64(addr), len(buf), func(line []byte, offset, done, n int) {
		copy(line[offset:offset+n], buf[done:done+n])
	}, true)
}

// each walks the lines covered by [addr, addr+size) and hands each resident
// line to fn, allocating lines on a miss.
func (c *Cache) each(addr uint64, size int, fn func(line []byte, offset, done, n int), dirty bool) error {
	bs := c.config.BlockSize
	done := 0

	for done < size {
		cur := addr + uint64(done)
		offset := int(cur % uint64(bs))
		n := min(bs-offset, size-done)

		block, err := c.lookup(c.blockAddr(cur))
		if err != nil {
			return err
		}

		fn(c.dataStore[c.blockIndex(block)], offset, done, n)
		if dirty {
			block.IsDirty = true
		}
		c.directory.Visit(block)

		done += n
	}

	return nil
}

// lookup returns the resident block for blockAddr, filling it on a miss.
func (c *Cache) lookup(blockAddr uint64) (*akitacache.Block, error) {
	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		return block, nil
	}

	c.stats.Misses++

	victim := c.directory.FindVictim(blockAddr)
	victimData := c.dataStore[c.blockIndex(victim)]

	if victim.IsValid {
		c.stats.Evictions++
		if victim.IsDirty {
			if err := c.backing.Write(uint32(victim.Tag), victimData); err != nil {
				return nil, err
			}
			c.stats.Writebacks++
		}
		victim.IsValid = false
		victim.IsDirty = false
	}

	if err := c.backing.Read(uint32(blockAddr), victimData); err != nil {
		return nil, err
	}

	// Tag stores the block-aligned address
	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false

	return victim, nil
}

// Invalidate drops the line holding addr without writing it back.
func (c *Cache) Invalidate(addr uint32) {
	block := c.directory.Lookup(0, c.blockAddr(uint64(addr)))
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Flush writes back all dirty lines and invalidates every line.
func (c *Cache) Flush() error {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty {
				if err := c.backing.Write(uint32(block.Tag), c.dataStore[c.blockIndex(block)]); err != nil {
					return err
				}
				c.stats.Writebacks++
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
	return nil
}

// Reset invalidates all lines without writeback and clears statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = CacheStats{}
}
