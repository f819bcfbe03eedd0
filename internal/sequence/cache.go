package sequence

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultBlockSize is the number of bases per cached block.
const DefaultBlockSize = 4096

// DefaultCacheBlocks bounds the resident block count per reader.
const DefaultCacheBlocks = 256

// BlockKey addresses one fixed-size block of a contig's sequence.
type BlockKey struct {
	Contig string
	Index  int64
}

// BlockCache is a bounded, LRU-evicting cache of sequence blocks. Entries
// are complete, immutable byte slices; a racing duplicate fetch for the
// same key overwrites with identical content, so entries are never
// partially written.
type BlockCache struct {
	blocks *lru.Cache[BlockKey, []byte]
}

// NewBlockCache creates a cache bounded to maxBlocks resident blocks.
func NewBlockCache(maxBlocks int) (*BlockCache, error) {
	c, err := lru.New[BlockKey, []byte](maxBlocks)
	if err != nil {
		return nil, err
	}
	return &BlockCache{blocks: c}, nil
}

// Get returns the cached block and marks it recently used.
func (c *BlockCache) Get(k BlockKey) ([]byte, bool) {
	return c.blocks.Get(k)
}

// Put inserts a block, evicting the least-recently-used block if the
// cache is full.
func (c *BlockCache) Put(k BlockKey, block []byte) {
	c.blocks.Add(k, block)
}

// Len returns the resident block count.
func (c *BlockCache) Len() int {
	return c.blocks.Len()
}
