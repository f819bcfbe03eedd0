// Package liftover translates coordinates between two genome assemblies
// using UCSC chain files.
package liftover

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Block is one gapless aligned stretch of a chain. Source coordinates are
// 0-based half-open on the source contig; target coordinates are kept on
// the forward strand regardless of the chain's strand.
type Block struct {
	SourceStart int64 `json:"sourceStart"`
	SourceEnd   int64 `json:"sourceEnd"`
	TargetStart int64 `json:"targetStart"`
	TargetEnd   int64 `json:"targetEnd"`
}

// Chain is one chain-file record: a scored set of aligned blocks mapping
// a span of a source contig onto a span of a target contig.
type Chain struct {
	ID          int64   `json:"id"`
	Score       int64   `json:"score"`
	SourceName  string  `json:"sourceName"`
	SourceSize  int64   `json:"sourceSize"`
	SourceStart int64   `json:"sourceStart"`
	SourceEnd   int64   `json:"sourceEnd"`
	TargetName  string  `json:"targetName"`
	TargetSize  int64   `json:"targetSize"`
	Reversed    bool    `json:"reversed"`
	Blocks      []Block `json:"blocks"`
}

// MatchFraction is the share of the chain's source span covered by
// aligned blocks.
func (c *Chain) MatchFraction() float64 {
	span := c.SourceEnd - c.SourceStart
	if span <= 0 {
		return 0
	}
	var aligned int64
	for _, b := range c.Blocks {
		aligned += b.SourceEnd - b.SourceStart
	}
	return float64(aligned) / float64(span)
}

// block returns the aligned block containing the 0-based source position,
// or false if the position falls in an alignment gap.
func (c *Chain) block(pos0 int64) (Block, bool) {
	i := sort.Search(len(c.Blocks), func(i int) bool {
		return c.Blocks[i].SourceStart > pos0
	})
	if i == 0 {
		return Block{}, false
	}
	b := c.Blocks[i-1]
	if pos0 >= b.SourceEnd {
		return Block{}, false
	}
	return b, true
}

// ChainSet is every chain of one chain file, indexed by source contig.
type ChainSet struct {
	chains   []*Chain
	byContig map[string][]*Chain // sorted by SourceStart
}

// LoadChains parses a chain file from disk.
func LoadChains(path string) (*ChainSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chain file: %w", err)
	}
	defer f.Close()
	cs, err := ParseChains(f)
	if err != nil {
		return nil, fmt.Errorf("parse chain file %s: %w", path, err)
	}
	return cs, nil
}

// ParseChains parses the UCSC chain format: a header line
// "chain score tName tSize tStrand tStart tEnd qName qSize qStrand qStart qEnd id"
// followed by alignment lines "size dt dq" and a final bare "size".
// The chain's t side is the source assembly, q the target.
func ParseChains(r io.Reader) (*ChainSet, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var chains []*Chain
	var cur *Chain
	var srcCursor, tgtCursor int64
	var tgtStrandNeg bool
	lineNo := 0

	finish := func() error {
		if cur == nil {
			return nil
		}
		if len(cur.Blocks) == 0 {
			return fmt.Errorf("chain %d has no alignment blocks", cur.ID)
		}
		chains = append(chains, cur)
		cur = nil
		return nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if err := finish(); err != nil {
				return nil, err
			}
			continue
		}
		fields := strings.Fields(line)
		if fields[0] == "chain" {
			if err := finish(); err != nil {
				return nil, err
			}
			if len(fields) < 12 {
				return nil, fmt.Errorf("line %d: chain header has %d fields, want at least 12", lineNo, len(fields))
			}
			var nums [8]int64
			for i, f := range []string{fields[1], fields[3], fields[5], fields[6], fields[8], fields[10], fields[11]} {
				n, err := strconv.ParseInt(f, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: bad chain header field %q: %w", lineNo, f, err)
				}
				nums[i] = n
			}
			if fields[4] != "+" {
				return nil, fmt.Errorf("line %d: source strand must be +, got %s", lineNo, fields[4])
			}
			tgtStrandNeg = fields[9] == "-"
			cur = &Chain{
				Score:       nums[0],
				SourceName:  fields[2],
				SourceSize:  nums[1],
				SourceStart: nums[2],
				SourceEnd:   nums[3],
				TargetName:  fields[7],
				TargetSize:  nums[4],
				Reversed:    tgtStrandNeg,
			}
			if len(fields) >= 13 {
				if id, err := strconv.ParseInt(fields[12], 10, 64); err == nil {
					cur.ID = id
				}
			}
			srcCursor, tgtCursor = nums[2], nums[5]
			continue
		}

		if cur == nil {
			return nil, fmt.Errorf("line %d: alignment data outside a chain", lineNo)
		}
		size, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad block size %q: %w", lineNo, fields[0], err)
		}
		b := Block{
			SourceStart: srcCursor,
			SourceEnd:   srcCursor + size,
		}
		if tgtStrandNeg {
			// q coordinates run on the reverse strand; store them forward.
			b.TargetStart = cur.TargetSize - (tgtCursor + size)
			b.TargetEnd = cur.TargetSize - tgtCursor
		} else {
			b.TargetStart = tgtCursor
			b.TargetEnd = tgtCursor + size
		}
		cur.Blocks = append(cur.Blocks, b)

		switch len(fields) {
		case 1:
			// Final block of the chain.
		case 3:
			dt, err1 := strconv.ParseInt(fields[1], 10, 64)
			dq, err2 := strconv.ParseInt(fields[2], 10, 64)
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("line %d: bad alignment gaps %q %q", lineNo, fields[1], fields[2])
			}
			srcCursor += size + dt
			tgtCursor += size + dq
		default:
			return nil, fmt.Errorf("line %d: alignment line has %d fields, want 1 or 3", lineNo, len(fields))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan chain file: %w", err)
	}
	if err := finish(); err != nil {
		return nil, err
	}
	if len(chains) == 0 {
		return nil, fmt.Errorf("chain file contains no chains")
	}
	return newChainSet(chains), nil
}

// NewChainSet builds a chain set from pure-data chain records, e.g. a
// snapshot carried across a process boundary.
func NewChainSet(chains []*Chain) (*ChainSet, error) {
	if len(chains) == 0 {
		return nil, fmt.Errorf("chain set must contain at least one chain")
	}
	return newChainSet(chains), nil
}

func newChainSet(chains []*Chain) *ChainSet {
	cs := &ChainSet{chains: chains, byContig: make(map[string][]*Chain)}
	for _, c := range chains {
		cs.byContig[c.SourceName] = append(cs.byContig[c.SourceName], c)
	}
	for _, list := range cs.byContig {
		sort.Slice(list, func(i, j int) bool {
			return list[i].SourceStart < list[j].SourceStart
		})
	}
	return cs
}

// NChains returns the number of chains in the set.
func (s *ChainSet) NChains() int { return len(s.chains) }

// Chains returns the chains in file order.
func (s *ChainSet) Chains() []*Chain {
	return append([]*Chain(nil), s.chains...)
}

// find returns the highest-scoring chain whose source span contains the
// 0-based position, or nil. Candidates are chains whose SourceStart is at
// or before the position.
func (s *ChainSet) find(contig string, pos0 int64) *Chain {
	list := s.byContig[contig]
	if len(list) == 0 {
		return nil
	}
	hi := sort.Search(len(list), func(i int) bool {
		return list[i].SourceStart > pos0
	})
	var best *Chain
	for _, c := range list[:hi] {
		if pos0 >= c.SourceEnd {
			continue
		}
		if best == nil || c.Score > best.Score {
			best = c
		}
	}
	return best
}
