// Package genome models a genome assembly's coordinate system: contigs,
// lengths, sex and mitochondrial contig classification, pseudoautosomal
// regions, and the genome-relative ordering of loci.
package genome

import (
	"fmt"
	"strconv"
	"strings"
)

// Locus is a single 1-based coordinate on a named contig. It carries no
// ordering of its own; comparisons are only meaningful relative to a
// ReferenceGenome.
type Locus struct {
	Contig   string
	Position int64
}

// NewLocus creates a locus. Position must be >= 1.
func NewLocus(contig string, position int64) (Locus, error) {
	if contig == "" {
		return Locus{}, fmt.Errorf("locus contig must be non-empty")
	}
	if position < 1 {
		return Locus{}, fmt.Errorf("locus position must be >= 1, got %d", position)
	}
	return Locus{Contig: contig, Position: position}, nil
}

// ParseLocus parses "contig:position", e.g. "chr7:117559590".
func ParseLocus(s string) (Locus, error) {
	idx := strings.LastIndex(s, ":")
	if idx <= 0 || idx == len(s)-1 {
		return Locus{}, fmt.Errorf("malformed locus %q, want contig:position", s)
	}
	pos, err := strconv.ParseInt(s[idx+1:], 10, 64)
	if err != nil {
		return Locus{}, fmt.Errorf("malformed locus position in %q: %w", s, err)
	}
	return NewLocus(s[:idx], pos)
}

func (l Locus) String() string {
	return fmt.Sprintf("%s:%d", l.Contig, l.Position)
}
