package genome

import (
	"fmt"
	"strconv"
	"strings"
)

// Contig ordering classes. Numeric-named autosomes sort by numeric value,
// then X, then Y, then mitochondrial, then everything else in declared
// assembly order. Explicit X/Y/MT classification takes precedence over a
// numeric-looking name.
const (
	classNumeric = iota
	classX
	classY
	classMT
	classOther
)

type contigRank struct {
	class int
	key   int64
}

// ReferenceGenome is a validated, immutable genome assembly definition.
// All invariants are checked once at construction; instances are safe for
// unsynchronized concurrent reads.
type ReferenceGenome struct {
	name      string
	contigs   []string
	lengths   map[string]int64
	xContigs  map[string]bool
	yContigs  map[string]bool
	mtContigs map[string]bool
	parInput  [][2]Locus
	par       []Interval

	index map[string]int
	rank  map[string]contigRank
}

// New validates and constructs a ReferenceGenome. parInput pairs each
// define a closed pseudoautosomal block; the block's contig is taken from
// the first locus of the pair.
func New(name string, contigs []string, lengths map[string]int64, xContigs, yContigs, mtContigs []string, parInput [][2]Locus) (*ReferenceGenome, error) {
	if name == "" {
		return nil, &ConfigError{Invariant: "name", Detail: "genome name must be non-empty"}
	}
	if len(contigs) == 0 {
		return nil, &ConfigError{Invariant: "contig list", Detail: fmt.Sprintf("genome %s must have at least one contig", name)}
	}

	index := make(map[string]int, len(contigs))
	for i, c := range contigs {
		if _, dup := index[c]; dup {
			return nil, &ConfigError{Invariant: "contig list", Detail: fmt.Sprintf("contig %s declared more than once", c)}
		}
		index[c] = i
	}

	for _, c := range contigs {
		n, ok := lengths[c]
		if !ok {
			return nil, &ConfigError{Invariant: "missing length", Detail: fmt.Sprintf("contig %s has no declared length", c)}
		}
		if n < 1 {
			return nil, &ConfigError{Invariant: "missing length", Detail: fmt.Sprintf("contig %s has non-positive length %d", c, n)}
		}
	}
	for c := range lengths {
		if _, ok := index[c]; !ok {
			return nil, &ConfigError{Invariant: "length for undeclared contig", Detail: fmt.Sprintf("length declared for unknown contig %s", c)}
		}
	}

	sets := []struct {
		kind  string
		names []string
	}{
		{"X contig", xContigs},
		{"Y contig", yContigs},
		{"MT contig", mtContigs},
	}
	for _, s := range sets {
		for _, c := range s.names {
			if _, ok := index[c]; !ok {
				return nil, &ConfigError{Invariant: "classified contig membership", Detail: fmt.Sprintf("%s %s is not in the contig list", s.kind, c)}
			}
		}
	}

	xSet := toSet(xContigs)
	ySet := toSet(yContigs)
	for c := range xSet {
		if ySet[c] {
			return nil, &ConfigError{Invariant: "X/Y overlap", Detail: fmt.Sprintf("contig %s declared in both xContigs and yContigs", c)}
		}
	}

	for _, pair := range parInput {
		c := pair[0].Contig
		if !xSet[c] && !ySet[c] {
			return nil, &ConfigError{Invariant: "PAR contig membership", Detail: fmt.Sprintf("PAR contig %s is in neither xContigs nor yContigs", c)}
		}
	}

	g := &ReferenceGenome{
		name:      name,
		contigs:   append([]string(nil), contigs...),
		lengths:   copyLengths(lengths),
		xContigs:  xSet,
		yContigs:  ySet,
		mtContigs: toSet(mtContigs),
		parInput:  copyPARInput(parInput),
		index:     index,
	}
	g.rank = buildRanks(g)
	for _, pair := range g.parInput {
		g.par = append(g.par, Interval{
			Start:         pair[0],
			End:           pair[1],
			IncludesStart: true,
			IncludesEnd:   true,
		})
	}
	return g, nil
}

// buildRanks precomputes the ordering table so Compare is an integer
// comparison. Explicit X/Y/MT classification wins over numeric parsing.
func buildRanks(g *ReferenceGenome) map[string]contigRank {
	ranks := make(map[string]contigRank, len(g.contigs))
	for i, c := range g.contigs {
		switch {
		case g.xContigs[c]:
			ranks[c] = contigRank{class: classX, key: int64(i)}
		case g.yContigs[c]:
			ranks[c] = contigRank{class: classY, key: int64(i)}
		case g.mtContigs[c]:
			ranks[c] = contigRank{class: classMT, key: int64(i)}
		default:
			if n, ok := parseContigNumber(c); ok {
				ranks[c] = contigRank{class: classNumeric, key: n}
			} else {
				ranks[c] = contigRank{class: classOther, key: int64(i)}
			}
		}
	}
	return ranks
}

// parseContigNumber recognizes numeric contig names, with or without a
// "chr" prefix.
func parseContigNumber(c string) (int64, bool) {
	s := strings.TrimPrefix(c, "chr")
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Name returns the genome's registry name.
func (g *ReferenceGenome) Name() string { return g.name }

// Contigs returns the declared contig list in assembly order.
func (g *ReferenceGenome) Contigs() []string {
	return append([]string(nil), g.contigs...)
}

// NContigs returns the number of declared contigs.
func (g *ReferenceGenome) NContigs() int { return len(g.contigs) }

// IsValidContig reports whether the contig is declared in this genome.
func (g *ReferenceGenome) IsValidContig(contig string) bool {
	_, ok := g.index[contig]
	return ok
}

// ContigLength returns the declared length of a contig.
func (g *ReferenceGenome) ContigLength(contig string) (int64, error) {
	n, ok := g.lengths[contig]
	if !ok {
		return 0, &NotFoundError{Kind: "contig", Name: contig}
	}
	return n, nil
}

// ContigIndex returns the contig's ordinal position in the declared
// assembly order.
func (g *ReferenceGenome) ContigIndex(contig string) (int, error) {
	i, ok := g.index[contig]
	if !ok {
		return 0, &NotFoundError{Kind: "contig", Name: contig}
	}
	return i, nil
}

// ContigAt returns the contig at the given assembly index.
func (g *ReferenceGenome) ContigAt(i int) (string, error) {
	if i < 0 || i >= len(g.contigs) {
		return "", &NotFoundError{Kind: "contig", Name: fmt.Sprintf("index %d", i)}
	}
	return g.contigs[i], nil
}

// InX reports whether the contig is classified as an X contig.
func (g *ReferenceGenome) InX(contig string) bool { return g.xContigs[contig] }

// InY reports whether the contig is classified as a Y contig.
func (g *ReferenceGenome) InY(contig string) bool { return g.yContigs[contig] }

// IsMitochondrial reports whether the contig is classified as
// mitochondrial.
func (g *ReferenceGenome) IsMitochondrial(contig string) bool { return g.mtContigs[contig] }

// InXPar reports whether the locus is on an X contig and inside a
// pseudoautosomal block.
func (g *ReferenceGenome) InXPar(l Locus) bool {
	return g.xContigs[l.Contig] && g.inPAR(l)
}

// InYPar reports whether the locus is on a Y contig and inside a
// pseudoautosomal block.
func (g *ReferenceGenome) InYPar(l Locus) bool {
	return g.yContigs[l.Contig] && g.inPAR(l)
}

func (g *ReferenceGenome) inPAR(l Locus) bool {
	for _, iv := range g.par {
		if iv.Start.Contig == l.Contig && l.Position >= iv.Start.Position && l.Position <= iv.End.Position {
			return true
		}
	}
	return false
}

// PARIntervals returns the pseudoautosomal blocks as closed intervals.
func (g *ReferenceGenome) PARIntervals() []Interval {
	return append([]Interval(nil), g.par...)
}

// CompareContigs orders two contig names accepted by this genome:
// numeric-named contigs ascending by value, then X, then Y, then
// mitochondrial, then remaining contigs in assembly order. Both contigs
// must be valid in this genome.
func (g *ReferenceGenome) CompareContigs(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := g.rank[a], g.rank[b]
	if ra.class != rb.class {
		return cmpInt(int64(ra.class), int64(rb.class))
	}
	if ra.key != rb.key {
		return cmpInt(ra.key, rb.key)
	}
	// Distinct names with equal numeric value (e.g. "1" vs "01"): fall
	// back to assembly order so the order stays total.
	return cmpInt(int64(g.index[a]), int64(g.index[b]))
}

// CompareLoci orders loci lexicographically on (contig, position) under
// this genome's contig order.
func (g *ReferenceGenome) CompareLoci(a, b Locus) int {
	if c := g.CompareContigs(a.Contig, b.Contig); c != 0 {
		return c
	}
	return cmpInt(a.Position, b.Position)
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// ValidateContigRemap checks that every remap target names a contig this
// genome recognizes.
func (g *ReferenceGenome) ValidateContigRemap(remap map[string]string) error {
	for from, to := range remap {
		if !g.IsValidContig(to) {
			return &ConfigError{
				Invariant: "contig remap",
				Detail:    fmt.Sprintf("remap %s -> %s names unknown contig %s", from, to, to),
			}
		}
	}
	return nil
}

// Copy returns a structurally identical genome under a new name.
func (g *ReferenceGenome) Copy(name string) (*ReferenceGenome, error) {
	s := g.Snapshot()
	s.Name = name
	return FromSnapshot(s)
}

func toSet(names []string) map[string]bool {
	s := make(map[string]bool, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

func copyLengths(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyPARInput(in [][2]Locus) [][2]Locus {
	return append([][2]Locus(nil), in...)
}
