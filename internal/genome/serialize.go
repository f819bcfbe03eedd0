package genome

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// Snapshot is the pure-data form of a ReferenceGenome: everything needed
// to reconstruct it, with no behavior attached. It is the serialization
// format for genome files and the unit handed across process or
// code-generation boundaries.
type Snapshot struct {
	Name      string           `json:"name"`
	Contigs   []string         `json:"contigs"`
	Lengths   map[string]int64 `json:"lengths"`
	XContigs  []string         `json:"xContigs"`
	YContigs  []string         `json:"yContigs"`
	MTContigs []string         `json:"mtContigs"`
	PARInput  []PARPair        `json:"parInput"`
}

// PARPair is one pseudoautosomal block given as its two bounding loci.
// It marshals as [[contig, pos], [contig, pos]].
type PARPair [2]Locus

func (p PARPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2][2]any{
		{p[0].Contig, p[0].Position},
		{p[1].Contig, p[1].Position},
	})
}

func (p *PARPair) UnmarshalJSON(data []byte) error {
	var raw [2][2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("PAR pair: %w", err)
	}
	for i := range raw {
		var contig string
		var pos int64
		if err := json.Unmarshal(raw[i][0], &contig); err != nil {
			return fmt.Errorf("PAR pair contig: %w", err)
		}
		if err := json.Unmarshal(raw[i][1], &pos); err != nil {
			return fmt.Errorf("PAR pair position: %w", err)
		}
		p[i] = Locus{Contig: contig, Position: pos}
	}
	return nil
}

// Snapshot returns the genome's full structural state. Set membership is
// emitted in sorted order so output is deterministic.
func (g *ReferenceGenome) Snapshot() Snapshot {
	pairs := make([]PARPair, len(g.parInput))
	for i, p := range g.parInput {
		pairs[i] = PARPair(p)
	}
	return Snapshot{
		Name:      g.name,
		Contigs:   g.Contigs(),
		Lengths:   copyLengths(g.lengths),
		XContigs:  sortedNames(g.xContigs),
		YContigs:  sortedNames(g.yContigs),
		MTContigs: sortedNames(g.mtContigs),
		PARInput:  pairs,
	}
}

// FromSnapshot reconstructs a validated genome from its pure-data form.
func FromSnapshot(s Snapshot) (*ReferenceGenome, error) {
	pairs := make([][2]Locus, len(s.PARInput))
	for i, p := range s.PARInput {
		pairs[i] = [2]Locus(p)
	}
	return New(s.Name, s.Contigs, s.Lengths, s.XContigs, s.YContigs, s.MTContigs, pairs)
}

// Write serializes the genome to a JSON file that Read can reconstruct.
func (g *ReferenceGenome) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create genome file: %w", err)
	}
	if err := g.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteTo serializes the genome as indented JSON.
func (g *ReferenceGenome) WriteTo(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g.Snapshot()); err != nil {
		return fmt.Errorf("encode genome %s: %w", g.name, err)
	}
	return nil
}

// Read reconstructs a genome from a file written by Write, running the
// full construction validation.
func Read(path string) (*ReferenceGenome, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open genome file: %w", err)
	}
	defer f.Close()
	g, err := ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("read genome file %s: %w", path, err)
	}
	return g, nil
}

// ReadFrom decodes and validates a genome from JSON.
func ReadFrom(r io.Reader) (*ReferenceGenome, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode genome json: %w", err)
	}
	return FromSnapshot(s)
}

func sortedNames(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
