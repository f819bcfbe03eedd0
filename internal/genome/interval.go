package genome

import "fmt"

// Interval is a range between two loci with independent start/end
// inclusivity. Validity (start <= end) is relative to one ReferenceGenome's
// ordering, checked by ReferenceGenome.NewInterval.
type Interval struct {
	Start         Locus
	End           Locus
	IncludesStart bool
	IncludesEnd   bool
}

// NewInterval builds an interval and checks it against this genome: both
// loci must be on known contigs with in-range positions, and start must not
// order after end. An interval where start equals end with both ends
// exclusive is empty and rejected.
func (g *ReferenceGenome) NewInterval(start, end Locus, includesStart, includesEnd bool) (Interval, error) {
	for _, l := range []Locus{start, end} {
		n, err := g.ContigLength(l.Contig)
		if err != nil {
			return Interval{}, err
		}
		if l.Position < 1 || l.Position > n {
			return Interval{}, &RangeError{Contig: l.Contig, Position: l.Position, Length: n}
		}
	}
	c := g.CompareLoci(start, end)
	if c > 0 {
		return Interval{}, fmt.Errorf("interval start %s orders after end %s", start, end)
	}
	if c == 0 && !(includesStart && includesEnd) {
		return Interval{}, fmt.Errorf("interval %s-%s is empty", start, end)
	}
	return Interval{Start: start, End: end, IncludesStart: includesStart, IncludesEnd: includesEnd}, nil
}

// Contains reports whether the locus falls inside the interval under this
// genome's ordering.
func (g *ReferenceGenome) Contains(iv Interval, l Locus) bool {
	cs := g.CompareLoci(iv.Start, l)
	ce := g.CompareLoci(l, iv.End)
	if cs > 0 || ce > 0 {
		return false
	}
	if cs == 0 && !iv.IncludesStart {
		return false
	}
	if ce == 0 && !iv.IncludesEnd {
		return false
	}
	return true
}

func (iv Interval) String() string {
	lb, rb := "(", ")"
	if iv.IncludesStart {
		lb = "["
	}
	if iv.IncludesEnd {
		rb = "]"
	}
	return fmt.Sprintf("%s%s-%s%s", lb, iv.Start, iv.End, rb)
}
