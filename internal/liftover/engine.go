package liftover

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/strandtools/refgenome/internal/genome"
)

// Engine manages one chain mapping per target assembly name for a single
// source genome. Chain sets are read-mostly after AddLiftover; add and
// remove for the same target are serialized by the engine's lock.
type Engine struct {
	genome *genome.ReferenceGenome
	mu     sync.RWMutex
	chains map[string]*ChainSet
	logger *zap.Logger
}

// LiftedLocus is a successfully translated locus in the target assembly,
// with a flag set when the containing chain aligns to the reverse strand.
type LiftedLocus struct {
	Locus          genome.Locus
	NegativeStrand bool
}

// LiftedInterval is a successfully translated interval in the target
// assembly.
type LiftedInterval struct {
	Interval       genome.Interval
	NegativeStrand bool
}

// NewEngine creates a liftover engine for the given source genome.
func NewEngine(g *genome.ReferenceGenome) *Engine {
	return &Engine{
		genome: g,
		chains: make(map[string]*ChainSet),
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for chain-load reporting.
func (e *Engine) SetLogger(l *zap.Logger) { e.logger = l }

// Genome returns the source genome this engine translates from.
func (e *Engine) Genome() *genome.ReferenceGenome { return e.genome }

// AddLiftover parses a chain file and attaches it under the target
// assembly name. Adding a target that already has a mapping is an error;
// use ReplaceLiftover to overwrite deliberately.
func (e *Engine) AddLiftover(chainPath, targetName string) error {
	return e.attach(chainPath, targetName, false)
}

// ReplaceLiftover parses a chain file and attaches it under the target
// assembly name, replacing any existing mapping.
func (e *Engine) ReplaceLiftover(chainPath, targetName string) error {
	return e.attach(chainPath, targetName, true)
}

func (e *Engine) attach(chainPath, targetName string, replace bool) error {
	cs, err := LoadChains(chainPath)
	if err != nil {
		return err
	}
	for _, c := range cs.chains {
		if !e.genome.IsValidContig(c.SourceName) {
			return fmt.Errorf("chain file %s maps contig %s unknown to genome %s",
				chainPath, c.SourceName, e.genome.Name())
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.chains[targetName]; exists && !replace {
		return fmt.Errorf("liftover to %s already configured for genome %s", targetName, e.genome.Name())
	}
	e.chains[targetName] = cs
	e.logger.Info("liftover configured",
		zap.String("source", e.genome.Name()),
		zap.String("target", targetName),
		zap.Int("chains", cs.NChains()))
	return nil
}

// RemoveLiftover detaches the mapping for a target assembly. Subsequent
// lookups for that target fail as not configured.
func (e *Engine) RemoveLiftover(targetName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.chains[targetName]; !exists {
		return &genome.NotFoundError{Kind: "liftover", Name: targetName}
	}
	delete(e.chains, targetName)
	return nil
}

// HasLiftover reports whether a mapping is configured for the target.
func (e *Engine) HasLiftover(targetName string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.chains[targetName]
	return ok
}

// Targets returns the configured target assembly names, sorted.
func (e *Engine) Targets() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.chains))
	for n := range e.chains {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (e *Engine) chainSet(targetName string) (*ChainSet, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cs, ok := e.chains[targetName]
	if !ok {
		return nil, &genome.NotFoundError{Kind: "liftover", Name: targetName}
	}
	return cs, nil
}

// ChainSnapshot returns the target's chain records as pure data. Together
// with the source genome's snapshot it fully determines liftover answers,
// so a host can serialize both and rebuild the mapping elsewhere with
// AttachChains.
func (e *Engine) ChainSnapshot(targetName string) ([]*Chain, error) {
	cs, err := e.chainSet(targetName)
	if err != nil {
		return nil, err
	}
	return cs.Chains(), nil
}

// AttachChains configures a target from chain records instead of a chain
// file. Like AddLiftover, an existing mapping for the target is an error.
func (e *Engine) AttachChains(chains []*Chain, targetName string) error {
	cs, err := NewChainSet(chains)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.chains[targetName]; exists {
		return fmt.Errorf("liftover to %s already configured for genome %s", targetName, e.genome.Name())
	}
	e.chains[targetName] = cs
	return nil
}

// LiftoverLocus translates a locus into the target assembly. A nil result
// with a nil error means the position has no mapping: no chain covers it,
// it falls in an alignment gap, or the containing chain's match fraction
// is below minMatch. Those are expected outcomes, not errors.
func (e *Engine) LiftoverLocus(targetName string, l genome.Locus, minMatch float64) (*LiftedLocus, error) {
	cs, err := e.prepare(targetName, l, minMatch)
	if err != nil {
		return nil, err
	}
	return liftLocus(cs, l, minMatch)
}

// LiftoverInterval translates an interval into the target assembly. Both
// endpoints must land in aligned blocks of the same chain; on a
// reverse-strand chain the endpoints and inclusivity flags swap so the
// result is still ordered start-to-end. A nil result with nil error means
// the interval is unmapped under the same rules as LiftoverLocus.
func (e *Engine) LiftoverInterval(targetName string, iv genome.Interval, minMatch float64) (*LiftedInterval, error) {
	cs, err := e.prepare(targetName, iv.Start, minMatch)
	if err != nil {
		return nil, err
	}
	if err := e.checkLocus(iv.End); err != nil {
		return nil, err
	}

	start0 := iv.Start.Position - 1
	chain := cs.find(iv.Start.Contig, start0)
	if chain == nil || chain.MatchFraction() < minMatch {
		return nil, nil
	}
	if iv.End.Contig != iv.Start.Contig {
		return nil, nil
	}
	end0 := iv.End.Position - 1

	sb, ok := chain.block(start0)
	if !ok {
		return nil, nil
	}
	eb, ok := chain.block(end0)
	if !ok {
		return nil, nil
	}

	startT := project(chain, sb, start0)
	endT := project(chain, eb, end0)
	out := LiftedInterval{NegativeStrand: chain.Reversed}
	if chain.Reversed {
		out.Interval = genome.Interval{
			Start:         genome.Locus{Contig: chain.TargetName, Position: endT + 1},
			End:           genome.Locus{Contig: chain.TargetName, Position: startT + 1},
			IncludesStart: iv.IncludesEnd,
			IncludesEnd:   iv.IncludesStart,
		}
	} else {
		out.Interval = genome.Interval{
			Start:         genome.Locus{Contig: chain.TargetName, Position: startT + 1},
			End:           genome.Locus{Contig: chain.TargetName, Position: endT + 1},
			IncludesStart: iv.IncludesStart,
			IncludesEnd:   iv.IncludesEnd,
		}
	}
	return &out, nil
}

func (e *Engine) prepare(targetName string, l genome.Locus, minMatch float64) (*ChainSet, error) {
	if minMatch < 0 || minMatch > 1 {
		return nil, fmt.Errorf("minMatch must be in [0,1], got %g", minMatch)
	}
	if err := e.checkLocus(l); err != nil {
		return nil, err
	}
	return e.chainSet(targetName)
}

func (e *Engine) checkLocus(l genome.Locus) error {
	n, err := e.genome.ContigLength(l.Contig)
	if err != nil {
		return err
	}
	if l.Position < 1 || l.Position > n {
		return &genome.RangeError{Contig: l.Contig, Position: l.Position, Length: n}
	}
	return nil
}

func liftLocus(cs *ChainSet, l genome.Locus, minMatch float64) (*LiftedLocus, error) {
	pos0 := l.Position - 1
	chain := cs.find(l.Contig, pos0)
	if chain == nil || chain.MatchFraction() < minMatch {
		return nil, nil
	}
	b, ok := chain.block(pos0)
	if !ok {
		return nil, nil
	}
	return &LiftedLocus{
		Locus:          genome.Locus{Contig: chain.TargetName, Position: project(chain, b, pos0) + 1},
		NegativeStrand: chain.Reversed,
	}, nil
}

// project maps a 0-based source position inside a block onto the target,
// flipping the offset direction on reverse-strand chains.
func project(c *Chain, b Block, pos0 int64) int64 {
	off := pos0 - b.SourceStart
	if c.Reversed {
		return b.TargetEnd - 1 - off
	}
	return b.TargetStart + off
}
