package liftover

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandtools/refgenome/internal/genome"
)

// Chain 1: forward strand, two blocks with a 50-base gap on each side.
// Source span 1:[100,550), aligned 400/450 bases (match fraction 0.889).
// Chain 2: reverse strand, one block mapping 2:[0,100) onto the last 100
// bases of target contig 1.
const testChains = `chain 1000 1 1000 + 100 550 1 2000 + 500 950 1
200 50 50
200

chain 900 2 800 + 0 100 1 2000 - 0 100 2
100

`

func sourceGenome(t *testing.T) *genome.ReferenceGenome {
	t.Helper()
	g, err := genome.New("src",
		[]string{"1", "2"},
		map[string]int64{"1": 1000, "2": 800},
		nil, nil, nil, nil)
	require.NoError(t, err)
	return g
}

func writeChainFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.chain")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(sourceGenome(t))
	require.NoError(t, e.AddLiftover(writeChainFile(t, testChains), "dst"))
	return e
}

func TestParseChains(t *testing.T) {
	cs, err := ParseChains(strings.NewReader(testChains))
	require.NoError(t, err)
	require.Equal(t, 2, cs.NChains())

	chains := cs.Chains()
	c := chains[0]
	assert.Equal(t, "1", c.SourceName)
	assert.Equal(t, "1", c.TargetName)
	assert.False(t, c.Reversed)
	require.Len(t, c.Blocks, 2)
	assert.Equal(t, Block{SourceStart: 100, SourceEnd: 300, TargetStart: 500, TargetEnd: 700}, c.Blocks[0])
	assert.Equal(t, Block{SourceStart: 350, SourceEnd: 550, TargetStart: 750, TargetEnd: 950}, c.Blocks[1])
	assert.InDelta(t, 400.0/450.0, c.MatchFraction(), 1e-9)

	rc := chains[1]
	assert.True(t, rc.Reversed)
	require.Len(t, rc.Blocks, 1)
	// Reverse-strand target coordinates are stored forward.
	assert.Equal(t, Block{SourceStart: 0, SourceEnd: 100, TargetStart: 1900, TargetEnd: 2000}, rc.Blocks[0])
	assert.InDelta(t, 1.0, rc.MatchFraction(), 1e-9)
}

func TestParseChainsRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"data before header", "100 10 10\n"},
		{"short header", "chain 1000 1 1000 +\n100\n"},
		{"reverse source strand", "chain 1000 1 1000 - 0 100 1 2000 + 0 100 1\n100\n"},
		{"bad block size", "chain 1000 1 1000 + 0 100 1 2000 + 0 100 1\nabc\n"},
		{"two-field alignment line", "chain 1000 1 1000 + 0 100 1 2000 + 0 100 1\n50 10\n"},
		{"header with no blocks", "chain 1000 1 1000 + 0 100 1 2000 + 0 100 1\n\nchain 900 1 1000 + 0 50 1 2000 + 0 50 2\n50\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseChains(strings.NewReader(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestLiftoverLocusForward(t *testing.T) {
	e := testEngine(t)

	got, err := e.LiftoverLocus("dst", genome.Locus{Contig: "1", Position: 150}, 0.8)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, genome.Locus{Contig: "1", Position: 550}, got.Locus)
	assert.False(t, got.NegativeStrand)

	// Second block projects through the alignment gap offset.
	got, err = e.LiftoverLocus("dst", genome.Locus{Contig: "1", Position: 400}, 0.8)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, genome.Locus{Contig: "1", Position: 800}, got.Locus)
}

func TestLiftoverLocusReverseStrand(t *testing.T) {
	e := testEngine(t)

	got, err := e.LiftoverLocus("dst", genome.Locus{Contig: "2", Position: 1}, 0.95)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, genome.Locus{Contig: "1", Position: 2000}, got.Locus)
	assert.True(t, got.NegativeStrand)

	got, err = e.LiftoverLocus("dst", genome.Locus{Contig: "2", Position: 100}, 0.95)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, genome.Locus{Contig: "1", Position: 1901}, got.Locus)
}

func TestLiftoverLocusAbsentResults(t *testing.T) {
	e := testEngine(t)

	// Outside every chain.
	got, err := e.LiftoverLocus("dst", genome.Locus{Contig: "1", Position: 700}, 0)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Inside the chain span but in an alignment gap.
	got, err = e.LiftoverLocus("dst", genome.Locus{Contig: "1", Position: 330}, 0)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Match fraction 0.889 below the requested threshold.
	got, err = e.LiftoverLocus("dst", genome.Locus{Contig: "1", Position: 150}, 0.95)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLiftoverLocusErrors(t *testing.T) {
	e := testEngine(t)

	_, err := e.LiftoverLocus("dst", genome.Locus{Contig: "1", Position: 150}, 1.5)
	assert.Error(t, err)

	_, err = e.LiftoverLocus("dst", genome.Locus{Contig: "zz", Position: 1}, 0.5)
	var nfErr *genome.NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "contig", nfErr.Kind)

	_, err = e.LiftoverLocus("dst", genome.Locus{Contig: "1", Position: 5000}, 0.5)
	var rangeErr *genome.RangeError
	assert.ErrorAs(t, err, &rangeErr)

	_, err = e.LiftoverLocus("elsewhere", genome.Locus{Contig: "1", Position: 150}, 0.5)
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "liftover", nfErr.Kind)
}

func TestLiftoverInterval(t *testing.T) {
	e := testEngine(t)
	g := e.Genome()

	iv, err := g.NewInterval(genome.Locus{Contig: "1", Position: 150}, genome.Locus{Contig: "1", Position: 250}, true, false)
	require.NoError(t, err)
	got, err := e.LiftoverInterval("dst", iv, 0.8)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, genome.Locus{Contig: "1", Position: 550}, got.Interval.Start)
	assert.Equal(t, genome.Locus{Contig: "1", Position: 650}, got.Interval.End)
	assert.True(t, got.Interval.IncludesStart)
	assert.False(t, got.Interval.IncludesEnd)
	assert.False(t, got.NegativeStrand)

	// Reverse strand flips the interval end-for-end.
	iv, err = g.NewInterval(genome.Locus{Contig: "2", Position: 1}, genome.Locus{Contig: "2", Position: 100}, true, false)
	require.NoError(t, err)
	got, err = e.LiftoverInterval("dst", iv, 0.95)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, genome.Locus{Contig: "1", Position: 1901}, got.Interval.Start)
	assert.Equal(t, genome.Locus{Contig: "1", Position: 2000}, got.Interval.End)
	assert.False(t, got.Interval.IncludesStart)
	assert.True(t, got.Interval.IncludesEnd)
	assert.True(t, got.NegativeStrand)

	// An endpoint in an alignment gap leaves the interval unmapped.
	iv, err = g.NewInterval(genome.Locus{Contig: "1", Position: 150}, genome.Locus{Contig: "1", Position: 330}, true, true)
	require.NoError(t, err)
	got, err = e.LiftoverInterval("dst", iv, 0)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Below the match threshold.
	iv, err = g.NewInterval(genome.Locus{Contig: "1", Position: 150}, genome.Locus{Contig: "1", Position: 250}, true, true)
	require.NoError(t, err)
	got, err = e.LiftoverInterval("dst", iv, 0.95)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAddRemoveLiftover(t *testing.T) {
	e := testEngine(t)
	path := writeChainFile(t, testChains)

	assert.True(t, e.HasLiftover("dst"))
	assert.Equal(t, []string{"dst"}, e.Targets())

	// A second add for the same target must not silently replace.
	err := e.AddLiftover(path, "dst")
	assert.ErrorContains(t, err, "already configured")

	require.NoError(t, e.ReplaceLiftover(path, "dst"))

	require.NoError(t, e.RemoveLiftover("dst"))
	assert.False(t, e.HasLiftover("dst"))

	// Lookups after removal fail as not configured, never stale or empty.
	_, err = e.LiftoverLocus("dst", genome.Locus{Contig: "1", Position: 150}, 0.5)
	var nfErr *genome.NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "liftover", nfErr.Kind)

	err = e.RemoveLiftover("dst")
	assert.ErrorAs(t, err, &nfErr)
}

func TestChainSnapshotRoundTrip(t *testing.T) {
	e := testEngine(t)

	chains, err := e.ChainSnapshot("dst")
	require.NoError(t, err)
	require.Len(t, chains, 2)

	// A snapshot can be serialized and reattached elsewhere with the same
	// query answers.
	data, err := json.Marshal(chains)
	require.NoError(t, err)
	var decoded []*Chain
	require.NoError(t, json.Unmarshal(data, &decoded))

	e2 := NewEngine(sourceGenome(t))
	require.NoError(t, e2.AttachChains(decoded, "dst"))

	want, err := e.LiftoverLocus("dst", genome.Locus{Contig: "1", Position: 150}, 0.8)
	require.NoError(t, err)
	got, err := e2.LiftoverLocus("dst", genome.Locus{Contig: "1", Position: 150}, 0.8)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = e.ChainSnapshot("elsewhere")
	var nfErr *genome.NotFoundError
	assert.ErrorAs(t, err, &nfErr)
}

func TestAddLiftoverRejectsUnknownSourceContig(t *testing.T) {
	e := NewEngine(sourceGenome(t))
	path := writeChainFile(t, "chain 1000 17 1000 + 0 100 1 2000 + 0 100 1\n100\n")
	err := e.AddLiftover(path, "dst")
	assert.ErrorContains(t, err, "unknown to genome")
}
