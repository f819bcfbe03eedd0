package sequence

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandtools/refgenome/internal/genome"
)

var (
	testContigs = []string{"a", "b", "c"}
	testSeqs    = map[string]string{
		"a": "CGTAGCTAGCTAGCTAGCTAGCTGA",
		"b": "TTTCCAGGACGTACG",
		"c": "GGATCCGTGC",
	}
)

func testGenome(t *testing.T) *genome.ReferenceGenome {
	t.Helper()
	g, err := genome.New("test", testContigs,
		map[string]int64{"a": 25, "b": 15, "c": 10},
		nil, nil, nil, nil)
	require.NoError(t, err)
	return g
}

// writeFasta writes a wrapped FASTA file plus its faidx index, and a
// gzip-compressed copy sharing the same index geometry. Returns the plain
// and compressed paths.
func writeFasta(t *testing.T, wrap int) (string, string) {
	t.Helper()
	dir := t.TempDir()

	var fasta, fai bytes.Buffer
	for _, name := range testContigs {
		fmt.Fprintf(&fasta, ">%s\n", name)
		offset := fasta.Len()
		seq := testSeqs[name]
		for i := 0; i < len(seq); i += wrap {
			end := i + wrap
			if end > len(seq) {
				end = len(seq)
			}
			fasta.WriteString(seq[i:end])
			fasta.WriteByte('\n')
		}
		fmt.Fprintf(&fai, "%s\t%d\t%d\t%d\t%d\n", name, len(seq), offset, wrap, wrap+1)
	}

	plain := filepath.Join(dir, "test.fa")
	require.NoError(t, os.WriteFile(plain, fasta.Bytes(), 0644))
	require.NoError(t, os.WriteFile(plain+".fai", fai.Bytes(), 0644))

	var gzBuf bytes.Buffer
	zw := gzip.NewWriter(&gzBuf)
	_, err := zw.Write(fasta.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	compressed := filepath.Join(dir, "test.fa.gz")
	require.NoError(t, os.WriteFile(compressed, gzBuf.Bytes(), 0644))
	require.NoError(t, os.WriteFile(compressed+".fai", fai.Bytes(), 0644))

	return plain, compressed
}

func openReader(t *testing.T, path string, cfg *Config) *Reader {
	t.Helper()
	r, err := NewReader(testGenome(t), path, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestLookupKnownBases(t *testing.T) {
	plain, compressed := writeFasta(t, 10)
	ctx := context.Background()

	for _, path := range []string{plain, compressed} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			r := openReader(t, path, &Config{BlockSize: 8, CacheBlocks: 4})

			got, err := r.Lookup(ctx, "a", 25, 0, 5)
			require.NoError(t, err)
			assert.Equal(t, "A", got)

			got, err = r.Lookup(ctx, "b", 1, 5, 0)
			require.NoError(t, err)
			assert.Equal(t, "T", got)

			got, err = r.Lookup(ctx, "c", 5, 10, 10)
			require.NoError(t, err)
			assert.Equal(t, "GGATCCGTGC", got)

			got, err = r.Base(ctx, "a", 1)
			require.NoError(t, err)
			assert.Equal(t, "C", got)
		})
	}
}

func TestLookupErrors(t *testing.T) {
	plain, _ := writeFasta(t, 10)
	ctx := context.Background()
	r := openReader(t, plain, nil)

	_, err := r.Lookup(ctx, "zz", 1, 0, 0)
	var nfErr *genome.NotFoundError
	require.ErrorAs(t, err, &nfErr)

	// Positions outside the contig are reported, not clamped.
	_, err = r.Lookup(ctx, "a", 0, 0, 0)
	var rangeErr *genome.RangeError
	require.ErrorAs(t, err, &rangeErr)

	_, err = r.Lookup(ctx, "a", 26, 0, 0)
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, int64(26), rangeErr.Position)

	_, err = r.Lookup(ctx, "a", 5, -1, 0)
	assert.Error(t, err)
}

func TestLookupIntervalSingleContig(t *testing.T) {
	plain, _ := writeFasta(t, 10)
	ctx := context.Background()
	r := openReader(t, plain, &Config{BlockSize: 4, CacheBlocks: 8})
	g := testGenome(t)

	iv, err := g.NewInterval(genome.Locus{Contig: "a", Position: 3}, genome.Locus{Contig: "a", Position: 8}, true, true)
	require.NoError(t, err)
	got, err := r.LookupInterval(ctx, iv)
	require.NoError(t, err)
	assert.Equal(t, "TAGCTA", got)

	// Exclusive ends trim one base each side.
	iv, err = g.NewInterval(genome.Locus{Contig: "a", Position: 3}, genome.Locus{Contig: "a", Position: 8}, false, false)
	require.NoError(t, err)
	got, err = r.LookupInterval(ctx, iv)
	require.NoError(t, err)
	assert.Equal(t, "AGCT", got)

	// Adjacent exclusive endpoints leave nothing.
	iv, err = g.NewInterval(genome.Locus{Contig: "a", Position: 3}, genome.Locus{Contig: "a", Position: 4}, false, false)
	require.NoError(t, err)
	got, err = r.LookupInterval(ctx, iv)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestLookupIntervalSpansContigs(t *testing.T) {
	plain, compressed := writeFasta(t, 10)
	ctx := context.Background()
	g := testGenome(t)

	iv, err := g.NewInterval(genome.Locus{Contig: "a", Position: 20}, genome.Locus{Contig: "c", Position: 4}, true, true)
	require.NoError(t, err)
	want := testSeqs["a"][19:] + testSeqs["b"] + testSeqs["c"][:4]

	for _, path := range []string{plain, compressed} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			r := openReader(t, path, &Config{BlockSize: 8, CacheBlocks: 4})
			got, err := r.LookupInterval(ctx, iv)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestPlainAndCompressedAgree(t *testing.T) {
	plain, compressed := writeFasta(t, 10)
	ctx := context.Background()
	g := testGenome(t)

	rp := openReader(t, plain, &Config{BlockSize: 8, CacheBlocks: 4})
	rc := openReader(t, compressed, &Config{BlockSize: 8, CacheBlocks: 4})

	rng := rand.New(rand.NewSource(1))
	lengths := map[string]int64{"a": 25, "b": 15, "c": 10}
	for i := 0; i < 200; i++ {
		sc := testContigs[rng.Intn(len(testContigs))]
		ec := testContigs[rng.Intn(len(testContigs))]
		si, _ := g.ContigIndex(sc)
		ei, _ := g.ContigIndex(ec)
		if si > ei {
			sc, ec = ec, sc
		}
		sp := rng.Int63n(lengths[sc]) + 1
		ep := rng.Int63n(lengths[ec]) + 1
		if sc == ec && sp > ep {
			sp, ep = ep, sp
		}
		iv, err := g.NewInterval(genome.Locus{Contig: sc, Position: sp}, genome.Locus{Contig: ec, Position: ep}, true, true)
		require.NoError(t, err)

		want := naiveInterval(g, iv)
		gotP, err := rp.LookupInterval(ctx, iv)
		require.NoError(t, err)
		gotC, err := rc.LookupInterval(ctx, iv)
		require.NoError(t, err)
		assert.Equal(t, want, gotP, "interval %s", iv)
		assert.Equal(t, gotP, gotC, "interval %s", iv)
	}

	assert.LessOrEqual(t, rp.CachedBlocks(), 4)
	assert.LessOrEqual(t, rc.CachedBlocks(), 4)
}

// naiveInterval computes the expected sequence straight from the in-memory
// strings, stepping contigs in assembly order.
func naiveInterval(g *genome.ReferenceGenome, iv genome.Interval) string {
	si, _ := g.ContigIndex(iv.Start.Contig)
	ei, _ := g.ContigIndex(iv.End.Contig)
	if si == ei {
		return testSeqs[iv.Start.Contig][iv.Start.Position-1 : iv.End.Position]
	}
	out := testSeqs[iv.Start.Contig][iv.Start.Position-1:]
	for i := si + 1; i < ei; i++ {
		name, _ := g.ContigAt(i)
		out += testSeqs[name]
	}
	return out + testSeqs[iv.End.Contig][:iv.End.Position]
}

func TestLineWrapWidths(t *testing.T) {
	ctx := context.Background()
	for _, wrap := range []int{3, 7, 10, 25, 60} {
		t.Run(fmt.Sprintf("wrap%d", wrap), func(t *testing.T) {
			plain, _ := writeFasta(t, wrap)
			r := openReader(t, plain, &Config{BlockSize: 5, CacheBlocks: 16})
			for name, seq := range testSeqs {
				got, err := r.Lookup(ctx, name, 1, 0, int64(len(seq)))
				require.NoError(t, err)
				assert.Equal(t, seq, got, "contig %s at wrap %d", name, wrap)
			}
		})
	}
}

func TestMarginClampingNeverLeavesContig(t *testing.T) {
	plain, _ := writeFasta(t, 10)
	ctx := context.Background()
	r := openReader(t, plain, nil)

	got, err := r.Lookup(ctx, "b", 1, 100, 100)
	require.NoError(t, err)
	assert.Equal(t, testSeqs["b"], got)

	got, err = r.Lookup(ctx, "a", 24, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, "CTGA", got)
}

func TestNewReaderRejectsMismatchedIndex(t *testing.T) {
	plain, _ := writeFasta(t, 10)

	short, err := genome.New("short", []string{"a", "b", "c", "d"},
		map[string]int64{"a": 25, "b": 15, "c": 10, "d": 5},
		nil, nil, nil, nil)
	require.NoError(t, err)
	_, err = NewReader(short, plain, nil)
	assert.ErrorContains(t, err, "missing contig d")

	wrong, err := genome.New("wrong", []string{"a"},
		map[string]int64{"a": 24}, nil, nil, nil, nil)
	require.NoError(t, err)
	_, err = NewReader(wrong, plain, nil)
	assert.ErrorContains(t, err, "does not match")
}

func TestLookupCancelledContext(t *testing.T) {
	plain, _ := writeFasta(t, 10)
	r := openReader(t, plain, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Lookup(ctx, "a", 5, 0, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
