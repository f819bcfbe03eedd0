package sequence

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/strandtools/refgenome/internal/genome"
)

// IOError reports a failed read of the underlying sequence file with the
// contig and byte offset that was being fetched.
type IOError struct {
	Contig string
	Offset int64
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("sequence read failed for contig %s at byte offset %d: %v", e.Contig, e.Offset, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

const (
	maxReadAttempts  = 3
	readRetryBackoff = 25 * time.Millisecond
)

// byteSource is random access into the uncompressed sequence text.
type byteSource interface {
	io.ReaderAt
	io.Closer
}

// gzipSource serves ReadAt against a gzip-compressed file by positioning
// the decompressed stream, rewinding when a read lands before the current
// offset. Slower than a plain file, byte-identical results.
type gzipSource struct {
	mu  sync.Mutex
	f   *os.File
	zr  *gzip.Reader
	pos int64
}

func newGzipSource(path string) (*gzipSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open gzip reader: %w", err)
	}
	return &gzipSource{f: f, zr: zr}, nil
}

func (s *gzipSource) ReadAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if off < s.pos {
		if _, err := s.f.Seek(0, io.SeekStart); err != nil {
			return 0, err
		}
		if err := s.zr.Reset(s.f); err != nil {
			return 0, err
		}
		s.pos = 0
	}
	if off > s.pos {
		n, err := io.CopyN(io.Discard, s.zr, off-s.pos)
		s.pos += n
		if err != nil {
			return 0, err
		}
	}
	n, err := io.ReadFull(s.zr, p)
	s.pos += int64(n)
	return n, err
}

func (s *gzipSource) Close() error {
	s.zr.Close()
	return s.f.Close()
}

// Config tunes a Reader. The zero value selects defaults.
type Config struct {
	// BlockSize is the number of bases per cached block.
	BlockSize int64
	// CacheBlocks bounds the resident block count.
	CacheBlocks int
	// IndexPath overrides the default "<fasta>.fai".
	IndexPath string
}

// Reader answers point and interval sequence lookups against one genome,
// serving sub-reads through a bounded block cache. The underlying file
// access in fetchBlock is the only I/O in the component and the only
// place reads are retried.
type Reader struct {
	genome    *genome.ReferenceGenome
	index     *Index
	src       byteSource
	cache     *BlockCache
	blockSize int64
	logger    *zap.Logger
}

// NewReader opens a sequence file (gzip-compressed if the path ends in
// ".gz") and its faidx index, and checks the index against the genome:
// every genome contig must be present with a matching length.
func NewReader(g *genome.ReferenceGenome, fastaPath string, cfg *Config) (*Reader, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	blockSize := cfg.BlockSize
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	cacheBlocks := cfg.CacheBlocks
	if cacheBlocks <= 0 {
		cacheBlocks = DefaultCacheBlocks
	}
	indexPath := cfg.IndexPath
	if indexPath == "" {
		indexPath = fastaPath + ".fai"
	}

	idx, err := LoadIndex(indexPath)
	if err != nil {
		return nil, err
	}
	for _, contig := range g.Contigs() {
		ent, ok := idx.Entry(contig)
		if !ok {
			return nil, fmt.Errorf("sequence index %s is missing contig %s declared by genome %s", indexPath, contig, g.Name())
		}
		want, _ := g.ContigLength(contig)
		if ent.Length != want {
			return nil, fmt.Errorf("sequence index length %d for contig %s does not match genome %s length %d",
				ent.Length, contig, g.Name(), want)
		}
	}

	var src byteSource
	if strings.HasSuffix(fastaPath, ".gz") {
		src, err = newGzipSource(fastaPath)
	} else {
		src, err = os.Open(fastaPath)
	}
	if err != nil {
		return nil, fmt.Errorf("open sequence file: %w", err)
	}

	cache, err := NewBlockCache(cacheBlocks)
	if err != nil {
		src.Close()
		return nil, err
	}
	return &Reader{
		genome:    g,
		index:     idx,
		src:       src,
		cache:     cache,
		blockSize: blockSize,
		logger:    zap.NewNop(),
	}, nil
}

// SetLogger sets the logger for retry warnings.
func (r *Reader) SetLogger(l *zap.Logger) { r.logger = l }

// Close releases the underlying file handle.
func (r *Reader) Close() error { return r.src.Close() }

// CachedBlocks returns the resident block count.
func (r *Reader) CachedBlocks() int { return r.cache.Len() }

// Base returns the single base at the locus.
func (r *Reader) Base(ctx context.Context, contig string, position int64) (string, error) {
	return r.Lookup(ctx, contig, position, 0, 0)
}

// Lookup returns the sequence from position-marginLeft to
// position+marginRight inclusive, each end clamped to the contig.
// The position itself must be inside the contig; margins are clamped,
// never an error.
func (r *Reader) Lookup(ctx context.Context, contig string, position, marginLeft, marginRight int64) (string, error) {
	if marginLeft < 0 || marginRight < 0 {
		return "", fmt.Errorf("lookup margins must be non-negative, got %d and %d", marginLeft, marginRight)
	}
	n, err := r.genome.ContigLength(contig)
	if err != nil {
		return "", err
	}
	if position < 1 || position > n {
		return "", &genome.RangeError{Contig: contig, Position: position, Length: n}
	}
	start := position - marginLeft
	if start < 1 {
		start = 1
	}
	end := position + marginRight
	if end > n {
		end = n
	}
	return r.readBases(ctx, contig, start-1, end)
}

// LookupInterval returns the concatenated sequence covering the interval,
// honoring its inclusivity flags. An interval spanning several contigs
// yields the suffix of the start contig, every intervening contig in full
// (in declared assembly order), and the prefix of the end contig;
// stepping to the next contig resumes at position 1.
func (r *Reader) LookupInterval(ctx context.Context, iv genome.Interval) (string, error) {
	startContig, endContig := iv.Start.Contig, iv.End.Contig
	startIdx, err := r.genome.ContigIndex(startContig)
	if err != nil {
		return "", err
	}
	endIdx, err := r.genome.ContigIndex(endContig)
	if err != nil {
		return "", err
	}
	if startIdx > endIdx {
		return "", fmt.Errorf("interval %s ends before it starts in assembly order", iv)
	}

	startPos := iv.Start.Position
	if !iv.IncludesStart {
		startPos++
	}
	endPos := iv.End.Position
	if !iv.IncludesEnd {
		endPos--
	}

	if startIdx == endIdx {
		n, err := r.genome.ContigLength(startContig)
		if err != nil {
			return "", err
		}
		if startPos > endPos {
			return "", nil
		}
		if startPos < 1 || endPos > n {
			bad := startPos
			if endPos > n {
				bad = endPos
			}
			return "", &genome.RangeError{Contig: startContig, Position: bad, Length: n}
		}
		return r.readBases(ctx, startContig, startPos-1, endPos)
	}

	var sb strings.Builder
	for i := startIdx; i <= endIdx; i++ {
		contig, err := r.genome.ContigAt(i)
		if err != nil {
			return "", err
		}
		n, err := r.genome.ContigLength(contig)
		if err != nil {
			return "", err
		}
		from, to := int64(1), n
		switch i {
		case startIdx:
			from = startPos
		case endIdx:
			to = endPos
		}
		if from < 1 || to > n {
			bad := from
			if to > n {
				bad = to
			}
			return "", &genome.RangeError{Contig: contig, Position: bad, Length: n}
		}
		if from > to {
			continue
		}
		s, err := r.readBases(ctx, contig, from-1, to)
		if err != nil {
			return "", err
		}
		sb.WriteString(s)
	}
	return sb.String(), nil
}

// readBases returns bases [start0, end0) of the contig, 0-based
// half-open, assembled from cached blocks.
func (r *Reader) readBases(ctx context.Context, contig string, start0, end0 int64) (string, error) {
	if start0 >= end0 {
		return "", nil
	}
	var sb strings.Builder
	sb.Grow(int(end0 - start0))
	for b := start0 / r.blockSize; b*r.blockSize < end0; b++ {
		block, err := r.fetchBlock(ctx, contig, b)
		if err != nil {
			return "", err
		}
		lo := int64(0)
		if s := start0 - b*r.blockSize; s > 0 {
			lo = s
		}
		hi := int64(len(block))
		if e := end0 - b*r.blockSize; e < hi {
			hi = e
		}
		sb.Write(block[lo:hi])
	}
	return sb.String(), nil
}

// fetchBlock returns one block, from cache or from the file. A cache miss
// racing with another miss for the same key may fetch twice; both fetches
// produce identical bytes, so the cache never holds a partial entry.
func (r *Reader) fetchBlock(ctx context.Context, contig string, blockIdx int64) ([]byte, error) {
	key := BlockKey{Contig: contig, Index: blockIdx}
	if block, ok := r.cache.Get(key); ok {
		return block, nil
	}

	ent, ok := r.index.Entry(contig)
	if !ok {
		return nil, &genome.NotFoundError{Kind: "contig", Name: contig}
	}
	start0 := blockIdx * r.blockSize
	end0 := start0 + r.blockSize
	if end0 > ent.Length {
		end0 = ent.Length
	}
	if start0 >= end0 {
		return nil, &genome.RangeError{Contig: contig, Position: start0 + 1, Length: ent.Length}
	}

	byteOff := ent.byteOffset(start0)
	raw := make([]byte, ent.rawSpan(start0, end0-start0))
	if err := r.readRaw(ctx, contig, byteOff, raw); err != nil {
		return nil, err
	}

	block := make([]byte, 0, end0-start0)
	linePos := (byteOff - ent.Offset) % ent.LineWidth
	for _, c := range raw {
		if linePos < ent.LineBases {
			block = append(block, c)
		}
		linePos++
		if linePos == ent.LineWidth {
			linePos = 0
		}
	}
	if int64(len(block)) != end0-start0 {
		return nil, &IOError{
			Contig: contig,
			Offset: byteOff,
			Err:    fmt.Errorf("expected %d bases, decoded %d (corrupt index?)", end0-start0, len(block)),
		}
	}

	r.cache.Put(key, block)
	return block, nil
}

// readRaw fills p from the sequence file at off, retrying transient
// failures with backoff. This is the sole retry point for sequence I/O.
func (r *Reader) readRaw(ctx context.Context, contig string, off int64, p []byte) error {
	var err error
	for attempt := 0; attempt < maxReadAttempts; attempt++ {
		if attempt > 0 {
			r.logger.Warn("retrying sequence read",
				zap.String("contig", contig),
				zap.Int64("offset", off),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(readRetryBackoff << attempt):
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var n int
		n, err = r.src.ReadAt(p, off)
		if n == len(p) {
			// ReadAt may return io.EOF alongside a full read at the end
			// of the file.
			return nil
		}
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
	}
	return &IOError{Contig: contig, Offset: off, Err: err}
}
