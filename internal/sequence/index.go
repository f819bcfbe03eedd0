// Package sequence provides cached random-access reads into indexed
// FASTA-style sequence files, plain or gzip-compressed, addressed through
// a ReferenceGenome's coordinate system.
package sequence

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// IndexEntry describes one contig in a faidx-style index: sequence length
// in bases, byte offset of the first base, bases per line, and bytes per
// line including the newline.
type IndexEntry struct {
	Name      string
	Length    int64
	Offset    int64
	LineBases int64
	LineWidth int64
}

// Index holds the per-contig random-access metadata for a sequence file.
type Index struct {
	entries map[string]IndexEntry
	names   []string
}

// ReadIndex parses a faidx index: one tab-separated line per contig,
// "name\tlength\toffset\tlinebases\tlinewidth".
func ReadIndex(r io.Reader) (*Index, error) {
	idx := &Index{entries: make(map[string]IndexEntry)}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 5 {
			return nil, fmt.Errorf("index line %d: want 5 tab-separated fields, got %d", lineNo, len(fields))
		}
		ent := IndexEntry{Name: fields[0]}
		var err error
		if ent.Length, err = strconv.ParseInt(fields[1], 10, 64); err != nil {
			return nil, fmt.Errorf("index line %d: bad length: %w", lineNo, err)
		}
		if ent.Offset, err = strconv.ParseInt(fields[2], 10, 64); err != nil {
			return nil, fmt.Errorf("index line %d: bad offset: %w", lineNo, err)
		}
		if ent.LineBases, err = strconv.ParseInt(fields[3], 10, 64); err != nil {
			return nil, fmt.Errorf("index line %d: bad line bases: %w", lineNo, err)
		}
		if ent.LineWidth, err = strconv.ParseInt(fields[4], 10, 64); err != nil {
			return nil, fmt.Errorf("index line %d: bad line width: %w", lineNo, err)
		}
		if ent.LineBases < 1 || ent.LineWidth < ent.LineBases {
			return nil, fmt.Errorf("index line %d: inconsistent line geometry %d/%d", lineNo, ent.LineBases, ent.LineWidth)
		}
		if _, dup := idx.entries[ent.Name]; dup {
			return nil, fmt.Errorf("index line %d: duplicate contig %s", lineNo, ent.Name)
		}
		idx.entries[ent.Name] = ent
		idx.names = append(idx.names, ent.Name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan index: %w", err)
	}
	if len(idx.entries) == 0 {
		return nil, fmt.Errorf("index contains no contigs")
	}
	return idx, nil
}

// LoadIndex reads a faidx index from a file.
func LoadIndex(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	idx, err := ReadIndex(f)
	if err != nil {
		return nil, fmt.Errorf("read index file %s: %w", path, err)
	}
	return idx, nil
}

// Entry returns the index entry for a contig.
func (x *Index) Entry(name string) (IndexEntry, bool) {
	ent, ok := x.entries[name]
	return ent, ok
}

// Names returns contig names in file order.
func (x *Index) Names() []string {
	return append([]string(nil), x.names...)
}

// byteOffset converts a 0-based base position within the contig to the
// byte offset of that base in the sequence file, accounting for line
// wrapping.
func (e IndexEntry) byteOffset(base int64) int64 {
	newlineBytes := e.LineWidth - e.LineBases
	return e.Offset + base + (base/e.LineBases)*newlineBytes
}

// rawSpan returns how many file bytes, newlines included, cover n bases
// starting at 0-based base position start.
func (e IndexEntry) rawSpan(start, n int64) int64 {
	if n <= 0 {
		return 0
	}
	firstLineBases := e.LineBases - start%e.LineBases
	newlines := int64(0)
	if n > firstLineBases {
		newlines = 1 + (n-firstLineBases-1)/e.LineBases
	}
	return n + newlines*(e.LineWidth-e.LineBases)
}
