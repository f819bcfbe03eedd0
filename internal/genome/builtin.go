package genome

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"
)

// Built-in human assemblies. Contig lengths and PAR boundaries are
// authoritative data fixed at build time, shipped in the same JSON format
// Write/Read use, and validated once on first access.

//go:embed grch37.json
var grch37JSON []byte

//go:embed grch38.json
var grch38JSON []byte

var (
	builtinOnce sync.Once
	grch37      *ReferenceGenome
	grch38      *ReferenceGenome
)

func loadBuiltins() {
	grch37 = mustReadBuiltin("GRCh37", grch37JSON)
	grch38 = mustReadBuiltin("GRCh38", grch38JSON)
}

// GRCh37 returns the built-in GRCh37 assembly.
func GRCh37() *ReferenceGenome {
	builtinOnce.Do(loadBuiltins)
	return grch37
}

// GRCh38 returns the built-in GRCh38 assembly.
func GRCh38() *ReferenceGenome {
	builtinOnce.Do(loadBuiltins)
	return grch38
}

func mustReadBuiltin(name string, data []byte) *ReferenceGenome {
	g, err := ReadFrom(bytes.NewReader(data))
	if err != nil {
		panic(fmt.Sprintf("embedded genome %s: %v", name, err))
	}
	return g
}
