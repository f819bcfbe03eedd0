package genome

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is an explicit name -> genome table with a documented
// lifecycle: create it, add and remove genomes, look them up by name.
// Mutations are serialized; lookups may run concurrently.
type Registry struct {
	mu      sync.RWMutex
	genomes map[string]*ReferenceGenome
}

// NewRegistry creates a registry pre-seeded with the built-in GRCh37 and
// GRCh38 genomes.
func NewRegistry() *Registry {
	r := &Registry{genomes: make(map[string]*ReferenceGenome)}
	for _, g := range []*ReferenceGenome{GRCh37(), GRCh38()} {
		r.genomes[g.Name()] = g
	}
	return r
}

// NewEmptyRegistry creates a registry with no genomes.
func NewEmptyRegistry() *Registry {
	return &Registry{genomes: make(map[string]*ReferenceGenome)}
}

// Add registers a genome under its name. Adding a name that is already
// registered is an error, never a silent overwrite.
func (r *Registry) Add(g *ReferenceGenome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.genomes[g.Name()]; exists {
		return fmt.Errorf("genome %s is already registered", g.Name())
	}
	r.genomes[g.Name()] = g
	return nil
}

// Remove unregisters a genome by name.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.genomes[name]; !exists {
		return &NotFoundError{Kind: "genome", Name: name}
	}
	delete(r.genomes, name)
	return nil
}

// Get looks up a genome by name.
func (r *Registry) Get(name string) (*ReferenceGenome, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.genomes[name]
	if !ok {
		return nil, &NotFoundError{Kind: "genome", Name: name}
	}
	return g, nil
}

// Has reports whether a genome is registered under the name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.genomes[name]
	return ok
}

// Names returns the registered genome names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.genomes))
	for n := range r.genomes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
