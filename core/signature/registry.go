package signature

import (
	"sort"
	"sync/atomic"

	"github.com/samber/lo"
)

// Lookup resolves a command name to its signature.
type Lookup interface {
	Lookup(name string) (*Signature, bool)
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(name string) (*Signature, bool)

func (f LookupFunc) Lookup(name string) (*Signature, bool) { return f(name) }

var generations atomic.Uint64

// Registry is an immutable snapshot of command signatures. A parse holds
// one snapshot for its whole duration; updates produce a new Registry.
type Registry struct {
	sigs       map[string]*Signature
	generation uint64
}

// NewRegistry builds a snapshot. Later signatures replace earlier ones
// with the same name.
func NewRegistry(sigs ...*Signature) *Registry {
	m := make(map[string]*Signature, len(sigs))
	for _, s := range sigs {
		m[s.Name] = s
	}
	return &Registry{sigs: m, generation: generations.Add(1)}
}

// Lookup implements Lookup. A nil registry knows no commands.
func (r *Registry) Lookup(name string) (*Signature, bool) {
	if r == nil {
		return nil, false
	}
	s, ok := r.sigs[name]
	return s, ok
}

// Names returns every registered command name in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := lo.Keys(r.sigs)
	sort.Strings(names)
	return names
}

// Len is the number of registered commands.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.sigs)
}

// Generation identifies the snapshot. Two registries never share one.
func (r *Registry) Generation() uint64 {
	if r == nil {
		return 0
	}
	return r.generation
}

// With returns a new snapshot containing r's signatures plus sigs.
func (r *Registry) With(sigs ...*Signature) *Registry {
	merged := make([]*Signature, 0, r.Len()+len(sigs))
	if r != nil {
		for _, name := range r.Names() {
			merged = append(merged, r.sigs[name])
		}
	}
	return NewRegistry(append(merged, sigs...)...)
}

// Store publishes registry snapshots to concurrent parsers. Readers never
// block; writers replace the whole snapshot.
type Store struct {
	current atomic.Pointer[Registry]
}

// NewStore starts with the given snapshot, or an empty one when nil.
func NewStore(initial *Registry) *Store {
	if initial == nil {
		initial = NewRegistry()
	}
	s := &Store{}
	s.current.Store(initial)
	return s
}

// Load returns the current snapshot.
func (s *Store) Load() *Registry {
	return s.current.Load()
}

// Publish replaces the current snapshot.
func (s *Store) Publish(r *Registry) {
	s.current.Store(r)
}

// Register adds signatures on top of the current snapshot and returns the
// snapshot that was published.
func (s *Store) Register(sigs ...*Signature) *Registry {
	for {
		old := s.current.Load()
		next := old.With(sigs...)
		if s.current.CompareAndSwap(old, next) {
			return next
		}
	}
}
