package pipeline

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the handler descriptors of a service. It is mutable until it
// is sealed, explicitly or by the first Resolve, and read without locking
// afterwards.
type Registry struct {
	mu          sync.Mutex
	descriptors []Descriptor
	ids         map[string]struct{}
	sealed      bool

	seal   sync.Once
	byKind map[Kind][]Descriptor
}

// NewRegistry returns a registry populated with ds.
func NewRegistry(ds ...Descriptor) (*Registry, error) {
	r := &Registry{ids: make(map[string]struct{})}
	if err := r.Register(ds...); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds descriptors. It fails without adding anything if the registry
// is sealed, if a descriptor is incomplete, or if an ID is already taken
// (including twice within ds).
func (r *Registry) Register(ds ...Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrRegistrySealed
	}
	if r.ids == nil {
		r.ids = make(map[string]struct{})
	}

	seen := make(map[string]struct{}, len(ds))
	for _, d := range ds {
		if d.ID == "" || d.Kind == "" || d.Handler == nil {
			return fmt.Errorf("%w: id=%q kind=%q", ErrInvalidDescriptor, d.ID, d.Kind)
		}
		if _, dup := r.ids[d.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateDescriptor, d.ID)
		}
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateDescriptor, d.ID)
		}
		seen[d.ID] = struct{}{}
	}

	for _, d := range ds {
		d.Filters = append([]Filter(nil), d.Filters...)
		r.descriptors = append(r.descriptors, d)
		r.ids[d.ID] = struct{}{}
	}
	return nil
}

// Seal freezes the registry and builds the per-kind ordering. It is safe to
// call more than once and from multiple goroutines.
func (r *Registry) Seal() {
	r.seal.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.sealed = true

		byKind := make(map[Kind][]Descriptor)
		for _, d := range r.descriptors {
			byKind[d.Kind] = append(byKind[d.Kind], d)
		}
		for _, list := range byKind {
			sort.SliceStable(list, func(i, j int) bool { return list[i].Order < list[j].Order })
		}
		r.byKind = byKind
	})
}

// Sealed reports whether the registry accepts new descriptors.
func (r *Registry) Sealed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sealed
}

// Resolve returns the descriptors that apply to ev, in execution order. The
// returned slice is freshly allocated.
func (r *Registry) Resolve(ev Event) []Descriptor {
	r.Seal()
	candidates := r.byKind[ev.Kind()]
	out := make([]Descriptor, 0, len(candidates))
	for i := range candidates {
		if candidates[i].active(ev) {
			out = append(out, candidates[i])
		}
	}
	return out
}

// Descriptors returns every descriptor registered for kind, in execution
// order and ignoring filters. It seals the registry.
func (r *Registry) Descriptors(kind Kind) []Descriptor {
	r.Seal()
	return append([]Descriptor(nil), r.byKind[kind]...)
}
