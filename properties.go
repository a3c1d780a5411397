package reactchart

import "sort"

// PropertyStore holds the named values read by conditions.
// It is owned by a single chart and is not safe for concurrent use.
type PropertyStore struct {
	data map[string]Value
}

// NewPropertyStore creates an empty store.
func NewPropertyStore() *PropertyStore {
	return &PropertyStore{data: make(map[string]Value)}
}

// Get returns the value of name, or an error wrapping ErrUndefinedProperty.
func (p *PropertyStore) Get(name string) (Value, error) {
	v, ok := p.data[name]
	if !ok {
		return Value{}, &PropertyError{Property: name, Err: ErrUndefinedProperty}
	}
	return v, nil
}

// Has reports whether name has been set.
func (p *PropertyStore) Has(name string) bool {
	_, ok := p.data[name]
	return ok
}

// Set creates or overwrites name. It does not trigger any evaluation.
func (p *PropertyStore) Set(name string, v Value) {
	p.data[name] = v
}

// Names returns the known property names in sorted order.
func (p *PropertyStore) Names() []string {
	names := make([]string, 0, len(p.data))
	for k := range p.data {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a read-only copy of the store for one evaluation pass.
func (p *PropertyStore) Snapshot() Snapshot {
	snap := make(map[string]Value, len(p.data))
	for k, v := range p.data {
		snap[k] = v
	}
	return Snapshot{data: snap}
}

// Snapshot is a read-only view of a PropertyStore.
type Snapshot struct {
	data map[string]Value
}

func (s Snapshot) Lookup(name string) (Value, bool) {
	v, ok := s.data[name]
	return v, ok
}

func (s Snapshot) Len() int { return len(s.data) }

func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s.data))
	for k := range s.data {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Native returns the snapshot as native Go values keyed by name.
func (s Snapshot) Native() map[string]any {
	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		out[k] = v.Interface()
	}
	return out
}
