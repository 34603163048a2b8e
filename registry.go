package qreality

/*
Expiring is a timed record that a Registry can own.
*/
type Expiring interface {
	Key() string
	// Expire consumes dt from the remaining duration and reports whether the
	// record has run out.
	Expire(dt float64) bool
}

/*
Registry owns a set of timed records keyed by identifier.

Entries are kept in insertion order so ticking and notification are
reproducible. A nil *Registry is a valid, permanently empty registry: this is
how a subsystem disabled by configuration is represented, and every method on
it is a no-op.
*/
type Registry[T Expiring] struct {
	entries  map[string]T
	order    []string
	onRemove func(T)
}

// NewRegistry creates an empty registry. onRemove, when not nil, is called
// once for every entry that leaves the registry.
func NewRegistry[T Expiring](onRemove func(T)) *Registry[T] {
	return &Registry[T]{
		entries:  make(map[string]T),
		onRemove: onRemove,
	}
}

/*
Add inserts an entry. It reports false, and leaves the registry unchanged,
when an entry with the same key is already present or the registry is nil.
*/
func (r *Registry[T]) Add(entry T) bool {
	if r == nil {
		return false
	}

	key := entry.Key()
	if _, exists := r.entries[key]; exists {
		return false
	}

	r.entries[key] = entry
	r.order = append(r.order, key)
	return true
}

// Get returns the entry stored under key.
func (r *Registry[T]) Get(key string) (T, bool) {
	var zero T
	if r == nil {
		return zero, false
	}
	entry, ok := r.entries[key]
	return entry, ok
}

/*
Remove deletes the entry stored under key and notifies. Removing a key that is
not present is a no-op.
*/
func (r *Registry[T]) Remove(key string) {
	if r == nil {
		return
	}

	entry, ok := r.entries[key]
	if !ok {
		return
	}

	delete(r.entries, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if r.onRemove != nil {
		r.onRemove(entry)
	}
}

/*
Tick advances every entry by dt and removes the ones whose duration ran out.
It returns the number of entries removed.
*/
func (r *Registry[T]) Tick(dt float64) int {
	if r == nil {
		return 0
	}

	var expired []string
	for _, key := range r.order {
		if r.entries[key].Expire(dt) {
			expired = append(expired, key)
		}
	}

	for _, key := range expired {
		r.Remove(key)
	}
	return len(expired)
}

// Clear removes every entry, notifying for each one.
func (r *Registry[T]) Clear() {
	if r == nil {
		return
	}

	keys := append([]string(nil), r.order...)
	for _, key := range keys {
		r.Remove(key)
	}
}

func (r *Registry[T]) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Each calls fn for every entry in insertion order.
func (r *Registry[T]) Each(fn func(T)) {
	if r == nil {
		return
	}
	for _, key := range r.order {
		fn(r.entries[key])
	}
}
