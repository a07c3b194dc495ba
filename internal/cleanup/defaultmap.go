// Package cleanup provides a map wrapper whose entries auto-erase once
// mutated back to their type's zero value, keeping delta books and
// overlay maps from accumulating dead zero entries.
package cleanup

// Zeroable is satisfied by any value type that can report whether it
// equals its default/zero value.
type Zeroable interface {
	IsZero() bool
}

// DefaultMap is a map[K]V where V implements Zeroable. Set erases the
// key automatically when the stored value becomes zero; Get reports
// absence (the zero value, false) for never-set and erased keys alike.
type DefaultMap[K comparable, V Zeroable] struct {
	m map[K]V
}

// NewDefaultMap constructs an empty DefaultMap.
func NewDefaultMap[K comparable, V Zeroable]() *DefaultMap[K, V] {
	return &DefaultMap[K, V]{m: make(map[K]V)}
}

// Get returns the value stored for key and whether it is present.
func (d *DefaultMap[K, V]) Get(key K) (V, bool) {
	v, ok := d.m[key]
	return v, ok
}

// Set stores value for key, erasing the entry instead if value is zero.
func (d *DefaultMap[K, V]) Set(key K, value V) {
	if value.IsZero() {
		delete(d.m, key)
		return
	}
	d.m[key] = value
}

// Mutate loads the current value for key (the zero value if absent),
// applies fn, and writes the result back through Set so a return to
// zero erases the entry.
func (d *DefaultMap[K, V]) Mutate(key K, fn func(V) V) {
	cur := d.m[key]
	d.Set(key, fn(cur))
}

// Delete removes key unconditionally.
func (d *DefaultMap[K, V]) Delete(key K) {
	delete(d.m, key)
}

// Len returns the number of non-zero entries currently stored.
func (d *DefaultMap[K, V]) Len() int {
	return len(d.m)
}

// Keys returns the map's keys in unspecified order.
func (d *DefaultMap[K, V]) Keys() []K {
	keys := make([]K, 0, len(d.m))
	for k := range d.m {
		keys = append(keys, k)
	}
	return keys
}

// Range calls fn for every non-zero entry, stopping early if fn returns false.
func (d *DefaultMap[K, V]) Range(fn func(K, V) bool) {
	for k, v := range d.m {
		if !fn(k, v) {
			return
		}
	}
}
