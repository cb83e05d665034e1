// Package defs holds the immutable definition data the simulation reads for
// an entire session: goods, countries, provinces, production types, building
// types, tuning defines and bookmarks. Definitions are registered during
// load, locked before instance setup and never mutated afterwards.
package defs

import (
	"github.com/ironcliff/hegemon/errs"
)

// Handle is a stable index into a registry's backing arena. Entities refer
// to each other by handle rather than by pointer, so addresses never need
// fixing up after registration.
type Handle int32

// InvalidHandle marks an unresolved reference.
const InvalidHandle Handle = -1

// Valid reports whether the handle refers to a registered item.
func (h Handle) Valid() bool { return h >= 0 }

// Identified is implemented by every definition type held in a registry.
type Identified interface {
	Identifier() string
}

// Registry is a lockable identifier-keyed arena of definitions. Items are
// appended during load; once locked the arena is immutable and handles map
// directly onto slice indices.
type Registry[T Identified] struct {
	name   string
	items  []T
	index  map[string]Handle
	locked bool
}

// NewRegistry builds an empty registry named for diagnostics.
func NewRegistry[T Identified](name string) *Registry[T] {
	return &Registry[T]{
		name:   name,
		items:  nil,
		index:  make(map[string]Handle),
		locked: false,
	}
}

// Register appends an item, rejecting empty and duplicate identifiers and
// registration after locking.
func (r *Registry[T]) Register(item T) (Handle, error) {
	if r.locked {
		return InvalidHandle, errs.New(r.name, errs.CodeLifecycle,
			errs.WithMessage("registry is locked"))
	}
	id := item.Identifier()
	if id == "" {
		return InvalidHandle, errs.New(r.name, errs.CodeIdentifier,
			errs.WithMessage("empty identifier"))
	}
	if _, exists := r.index[id]; exists {
		return InvalidHandle, errs.New(r.name, errs.CodeIdentifier,
			errs.WithMessage("duplicate identifier"),
			errs.WithField("identifier", id))
	}
	h := Handle(len(r.items))
	r.items = append(r.items, item)
	r.index[id] = h
	return h, nil
}

// Lock freezes the registry. Idempotent.
func (r *Registry[T]) Lock() { r.locked = true }

// Locked reports whether the registry has been frozen.
func (r *Registry[T]) Locked() bool { return r.locked }

// Len returns the number of registered items.
func (r *Registry[T]) Len() int { return len(r.items) }

// Lookup resolves an identifier to a handle.
func (r *Registry[T]) Lookup(id string) (Handle, bool) {
	h, ok := r.index[id]
	return h, ok
}

// Get returns the item for a handle. The second result is false for
// out-of-range handles.
func (r *Registry[T]) Get(h Handle) (*T, bool) {
	if h < 0 || int(h) >= len(r.items) {
		return nil, false
	}
	return &r.items[h], true
}

// ByID resolves an identifier straight to its item.
func (r *Registry[T]) ByID(id string) (*T, bool) {
	h, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return &r.items[h], true
}

// All returns the backing arena. Callers must treat it as read-only once the
// registry is locked.
func (r *Registry[T]) All() []T { return r.items }
