package binding

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/optionset"
)

var (
	// ErrInvalidAttribute is returned when an attribute is built without a
	// definition or without both accessor functions.
	ErrInvalidAttribute = errors.New("invalid attribute")
	// ErrNoPersister is returned by Enable when the attribute has no persister.
	ErrNoPersister = errors.New("attribute has no persister")
)

// Accessor reads and writes the mask field of a host entity of type T.
// T is usually a pointer type.
type Accessor[T any] struct {
	Get func(rec T) uint64
	Set func(rec T, mask uint64)
}

// Persister saves a host entity after a set-and-persist mutation.
type Persister[T any] interface {
	Persist(ctx context.Context, rec T) error
}

// Updater is implemented by persisters that can read-modify-write one mask
// column atomically. fn receives the stored mask, not the in-memory one, and
// UpdateMask returns the committed mask.
type Updater[T any] interface {
	UpdateMask(ctx context.Context, rec T, column string, fn func(mask uint64) (uint64, error)) (uint64, error)
}

// Attribute binds one option-set definition to one mask field of host type T.
// Every operation delegates the bit arithmetic to the definition; mutators
// write the new mask through the accessor only once it has been computed, so a
// failed call leaves the entity untouched.
type Attribute[T any] struct {
	def       *optionset.Definition
	names     Names
	field     Accessor[T]
	persister Persister[T]
}

// NewAttribute binds def to the field reached through field. persister may be
// nil when Enable is not used.
func NewAttribute[T any](def *optionset.Definition, field Accessor[T], persister Persister[T], opts Options) (*Attribute[T], error) {
	if def == nil {
		return nil, fmt.Errorf("%w: nil definition", ErrInvalidAttribute)
	}
	if field.Get == nil || field.Set == nil {
		return nil, fmt.Errorf("%w: accessor needs Get and Set", ErrInvalidAttribute)
	}

	names, err := DeriveNames(def.TypeName(), opts)
	if err != nil {
		return nil, err
	}

	def.Finalize()

	return &Attribute[T]{
		def:       def,
		names:     names,
		field:     field,
		persister: persister,
	}, nil
}

// Definition returns the bound option-set definition.
func (a *Attribute[T]) Definition() *optionset.Definition {
	return a.def
}

// Names returns the derived accessor names.
func (a *Attribute[T]) Names() Names {
	return a.names
}

// Mask returns the raw stored mask.
func (a *Attribute[T]) Mask(rec T) uint64 {
	return a.field.Get(rec)
}

// Get decodes the stored mask into member names.
func (a *Attribute[T]) Get(rec T) []string {
	return a.def.Cast(a.field.Get(rec))
}

// Set replaces the stored mask with the encoding of names.
func (a *Attribute[T]) Set(rec T, names ...string) error {
	mask, err := a.def.Mask(names)
	if err != nil {
		return err
	}
	a.field.Set(rec, mask)
	return nil
}

// Has reports whether the entity has the named member.
func (a *Attribute[T]) Has(rec T, name string) (bool, error) {
	return a.def.Includes(name, a.field.Get(rec))
}

// Options lists every member name of the definition.
func (a *Attribute[T]) Options() []string {
	return a.def.AllNames()
}

// Add sets the named member on the entity.
func (a *Attribute[T]) Add(rec T, name string) error {
	return a.update(rec, func(mask uint64) (uint64, error) { return a.def.Add(name, mask) })
}

// Remove clears the named member on the entity.
func (a *Attribute[T]) Remove(rec T, name string) error {
	return a.update(rec, func(mask uint64) (uint64, error) { return a.def.Remove(name, mask) })
}

// Subtract clears every named member on the entity.
func (a *Attribute[T]) Subtract(rec T, names ...string) error {
	return a.update(rec, func(mask uint64) (uint64, error) { return a.def.Subtract(names, mask) })
}

// Merge sets every named member on the entity.
func (a *Attribute[T]) Merge(rec T, names ...string) error {
	return a.update(rec, func(mask uint64) (uint64, error) { return a.def.Merge(names, mask) })
}

// Enable adds the named member and persists the entity. When the persister
// is an [Updater] only the attribute's column is written, against the stored
// mask, and the committed mask is copied back into rec. Otherwise the whole
// entity is persisted and, if that fails, the previous mask is restored.
func (a *Attribute[T]) Enable(ctx context.Context, rec T, name string) error {
	if a.persister == nil {
		return ErrNoPersister
	}

	if u, ok := a.persister.(Updater[T]); ok {
		if _, err := a.def.Add(name, 0); err != nil {
			return err
		}
		committed, err := u.UpdateMask(ctx, rec, a.names.Column, func(mask uint64) (uint64, error) {
			return a.def.Add(name, mask)
		})
		if err != nil {
			return err
		}
		a.field.Set(rec, committed)
		return nil
	}

	prev := a.field.Get(rec)
	if err := a.Add(rec, name); err != nil {
		return err
	}
	if err := a.persister.Persist(ctx, rec); err != nil {
		a.field.Set(rec, prev)
		return err
	}
	return nil
}

func (a *Attribute[T]) update(rec T, fn func(mask uint64) (uint64, error)) error {
	next, err := fn(a.field.Get(rec))
	if err != nil {
		return err
	}
	a.field.Set(rec, next)
	return nil
}

/*
====================================
SET ALGEBRA GETTERS
====================================
*/

// Intersection returns the named members also present on the entity.
func (a *Attribute[T]) Intersection(rec T, names []string) ([]string, error) {
	return a.decode(a.def.Intersection(names, a.field.Get(rec)))
}

// Union returns the entity's members together with names.
func (a *Attribute[T]) Union(rec T, names []string) ([]string, error) {
	return a.decode(a.def.Union(names, a.field.Get(rec)))
}

// Difference returns the named members absent from the entity.
func (a *Attribute[T]) Difference(rec T, names []string) ([]string, error) {
	return a.decode(a.def.Difference(names, a.field.Get(rec)))
}

// SymmetricDifference returns members present in exactly one of names and the entity.
func (a *Attribute[T]) SymmetricDifference(rec T, names []string) ([]string, error) {
	return a.decode(a.def.SymmetricDifference(names, a.field.Get(rec)))
}

func (a *Attribute[T]) decode(mask uint64, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	return a.def.Cast(mask), nil
}

/*
====================================
PREDICATE GETTERS
====================================
*/

// Disjoint reports whether the entity has none of names.
func (a *Attribute[T]) Disjoint(rec T, names []string) (bool, error) {
	return a.def.Disjoint(names, a.field.Get(rec))
}

// Eql reports whether the entity has exactly names.
func (a *Attribute[T]) Eql(rec T, names []string) (bool, error) {
	return a.def.Eql(names, a.field.Get(rec))
}

// Intersects reports whether the entity has all of names.
func (a *Attribute[T]) Intersects(rec T, names []string) (bool, error) {
	return a.def.Intersects(names, a.field.Get(rec))
}

// Subset reports whether the entity's members are all among names.
func (a *Attribute[T]) Subset(rec T, names []string) (bool, error) {
	return a.def.Subset(names, a.field.Get(rec))
}

// Superset reports whether the entity has all of names.
func (a *Attribute[T]) Superset(rec T, names []string) (bool, error) {
	return a.def.Superset(names, a.field.Get(rec))
}

// ProperSubset is Subset excluding equality.
func (a *Attribute[T]) ProperSubset(rec T, names []string) (bool, error) {
	return a.def.ProperSubset(names, a.field.Get(rec))
}

// ProperSuperset is Superset excluding equality.
func (a *Attribute[T]) ProperSuperset(rec T, names []string) (bool, error) {
	return a.def.ProperSuperset(names, a.field.Get(rec))
}
