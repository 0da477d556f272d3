package binding

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MrEthical07/optionset"
)

var (
	// ErrDuplicateAttribute is returned when two attributes of one schema share
	// a plural name or a column.
	ErrDuplicateAttribute = errors.New("attribute already attached")
	// ErrUnknownOptionSet is returned when a matching request names an option
	// set that is not attached to the schema.
	ErrUnknownOptionSet = errors.New("unknown option set")
)

// Schema collects the attributes attached to host type T and builds matching
// predicates across them.
//
// Attach attributes during initialization; lookups and predicate building are
// safe for concurrent use.
type Schema[T any] struct {
	persister Persister[T]

	mu       sync.RWMutex
	attrs    []*Attribute[T]
	byPlural map[string]*Attribute[T]
	byColumn map[string]*Attribute[T]
}

// NewSchema creates an empty schema. persister is handed to every attached
// attribute and may be nil.
func NewSchema[T any](persister Persister[T]) *Schema[T] {
	return &Schema[T]{
		persister: persister,
		byPlural:  make(map[string]*Attribute[T]),
		byColumn:  make(map[string]*Attribute[T]),
	}
}

// Attach binds def to a mask field of T and registers the resulting attribute.
func (s *Schema[T]) Attach(def *optionset.Definition, field Accessor[T], opts Options) (*Attribute[T], error) {
	attr, err := NewAttribute(def, field, s.persister, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byPlural[attr.names.Plural]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateAttribute, attr.names.Plural)
	}
	if _, exists := s.byColumn[attr.names.Column]; exists {
		return nil, fmt.Errorf("%w: column %s", ErrDuplicateAttribute, attr.names.Column)
	}

	s.attrs = append(s.attrs, attr)
	s.byPlural[attr.names.Plural] = attr
	s.byColumn[attr.names.Column] = attr

	return attr, nil
}

// MustAttach is like Attach but panics on error.
func (s *Schema[T]) MustAttach(def *optionset.Definition, field Accessor[T], opts Options) *Attribute[T] {
	attr, err := s.Attach(def, field, opts)
	if err != nil {
		panic(err)
	}
	return attr
}

// Attribute returns the attribute registered under its plural name.
func (s *Schema[T]) Attribute(plural string) (*Attribute[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attr, ok := s.byPlural[plural]
	return attr, ok
}

// Attributes returns the attached attributes in attach order.
func (s *Schema[T]) Attributes() []*Attribute[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Attribute[T], len(s.attrs))
	copy(out, s.attrs)
	return out
}

// Matching builds a predicate selecting entities that have all requested
// members of every requested option set. Keys are attribute plural names.
// Clauses follow attach order; an empty selection adds no clause.
//
// An unknown option set fails with ErrUnknownOptionSet and an unknown member
// with optionset.ErrUnknownMember; neither degrades to an empty result.
func (s *Schema[T]) Matching(requested map[string][]string) (Predicate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for key := range requested {
		if _, ok := s.byPlural[key]; !ok {
			return Predicate{}, fmt.Errorf("%w: %s", ErrUnknownOptionSet, key)
		}
	}

	var p Predicate
	for _, attr := range s.attrs {
		selected, ok := requested[attr.names.Plural]
		if !ok || len(selected) == 0 {
			continue
		}
		mask, err := attr.def.Mask(selected)
		if err != nil {
			return Predicate{}, fmt.Errorf("%s: %w", attr.names.Plural, err)
		}
		p.Clauses = append(p.Clauses, Clause{Column: attr.names.Column, Mask: mask})
	}
	return p, nil
}

// Scope builds the predicate selecting entities that have member in the
// option set registered as plural.
func (s *Schema[T]) Scope(plural, member string) (Predicate, error) {
	return s.Matching(map[string][]string{plural: {member}})
}

// Matches evaluates p against rec. Clauses on columns unknown to the schema
// read a zero mask.
func (s *Schema[T]) Matches(p Predicate, rec T) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return p.Eval(func(column string) uint64 {
		attr, ok := s.byColumn[column]
		if !ok {
			return 0
		}
		return attr.field.Get(rec)
	})
}

// Filter returns the records matching p, preserving order.
func (s *Schema[T]) Filter(p Predicate, recs []T) []T {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		if s.Matches(p, rec) {
			out = append(out, rec)
		}
	}
	return out
}
