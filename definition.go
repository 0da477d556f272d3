package optionset

import (
	"strings"
	"sync"
)

// MaxMembers is the capacity of a single option set. Masks are uint64, one bit per
// auto-assigned member; the 65th auto-assigned member is rejected with
// [ErrCapacityExceeded].
const MaxMembers = 64

// Declaration is one entry of a batch declaration. A zero Value requests
// auto-assignment.
type Declaration struct {
	Name  string
	Value uint64
}

// Definition is a registry of named bit-valued members. It is populated during a
// declaration phase and frozen by [Definition.Finalize]; every read operation
// finalizes it implicitly.
//
// The zero value is the abstract root definition and rejects all declarations.
type Definition struct {
	typeName string

	mu      sync.RWMutex
	members []Member
	byName  map[string]Member
	byValue map[uint64]Member
	frozen  bool
}

// New creates an empty, open definition for the option-set type typeName.
// An empty typeName yields an abstract definition.
func New(typeName string) *Definition {
	return &Definition{
		typeName: strings.TrimSpace(typeName),
		byName:   make(map[string]Member),
		byValue:  make(map[uint64]Member),
	}
}

// Define declares names with auto-assigned values and finalizes the result.
// It panics if any declaration fails and is meant for package-level variables.
func Define(typeName string, names ...string) *Definition {
	d := New(typeName)
	for _, name := range names {
		d.MustDeclare(name)
	}
	d.Finalize()
	return d
}

// TypeName returns the option-set type name the definition was created with.
func (d *Definition) TypeName() string {
	return d.typeName
}

// Declare registers a member. With no value the member gets 1 << index, index
// being its declaration position. At most one explicit value may be given.
func (d *Definition) Declare(name string, value ...uint64) (Member, error) {
	name = normalizeName(name)

	if d.typeName == "" {
		return Member{}, &DeclarationError{Name: name, Err: ErrAbstractDeclaration}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.frozen {
		return Member{}, &DeclarationError{Type: d.typeName, Name: name, Err: ErrFrozenDefinition}
	}

	if name == "" {
		return Member{}, &DeclarationError{Type: d.typeName, Err: ErrEmptyName}
	}

	var val uint64
	switch len(value) {
	case 0:
		index := len(d.members)
		if index >= MaxMembers {
			return Member{}, &DeclarationError{Type: d.typeName, Name: name, Err: ErrCapacityExceeded}
		}
		val = 1 << index
	case 1:
		val = value[0]
		if val == 0 {
			return Member{}, &DeclarationError{Type: d.typeName, Name: name, Err: ErrZeroValue}
		}
	default:
		return Member{}, &DeclarationError{Type: d.typeName, Name: name, Err: errTooManyValues}
	}

	if _, exists := d.byName[name]; exists {
		return Member{}, &DeclarationError{Type: d.typeName, Name: name, Err: ErrNameConflict}
	}

	if owner, exists := d.byValue[val]; exists {
		return Member{}, &DeclarationError{
			Type:  d.typeName,
			Name:  name,
			Value: val,
			Owner: owner.name,
			Err:   ErrValueConflict,
		}
	}

	m := Member{name: name, value: val}
	d.members = append(d.members, m)
	d.byName[name] = m
	d.byValue[val] = m

	return m, nil
}

// MustDeclare is like Declare but panics on error.
func (d *Definition) MustDeclare(name string, value ...uint64) Member {
	m, err := d.Declare(name, value...)
	if err != nil {
		panic(err)
	}
	return m
}

// DeclareAll declares every entry in order and stops at the first failure.
// Members declared before the failure stay registered.
func (d *Definition) DeclareAll(decls ...Declaration) error {
	for _, decl := range decls {
		var err error
		if decl.Value == 0 {
			_, err = d.Declare(decl.Name)
		} else {
			_, err = d.Declare(decl.Name, decl.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Finalize ends the declaration phase. It is idempotent.
func (d *Definition) Finalize() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frozen = true
}

// Frozen reports whether the declaration phase has ended.
func (d *Definition) Frozen() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.frozen
}

// seal finalizes an open definition on first read. Once frozen the tables are
// never written again, so callers may read them without holding the lock.
func (d *Definition) seal() {
	d.mu.RLock()
	frozen := d.frozen
	d.mu.RUnlock()
	if !frozen {
		d.Finalize()
	}
}

// Len returns the number of declared members.
func (d *Definition) Len() int {
	d.seal()
	return len(d.members)
}

// Members returns a copy of the members in declaration order.
func (d *Definition) Members() []Member {
	d.seal()
	out := make([]Member, len(d.members))
	copy(out, d.members)
	return out
}

// AllNames returns every member name in declaration order.
func (d *Definition) AllNames() []string {
	d.seal()
	names := make([]string, len(d.members))
	for i, m := range d.members {
		names[i] = m.name
	}
	return names
}

// Values returns every member value in declaration order.
func (d *Definition) Values() []uint64 {
	d.seal()
	values := make([]uint64, len(d.members))
	for i, m := range d.members {
		values[i] = m.value
	}
	return values
}

// Lookup returns the member registered under name.
func (d *Definition) Lookup(name string) (Member, bool) {
	d.seal()
	m, ok := d.byName[normalizeName(name)]
	return m, ok
}

// MemberOf returns the member owning exactly value.
func (d *Definition) MemberOf(value uint64) (Member, bool) {
	d.seal()
	m, ok := d.byValue[value]
	return m, ok
}

// FullMask returns the union of every member value.
func (d *Definition) FullMask() uint64 {
	d.seal()
	var mask uint64
	for _, m := range d.members {
		mask |= m.value
	}
	return mask
}

func (d *Definition) member(name string) (Member, error) {
	m, ok := d.byName[normalizeName(name)]
	if !ok {
		return Member{}, unknownMember(name)
	}
	return m, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
