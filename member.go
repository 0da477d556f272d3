package optionset

// Member is one named, bit-valued element of a [Definition].
//
// Members are created by [Definition.Declare] and never change afterwards.
type Member struct {
	name  string
	value uint64
}

// Name returns the normalized member name.
func (m Member) Name() string {
	return m.name
}

// Value returns the member's bit value.
func (m Member) Value() uint64 {
	return m.value
}

// String returns the member name.
func (m Member) String() string {
	return m.name
}

// Equal reports whether both members carry the same name and value.
func (m Member) Equal(other Member) bool {
	return m.name == other.name && m.value == other.value
}

// IsZero reports whether m is the zero Member returned by failed lookups.
func (m Member) IsZero() bool {
	return m.name == "" && m.value == 0
}
