package optionset

import (
	"errors"
	"fmt"
)

var (
	// ErrNameConflict is returned when a member name is declared twice.
	ErrNameConflict = errors.New("name conflict")
	// ErrValueConflict is returned when a resolved member value is already owned by another member.
	ErrValueConflict = errors.New("value conflict")
	// ErrFrozenDefinition is returned when declaring on a finalized definition.
	ErrFrozenDefinition = errors.New("definition frozen")
	// ErrAbstractDeclaration is returned when declaring on the abstract root definition.
	ErrAbstractDeclaration = errors.New("cannot declare members on the abstract option set")
	// ErrUnknownMember is returned when a name does not resolve to a declared member.
	ErrUnknownMember = errors.New("unknown member")
	// ErrCapacityExceeded is returned when auto-assignment would need a bit beyond MaxMembers.
	ErrCapacityExceeded = errors.New("option set capacity exceeded")
	// ErrZeroValue is returned when a member is declared with an explicit zero value.
	ErrZeroValue = errors.New("member value must be non-zero")
	// ErrEmptyName is returned when a member is declared without a name.
	ErrEmptyName = errors.New("member name cannot be empty")
	// ErrInvalidMaskSize is returned by [DecodeMask] for payloads that are not 8 bytes long.
	ErrInvalidMaskSize = errors.New("invalid mask size")

	errTooManyValues = errors.New("at most one explicit value may be given")
)

// DeclarationError describes a rejected [Definition.Declare] call.
//
// Err is always one of the package sentinels, so callers match with errors.Is.
type DeclarationError struct {
	Type  string
	Name  string
	Value uint64
	// Owner is the name of the member already holding Value, set for ErrValueConflict.
	Owner string
	Err   error
}

func (e *DeclarationError) Error() string {
	typ := e.Type
	if typ == "" {
		typ = "OptionSet"
	}

	switch {
	case errors.Is(e.Err, ErrNameConflict):
		return fmt.Sprintf("name conflict: '%s::%s' is already defined", typ, e.Name)
	case errors.Is(e.Err, ErrValueConflict):
		return fmt.Sprintf("value conflict: the value '%d' is defined for '%s'", e.Value, e.Owner)
	case errors.Is(e.Err, ErrCapacityExceeded):
		return fmt.Sprintf("%v: '%s::%s' would need bit %d of %d", e.Err, typ, e.Name, MaxMembers, MaxMembers)
	case errors.Is(e.Err, ErrAbstractDeclaration):
		return fmt.Sprintf("%v: '%s'", e.Err, e.Name)
	default:
		return fmt.Sprintf("%s::%s: %v", typ, e.Name, e.Err)
	}
}

func (e *DeclarationError) Unwrap() error {
	return e.Err
}

func unknownMember(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownMember, name)
}
