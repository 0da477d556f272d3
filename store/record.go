package store

import (
	"fmt"

	"github.com/MrEthical07/optionset"
	"github.com/MrEthical07/optionset/binding"
)

// Record is a host entity persisted by the store: an identifier plus one mask
// per attached option set, keyed by column name.
type Record struct {
	ID    string
	Masks map[string]uint64
}

// Mask returns the mask stored under column, zero when absent.
func (r *Record) Mask(column string) uint64 {
	if r == nil {
		return 0
	}
	return r.Masks[column]
}

// SetMask stores mask under column.
func (r *Record) SetMask(column string, mask uint64) {
	if r.Masks == nil {
		r.Masks = make(map[string]uint64)
	}
	r.Masks[column] = mask
}

// Column returns an accessor reading and writing column of a Record.
func Column(column string) binding.Accessor[*Record] {
	return binding.Accessor[*Record]{
		Get: func(r *Record) uint64 { return r.Mask(column) },
		Set: func(r *Record, mask uint64) { r.SetMask(column, mask) },
	}
}

// Attach attaches def to schema, reading and writing the column derived from
// opts. Persisting through the schema's persister writes the whole record.
func Attach(schema *binding.Schema[*Record], def *optionset.Definition, opts binding.Options) (*binding.Attribute[*Record], error) {
	if def == nil {
		return nil, fmt.Errorf("%w: nil definition", binding.ErrInvalidAttribute)
	}
	names, err := binding.DeriveNames(def.TypeName(), opts)
	if err != nil {
		return nil, err
	}
	if err := checkColumn(names.Column); err != nil {
		return nil, err
	}
	return schema.Attach(def, Column(names.Column), opts)
}
