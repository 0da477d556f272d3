package optionset

// Mask returns the bitwise OR of the values of the selected members.
// An empty selection yields zero.
func (d *Definition) Mask(selected []string) (uint64, error) {
	d.seal()
	var mask uint64
	for _, name := range selected {
		m, err := d.member(name)
		if err != nil {
			return 0, err
		}
		mask |= m.value
	}
	return mask, nil
}

// Cast decodes mask into the names of every member whose bits are fully set,
// in declaration order.
func (d *Definition) Cast(mask uint64) []string {
	d.seal()
	names := make([]string, 0, len(d.members))
	for _, m := range d.members {
		if mask&m.value == m.value {
			names = append(names, m.name)
		}
	}
	return names
}

// Includes reports whether the member's bits are fully set in mask.
func (d *Definition) Includes(name string, mask uint64) (bool, error) {
	d.seal()
	m, err := d.member(name)
	if err != nil {
		return false, err
	}
	return mask&m.value == m.value, nil
}

// Add returns mask with the member's bits set.
func (d *Definition) Add(name string, mask uint64) (uint64, error) {
	d.seal()
	m, err := d.member(name)
	if err != nil {
		return mask, err
	}
	return mask | m.value, nil
}

// Remove returns mask with the member's bits cleared.
func (d *Definition) Remove(name string, mask uint64) (uint64, error) {
	d.seal()
	m, err := d.member(name)
	if err != nil {
		return mask, err
	}
	return mask &^ m.value, nil
}

/*
====================================
BINARY ALGEBRA
====================================
*/

// Union returns Mask(selected) | mask.
func (d *Definition) Union(selected []string, mask uint64) (uint64, error) {
	return d.combine(selected, mask, func(m, mask uint64) uint64 { return m | mask })
}

// Merge folds the selected members into mask. It computes the same value as Union.
func (d *Definition) Merge(selected []string, mask uint64) (uint64, error) {
	return d.Union(selected, mask)
}

// Intersection returns Mask(selected) & mask.
func (d *Definition) Intersection(selected []string, mask uint64) (uint64, error) {
	return d.combine(selected, mask, func(m, mask uint64) uint64 { return m & mask })
}

// Difference returns the selected bits absent from mask: Mask(selected) &^ mask.
func (d *Definition) Difference(selected []string, mask uint64) (uint64, error) {
	return d.combine(selected, mask, func(m, mask uint64) uint64 { return m &^ mask })
}

// Subtract removes the selected members from mask: mask &^ Mask(selected).
// Note the operand order is the reverse of Difference.
func (d *Definition) Subtract(selected []string, mask uint64) (uint64, error) {
	return d.combine(selected, mask, func(m, mask uint64) uint64 { return mask &^ m })
}

// SymmetricDifference returns Mask(selected) ^ mask.
func (d *Definition) SymmetricDifference(selected []string, mask uint64) (uint64, error) {
	return d.combine(selected, mask, func(m, mask uint64) uint64 { return m ^ mask })
}

func (d *Definition) combine(selected []string, mask uint64, op func(m, mask uint64) uint64) (uint64, error) {
	m, err := d.Mask(selected)
	if err != nil {
		return mask, err
	}
	return op(m, mask), nil
}

/*
====================================
PREDICATES
====================================
*/

// Disjoint reports whether no selected bit is set in mask.
func (d *Definition) Disjoint(selected []string, mask uint64) (bool, error) {
	return d.test(selected, mask, func(m, mask uint64) bool { return m&mask == 0 })
}

// Intersects reports whether every selected bit is set in mask.
func (d *Definition) Intersects(selected []string, mask uint64) (bool, error) {
	return d.test(selected, mask, func(m, mask uint64) bool { return m&mask == m })
}

// Eql reports whether the selection encodes exactly mask.
func (d *Definition) Eql(selected []string, mask uint64) (bool, error) {
	return d.test(selected, mask, func(m, mask uint64) bool { return m == mask })
}

// Subset reports whether every bit of mask is covered by the selection:
// (Mask(selected) & mask) == mask. The stored mask is the subset here.
func (d *Definition) Subset(selected []string, mask uint64) (bool, error) {
	return d.test(selected, mask, subset)
}

// ProperSubset is Subset with the masks required to differ.
func (d *Definition) ProperSubset(selected []string, mask uint64) (bool, error) {
	return d.test(selected, mask, func(m, mask uint64) bool { return m != mask && subset(m, mask) })
}

// Superset reports whether every selected bit is set in mask:
// (Mask(selected) & mask) == Mask(selected).
func (d *Definition) Superset(selected []string, mask uint64) (bool, error) {
	return d.test(selected, mask, superset)
}

// ProperSuperset is Superset with the masks required to differ.
func (d *Definition) ProperSuperset(selected []string, mask uint64) (bool, error) {
	return d.test(selected, mask, func(m, mask uint64) bool { return m != mask && superset(m, mask) })
}

func subset(m, mask uint64) bool {
	return m&mask == mask
}

func superset(m, mask uint64) bool {
	return m&mask == m
}

func (d *Definition) test(selected []string, mask uint64, pred func(m, mask uint64) bool) (bool, error) {
	m, err := d.Mask(selected)
	if err != nil {
		return false, err
	}
	return pred(m, mask), nil
}
