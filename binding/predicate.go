package binding

import (
	"strings"
)

// Clause matches host entities whose mask column has every bit of Mask set:
// (column & Mask) == Mask.
type Clause struct {
	Column string
	Mask   uint64
}

// Matches reports whether stored satisfies the clause.
func (c Clause) Matches(stored uint64) bool {
	return stored&c.Mask == c.Mask
}

// Predicate is a conjunction of clauses, one per option set. The zero value
// matches every entity.
type Predicate struct {
	Clauses []Clause
}

// And returns a predicate requiring both p and other.
func (p Predicate) And(other Predicate) Predicate {
	clauses := make([]Clause, 0, len(p.Clauses)+len(other.Clauses))
	clauses = append(clauses, p.Clauses...)
	clauses = append(clauses, other.Clauses...)
	return Predicate{Clauses: clauses}
}

// Columns returns the mask columns the predicate reads, in clause order.
func (p Predicate) Columns() []string {
	cols := make([]string, 0, len(p.Clauses))
	seen := make(map[string]struct{}, len(p.Clauses))
	for _, c := range p.Clauses {
		if _, ok := seen[c.Column]; ok {
			continue
		}
		seen[c.Column] = struct{}{}
		cols = append(cols, c.Column)
	}
	return cols
}

// Eval reports whether the masks returned by stored satisfy every clause.
func (p Predicate) Eval(stored func(column string) uint64) bool {
	for _, c := range p.Clauses {
		if !c.Matches(stored(c.Column)) {
			return false
		}
	}
	return true
}

// SQL renders the predicate as a parameterized WHERE fragment, for example
//
//	(admin_permissions_mask & ?) = ? AND (roles_mask & ?) = ?
//
// Arguments are int64 so masks using bit 63 bind to signed BIGINT columns.
// Column names come from [DeriveNames] and are validated identifiers. An empty
// predicate renders "1 = 1".
func (p Predicate) SQL() (string, []any) {
	if len(p.Clauses) == 0 {
		return "1 = 1", nil
	}

	var b strings.Builder
	args := make([]any, 0, len(p.Clauses)*2)
	for i, c := range p.Clauses {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteByte('(')
		b.WriteString(c.Column)
		b.WriteString(" & ?) = ?")
		args = append(args, int64(c.Mask), int64(c.Mask))
	}
	return b.String(), args
}
