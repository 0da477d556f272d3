package binding

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// ErrInvalidName is returned when a derived or supplied accessor name is not a
// plain lower-case identifier usable as a column name.
var ErrInvalidName = errors.New("invalid binding name")

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Options controls how an attribute is named on its host type.
type Options struct {
	// As overrides the short name; it is singularized. Empty derives the short
	// name from the definition's type name ("AdminPermission" -> "admin_permission").
	As string
	// Through overrides the mask column. Empty uses "<plural>_mask".
	Through string
}

// Names are the identifiers derived for one attribute.
type Names struct {
	Short  string
	Plural string
	Column string
}

// DeriveNames computes the short, plural and column names for an option set
// type attached with opts.
func DeriveNames(typeName string, opts Options) (Names, error) {
	short := strings.TrimSpace(opts.As)
	if short != "" {
		short = inflection.Singular(snakeCase(short))
	} else {
		short = snakeCase(lastSegment(typeName))
	}

	if !identifierPattern.MatchString(short) {
		return Names{}, fmt.Errorf("%w: short name %q", ErrInvalidName, short)
	}

	plural := inflection.Plural(short)
	column := strings.TrimSpace(opts.Through)
	if column == "" {
		column = plural + "_mask"
	}
	if !identifierPattern.MatchString(column) {
		return Names{}, fmt.Errorf("%w: column %q", ErrInvalidName, column)
	}

	return Names{Short: short, Plural: plural, Column: column}, nil
}

// Accessors lists the accessor names a host type exposes for this attribute,
// in the naming scheme of the persisted schema. members are the option-set
// member names. Code generators and documentation use this listing.
func (n Names) Accessors(members []string) []string {
	out := []string{
		n.Plural,
		n.Plural + "=",
		"has_" + n.Short + "?",
		n.Short + "_options",
		"add_" + n.Short,
		"remove_" + n.Short,
		"subtract_" + n.Plural,
		"merge_" + n.Plural,
	}
	for _, op := range []string{"intersection", "union", "difference", "symmetric_difference"} {
		out = append(out, n.Plural+"_"+op)
	}
	for _, op := range []string{"disjoint", "eql", "intersect", "proper_subset", "proper_superset", "subset", "superset"} {
		out = append(out, n.Plural+"_"+op+"?")
	}
	for _, m := range members {
		out = append(out, n.Short+"_"+m+"?", n.Short+"_"+m+"!", n.Short+"_"+m)
	}
	return append(out, n.Plural+"_matching")
}

func lastSegment(typeName string) string {
	typeName = strings.TrimSpace(typeName)
	if i := strings.LastIndexAny(typeName, ".:/"); i >= 0 {
		return typeName[i+1:]
	}
	return typeName
}

// snakeCase converts CamelCase identifiers to snake_case; a lower-case letter or
// digit followed by an upper-case letter starts a new word.
func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '-' || r == ' ':
			b.WriteByte('_')
		case unicode.IsUpper(r):
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
