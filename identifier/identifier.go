// Package identifier validates the dynamically-assembled SQL identifiers
// (columns, tables, pivots, foreign keys, aliases) used throughout the
// select compiler, the DML compilers, and the migration planner (spec.md
// §4.9). Parameter values never flow through this path — they are always
// placeholder-bound by the query builders.
package identifier

import (
	"fmt"
	"regexp"

	"github.com/ormforge/ormforge"
)

// pattern matches ^[A-Z_][\w.]*$ case-insensitively, as specified by §4.9:
// a leading letter or underscore, followed by word characters or dots (to
// allow "schema.table" or "table.column" forms).
var pattern = regexp.MustCompile(`(?i)^[a-z_][\w.]*$`)

// Valid reports whether name is a safe SQL identifier.
func Valid(name string) bool {
	if name == "" {
		return false
	}
	return pattern.MatchString(name)
}

// Validate returns a ConfigError naming where (the calling context, e.g.
// "column", "table", "pivot table", "foreign key", "alias") when name fails
// the identifier safety check, and nil otherwise.
func Validate(where, name string) error {
	if !Valid(name) {
		return ormforge.NewConfigError(where, name, fmt.Sprintf("must match %s", pattern.String()))
	}
	return nil
}

// MustValidate panics if name is not a valid identifier. Reserved for
// internal call sites that have already validated indirectly (e.g. names
// taken verbatim from a resolved schema.Model) where a failure would
// indicate a programming error rather than bad user input.
func MustValidate(where, name string) {
	if err := Validate(where, name); err != nil {
		panic(err)
	}
}

// ValidateAll validates every name in names under the same context label,
// returning the first failure.
func ValidateAll(where string, names ...string) error {
	for _, n := range names {
		if err := Validate(where, n); err != nil {
			return err
		}
	}
	return nil
}
