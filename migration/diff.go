package migration

import (
	dschema "github.com/ormforge/ormforge/dialect/sql/schema"
)

// Diff compares previous against next and renders the changes needed into
// dialect-specific DDL, producing the ordered, hashable Plan spec.md §4.3
// "Diff" describes. When the two canonical schemas are identical, the
// returned Plan's Changes slice is empty; callers render spec.md §7's
// "-- no changes; nothing to apply" marker themselves when that's the case.
func Diff(dialectName string, previous, next []*dschema.Table) (*dschema.Plan, error) {
	return dschema.Build(dialectName, previous, next)
}

// ValidateOption configures Validate's tolerance for destructive changes.
type ValidateOption = dschema.ValidateOption

// AllowDropColumn, AllowDropTable, AllowDropIndex, and AllowNullToNotNull
// downgrade the corresponding check in Validate from an error to a warning.
var (
	AllowDropColumn    = dschema.AllowDropColumn
	AllowDropTable     = dschema.AllowDropTable
	AllowDropIndex     = dschema.AllowDropIndex
	AllowNullToNotNull = dschema.AllowNullToNotNull
)

// Validate checks previous against next for destructive changes — dropped
// tables/columns/indexes, NULL-to-NOT-NULL narrowing, shrinking column sizes
// — before a Diff'd Plan is applied. Callers typically call Validate first
// and refuse to apply a Plan whose Result.HasBreakingChanges() is true.
func Validate(previous, next []*dschema.Table, opts ...ValidateOption) *dschema.ValidationResult {
	return dschema.ValidateDiff(previous, next, opts...)
}
