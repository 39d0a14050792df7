package dialect

import "github.com/ormforge/ormforge/schema"

// SchemaDialect is the uniform DDL/type-mapping contract the migration
// planner drives to emit dialect-correct SQL without the planner itself
// knowing any per-database syntax (spec.md §4.2's "dialect driver
// contract"). One implementation exists per supported dialect.
type SchemaDialect interface {
	// Name returns the dialect constant (Postgres, MySQL, SQLite).
	Name() string

	// QuoteIdentifier quotes a single (already-validated) identifier.
	QuoteIdentifier(ident string) string

	// ColumnTypeSQL renders the native column type for a canonical Type,
	// honoring size/precision hints carried on the attribute (e.g. string
	// length, decimal precision/scale). enumValues is non-nil only for
	// schema.TypeEnum.
	ColumnTypeSQL(t schema.Type, size, precision, scale int, enumValues []string) string

	// AutoIncrementClause returns the column-level fragment that marks a
	// primary key as auto-incrementing (e.g. "GENERATED BY DEFAULT AS
	// IDENTITY" on Postgres, "AUTO_INCREMENT" on MySQL, "AUTOINCREMENT" on
	// SQLite), or "" if the dialect expresses it another way.
	AutoIncrementClause() string

	// CreateMigrationsTableSQL returns the DDL for the migrations
	// bookkeeping table (spec.md §6).
	CreateMigrationsTableSQL(table string) string

	// RandomFunction returns the dialect's random-ordering function, e.g.
	// "RANDOM()" (Postgres/SQLite) or "RAND()" (MySQL).
	RandomFunction() string

	// SharedLockSyntax returns the SELECT ... FOR SHARE equivalent clause.
	SharedLockSyntax() string

	// JSONContainsExpr renders a JSON-contains predicate fragment for
	// column at jsonPath (dialect-specific: @> on Postgres, JSON_CONTAINS
	// on MySQL, json_each on SQLite).
	JSONContainsExpr(column, jsonPath string) string

	// SupportsReturning reports whether INSERT/UPDATE/DELETE ... RETURNING
	// is supported (Postgres and SQLite; not MySQL).
	SupportsReturning() bool

	// SupportsCheckConstraints reports whether CHECK(...) column
	// constraints are enforced (not MySQL < 8.0.16; assumed supported here).
	SupportsCheckConstraints() bool

	// AdvisoryLockSupported reports whether TryAdvisoryLock has a native
	// implementation on this dialect (only Postgres).
	AdvisoryLockSupported() bool
}

var registry = map[string]SchemaDialect{}

// Register installs d under its Name() in the dialect registry. Called from
// each dialect implementation's package init.
func Register(d SchemaDialect) { registry[d.Name()] = d }

// Get returns the registered SchemaDialect for name, or nil if unknown.
func Get(name string) SchemaDialect { return registry[name] }
