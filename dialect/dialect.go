// Package dialect provides the database-dialect abstraction consumed by the
// select compiler, the DML compilers, and the migration planner: the
// uniform low-level transport contract (Driver/Tx/ExecQuerier) plus, in this
// package, the per-database SQL-generation contract (SchemaDialect) that the
// migration planner and DDL emitters drive (spec.md §4.2).
//
// # Supported Dialects
//
//   - Postgres: PostgreSQL
//   - MySQL: MySQL/MariaDB
//   - SQLite: SQLite
package dialect

import "context"

// Dialect name constants, shared across the whole module.
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
)

// Valid reports whether name is one of the three supported dialects.
func Valid(name string) bool {
	switch name {
	case Postgres, MySQL, SQLite:
		return true
	default:
		return false
	}
}

// ExecQuerier is implemented by both Driver and Tx: the minimal surface the
// select compiler, DML compilers and migration planner need to run SQL.
type ExecQuerier interface {
	Exec(ctx context.Context, query string, args, v any) error
	Query(ctx context.Context, query string, args, v any) error
}

// Driver wraps a live connection to a database of a specific dialect.
type Driver interface {
	ExecQuerier
	Tx(ctx context.Context) (Tx, error)
	Close() error
	Dialect() string
}

// Tx is a Driver bound to an open transaction.
type Tx interface {
	Driver
	Commit() error
	Rollback() error
}
