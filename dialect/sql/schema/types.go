// Package schema describes database tables in dialect-neutral terms (Table,
// Column, Index, ForeignKey) and turns the difference between two such
// descriptions into an ordered, dialect-specific DDL script: the migration
// planner (spec.md §4.3) is a thin driver over Build, which runs Diff and
// renders each change through this package's per-dialect emit step.
package schema

import (
	baseschema "github.com/ormforge/ormforge/schema"
)

// Column describes one table column in dialect-neutral terms.
type Column struct {
	Name       string
	Type       baseschema.Type
	Nullable   bool
	Default    any
	Size       int // string length / varchar size
	Precision  int // decimal precision
	Scale      int // decimal scale
	Unique     bool
	EnumValues []string
	Comment    string
	// AutoIncrement marks a single-column integer primary key as
	// auto-incrementing (dialect.SchemaDialect.AutoIncrementClause).
	AutoIncrement bool
}

// Index describes a (possibly composite, possibly unique) index.
type Index struct {
	Name    string
	Columns []*Column
	Unique  bool
}

// ForeignKey describes a foreign-key constraint.
type ForeignKey struct {
	Symbol     string
	Columns    []*Column
	RefTable   *Table
	RefColumns []*Column
	OnDelete   string // CASCADE | SET NULL | RESTRICT | NO ACTION | SET DEFAULT
	OnUpdate   string
}

// Table describes one table in dialect-neutral terms.
type Table struct {
	Name        string
	Columns     []*Column
	Indexes     []*Index
	ForeignKeys []*ForeignKey
	PrimaryKey  []*Column
	Comment     string
}

// Column looks up a column by name, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}
