// Package migration is the Migration Planner's public API (spec.md §4.3):
// Build derives a canonical schema plan from a Schema Metadata Graph, Diff
// and Hash wrap dialect/sql/schema's change-detection and DDL emission.
package migration

import (
	"fmt"
	"strings"

	ormforge "github.com/ormforge/ormforge"
	"github.com/ormforge/ormforge/dialect"
	dschema "github.com/ormforge/ormforge/dialect/sql/schema"
	"github.com/ormforge/ormforge/metadata"
	baseschema "github.com/ormforge/ormforge/schema"
)

// Build derives the canonical schema — one dschema.Table per model — from
// graph, per spec.md §4.3 "Build": auto-adds an undeclared primary key,
// resolves each attribute's column type by the §3 inference priority,
// folds in trait-contributed columns (already merged into
// Model.AllAttributes), generates a unique index per non-PK unique column,
// appends declared composite indexes, and infers foreign keys from `_id`
// columns against the graph's model registry.
func Build(dialectName string, graph *metadata.Graph) ([]*dschema.Table, error) {
	if !dialect.Valid(dialectName) {
		return nil, ormforge.NewConfigError("dialect", dialectName, "must be one of postgres, mysql, sqlite")
	}

	models := graph.Models()
	tables := make(map[string]*dschema.Table, len(models))
	order := make([]string, 0, len(models))
	for _, m := range models {
		t := &dschema.Table{Name: m.Table()}
		tables[t.Name] = t
		order = append(order, t.Name)
	}

	for _, m := range models {
		t := tables[m.Table()]
		if err := buildColumns(t, m); err != nil {
			return nil, err
		}
		buildUniqueIndexes(t)
		buildDeclaredIndexes(t, m)
	}

	for _, m := range models {
		buildForeignKeys(tables[m.Table()], tables, graph)
	}

	out := make([]*dschema.Table, len(order))
	for i, name := range order {
		out[i] = tables[name]
	}

	if result := dschema.ValidateSchema(out); result.HasErrors() {
		return nil, ormforge.NewPlanningError("schema", "", result.String())
	}

	return out, nil
}

func buildColumns(t *dschema.Table, m *metadata.Model) error {
	pkName := m.PrimaryKey()
	pkDeclared := m.Attribute(pkName) != nil

	if !pkDeclared {
		pk := &dschema.Column{Name: pkName, Type: baseschema.TypeBigInt, AutoIncrement: true}
		t.Columns = append(t.Columns, pk)
		t.PrimaryKey = []*dschema.Column{pk}
	}

	for _, attr := range m.AllAttributes() {
		typ, err := metadata.InferColumnType(t.Name, attr)
		if err != nil {
			return err
		}
		if typ == baseschema.TypeEnum && len(attr.EnumValues) == 0 {
			return ormforge.NewPlanningError(t.Name, attr.Name, "enum column declared with no values")
		}
		col := &dschema.Column{
			Name:       attr.Name,
			Type:       typ,
			Nullable:   attr.Nullable,
			Default:    attr.Default,
			Size:       attr.Size,
			Precision:  attr.Precision,
			Scale:      attr.Scale,
			Unique:     attr.Unique,
			EnumValues: attr.EnumValues,
			Comment:    attr.Comment,
		}
		if attr.Name == pkName {
			col.AutoIncrement = typ == baseschema.TypeInteger || typ == baseschema.TypeBigInt
			t.PrimaryKey = []*dschema.Column{col}
		}
		t.Columns = append(t.Columns, col)
	}
	return nil
}

func buildUniqueIndexes(t *dschema.Table) {
	var pk *dschema.Column
	if len(t.PrimaryKey) > 0 {
		pk = t.PrimaryKey[0]
	}
	for _, col := range t.Columns {
		if !col.Unique || col == pk {
			continue
		}
		t.Indexes = append(t.Indexes, &dschema.Index{
			Name:    fmt.Sprintf("%s_%s_unique", t.Name, col.Name),
			Columns: []*dschema.Column{col},
			Unique:  true,
		})
	}
}

func buildDeclaredIndexes(t *dschema.Table, m *metadata.Model) {
	for _, idx := range m.AllIndexes() {
		cols := make([]*dschema.Column, 0, len(idx.Fields))
		for _, f := range idx.Fields {
			if c := t.Column(f); c != nil {
				cols = append(cols, c)
			}
		}
		if len(cols) == 0 {
			continue
		}
		name := idx.StorageKey
		if name == "" {
			suffix := "index"
			if idx.Unique {
				suffix = "unique"
			}
			name = fmt.Sprintf("%s_%s_%s", t.Name, strings.Join(idx.Fields, "_"), suffix)
		}
		t.Indexes = append(t.Indexes, &dschema.Index{Name: name, Columns: cols, Unique: idx.Unique})
	}
}

// buildForeignKeys implements spec.md §4.3 step 2's FK half: a column
// ending in "_id" whose inferred prefix maps to a known model becomes a
// foreign key to that model's primary key (graph.InferForeignKey already
// implements the snake_case→PascalCase plus registry-scan resolution of
// spec.md §9 Open Question (b)). The declaring model's own primary key
// column is never treated as a foreign key to itself.
func buildForeignKeys(t *dschema.Table, tables map[string]*dschema.Table, graph *metadata.Graph) {
	var pk *dschema.Column
	if len(t.PrimaryKey) > 0 {
		pk = t.PrimaryKey[0]
	}
	for _, col := range t.Columns {
		if col == pk {
			continue
		}
		refTableName, refColName, ok := graph.InferForeignKey(col.Name)
		if !ok {
			continue
		}
		refTable, exists := tables[refTableName]
		if !exists {
			continue
		}
		refCol := refTable.Column(refColName)
		if refCol == nil {
			continue
		}
		t.ForeignKeys = append(t.ForeignKeys, &dschema.ForeignKey{
			Symbol:     fmt.Sprintf("%s_%s_fkey", t.Name, col.Name),
			Columns:    []*dschema.Column{col},
			RefTable:   refTable,
			RefColumns: []*dschema.Column{refCol},
		})
	}
}
