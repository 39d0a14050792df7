// Package metadata builds the Schema Metadata Graph (spec.md §3, §4.1): the
// derived, immutable index over all declared model definitions that the
// migration planner and the select compiler's relation joiner both consult
// by key.
package metadata

import (
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/ormforge/ormforge/schema/attribute"
	"github.com/ormforge/ormforge/schema/index"
	"github.com/ormforge/ormforge/schema/relation"
	"github.com/ormforge/ormforge/schema/trait"
)

// ModelHook is a lifecycle callback attached to a model definition,
// mirroring the shape of Config.Hooks' create/delete callbacks (spec.md §6)
// but scoped to one model.
type ModelHook struct {
	Event string // "beforeCreate" | "afterCreate" | "beforeDelete" | "afterDelete"
	Fn    func(table string, row map[string]any) error
}

// Model is one declared model definition (spec.md §3 "Model Definition
// (input)"): a unique name, an optional table/primary-key override, its
// attributes/indexes/relations, and the traits and scopes mixed into it.
type Model struct {
	Name string

	// TableOverride sets an explicit table name; left empty, the table is
	// the pluralised, lowercased model name.
	TableOverride string
	// PrimaryKeyOverride sets a custom primary key column; left empty, "id".
	PrimaryKeyOverride string

	Attributes []*attribute.Descriptor
	Indexes    []*index.Descriptor
	Relations  []*relation.Descriptor
	Traits     []trait.Trait
	Hooks      []ModelHook

	// Scopes holds named query scopes: functions receiving a select
	// builder (spec.md §3). The concrete signature lives in the query
	// package, which this package cannot import without a cycle (query
	// resolves relations through the graph this package builds); callers
	// invoking a scope by name type-assert the expected
	// func(*query.Builder) *query.Builder signature themselves.
	Scopes map[string]any
}

// Table returns the model's table name: TableOverride if set, otherwise the
// pluralised, lowercased model name (spec.md §3).
func (m *Model) Table() string {
	if m.TableOverride != "" {
		return m.TableOverride
	}
	return inflect.Pluralize(strings.ToLower(m.Name))
}

// PrimaryKey returns the model's primary key column: PrimaryKeyOverride if
// set, otherwise "id".
func (m *Model) PrimaryKey() string {
	if m.PrimaryKeyOverride != "" {
		return m.PrimaryKeyOverride
	}
	return "id"
}

// AllAttributes merges the model's own attributes with every trait's
// contributed attributes, in trait-declaration order, skipping any
// trait-contributed attribute whose name the model (or an earlier trait)
// already declares — an explicit declaration always wins over a trait
// default.
func (m *Model) AllAttributes() []*attribute.Descriptor {
	seen := make(map[string]bool, len(m.Attributes))
	out := make([]*attribute.Descriptor, 0, len(m.Attributes))
	for _, a := range m.Attributes {
		seen[a.Name] = true
		out = append(out, a)
	}
	for _, t := range m.Traits {
		for _, a := range t.Attributes() {
			if seen[a.Name] {
				continue
			}
			seen[a.Name] = true
			out = append(out, a)
		}
	}
	return out
}

// AllRelations merges the model's own relations with every trait's
// contributed relations, skipping duplicate names under the same rule as
// AllAttributes.
func (m *Model) AllRelations() []*relation.Descriptor {
	seen := make(map[string]bool, len(m.Relations))
	out := make([]*relation.Descriptor, 0, len(m.Relations))
	for _, r := range m.Relations {
		seen[r.Name] = true
		out = append(out, r)
	}
	for _, t := range m.Traits {
		for _, r := range t.Relations() {
			if seen[r.Name] {
				continue
			}
			seen[r.Name] = true
			out = append(out, r)
		}
	}
	return out
}

// AllIndexes merges the model's own indexes with every trait's contributed
// indexes. Indexes have no unique name until the migration planner assigns
// one, so unlike attributes/relations, no dedup is performed: a trait and
// the model may legitimately both index overlapping columns.
func (m *Model) AllIndexes() []*index.Descriptor {
	out := make([]*index.Descriptor, 0, len(m.Indexes))
	out = append(out, m.Indexes...)
	for _, t := range m.Traits {
		out = append(out, t.Indexes()...)
	}
	return out
}

// Attribute returns the named attribute (own or trait-contributed), or nil.
func (m *Model) Attribute(name string) *attribute.Descriptor {
	for _, a := range m.AllAttributes() {
		if a.Name == name {
			return a
		}
	}
	return nil
}
