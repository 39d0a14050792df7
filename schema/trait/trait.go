// Package trait provides reusable schema augmentations ("traits" in
// spec.md §3: "timestamps, soft-deletes, UUID, search") that a model
// definition can mix in instead of redeclaring the same attributes,
// relations, and indexes on every schema.
//
// A trait mirrors the shape of a model definition itself (Attributes,
// Relations, Indexes) so the metadata builder can append its output onto
// the declaring model's own the same way it merges any other schema
// fragment.
package trait

import (
	"time"

	"github.com/ormforge/ormforge/schema"
	"github.com/ormforge/ormforge/schema/attribute"
	"github.com/ormforge/ormforge/schema/index"
	"github.com/ormforge/ormforge/schema/relation"
)

// Trait is the interface every trait implements. Embed Base and override
// only the methods a concrete trait needs.
type Trait interface {
	Attributes() []*attribute.Descriptor
	Relations() []*relation.Descriptor
	Indexes() []*index.Descriptor
	Annotations() []schema.Annotation
}

// Base is the default Trait implementation; embed it in custom traits and
// override whichever methods contribute schema fragments.
//
//	type Auditable struct {
//	    trait.Base
//	}
//
//	func (Auditable) Attributes() []*attribute.Descriptor {
//	    return []*attribute.Descriptor{attribute.String("created_by").Optional().Descriptor()}
//	}
type Base struct{}

// Attributes returns no attributes. Override to contribute some.
func (Base) Attributes() []*attribute.Descriptor { return nil }

// Relations returns no relations. Override to contribute some.
func (Base) Relations() []*relation.Descriptor { return nil }

// Indexes returns no indexes. Override to contribute some.
func (Base) Indexes() []*index.Descriptor { return nil }

// Annotations returns no annotations. Override to contribute some.
func (Base) Annotations() []schema.Annotation { return nil }

var _ Trait = (*Base)(nil)

// =============================================================================
// Built-in traits (spec.md §3, §4.1)
// =============================================================================

// Timestamps adds created_at (non-nullable) and updated_at (nullable). Both
// carry a DefaultFunc returning time.Now, which column-type inference
// samples; neither gets a server-side DEFAULT in the generated DDL.
type Timestamps struct {
	Base
	// CreatedAtColumn overrides the created_at column name.
	CreatedAtColumn string
	// UpdatedAtColumn overrides the updated_at column name.
	UpdatedAtColumn string
}

func (t Timestamps) createdAtColumn() string {
	if t.CreatedAtColumn != "" {
		return t.CreatedAtColumn
	}
	return "created_at"
}

func (t Timestamps) updatedAtColumn() string {
	if t.UpdatedAtColumn != "" {
		return t.UpdatedAtColumn
	}
	return "updated_at"
}

// Attributes returns the created_at/updated_at attributes.
func (t Timestamps) Attributes() []*attribute.Descriptor {
	return []*attribute.Descriptor{
		attribute.Time(t.createdAtColumn()).
			DefaultFunc(func() any { return time.Now() }).
			Comment("Timestamp when the entity was created").
			Descriptor(),
		attribute.Time(t.updatedAtColumn()).
			Optional().
			DefaultFunc(func() any { return time.Now() }).
			Comment("Timestamp when the entity was last updated").
			Descriptor(),
	}
}

// CreatedAtOnly adds only the created_at column, for models that track
// creation but never mutate afterward.
type CreatedAtOnly struct {
	Base
	CreatedAtColumn string
}

// Attributes returns the created_at attribute.
func (t CreatedAtOnly) Attributes() []*attribute.Descriptor {
	col := t.CreatedAtColumn
	if col == "" {
		col = "created_at"
	}
	return []*attribute.Descriptor{
		attribute.Time(col).
			DefaultFunc(func() any { return time.Now() }).
			Comment("Timestamp when the entity was created").
			Descriptor(),
	}
}

// SoftDelete adds a nullable deleted_at column per spec.md §4.1 "Soft-delete
// trait guarantees a nullable deleted_at (name configurable) column of
// datetime type."
type SoftDelete struct {
	Base
	// Column overrides the deleted_at column name.
	Column string
}

func (s SoftDelete) column() string {
	if s.Column != "" {
		return s.Column
	}
	return "deleted_at"
}

// Attributes returns the deleted_at attribute.
func (s SoftDelete) Attributes() []*attribute.Descriptor {
	return []*attribute.Descriptor{
		attribute.Time(s.column()).
			Optional().
			Comment("Timestamp when the entity was soft deleted (nil means not deleted)").
			Descriptor(),
	}
}

// TimestampsSoftDelete combines Timestamps and SoftDelete.
type TimestampsSoftDelete struct {
	Base
	CreatedAtColumn string
	UpdatedAtColumn string
	DeletedAtColumn string
}

// Attributes returns the created_at, updated_at, and deleted_at attributes.
func (t TimestampsSoftDelete) Attributes() []*attribute.Descriptor {
	ts := Timestamps{CreatedAtColumn: t.CreatedAtColumn, UpdatedAtColumn: t.UpdatedAtColumn}
	sd := SoftDelete{Column: t.DeletedAtColumn}
	return append(ts.Attributes(), sd.Attributes()...)
}

// UUID replaces the primary key attribute with a unique uuid-typed one. It
// sets no default, so no value is generated for it at insert time.
type UUID struct {
	Base
	// Column overrides the primary key column name (default "id").
	Column string
}

func (u UUID) column() string {
	if u.Column != "" {
		return u.Column
	}
	return "id"
}

// Attributes returns the UUID primary key attribute.
func (u UUID) Attributes() []*attribute.Descriptor {
	return []*attribute.Descriptor{
		attribute.UUID(u.column()).
			Unique().
			Comment("Primary key, generated client-side").
			Descriptor(),
	}
}

// Search adds a composite index over the named columns to back a
// full-text/LIKE-prefix search scope.
type Search struct {
	Base
	// Columns are the attribute names the index covers.
	Columns []string
	// Name overrides the index's storage key.
	Name string
}

// Indexes returns the composite search index.
func (s Search) Indexes() []*index.Descriptor {
	b := index.Fields(s.Columns...)
	if s.Name != "" {
		b = b.StorageKey(s.Name)
	}
	return []*index.Descriptor{b.Descriptor()}
}
