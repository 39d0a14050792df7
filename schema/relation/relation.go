// Package relation provides the fluent builder for declared relationships
// between models (spec.md §3 "declared relationships
// (hasOne/hasMany/belongsTo/belongsToMany/hasOneThrough/hasManyThrough/
// morphOne/morphMany/morphToMany/morphedByMany)"). Each constructor returns
// a Descriptor carrying enough information for the schema metadata graph
// to resolve it into the right join shape without the select compiler
// needing to branch on relation kind by name.
package relation

import "github.com/ormforge/ormforge/schema"

// Kind tags the relation-variant a Descriptor represents, modeled as a
// tagged union per spec.md §9 ("Polymorphic relations... tagged union...
// not an inheritance hierarchy") extended to cover every non-morph kind too.
type Kind string

// The ten relation kinds declarable on a model.
const (
	HasOne         Kind = "hasOne"
	HasMany        Kind = "hasMany"
	BelongsTo      Kind = "belongsTo"
	BelongsToMany  Kind = "belongsToMany"
	HasOneThrough  Kind = "hasOneThrough"
	HasManyThrough Kind = "hasManyThrough"
	MorphOne       Kind = "morphOne"
	MorphMany      Kind = "morphMany"
	MorphToMany    Kind = "morphToMany"
	MorphedByMany  Kind = "morphedByMany"
)

// IsMorph reports whether k carries a polymorphic type discriminator
// column rather than a plain foreign key.
func (k Kind) IsMorph() bool {
	switch k {
	case MorphOne, MorphMany, MorphToMany, MorphedByMany:
		return true
	default:
		return false
	}
}

// IsThrough reports whether k traverses an intermediate table to reach its
// target, distinct from a direct pivot (BelongsToMany).
func (k Kind) IsThrough() bool {
	return k == HasOneThrough || k == HasManyThrough
}

// IsPivoted reports whether k joins through a dedicated pivot/join table
// rather than a foreign key column on one of the two sides.
func (k Kind) IsPivoted() bool {
	switch k {
	case BelongsToMany, MorphToMany, MorphedByMany:
		return true
	default:
		return false
	}
}

// Descriptor is the built representation of a relationship declaration.
type Descriptor struct {
	Name   string
	Kind   Kind
	Target string // target model name

	// ForeignKey overrides the inferred FK column name. Left empty, the
	// schema metadata graph derives it as the singularised, lowercased model
	// name plus "_id": Target's for BelongsTo, the declaring model's for
	// HasOne/HasMany. RelationsConfig.ForeignKeyFormat is not consulted.
	ForeignKey string
	// OwnerKey overrides the local key the foreign key references (default
	// the owning model's primary key).
	OwnerKey string

	// Through is the intermediate model name for *Through relations.
	Through string
	// FirstKey is the FK on the intermediate table pointing back to the
	// declaring model; SecondKey is the FK on the target table pointing to
	// the intermediate model.
	FirstKey  string
	SecondKey string

	// Pivot names the join table for BelongsToMany/morph-to-many
	// relations. Left empty, the schema metadata graph derives it from the
	// lexicographically sorted singular model names (spec.md §9 Open
	// Question (a)); set it explicitly to override that order.
	Pivot       string
	PivotFirst  string // this model's FK column on the pivot
	PivotSecond string // target model's FK column on the pivot

	// MorphName is the relation family name used to derive the `{name}_type`
	// / `{name}_id` discriminator columns on a morph relation (e.g.
	// "commentable" for polymorphic Comment.commentable).
	MorphName string
	// MorphType overrides the literal value stored in the `{name}_type`
	// column (default: the declaring model's name, or Target for
	// MorphedByMany).
	MorphType string

	Annotations []schema.Annotation
}

// Builder builds a relation Descriptor.
type Builder struct {
	desc *Descriptor
}

func build(name string, kind Kind, target string) *Builder {
	return &Builder{desc: &Descriptor{Name: name, Kind: kind, Target: target}}
}

// HasOneRel declares a hasOne relationship: target carries the foreign key.
func HasOneRel(name, target string) *Builder { return build(name, HasOne, target) }

// HasManyRel declares a hasMany relationship: target carries the foreign key.
func HasManyRel(name, target string) *Builder { return build(name, HasMany, target) }

// BelongsToRel declares a belongsTo relationship: the declaring model
// carries the foreign key, pointing at target's primary key.
func BelongsToRel(name, target string) *Builder { return build(name, BelongsTo, target) }

// BelongsToManyRel declares a many-to-many relationship through a pivot
// table (named/derived per spec.md §9 Open Question (a) unless Pivot is
// called).
func BelongsToManyRel(name, target string) *Builder { return build(name, BelongsToMany, target) }

// HasOneThroughRel declares a hasOneThrough relationship traversing the
// named intermediate model.
func HasOneThroughRel(name, target, through string) *Builder {
	b := build(name, HasOneThrough, target)
	b.desc.Through = through
	return b
}

// HasManyThroughRel declares a hasManyThrough relationship traversing the
// named intermediate model.
func HasManyThroughRel(name, target, through string) *Builder {
	b := build(name, HasManyThrough, target)
	b.desc.Through = through
	return b
}

// MorphOneRel declares a polymorphic one-to-one relationship; morphName
// derives the `{morphName}_type`/`{morphName}_id` columns on target.
func MorphOneRel(name, target, morphName string) *Builder {
	b := build(name, MorphOne, target)
	b.desc.MorphName = morphName
	return b
}

// MorphManyRel declares a polymorphic one-to-many relationship.
func MorphManyRel(name, target, morphName string) *Builder {
	b := build(name, MorphMany, target)
	b.desc.MorphName = morphName
	return b
}

// MorphToManyRel declares a polymorphic many-to-many relationship: the
// declaring model owns morphName's discriminator columns on the pivot.
func MorphToManyRel(name, target, morphName string) *Builder {
	b := build(name, MorphToMany, target)
	b.desc.MorphName = morphName
	return b
}

// MorphedByManyRel declares the inverse side of a MorphToMany relation.
func MorphedByManyRel(name, target, morphName string) *Builder {
	b := build(name, MorphedByMany, target)
	b.desc.MorphName = morphName
	return b
}

// ForeignKey overrides the inferred foreign-key column name.
func (b *Builder) ForeignKey(column string) *Builder { b.desc.ForeignKey = column; return b }

// OwnerKey overrides the local key referenced by the foreign key.
func (b *Builder) OwnerKey(column string) *Builder { b.desc.OwnerKey = column; return b }

// FirstKey sets the intermediate-table FK back to the declaring model
// (Through relations only).
func (b *Builder) FirstKey(column string) *Builder { b.desc.FirstKey = column; return b }

// SecondKey sets the FK on the target table pointing at the intermediate
// model (Through relations only).
func (b *Builder) SecondKey(column string) *Builder { b.desc.SecondKey = column; return b }

// Pivot names the join table explicitly, overriding the derived
// lexicographic default (BelongsToMany/morph-to-many relations only).
func (b *Builder) Pivot(table string) *Builder { b.desc.Pivot = table; return b }

// PivotKeys names the two FK columns on the pivot table explicitly.
func (b *Builder) PivotKeys(first, second string) *Builder {
	b.desc.PivotFirst, b.desc.PivotSecond = first, second
	return b
}

// MorphType overrides the literal value stored in the morph discriminator
// column (default: the model name on the owning side).
func (b *Builder) MorphType(value string) *Builder { b.desc.MorphType = value; return b }

// Annotations attaches driver-specific metadata to the relation.
func (b *Builder) Annotations(annotations ...schema.Annotation) *Builder {
	b.desc.Annotations = append(b.desc.Annotations, annotations...)
	return b
}

// Descriptor returns the built relation descriptor.
func (b *Builder) Descriptor() *Descriptor { return b.desc }
