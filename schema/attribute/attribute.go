// Package attribute provides the fluent builder for model attributes (the
// "Attribute Descriptor" of spec.md §3): a validation rule chain, an
// optional default value or factory, and the fillable/hidden/guarded/unique
// flags consumed by the migration planner and the DML compilers.
package attribute

import (
	"github.com/jellydator/validation"

	"github.com/ormforge/ormforge/schema"
)

// Descriptor is the built representation of an attribute declaration.
type Descriptor struct {
	Name string

	// ExplicitType is set by a typed constructor (String, Int, Enum, ...)
	// and is the validation-rule type tag spec.md §3 ranks first in the
	// column-type inference priority. Zero value means "infer from
	// default/column-name instead".
	ExplicitType schema.Type

	Rules []validation.Rule

	Default     any
	DefaultFunc func() any
	Factory     func() any

	Unique   bool
	Hidden   bool
	Guarded  bool
	Fillable bool
	Nullable bool

	Size       int
	Precision  int
	Scale      int
	EnumValues []string
	Comment    string

	Annotations []schema.Annotation
}

// Builder builds an attribute Descriptor.
type Builder struct {
	desc *Descriptor
}

func named(name string, t schema.Type) *Builder {
	return &Builder{desc: &Descriptor{Name: name, ExplicitType: t, Fillable: true}}
}

// New starts an attribute with no explicit type; its column type is inferred
// entirely from default value and column-name heuristics (spec.md §3
// priorities 2-4).
func New(name string) *Builder { return named(name, "") }

// String declares a varchar(255) attribute.
func String(name string) *Builder { b := named(name, schema.TypeString); b.desc.Size = 255; return b }

// Text declares an unbounded text attribute.
func Text(name string) *Builder { return named(name, schema.TypeText) }

// Int declares an integer attribute.
func Int(name string) *Builder { return named(name, schema.TypeInteger) }

// BigInt declares a bigint attribute.
func BigInt(name string) *Builder { return named(name, schema.TypeBigInt) }

// Float declares a single-precision floating point attribute.
func Float(name string) *Builder { return named(name, schema.TypeFloat) }

// Double declares a double-precision floating point attribute.
func Double(name string) *Builder { return named(name, schema.TypeDouble) }

// Decimal declares a fixed-precision decimal attribute.
func Decimal(name string, precision, scale int) *Builder {
	b := named(name, schema.TypeDecimal)
	b.desc.Precision, b.desc.Scale = precision, scale
	return b
}

// Bool declares a boolean attribute.
func Bool(name string) *Builder { return named(name, schema.TypeBoolean) }

// Date declares a date-only attribute.
func Date(name string) *Builder { return named(name, schema.TypeDate) }

// Time declares a datetime attribute.
func Time(name string) *Builder { return named(name, schema.TypeDateTime) }

// JSON declares a JSON attribute.
func JSON(name string) *Builder { return named(name, schema.TypeJSON) }

// UUID declares a UUID attribute.
func UUID(name string) *Builder { return named(name, schema.TypeUUID) }

// Bytes declares a binary blob attribute.
func Bytes(name string) *Builder { return named(name, schema.TypeBytes) }

// Enum declares an enum attribute, preserving the value list verbatim
// (spec.md §3 "Enum columns are detected from validation rules that carry
// an enumerated value list").
func Enum(name string, values ...string) *Builder {
	b := named(name, schema.TypeEnum)
	b.desc.EnumValues = values
	return b
}

// Validate attaches a jellydator/validation rule chain. Rules are the
// attribute's source-of-truth for application-level validation; they do not
// by themselves change the inferred column type unless the attribute was
// declared via Enum (which records its value list independently of rules).
func (b *Builder) Validate(rules ...validation.Rule) *Builder {
	b.desc.Rules = append(b.desc.Rules, rules...)
	return b
}

// Default sets a literal default value (spec.md §3 inference priority 2
// when no explicit type was declared).
func (b *Builder) Default(v any) *Builder {
	b.desc.Default = v
	return b
}

// DefaultFunc sets a default-value factory (e.g. time.Now, uuid.New),
// distinct from Default's literal value. Column-type inference calls it once
// to sample its runtime type; the DML compilers do not call it on insert.
func (b *Builder) DefaultFunc(fn func() any) *Builder {
	b.desc.DefaultFunc = fn
	return b
}

// Factory attaches the attribute's test/seed value generator.
func (b *Builder) Factory(fn func() any) *Builder {
	b.desc.Factory = fn
	return b
}

// Unique marks the attribute as carrying a unique index.
func (b *Builder) Unique() *Builder { b.desc.Unique = true; return b }

// Hidden excludes the attribute from default serialization.
func (b *Builder) Hidden() *Builder { b.desc.Hidden = true; return b }

// Guarded excludes the attribute from mass assignment.
func (b *Builder) Guarded() *Builder { b.desc.Guarded = true; return b }

// Fillable allows the attribute in mass assignment. Attributes are fillable
// by default; Guarded overrides this.
func (b *Builder) Fillable() *Builder { b.desc.Fillable = true; return b }

// Optional marks the column nullable.
func (b *Builder) Optional() *Builder { b.desc.Nullable = true; return b }

// Comment attaches a column comment.
func (b *Builder) Comment(text string) *Builder { b.desc.Comment = text; return b }

// Annotations attaches driver-specific metadata to the attribute.
func (b *Builder) Annotations(annotations ...schema.Annotation) *Builder {
	b.desc.Annotations = append(b.desc.Annotations, annotations...)
	return b
}

// Descriptor returns the built attribute descriptor.
func (b *Builder) Descriptor() *Descriptor { return b.desc }
