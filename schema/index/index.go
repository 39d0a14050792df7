// Package index provides the fluent builder for composite database indexes
// declared on a model (spec.md §3 "Index Descriptor").
package index

import "github.com/ormforge/ormforge/schema"

// Descriptor is the built representation of an index declaration.
type Descriptor struct {
	Fields      []string
	Edges       []string // relation names participating in the index, e.g. a tenant FK
	Unique      bool
	StorageKey  string
	Annotations []schema.Annotation
}

// Builder builds an index Descriptor.
type Builder struct {
	desc *Descriptor
}

// Fields starts (or extends) an index over one or more attribute names.
func Fields(fields ...string) *Builder {
	return &Builder{desc: &Descriptor{Fields: fields}}
}

// Edges starts (or extends) an index over one or more relation names.
func Edges(edges ...string) *Builder {
	return &Builder{desc: &Descriptor{Edges: edges}}
}

// Fields appends attribute names to the index being built.
func (b *Builder) Fields(fields ...string) *Builder {
	b.desc.Fields = append(b.desc.Fields, fields...)
	return b
}

// Edges appends relation names to the index being built.
func (b *Builder) Edges(edges ...string) *Builder {
	b.desc.Edges = append(b.desc.Edges, edges...)
	return b
}

// Unique marks the index as enforcing uniqueness.
func (b *Builder) Unique() *Builder {
	b.desc.Unique = true
	return b
}

// StorageKey overrides the generated index name.
func (b *Builder) StorageKey(name string) *Builder {
	b.desc.StorageKey = name
	return b
}

// Annotations attaches driver-specific metadata to the index.
func (b *Builder) Annotations(annotations ...schema.Annotation) *Builder {
	b.desc.Annotations = append(b.desc.Annotations, annotations...)
	return b
}

// Descriptor returns the built index descriptor.
func (b *Builder) Descriptor() *Descriptor {
	return b.desc
}
