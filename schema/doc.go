// Package schema holds the vocabulary shared by every schema-definition
// subpackage (attribute, relation, index, trait): the canonical column
// [Type] enum consumed by the dialect drivers and the migration planner,
// and the [Annotation] / [Merger] contract used to attach driver-specific
// metadata (comments, custom column types, check constraints) to a
// descriptor without the descriptor package needing to know about it.
//
// The model definition itself — the aggregate of attributes, relations,
// indexes and traits that describes one table — lives in package metadata,
// which is the package that actually needs to import attribute, relation,
// index and trait together; schema stays a leaf so none of them have to
// import each other.
package schema
