// Package sqlgraph resolves a declared relationship into the join SQL that
// realises it (spec.md §4.4 "Relation joining") and classifies low-level
// driver errors into the constraint-violation taxonomy errors.go consumes.
package sqlgraph

import (
	ormforge "github.com/ormforge/ormforge"
	"github.com/ormforge/ormforge/dialect/sql"
	"github.com/ormforge/ormforge/schema/relation"
)

// ConstraintError wraps a driver error recognised as a database constraint
// violation, letting callers retain the underlying error via errors.As
// while still matching IsConstraintError.
type ConstraintError struct {
	msg string
	err error
}

func (e *ConstraintError) Error() string { return e.msg }
func (e *ConstraintError) Unwrap() error { return e.err }

// NewConstraintError wraps err with msg as a ConstraintError.
func NewConstraintError(msg string, err error) *ConstraintError {
	return &ConstraintError{msg: msg, err: err}
}

// Rel names the kind of relationship a Schema's edges carry, aliasing
// schema/relation's Kind so sqlgraph doesn't need the schema metadata
// graph's richer model-name vocabulary — only the join-shape distinction.
type Rel = relation.Kind

// Kinds re-exported for convenience at call sites already importing
// sqlgraph.
const (
	O2O = relation.HasOne
	O2M = relation.HasMany
	M2O = relation.BelongsTo
	M2M = relation.BelongsToMany
)

// NodeSpec names a node's table and primary key column.
type NodeSpec struct {
	Table string
	ID    string
}

// EdgeSpec describes one relationship edge from its owning Node to a
// target Node, carrying everything the join emitter needs: the relation
// kind, the target table, the FK/pivot column names, and (for *Through and
// morph relations) the intermediate table or discriminator column.
type EdgeSpec struct {
	Rel     Rel
	Table   string // pivot table for M2M/morph-to-many; not read by the FK, *Through or morph joins
	Columns []string
	Inverse bool // true when this Node is on the "many" side of a M2O/O2M pair

	// Through is the intermediate table name for hasOneThrough/hasManyThrough.
	Through string
	// MorphName/MorphType carry the polymorphic discriminator for
	// morph{One,Many,ToMany}/morphedByMany edges.
	MorphName string
	MorphType string

	// target is the edge's destination node type, stamped by AddE so the
	// join emitter can resolve the destination table without the caller
	// having to repeat it on every EdgeSpec literal.
	target string
}

// Node is one table in the join graph: its own spec plus the outgoing edges
// declared on it.
type Node struct {
	Type string // model name
	Spec NodeSpec
	Edges map[string]*EdgeSpec
}

// Schema is a registry of Nodes plus their edges, built up via AddE, then
// driven by Join to emit the LEFT JOIN a relation name resolves to.
type Schema struct {
	Nodes map[string]*Node
}

// NewSchema returns an empty Schema.
func NewSchema() *Schema {
	return &Schema{Nodes: make(map[string]*Node)}
}

// AddNode registers a node by model type name.
func (s *Schema) AddNode(typ string, spec NodeSpec) *Node {
	n := &Node{Type: typ, Spec: spec, Edges: make(map[string]*EdgeSpec)}
	s.Nodes[typ] = n
	return n
}

// AddE declares an edge named name from fromType to toType. Both types must
// already be registered via AddNode; an unregistered type fails with a
// SchemaError identifying which side is missing.
func (s *Schema) AddE(name string, e *EdgeSpec, fromType, toType string) error {
	from, ok := s.Nodes[fromType]
	if !ok {
		return ormforge.NewUnknownRelationError(fromType, name, nil)
	}
	if _, ok := s.Nodes[toType]; !ok {
		return ormforge.NewUnknownRelationError(toType, name, nil)
	}
	e.target = toType
	from.Edges[name] = e
	return nil
}

// Join appends the LEFT JOIN shape relationName's edge requires onto sel,
// returning the alias the joined table is reachable under. It implements
// spec.md §4.4 step 2's per-relation-kind dispatch: simple FK, belongsTo
// inverse FK, pivot for many-to-many, intermediate table for *Through,
// polymorphic type+id predicate for morph relations, reverse pivot for
// morphedByMany.
func (s *Schema) Join(sel *sql.Selector, fromType, relationName string, alias string) (string, error) {
	from, ok := s.Nodes[fromType]
	if !ok {
		return "", ormforge.NewUnknownRelationError(fromType, relationName, nil)
	}
	e, ok := from.Edges[relationName]
	if !ok {
		names := make([]string, 0, len(from.Edges))
		for n := range from.Edges {
			names = append(names, n)
		}
		return "", ormforge.NewUnknownRelationError(from.Spec.Table, relationName, names)
	}

	target, ok := s.Nodes[e.target]
	if !ok {
		return "", ormforge.NewUnknownRelationError(e.target, relationName, nil)
	}

	switch {
	case e.Rel.IsThrough():
		return joinThrough(sel, from, target, e, alias)
	case e.Rel == relation.MorphedByMany:
		return joinReversePivot(sel, from, target, e, alias)
	case e.Rel.IsPivoted():
		return joinPivot(sel, from, target, e, alias)
	case e.Rel.IsMorph():
		return joinMorph(sel, from, target, e, alias)
	case e.Rel == relation.BelongsTo:
		return joinBelongsTo(sel, from, target, e, alias)
	default:
		return joinSimple(sel, from, target, e, alias)
	}
}

// columnsEQ returns a "a = b" predicate comparing two column references
// rather than a column against a bound value, for join conditions.
func columnsEQ(a, b string) *sql.Predicate {
	return sql.P(func(bd *sql.Builder) {
		bd.Ident(a).WriteString(" = ").Ident(b)
	})
}

func joinSimple(sel *sql.Selector, from, target *Node, e *EdgeSpec, alias string) (string, error) {
	fk := e.Columns[0]
	t := sql.Table(target.Spec.Table).As(alias)
	sel.LeftJoin(t, columnsEQ(from.Spec.Table+"."+from.Spec.ID, t.C(fk)))
	return alias, nil
}

func joinBelongsTo(sel *sql.Selector, from, target *Node, e *EdgeSpec, alias string) (string, error) {
	fk := e.Columns[0]
	t := sql.Table(target.Spec.Table).As(alias)
	sel.LeftJoin(t, columnsEQ(from.Spec.Table+"."+fk, t.C(target.Spec.ID)))
	return alias, nil
}

func joinPivot(sel *sql.Selector, from, target *Node, e *EdgeSpec, alias string) (string, error) {
	pivotAlias := alias + "_pivot"
	first, second := e.Columns[0], e.Columns[1]
	pivot := sql.Table(e.Table).As(pivotAlias)
	sel.LeftJoin(pivot, columnsEQ(from.Spec.Table+"."+from.Spec.ID, pivot.C(first)))
	t := sql.Table(target.Spec.Table).As(alias)
	sel.LeftJoin(t, columnsEQ(pivot.C(second), t.C(target.Spec.ID)))
	return alias, nil
}

func joinReversePivot(sel *sql.Selector, from, target *Node, e *EdgeSpec, alias string) (string, error) {
	return joinPivot(sel, from, target, e, alias)
}

func joinThrough(sel *sql.Selector, from, target *Node, e *EdgeSpec, alias string) (string, error) {
	throughAlias := alias + "_through"
	firstKey, secondKey := e.Columns[0], e.Columns[1]
	through := sql.Table(e.Through).As(throughAlias)
	sel.LeftJoin(through, columnsEQ(from.Spec.Table+"."+from.Spec.ID, through.C(firstKey)))
	t := sql.Table(target.Spec.Table).As(alias)
	sel.LeftJoin(t, columnsEQ(through.C("id"), t.C(secondKey)))
	return alias, nil
}

func joinMorph(sel *sql.Selector, from, target *Node, e *EdgeSpec, alias string) (string, error) {
	idCol := e.MorphName + "_id"
	typeCol := e.MorphName + "_type"
	t := sql.Table(target.Spec.Table).As(alias)
	sel.LeftJoin(t, columnsEQ(from.Spec.Table+"."+from.Spec.ID, t.C(idCol)))
	sel.Where(sql.EQ(t.C(typeCol), e.MorphType))
	return alias, nil
}
