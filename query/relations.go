package query

import (
	"fmt"
	"strings"

	ormforge "github.com/ormforge/ormforge"
	"github.com/ormforge/ormforge/dialect/sql"
	"github.com/ormforge/ormforge/dialect/sql/sqlgraph"
	"github.com/ormforge/ormforge/metadata"
	"github.com/ormforge/ormforge/schema/relation"
)

// With eager-loads relationName (a flat name, or a dotted path like
// "author.company" for nested eager-loading) by emitting the LEFT JOIN(s)
// it resolves to (spec.md §4.4 "Relation joining"). callbacks, when given,
// constrain the final hop's own WHERE clause; each receives a scoped
// Builder whose Table() is the relation's joined alias.
func (b *Builder) With(relationName string, callbacks ...func(*Builder)) *Builder {
	if b.err != nil {
		return b
	}
	hops := strings.Split(relationName, ".")
	if len(hops) > b.cfg.Relations.MaxDepth {
		return b.fail(ormforge.NewMaxDepthError(relationName))
	}

	fromModel := b.model
	fromTable := b.table
	for i, hop := range hops {
		if b.cfg.Relations.DetectCycles {
			key := fromModel + "->" + hop
			if b.visited[key] {
				return b.fail(ormforge.NewCircularRelationshipError(fromTable, hop))
			}
			b.visited[key] = true
		}
		b.joinCount++
		if b.joinCount > b.cfg.Relations.MaxEagerLoad {
			return b.fail(ormforge.NewMaxEagerLoadError(relationName))
		}

		info, ok := b.graph.ResolveRelation(fromTable, hop)
		if !ok {
			return b.fail(ormforge.NewUnknownRelationError(fromTable, hop, b.graph.AvailableRelationsOf(fromTable)))
		}
		targetModel := b.graph.ModelForTable(info.TargetTable)
		if targetModel == "" {
			targetModel = info.Target
		}

		b.aliasSeq++
		alias := fmt.Sprintf("t%d", b.aliasSeq)
		edgeSpec := relationInfoToEdgeSpec(info)
		if err := b.graphSchema.AddE(hop, edgeSpec, fromModel, targetModel); err != nil {
			return b.fail(err)
		}
		if _, err := b.graphSchema.Join(b.sel, fromModel, hop, alias); err != nil {
			return b.fail(err)
		}
		b.scopeJoinedSoftDeletes(targetModel, alias)

		fromModel = targetModel
		fromTable = info.TargetTable

		if i == len(hops)-1 {
			for _, cb := range callbacks {
				scoped := &Builder{
					dialectName: b.dialectName,
					cfg:         b.cfg,
					graph:       b.graph,
					model:       fromModel,
					table:       alias,
					sel:         b.sel,
					graphSchema: b.graphSchema,
					visited:     b.visited,
				}
				cb(scoped)
				if scoped.err != nil {
					return b.fail(scoped.err)
				}
			}
		}
	}
	return b
}

// scopeJoinedSoftDeletes ANDs a soft-delete filter onto the ON clause of the
// join just added for targetModel/alias, when soft deletes are enabled
// globally and targetModel itself carries the configured column. Scoping the
// ON clause rather than the WHERE clause preserves outer-join semantics: a
// row whose joined side is soft-deleted renders with NULL joined columns
// instead of dropping the primary row from the result set.
func (b *Builder) scopeJoinedSoftDeletes(targetModel, alias string) {
	if !b.cfg.SoftDeletes.Enabled || !b.cfg.SoftDeletes.DefaultFilter {
		return
	}
	model := modelByName(b.graph, targetModel)
	if model == nil || model.Attribute(b.cfg.SoftDeletes.Column) == nil {
		return
	}
	b.sel.ExtendLastJoinOn(sql.IsNull(sql.Table(alias).C(b.cfg.SoftDeletes.Column)))
}

// relationInfoToEdgeSpec translates a resolved metadata.RelationInfo into
// the sqlgraph.EdgeSpec its join emitter understands.
func relationInfoToEdgeSpec(info *metadata.RelationInfo) *sqlgraph.EdgeSpec {
	e := &sqlgraph.EdgeSpec{Rel: info.Kind}
	switch {
	case info.Kind.IsThrough():
		e.Through = info.ThroughTable
		e.Columns = []string{info.FirstKey, info.SecondKey}
	case info.Kind.IsPivoted():
		e.Table = info.Pivot
		e.Columns = []string{info.PivotFirst, info.PivotSecond}
	case info.Kind.IsMorph():
		e.MorphName = info.MorphName
		e.MorphType = info.MorphType
	default: // HasOne, HasMany, BelongsTo: plain FK, located per Kind
		e.Columns = []string{info.ForeignKey}
	}
	return e
}

// columnsEQ builds an "a = b" predicate comparing two column references,
// for join/correlation conditions where neither side is a bound value.
func columnsEQ(a, b string) *sql.Predicate {
	return sql.P(func(bd *sql.Builder) {
		bd.Ident(a).WriteString(" = ").Ident(b)
	})
}

// correlatedSubquery builds "SELECT 1 FROM <target> WHERE <correlation>",
// correlated back to the calling Builder's current table by relationName's
// resolved join shape, for use inside EXISTS(...) and scalar-count
// subqueries (spec.md §4.4 "withCount/whereHas/whereDoesntHave ...
// implemented as correlated subqueries").
func (b *Builder) correlatedSubquery(relationName, projection string, extra ...func(*Builder)) (*sql.Selector, error) {
	info, ok := b.graph.ResolveRelation(b.table, relationName)
	if !ok {
		return nil, ormforge.NewUnknownRelationError(b.table, relationName, b.graph.AvailableRelationsOf(b.table))
	}
	targetModel := b.graph.ModelForTable(info.TargetTable)
	if targetModel == "" {
		targetModel = info.Target
	}
	outer := sql.Table(b.table)
	targetPK := b.graph.PrimaryKeyOf(info.TargetTable)

	sub := sql.Dialect(b.dialectName).Select(projection).From(sql.Table(info.TargetTable))
	switch {
	case info.Kind == relation.BelongsTo:
		sub.Where(columnsEQ(outer.C(info.ForeignKey), sub.C(targetPK)))
	case info.Kind.IsPivoted():
		pivot := sql.Table(info.Pivot)
		sub.Join(pivot, columnsEQ(sub.C(targetPK), pivot.C(info.PivotSecond)))
		sub.Where(columnsEQ(pivot.C(info.PivotFirst), outer.C(b.graph.PrimaryKeyOf(b.table))))
	case info.Kind.IsThrough():
		through := sql.Table(info.ThroughTable)
		sub.Join(through, columnsEQ(sub.C(info.SecondKey), through.C("id")))
		sub.Where(columnsEQ(through.C(info.FirstKey), outer.C(b.graph.PrimaryKeyOf(b.table))))
	case info.Kind.IsMorph():
		sub.Where(sql.And(
			columnsEQ(sub.C(info.MorphName+"_id"), outer.C(b.graph.PrimaryKeyOf(b.table))),
			sql.EQ(sub.C(info.MorphName+"_type"), info.MorphType),
		))
	default: // HasOne, HasMany: FK lives on the target table
		sub.Where(columnsEQ(sub.C(info.ForeignKey), outer.C(b.graph.PrimaryKeyOf(b.table))))
	}

	for _, cb := range extra {
		scoped := &Builder{
			dialectName: b.dialectName,
			cfg:         b.cfg,
			graph:       b.graph,
			model:       targetModel,
			table:       info.TargetTable,
			sel:         sub,
			graphSchema: b.graphSchema,
			visited:     b.visited,
		}
		cb(scoped)
		if scoped.err != nil {
			return nil, scoped.err
		}
	}
	return sub, nil
}

// withCount appends a correlated scalar subquery counting relationName's
// matching rows, aliased "<relation>_count" (spec.md §4.4 "withCount").
func (b *Builder) withCount(relationName string) *Builder {
	if b.err != nil {
		return b
	}
	sub, err := b.correlatedSubquery(relationName, "COUNT(*)")
	if err != nil {
		return b.fail(err)
	}
	countSQL, args := sub.Query()
	b.sel.SelectRaw(countSQL, relationName+"_count", args...)
	return b
}

// whereHas restricts rows to those with at least one matching relationName
// row, optionally further constrained by callback (spec.md §4.4
// "whereHas/whereDoesntHave").
func (b *Builder) whereHas(relationName string, callback ...func(*Builder)) *Builder {
	return b.applyHasPredicate(relationName, callback, false)
}

func (b *Builder) whereDoesntHave(relationName string, callback ...func(*Builder)) *Builder {
	return b.applyHasPredicate(relationName, callback, true)
}

func (b *Builder) applyHasPredicate(relationName string, callback []func(*Builder), negate bool) *Builder {
	if b.err != nil {
		return b
	}
	sub, err := b.correlatedSubquery(relationName, "(1)", callback...)
	if err != nil {
		return b.fail(err)
	}
	q, args := sub.Query()
	existsPred := sql.Raw("EXISTS ("+q+")", args...)
	if negate {
		existsPred = sql.Not(existsPred)
	}
	b.sel.Where(existsPred)
	return b
}

// Has is the Go-idiomatic spelling of spec.md's `has(relation)`: restricts
// to rows with at least one matching relationName row.
func (b *Builder) Has(relationName string) *Builder { return b.whereHas(relationName) }

// DoesntHave restricts to rows with zero matching relationName rows.
func (b *Builder) DoesntHave(relationName string) *Builder { return b.whereDoesntHave(relationName) }

// WhereHas restricts rows to those with at least one matching relationName
// row satisfying callback.
func (b *Builder) WhereHas(relationName string, callback func(*Builder)) *Builder {
	return b.whereHas(relationName, callback)
}

// WhereDoesntHave restricts rows to those with zero matching rows
// satisfying callback.
func (b *Builder) WhereDoesntHave(relationName string, callback func(*Builder)) *Builder {
	return b.whereDoesntHave(relationName, callback)
}
