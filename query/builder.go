// Package query is the Select Compiler (spec.md §4.4): a fluent builder
// that composes a read query as an append-only textual SQL buffer plus
// parameter vector over dialect/sql's Selector, threading relation joins,
// soft-delete scoping, pagination, and cancellation across chained calls.
package query

import (
	"strings"
	"time"

	ormforge "github.com/ormforge/ormforge"
	"github.com/ormforge/ormforge/dialect/sql"
	"github.com/ormforge/ormforge/dialect/sql/sqlgraph"
	"github.com/ormforge/ormforge/identifier"
	"github.com/ormforge/ormforge/metadata"
)

// Builder is the select compiler's public type: one instance per read
// query. Its zero value is not usable; construct with New.
type Builder struct {
	dialectName string
	cfg         ormforge.Config
	graph       *metadata.Graph
	model       string
	table       string
	sel         *sql.Selector

	graphSchema *sqlgraph.Schema
	visited     map[string]bool
	joinCount   int
	aliasSeq    int

	withTrashed bool
	onlyTrashed bool

	err error

	timeout  *time.Duration
	abortCh  <-chan struct{}
	cacheTTL *time.Duration
}

// New starts a select query against model, resolved through graph.
func New(dialectName string, graph *metadata.Graph, model string, cfg ormforge.Config) *Builder {
	cfg = cfg.WithDefaults()
	table := graph.TableForModel(model)
	b := &Builder{
		dialectName: dialectName,
		cfg:         cfg,
		graph:       graph,
		model:       model,
		table:       table,
		sel:         sql.Dialect(dialectName).Select().From(sql.Table(table)),
		graphSchema: buildGraphSchema(graph),
		visited:     make(map[string]bool),
	}
	if cfg.SoftDeletes.Enabled && cfg.SoftDeletes.DefaultFilter {
		b.applySoftDeleteScope(b.sel, table)
	}
	return b
}

func buildGraphSchema(graph *metadata.Graph) *sqlgraph.Schema {
	s := sqlgraph.NewSchema()
	for _, m := range graph.Models() {
		s.AddNode(m.Name, sqlgraph.NodeSpec{Table: m.Table(), ID: m.PrimaryKey()})
	}
	return s
}

// fail records the builder's sticky error, the first one wins, matching
// §7 "Identifier and schema errors surface immediately from builder
// methods — no SQL is produced" (a later call still returns the builder so
// chains remain readable, but ToSQL/Err surfaces the failure).
func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Err returns the first error recorded by any builder method, or nil.
func (b *Builder) Err() error { return b.err }

// Table returns the primary table name this builder selects from.
func (b *Builder) Table() string { return b.table }

// Model returns the model name this builder was constructed against.
func (b *Builder) Model() string { return b.model }

// PrimaryKey returns the primary key column of the builder's primary table,
// used by the execution layer's cursor pagination and chunk/chunkById/
// eachById iterators (spec.md §4.4 "Pagination").
func (b *Builder) PrimaryKey() string { return b.graph.PrimaryKeyOf(b.table) }

// Dialect returns the dialect name this builder composes SQL for.
func (b *Builder) Dialect() string { return b.dialectName }

// Select sets the select list, replacing "*".
func (b *Builder) Select(columns ...string) *Builder {
	if err := identifier.ValidateAll("column", columns...); err != nil {
		return b.fail(err)
	}
	b.sel = sql.Select(columns...).Dialect(b.dialectName).From(sql.Table(b.table))
	return b
}

func (b *Builder) applySoftDeleteScope(sel *sql.Selector, table string) {
	col := b.cfg.SoftDeletes.Column
	switch {
	case b.onlyTrashed:
		sel.WithSoftDeletes(sql.NotNull(sel.C(col)))
	case b.withTrashed:
		// no scope at all
	default:
		sel.WithSoftDeletes(sql.IsNull(sel.C(col)))
	}
	_ = table
}

// WithTrashed disables the implicit soft-delete filter for this query.
func (b *Builder) WithTrashed() *Builder {
	b.withTrashed = true
	b.sel.WithSoftDeletes(nil)
	return b
}

// OnlyTrashed restricts the query to soft-deleted rows.
func (b *Builder) OnlyTrashed() *Builder {
	b.onlyTrashed = true
	b.applySoftDeleteScope(b.sel, b.table)
	return b
}

// Where ANDs a conjunction of equality/IN conditions derived from an object
// literal: {col: val} becomes "col = ?", {col: []any{...}} becomes
// "col IN (?, ...)" (spec.md §4.4 where-composition shape (a)).
func (b *Builder) Where(conds map[string]any) *Builder {
	p, err := objectLiteralPredicate(b.sel, conds)
	if err != nil {
		return b.fail(err)
	}
	if p != nil {
		b.sel.Where(p)
	}
	return b
}

func objectLiteralPredicate(sel *sql.Selector, conds map[string]any) (*sql.Predicate, error) {
	cols := sortedKeys(conds)
	var p *sql.Predicate
	for _, col := range cols {
		if err := identifier.Validate("column", col); err != nil {
			return nil, err
		}
		v := conds[col]
		var next *sql.Predicate
		if vs, ok := asSlice(v); ok {
			next = sql.In(sel.C(col), vs...)
		} else {
			next = sql.EQ(sel.C(col), v)
		}
		if p == nil {
			p = next
		} else {
			p = sql.And(p, next)
		}
	}
	return p, nil
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	default:
		return nil, false
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// validOps lists the operators supported by WhereOp's triple shape
// (spec.md §4.4 where-composition shape (b)).
var validOps = map[string]bool{
	"=": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"like": true, "in": true, "not in": true, "is": true, "is not": true,
}

// WhereOp applies the triple shape [col, op, value] (spec.md §4.4 shape
// (b)): col op value, ANDed onto the existing WHERE clause.
func (b *Builder) WhereOp(col, op string, value any) *Builder {
	op = strings.ToLower(strings.TrimSpace(op))
	if !validOps[op] {
		return b.fail(ormforge.NewConfigError("operator", op, "must be one of =, !=, <, >, <=, >=, like, in, not in, is, is not"))
	}
	if err := identifier.Validate("column", col); err != nil {
		return b.fail(err)
	}
	p, err := opPredicate(b.sel, col, op, value)
	if err != nil {
		return b.fail(err)
	}
	b.sel.Where(p)
	return b
}

func opPredicate(sel *sql.Selector, col, op string, value any) (*sql.Predicate, error) {
	c := sel.C(col)
	switch op {
	case "=", "is":
		if value == nil {
			return sql.IsNull(c), nil
		}
		return sql.EQ(c, value), nil
	case "!=", "is not":
		if value == nil {
			return sql.NotNull(c), nil
		}
		return sql.NEQ(c, value), nil
	case "<":
		return sql.LT(c, value), nil
	case ">":
		return sql.GT(c, value), nil
	case "<=":
		return sql.LTE(c, value), nil
	case ">=":
		return sql.GTE(c, value), nil
	case "like":
		s, _ := value.(string)
		return sql.Raw(c+" LIKE ?", s), nil
	case "in":
		vs, _ := asSlice(value)
		return sql.In(c, vs...), nil
	case "not in":
		vs, _ := asSlice(value)
		return sql.NotIn(c, vs...), nil
	}
	return nil, ormforge.NewConfigError("operator", op, "unsupported")
}

// WhereRaw inserts fragment verbatim, ANDed onto the WHERE clause, with its
// own bind args (spec.md §4.4 where-composition shape (c)).
func (b *Builder) WhereRaw(fragment string, args ...any) *Builder {
	b.sel.Where(sql.Raw(fragment, args...))
	return b
}

// WhereIn appends "col IN (?, ...)".
func (b *Builder) WhereIn(col string, values ...any) *Builder {
	if err := identifier.Validate("column", col); err != nil {
		return b.fail(err)
	}
	b.sel.Where(sql.In(b.sel.C(col), values...))
	return b
}

// WhereNotIn appends "col NOT IN (?, ...)".
func (b *Builder) WhereNotIn(col string, values ...any) *Builder {
	if err := identifier.Validate("column", col); err != nil {
		return b.fail(err)
	}
	b.sel.Where(sql.NotIn(b.sel.C(col), values...))
	return b
}

// WhereInSubquery appends "col IN (<sub>)", the subquery-token variant of
// WhereIn (spec.md §4.4: "whereIn/whereNotIn accept either an array ... or
// a subquery token (parenthesised)").
func (b *Builder) WhereInSubquery(col string, sub sql.Querier) *Builder {
	if err := identifier.Validate("column", col); err != nil {
		return b.fail(err)
	}
	q, args := sub.Query()
	b.sel.Where(sql.Raw(b.sel.C(col)+" IN ("+q+")", args...))
	return b
}

// WhereAny applies op/value across cols joined by OR (spec.md §4.4
// "whereAny/whereAll/whereNone apply the same operator/value across a
// column list").
func (b *Builder) WhereAny(cols []string, op string, value any) *Builder {
	return b.whereColumnSet(cols, op, value, sql.Or, false)
}

// WhereAll applies op/value across cols joined by AND.
func (b *Builder) WhereAll(cols []string, op string, value any) *Builder {
	return b.whereColumnSet(cols, op, value, sql.And, false)
}

// WhereNone applies op/value across cols joined by OR, then negates the
// whole group (NOT (col1 op v OR col2 op v OR ...)).
func (b *Builder) WhereNone(cols []string, op string, value any) *Builder {
	return b.whereColumnSet(cols, op, value, sql.Or, true)
}

func (b *Builder) whereColumnSet(cols []string, op string, value any, combine func(...*sql.Predicate) *sql.Predicate, negate bool) *Builder {
	op = strings.ToLower(strings.TrimSpace(op))
	if !validOps[op] {
		return b.fail(ormforge.NewConfigError("operator", op, "must be one of =, !=, <, >, <=, >=, like, in, not in, is, is not"))
	}
	if err := identifier.ValidateAll("column", cols...); err != nil {
		return b.fail(err)
	}
	preds := make([]*sql.Predicate, 0, len(cols))
	for _, c := range cols {
		p, err := opPredicate(b.sel, c, op, value)
		if err != nil {
			return b.fail(err)
		}
		preds = append(preds, p)
	}
	p := combine(preds...)
	if negate {
		p = sql.Not(p)
	}
	b.sel.Where(p)
	return b
}

// WhereField resolves name (snake_case or PascalCase) to a column of the
// primary table and applies equality (or IN, if value is a slice),
// implementing the Go-idiomatic equivalent of spec.md §4.4's dynamic
// `where{Column}`/`orWhere{Column}` method dispatch. An unknown column name
// falls through using the literal snake-cased form, per spec.
func (b *Builder) WhereField(name string, value any) *Builder {
	col := resolveFieldName(b.graph, b.model, name)
	if err := identifier.Validate("column", col); err != nil {
		return b.fail(err)
	}
	if vs, ok := asSlice(value); ok {
		b.sel.Where(sql.In(b.sel.C(col), vs...))
		return b
	}
	b.sel.Where(sql.EQ(b.sel.C(col), value))
	return b
}

// resolveFieldName maps a where{Column}-style suffix to a declared
// attribute name, trying the snake-cased form, then a PascalCase match
// against each attribute's snake_case name, falling back to the literal
// snake-cased suffix when nothing matches.
func resolveFieldName(graph *metadata.Graph, model, name string) string {
	snake := toSnakeCase(name)
	modelObj := modelByName(graph, model)
	if modelObj == nil {
		return snake
	}
	for _, a := range modelObj.AllAttributes() {
		if a.Name == snake || strings.EqualFold(a.Name, snake) {
			return a.Name
		}
	}
	return snake
}

func modelByName(graph *metadata.Graph, name string) *metadata.Model {
	for _, m := range graph.Models() {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// OrderBy appends a column/direction pair to the ORDER BY clause.
func (b *Builder) OrderBy(column string, dir sql.OrderDir) *Builder {
	if err := identifier.Validate("column", column); err != nil {
		return b.fail(err)
	}
	b.sel.OrderBy(b.sel.C(column), dir)
	return b
}

// Limit sets LIMIT n.
func (b *Builder) Limit(n int) *Builder { b.sel.Limit(n); return b }

// Offset sets OFFSET n.
func (b *Builder) Offset(n int) *Builder { b.sel.Offset(n); return b }

// LockForUpdate appends FOR UPDATE.
func (b *Builder) LockForUpdate() *Builder { b.sel.ForUpdate(); return b }

// SharedLock appends the dialect's shared-lock syntax, dispatching through
// Config.SQL.SharedLockSyntax (defaulting per dialect) as spec.md §4.4
// requires ("sharedLock dispatches through the driver").
func (b *Builder) SharedLock() *Builder {
	syntax := b.cfg.SQL.SharedLockSyntax
	if syntax == "" {
		syntax = defaultSharedLockSyntax(b.dialectName)
	}
	b.sel.ForShare(syntax)
	return b
}

func defaultSharedLockSyntax(dialectName string) string {
	switch dialectName {
	case ormforge.DialectMySQL:
		return "LOCK IN SHARE MODE"
	case ormforge.DialectSQLite:
		return ""
	default:
		return "FOR SHARE"
	}
}

// WithCTE prepends a non-recursive named CTE whose body is sub's rendered
// SQL.
func (b *Builder) WithCTE(name string, sub sql.Querier) *Builder {
	if err := identifier.Validate("cte name", name); err != nil {
		return b.fail(err)
	}
	b.sel.With(name, sub)
	return b
}

// WithRecursive prepends a recursive named CTE.
func (b *Builder) WithRecursive(name string, sub sql.Querier) *Builder {
	if err := identifier.Validate("cte name", name); err != nil {
		return b.fail(err)
	}
	b.sel.WithRecursive(name, sub)
	return b
}

// RowNumber appends a ROW_NUMBER() OVER (...) AS alias projection.
func (b *Builder) RowNumber(alias string, partitionBy []string, orderBy []string) *Builder {
	return b.window(alias, "ROW_NUMBER()", partitionBy, orderBy)
}

// Rank appends a RANK() OVER (...) AS alias projection.
func (b *Builder) Rank(alias string, partitionBy []string, orderBy []string) *Builder {
	return b.window(alias, "RANK()", partitionBy, orderBy)
}

// DenseRank appends a DENSE_RANK() OVER (...) AS alias projection.
func (b *Builder) DenseRank(alias string, partitionBy []string, orderBy []string) *Builder {
	return b.window(alias, "DENSE_RANK()", partitionBy, orderBy)
}

func (b *Builder) window(alias, fn string, partitionBy, orderBy []string) *Builder {
	if err := identifier.Validate("alias", alias); err != nil {
		return b.fail(err)
	}
	if err := identifier.ValidateAll("column", partitionBy...); err != nil {
		return b.fail(err)
	}
	b.sel.Window(sql.WindowFunc{Alias: alias, Fn: fn, PartitionBy: partitionBy, OrderBy: orderBy})
	return b
}

// WithTimeout sets a cancellation timeout the execution layer enforces by
// racing the driver call (spec.md §4.6, §5 "Cancellation & timeouts"). A
// cancelled builder must not be reused.
func (b *Builder) WithTimeout(d time.Duration) *Builder {
	b.timeout = &d
	return b
}

// Abort installs an external abort signal the execution layer races
// against the driver call.
func (b *Builder) Abort(ch <-chan struct{}) *Builder {
	b.abortCh = ch
	return b
}

// Timeout returns the configured timeout, if any.
func (b *Builder) Timeout() (time.Duration, bool) {
	if b.timeout == nil {
		return 0, false
	}
	return *b.timeout, true
}

// AbortChan returns the configured abort channel, if any.
func (b *Builder) AbortChan() <-chan struct{} { return b.abortCh }

// Cache opts this query into selective caching with the given TTL (default
// 60s when ttl is zero), keyed on the finalised SQL text plus parameters
// (spec.md §4.6 "Selective caching").
func (b *Builder) Cache(ttl time.Duration) *Builder {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	b.cacheTTL = &ttl
	return b
}

// CacheTTL returns the configured cache TTL, if caching was requested.
func (b *Builder) CacheTTL() (time.Duration, bool) {
	if b.cacheTTL == nil {
		return 0, false
	}
	return *b.cacheTTL, true
}

// ToSQL finalises the builder, returning its rendered SQL text and
// parameter vector, or the first sticky error recorded by any builder
// method.
func (b *Builder) ToSQL() (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	q, args := b.sel.Query()
	return q, args, nil
}

// Selector exposes the underlying dialect/sql Selector for callers that
// need to compose it into a larger statement (a CTE body, a correlated
// subquery token) without going through ToSQL.
func (b *Builder) Selector() *sql.Selector { return b.sel }
