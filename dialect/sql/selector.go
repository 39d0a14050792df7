package sql

import (
	"fmt"
	"strconv"
	"strings"
)

// SelectTable names a FROM/JOIN source table, with an optional alias.
type SelectTable struct {
	name    string
	schema  string
	alias   string
	dialect string
}

// Table starts a table reference usable in From/Join.
func Table(name string) *SelectTable { return &SelectTable{name: name} }

// Schema sets an explicit schema/database qualifier on the table.
func (t *SelectTable) Schema(name string) *SelectTable { t.schema = name; return t }

// As sets the table's alias.
func (t *SelectTable) As(alias string) *SelectTable { t.alias = alias; return t }

// C qualifies a column name with this table's alias (or name if unaliased).
func (t *SelectTable) C(column string) string {
	return fmt.Sprintf("%s.%s", t.ref(), column)
}

func (t *SelectTable) ref() string {
	if t.alias != "" {
		return t.alias
	}
	return t.name
}

func (t *SelectTable) writeTo(b *Builder) {
	if t.schema != "" {
		b.Ident(t.schema).WriteByte('.')
	}
	b.Ident(t.name)
	if t.alias != "" {
		b.WriteString(" AS ")
		b.Ident(t.alias)
	}
}

type joinClause struct {
	kind  string // INNER, LEFT, RIGHT, CROSS
	table *SelectTable
	on    *Predicate
}

type cteClause struct {
	name      string
	recursive bool
	query     Querier
}

type windowClause struct {
	alias      string
	fn         string
	partitionBy []string
	orderBy    []string
}

// Selector builds a SELECT statement. Its zero value is not usable; start
// with Select or Dialect(...).Select(...).
type Selector struct {
	dialect    string
	ctes       []cteClause
	distinct   bool
	columns    []string
	from       *SelectTable
	joins      []joinClause
	where      *Predicate
	group      []string
	having     *Predicate
	order      []string
	limit      *int
	offset     *int
	lock       string
	windows    []windowClause
	rawColumns []rawColumn
	softDelete *Predicate // applied transparently unless WithTrashed/OnlyTrashed overrides
}

// rawColumn is a verbatim SELECT-list fragment (e.g. a correlated scalar
// subquery) projected unquoted, paired with its own bind arguments.
type rawColumn struct {
	expr  string
	alias string
	args  []any
}

// SelectRaw appends a verbatim expression to the SELECT list aliased as
// alias, carrying its own positional arguments (spec.md §4.4 "withCount ...
// a correlated scalar subquery").
func (s *Selector) SelectRaw(expr, alias string, args ...any) *Selector {
	s.rawColumns = append(s.rawColumns, rawColumn{expr: expr, alias: alias, args: args})
	return s
}

// Dialect is the entrypoint used by consumers that need to bind a dialect
// before building anything, mirroring dialect.Driver.Dialect().
type dialectBuilder struct{ name string }

// Dialect returns a binder that produces dialect-bound builders.
func Dialect(name string) *dialectBuilder { return &dialectBuilder{name: name} }

// Select starts a SELECT statement bound to this dialect.
func (d *dialectBuilder) Select(columns ...string) *Selector {
	return Select(columns...).setDialect(d.name)
}

// Insert starts an INSERT statement bound to this dialect.
func (d *dialectBuilder) Insert(table string) *InsertBuilder {
	return Insert(table).setDialect(d.name)
}

// Update starts an UPDATE statement bound to this dialect.
func (d *dialectBuilder) Update(table string) *UpdateBuilder {
	return Update(table).setDialect(d.name)
}

// Delete starts a DELETE statement bound to this dialect.
func (d *dialectBuilder) Delete(table string) *DeleteBuilder {
	return Delete(table).setDialect(d.name)
}

// Select starts a SELECT statement. Bind a dialect via Selector.Dialect if
// this wasn't reached through Dialect(...).Select(...).
func Select(columns ...string) *Selector {
	return &Selector{columns: columns}
}

func (s *Selector) setDialect(name string) *Selector { s.dialect = name; return s }

// Dialect sets (or overrides) the selector's target dialect.
func (s *Selector) Dialect(name string) *Selector { s.dialect = name; return s }

// From sets the FROM table.
func (s *Selector) From(t *SelectTable) *Selector { s.from = t; return s }

// Distinct marks the SELECT as DISTINCT.
func (s *Selector) Distinct() *Selector { s.distinct = true; return s }

// TableName returns the underlying FROM table's name, ignoring alias.
func (s *Selector) TableName() string {
	if s.from == nil {
		return ""
	}
	return s.from.name
}

// C qualifies column with the FROM table's alias, for building predicates
// against this selector before a join introduces ambiguity.
func (s *Selector) C(column string) string {
	if s.from == nil {
		return column
	}
	return s.from.C(column)
}

// Where ANDs p onto the selector's WHERE clause.
func (s *Selector) Where(p *Predicate) *Selector {
	if s.where == nil {
		s.where = p
		return s
	}
	s.where = And(s.where, p)
	return s
}

// WithSoftDeletes installs scope, ANDed onto every query against this
// selector. The select compiler calls this once per soft-delete-enabled
// model unless withTrashed/onlyTrashed was requested.
func (s *Selector) WithSoftDeletes(scope *Predicate) *Selector {
	s.softDelete = scope
	return s
}

func (s *Selector) join(kind string, t *SelectTable, on *Predicate) *Selector {
	s.joins = append(s.joins, joinClause{kind: kind, table: t, on: on})
	return s
}

// ExtendLastJoinOn ANDs pred onto the ON clause of the most recently added
// join, for callers scoping a joined table (e.g. a soft-delete filter) after
// the join itself was already emitted. It is a no-op if no join exists yet.
// ANDing into the ON clause rather than the WHERE clause matters for a LEFT
// JOIN: a scoped-out joined row renders as NULL columns instead of
// eliminating the outer row entirely.
func (s *Selector) ExtendLastJoinOn(pred *Predicate) *Selector {
	if len(s.joins) == 0 || pred == nil {
		return s
	}
	last := &s.joins[len(s.joins)-1]
	last.on = And(last.on, pred)
	return s
}

// Join performs an INNER JOIN against t with the given ON predicate.
func (s *Selector) Join(t *SelectTable, on *Predicate) *Selector { return s.join("INNER", t, on) }

// LeftJoin performs a LEFT OUTER JOIN.
func (s *Selector) LeftJoin(t *SelectTable, on *Predicate) *Selector { return s.join("LEFT", t, on) }

// RightJoin performs a RIGHT OUTER JOIN.
func (s *Selector) RightJoin(t *SelectTable, on *Predicate) *Selector { return s.join("RIGHT", t, on) }

// GroupBy sets the GROUP BY columns.
func (s *Selector) GroupBy(columns ...string) *Selector { s.group = append(s.group, columns...); return s }

// Having ANDs p onto the HAVING clause.
func (s *Selector) Having(p *Predicate) *Selector {
	if s.having == nil {
		s.having = p
		return s
	}
	s.having = And(s.having, p)
	return s
}

// OrderDir is an ORDER BY direction.
type OrderDir string

// OrderDir values.
const (
	OrderAsc  OrderDir = "ASC"
	OrderDesc OrderDir = "DESC"
)

// OrderBy appends a column/direction pair to the ORDER BY clause.
func (s *Selector) OrderBy(column string, dir OrderDir) *Selector {
	s.order = append(s.order, fmt.Sprintf("%s %s", column, dir))
	return s
}

// OrderByRaw appends a raw ORDER BY fragment (e.g. "RANDOM()").
func (s *Selector) OrderByRaw(fragment string) *Selector {
	s.order = append(s.order, fragment)
	return s
}

// Limit sets LIMIT n.
func (s *Selector) Limit(n int) *Selector { s.limit = &n; return s }

// Offset sets OFFSET n.
func (s *Selector) Offset(n int) *Selector { s.offset = &n; return s }

// ForUpdate appends a pessimistic write lock (FOR UPDATE).
func (s *Selector) ForUpdate() *Selector { s.lock = "FOR UPDATE"; return s }

// ForShare appends a pessimistic shared lock, rendered per the dialect's
// shared-lock syntax (FOR SHARE on Postgres, LOCK IN SHARE MODE on MySQL).
func (s *Selector) ForShare(syntax string) *Selector { s.lock = syntax; return s }

// With attaches a non-recursive CTE.
func (s *Selector) With(name string, query Querier) *Selector {
	s.ctes = append(s.ctes, cteClause{name: name, query: query})
	return s
}

// WithRecursive attaches a recursive CTE.
func (s *Selector) WithRecursive(name string, query Querier) *Selector {
	s.ctes = append(s.ctes, cteClause{name: name, recursive: true, query: query})
	return s
}

// WindowFunc describes a window-function projection (ROW_NUMBER, RANK, ...).
type WindowFunc struct {
	Alias       string
	Fn          string // e.g. "ROW_NUMBER()", "RANK()", "DENSE_RANK()"
	PartitionBy []string
	OrderBy     []string
}

// Window appends a window-function column to the SELECT list.
func (s *Selector) Window(w WindowFunc) *Selector {
	s.windows = append(s.windows, windowClause{alias: w.Alias, fn: w.Fn, partitionBy: w.PartitionBy, orderBy: w.OrderBy})
	return s
}

// Clone returns a deep-enough copy of s safe to mutate independently (the
// select compiler clones a base selector per dynamic method-dispatch call
// so earlier calls in a chain stay immutable).
func (s *Selector) Clone() *Selector {
	c := *s
	c.columns = append([]string(nil), s.columns...)
	c.joins = append([]joinClause(nil), s.joins...)
	c.group = append([]string(nil), s.group...)
	c.order = append([]string(nil), s.order...)
	c.windows = append([]windowClause(nil), s.windows...)
	c.ctes = append([]cteClause(nil), s.ctes...)
	c.rawColumns = append([]rawColumn(nil), s.rawColumns...)
	return &c
}

// Query implements Querier, rendering the full SELECT statement.
func (s *Selector) Query() (string, []any) {
	b := &Builder{dialect: s.dialect}
	if len(s.ctes) > 0 {
		b.WriteString("WITH ")
		if anyRecursive(s.ctes) {
			b.WriteString("RECURSIVE ")
		}
		for i, c := range s.ctes {
			if i > 0 {
				b.Comma()
			}
			b.Ident(c.name).WriteString(" AS ")
			b.Wrap(func(nb *Builder) {
				q, args := c.query.Query()
				nb.WriteString(q)
				nb.args = append(nb.args, args...)
				nb.total += len(args)
			})
		}
		b.Pad()
	}
	b.WriteString("SELECT ")
	if s.distinct {
		b.WriteString("DISTINCT ")
	}
	s.writeColumns(b)
	b.WriteString(" FROM ")
	if s.from != nil {
		s.from.writeTo(b)
	}
	for _, j := range s.joins {
		b.WriteString(" " + j.kind + " JOIN ")
		j.table.writeTo(b)
		if j.on != nil {
			b.WriteString(" ON ")
			j.on.writeTo(b)
		}
	}
	where := s.effectiveWhere()
	if where != nil {
		b.WriteString(" WHERE ")
		where.writeTo(b)
	}
	if len(s.group) > 0 {
		b.WriteString(" GROUP BY ")
		for i, g := range s.group {
			if i > 0 {
				b.Comma()
			}
			b.Ident(g)
		}
	}
	if s.having != nil {
		b.WriteString(" HAVING ")
		s.having.writeTo(b)
	}
	if len(s.order) > 0 {
		b.WriteString(" ORDER BY " + strings.Join(s.order, ", "))
	}
	if s.limit != nil {
		b.WriteString(" LIMIT " + strconv.Itoa(*s.limit))
	}
	if s.offset != nil {
		b.WriteString(" OFFSET " + strconv.Itoa(*s.offset))
	}
	if s.lock != "" {
		b.WriteString(" " + s.lock)
	}
	return b.Query()
}

func (s *Selector) effectiveWhere() *Predicate {
	switch {
	case s.where != nil && s.softDelete != nil:
		return And(s.where, s.softDelete)
	case s.where != nil:
		return s.where
	default:
		return s.softDelete
	}
}

func (s *Selector) writeColumns(b *Builder) {
	n := len(s.columns) + len(s.windows) + len(s.rawColumns)
	if n == 0 {
		b.WriteByte('*')
		return
	}
	columns := s.columns
	if len(columns) == 0 && len(s.rawColumns) > 0 {
		// an explicit select list was never set: keep "*" alongside the
		// extra raw projections (e.g. withCount's scalar subquery) rather
		// than silently dropping every ordinary column.
		columns = []string{"*"}
	}
	wrote := 0
	for _, c := range columns {
		if wrote > 0 {
			b.Comma()
		}
		b.Ident(c)
		wrote++
	}
	for _, w := range s.windows {
		if wrote > 0 {
			b.Comma()
		}
		b.WriteString(w.fn)
		b.WriteString(" OVER (")
		if len(w.partitionBy) > 0 {
			b.WriteString("PARTITION BY ")
			for i, p := range w.partitionBy {
				if i > 0 {
					b.Comma()
				}
				b.Ident(p)
			}
			if len(w.orderBy) > 0 {
				b.Pad()
			}
		}
		if len(w.orderBy) > 0 {
			b.WriteString("ORDER BY " + strings.Join(w.orderBy, ", "))
		}
		b.WriteByte(')')
		b.WriteString(" AS ")
		b.Ident(w.alias)
		wrote++
	}
	for _, rc := range s.rawColumns {
		if wrote > 0 {
			b.Comma()
		}
		b.Wrap(func(nb *Builder) {
			nb.WriteString(rc.expr)
			nb.args = append(nb.args, rc.args...)
			nb.total += len(rc.args)
		})
		b.WriteString(" AS ")
		b.Ident(rc.alias)
		wrote++
	}
}

func anyRecursive(ctes []cteClause) bool {
	for _, c := range ctes {
		if c.recursive {
			return true
		}
	}
	return false
}
