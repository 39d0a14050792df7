package sql

import (
	"strconv"

	"github.com/ormforge/ormforge/dialect"
)

// InsertBuilder builds an INSERT statement, with optional RETURNING and
// ON CONFLICT / ON DUPLICATE KEY UPDATE support for the upsert / insertOrIgnore
// DML compilers.
type InsertBuilder struct {
	dialect    string
	table      string
	columns    []string
	values     [][]any
	returning  []string
	conflict   *conflictClause
	ignore     bool
	defaultRow bool
}

type conflictClause struct {
	columns []string
	update  map[string]any
}

// Insert starts an INSERT statement into table.
func Insert(table string) *InsertBuilder { return &InsertBuilder{table: table} }

func (b *InsertBuilder) setDialect(name string) *InsertBuilder { b.dialect = name; return b }

// Columns sets the column list.
func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = columns
	return b
}

// Values appends one row of values, positional with Columns.
func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.values = append(b.values, values)
	return b
}

// Default marks this as a DEFAULT VALUES insert (no columns at all).
func (b *InsertBuilder) Default() *InsertBuilder { b.defaultRow = true; return b }

// Returning requests the given columns back (Postgres/SQLite RETURNING).
func (b *InsertBuilder) Returning(columns ...string) *InsertBuilder {
	b.returning = columns
	return b
}

// OnConflict configures an upsert: on a conflict over columns, update set
// instead of erroring. Renders as ON CONFLICT ... DO UPDATE on
// Postgres/SQLite and ON DUPLICATE KEY UPDATE on MySQL.
func (b *InsertBuilder) OnConflict(columns []string, set map[string]any) *InsertBuilder {
	b.conflict = &conflictClause{columns: columns, update: set}
	return b
}

// OnConflictIgnore configures an insertOrIgnore: conflicting rows are
// silently skipped instead of erroring.
func (b *InsertBuilder) OnConflictIgnore() *InsertBuilder { b.ignore = true; return b }

// Query implements Querier.
func (b *InsertBuilder) Query() (string, []any) {
	bd := &Builder{dialect: b.dialect}
	bd.WriteString("INSERT ")
	if b.ignore && b.dialect == dialect.MySQL {
		bd.WriteString("IGNORE ")
	}
	bd.WriteString("INTO ")
	bd.Ident(b.table)
	if b.defaultRow {
		bd.WriteString(" DEFAULT VALUES")
	} else {
		bd.WriteByte(' ').WriteByte('(')
		for i, c := range b.columns {
			if i > 0 {
				bd.Comma()
			}
			bd.Ident(c)
		}
		bd.WriteString(") VALUES ")
		for i, row := range b.values {
			if i > 0 {
				bd.Comma()
			}
			bd.WriteByte('(')
			bd.Args(row...)
			bd.WriteByte(')')
		}
	}
	switch {
	case b.conflict != nil:
		b.writeConflict(bd)
	case b.ignore && b.dialect != dialect.MySQL:
		bd.WriteString(" ON CONFLICT")
		if len(b.columns) > 0 {
			bd.WriteByte('(')
			for i, c := range b.columns {
				if i > 0 {
					bd.Comma()
				}
				bd.Ident(c)
			}
			bd.WriteByte(')')
		}
		bd.WriteString(" DO NOTHING")
	}
	if len(b.returning) > 0 && b.dialect != dialect.MySQL {
		bd.WriteString(" RETURNING ")
		for i, c := range b.returning {
			if i > 0 {
				bd.Comma()
			}
			bd.Ident(c)
		}
	}
	return bd.Query()
}

func (b *InsertBuilder) writeConflict(bd *Builder) {
	if b.dialect == dialect.MySQL {
		bd.WriteString(" ON DUPLICATE KEY UPDATE ")
		writeAssignments(bd, b.conflict.update)
		return
	}
	bd.WriteString(" ON CONFLICT")
	if len(b.conflict.columns) > 0 {
		bd.WriteByte('(')
		for i, c := range b.conflict.columns {
			if i > 0 {
				bd.Comma()
			}
			bd.Ident(c)
		}
		bd.WriteByte(')')
	}
	bd.WriteString(" DO UPDATE SET ")
	writeAssignments(bd, b.conflict.update)
}

// RawValue marks a DML Set/OnConflict value as a literal SQL fragment
// rather than a bound parameter — e.g. EXCLUDED.col or VALUES(col) in an
// upsert's merge assignment.
type RawValue string

func writeAssignments(bd *Builder, set map[string]any) {
	keys := sortedKeys(set)
	for i, k := range keys {
		if i > 0 {
			bd.Comma()
		}
		bd.Ident(k).WriteString(" = ")
		if rv, ok := set[k].(RawValue); ok {
			bd.WriteString(string(rv))
		} else {
			bd.Arg(set[k])
		}
	}
}

// UpdateBuilder builds an UPDATE statement.
type UpdateBuilder struct {
	dialect string
	table   string
	set     map[string]any
	order   []string // for SET clause determinism
	where   *Predicate
	limit   *int
}

// Update starts an UPDATE statement against table.
func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table, set: map[string]any{}}
}

func (b *UpdateBuilder) setDialect(name string) *UpdateBuilder { b.dialect = name; return b }

// Set assigns column = value.
func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	if _, ok := b.set[column]; !ok {
		b.order = append(b.order, column)
	}
	b.set[column] = value
	return b
}

// Where ANDs p onto the WHERE clause.
func (b *UpdateBuilder) Where(p *Predicate) *UpdateBuilder {
	if b.where == nil {
		b.where = p
		return b
	}
	b.where = And(b.where, p)
	return b
}

// Limit caps the number of rows updated (MySQL/SQLite only; Query omits it
// when rendering for Postgres, which has no UPDATE ... LIMIT).
func (b *UpdateBuilder) Limit(n int) *UpdateBuilder { b.limit = &n; return b }

// Query implements Querier.
func (b *UpdateBuilder) Query() (string, []any) {
	bd := &Builder{dialect: b.dialect}
	bd.WriteString("UPDATE ")
	bd.Ident(b.table)
	bd.WriteString(" SET ")
	for i, col := range b.order {
		if i > 0 {
			bd.Comma()
		}
		bd.Ident(col).WriteString(" = ").Arg(b.set[col])
	}
	if b.where != nil {
		bd.WriteString(" WHERE ")
		b.where.writeTo(bd)
	}
	if b.limit != nil && b.dialect != dialect.Postgres {
		bd.WriteString(" LIMIT " + strconv.Itoa(*b.limit))
	}
	return bd.Query()
}

// DeleteBuilder builds a DELETE statement.
type DeleteBuilder struct {
	dialect string
	table   string
	where   *Predicate
}

// Delete starts a DELETE statement against table.
func Delete(table string) *DeleteBuilder { return &DeleteBuilder{table: table} }

func (b *DeleteBuilder) setDialect(name string) *DeleteBuilder { b.dialect = name; return b }

// Where ANDs p onto the WHERE clause.
func (b *DeleteBuilder) Where(p *Predicate) *DeleteBuilder {
	if b.where == nil {
		b.where = p
		return b
	}
	b.where = And(b.where, p)
	return b
}

// Query implements Querier.
func (b *DeleteBuilder) Query() (string, []any) {
	bd := &Builder{dialect: b.dialect}
	bd.WriteString("DELETE FROM ")
	bd.Ident(b.table)
	if b.where != nil {
		bd.WriteString(" WHERE ")
		b.where.writeTo(bd)
	}
	return bd.Query()
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
